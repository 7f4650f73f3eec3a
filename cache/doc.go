// Package cache keeps a bounded set of decoded pages resident and drives
// their asynchronous loading.
//
// # Request / fulfillment
//
// The frame loop calls Request for every page it needs, then Query for each
// of them. Request forwards unknown pages to a loader.Loader; the loader
// reports back through OnLoadComplete (or OnLoadFailed) from its own
// goroutine. Query never blocks: a page whose load has not completed yet is
// simply absent, and the caller retries on a later frame.
//
//	c := cache.New(ld, page.NewIndexer(info), factory)
//	c.Request(p)
//	if tile, ok := c.Query(p); ok {
//	    // copy tile.SubImage(r) into the atlas
//	}
//
// # Eviction
//
// The cache holds at most Capacity tiles. Inserting into a full cache
// evicts the least recently loaded tile first. Query does not promote
// entries unless the cache was built WithPromoteOnQuery.
//
// # Thread Safety
//
// All methods are safe for concurrent use. A single mutex guards the map,
// the LRU list and the pending set; it is never held while the loader
// produces data, while pages are converted, or while textures are created
// or destroyed.
package cache
