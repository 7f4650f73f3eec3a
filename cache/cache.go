package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/clipmap/internal/logging"
	"github.com/gogpu/clipmap/loader"
	"github.com/gogpu/clipmap/page"
	"github.com/gogpu/clipmap/texture"
)

type entry struct {
	tile *Tile
	node *lruNode[int]
}

// Cache is a bounded LRU set of resident tiles with request/fulfillment
// semantics. It implements loader.Sink.
type Cache struct {
	mu      sync.Mutex
	entries map[int]*entry
	lru     *lruList[int]
	pending map[int]struct{}
	failed  map[int]error
	closed  bool

	loader  loader.Loader
	indexer *page.Indexer
	factory texture.Factory
	format  texture.Format
	opts    options
	log     *slog.Logger

	// Statistics (atomic for lock-free reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	requests  atomic.Uint64
	loads     atomic.Uint64
	evictions atomic.Uint64
	failures  atomic.Uint64
}

var _ loader.Sink = (*Cache)(nil)

// New creates a cache that forwards misses to ld and keys tiles by the
// indices of indexer. factory may be nil, in which case tiles carry pixels
// only and no texture is created per tile.
func New(ld loader.Loader, indexer *page.Indexer, factory texture.Factory, opts ...Option) *Cache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache{
		entries: make(map[int]*entry, o.capacity),
		lru:     newLRUList[int](),
		pending: make(map[int]struct{}),
		failed:  make(map[int]error),
		loader:  ld,
		indexer: indexer,
		factory: factory,
		format:  texture.ForChannels(indexer.Info().Channels),
		opts:    o,
		log:     logging.Or(o.logger),
	}
}

// Request starts loading p unless it is resident, in flight, or has
// failed. It returns immediately; the loader may complete p before
// Request returns.
func (c *Cache) Request(p page.Page) {
	idx := c.indexer.PageToIndex(p)
	if idx < 0 {
		c.log.Debug("cache: request outside page table", "page", p)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.entries[idx]; ok {
		c.mu.Unlock()
		return
	}
	if _, ok := c.pending[idx]; ok {
		c.mu.Unlock()
		return
	}
	if _, ok := c.failed[idx]; ok {
		c.mu.Unlock()
		return
	}
	c.pending[idx] = struct{}{}
	c.mu.Unlock()

	c.requests.Add(1)
	c.loader.Load(p, c)
}

// OnLoadComplete converts data and inserts p as the most recently used
// tile, evicting the least recently used tiles while the cache is full.
// It is safe to call from any goroutine, including from within Request.
func (c *Cache) OnLoadComplete(p page.Page, data []byte) {
	idx := c.indexer.PageToIndex(p)
	if idx < 0 {
		c.log.Warn("cache: load completed outside page table", "page", p)
		return
	}

	tile, err := c.newTile(p, data)
	if err != nil {
		c.OnLoadFailed(p, err)
		return
	}

	var stale []texture.Texture

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		destroyTexture(tile.tex)
		return
	}
	delete(c.pending, idx)
	delete(c.failed, idx)

	if e, ok := c.entries[idx]; ok {
		if e.tile.tex != nil {
			stale = append(stale, e.tile.tex)
		}
		e.tile = tile
		c.lru.MoveToFront(e.node)
	} else {
		for c.lru.Len() >= c.opts.capacity {
			victim, ok := c.lru.RemoveOldest()
			if !ok {
				break
			}
			ve := c.entries[victim]
			delete(c.entries, victim)
			if ve.tile.tex != nil {
				stale = append(stale, ve.tile.tex)
			}
			c.evictions.Add(1)
			if c.log.Enabled(context.Background(), slog.LevelDebug) {
				vp, _ := c.indexer.IndexToPage(victim)
				c.log.Debug("cache: evicted", "page", vp)
			}
		}
		c.entries[idx] = &entry{tile: tile, node: c.lru.PushFront(idx)}
	}
	c.mu.Unlock()

	c.loads.Add(1)
	for _, tex := range stale {
		destroyTexture(tex)
	}
}

// OnLoadFailed records that p could not be loaded. The page stays absent
// and is not requested again until Retry.
func (c *Cache) OnLoadFailed(p page.Page, err error) {
	idx := c.indexer.PageToIndex(p)
	if idx < 0 {
		return
	}
	c.mu.Lock()
	delete(c.pending, idx)
	if !c.closed {
		c.failed[idx] = err
	}
	c.mu.Unlock()

	c.failures.Add(1)
	c.log.Warn("cache: page load failed", "page", p, "error", err)
}

// Query returns the resident tile for p. It never blocks on a load; a page
// that is not resident yet reports false and should be retried on a later
// frame.
func (c *Cache) Query(p page.Page) (*Tile, bool) {
	idx := c.indexer.PageToIndex(p)
	if idx < 0 {
		c.misses.Add(1)
		return nil, false
	}

	c.mu.Lock()
	e, ok := c.entries[idx]
	if ok && c.opts.promote {
		c.lru.MoveToFront(e.node)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.tile, true
}

// Contains reports whether p is resident without touching statistics or
// recency.
func (c *Cache) Contains(p page.Page) bool {
	idx := c.indexer.PageToIndex(p)
	c.mu.Lock()
	_, ok := c.entries[idx]
	c.mu.Unlock()
	return ok
}

// Pending reports whether a load of p is in flight.
func (c *Cache) Pending(p page.Page) bool {
	idx := c.indexer.PageToIndex(p)
	c.mu.Lock()
	_, ok := c.pending[idx]
	c.mu.Unlock()
	return ok
}

// Failure returns the error recorded for p by OnLoadFailed, or nil.
func (c *Cache) Failure(p page.Page) error {
	idx := c.indexer.PageToIndex(p)
	c.mu.Lock()
	err := c.failed[idx]
	c.mu.Unlock()
	return err
}

// Retry clears a recorded failure for p and requests it again. It reports
// whether p had failed.
func (c *Cache) Retry(p page.Page) bool {
	idx := c.indexer.PageToIndex(p)
	c.mu.Lock()
	_, failed := c.failed[idx]
	delete(c.failed, idx)
	c.mu.Unlock()
	if failed {
		c.Request(p)
	}
	return failed
}

// Pages returns the resident pages from most to least recently used.
func (c *Cache) Pages() []page.Page {
	c.mu.Lock()
	keys := c.lru.Keys()
	c.mu.Unlock()

	out := make([]page.Page, 0, len(keys))
	for _, k := range keys {
		if p, ok := c.indexer.IndexToPage(k); ok {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of resident tiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Capacity returns the maximum number of resident tiles.
func (c *Cache) Capacity() int {
	return c.opts.capacity
}

// Close drops every tile and destroys their textures. Loads completing
// after Close are discarded.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var stale []texture.Texture
	for _, e := range c.entries {
		if e.tile.tex != nil {
			stale = append(stale, e.tile.tex)
		}
	}
	clear(c.entries)
	clear(c.pending)
	clear(c.failed)
	c.lru.Clear()
	c.mu.Unlock()

	for _, tex := range stale {
		destroyTexture(tex)
	}
}

// Stats contains cache statistics.
type Stats struct {
	Len       int     // Current number of resident tiles
	Capacity  int     // Maximum number of resident tiles
	Pending   int     // Loads in flight
	Failed    int     // Pages whose last load failed
	Hits      uint64  // Query calls that found a tile
	Misses    uint64  // Query calls that found nothing
	Requests  uint64  // Loads handed to the loader
	Loads     uint64  // Tiles inserted
	Evictions uint64  // Tiles evicted to make room
	Failures  uint64  // Failed loads
	HitRate   float64 // Hits / (Hits + Misses)
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	s := Stats{
		Len:      c.lru.Len(),
		Capacity: c.opts.capacity,
		Pending:  len(c.pending),
		Failed:   len(c.failed),
	}
	c.mu.Unlock()

	s.Hits = c.hits.Load()
	s.Misses = c.misses.Load()
	s.Requests = c.requests.Load()
	s.Loads = c.loads.Load()
	s.Evictions = c.evictions.Load()
	s.Failures = c.failures.Load()
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// ResetStats clears the hit, miss and load counters.
func (c *Cache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.requests.Store(0)
	c.loads.Store(0)
	c.evictions.Store(0)
	c.failures.Store(0)
}

func (c *Cache) newTile(p page.Page, data []byte) (*Tile, error) {
	info := c.indexer.Info()
	pix := make([]byte, info.TileSize*info.TileSize*c.format.BytesPerPixel())
	if err := texture.ConvertPage(pix, data, info.TileSize, info.Channels, info.BytesPerChannel, c.format); err != nil {
		return nil, fmt.Errorf("cache: convert %v: %w", p, err)
	}
	t := &Tile{page: p, format: c.format, size: info.TileSize, pix: pix}
	if c.factory == nil {
		return t, nil
	}
	tex, err := c.factory.CreateTexture(p.String(), info.TileSize, info.TileSize, c.format, pix)
	if err != nil {
		// The pixels are enough for atlas placement.
		c.log.Warn("cache: tile texture creation failed", "page", p, "error", err)
		return t, nil
	}
	t.tex = tex
	return t, nil
}

func destroyTexture(tex texture.Texture) {
	if tex != nil {
		tex.Destroy()
	}
}
