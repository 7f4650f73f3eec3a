package page

import "sort"

// Indexer maps pages to dense indices and back. Indices of mip 0 come
// first, followed by each coarser level in row-major order.
//
// Indexer is immutable after creation and safe for concurrent use.
type Indexer struct {
	info    Info
	offsets []int // first index of each mip, plus the total count
}

// NewIndexer builds the index table for info.
func NewIndexer(info Info) *Indexer {
	levels := info.Levels()
	offsets := make([]int, levels+1)
	for mip := range levels {
		offsets[mip+1] = offsets[mip] + info.LevelWidth(mip)*info.LevelHeight(mip)
	}
	return &Indexer{info: info, offsets: offsets}
}

// Info returns the layout the indexer was built for.
func (x *Indexer) Info() Info { return x.info }

// Count returns the number of pages across all levels.
func (x *Indexer) Count() int { return x.offsets[len(x.offsets)-1] }

// PageToIndex returns the index of p, or -1 if p lies outside the page
// table.
func (x *Indexer) PageToIndex(p Page) int {
	if !x.info.Contains(p) {
		return -1
	}
	return x.offsets[p.Mip] + p.Y*x.info.LevelWidth(p.Mip) + p.X
}

// IndexToPage returns the page at idx. ok is false if idx is out of range.
func (x *Indexer) IndexToPage(idx int) (p Page, ok bool) {
	if idx < 0 || idx >= x.Count() {
		return Page{}, false
	}
	// offsets is sorted; find the last level whose offset is <= idx.
	mip := sort.SearchInts(x.offsets, idx+1) - 1
	local := idx - x.offsets[mip]
	w := x.info.LevelWidth(mip)
	return Page{X: local % w, Y: local / w, Mip: mip}, true
}
