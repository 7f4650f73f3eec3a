package stack

import "github.com/gogpu/clipmap/geom"

// LayerStats describes what one Update did to one layer.
type LayerStats struct {
	Mip       int
	Relation  geom.Relation
	Target    geom.Rect
	Delta     []geom.Rect
	Committed geom.Rect

	// Requested counts distinct pages handed to the cache.
	Requested int
	// Placed counts clipped rectangles copied into the atlas.
	Placed int
	// Deferred counts clipped rectangles whose page was not resident.
	Deferred int
}

// UpdateStats describes one Update.
type UpdateStats struct {
	// StartLevel is the finest level refreshed this frame.
	StartLevel int
	// Scale and World are the clamped view: World is the visible
	// rectangle in mip-0 pixels.
	Scale float64
	World geom.Rect

	Layers []LayerStats
}

// Requested returns the number of pages requested across all layers.
func (s UpdateStats) Requested() int {
	n := 0
	for _, l := range s.Layers {
		n += l.Requested
	}
	return n
}

// Placed returns the number of rectangles placed across all layers.
func (s UpdateStats) Placed() int {
	n := 0
	for _, l := range s.Layers {
		n += l.Placed
	}
	return n
}

// Deferred returns the number of rectangles left for a later frame.
func (s UpdateStats) Deferred() int {
	n := 0
	for _, l := range s.Layers {
		n += l.Deferred
	}
	return n
}

// Layer returns the stats of mip, if it was refreshed.
func (s UpdateStats) Layer(mip int) (LayerStats, bool) {
	for _, l := range s.Layers {
		if l.Mip == mip {
			return l, true
		}
	}
	return LayerStats{}, false
}
