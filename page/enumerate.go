package page

import (
	"iter"
	"math"

	"github.com/gogpu/clipmap/geom"
)

// Enumerate yields every page at mip whose cell intersects region, paired
// with the part of region that falls inside that cell. region must be
// expressed in mip's own pixel scale, where a cell is tileSize pixels wide.
//
// Cells are visited row by row. Cells that region only touches along an
// edge are skipped. An empty or invalid region yields nothing. The returned
// sequence holds no state between calls and can be ranged over repeatedly.
func Enumerate(region geom.Rect, mip, tileSize int) iter.Seq2[Page, geom.Rect] {
	return func(yield func(Page, geom.Rect) bool) {
		if region.IsEmpty() || region.HasNaN() || tileSize <= 0 {
			return
		}
		ts := float64(tileSize)
		x0 := int(math.Floor(region.XMin / ts))
		y0 := int(math.Floor(region.YMin / ts))
		x1 := int(math.Floor(region.XMax / ts))
		y1 := int(math.Floor(region.YMax / ts))

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				cell := geom.XYWH(float64(x)*ts, float64(y)*ts, ts, ts)
				clip := region.Intersect(cell)
				if clip.IsEmpty() {
					continue
				}
				if !yield(Page{X: x, Y: y, Mip: mip}, clip) {
					return
				}
			}
		}
	}
}

// Cell returns the pixel rectangle of p's cell in p's own mip scale.
func Cell(p Page, tileSize int) geom.Rect {
	ts := float64(tileSize)
	return geom.XYWH(float64(p.X)*ts, float64(p.Y)*ts, ts, ts)
}

// Collect gathers the pages and clipped rectangles of Enumerate over every
// region in regions.
func Collect(regions []geom.Rect, mip, tileSize int) []Placement {
	var out []Placement
	for _, r := range regions {
		for p, clip := range Enumerate(r, mip, tileSize) {
			out = append(out, Placement{Page: p, Rect: clip})
		}
	}
	return out
}

// Placement is a page paired with the part of it that must be copied.
type Placement struct {
	Page Page
	Rect geom.Rect
}
