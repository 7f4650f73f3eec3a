package stack

import (
	"image"

	"github.com/gogpu/clipmap/geom"
	"github.com/gogpu/clipmap/page"
)

// fragment is the part of one page currently held in an atlas cell.
type fragment struct {
	page page.Page
	rect geom.Rect // atlas pixels
}

// SlotMap records which page owns each pixel of a layer's atlas.
//
// The atlas is a toroidal window: world pixel (x, y) of a layer lives at
// atlas pixel (x mod size, y mod size). A cell holds fragments of the pages
// whose clipped rectangles were placed there, so a resident region that is
// not tile-aligned can keep the left part of one page and the right part of
// the page one atlas-width away in the same cell.
type SlotMap struct {
	tileSize  int
	atlasSize int
	perRow    int
	cells     [][]fragment
}

// NewSlotMap creates an empty map for an atlas of atlasSize pixels split
// into cells of tileSize pixels. tileSize must divide atlasSize.
func NewSlotMap(tileSize, atlasSize int) *SlotMap {
	perRow := atlasSize / tileSize
	return &SlotMap{
		tileSize:  tileSize,
		atlasSize: atlasSize,
		perRow:    perRow,
		cells:     make([][]fragment, perRow*perRow),
	}
}

// TilesPerRow returns the number of cells along one atlas edge.
func (m *SlotMap) TilesPerRow() int { return m.perRow }

// Cell returns the atlas cell addressed by p.
func (m *SlotMap) Cell(p page.Page) (cx, cy int) {
	return mod(p.X, m.perRow), mod(p.Y, m.perRow)
}

// Target maps clip, a rectangle inside p's cell in layer pixels, to the
// atlas pixels it occupies.
func (m *SlotMap) Target(p page.Page, clip geom.Rect) image.Rectangle {
	cx, cy := m.Cell(p)
	ts := float64(m.tileSize)
	dx := float64(cx*m.tileSize) - float64(p.X)*ts
	dy := float64(cy*m.tileSize) - float64(p.Y)*ts
	return clip.Translate(dx, dy).Image()
}

// Assign records that the atlas pixels r now hold page p. Fragments of
// other pages under r are trimmed away.
func (m *SlotMap) Assign(p page.Page, r image.Rectangle) {
	if r.Empty() {
		return
	}
	cx, cy := r.Min.X/m.tileSize, r.Min.Y/m.tileSize
	idx := cy*m.perRow + cx
	placed := geom.FromImage(r)

	kept := m.cells[idx][:0:0]
	for _, f := range m.cells[idx] {
		if !f.rect.Intersects(placed) {
			kept = append(kept, f)
			continue
		}
		for _, rest := range geom.Diff(placed, f.rect) {
			kept = append(kept, fragment{page: f.page, rect: rest})
		}
	}
	m.cells[idx] = append(kept, fragment{page: p, rect: placed})
}

// Owner returns the page whose pixels occupy atlas pixel (x, y).
func (m *SlotMap) Owner(x, y int) (page.Page, bool) {
	x, y = mod(x, m.atlasSize), mod(y, m.atlasSize)
	idx := (y/m.tileSize)*m.perRow + x/m.tileSize
	px := geom.XYWH(float64(x), float64(y), 1, 1)
	for _, f := range m.cells[idx] {
		if f.rect.Contains(px) {
			return f.page, true
		}
	}
	return page.Page{}, false
}

// Holds reports whether any pixel of p is still in the atlas.
func (m *SlotMap) Holds(p page.Page) bool {
	cx, cy := m.Cell(p)
	for _, f := range m.cells[cy*m.perRow+cx] {
		if f.page == p {
			return true
		}
	}
	return false
}

// Coverage returns the area of region, in layer pixels, whose atlas pixels
// hold the page that region's world position belongs to. It equals
// region.Area() exactly when every pixel of region has been placed and
// not overwritten since.
func (m *SlotMap) Coverage(region geom.Rect) float64 {
	if region.IsEmpty() {
		return 0
	}
	ts := float64(m.tileSize)
	var area float64
	for _, cell := range m.cells {
		for _, f := range cell {
			cx, cy := m.Cell(f.page)
			world := f.rect.Translate(float64(f.page.X-cx)*ts, float64(f.page.Y-cy)*ts)
			area += world.Intersect(region).Area()
		}
	}
	return area
}

// Reset forgets every placement.
func (m *SlotMap) Reset() {
	for i := range m.cells {
		m.cells[i] = nil
	}
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
