package cache

import (
	"image"

	"github.com/gogpu/clipmap/page"
	"github.com/gogpu/clipmap/texture"
)

// Tile is a resident, converted page.
//
// The pixel buffer is immutable once the tile is published, so a Tile
// returned by Query stays readable after the cache evicts it. The texture
// handle, if any, is destroyed on eviction and must not be used afterwards.
type Tile struct {
	page   page.Page
	format texture.Format
	size   int
	pix    []byte
	tex    texture.Texture
}

// Page returns the page the tile holds.
func (t *Tile) Page() page.Page { return t.page }

// Format returns the pixel format of Pixels.
func (t *Tile) Format() texture.Format { return t.format }

// Size returns the edge length in pixels.
func (t *Tile) Size() int { return t.size }

// Pixels returns the converted pixels, row-major and tightly packed.
// The slice must not be modified.
func (t *Tile) Pixels() []byte { return t.pix }

// Texture returns the GPU copy of the tile, or nil if the cache was built
// without a texture factory.
func (t *Tile) Texture() texture.Texture { return t.tex }

// SubImage returns a tightly packed copy of the pixels inside r, given in
// tile-local pixel coordinates. r is clipped to the tile.
func (t *Tile) SubImage(r image.Rectangle) []byte {
	r = r.Intersect(image.Rect(0, 0, t.size, t.size))
	if r.Empty() {
		return nil
	}
	bpp := t.format.BytesPerPixel()
	stride := t.size * bpp
	row := r.Dx() * bpp
	if r.Dx() == t.size && r.Dy() == t.size {
		out := make([]byte, len(t.pix))
		copy(out, t.pix)
		return out
	}
	out := make([]byte, row*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := t.pix[y*stride+r.Min.X*bpp:]
		copy(out[(y-r.Min.Y)*row:], src[:row])
	}
	return out
}
