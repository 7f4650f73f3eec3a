// Package soft is a CPU-memory texture backend. It keeps every texture as
// a tightly packed byte slice, which makes it the backend of choice for
// tests, headless simulation and debug views that read pixels back.
package soft

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/gogpu/clipmap/texture"
)

// Factory creates CPU textures. It is safe for concurrent use.
type Factory struct {
	created   atomic.Int64
	destroyed atomic.Int64
	uploads   atomic.Int64
}

// NewFactory creates a soft texture factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateTexture implements texture.Factory.
func (f *Factory) CreateTexture(label string, width, height int, format texture.Format, data []byte) (texture.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", texture.ErrInvalidDimensions, width, height)
	}
	if !format.IsValid() {
		return nil, texture.ErrInvalidFormat
	}
	size := format.RowBytes(width) * height
	if data != nil && len(data) < size {
		return nil, texture.ErrDataTooSmall
	}
	t := &Texture{
		factory: f,
		label:   label,
		width:   width,
		height:  height,
		format:  format,
		pix:     make([]byte, size),
	}
	if data != nil {
		copy(t.pix, data)
	}
	f.created.Add(1)
	return t, nil
}

// Live returns the number of textures created and not yet destroyed.
func (f *Factory) Live() int64 { return f.created.Load() - f.destroyed.Load() }

// Created returns the total number of textures created.
func (f *Factory) Created() int64 { return f.created.Load() }

// Uploads returns the number of successful UpdateRegion calls.
func (f *Factory) Uploads() int64 { return f.uploads.Load() }

// Texture is a CPU-resident texture.
//
// Texture is safe for concurrent use; pixel reads and region updates are
// serialized by an internal lock.
type Texture struct {
	factory *Factory
	label   string
	width   int
	height  int
	format  texture.Format

	mu       sync.RWMutex
	pix      []byte
	released bool
}

// Size implements texture.Texture.
func (t *Texture) Size() (int, int) { return t.width, t.height }

// Format implements texture.Texture.
func (t *Texture) Format() texture.Format { return t.format }

// Label returns the debug label given at creation.
func (t *Texture) Label() string { return t.label }

// UpdateRegion implements texture.Texture.
func (t *Texture) UpdateRegion(r image.Rectangle, data []byte) error {
	if err := texture.CheckRegion(t, r, data); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return texture.ErrReleased
	}

	row := t.format.RowBytes(r.Dx())
	stride := t.format.RowBytes(t.width)
	bpp := t.format.BytesPerPixel()
	for y := 0; y < r.Dy(); y++ {
		off := (r.Min.Y+y)*stride + r.Min.X*bpp
		copy(t.pix[off:off+row], data[y*row:(y+1)*row])
	}
	if t.factory != nil {
		t.factory.uploads.Add(1)
	}
	return nil
}

// Destroy implements texture.Texture.
func (t *Texture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.pix = nil
	if t.factory != nil {
		t.factory.destroyed.Add(1)
	}
}

// Released reports whether Destroy has been called.
func (t *Texture) Released() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.released
}

// Pixels returns a copy of the texture contents.
func (t *Texture) Pixels() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]byte, len(t.pix))
	copy(out, t.pix)
	return out
}

// At returns the bytes of the pixel at (x, y).
func (t *Texture) At(x, y int) []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.released || x < 0 || y < 0 || x >= t.width || y >= t.height {
		return nil
	}
	bpp := t.format.BytesPerPixel()
	off := y*t.format.RowBytes(t.width) + x*bpp
	out := make([]byte, bpp)
	copy(out, t.pix[off:off+bpp])
	return out
}

// RGBA returns the texture as an opaque-or-alpha RGBA image. R8 textures
// are expanded to gray.
func (t *Texture) RGBA() *image.RGBA {
	t.mu.RLock()
	defer t.mu.RUnlock()
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	if t.released {
		return img
	}
	switch t.format {
	case texture.FormatR8:
		for i, v := range t.pix {
			img.Set(i%t.width, i/t.width, color.Gray{Y: v})
		}
	default:
		copy(img.Pix, t.pix)
	}
	return img
}
