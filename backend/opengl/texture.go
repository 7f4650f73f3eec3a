//go:build !nogl

// Package opengl is a texture backend and layer compositor on OpenGL 4.1
// core profile.
//
// Every call must happen on the goroutine that owns the current GL
// context, normally the locked main thread of a glfw program.
package opengl

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/clipmap/texture"
)

// Factory creates GL textures in the current context.
type Factory struct {
	live    int
	uploads int
}

// NewFactory returns a Factory. gl.Init must have been called.
func NewFactory() *Factory { return &Factory{} }

// Live returns the number of textures created and not yet destroyed.
func (f *Factory) Live() int { return f.live }

// Uploads returns the number of region updates issued.
func (f *Factory) Uploads() int { return f.uploads }

// pixelFormat returns the internal and client formats of f.
func pixelFormat(f texture.Format) (internal int32, format uint32) {
	if f == texture.FormatR8 {
		return gl.R8, gl.RED
	}
	return gl.RGBA8, gl.RGBA
}

// CreateTexture implements texture.Factory. Atlases repeat in both
// directions and filter linearly.
func (f *Factory) CreateTexture(label string, width, height int, format texture.Format, data []byte) (texture.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", texture.ErrInvalidDimensions, width, height)
	}
	if !format.IsValid() {
		return nil, texture.ErrInvalidFormat
	}
	if data != nil && len(data) < format.RowBytes(width)*height {
		return nil, texture.ErrDataTooSmall
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if format == texture.FormatR8 {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_SWIZZLE_G, gl.RED)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_SWIZZLE_B, gl.RED)
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	internal, pf := pixelFormat(format)
	ptr := gl.Ptr(nil)
	if data != nil {
		ptr = gl.Ptr(data)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, pf, gl.UNSIGNED_BYTE, ptr)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return nil, fmt.Errorf("opengl: create texture %q: error 0x%x", label, code)
	}
	f.live++
	return &Texture{factory: f, id: id, label: label, width: width, height: height, format: format}, nil
}

// Texture is a GL texture object.
type Texture struct {
	factory *Factory
	id      uint32
	label   string
	width   int
	height  int
	format  texture.Format
}

// Size implements texture.Texture.
func (t *Texture) Size() (int, int) { return t.width, t.height }

// Format implements texture.Texture.
func (t *Texture) Format() texture.Format { return t.format }

// ID returns the GL texture name, 0 once destroyed.
func (t *Texture) ID() uint32 { return t.id }

// UpdateRegion implements texture.Texture.
func (t *Texture) UpdateRegion(r image.Rectangle, data []byte) error {
	if t.id == 0 {
		return texture.ErrReleased
	}
	if err := texture.CheckRegion(t, r, data); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}
	_, pf := pixelFormat(t.format)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()),
		pf, gl.UNSIGNED_BYTE, gl.Ptr(data))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	t.factory.uploads++
	return nil
}

// Destroy implements texture.Texture.
func (t *Texture) Destroy() {
	if t.id == 0 {
		return
	}
	gl.DeleteTextures(1, &t.id)
	t.id = 0
	t.factory.live--
}

var (
	_ texture.Factory = (*Factory)(nil)
	_ texture.Texture = (*Texture)(nil)
)
