// Package texture defines the GPU resource capability the clipmap core
// consumes: creating a texture from pixel data and updating a
// sub-rectangle of it.
//
// Backends live under backend/: soft (CPU memory), wgpu (gogpu/wgpu HAL)
// and gl (OpenGL 4.1). The core never depends on a concrete backend.
package texture

import (
	"errors"
	"image"
)

// Errors returned by backends.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("texture: invalid dimensions")

	// ErrInvalidFormat is returned for an unknown pixel format.
	ErrInvalidFormat = errors.New("texture: invalid format")

	// ErrDataTooSmall is returned when pixel data is shorter than the
	// rectangle it should fill.
	ErrDataTooSmall = errors.New("texture: data buffer too small")

	// ErrOutOfBounds is returned when an update rectangle leaves the texture.
	ErrOutOfBounds = errors.New("texture: region out of bounds")

	// ErrReleased is returned when operating on a destroyed texture.
	ErrReleased = errors.New("texture: texture has been released")
)

// Texture is an opaque GPU-resident image.
type Texture interface {
	// Size returns the texture dimensions in pixels.
	Size() (width, height int)

	// Format returns the pixel format.
	Format() Format

	// UpdateRegion replaces the pixels inside r with data, which holds
	// r.Dx()*r.Dy() tightly packed pixels in the texture's format.
	UpdateRegion(r image.Rectangle, data []byte) error

	// Destroy releases the texture. Further use returns ErrReleased.
	Destroy()
}

// Factory creates textures.
type Factory interface {
	// CreateTexture creates a width x height texture. data may be nil for
	// an uninitialized texture, otherwise it must hold the full image.
	CreateTexture(label string, width, height int, format Format, data []byte) (Texture, error)
}

// CheckRegion validates an UpdateRegion call against a texture's size and
// format. Backends call it before touching their resources.
func CheckRegion(tex Texture, r image.Rectangle, data []byte) error {
	w, h := tex.Size()
	if r.Empty() {
		return nil
	}
	if !r.In(image.Rect(0, 0, w, h)) {
		return ErrOutOfBounds
	}
	if len(data) < tex.Format().RowBytes(r.Dx())*r.Dy() {
		return ErrDataTooSmall
	}
	return nil
}
