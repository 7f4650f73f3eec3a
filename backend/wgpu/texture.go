package wgpu

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/clipmap/texture"
)

// CreateTexture implements texture.Factory.
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

	raw, err := f.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format.GPUFormat(),
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %q: %w", label, err)
	}
	f.created.Add(1)

	t := &Texture{factory: f, raw: raw, label: label, width: width, height: height, format: format}
	if data != nil {
		if err := t.UpdateRegion(image.Rect(0, 0, width, height), data); err != nil {
			t.Destroy()
			return nil, err
		}
	}
	return t, nil
}

// Texture is an atlas texture on a HAL device.
type Texture struct {
	factory *Factory
	label   string
	width   int
	height  int
	format  texture.Format

	mu       sync.RWMutex
	raw      hal.Texture
	view     hal.TextureView
	released bool
}

// Size implements texture.Texture.
func (t *Texture) Size() (int, int) { return t.width, t.height }

// Format implements texture.Texture.
func (t *Texture) Format() texture.Format { return t.format }

// Label returns the debug label given at creation.
func (t *Texture) Label() string { return t.label }

// Raw returns the HAL texture, or nil once destroyed.
func (t *Texture) Raw() hal.Texture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.released {
		return nil
	}
	return t.raw
}

// View returns the default 2D view for binding the atlas to a shader,
// creating it on first use.
func (t *Texture) View() (hal.TextureView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, texture.ErrReleased
	}
	if t.view != nil {
		return t.view, nil
	}
	view, err := t.factory.device.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:         t.label + "_view",
		Format:        t.format.GPUFormat(),
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create view %q: %w", t.label, err)
	}
	t.view = view
	return view, nil
}

// UpdateRegion implements texture.Texture.
func (t *Texture) UpdateRegion(r image.Rectangle, data []byte) error {
	if err := texture.CheckRegion(t, r, data); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.released {
		return texture.ErrReleased
	}

	row := t.format.RowBytes(r.Dx())
	n := row * r.Dy()
	t.factory.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y), Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		data[:n],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(row),
			RowsPerImage: uint32(r.Dy()),
		},
		&hal.Extent3D{Width: uint32(r.Dx()), Height: uint32(r.Dy()), DepthOrArrayLayers: 1},
	)
	t.factory.uploads.Add(1)
	t.factory.bytes.Add(int64(n))
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
	if t.view != nil {
		t.factory.device.DestroyTextureView(t.view)
		t.view = nil
	}
	t.factory.device.DestroyTexture(t.raw)
	t.raw = nil
	t.factory.destroyed.Add(1)
}

var (
	_ texture.Factory = (*Factory)(nil)
	_ texture.Texture = (*Texture)(nil)
)
