// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package debugview renders clipmap frames on the CPU and hands them to a
// gpucontext host for display.
//
// It blends the two layers selected by composite.Build exactly like the
// blend shader does, but samples soft backend atlases with nearest
// filtering. The result is useful for headless dumps and for checking a
// GPU compositor against a reference image.
//
// Usage with a gogpu window:
//
//	view := debugview.New(512, 512)
//	defer view.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//		params, ok := composite.Build(stack)
//		if !ok {
//			return
//		}
//		if err := view.RenderTo(dc, params); err != nil {
//			log.Println(err)
//		}
//	})
package debugview

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/clipmap/backend/soft"
	"github.com/gogpu/clipmap/composite"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("debugview: view is closed")

	// ErrNotSoft is returned when a layer atlas is not a soft texture.
	ErrNotSoft = errors.New("debugview: atlas is not a soft texture")

	// ErrNoCreator is returned when the draw context cannot create
	// textures.
	ErrNoCreator = errors.New("debugview: draw context has no TextureCreator")

	// ErrNotDrawable is returned when the host texture is not a
	// gpucontext.Texture.
	ErrNotDrawable = errors.New("debugview: host texture is not drawable")
)

type textureDestroyer interface {
	Destroy()
}

// View composes frames of a fixed size.
type View struct {
	width, height int
	frame         *image.RGBA
	texture       any
	closed        bool
}

// New creates a width x height view.
func New(width, height int) *View {
	return &View{
		width:  width,
		height: height,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size returns the view dimensions.
func (v *View) Size() (width, height int) { return v.width, v.height }

// Frame returns the last composed frame. The image is reused by the next
// Compose.
func (v *View) Frame() *image.RGBA { return v.frame }

// Compose blends the layers described by p into the view's frame.
func (v *View) Compose(p composite.Params) (*image.RGBA, error) {
	if v.closed {
		return nil, ErrClosed
	}
	fine, ok := p.Fine.Atlas.(*soft.Texture)
	if !ok {
		return nil, ErrNotSoft
	}
	coarse, ok := p.Coarse.Atlas.(*soft.Texture)
	if !ok {
		return nil, ErrNotSoft
	}
	fineImg, coarseImg := fine.RGBA(), coarse.RGBA()

	w := p.Weight
	for y := range v.height {
		ty := (float32(y) + 0.5) / float32(v.height)
		for x := range v.width {
			tx := (float32(x) + 0.5) / float32(v.width)
			a := sample(fineImg, mix(p.Fine.UV[0], p.Fine.UV[2], tx), mix(p.Fine.UV[1], p.Fine.UV[3], ty))
			b := sample(coarseImg, mix(p.Coarse.UV[0], p.Coarse.UV[2], tx), mix(p.Coarse.UV[1], p.Coarse.UV[3], ty))
			off := v.frame.PixOffset(x, y)
			for c := range 4 {
				v.frame.Pix[off+c] = uint8(math.Round(float64(mix(float32(a[c]), float32(b[c]), w))))
			}
		}
	}
	return v.frame, nil
}

func mix(a, b, t float32) float32 { return a + (b-a)*t }

// sample reads the texel under (u, v) with repeat addressing.
func sample(img *image.RGBA, u, v float32) [4]uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x := wrap(int(math.Floor(float64(u*float32(w)))), w)
	y := wrap(int(math.Floor(float64(v*float32(h)))), h)
	off := img.PixOffset(x, y)
	return [4]uint8(img.Pix[off : off+4])
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// RenderTo composes p and draws it at the origin of dc. The host texture
// is created on first use and updated in place afterwards.
func (v *View) RenderTo(dc gpucontext.TextureDrawer, p composite.Params) error {
	frame, err := v.Compose(p)
	if err != nil {
		return err
	}

	if v.texture == nil {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoCreator
		}
		tex, err := creator.NewTextureFromRGBA(v.width, v.height, frame.Pix)
		if err != nil {
			return fmt.Errorf("debugview: NewTextureFromRGBA failed: %w", err)
		}
		v.texture = tex
	} else if updater, ok := v.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(frame.Pix); err != nil {
			return fmt.Errorf("debugview: texture update failed: %w", err)
		}
	}

	gpuTex, ok := v.texture.(gpucontext.Texture)
	if !ok {
		return ErrNotDrawable
	}
	return dc.DrawTexture(gpuTex, 0, 0)
}

// Close releases the host texture.
func (v *View) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	if d, ok := v.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	v.texture = nil
	return nil
}
