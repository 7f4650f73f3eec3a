package stack

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/clipmap/geom"
	"github.com/gogpu/clipmap/texture"
)

// LayerState tells whether a layer has committed content.
type LayerState uint8

const (
	// LayerEmpty means nothing was ever committed to the layer.
	LayerEmpty LayerState = iota
	// LayerPopulated means the layer has a resident region.
	LayerPopulated
)

func (s LayerState) String() string {
	if s == LayerPopulated {
		return "populated"
	}
	return "empty"
}

// Layer is the atlas of one mip level and the region it holds.
type Layer struct {
	mip       int
	atlasSize int
	atlas     texture.Texture
	region    geom.Rect
	state     LayerState
	slots     *SlotMap
}

func newLayer(mip, tileSize, atlasSize int) *Layer {
	return &Layer{
		mip:       mip,
		atlasSize: atlasSize,
		region:    geom.Empty(),
		slots:     NewSlotMap(tileSize, atlasSize),
	}
}

// Mip returns the mip level the layer holds.
func (l *Layer) Mip() int { return l.mip }

// Atlas returns the atlas texture, or nil before Init.
func (l *Layer) Atlas() texture.Texture { return l.atlas }

// Region returns the resident region in the layer's own pixel scale.
func (l *Layer) Region() geom.Rect { return l.region }

// State returns the layer state.
func (l *Layer) State() LayerState { return l.state }

// Slots returns the layer's slot map.
func (l *Layer) Slots() *SlotMap { return l.slots }

// UVRegion returns the atlas texture coordinates of the resident region as
// (u0, v0, u1, v1). See UV.
func (l *Layer) UVRegion() (mgl32.Vec4, bool) {
	return l.UV(l.region.Scale(math.Ldexp(1, l.mip)))
}

// UV maps world, a rectangle in mip-0 pixels, to atlas texture coordinates
// (u0, v0, u1, v1). u0 and v0 lie in [0, 1); u1 and v1 may exceed 1 when
// the rectangle wraps around the atlas edge, so the atlas must be sampled
// with repeat addressing. The rectangle is inset by half a texel so
// bilinear taps never reach the neighbouring column of the window. ok is
// false for an empty rectangle.
func (l *Layer) UV(world geom.Rect) (uv mgl32.Vec4, ok bool) {
	if world.IsEmpty() || world.HasNaN() {
		return mgl32.Vec4{}, false
	}
	r := world.Scale(math.Ldexp(1, -l.mip))
	size := float64(l.atlasSize)
	half := 0.5 / size

	u0 := math.Mod(r.XMin, size)
	if u0 < 0 {
		u0 += size
	}
	v0 := math.Mod(r.YMin, size)
	if v0 < 0 {
		v0 += size
	}
	u0 /= size
	v0 /= size
	u1 := u0 + r.Width()/size
	v1 := v0 + r.Height()/size

	if u1-u0 > 2*half {
		u0, u1 = u0+half, u1-half
	}
	if v1-v0 > 2*half {
		v0, v1 = v0+half, v1-half
	}
	return mgl32.Vec4{float32(u0), float32(v0), float32(u1), float32(v1)}, true
}
