// Package composite selects and describes the two clipmap layers the
// display blends for a given scale.
//
// The blend itself runs in the WGSL shader returned by ShaderSource; this
// package computes its inputs: which layers to bind, the atlas texture
// coordinates of the visible window in each, and the mix weight.
package composite

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/naga"

	"github.com/gogpu/clipmap/geom"
	"github.com/gogpu/clipmap/stack"
	"github.com/gogpu/clipmap/texture"
)

//go:embed shaders/blend.wgsl
var blendShaderWGSL string

// Select returns the pair of levels blended at scale for a clipmap with
// the given number of levels: fine = floor(clamp(log2(scale), 0, levels-1)),
// coarse = min(fine+1, levels-1), and the weight of the coarse level, the
// fractional part of the clamped log2(scale).
func Select(scale float64, levels int) (fine, coarse int, weight float32) {
	if levels <= 0 {
		return 0, 0, 0
	}
	lg := math.Log2(scale)
	if math.IsNaN(lg) {
		lg = 0
	}
	lg = max(0, min(lg, float64(levels-1)))
	fine = int(math.Floor(lg))
	coarse = min(fine+1, levels-1)
	if coarse == fine {
		return fine, coarse, 0
	}
	return fine, coarse, float32(lg - float64(fine))
}

// Binding is one layer as the blend shader sees it.
type Binding struct {
	Mip   int
	Atlas texture.Texture
	// UV is the visible window in atlas texture coordinates
	// (u0, v0, u1, v1).
	UV mgl32.Vec4
	// Covered reports whether every pixel of the visible window has been
	// placed in the atlas and not overwritten since.
	Covered bool
}

// Params is everything the display needs to draw one frame.
type Params struct {
	Scale  float64
	World  geom.Rect
	Fine   Binding
	Coarse Binding
	Weight float32
}

// Build describes the blend for the view of the stack's last Update. ok is
// false before the first Update.
//
// When the fine layer does not cover the window (it is only refreshed from
// the ceiling of log2(scale) up), the weight moves entirely to the coarse
// layer.
func Build(s *stack.Stack) (p Params, ok bool) {
	scale, world := s.View()
	if world.IsEmpty() || !s.Ready() {
		return Params{}, false
	}
	fine, coarse, weight := Select(scale, len(s.Layers()))
	p = Params{
		Scale:  scale,
		World:  world,
		Fine:   bind(s, fine, world),
		Coarse: bind(s, coarse, world),
		Weight: weight,
	}
	if !p.Fine.Covered && p.Coarse.Covered {
		p.Weight = 1
	}
	return p, true
}

func bind(s *stack.Stack, mip int, world geom.Rect) Binding {
	l := s.Layer(mip)
	uv, _ := l.UV(world)
	target := s.Target(world, mip)
	return Binding{
		Mip:     mip,
		Atlas:   l.Atlas(),
		UV:      uv,
		Covered: !target.IsEmpty() && l.Slots().Coverage(target) >= target.Area(),
	}
}

// Uniforms is the uniform block of the blend shader.
type Uniforms struct {
	FineUV   mgl32.Vec4
	CoarseUV mgl32.Vec4
	Weight   float32
}

// UniformSize is the size of the packed uniform block in bytes.
const UniformSize = 48

// Uniforms returns the shader uniforms of p.
func (p Params) Uniforms() Uniforms {
	return Uniforms{FineUV: p.Fine.UV, CoarseUV: p.Coarse.UV, Weight: p.Weight}
}

// Bytes packs u in the std140 layout of the shader's Blend struct.
func (u Uniforms) Bytes() []byte {
	buf := make([]byte, UniformSize)
	put := func(i int, v float32) {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i := range 4 {
		put(i, u.FineUV[i])
		put(4+i, u.CoarseUV[i])
	}
	put(8, u.Weight)
	return buf
}

// ShaderSource returns the WGSL source of the blend shader.
func ShaderSource() string { return blendShaderWGSL }

// CompileShader compiles the blend shader to SPIR-V words.
func CompileShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(blendShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("composite: failed to compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("composite: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}
