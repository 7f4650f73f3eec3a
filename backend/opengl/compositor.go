//go:build !nogl

package opengl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/clipmap/composite"
)

// ErrForeignTexture is returned by Draw for layer atlases that were not
// created by this package.
var ErrForeignTexture = errors.New("opengl: atlas is not a GL texture")

// GLSL port of the composite package's blend shader.
const vertexShader = `#version 410 core
out vec2 uv;
void main() {
	float x = float((gl_VertexID << 1) & 2);
	float y = float(gl_VertexID & 2);
	gl_Position = vec4(x * 2.0 - 1.0, 1.0 - y * 2.0, 0.0, 1.0);
	uv = vec2(x, y);
}
` + "\x00"

const fragmentShader = `#version 410 core
in vec2 uv;
uniform vec4 fineUV;
uniform vec4 coarseUV;
uniform float weight;
uniform sampler2D fineTex;
uniform sampler2D coarseTex;
out vec4 color;
vec2 window(vec4 r, vec2 t) { return mix(r.xy, r.zw, t); }
void main() {
	vec4 fine = texture(fineTex, window(fineUV, uv));
	vec4 coarse = texture(coarseTex, window(coarseUV, uv));
	color = mix(fine, coarse, weight);
}
` + "\x00"

// Compositor draws the two blended clipmap layers over the whole
// framebuffer.
type Compositor struct {
	program uint32
	vao     uint32

	fineUV, coarseUV, weight int32
}

// NewCompositor compiles the blend program.
func NewCompositor() (*Compositor, error) {
	program, err := compileProgram(vertexShader, fragmentShader)
	if err != nil {
		return nil, err
	}
	c := &Compositor{program: program}
	gl.GenVertexArrays(1, &c.vao)

	gl.UseProgram(program)
	c.fineUV = gl.GetUniformLocation(program, gl.Str("fineUV\x00"))
	c.coarseUV = gl.GetUniformLocation(program, gl.Str("coarseUV\x00"))
	c.weight = gl.GetUniformLocation(program, gl.Str("weight\x00"))
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("fineTex\x00")), 0)
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("coarseTex\x00")), 1)
	gl.UseProgram(0)
	return c, nil
}

// Draw renders one frame described by p.
func (c *Compositor) Draw(p composite.Params) error {
	fine, ok := p.Fine.Atlas.(*Texture)
	if !ok {
		return ErrForeignTexture
	}
	coarse, ok := p.Coarse.Atlas.(*Texture)
	if !ok {
		return ErrForeignTexture
	}

	gl.UseProgram(c.program)
	gl.Uniform4fv(c.fineUV, 1, &p.Fine.UV[0])
	gl.Uniform4fv(c.coarseUV, 1, &p.Coarse.UV[0])
	gl.Uniform1f(c.weight, p.Weight)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, fine.ID())
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, coarse.ID())

	gl.BindVertexArray(c.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	return nil
}

// Destroy releases the program and vertex array.
func (c *Compositor) Destroy() {
	if c.program == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &c.vao)
	gl.DeleteProgram(c.program)
	c.program = 0
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("opengl: link program: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("opengl: compile shader: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}
