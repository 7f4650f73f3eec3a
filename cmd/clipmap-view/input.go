//go:build !nogl

package main

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
)

// zoomStep is the scale factor applied per scroll notch.
const zoomStep = 1.15

// camera is the view state edited by mouse input: scale in mip-0 pixels
// per screen pixel and the world position of the window's top-left corner.
type camera struct {
	scale  float64
	offset mgl64.Vec2

	dragging bool
	last     mgl64.Vec2
}

func newCamera(scale float64, offset mgl64.Vec2) *camera {
	return &camera{scale: scale, offset: offset}
}

// zoom scales by factor keeping the world point under cursor fixed.
func (c *camera) zoom(cursor mgl64.Vec2, factor float64) {
	world := c.offset.Add(cursor.Mul(c.scale))
	c.scale *= factor
	c.offset = world.Sub(cursor.Mul(c.scale))
}

// pan moves the view by a cursor displacement in screen pixels.
func (c *camera) pan(delta mgl64.Vec2) {
	c.offset = c.offset.Sub(delta.Mul(c.scale))
}

func (c *camera) bind(window *glfw.Window) {
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		c.dragging = action == glfw.Press
		x, y := w.GetCursorPos()
		c.last = mgl64.Vec2{x, y}
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		pos := mgl64.Vec2{xpos, ypos}
		if c.dragging {
			c.pan(pos.Sub(c.last))
		}
		c.last = pos
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		x, y := w.GetCursorPos()
		c.zoom(mgl64.Vec2{x, y}, math.Pow(zoomStep, -yoff))
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
}
