// Package geom provides the axis-aligned rectangle used for clipmap regions
// and the region diff that decomposes a moving window into newly exposed
// slices.
//
// Coordinates are virtual-texture pixels at some mip level, with the origin
// at the top-left, X increasing right and Y increasing down. A Rect covers
// the half-open area [XMin, XMax) x [YMin, YMax).
package geom

import (
	"fmt"
	"image"
	"math"
)

// Rect is an axis-aligned rectangle.
//
// The zero value is degenerate (zero area). Use Empty for the canonical
// empty rectangle, which is the identity for Diff and Contains.
type Rect struct {
	XMin, YMin float64
	XMax, YMax float64
}

// R creates a Rect from its corner coordinates.
func R(xmin, ymin, xmax, ymax float64) Rect {
	return Rect{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
}

// XYWH creates a Rect from its top-left corner and size.
func XYWH(x, y, w, h float64) Rect {
	return Rect{XMin: x, YMin: y, XMax: x + w, YMax: y + h}
}

// Empty returns the explicitly empty rectangle. Every rectangle contains it
// and it contains nothing but another empty rectangle.
func Empty() Rect {
	return Rect{
		XMin: math.Inf(1), YMin: math.Inf(1),
		XMax: math.Inf(-1), YMax: math.Inf(-1),
	}
}

// FromImage converts an integer image.Rectangle.
func FromImage(r image.Rectangle) Rect {
	if r.Empty() {
		return Empty()
	}
	return R(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y))
}

// IsMarkedEmpty reports whether r is the explicit empty rectangle
// (inverted bounds), as opposed to a merely degenerate one.
func (r Rect) IsMarkedEmpty() bool {
	return r.XMin > r.XMax && r.YMin > r.YMax
}

// IsEmpty reports whether r covers no area.
func (r Rect) IsEmpty() bool {
	return !(r.XMax > r.XMin && r.YMax > r.YMin)
}

// IsValid reports whether r is non-degenerate or explicitly empty.
func (r Rect) IsValid() bool {
	return r.IsMarkedEmpty() || !r.IsEmpty()
}

// HasNaN reports whether any coordinate is NaN.
func (r Rect) HasNaN() bool {
	return math.IsNaN(r.XMin) || math.IsNaN(r.YMin) || math.IsNaN(r.XMax) || math.IsNaN(r.YMax)
}

// Width returns the horizontal extent, or 0 for an empty rectangle.
func (r Rect) Width() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.XMax - r.XMin
}

// Height returns the vertical extent, or 0 for an empty rectangle.
func (r Rect) Height() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.YMax - r.YMin
}

// Area returns Width * Height.
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// Contains reports whether o lies entirely inside r.
// An empty o is contained by every rectangle; an empty r contains
// only empty rectangles.
func (r Rect) Contains(o Rect) bool {
	if o.IsEmpty() {
		return true
	}
	if r.IsEmpty() {
		return false
	}
	return o.XMin >= r.XMin && o.XMax <= r.XMax &&
		o.YMin >= r.YMin && o.YMax <= r.YMax
}

// Intersects reports whether r and o share a region of positive area.
// Rectangles that only touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return o.XMin < r.XMax && o.XMax > r.XMin &&
		o.YMin < r.YMax && o.YMax > r.YMin
}

// Intersect returns the overlap of r and o, or Empty if they do not
// intersect.
func (r Rect) Intersect(o Rect) Rect {
	if !r.Intersects(o) {
		return Empty()
	}
	return Rect{
		XMin: math.Max(r.XMin, o.XMin),
		YMin: math.Max(r.YMin, o.YMin),
		XMax: math.Min(r.XMax, o.XMax),
		YMax: math.Min(r.YMax, o.YMax),
	}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	if r.IsEmpty() {
		return r
	}
	return Rect{XMin: r.XMin + dx, YMin: r.YMin + dy, XMax: r.XMax + dx, YMax: r.YMax + dy}
}

// Scale returns r with every coordinate multiplied by s.
func (r Rect) Scale(s float64) Rect {
	if r.IsEmpty() {
		return r
	}
	return Rect{XMin: r.XMin * s, YMin: r.YMin * s, XMax: r.XMax * s, YMax: r.YMax * s}
}

// Snap grows r outward to integer coordinates.
func (r Rect) Snap() Rect {
	if r.IsEmpty() {
		return r
	}
	return Rect{
		XMin: math.Floor(r.XMin), YMin: math.Floor(r.YMin),
		XMax: math.Ceil(r.XMax), YMax: math.Ceil(r.YMax),
	}
}

// Image converts r to an integer image.Rectangle, rounding outward.
// Empty rectangles convert to image.Rectangle{}.
func (r Rect) Image() image.Rectangle {
	if r.IsEmpty() {
		return image.Rectangle{}
	}
	s := r.Snap()
	return image.Rect(int(s.XMin), int(s.YMin), int(s.XMax), int(s.YMax))
}

// Eq reports whether r and o describe the same set of points.
func (r Rect) Eq(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return r.IsEmpty() && o.IsEmpty()
	}
	return r == o
}

func (r Rect) String() string {
	if r.IsMarkedEmpty() {
		return "(empty)"
	}
	return fmt.Sprintf("(%g,%g)-(%g,%g)", r.XMin, r.YMin, r.XMax, r.YMax)
}
