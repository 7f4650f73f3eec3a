package geom

import (
	"image"
	"math"
	"testing"
)

func TestEmpty(t *testing.T) {
	e := Empty()
	if !e.IsEmpty() {
		t.Error("Empty().IsEmpty() = false")
	}
	if !e.IsMarkedEmpty() {
		t.Error("Empty().IsMarkedEmpty() = false")
	}
	if !e.IsValid() {
		t.Error("Empty().IsValid() = false, explicit empty is valid")
	}
	if e.Area() != 0 {
		t.Errorf("Empty().Area() = %g, want 0", e.Area())
	}
	if got := e.String(); got != "(empty)" {
		t.Errorf("String() = %q", got)
	}
}

func TestValidity(t *testing.T) {
	tests := []struct {
		name  string
		r     Rect
		empty bool
		valid bool
	}{
		{"normal", R(0, 0, 10, 10), false, true},
		{"zero value", Rect{}, true, false},
		{"zero width", R(5, 0, 5, 10), true, false},
		{"inverted x only", R(10, 0, 0, 10), true, false},
		{"explicit empty", Empty(), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
			if got := tt.r.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestContains(t *testing.T) {
	outer := R(0, 0, 100, 100)
	tests := []struct {
		name string
		r, o Rect
		want bool
	}{
		{"self", outer, outer, true},
		{"inner", outer, R(10, 10, 20, 20), true},
		{"touching edge inside", outer, R(0, 0, 100, 50), true},
		{"overhang", outer, R(50, 50, 150, 60), false},
		{"disjoint", outer, R(200, 200, 210, 210), false},
		{"empty contained by all", outer, Empty(), true},
		{"empty contains only empty", Empty(), Empty(), true},
		{"empty does not contain rect", Empty(), R(0, 0, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.o); got != tt.want {
				t.Errorf("%v.Contains(%v) = %v, want %v", tt.r, tt.o, got, tt.want)
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	a := R(0, 0, 10, 10)
	tests := []struct {
		name string
		b    Rect
		want Rect
		hit  bool
	}{
		{"overlap", R(5, 5, 15, 15), R(5, 5, 10, 10), true},
		{"inside", R(2, 3, 4, 5), R(2, 3, 4, 5), true},
		{"touching edge", R(10, 0, 20, 10), Empty(), false},
		{"disjoint", R(20, 20, 30, 30), Empty(), false},
		{"empty", Empty(), Empty(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.hit {
				t.Errorf("Intersects = %v, want %v", got, tt.hit)
			}
			if got := a.Intersect(tt.b); !got.Eq(tt.want) {
				t.Errorf("Intersect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScaleSnapImage(t *testing.T) {
	r := R(10, 20, 30, 41).Scale(0.5)
	if r != R(5, 10, 15, 20.5) {
		t.Fatalf("Scale = %v", r)
	}
	s := r.Snap()
	if s != R(5, 10, 15, 21) {
		t.Errorf("Snap = %v", s)
	}
	if got := r.Image(); got != image.Rect(5, 10, 15, 21) {
		t.Errorf("Image = %v", got)
	}
	if got := Empty().Image(); got != (image.Rectangle{}) {
		t.Errorf("Empty().Image() = %v", got)
	}
	if got := FromImage(image.Rect(1, 2, 3, 4)); got != R(1, 2, 3, 4) {
		t.Errorf("FromImage = %v", got)
	}
	if !FromImage(image.Rectangle{}).IsMarkedEmpty() {
		t.Error("FromImage(empty) not marked empty")
	}
}

func TestHasNaN(t *testing.T) {
	if R(0, 0, 1, 1).HasNaN() {
		t.Error("finite rect reported NaN")
	}
	if !R(math.NaN(), 0, 1, 1).HasNaN() {
		t.Error("NaN not detected")
	}
}
