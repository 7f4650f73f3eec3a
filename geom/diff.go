package geom

import (
	"fmt"
	"math"
)

// Relation classifies how a new region relates to the previously resident
// one.
type Relation uint8

const (
	// RelCovered means the old region contains the new one; nothing to do.
	RelCovered Relation = iota

	// RelFresh means the old region is empty or disjoint from the new one,
	// so the whole new region is exposed.
	RelFresh

	// RelEnclosing means the new region contains the old one (zoom out or
	// first growth); the exposed area is a frame around the old region.
	RelEnclosing

	// RelScroll means a partial overlap: the window moved along one axis
	// or diagonally.
	RelScroll
)

func (r Relation) String() string {
	switch r {
	case RelCovered:
		return "covered"
	case RelFresh:
		return "fresh"
	case RelEnclosing:
		return "enclosing"
	case RelScroll:
		return "scroll"
	default:
		return fmt.Sprintf("Relation(%d)", uint8(r))
	}
}

// InvariantError reports a region relationship that the diff cannot
// decompose. It is raised with panic: it means a logic defect upstream,
// never a recoverable condition.
type InvariantError struct {
	Old, New Rect
	Reason   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("geom: diff invariant violated: %s (old=%v new=%v)", e.Reason, e.Old, e.New)
}

// Classify returns the relation of cur to old, in the priority order used
// by Diff.
func Classify(old, cur Rect) Relation {
	switch {
	case old.Contains(cur):
		return RelCovered
	case old.IsEmpty() || !old.Intersects(cur):
		return RelFresh
	case cur.Contains(old):
		return RelEnclosing
	default:
		return RelScroll
	}
}

// Diff returns the parts of cur that are not covered by old, as at most
// four non-overlapping rectangles. The slices are the 3x3 partition of cur
// around old with the center cell removed: a full-width top band, a
// full-width bottom band, then the left and right pieces of the middle row.
//
// Diff panics with *InvariantError if the rectangles are malformed or the
// decomposition does not account for exactly area(cur) - area(old ∩ cur).
func Diff(old, cur Rect) []Rect {
	if old.HasNaN() || cur.HasNaN() {
		panic(&InvariantError{Old: old, New: cur, Reason: "NaN coordinate"})
	}

	var out []Rect
	switch rel := Classify(old, cur); rel {
	case RelCovered:
		return nil
	case RelFresh:
		return []Rect{cur}
	case RelEnclosing:
		out = frame(cur, old)
		if len(out) == 0 {
			// cur contains old and old does not contain cur, so at least
			// one band must be non-empty.
			panic(&InvariantError{Old: old, New: cur, Reason: "enclosing region without border"})
		}
	case RelScroll:
		inner := cur.Intersect(old)
		if inner.IsEmpty() {
			panic(&InvariantError{Old: old, New: cur, Reason: "overlapping regions with empty intersection"})
		}
		out = frame(cur, inner)
		if len(out) == 0 || len(out) > 3 {
			panic(&InvariantError{Old: old, New: cur, Reason: fmt.Sprintf("scroll produced %d slices", len(out))})
		}
	default:
		panic(&InvariantError{Old: old, New: cur, Reason: "unclassified relation " + rel.String()})
	}

	checkArea(old, cur, out)
	return out
}

// frame returns the slices of outer that surround inner. inner must lie
// inside outer.
func frame(outer, inner Rect) []Rect {
	out := make([]Rect, 0, 4)
	add := func(r Rect) {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	add(Rect{XMin: outer.XMin, YMin: outer.YMin, XMax: outer.XMax, YMax: inner.YMin})
	add(Rect{XMin: outer.XMin, YMin: inner.YMax, XMax: outer.XMax, YMax: outer.YMax})
	add(Rect{XMin: outer.XMin, YMin: inner.YMin, XMax: inner.XMin, YMax: inner.YMax})
	add(Rect{XMin: inner.XMax, YMin: inner.YMin, XMax: outer.XMax, YMax: inner.YMax})
	return out
}

func checkArea(old, cur Rect, out []Rect) {
	var sum float64
	for _, r := range out {
		sum += r.Area()
	}
	want := cur.Area() - cur.Intersect(old).Area()
	if math.Abs(sum-want) > 1e-9*math.Max(1, want) {
		panic(&InvariantError{
			Old:    old,
			New:    cur,
			Reason: fmt.Sprintf("slice area %g != exposed area %g", sum, want),
		})
	}
}
