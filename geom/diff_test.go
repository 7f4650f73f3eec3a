package geom

import (
	"errors"
	"math"
	"testing"
)

// allRects returns every non-degenerate rectangle with integer corners in
// [0, n].
func allRects(n int) []Rect {
	var out []Rect
	for x0 := 0; x0 <= n; x0++ {
		for x1 := x0 + 1; x1 <= n; x1++ {
			for y0 := 0; y0 <= n; y0++ {
				for y1 := y0 + 1; y1 <= n; y1++ {
					out = append(out, R(float64(x0), float64(y0), float64(x1), float64(y1)))
				}
			}
		}
	}
	return out
}

func checkDiff(t *testing.T, old, cur Rect, got []Rect) {
	t.Helper()
	if len(got) > 4 {
		t.Fatalf("Diff(%v, %v) returned %d slices", old, cur, len(got))
	}
	var sum float64
	for i, a := range got {
		if a.IsEmpty() {
			t.Errorf("Diff(%v, %v)[%d] is empty", old, cur, i)
		}
		if !cur.Contains(a) {
			t.Errorf("Diff(%v, %v)[%d] = %v lies outside new", old, cur, i, a)
		}
		if a.Intersects(old) {
			t.Errorf("Diff(%v, %v)[%d] = %v re-emits resident area", old, cur, i, a)
		}
		for j := i + 1; j < len(got); j++ {
			if a.Intersects(got[j]) {
				t.Errorf("Diff(%v, %v) slices %v and %v overlap", old, cur, a, got[j])
			}
		}
		sum += a.Area()
	}
	want := cur.Area() - cur.Intersect(old).Area()
	if sum != want {
		t.Errorf("Diff(%v, %v) area = %g, want %g", old, cur, sum, want)
	}
}

func TestDiffExhaustive(t *testing.T) {
	rects := allRects(4)
	for _, old := range rects {
		for _, cur := range rects {
			checkDiff(t, old, cur, Diff(old, cur))
		}
	}
}

func TestDiffIdentity(t *testing.T) {
	a := R(3, 4, 30, 40)
	if got := Diff(a, a); len(got) != 0 {
		t.Errorf("Diff(A, A) = %v, want none", got)
	}
	got := Diff(Empty(), a)
	if len(got) != 1 || got[0] != a {
		t.Errorf("Diff(empty, A) = %v, want [%v]", got, a)
	}
	if got := Diff(a, Empty()); len(got) != 0 {
		t.Errorf("Diff(A, empty) = %v, want none", got)
	}
	if got := Diff(Rect{}, a); len(got) != 1 || got[0] != a {
		t.Errorf("Diff(degenerate, A) = %v, want [%v]", got, a)
	}
}

func TestDiffCases(t *testing.T) {
	old := R(0, 0, 512, 512)
	tests := []struct {
		name string
		cur  Rect
		rel  Relation
		want []Rect
	}{
		{
			name: "scroll right",
			cur:  R(128, 0, 640, 512),
			rel:  RelScroll,
			want: []Rect{R(512, 0, 640, 512)},
		},
		{
			name: "scroll left",
			cur:  R(-128, 0, 384, 512),
			rel:  RelScroll,
			want: []Rect{R(-128, 0, 0, 512)},
		},
		{
			name: "scroll down",
			cur:  R(0, 64, 512, 576),
			rel:  RelScroll,
			want: []Rect{R(0, 512, 512, 576)},
		},
		{
			name: "scroll up",
			cur:  R(0, -64, 512, 448),
			rel:  RelScroll,
			want: []Rect{R(0, -64, 512, 0)},
		},
		{
			name: "corner scroll",
			cur:  R(100, 50, 612, 562),
			rel:  RelScroll,
			want: []Rect{R(100, 512, 612, 562), R(512, 50, 612, 512)},
		},
		{
			name: "enclosing",
			cur:  R(-10, -20, 522, 532),
			rel:  RelEnclosing,
			want: []Rect{
				R(-10, -20, 522, 0),
				R(-10, 512, 522, 532),
				R(-10, 0, 0, 512),
				R(512, 0, 522, 512),
			},
		},
		{
			name: "enclosing sharing an edge",
			cur:  R(0, 0, 600, 512),
			rel:  RelEnclosing,
			want: []Rect{R(512, 0, 600, 512)},
		},
		{
			name: "disjoint",
			cur:  R(1000, 1000, 1100, 1100),
			rel:  RelFresh,
			want: []Rect{R(1000, 1000, 1100, 1100)},
		},
		{
			name: "covered",
			cur:  R(10, 10, 20, 20),
			rel:  RelCovered,
			want: nil,
		},
		{
			name: "cross overlap",
			cur:  R(-50, 100, 600, 200),
			rel:  RelScroll,
			want: []Rect{R(-50, 100, 0, 200), R(512, 100, 600, 200)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rel := Classify(old, tt.cur); rel != tt.rel {
				t.Errorf("Classify = %v, want %v", rel, tt.rel)
			}
			got := Diff(old, tt.cur)
			if len(got) != len(tt.want) {
				t.Fatalf("Diff = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Diff[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
			checkDiff(t, old, tt.cur, got)
		})
	}
}

func TestDiffFractional(t *testing.T) {
	old := R(0.25, 0.5, 100.75, 90.125)
	cur := R(10.5, -3.25, 120.5, 80)
	checkDiff(t, old, cur, Diff(old, cur))
}

func TestDiffNaNPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Diff with NaN did not panic")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value %T is not an error", r)
		}
		var inv *InvariantError
		if !errors.As(err, &inv) {
			t.Fatalf("panic value %v is not *InvariantError", err)
		}
	}()
	Diff(R(0, 0, 1, 1), R(math.NaN(), 0, 2, 2))
}

func TestRelationString(t *testing.T) {
	for rel, want := range map[Relation]string{
		RelCovered:   "covered",
		RelFresh:     "fresh",
		RelEnclosing: "enclosing",
		RelScroll:    "scroll",
		Relation(9):  "Relation(9)",
	} {
		if got := rel.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func BenchmarkDiffScroll(b *testing.B) {
	old := R(0, 0, 512, 512)
	cur := R(37, 19, 549, 531)
	for b.Loop() {
		_ = Diff(old, cur)
	}
}
