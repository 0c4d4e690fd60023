package geom

import "testing"

func TestRect_SinglePixel(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}
	if r.Width() != 1 || r.Height() != 1 {
		t.Fatalf("expected 1x1, got %dx%d", r.Width(), r.Height())
	}
	if !r.Contains(0, 0) {
		t.Fatalf("expected (0,0) inside")
	}
	if r.Contains(1, 0) || r.Contains(0, 1) {
		t.Fatalf("right/bottom edges must be exclusive")
	}
}

func TestFromSize_ClampsNegative(t *testing.T) {
	r := FromSize(10, 20, -5, 3)
	if r.Width() != 0 || r.Height() != 3 {
		t.Fatalf("expected 0x3, got %dx%d", r.Width(), r.Height())
	}
	if !r.Empty() {
		t.Fatalf("expected empty rect")
	}
}

func TestExpandShrink_RoundTrip(t *testing.T) {
	client := FromSize(100, 100, 800, 600)
	in := Insets{Left: 4, Top: 30, Right: 4, Bottom: 4}

	outer := client.Expand(in)
	if outer.Width() != 808 || outer.Height() != 634 {
		t.Fatalf("expected outer 808x634, got %dx%d", outer.Width(), outer.Height())
	}
	if outer.Left != 96 || outer.Top != 70 {
		t.Fatalf("expected outer origin (96,70), got (%d,%d)", outer.Left, outer.Top)
	}
	if back := outer.Shrink(in); back != client {
		t.Fatalf("expected %+v, got %+v", client, back)
	}
}

func TestShrink_NeverInverts(t *testing.T) {
	r := FromSize(0, 0, 4, 4).Shrink(Insets{Left: 3, Right: 3, Top: 3, Bottom: 3})
	if r.Width() != 0 || r.Height() != 0 {
		t.Fatalf("expected 0x0, got %dx%d", r.Width(), r.Height())
	}
	if r.Right < r.Left || r.Bottom < r.Top {
		t.Fatalf("rect inverted: %+v", r)
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"overlap", FromSize(0, 0, 10, 10), FromSize(5, 5, 10, 10), Rect{5, 5, 10, 10}},
		{"touching edges", FromSize(0, 0, 10, 10), FromSize(10, 0, 5, 5), Rect{0, 0, 0, 0}},
		{"contained", FromSize(0, 0, 10, 10), FromSize(2, 2, 2, 2), Rect{2, 2, 4, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestToLocal(t *testing.T) {
	r := FromSize(100, 50, 640, 480)
	p := r.ToLocal(110, 75)
	if p.X != 10 || p.Y != 25 {
		t.Fatalf("expected (10,25), got (%d,%d)", p.X, p.Y)
	}
	if back := r.ToScreen(p.X, p.Y); back.X != 110 || back.Y != 75 {
		t.Fatalf("expected (110,75), got (%d,%d)", back.X, back.Y)
	}
	moved := r.MoveTo(0, 0)
	if moved.Width() != 640 || moved.Left != 0 {
		t.Fatalf("unexpected MoveTo result %+v", moved)
	}
}
