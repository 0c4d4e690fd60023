// Package geom holds the integer rectangle math shared by the window manager
// and the host bindings.
package geom

// Rect is an axis-aligned rectangle in pixels. Right and Bottom are exclusive,
// so a rect covering only pixel (0,0) is {0, 0, 1, 1}.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Insets describes border and caption thickness around a client area.
type Insets struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Point is a position in pixels.
type Point struct {
	X int
	Y int
}

// FromSize builds a rect at (x, y) with the given size. Negative sizes clamp to 0.
func FromSize(x, y, width, height int) Rect {
	return Rect{
		Left:   x,
		Top:    y,
		Right:  x + max(width, 0),
		Bottom: y + max(height, 0),
	}
}

// Width returns Right-Left, never negative.
func (r Rect) Width() int {
	return max(r.Right-r.Left, 0)
}

// Height returns Bottom-Top, never negative.
func (r Rect) Height() int {
	return max(r.Bottom-r.Top, 0)
}

// Size returns width and height.
func (r Rect) Size() (int, int) {
	return r.Width(), r.Height()
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.Left, Y: r.Top}
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Contains reports whether (x, y) lies inside r, excluding the right/bottom edge.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Translate shifts the rect by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// MoveTo keeps the size and places the top-left corner at (x, y).
func (r Rect) MoveTo(x, y int) Rect {
	return FromSize(x, y, r.Width(), r.Height())
}

// Resize keeps the origin and applies a new size.
func (r Rect) Resize(width, height int) Rect {
	return FromSize(r.Left, r.Top, width, height)
}

// Expand grows the rect outward by in. Used to turn a client rect into the
// outer window rect.
func (r Rect) Expand(in Insets) Rect {
	return Rect{
		Left:   r.Left - in.Left,
		Top:    r.Top - in.Top,
		Right:  r.Right + in.Right,
		Bottom: r.Bottom + in.Bottom,
	}
}

// Shrink is the inverse of Expand. The result never has negative extent.
func (r Rect) Shrink(in Insets) Rect {
	out := Rect{
		Left:   r.Left + in.Left,
		Top:    r.Top + in.Top,
		Right:  r.Right - in.Right,
		Bottom: r.Bottom - in.Bottom,
	}
	if out.Right < out.Left {
		out.Right = out.Left
	}
	if out.Bottom < out.Top {
		out.Bottom = out.Top
	}
	return out
}

// Intersect returns the overlap of r and o, or an empty rect at r's origin.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.Left, o.Left)
	y1 := max(r.Top, o.Top)
	x2 := min(r.Right, o.Right)
	y2 := min(r.Bottom, o.Bottom)

	if x2 <= x1 || y2 <= y1 {
		return Rect{Left: r.Left, Top: r.Top, Right: r.Left, Bottom: r.Top}
	}
	return Rect{Left: x1, Top: y1, Right: x2, Bottom: y2}
}

// ToScreen converts a point relative to r's origin into screen space.
func (r Rect) ToScreen(x, y int) Point {
	return Point{X: x + r.Left, Y: y + r.Top}
}

// ToLocal converts a screen-space point into coordinates relative to r's origin.
func (r Rect) ToLocal(x, y int) Point {
	return Point{X: x - r.Left, Y: y - r.Top}
}
