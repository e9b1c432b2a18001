// internal/geometry/rect.go
package geometry

import "fmt"

// Rect is a screen-space rectangle. Right and Bottom are exclusive edges as
// reported by the window provider.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width is never less than 1.
func (r Rect) Width() int {
	return max(1, r.Right-r.Left)
}

// Height is never less than 1.
func (r Rect) Height() int {
	return max(1, r.Bottom-r.Top)
}

// Center returns the integer midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width()/2, Y: r.Top + r.Height()/2}
}

// Contains reports whether p lies inside the rectangle, edges inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Left+r.Width() && p.Y >= r.Top && p.Y <= r.Top+r.Height()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Point is an absolute screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
