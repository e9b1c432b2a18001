// internal/geometry/point.go
package geometry

import (
	"errors"
	"math"
)

// ErrUnresolvable is returned when a point spec carries no complete
// coordinate pair in any addressing mode.
var ErrUnresolvable = errors.New("point has no resolvable coordinates")

// ErrNoRect is returned when a relative mode is used without a target rectangle.
var ErrNoRect = errors.New("relative coordinates require a foreground client rectangle")

// Mode identifies which addressing mode a point spec resolved through.
type Mode int

const (
	ModeNone Mode = iota
	ModeSquare
	ModeRelative
	ModeAbsolute
)

func (m Mode) String() string {
	switch m {
	case ModeSquare:
		return "square"
	case ModeRelative:
		return "relative"
	case ModeAbsolute:
		return "absolute"
	default:
		return "none"
	}
}

// PointSpec is one point as proposed by the oracle. A coordinate pair is only
// usable when both halves are present; absent or non-numeric fields are nil.
type PointSpec struct {
	MRX, MRY *float64
	RX, RY   *float64
	X, Y     *float64
	// Lift starts a new stroke when the point is part of a path.
	Lift bool
}

// Mode reports the highest-priority addressing mode the spec can use.
func (s PointSpec) Mode() Mode {
	switch {
	case s.MRX != nil && s.MRY != nil:
		return ModeSquare
	case s.RX != nil && s.RY != nil:
		return ModeRelative
	case s.X != nil && s.Y != nil:
		return ModeAbsolute
	default:
		return ModeNone
	}
}

// NeedsRect reports whether resolving the spec requires a window rectangle.
func (s PointSpec) NeedsRect() bool {
	m := s.Mode()
	return m == ModeSquare || m == ModeRelative
}

// Resolve maps the spec to a screen point. Square-relative wins over
// window-relative, which wins over absolute. rect may be nil when the spec is
// absolute.
func Resolve(s PointSpec, rect *Rect) (Point, error) {
	switch s.Mode() {
	case ModeSquare:
		if rect == nil {
			return Point{}, ErrNoRect
		}
		return ResolveSquare(*s.MRX, *s.MRY, *rect), nil
	case ModeRelative:
		if rect == nil {
			return Point{}, ErrNoRect
		}
		return ResolveRelative(*s.RX, *s.RY, *rect), nil
	case ModeAbsolute:
		return Point{X: int(*s.X), Y: int(*s.Y)}, nil
	default:
		return Point{}, ErrUnresolvable
	}
}

// ResolveRelative maps (rx, ry) onto the full rectangle after clamping both
// to [0,1].
func ResolveRelative(rx, ry float64, r Rect) Point {
	return Point{
		X: r.Left + roundInt(Clamp01(rx)*float64(r.Width())),
		Y: r.Top + roundInt(Clamp01(ry)*float64(r.Height())),
	}
}

// ResolveSquare maps (mrx, mry) into the largest square centred in the
// rectangle, so shapes keep a 1:1 aspect ratio.
func ResolveSquare(mrx, mry float64, r Rect) Point {
	w, h := r.Width(), r.Height()
	size := max(1, min(w, h))
	left := r.Left + (w-size)/2
	top := r.Top + (h-size)/2
	return Point{
		X: left + roundInt(Clamp01(mrx)*float64(size)),
		Y: top + roundInt(Clamp01(mry)*float64(size)),
	}
}

// Clamp01 clamps v to [0,1]. NaN clamps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// roundInt uses banker's rounding so .5 values do not drift in one direction
// across long paths.
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}

// Float is a convenience for building specs in code.
func Float(v float64) *float64 { return &v }

// Rel builds a window-relative spec.
func Rel(rx, ry float64) PointSpec { return PointSpec{RX: Float(rx), RY: Float(ry)} }

// Square builds a square-relative spec.
func Square(mrx, mry float64) PointSpec { return PointSpec{MRX: Float(mrx), MRY: Float(mry)} }

// Abs builds an absolute spec.
func Abs(x, y int) PointSpec { return PointSpec{X: Float(float64(x)), Y: Float(float64(y))} }
