// internal/geometry/drag.go
package geometry

const (
	DefaultDragSteps   = 24
	MinDragSteps       = 1
	MaxDragSteps       = 200
	DefaultDragDelayMs = 5
	MaxDragDelayMs     = 50
	DefaultMoveDelayMs = 3
)

// ClampDragSteps substitutes the default for non-positive or missing values
// and clamps the rest to [MinDragSteps, MaxDragSteps].
func ClampDragSteps(v *int) int {
	if v == nil || *v <= 0 {
		return DefaultDragSteps
	}
	return min(max(*v, MinDragSteps), MaxDragSteps)
}

// ClampDragDelay substitutes the default for missing or non-positive values
// and clamps the rest to at most MaxDragDelayMs.
func ClampDragDelay(v *int) int {
	if v == nil || *v <= 0 {
		return DefaultDragDelayMs
	}
	return min(*v, MaxDragDelayMs)
}

// MoveDelay substitutes the default move delay for missing or non-positive values.
func MoveDelay(v *int) int {
	if v == nil || *v <= 0 {
		return DefaultMoveDelayMs
	}
	return *v
}

// Interpolate returns steps points evenly spaced along the segment from→to,
// excluding from and ending exactly on to.
func Interpolate(from, to Point, steps int) []Point {
	steps = max(steps, 1)
	out := make([]Point, steps)
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		out[i-1] = Point{
			X: from.X + roundInt(dx*t),
			Y: from.Y + roundInt(dy*t),
		}
	}
	return out
}
