// internal/oracle/sketch.go
package oracle

import (
	"math"
	"strings"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

const sketchMoveDelayMs = 3

// CirclePath returns a closed circle of n segments around (cx, cy) in
// square-relative coordinates. The first point lifts the pen.
func CirclePath(cx, cy, r float64, n int) []geometry.PointSpec {
	return ArcPath(cx, cy, r, 0, 360, n)
}

// ArcPath returns n segments of the arc from startDeg to endDeg, clockwise
// on screen, in square-relative coordinates. The first point lifts the pen.
func ArcPath(cx, cy, r, startDeg, endDeg float64, n int) []geometry.PointSpec {
	n = max(n, 1)
	pts := make([]geometry.PointSpec, 0, n+1)
	for i := 0; i <= n; i++ {
		deg := startDeg + (endDeg-startDeg)*float64(i)/float64(n)
		a := deg * math.Pi / 180
		p := geometry.Square(cx+math.Cos(a)*r, cy+math.Sin(a)*r)
		p.Lift = i == 0
		pts = append(pts, p)
	}
	return pts
}

func pathAction(path []geometry.PointSpec, expected string) agent.Action {
	delay := sketchMoveDelayMs
	return agent.Action{
		Type: agent.ActionClickCoordinates,
		Params: agent.ClickCoordinatesParams{
			HasPath:     true,
			Path:        path,
			MoveDelayMs: &delay,
		},
		ExpectedResult: expected,
	}
}

// sketchAction answers drawing steps in Paint with fixed strokes instead of
// asking the model, which places freehand shapes poorly. It covers a smiley:
// head, eyes and mouth.
func sketchAction(step agent.PlanStep) (agent.Action, bool) {
	if GuessTargetProcess(step.Description) != "mspaint" {
		return agent.Action{}, false
	}
	d := strings.ToLower(step.Description)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(d, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("open") && has("paint"):
		return agent.Action{
			Type:           agent.ActionFocusWindow,
			Params:         agent.FocusWindowParams{Process: "mspaint"},
			ExpectedResult: "Paint focused",
		}, true
	case has("select", "brush", "pencil"):
		return agent.Action{
			Type: agent.ActionClickCoordinates,
			Params: agent.ClickCoordinatesParams{
				At: geometry.Rel(0.5, 0.55),
			},
			ExpectedResult: "Canvas focused",
		}, true
	case has("large") && has("circle", "ellipse"):
		return pathAction(CirclePath(0.5, 0.56, 0.22, 72), "Head drawn"), true
	case has("eye"):
		eyes := append(CirclePath(0.43, 0.50, 0.028, 28), CirclePath(0.57, 0.50, 0.028, 28)...)
		return pathAction(eyes, "Eyes drawn"), true
	case has("smile", "mouth", "arc"):
		return pathAction(ArcPath(0.5, 0.62, 0.11, 20, 160, 54), "Mouth drawn"), true
	case has("draw") && has("circle"):
		return pathAction(CirclePath(0.5, 0.56, 0.22, 72), "Head drawn"), true
	case has("fill", "color", "save", "file"):
		return agent.Action{
			Type:           agent.ActionVerify,
			ExpectedResult: "Skipped optional paint step",
		}, true
	}
	return agent.Action{}, false
}
