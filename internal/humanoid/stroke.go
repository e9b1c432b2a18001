// internal/humanoid/stroke.go
package humanoid

import (
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// StrokePoint is a resolved path vertex. Lift ends the current stroke and
// starts a new one at this point.
type StrokePoint struct {
	geometry.Point
	Lift bool
}

// Trace draws the points as a sequence of pen strokes. The pen starts up;
// the first point, and any lifted point, put it down. Points in between move
// with the button held, moveDelay apart. The pen is released at the end.
// It returns the number of strokes drawn.
func (h *Humanoid) Trace(points []StrokePoint, moveDelay time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	strokes := 0
	for _, p := range points {
		if p.Lift && h.buttonDown {
			h.release()
			h.Pause(liftPause)
		}

		if !h.buttonDown {
			h.move(p.Point)
			h.Pause(settlePause)
			h.press()
			h.Pause(settlePause)
			strokes++
			continue
		}

		h.move(p.Point)
		h.Pause(moveDelay)
	}

	if h.buttonDown {
		h.Pause(settlePause)
		h.release()
	}

	h.logger.Debug("Traced path", zap.Int("points", len(points)), zap.Int("strokes", strokes))
	return strokes
}
