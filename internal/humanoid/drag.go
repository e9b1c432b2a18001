// internal/humanoid/drag.go
package humanoid

import (
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// Drag presses at from, moves to to in exactly steps linear increments with
// stepDelay between each, then releases. The final increment lands on to.
func (h *Humanoid) Drag(from, to geometry.Point, steps int, stepDelay time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.Debug("Dragging",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("steps", steps))

	h.move(from)
	h.Pause(settlePause)
	h.press()
	h.Pause(settlePause)

	for _, p := range geometry.Interpolate(from, to, steps) {
		h.move(p)
		h.Pause(stepDelay)
	}

	h.Pause(settlePause)
	h.release()
	h.Pause(settlePause)
}
