// internal/humanoid/humanoid.go
package humanoid

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// Pause lengths between primitive events inside a sequence. Applications
// drop presses that arrive in the same tick as the preceding move.
const (
	settlePause    = 10 * time.Millisecond
	liftPause      = 5 * time.Millisecond
	multiClickGap  = 40 * time.Millisecond
	keystrokePause = 20 * time.Millisecond
)

// Humanoid composes raw Input primitives into complete gestures: clicks,
// multi-clicks, drags, multi-stroke paths, key chords and wheel scrolls.
//
// A gesture is atomic. Once started it runs to completion and takes no
// context, so a cancelled run never leaves a mouse button held down.
type Humanoid struct {
	input  Input
	sleep  func(time.Duration)
	logger *zap.Logger

	// mu serialises gestures so two callers cannot interleave button state.
	mu         sync.Mutex
	currentPos geometry.Point
	buttonDown bool
}

// Option configures a Humanoid.
type Option func(*Humanoid)

// WithSleep replaces time.Sleep, letting tests observe pauses without waiting.
func WithSleep(sleep func(time.Duration)) Option {
	return func(h *Humanoid) { h.sleep = sleep }
}

// New creates a Humanoid driving the given input surface.
func New(input Input, logger *zap.Logger, opts ...Option) *Humanoid {
	h := &Humanoid{
		input:  input,
		sleep:  time.Sleep,
		logger: logger.Named("humanoid"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Position returns the last cursor position this Humanoid moved to.
func (h *Humanoid) Position() geometry.Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentPos
}

// Pause blocks for d. It is the only way gestures wait.
func (h *Humanoid) Pause(d time.Duration) {
	if d > 0 {
		h.sleep(d)
	}
}

// MoveTo positions the cursor without pressing anything.
func (h *Humanoid) MoveTo(p geometry.Point) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.move(p)
}

// Click moves to p and performs a single left click.
func (h *Humanoid) Click(p geometry.Point) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.move(p)
	h.press()
	h.release()
}

// MultiClick performs count left clicks at p with a short gap between them.
// Four clicks select the whole content of most text widgets.
func (h *Humanoid) MultiClick(p geometry.Point, count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.move(p)
	for i := 0; i < count; i++ {
		if i > 0 {
			h.Pause(multiClickGap)
		}
		h.press()
		h.release()
	}
}

// ReleaseAll lifts the left button if a gesture left it pressed.
func (h *Humanoid) ReleaseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buttonDown {
		h.release()
	}
}

// -- primitives; callers hold mu --

func (h *Humanoid) move(p geometry.Point) {
	h.input.MoveMouse(p.X, p.Y)
	h.currentPos = p
}

func (h *Humanoid) press() {
	h.input.LeftDown()
	h.buttonDown = true
}

func (h *Humanoid) release() {
	h.input.LeftUp()
	h.buttonDown = false
}
