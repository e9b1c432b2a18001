// internal/humanoid/input.go
package humanoid

// Input is the raw synthetic-input surface of the host desktop. Calls are
// fire-and-forget; an implementation may no-op when nothing is focusable.
type Input interface {
	MoveMouse(x, y int)
	LeftDown()
	LeftUp()
	KeyDown(vk uint16)
	KeyUp(vk uint16)
	// TypeText injects text as unicode key events into the focused control.
	TypeText(text string)
	// MouseWheel scrolls vertically; positive deltas scroll up.
	MouseWheel(delta int)
}

// EventKind names a primitive captured by Recorder.
type EventKind string

const (
	EventMove    EventKind = "move"
	EventDown    EventKind = "down"
	EventUp      EventKind = "up"
	EventKeyDown EventKind = "keyDown"
	EventKeyUp   EventKind = "keyUp"
	EventText    EventKind = "text"
	EventWheel   EventKind = "wheel"
)

// Event is one primitive call captured by Recorder.
type Event struct {
	Kind  EventKind
	X, Y  int
	Key   uint16
	Text  string
	Delta int
}
