// internal/humanoid/recorder.go
package humanoid

import "sync"

// Recorder is an Input that only records what it was asked to do. Dry runs
// and tests use it in place of the OS injector.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	// Forward, when set, also receives every primitive.
	Forward func(Event)
}

var _ Input = (*Recorder)(nil)

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	fwd := r.Forward
	r.mu.Unlock()
	if fwd != nil {
		fwd(e)
	}
}

func (r *Recorder) MoveMouse(x, y int)   { r.add(Event{Kind: EventMove, X: x, Y: y}) }
func (r *Recorder) LeftDown()            { r.add(Event{Kind: EventDown}) }
func (r *Recorder) LeftUp()              { r.add(Event{Kind: EventUp}) }
func (r *Recorder) KeyDown(vk uint16)    { r.add(Event{Kind: EventKeyDown, Key: vk}) }
func (r *Recorder) KeyUp(vk uint16)      { r.add(Event{Kind: EventKeyUp, Key: vk}) }
func (r *Recorder) TypeText(text string) { r.add(Event{Kind: EventText, Text: text}) }
func (r *Recorder) MouseWheel(delta int) { r.add(Event{Kind: EventWheel, Delta: delta}) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
