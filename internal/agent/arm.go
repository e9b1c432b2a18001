// internal/agent/arm.go
package agent

import "sync"

// ArmState is the operator's arm/disarm latch. It starts disarmed.
type ArmState struct {
	mu    sync.RWMutex
	armed bool
}

var _ Latch = (*ArmState)(nil)

// NewArmState returns a latch in the given position.
func NewArmState(armed bool) *ArmState {
	return &ArmState{armed: armed}
}

func (a *ArmState) IsArmed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.armed
}

func (a *ArmState) Arm() {
	a.mu.Lock()
	a.armed = true
	a.mu.Unlock()
}

func (a *ArmState) Disarm() {
	a.mu.Lock()
	a.armed = false
	a.mu.Unlock()
}
