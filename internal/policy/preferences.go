// internal/policy/preferences.go
package policy

import "sync/atomic"

// Preferences are operator choices shared by the confirmation surface and
// the enforced executor. Safe for concurrent use.
type Preferences struct {
	autoApprove atomic.Bool
}

// NewPreferences returns Preferences with auto-approval set as given.
func NewPreferences(autoApprove bool) *Preferences {
	p := &Preferences{}
	p.autoApprove.Store(autoApprove)
	return p
}

// AutoApprove reports whether confirmations are answered without asking.
func (p *Preferences) AutoApprove() bool {
	return p.autoApprove.Load()
}

// SetAutoApprove changes the auto-approval flag.
func (p *Preferences) SetAutoApprove(v bool) {
	p.autoApprove.Store(v)
}
