// internal/agent/self_surface.go
package agent

import "strings"

// SelfSurface recognises the agent's own windows by process name.
type SelfSurface struct {
	names []string
}

// NewSelfSurface builds a matcher for the given process names.
func NewSelfSurface(names ...string) SelfSurface {
	s := SelfSurface{}
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			s.names = append(s.names, n)
		}
	}
	return s
}

// Matches reports whether process belongs to the agent. A process matches
// when its name contains any configured name, case-insensitively.
func (s SelfSurface) Matches(process string) bool {
	p := strings.ToLower(strings.TrimSpace(process))
	if p == "" {
		return false
	}
	for _, n := range s.names {
		if strings.Contains(p, n) {
			return true
		}
	}
	return false
}
