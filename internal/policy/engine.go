// internal/policy/engine.go
package policy

import (
	"strings"

	"github.com/xkilldash9x/deskpilot/internal/agent"
)

// DefaultAllowedProcesses is the allowlist used when none is configured:
// common editors, browsers, office apps and terminals.
var DefaultAllowedProcesses = []string{
	"notepad", "explorer", "mspaint",
	"firefox", "chrome", "msedge", "iexplore",
	"WINWORD", "EXCEL", "POWERPNT", "Code", "notepad++",
	"calc", "cmd", "powershell", "WindowsTerminal",
}

// Engine is the default PolicyEngine: an allowlist of foreground processes
// plus the rule for which actions need operator confirmation.
type Engine struct {
	allowed                 map[string]struct{}
	confirmCoordinateClicks bool
}

var _ agent.PolicyEngine = (*Engine)(nil)

// NewEngine builds an Engine. Blank names are ignored; an allowlist that ends
// up empty falls back to DefaultAllowedProcesses.
func NewEngine(allowed []string, confirmCoordinateClicks bool) *Engine {
	e := &Engine{
		allowed:                 make(map[string]struct{}),
		confirmCoordinateClicks: confirmCoordinateClicks,
	}
	for _, p := range allowed {
		if key := processKey(p); key != "" {
			e.allowed[key] = struct{}{}
		}
	}
	if len(e.allowed) == 0 {
		for _, p := range DefaultAllowedProcesses {
			e.allowed[processKey(p)] = struct{}{}
		}
	}
	return e
}

func processKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RequiresConfirmation is true for actions flagged by the oracle and, unless
// disabled, for coordinate clicks, which can land on anything on screen.
func (e *Engine) RequiresConfirmation(action agent.Action) bool {
	if action.RequiresConfirmation {
		return true
	}
	return e.confirmCoordinateClicks && action.Type == agent.ActionClickCoordinates
}

// IsAllowedProcess reports whether name is on the allowlist. Blank names are
// never allowed.
func (e *Engine) IsAllowedProcess(name string) bool {
	key := processKey(name)
	if key == "" {
		return false
	}
	_, ok := e.allowed[key]
	return ok
}

// Allowed returns the normalised allowlist, for diagnostics.
func (e *Engine) Allowed() []string {
	out := make([]string, 0, len(e.allowed))
	for k := range e.allowed {
		out = append(out, k)
	}
	return out
}
