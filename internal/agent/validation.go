// internal/agent/validation.go
package agent

import "strings"

const titleContainsPrefix = "active_window_title contains "

// ValidateStep evaluates a plan step's validation expression against an
// observation. It understands "last_action_success" and
// `active_window_title contains "X"`; anything else falls back to whether
// the last action succeeded.
func ValidateStep(expr string, obs Observation) bool {
	lastOK := obs.LastActionSuccess != nil && *obs.LastActionSuccess
	v := strings.TrimSpace(expr)

	if len(v) >= len(titleContainsPrefix) && strings.EqualFold(v[:len(titleContainsPrefix)], titleContainsPrefix) {
		needle := strings.Trim(strings.TrimSpace(v[len(titleContainsPrefix):]), `"`)
		return strings.Contains(strings.ToLower(obs.ActiveWindowTitle), strings.ToLower(needle))
	}
	return lastOK
}
