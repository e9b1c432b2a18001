// internal/oracle/focus.go
package oracle

import (
	"strings"

	"github.com/xkilldash9x/deskpilot/internal/agent"
)

// targetRule maps step wording to the process that step is about. A rule
// matches when any of its phrases occurs and all of its required phrases do.
type targetRule struct {
	process  string
	any      []string
	all      []string
	excludes []string
}

// Order matters: explicit browser names win over generic web wording, and
// both win over desktop apps.
var targetRules = []targetRule{
	{process: "firefox", any: []string{"firefox"}},
	{process: "chrome", any: []string{"chrome"}},
	{process: "msedge", any: []string{"edge"}, excludes: []string{"edge case"}},
	{process: "firefox", any: []string{"browser", "website", "web page", ".com", ".gov", ".org", "http"}},
	{process: "notepad", any: []string{"notepad", "save dialog", "save the file", "filename"}},
	{process: "notepad", any: []string{"enter "}, all: []string{"file"}},
	{process: "mspaint", any: []string{"paint", "mspaint", "brush", "pencil", "ellipse", "circle"}},
	{process: "explorer", any: []string{"file explorer", "documents folder"}},
	{process: "WINWORD", any: []string{"word"}, all: []string{"document"}},
	{process: "EXCEL", any: []string{"excel", "spreadsheet"}},
	{process: "POWERPNT", any: []string{"powerpoint", "presentation"}},
	{process: "calc", any: []string{"calculator"}},
	{process: "cmd", any: []string{"terminal", "command prompt"}},
}

func (r targetRule) matches(d string) bool {
	for _, x := range r.excludes {
		if strings.Contains(d, x) {
			return false
		}
	}
	for _, x := range r.all {
		if !strings.Contains(d, x) {
			return false
		}
	}
	for _, x := range r.any {
		if strings.Contains(d, x) {
			return true
		}
	}
	return false
}

// GuessTargetProcess names the application a step description is about, or
// "" when nothing matches.
func GuessTargetProcess(description string) string {
	d := strings.ToLower(description)
	for _, r := range targetRules {
		if r.matches(d) {
			return r.process
		}
	}
	return ""
}

// focusOverride returns a FocusWindow toward the step's application when our
// own window is in front. Input sent while we hold the foreground would be
// refused by the policy gate anyway.
func focusOverride(step agent.PlanStep, obs agent.Observation, self agent.SelfSurface) (agent.Action, bool) {
	if strings.TrimSpace(obs.ActiveProcess) == "" || !self.Matches(obs.ActiveProcess) {
		return agent.Action{}, false
	}
	target := GuessTargetProcess(step.Description)
	if target == "" || strings.EqualFold(obs.ActiveProcess, target) {
		return agent.Action{}, false
	}

	title := ""
	if target == "notepad" {
		title = "Notepad"
	}
	return agent.Action{
		Type:           agent.ActionFocusWindow,
		Params:         agent.FocusWindowParams{Title: title, Process: target},
		ExpectedResult: "Focus " + target,
	}, true
}
