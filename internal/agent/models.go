// internal/agent/models.go
package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ActionType is the closed set of things an action can ask the desktop to do.
// The string values are the vocabulary the proposal oracle speaks.
type ActionType string

const (
	ActionFocusWindow      ActionType = "focus_window"
	ActionClickCoordinates ActionType = "click_coordinates"
	ActionClickGrid        ActionType = "click_grid"
	ActionClickAndType     ActionType = "click_and_type"
	ActionClickUIA         ActionType = "click_uia"
	ActionTypeText         ActionType = "type_text"
	ActionHotkey           ActionType = "hotkey"
	ActionWait             ActionType = "wait"
	ActionVerify           ActionType = "verify"
	ActionNavigateURL      ActionType = "navigate_url"
	ActionScroll           ActionType = "scroll"
	ActionRunCommand       ActionType = "run_command"
	ActionWinRun           ActionType = "win_run"
	ActionClickText        ActionType = "click_text"
	// ActionDone means the step needs nothing further.
	ActionDone ActionType = "done"
)

// AllActionTypes lists every ActionType in declaration order.
var AllActionTypes = []ActionType{
	ActionFocusWindow, ActionClickCoordinates, ActionClickGrid, ActionClickAndType,
	ActionClickUIA, ActionTypeText, ActionHotkey, ActionWait, ActionVerify,
	ActionNavigateURL, ActionScroll, ActionRunCommand, ActionWinRun,
	ActionClickText, ActionDone,
}

// ParseActionType maps an oracle action name to an ActionType. Matching is
// case-insensitive and ignores surrounding space. Unknown names become
// ActionVerify, which only re-observes.
func ParseActionType(s string) ActionType {
	t := ActionType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllActionTypes {
		if t == known {
			return t
		}
	}
	return ActionVerify
}

// Launches reports whether the action type starts or navigates an external
// application, which needs longer to settle.
func (t ActionType) Launches() bool {
	return t == ActionWinRun || t == ActionNavigateURL
}

// Action is one concrete automation primitive. Params holds the variant for
// Type and is nil for Verify and Done. Treat an Action as immutable.
type Action struct {
	Type                 ActionType   `json:"action_type"`
	Params               ActionParams `json:"-"`
	RequiresConfirmation bool         `json:"requires_confirmation"`
	ExpectedResult       string       `json:"expected_result,omitempty"`
}

// Signature identifies an action for repetition detection: its type plus its
// most salient parameter.
func (a Action) Signature() string {
	if a.Params == nil {
		return string(a.Type) + ":"
	}
	return string(a.Type) + ":" + a.Params.Salient()
}

func (a Action) String() string {
	return a.Signature()
}

// ExecutionResult is the outcome of one execution attempt. Failures are
// values; executors never raise them.
type ExecutionResult struct {
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Details      string    `json:"details,omitempty"`
	Code         ErrorCode `json:"error_code,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(details string) *ExecutionResult {
	return &ExecutionResult{Success: true, Details: details}
}

// Failed builds a failed result.
func Failed(code ErrorCode, format string, args ...any) *ExecutionResult {
	return &ExecutionResult{Code: code, ErrorMessage: fmt.Sprintf(format, args...)}
}

// PolicyRefused reports whether the failure came from the foreground gate.
func (r *ExecutionResult) PolicyRefused() bool {
	return r != nil && !r.Success && r.Code == ErrCodePolicyRefused
}

// RiskLevel grades how much damage a step could do.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRisk maps a risk name to a RiskLevel, defaulting to medium.
func ParseRisk(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow
	case "high":
		return RiskHigh
	default:
		return RiskMedium
	}
}

// PlanStep is one independently verifiable step of a plan.
type PlanStep struct {
	ID                   int       `json:"id" yaml:"id"`
	Description          string    `json:"description" yaml:"description"`
	RiskLevel            RiskLevel `json:"risk_level" yaml:"risk_level"`
	RequiresConfirmation bool      `json:"requires_confirmation" yaml:"requires_confirmation"`
	Validation           string    `json:"validation" yaml:"validation"`
}

// Plan is the ordered decomposition of a goal.
type Plan struct {
	Goal                string     `json:"goal" yaml:"goal"`
	ClarifyingQuestions []string   `json:"clarifying_questions,omitempty" yaml:"clarifying_questions,omitempty"`
	RequiredApps        []string   `json:"required_apps,omitempty" yaml:"required_apps,omitempty"`
	Steps               []PlanStep `json:"steps" yaml:"steps"`
}

// OrderedSteps returns a copy of the steps sorted by ascending ID.
func (p *Plan) OrderedSteps() []PlanStep {
	steps := append([]PlanStep(nil), p.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].ID < steps[j].ID })
	return steps
}

// Observation is a snapshot of the desktop used to pick the next action.
type Observation struct {
	ActiveWindowTitle string    `json:"active_window_title,omitempty"`
	ActiveProcess     string    `json:"active_process,omitempty"`
	LastActionSuccess *bool     `json:"last_action_success,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	Screenshot        string    `json:"-"`
	CapturedAt        time.Time `json:"captured_at"`
}

// StepCompletion is the completion oracle's verdict on a step.
type StepCompletion struct {
	IsComplete bool   `json:"is_complete"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggested_next_action,omitempty"`
}

// AgentState is the orchestrator's position in its run state machine.
type AgentState string

const (
	StateIdle                AgentState = "Idle"
	StatePlanning            AgentState = "Planning"
	StateReady               AgentState = "Ready"
	StateExecuting           AgentState = "Executing"
	StateWaitingConfirmation AgentState = "WaitingConfirmation"
	StateCompleted           AgentState = "Completed"
	StateFailed              AgentState = "Failed"
	StateStopped             AgentState = "Stopped"
)

// Terminal reports whether a run ends in this state.
func (s AgentState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateStopped
}
