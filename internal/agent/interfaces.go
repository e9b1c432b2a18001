// internal/agent/interfaces.go
package agent

import (
	"context"
	"time"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// ActionExecutor runs a single action. Failures are reported in the result;
// a non-nil error means the executor itself broke.
type ActionExecutor interface {
	Execute(ctx context.Context, action Action) (*ExecutionResult, error)
}

// WindowProvider exposes the desktop's foreground window.
type WindowProvider interface {
	// ForegroundWindow returns the title and owning process name of the
	// foreground window; either may be empty.
	ForegroundWindow() (title, process string)
	// ForegroundClientRect returns the client area in screen coordinates.
	ForegroundClientRect() (geometry.Rect, bool)
	// FocusByTitleOrProcess brings a matching window to the front.
	FocusByTitleOrProcess(title, process string) bool
}

// ElementHandle is an opaque accessibility element reference.
type ElementHandle any

// AccessibilityProvider locates and drives UI automation elements.
type AccessibilityProvider interface {
	FindElement(automationID, name string) (ElementHandle, bool)
	IsPassword(el ElementHandle) bool
	TryInvoke(el ElementHandle) bool
	SetFocus(el ElementHandle) error
}

// TextMatch is one OCR hit in screen coordinates.
type TextMatch struct {
	Text       string
	Bounds     geometry.Rect
	Confidence float64
}

// TextLocator finds text on screen. Results are ranked by confidence
// descending, then top-to-bottom, then left-to-right.
type TextLocator interface {
	FindText(ctx context.Context, area geometry.Rect, query string) ([]TextMatch, error)
}

// CommandOutput is what a finished shell command produced.
type CommandOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ProcessLauncher spawns external processes. Launch failures are returned,
// never swallowed.
type ProcessLauncher interface {
	// Start launches a program detached from the agent.
	Start(program string, args ...string) error
	// OpenURL opens url with the desktop's default handler.
	OpenURL(url string) error
	// Run executes command through shell and waits for it, bounded by ctx.
	Run(ctx context.Context, shell, command string) (CommandOutput, error)
}

// ObservationProvider snapshots the desktop. last is the result of the most
// recent action, if any.
type ObservationProvider interface {
	Observe(ctx context.Context, last *ExecutionResult) (Observation, error)
}

// Planner turns a goal into a plan.
type Planner interface {
	GeneratePlan(ctx context.Context, goal string) (*Plan, error)
}

// ActionProposer picks the next action for a step.
type ActionProposer interface {
	NextAction(ctx context.Context, step PlanStep, obs Observation, goal string, history *InteractionHistory) (Action, error)
}

// CompletionChecker decides whether a step's goal has been reached.
type CompletionChecker interface {
	CheckStepCompletion(ctx context.Context, step PlanStep, obs Observation, goal string) (StepCompletion, error)
}

// Oracle bundles the three oracle roles.
type Oracle interface {
	Planner
	ActionProposer
	CompletionChecker
}

// ConfirmationSurface asks the operator for decisions.
type ConfirmationSurface interface {
	// RequestConfirmation blocks until the operator answers or ctx ends.
	RequestConfirmation(ctx context.Context, action Action, step PlanStep) (bool, error)
	// RequestManualTakeover tells the operator automation has given up.
	RequestManualTakeover(ctx context.Context, reason string)
}

// PolicyEngine decides what needs confirmation and which processes may
// receive input.
type PolicyEngine interface {
	RequiresConfirmation(action Action) bool
	IsAllowedProcess(name string) bool
}

// Latch is the operator's arm/disarm switch.
type Latch interface {
	IsArmed() bool
	Arm()
	Disarm()
}

// RunEvent is one journal entry of a run.
type RunEvent struct {
	RunID   string
	Time    time.Time
	Kind    string
	StepID  int
	Message string
	Success bool
}

// Journal persists plans and run events.
type Journal interface {
	SavePlan(ctx context.Context, runID string, plan *Plan) error
	RecordEvent(ctx context.Context, ev RunEvent) error
}
