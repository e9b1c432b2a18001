// internal/agent/executor.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
	"github.com/xkilldash9x/deskpilot/internal/humanoid"
)

// ExecutorConfig tunes the action executor.
type ExecutorConfig struct {
	// CommandTimeout bounds RunCommand when the action gives no timeout.
	CommandTimeout time.Duration
	// OutputPreview is how many characters of stdout a RunCommand result keeps.
	OutputPreview int
	// DefaultShell runs RunCommand when the action names none.
	DefaultShell string
}

// DefaultExecutorConfig returns the stock executor settings.
func DefaultExecutorConfig() ExecutorConfig {
	shell := "sh"
	if runtime.GOOS == "windows" {
		shell = "powershell"
	}
	return ExecutorConfig{
		CommandTimeout: 10 * time.Second,
		OutputPreview:  200,
		DefaultShell:   shell,
	}
}

// ExecutorDeps are the desktop collaborators the executor drives. Text and
// UIA may be nil when the platform has no such backend.
type ExecutorDeps struct {
	Humanoid *humanoid.Humanoid
	Windows  WindowProvider
	UIA      AccessibilityProvider
	Text     TextLocator
	Launcher ProcessLauncher
	Clock    Clock
	Self     SelfSurface
}

// actionHandler performs one action type and returns result details.
type actionHandler func(ctx context.Context, action Action) (string, error)

// Executor maps actions onto input gestures, window focus, accessibility
// calls and process launches.
type Executor struct {
	logger   *zap.Logger
	human    *humanoid.Humanoid
	windows  WindowProvider
	uia      AccessibilityProvider
	text     TextLocator
	launcher ProcessLauncher
	clock    Clock
	self     SelfSurface
	grid     geometry.Grid
	cfg      ExecutorConfig
	handlers map[ActionType]actionHandler
}

var _ ActionExecutor = (*Executor)(nil)

// NewExecutor creates an Executor over the given collaborators.
func NewExecutor(logger *zap.Logger, deps ExecutorDeps, cfg ExecutorConfig) *Executor {
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}
	defaults := DefaultExecutorConfig()
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = defaults.CommandTimeout
	}
	if cfg.OutputPreview <= 0 {
		cfg.OutputPreview = defaults.OutputPreview
	}
	if cfg.DefaultShell == "" {
		cfg.DefaultShell = defaults.DefaultShell
	}

	e := &Executor{
		logger:   logger.Named("executor"),
		human:    deps.Humanoid,
		windows:  deps.Windows,
		uia:      deps.UIA,
		text:     deps.Text,
		launcher: deps.Launcher,
		clock:    deps.Clock,
		self:     deps.Self,
		grid:     geometry.ExecutionGrid,
		cfg:      cfg,
		handlers: make(map[ActionType]actionHandler),
	}
	e.registerHandlers()
	return e
}

func (e *Executor) registerHandlers() {
	// -- Pointer --
	e.handlers[ActionClickCoordinates] = e.handleClickCoordinates
	e.handlers[ActionClickGrid] = e.handleClickGrid
	e.handlers[ActionClickAndType] = e.handleClickAndType
	e.handlers[ActionClickText] = e.handleClickText
	e.handlers[ActionScroll] = e.handleScroll

	// -- Keyboard --
	e.handlers[ActionTypeText] = e.handleTypeText
	e.handlers[ActionHotkey] = e.handleHotkey

	// -- Accessibility --
	e.handlers[ActionClickUIA] = e.handleClickUIA

	// -- Windows and processes --
	e.handlers[ActionFocusWindow] = e.handleFocusWindow
	e.handlers[ActionNavigateURL] = e.handleNavigateURL
	e.handlers[ActionWinRun] = e.handleWinRun
	e.handlers[ActionRunCommand] = e.handleRunCommand

	// -- Control --
	e.handlers[ActionWait] = e.handleWait
	e.handlers[ActionVerify] = func(context.Context, Action) (string, error) { return "verified", nil }
	e.handlers[ActionDone] = func(context.Context, Action) (string, error) { return "done", nil }
}

// Execute runs the handler for action.Type. It never returns an error:
// failures, including handler panics, come back as failed results.
func (e *Executor) Execute(ctx context.Context, action Action) (result *ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Action handler panicked",
				zap.String("action", string(action.Type)),
				zap.Any("panic", r))
			result = Failed(ErrCodeExecutorPanic, "executor panic: %v", r)
			err = nil
		}
	}()

	handler, ok := e.handlers[action.Type]
	if !ok {
		return Failed(ErrCodeUnknownAction, "unsupported action type: %q", action.Type), nil
	}

	details, herr := handler(ctx, action)
	if herr != nil {
		result = resultFromError(herr)
		e.logger.Warn("Action execution failed",
			zap.String("action", string(action.Type)),
			zap.String("error_code", string(result.Code)),
			zap.Error(herr))
		return result, nil
	}

	e.logger.Debug("Action executed", zap.String("action", action.Signature()), zap.String("details", details))
	return Succeeded(details), nil
}

func resultFromError(err error) *ExecutionResult {
	var ae *ActionError
	if errors.As(err, &ae) {
		return &ExecutionResult{Code: ae.Code, ErrorMessage: ae.Message, Details: ae.Details}
	}
	return &ExecutionResult{Code: ErrCodeExecutionFailure, ErrorMessage: err.Error()}
}

// paramsOf returns the action's parameter variant, or a parameter error if
// the action carries a different one.
func paramsOf[T ActionParams](a Action) (T, error) {
	p, ok := a.Params.(T)
	if !ok {
		var zero T
		return zero, invalidParams("missing parameters for %s", a.Type)
	}
	return p, nil
}

// pause waits inside an action. Gestures are atomic, so run cancellation
// does not cut these short.
func (e *Executor) pause(ctx context.Context, d time.Duration) {
	_ = e.clock.Sleep(context.WithoutCancel(ctx), d)
}

// foregroundRect fetches the client rectangle or fails with an environment error.
func (e *Executor) foregroundRect() (geometry.Rect, error) {
	r, ok := e.windows.ForegroundClientRect()
	if !ok {
		return geometry.Rect{}, newActionError(ErrCodeEnvironment, "unable to get foreground window rect")
	}
	return r, nil
}

func formatPoint(p geometry.Point) string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}
