// internal/policy/enforced.go
package policy

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/humanoid"
)

// Foreground reports the title and owning process of the foreground window.
type Foreground interface {
	ForegroundWindow() (title, process string)
}

// focusTarget is the last window a FocusWindow action reached.
type focusTarget struct {
	process string
	title   string
}

// EnforcedExecutor gates an ActionExecutor on the foreground process. Input
// only reaches windows owned by allowlisted processes; everything else is
// refused with ErrCodePolicyRefused after one attempt to refocus the last
// authorised target.
type EnforcedExecutor struct {
	inner      agent.ActionExecutor
	policy     agent.PolicyEngine
	foreground Foreground
	self       agent.SelfSurface
	prefs      *Preferences
	logger     *zap.Logger

	mu   sync.Mutex
	last focusTarget
}

var _ agent.ActionExecutor = (*EnforcedExecutor)(nil)

// NewEnforcedExecutor wraps inner. A nil prefs means auto-approval is off.
func NewEnforcedExecutor(logger *zap.Logger, inner agent.ActionExecutor, policy agent.PolicyEngine, fg Foreground, self agent.SelfSurface, prefs *Preferences) *EnforcedExecutor {
	if prefs == nil {
		prefs = NewPreferences(false)
	}
	return &EnforcedExecutor{
		inner:      inner,
		policy:     policy,
		foreground: fg,
		self:       self,
		prefs:      prefs,
		logger:     logger.Named("policy"),
	}
}

// Execute runs action if the foreground process is authorised.
func (x *EnforcedExecutor) Execute(ctx context.Context, action agent.Action) (*agent.ExecutionResult, error) {
	if action.Type == agent.ActionFocusWindow {
		return x.focus(ctx, action)
	}

	_, proc := x.foreground.ForegroundWindow()
	if x.policy.IsAllowedProcess(proc) {
		return x.inner.Execute(ctx, action)
	}

	switch {
	case x.winHotkeyApproved(action):
		x.logger.Debug("Passing Windows-key shortcut through", zap.String("foreground", proc))
		return x.inner.Execute(ctx, action)
	case action.Type == agent.ActionNavigateURL:
		return x.inner.Execute(ctx, action)
	case x.self.Matches(proc) && x.prefs.AutoApprove():
		return x.inner.Execute(ctx, action)
	}

	if target, ok := x.refocusLast(ctx); ok {
		x.logger.Info("Refocused last authorised target", zap.String("process", target))
		return x.inner.Execute(ctx, action)
	}

	_, proc = x.foreground.ForegroundWindow()
	x.logger.Warn("Refusing action in unauthorised foreground",
		zap.String("action", action.Signature()),
		zap.String("foreground", proc))
	return agent.Failed(agent.ErrCodePolicyRefused, "foreground process not allowed: %s", proc), nil
}

// LastTarget returns the process and title of the last successful focus.
func (x *EnforcedExecutor) LastTarget() (process, title string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.last.process, x.last.title
}

func (x *EnforcedExecutor) focus(ctx context.Context, action agent.Action) (*agent.ExecutionResult, error) {
	p, _ := action.Params.(agent.FocusWindowParams)
	if p.Process != "" && !x.policy.IsAllowedProcess(p.Process) {
		x.logger.Warn("Refusing to focus unauthorised process", zap.String("process", p.Process))
		return agent.Failed(agent.ErrCodePolicyRefused, "target process not allowed: %s", p.Process), nil
	}

	res, err := x.inner.Execute(ctx, action)
	if err == nil && res != nil && res.Success {
		x.mu.Lock()
		x.last = focusTarget{process: p.Process, title: p.Title}
		x.mu.Unlock()
	}
	return res, err
}

// refocusLast focuses the remembered target and reports whether the foreground
// is authorised afterwards.
func (x *EnforcedExecutor) refocusLast(ctx context.Context) (string, bool) {
	x.mu.Lock()
	target := x.last
	x.mu.Unlock()

	if target.process == "" || !x.policy.IsAllowedProcess(target.process) {
		return "", false
	}

	refocus := agent.Action{
		Type:           agent.ActionFocusWindow,
		Params:         agent.FocusWindowParams{Title: target.title, Process: target.process},
		ExpectedResult: "Focus " + target.process,
	}
	res, err := x.inner.Execute(ctx, refocus)
	if err != nil || res == nil || !res.Success {
		return "", false
	}

	_, proc := x.foreground.ForegroundWindow()
	return proc, x.policy.IsAllowedProcess(proc)
}

// winHotkeyApproved reports a Windows-key chord that is confirmed or
// auto-approved. Such shortcuts act on the shell, not the foreground window.
func (x *EnforcedExecutor) winHotkeyApproved(action agent.Action) bool {
	if action.Type != agent.ActionHotkey {
		return false
	}
	if !action.RequiresConfirmation && !x.prefs.AutoApprove() {
		return false
	}
	p, ok := action.Params.(agent.HotkeyParams)
	if !ok {
		return false
	}
	for _, k := range p.Keys {
		if humanoid.IsWindowsKey(k) {
			return true
		}
	}
	return false
}
