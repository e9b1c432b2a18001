// internal/agent/handlers_keyboard.go
package agent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/humanoid"
)

func (e *Executor) handleTypeText(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[TypeTextParams](action)
	if err != nil {
		return "", err
	}
	if p.Text == "" {
		return "", invalidParams("no text to type")
	}

	if _, proc := e.windows.ForegroundWindow(); e.self.Matches(proc) {
		e.logger.Warn("Refusing to type into the agent's own window", zap.String("process", proc))
		return "", newActionError(ErrCodeSelfTarget, "agent UI is foreground; focus the target application first")
	}

	if (p.UIAAutomationID != "" || p.UIAName != "") && e.uia != nil {
		if el, ok := e.uia.FindElement(p.UIAAutomationID, p.UIAName); ok {
			if e.uia.IsPassword(el) {
				return "", newActionError(ErrCodePasswordField, "password typing blocked")
			}
			if err := e.uia.SetFocus(el); err != nil {
				e.logger.Debug("Could not focus element before typing", zap.Error(err))
			}
		}
	}

	e.human.Type(p.Text)
	e.pause(ctx, 100*time.Millisecond)
	return "Typed: " + p.Text, nil
}

func (e *Executor) handleHotkey(_ context.Context, action Action) (string, error) {
	p, err := paramsOf[HotkeyParams](action)
	if err != nil {
		return "", err
	}
	if len(p.Keys) == 0 {
		return "", invalidParams("missing keys array")
	}

	codes, unknown := humanoid.ResolveKeys(p.Keys)
	if len(unknown) > 0 {
		e.logger.Warn("Dropping unknown key names", zap.Strings("keys", unknown))
	}
	if len(codes) == 0 {
		return "", invalidParams("no recognised keys in %v", p.Keys)
	}

	e.human.Chord(codes...)
	return "Pressed " + strings.ToUpper(strings.Join(p.Keys, "+")), nil
}

func (e *Executor) handleClickUIA(_ context.Context, action Action) (string, error) {
	p, err := paramsOf[ClickUIAParams](action)
	if err != nil {
		return "", err
	}
	if p.AutomationID == "" && p.Name == "" {
		return "", invalidParams("click_uia needs automation_id or name")
	}
	if e.uia == nil {
		return "", newActionError(ErrCodeEnvironment, "accessibility is not available on this platform")
	}

	el, ok := e.uia.FindElement(p.AutomationID, p.Name)
	if !ok {
		return "", newActionError(ErrCodeElementNotFound, "UIA element not found")
	}
	if e.uia.IsPassword(el) {
		return "", newActionError(ErrCodePasswordField, "password field interaction blocked")
	}
	if e.uia.TryInvoke(el) {
		return "Invoked " + p.Salient(), nil
	}
	if err := e.uia.SetFocus(el); err != nil {
		return "", newActionError(ErrCodeExecutionFailure, "UIA click failed: %v", err)
	}
	return "Focused " + p.Salient(), nil
}
