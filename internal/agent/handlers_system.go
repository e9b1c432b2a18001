// internal/agent/handlers_system.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/humanoid"
)

const (
	// MaxWait caps a single wait action.
	MaxWait = 60 * time.Second

	launchFocusDelay = 500 * time.Millisecond
	navigateSettle   = 1500 * time.Millisecond
	runDialogOpen    = 500 * time.Millisecond
	runDialogTyped   = 200 * time.Millisecond
	runDialogLaunch  = 1000 * time.Millisecond
)

func (e *Executor) handleFocusWindow(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[FocusWindowParams](action)
	if err != nil {
		return "", err
	}
	if p.Title == "" && p.Process == "" {
		return "", invalidParams("focus_window needs a title or process")
	}

	if e.windows.FocusByTitleOrProcess(p.Title, p.Process) {
		return "Focused " + p.Salient(), nil
	}
	if p.Process == "" {
		return "", newActionError(ErrCodeEnvironment, "no window titled %q", p.Title)
	}

	e.logger.Info("Target window not found; starting process", zap.String("process", p.Process))
	if err := e.launcher.Start(p.Process); err != nil {
		return "", newActionError(ErrCodeLaunchFailed, "failed to start %s: %v", p.Process, err)
	}
	e.pause(ctx, launchFocusDelay)

	if !e.windows.FocusByTitleOrProcess(p.Title, p.Process) {
		return "", newActionError(ErrCodeEnvironment, "failed to focus or start target window")
	}
	return "Started and focused " + p.Process, nil
}

// browserPrograms maps browser names to their executables.
var browserPrograms = map[string]string{
	"firefox": "firefox",
	"chrome":  "chrome",
	"edge":    "msedge",
	"msedge":  "msedge",
}

func (e *Executor) handleNavigateURL(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[NavigateURLParams](action)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(p.URL) == "" {
		return "", invalidParams("missing url parameter")
	}

	if b := strings.ToLower(strings.TrimSpace(p.Browser)); b != "" {
		program, ok := browserPrograms[b]
		if !ok {
			program = b
		}
		err = e.launcher.Start(program, p.URL)
	} else {
		err = e.launcher.OpenURL(p.URL)
	}
	if err != nil {
		return "", newActionError(ErrCodeLaunchFailed, "failed to navigate: %v", err)
	}

	e.pause(ctx, navigateSettle)
	return "Opened " + p.URL, nil
}

func (e *Executor) handleWinRun(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[WinRunParams](action)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Command) == "" {
		return "", invalidParams("no command specified for win_run")
	}

	e.logger.Info("Opening Run dialog", zap.String("command", p.Command))
	e.human.Chord(humanoid.VKLWin, 'R')
	e.pause(ctx, runDialogOpen)
	e.human.Type(p.Command)
	e.pause(ctx, runDialogTyped)
	e.human.Chord(humanoid.VKReturn)
	e.pause(ctx, runDialogLaunch)
	return "WinRun: " + p.Command, nil
}

func (e *Executor) handleRunCommand(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[RunCommandParams](action)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Command) == "" {
		return "", invalidParams("no command specified")
	}
	shell := p.Shell
	if shell == "" {
		shell = e.cfg.DefaultShell
	}
	timeout := e.cfg.CommandTimeout
	if p.TimeoutMs != nil && *p.TimeoutMs > 0 {
		timeout = time.Duration(*p.TimeoutMs) * time.Millisecond
	}

	e.logger.Info("Running command", zap.String("shell", shell), zap.String("command", p.Command))
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := e.launcher.Run(runCtx, shell, p.Command)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", newActionError(ErrCodeTimeoutError, "command did not finish within %s", timeout)
		}
		return "", newActionError(ErrCodeLaunchFailed, "failed to run command: %v", err)
	}

	if out.ExitCode != 0 && strings.TrimSpace(out.Stderr) != "" {
		return "", &ActionError{Code: ErrCodeCommandFailed, Message: out.Stderr, Details: out.Stdout}
	}
	return truncate(out.Stdout, e.cfg.OutputPreview), nil
}

func (e *Executor) handleWait(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[WaitParams](action)
	if err != nil {
		return "", err
	}
	d := time.Duration(min(max(p.Ms, 0), int(MaxWait/time.Millisecond))) * time.Millisecond
	if err := e.clock.Sleep(ctx, d); err != nil {
		return "", newActionError(ErrCodeCancelled, "wait interrupted: %v", err)
	}
	return fmt.Sprintf("Waited %s", d), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
