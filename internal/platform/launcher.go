// internal/platform/launcher.go
package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
)

// ExecLauncher starts real processes.
type ExecLauncher struct {
	logger *zap.Logger
	goos   string
}

var _ agent.ProcessLauncher = (*ExecLauncher)(nil)

// NewExecLauncher creates a launcher for the running OS.
func NewExecLauncher(logger *zap.Logger) *ExecLauncher {
	return &ExecLauncher{logger: logger.Named("launcher"), goos: runtime.GOOS}
}

// Start launches program detached from the agent. It does not wait for the
// program to exit.
func (l *ExecLauncher) Start(program string, args ...string) error {
	cmd := exec.Command(program, args...)
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", program, err)
	}
	l.logger.Info("Started process", zap.String("program", program), zap.Int("pid", cmd.Process.Pid))
	go func() {
		// Reap the child so it does not linger as a zombie.
		_ = cmd.Wait()
	}()
	return nil
}

// OpenURL hands url to the desktop's default handler.
func (l *ExecLauncher) OpenURL(url string) error {
	program, args := urlOpener(l.goos, url)
	return l.Start(program, args...)
}

func urlOpener(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// Run executes command through shell and waits for it. A non-zero exit is
// reported in the output, not as an error.
func (l *ExecLauncher) Run(ctx context.Context, shell, command string) (agent.CommandOutput, error) {
	program, args := shellInvocation(shell, command)
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := agent.CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			l.logger.Debug("Command exited non-zero", zap.String("command", command), zap.Int("exit_code", out.ExitCode))
			return out, nil
		}
		return out, fmt.Errorf("run %s: %w", program, err)
	}
	return out, nil
}

// shellInvocation returns the program and arguments that run command in shell.
func shellInvocation(shell, command string) (string, []string) {
	switch strings.ToLower(shell) {
	case "cmd", "cmd.exe":
		return "cmd", []string{"/C", command}
	case "powershell", "powershell.exe", "pwsh":
		return shell, []string{"-NoProfile", "-NonInteractive", "-Command", command}
	case "":
		return "/bin/sh", []string{"-c", command}
	default:
		return shell, []string{"-c", command}
	}
}
