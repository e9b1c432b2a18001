// internal/platform/providers.go
package platform

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/humanoid"
	"github.com/xkilldash9x/deskpilot/internal/observation"
)

// Providers are the desktop backends one run uses.
type Providers struct {
	Desktop  *SimDesktop
	Windows  agent.WindowProvider
	UIA      agent.AccessibilityProvider
	Text     agent.TextLocator
	Launcher agent.ProcessLauncher
	Input    humanoid.Input
	Capturer observation.Capturer
}

// New assembles providers. No native window, input or capture backend is
// compiled into this build, so those always come from a SimDesktop seeded
// with the agent's own window. With dryRun false, programs, URLs and shell
// commands are launched for real.
func New(logger *zap.Logger, dryRun bool, selfProcess string) Providers {
	desktop := NewSimDesktop(logger, Window{Title: "DeskPilot", Process: selfProcess, Rect: DefaultScreen})
	p := Providers{
		Desktop:  desktop,
		Windows:  desktop,
		UIA:      desktop,
		Text:     desktop,
		Launcher: desktop,
		Input:    NewDryRunInput(logger),
		Capturer: observation.SolidCapturer{},
	}
	if !dryRun {
		p.Launcher = &liveLauncher{ExecLauncher: NewExecLauncher(logger), desktop: desktop}
	}
	return p
}

// liveLauncher starts real processes and mirrors each one as a simulated
// window so focus tracking keeps working.
type liveLauncher struct {
	*ExecLauncher
	desktop *SimDesktop
}

func (l *liveLauncher) Start(program string, args ...string) error {
	if err := l.ExecLauncher.Start(program, args...); err != nil {
		return err
	}
	return l.desktop.Start(program, args...)
}

func (l *liveLauncher) OpenURL(url string) error {
	if err := l.ExecLauncher.OpenURL(url); err != nil {
		return err
	}
	return l.desktop.OpenURL(url)
}
