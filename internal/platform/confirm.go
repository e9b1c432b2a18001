// internal/platform/confirm.go
package platform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/policy"
)

// TerminalConfirmation asks the operator on a terminal. With auto-approve on
// every request is granted without prompting.
type TerminalConfirmation struct {
	logger *zap.Logger
	prefs  *policy.Preferences
	out    io.Writer

	mu    sync.Mutex
	lines chan string
}

var _ agent.ConfirmationSurface = (*TerminalConfirmation)(nil)

// NewTerminalConfirmation reads answers from in and writes prompts to out.
func NewTerminalConfirmation(logger *zap.Logger, prefs *policy.Preferences, in io.Reader, out io.Writer) *TerminalConfirmation {
	t := &TerminalConfirmation{
		logger: logger.Named("confirm"),
		prefs:  prefs,
		out:    out,
		lines:  make(chan string),
	}
	go t.readLines(bufio.NewReader(in))
	return t
}

// readLines feeds operator answers to whichever request is waiting. It
// outlives cancelled requests because a blocked read cannot be interrupted.
func (t *TerminalConfirmation) readLines(r *bufio.Reader) {
	defer close(t.lines)
	for {
		line, err := r.ReadString('\n')
		if line != "" || err == nil {
			t.lines <- strings.TrimSpace(line)
		}
		if err != nil {
			return
		}
	}
}

func (t *TerminalConfirmation) RequestConfirmation(ctx context.Context, action agent.Action, step agent.PlanStep) (bool, error) {
	if t.prefs.AutoApprove() {
		t.logger.Info("Auto-approved action", zap.String("action", action.Signature()), zap.Int("step", step.ID))
		return true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\nStep %d: %s\n", step.ID, step.Description)
	fmt.Fprintf(t.out, "Next action: %s\n", action.Signature())
	if action.ExpectedResult != "" {
		fmt.Fprintf(t.out, "Expected: %s\n", action.ExpectedResult)
	}
	fmt.Fprint(t.out, "Proceed? [y/N]: ")

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return false, ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return false, io.ErrUnexpectedEOF
		}
		approved := isYes(line)
		t.logger.Info("Operator answered", zap.Bool("approved", approved), zap.String("action", action.Signature()))
		return approved, nil
	}
}

func (t *TerminalConfirmation) RequestManualTakeover(_ context.Context, reason string) {
	t.logger.Warn("Manual takeover requested", zap.String("reason", reason))
	fmt.Fprintf(t.out, "\nAutomation stopped: %s\nPlease take over manually.\n", reason)
}

func isYes(answer string) bool {
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}
