// internal/agent/helpers_test.go
package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
	"github.com/xkilldash9x/deskpilot/internal/humanoid"
)

// -- Clock --

// fakeClock advances instantly and remembers every sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// -- Desktop --

type fakeWindows struct {
	mu        sync.Mutex
	title     string
	process   string
	rect      geometry.Rect
	hasRect   bool
	focusable map[string]bool
	focused   []string
}

func (w *fakeWindows) ForegroundWindow() (string, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title, w.process
}

func (w *fakeWindows) ForegroundClientRect() (geometry.Rect, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rect, w.hasRect
}

func (w *fakeWindows) FocusByTitleOrProcess(title, process string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = append(w.focused, process)
	if w.focusable[process] || (title != "" && w.focusable[title]) {
		w.title, w.process = title, process
		return true
	}
	return false
}

type fakeLauncher struct {
	mu       sync.Mutex
	started  [][]string
	opened   []string
	startErr error
	onStart  func(program string)
	run      func(ctx context.Context, shell, command string) (CommandOutput, error)
}

func (l *fakeLauncher) Start(program string, args ...string) error {
	l.mu.Lock()
	l.started = append(l.started, append([]string{program}, args...))
	hook := l.onStart
	l.mu.Unlock()
	if l.startErr != nil {
		return l.startErr
	}
	if hook != nil {
		hook(program)
	}
	return nil
}

func (l *fakeLauncher) OpenURL(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = append(l.opened, url)
	return nil
}

func (l *fakeLauncher) Run(ctx context.Context, shell, command string) (CommandOutput, error) {
	if l.run == nil {
		return CommandOutput{}, nil
	}
	return l.run(ctx, shell, command)
}

type fakeElement struct {
	password  bool
	invokable bool
}

type fakeUIA struct {
	elements map[string]*fakeElement
	focused  []ElementHandle
}

func (u *fakeUIA) FindElement(automationID, name string) (ElementHandle, bool) {
	if el, ok := u.elements[automationID]; ok && automationID != "" {
		return el, true
	}
	el, ok := u.elements[name]
	return el, ok
}

func (u *fakeUIA) IsPassword(el ElementHandle) bool { return el.(*fakeElement).password }
func (u *fakeUIA) TryInvoke(el ElementHandle) bool  { return el.(*fakeElement).invokable }
func (u *fakeUIA) SetFocus(el ElementHandle) error {
	u.focused = append(u.focused, el)
	return nil
}

type stubTextLocator struct {
	matches []TextMatch
	err     error
}

func (s stubTextLocator) FindText(context.Context, geometry.Rect, string) ([]TextMatch, error) {
	return append([]TextMatch(nil), s.matches...), s.err
}

type panickingTextLocator struct{}

func (panickingTextLocator) FindText(context.Context, geometry.Rect, string) ([]TextMatch, error) {
	panic("ocr engine crashed")
}

// executorFixture wires an Executor to recording fakes.
type executorFixture struct {
	exec     *Executor
	input    *humanoid.Recorder
	windows  *fakeWindows
	launcher *fakeLauncher
	uia      *fakeUIA
	clock    *fakeClock
}

func newExecutorFixture(t *testing.T, mutate ...func(*ExecutorDeps)) *executorFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := &executorFixture{
		input: &humanoid.Recorder{},
		windows: &fakeWindows{
			title:     "Untitled - Notepad",
			process:   "notepad",
			rect:      geometry.Rect{Left: 0, Top: 0, Right: 1600, Bottom: 1200},
			hasRect:   true,
			focusable: map[string]bool{},
		},
		launcher: &fakeLauncher{},
		uia:      &fakeUIA{elements: map[string]*fakeElement{}},
		clock:    newFakeClock(),
	}
	deps := ExecutorDeps{
		Humanoid: humanoid.New(f.input, logger, humanoid.WithSleep(func(time.Duration) {})),
		Windows:  f.windows,
		UIA:      f.uia,
		Launcher: f.launcher,
		Clock:    f.clock,
		Self:     NewSelfSurface("deskpilot"),
	}
	for _, m := range mutate {
		m(&deps)
	}
	f.exec = NewExecutor(logger, deps, DefaultExecutorConfig())
	return f
}

func intPtr(v int) *int { return &v }

// -- Mocks --

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, action Action) (*ExecutionResult, error) {
	args := m.Called(ctx, action)
	res, _ := args.Get(0).(*ExecutionResult)
	return res, args.Error(1)
}

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) GeneratePlan(ctx context.Context, goal string) (*Plan, error) {
	args := m.Called(ctx, goal)
	plan, _ := args.Get(0).(*Plan)
	return plan, args.Error(1)
}

func (m *MockOracle) NextAction(ctx context.Context, step PlanStep, obs Observation, goal string, history *InteractionHistory) (Action, error) {
	args := m.Called(ctx, step, obs, goal, history)
	if fn, ok := args.Get(0).(func(context.Context, PlanStep, Observation, string, *InteractionHistory) Action); ok {
		return fn(ctx, step, obs, goal, history), args.Error(1)
	}
	return args.Get(0).(Action), args.Error(1)
}

func (m *MockOracle) CheckStepCompletion(ctx context.Context, step PlanStep, obs Observation, goal string) (StepCompletion, error) {
	args := m.Called(ctx, step, obs, goal)
	return args.Get(0).(StepCompletion), args.Error(1)
}

type MockConfirmation struct {
	mock.Mock
}

func (m *MockConfirmation) RequestConfirmation(ctx context.Context, action Action, step PlanStep) (bool, error) {
	args := m.Called(ctx, action, step)
	return args.Bool(0), args.Error(1)
}

func (m *MockConfirmation) RequestManualTakeover(ctx context.Context, reason string) {
	m.Called(ctx, reason)
}

// staticPolicy confirms nothing unless told to and allows every process.
type staticPolicy struct {
	confirm bool
}

func (p staticPolicy) RequiresConfirmation(a Action) bool { return p.confirm || a.RequiresConfirmation }
func (p staticPolicy) IsAllowedProcess(string) bool        { return true }

type staticObserver struct{}

func (staticObserver) Observe(_ context.Context, last *ExecutionResult) (Observation, error) {
	obs := Observation{ActiveWindowTitle: "Untitled - Notepad", ActiveProcess: "notepad"}
	if last != nil {
		ok := last.Success
		obs.LastActionSuccess = &ok
	}
	return obs, nil
}

type memJournal struct {
	mu     sync.Mutex
	plans  map[string]*Plan
	events []RunEvent
}

func (j *memJournal) SavePlan(_ context.Context, runID string, plan *Plan) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.plans == nil {
		j.plans = map[string]*Plan{}
	}
	j.plans[runID] = plan
	return nil
}

func (j *memJournal) RecordEvent(_ context.Context, ev RunEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return nil
}

func (j *memJournal) kinds() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.events))
	for _, ev := range j.events {
		out = append(out, ev.Kind)
	}
	return out
}

func nopLogger() *zap.Logger { return zap.NewNop() }
