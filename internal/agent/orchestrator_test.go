// internal/agent/orchestrator_test.go
package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type orchFixture struct {
	o       *Orchestrator
	oracle  *MockOracle
	exec    *MockExecutor
	confirm *MockConfirmation
	latch   *ArmState
	clock   *fakeClock
	journal *memJournal
}

func newOrchFixture(t *testing.T, armed bool) *orchFixture {
	t.Helper()
	f := &orchFixture{
		oracle:  new(MockOracle),
		exec:    new(MockExecutor),
		confirm: new(MockConfirmation),
		latch:   NewArmState(armed),
		clock:   newFakeClock(),
		journal: &memJournal{},
	}
	o, err := NewOrchestrator(zaptest.NewLogger(t), OrchestratorDeps{
		Latch:      f.latch,
		Planner:    f.oracle,
		Proposer:   f.oracle,
		Completion: f.oracle,
		Executor:   f.exec,
		Policy:     staticPolicy{},
		Confirm:    f.confirm,
		Observer:   staticObserver{},
		Journal:    f.journal,
		Clock:      f.clock,
	}, OrchestratorConfig{})
	require.NoError(t, err)
	f.o = o
	return f
}

func singleStepPlan(goal string) *Plan {
	return &Plan{Goal: goal, Steps: []PlanStep{{ID: 1, Description: "Do it", RiskLevel: RiskLow, Validation: "last_action_success"}}}
}

var gridClick = Action{Type: ActionClickGrid, Params: ClickGridParams{Cell: intPtr(42)}}

func TestNewOrchestrator_RequiresCollaborators(t *testing.T) {
	_, err := NewOrchestrator(zaptest.NewLogger(t), OrchestratorDeps{}, OrchestratorConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Latch")
	assert.Contains(t, err.Error(), "Executor")
}

func TestRunGoal_EmptyGoal(t *testing.T) {
	f := newOrchFixture(t, true)
	assert.ErrorIs(t, f.o.RunGoal(context.Background(), "   "), ErrEmptyGoal)
	assert.Equal(t, StateIdle, f.o.State())
}

func TestRunGoal_DisarmedRefusesBeforeAnyStep(t *testing.T) {
	f := newOrchFixture(t, false)
	f.oracle.On("GeneratePlan", mock.Anything, "open notepad").Return(singleStepPlan("open notepad"), nil)
	f.confirm.On("RequestManualTakeover", mock.Anything, mock.Anything).Return()

	err := f.o.RunGoal(context.Background(), "open notepad")
	assert.ErrorIs(t, err, ErrDisarmed)
	assert.Equal(t, StateFailed, f.o.State())

	f.oracle.AssertNotCalled(t, "NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	f.confirm.AssertCalled(t, "RequestManualTakeover", mock.Anything, ErrDisarmed.Error())
}

func TestRunGoal_CompletesPlan(t *testing.T) {
	f := newOrchFixture(t, true)
	plan := &Plan{Goal: "write", Steps: []PlanStep{
		{ID: 2, Description: "Second", RiskLevel: RiskLow},
		{ID: 1, Description: "First", RiskLevel: RiskLow},
	}}
	launch := Action{Type: ActionWinRun, Params: WinRunParams{Command: "notepad"}}

	f.oracle.On("GeneratePlan", mock.Anything, "write").Return(plan, nil).Once()
	f.oracle.On("NextAction", mock.Anything, plan.Steps[1], mock.Anything, "write", mock.Anything).Return(launch, nil).Once()
	f.oracle.On("NextAction", mock.Anything, plan.Steps[0], mock.Anything, "write", mock.Anything).Return(Action{Type: ActionDone}, nil).Once()
	f.oracle.On("CheckStepCompletion", mock.Anything, plan.Steps[1], mock.Anything, "write").
		Return(StepCompletion{IsComplete: true, Reason: "opened"}, nil).Once()
	f.exec.On("Execute", mock.Anything, launch).Return(Succeeded("WinRun: notepad"), nil).Once()

	require.NoError(t, f.o.RunGoal(context.Background(), "write"))
	assert.Equal(t, StateCompleted, f.o.State())
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, f.clock.Sleeps(), "launching actions settle longer")
	assert.Equal(t, []string{"run_started", "action", "step_done", "step_done", "run_completed"}, f.journal.kinds())

	cached, ok := f.o.Plans().Lookup("WRITE")
	require.True(t, ok)
	assert.Same(t, plan, cached)

	f.oracle.AssertExpectations(t)
	f.exec.AssertExpectations(t)
}

func TestRunGoal_ReusesCachedPlan(t *testing.T) {
	f := newOrchFixture(t, true)
	f.oracle.On("GeneratePlan", mock.Anything, "goal").Return(singleStepPlan("goal"), nil).Once()
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(Action{Type: ActionDone}, nil)

	require.NoError(t, f.o.RunGoal(context.Background(), "goal"))
	require.NoError(t, f.o.RunGoal(context.Background(), "Goal"))
	f.oracle.AssertNumberOfCalls(t, "GeneratePlan", 1)
}

func TestRunGoal_LoopBreakerAbandonsStep(t *testing.T) {
	f := newOrchFixture(t, true)
	f.oracle.On("GeneratePlan", mock.Anything, "loop").Return(singleStepPlan("loop"), nil)
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(gridClick, nil)
	f.oracle.On("CheckStepCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(StepCompletion{IsComplete: false, Reason: "nothing changed"}, nil)
	f.exec.On("Execute", mock.Anything, gridClick).Return(Succeeded("Clicked cell 42"), nil)

	require.NoError(t, f.o.RunGoal(context.Background(), "loop"))
	assert.Equal(t, StateCompleted, f.o.State())
	f.exec.AssertNumberOfCalls(t, "Execute", 3)
	f.oracle.AssertNumberOfCalls(t, "NextAction", 4)
	assert.Contains(t, f.journal.kinds(), "step_abandoned")
}

func TestRunGoal_LoopBreakerIgnoresPrefixedSignatures(t *testing.T) {
	f := newOrchFixture(t, true)
	f.oracle.On("GeneratePlan", mock.Anything, "greet").Return(singleStepPlan("greet"), nil)
	texts := []string{"hello world", "hello there", "hello again", "hello"}
	calls := 0
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(context.Context, PlanStep, Observation, string, *InteractionHistory) Action {
			defer func() { calls++ }()
			if calls < len(texts) {
				return Action{Type: ActionTypeText, Params: TypeTextParams{Text: texts[calls]}}
			}
			return Action{Type: ActionDone}
		}, nil)
	f.oracle.On("CheckStepCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(StepCompletion{IsComplete: false}, nil)
	f.exec.On("Execute", mock.Anything, mock.Anything).Return(Succeeded("typed"), nil)

	require.NoError(t, f.o.RunGoal(context.Background(), "greet"))
	f.exec.AssertNumberOfCalls(t, "Execute", 4)
	f.exec.AssertCalled(t, "Execute", mock.Anything, Action{Type: ActionTypeText, Params: TypeTextParams{Text: "hello"}})
	assert.NotContains(t, f.journal.kinds(), "step_abandoned")
	assert.Equal(t, []string{"run_started", "action", "action", "action", "action", "step_done", "run_completed"}, f.journal.kinds())
}

func TestRunGoal_ActionBudget(t *testing.T) {
	f := newOrchFixture(t, true)
	f.oracle.On("GeneratePlan", mock.Anything, "budget").Return(singleStepPlan("budget"), nil)
	calls := 0
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(context.Context, PlanStep, Observation, string, *InteractionHistory) Action {
			calls++
			return Action{Type: ActionWait, Params: WaitParams{Ms: calls}}
		}, nil)
	f.oracle.On("CheckStepCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(StepCompletion{}, nil)
	f.exec.On("Execute", mock.Anything, mock.Anything).Return(Succeeded("waited"), nil)

	require.NoError(t, f.o.RunGoal(context.Background(), "budget"))
	f.exec.AssertNumberOfCalls(t, "Execute", DefaultOrchestratorConfig().MaxActionsPerStep)
}

func TestRunGoal_DeclinedConfirmationStops(t *testing.T) {
	f := newOrchFixture(t, true)
	plan := &Plan{Goal: "save", Steps: []PlanStep{{ID: 1, Description: "Save", RiskLevel: RiskMedium, RequiresConfirmation: true}}}
	save := Action{Type: ActionHotkey, Params: HotkeyParams{Keys: []string{"CTRL", "S"}}}

	f.oracle.On("GeneratePlan", mock.Anything, "save").Return(plan, nil)
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(save, nil)
	f.confirm.On("RequestConfirmation", mock.Anything, save, plan.Steps[0]).Return(false, nil).Once()

	err := f.o.RunGoal(context.Background(), "save")
	assert.ErrorIs(t, err, ErrConfirmationDeclined)
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, StateStopped, f.o.State())
	f.exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	f.confirm.AssertNotCalled(t, "RequestManualTakeover", mock.Anything, mock.Anything)
}

func TestRunGoal_HighRiskStepAsksFirst(t *testing.T) {
	f := newOrchFixture(t, true)
	plan := &Plan{Goal: "risky", Steps: []PlanStep{{ID: 1, Description: "Delete", RiskLevel: RiskHigh}}}
	f.oracle.On("GeneratePlan", mock.Anything, "risky").Return(plan, nil)
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(gridClick, nil).Once()
	f.oracle.On("CheckStepCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(StepCompletion{IsComplete: true}, nil)
	f.confirm.On("RequestConfirmation", mock.Anything, gridClick, plan.Steps[0]).Return(true, nil).Once()
	f.exec.On("Execute", mock.Anything, gridClick).Return(Succeeded("ok"), nil).Once()

	require.NoError(t, f.o.RunGoal(context.Background(), "risky"))
	f.confirm.AssertExpectations(t)
}

func TestRunGoal_CompletionErrorFallsBackToValidation(t *testing.T) {
	f := newOrchFixture(t, true)
	plan := &Plan{Goal: "open", Steps: []PlanStep{{ID: 1, Description: "Open Notepad", Validation: `active_window_title contains "Notepad"`}}}
	f.oracle.On("GeneratePlan", mock.Anything, "open").Return(plan, nil)
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(gridClick, nil).Once()
	f.oracle.On("CheckStepCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(StepCompletion{}, errors.New("quota exceeded")).Once()
	f.exec.On("Execute", mock.Anything, gridClick).Return(Succeeded("ok"), nil).Once()

	require.NoError(t, f.o.RunGoal(context.Background(), "open"))
	assert.Equal(t, StateCompleted, f.o.State())
	f.oracle.AssertExpectations(t)
}

func TestRunGoal_ProposalFailureFailsRun(t *testing.T) {
	f := newOrchFixture(t, true)
	f.oracle.On("GeneratePlan", mock.Anything, "broken").Return(singleStepPlan("broken"), nil)
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(Action{}, errors.New("model unavailable"))
	f.confirm.On("RequestManualTakeover", mock.Anything, mock.Anything).Return().Once()

	err := f.o.RunGoal(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStopped)
	assert.Equal(t, StateFailed, f.o.State())
	f.confirm.AssertExpectations(t)
}

func TestRunGoal_StopDuringAction(t *testing.T) {
	f := newOrchFixture(t, true)
	f.oracle.On("GeneratePlan", mock.Anything, "stop me").Return(singleStepPlan("stop me"), nil)
	f.oracle.On("NextAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(gridClick, nil)
	f.exec.On("Execute", mock.Anything, gridClick).
		Run(func(mock.Arguments) { f.o.Stop() }).
		Return(Succeeded("ok"), nil).Once()

	err := f.o.RunGoal(context.Background(), "stop me")
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, StateStopped, f.o.State())
	f.oracle.AssertNotCalled(t, "CheckStepCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// blockingProposer parks the first run until it is cancelled.
type blockingProposer struct {
	entered chan struct{}
}

func (b *blockingProposer) NextAction(ctx context.Context, _ PlanStep, _ Observation, goal string, _ *InteractionHistory) (Action, error) {
	if goal == "first" {
		close(b.entered)
		<-ctx.Done()
		return Action{}, ctx.Err()
	}
	return Action{Type: ActionDone}, nil
}

func TestRunGoal_NewRunSupersedesPrevious(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("GeneratePlan", mock.Anything, mock.Anything).Return(singleStepPlan("any"), nil)
	proposer := &blockingProposer{entered: make(chan struct{})}

	o, err := NewOrchestrator(zaptest.NewLogger(t), OrchestratorDeps{
		Latch:      NewArmState(true),
		Planner:    oracle,
		Proposer:   proposer,
		Completion: oracle,
		Executor:   new(MockExecutor),
		Policy:     staticPolicy{},
		Confirm:    new(MockConfirmation),
		Observer:   staticObserver{},
		Clock:      newFakeClock(),
	}, OrchestratorConfig{})
	require.NoError(t, err)

	firstErr := make(chan error, 1)
	go func() { firstErr <- o.RunGoal(context.Background(), "first") }()
	<-proposer.entered

	require.NoError(t, o.RunGoal(context.Background(), "second"))
	assert.ErrorIs(t, <-firstErr, ErrStopped)
	assert.Equal(t, StateCompleted, o.State())
}
