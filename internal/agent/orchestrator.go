// internal/agent/orchestrator.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrchestratorConfig bounds a goal run.
type OrchestratorConfig struct {
	MaxActionsPerStep int
	// RepeatThreshold is how many identical actions abandon a step.
	RepeatThreshold int
	HistorySize     int
	Retry           RetryPolicy
	// Settle is the pause before re-observing after an action.
	Settle time.Duration
	// LaunchSettle replaces Settle after actions that launch or navigate.
	LaunchSettle time.Duration
}

// DefaultOrchestratorConfig returns the stock run bounds.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxActionsPerStep: 15,
		RepeatThreshold:   3,
		HistorySize:       DefaultMaxRecords,
		Retry:             DefaultRetryPolicy(),
		Settle:            300 * time.Millisecond,
		LaunchSettle:      1500 * time.Millisecond,
	}
}

// OrchestratorDeps are the collaborators of a goal run. Journal and Clock
// are optional.
type OrchestratorDeps struct {
	Latch      Latch
	Plans      *PlanContext
	Planner    Planner
	Proposer   ActionProposer
	Completion CompletionChecker
	Executor   ActionExecutor
	Policy     PolicyEngine
	Confirm    ConfirmationSurface
	Observer   ObservationProvider
	Journal    Journal
	Clock      Clock
}

func (d *OrchestratorDeps) validate() error {
	var missing []string
	check := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check(d.Latch != nil, "Latch")
	check(d.Planner != nil, "Planner")
	check(d.Proposer != nil, "Proposer")
	check(d.Completion != nil, "Completion")
	check(d.Executor != nil, "Executor")
	check(d.Policy != nil, "Policy")
	check(d.Confirm != nil, "Confirm")
	check(d.Observer != nil, "Observer")
	if len(missing) > 0 {
		return fmt.Errorf("orchestrator is missing collaborators: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Orchestrator drives a goal through planning and step execution. Only one
// run is active at a time; starting a run cancels the previous one and waits
// for it to unwind.
type Orchestrator struct {
	logger *zap.Logger
	deps   OrchestratorDeps
	cfg    OrchestratorConfig

	stateMu sync.RWMutex
	state   AgentState

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewOrchestrator wires an Orchestrator. Zero config fields take defaults.
func NewOrchestrator(logger *zap.Logger, deps OrchestratorDeps, cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Plans == nil {
		deps.Plans = NewPlanContext()
	}
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}

	def := DefaultOrchestratorConfig()
	if cfg.MaxActionsPerStep <= 0 {
		cfg.MaxActionsPerStep = def.MaxActionsPerStep
	}
	if cfg.RepeatThreshold <= 0 {
		cfg.RepeatThreshold = def.RepeatThreshold
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = def.Retry
	}
	if cfg.Settle <= 0 {
		cfg.Settle = def.Settle
	}
	if cfg.LaunchSettle <= 0 {
		cfg.LaunchSettle = def.LaunchSettle
	}

	return &Orchestrator{
		logger: logger.Named("orchestrator"),
		deps:   deps,
		cfg:    cfg,
		state:  StateIdle,
	}, nil
}

// State returns the current run state.
func (o *Orchestrator) State() AgentState {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s AgentState) {
	o.stateMu.Lock()
	prev := o.state
	o.state = s
	o.stateMu.Unlock()
	if prev != s {
		o.logger.Debug("State changed", zap.String("from", string(prev)), zap.String("to", string(s)))
	}
}

// Plans exposes the plan cache.
func (o *Orchestrator) Plans() *PlanContext {
	return o.deps.Plans
}

// Stop cancels the current run, if any. Input already being injected for the
// current action completes first.
func (o *Orchestrator) Stop() {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if o.cancel != nil {
		o.logger.Info("Stop requested")
		o.cancel()
	}
}

// beginRun supersedes any in-flight run and returns the context for the new
// one plus the function that must end it.
func (o *Orchestrator) beginRun(parent context.Context) (context.Context, func()) {
	o.runMu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	prev := o.done
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	o.cancel, o.done = cancel, done
	o.runMu.Unlock()

	if prev != nil {
		<-prev
	}

	return ctx, func() {
		cancel()
		o.runMu.Lock()
		if o.done == done {
			o.cancel, o.done = nil, nil
		}
		o.runMu.Unlock()
		if !o.State().Terminal() {
			o.setState(StateIdle)
		}
		close(done)
	}
}

// RunGoal plans and executes goal. It returns nil on completion, an error
// wrapping ErrStopped on cancellation or declined confirmation, ErrDisarmed
// when the latch is not armed, and any other error when the run failed.
func (o *Orchestrator) RunGoal(ctx context.Context, goal string) (err error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return ErrEmptyGoal
	}

	runCtx, finish := o.beginRun(ctx)
	defer finish()

	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID))
	o.record(runCtx, logger, RunEvent{RunID: runID, Kind: "run_started", Message: goal, Success: true})

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Orchestration panicked", zap.Any("panic", r))
			err = fmt.Errorf("orchestration panic: %v", r)
		}
		err = o.conclude(runCtx, logger, runID, err)
	}()

	return o.run(runCtx, logger, runID, goal)
}

// conclude maps the run error to a terminal state and notifies collaborators.
func (o *Orchestrator) conclude(ctx context.Context, logger *zap.Logger, runID string, err error) error {
	detached := context.WithoutCancel(ctx)
	switch {
	case err == nil:
		o.setState(StateCompleted)
		logger.Info("Goal completed")
	case errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled):
		if !errors.Is(err, ErrStopped) {
			err = stopped(err)
		}
		o.setState(StateStopped)
		logger.Warn("Execution stopped", zap.Error(err))
	default:
		o.setState(StateFailed)
		logger.Error("Execution failed", zap.Error(err))
		o.deps.Confirm.RequestManualTakeover(detached, err.Error())
	}
	o.record(detached, logger, RunEvent{
		RunID:   runID,
		Kind:    "run_" + strings.ToLower(string(o.State())),
		Message: errString(err),
		Success: err == nil,
	})
	return err
}

func (o *Orchestrator) run(ctx context.Context, logger *zap.Logger, runID, goal string) error {
	if err := ctx.Err(); err != nil {
		return stopped(err)
	}

	o.setState(StatePlanning)
	logger.Info("Planning goal", zap.String("goal", goal))
	plan, err := o.obtainPlan(ctx, goal)
	if err != nil {
		return err
	}
	o.setState(StateReady)

	if !o.deps.Latch.IsArmed() {
		logger.Warn("Agent is disarmed; refusing to execute plan")
		return ErrDisarmed
	}

	o.setState(StateExecuting)
	if o.deps.Journal != nil {
		if err := o.deps.Journal.SavePlan(ctx, runID, plan); err != nil {
			logger.Warn("Failed to journal plan", zap.Error(err))
		}
	}

	for _, step := range plan.OrderedSteps() {
		if err := ctx.Err(); err != nil {
			return stopped(err)
		}
		if err := o.runStep(ctx, logger, runID, goal, step); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) obtainPlan(ctx context.Context, goal string) (*Plan, error) {
	if plan, ok := o.deps.Plans.Lookup(goal); ok {
		o.deps.Plans.SetCurrent(plan)
		return plan, nil
	}
	plan, err := o.deps.Planner.GeneratePlan(ctx, goal)
	if err != nil {
		if ctx.Err() != nil {
			return nil, stopped(ctx.Err())
		}
		return nil, fmt.Errorf("planning failed: %w", err)
	}
	if plan == nil || len(plan.Steps) == 0 {
		return nil, ErrEmptyPlan
	}
	o.deps.Plans.Store(goal, plan)
	return plan, nil
}

// runStep loops observe → propose → execute → verify for one step. A step
// that runs out of actions or repeats itself is abandoned, not failed.
func (o *Orchestrator) runStep(ctx context.Context, logger *zap.Logger, runID, goal string, step PlanStep) error {
	logger = logger.With(zap.Int("step", step.ID))
	logger.Info("Starting step", zap.String("description", step.Description))

	history := NewInteractionHistory(o.cfg.HistorySize)
	var last *ExecutionResult

	for n := 1; n <= o.cfg.MaxActionsPerStep; n++ {
		if err := ctx.Err(); err != nil {
			return stopped(err)
		}

		obs, err := o.observe(ctx, logger, last)
		if err != nil {
			return err
		}

		action, err := o.deps.Proposer.NextAction(ctx, step, obs, goal, history)
		if err != nil {
			if ctx.Err() != nil {
				return stopped(ctx.Err())
			}
			return fmt.Errorf("action proposal for step %d failed: %w", step.ID, err)
		}

		if action.Type == ActionDone {
			logger.Info("Oracle reports step done")
			o.record(ctx, logger, RunEvent{RunID: runID, Kind: "step_done", StepID: step.ID, Success: true})
			return nil
		}

		sig := action.Signature()
		key := SignatureKey(sig)
		if history.HasRepeatedAction(action.Type, key, o.cfg.RepeatThreshold) {
			logger.Warn("Repeated action detected; abandoning step", zap.String("action", sig))
			o.record(ctx, logger, RunEvent{RunID: runID, Kind: "step_abandoned", StepID: step.ID, Message: "repeated " + sig})
			return nil
		}

		if o.needsConfirmation(action, step) {
			if err := o.confirm(ctx, action, step); err != nil {
				return err
			}
		}

		result, err := ExecuteWithRetries(ctx, o.deps.Executor, action, o.cfg.Retry, o.deps.Clock, logger)
		if err != nil {
			return err
		}

		detail := key
		if result.Details != "" {
			detail += " -> " + result.Details
		}
		history.RecordAction(action.Type, detail, result.Success)
		o.record(ctx, logger, RunEvent{RunID: runID, Kind: "action", StepID: step.ID, Message: detail, Success: result.Success})
		if result.Success {
			logger.Info("Action succeeded", zap.String("details", result.Details))
		} else {
			logger.Warn("Action failed; checking completion anyway",
				zap.String("error_code", string(result.Code)),
				zap.String("error", result.ErrorMessage))
		}
		last = result

		settle := o.cfg.Settle
		if action.Type.Launches() {
			settle = o.cfg.LaunchSettle
		}
		if err := o.deps.Clock.Sleep(ctx, settle); err != nil {
			return stopped(err)
		}

		post, err := o.observe(ctx, logger, result)
		if err != nil {
			return err
		}
		verdict, err := o.deps.Completion.CheckStepCompletion(ctx, step, post, goal)
		if err != nil {
			if ctx.Err() != nil {
				return stopped(ctx.Err())
			}
			verdict = StepCompletion{IsComplete: ValidateStep(step.Validation, post), Reason: "validation expression"}
			logger.Warn("Completion check failed; using step validation", zap.Error(err), zap.Bool("complete", verdict.IsComplete))
		}

		if verdict.IsComplete {
			logger.Info("Step verified complete", zap.String("reason", verdict.Reason))
			o.record(ctx, logger, RunEvent{RunID: runID, Kind: "step_done", StepID: step.ID, Message: verdict.Reason, Success: true})
			return nil
		}
		logger.Info("Step not complete",
			zap.Int("action", n),
			zap.String("reason", verdict.Reason),
			zap.String("suggestion", verdict.Suggestion))
	}

	logger.Warn("Step did not complete within the action budget; moving on", zap.Int("max_actions", o.cfg.MaxActionsPerStep))
	o.record(ctx, logger, RunEvent{RunID: runID, Kind: "step_abandoned", StepID: step.ID, Message: "action budget exhausted"})
	return nil
}

func (o *Orchestrator) observe(ctx context.Context, logger *zap.Logger, last *ExecutionResult) (Observation, error) {
	obs, err := o.deps.Observer.Observe(ctx, last)
	if err != nil {
		if ctx.Err() != nil {
			return obs, stopped(ctx.Err())
		}
		logger.Warn("Observation failed; continuing with partial state", zap.Error(err))
		if last != nil {
			ok := last.Success
			obs.LastActionSuccess = &ok
			obs.ErrorMessage = last.ErrorMessage
		}
	}
	return obs, nil
}

func (o *Orchestrator) needsConfirmation(action Action, step PlanStep) bool {
	return o.deps.Policy.RequiresConfirmation(action) || step.RequiresConfirmation || step.RiskLevel == RiskHigh
}

func (o *Orchestrator) confirm(ctx context.Context, action Action, step PlanStep) error {
	o.setState(StateWaitingConfirmation)
	ok, err := o.deps.Confirm.RequestConfirmation(ctx, action, step)
	if err != nil {
		if ctx.Err() != nil {
			return stopped(ctx.Err())
		}
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrConfirmationDeclined
	}
	o.setState(StateExecuting)
	return nil
}

func (o *Orchestrator) record(ctx context.Context, logger *zap.Logger, ev RunEvent) {
	if o.deps.Journal == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = o.deps.Clock.Now().UTC()
	}
	if err := o.deps.Journal.RecordEvent(context.WithoutCancel(ctx), ev); err != nil {
		logger.Warn("Failed to journal event", zap.String("kind", ev.Kind), zap.Error(err))
	}
}

func stopped(cause error) error {
	if cause == nil {
		return ErrStopped
	}
	if errors.Is(cause, ErrStopped) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrStopped, cause)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
