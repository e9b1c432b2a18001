// internal/oracle/model.go
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/geometry"
	"github.com/xkilldash9x/deskpilot/internal/observation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Model is the oracle backed by a generative model. Action proposals see the
// screenshot; plans and completion verdicts see text only.
type Model struct {
	gen         Generator
	logger      *zap.Logger
	self        agent.SelfSurface
	temperature float32
	grid        geometry.Grid
}

var _ agent.Oracle = (*Model)(nil)

// NewModel wraps gen as an oracle.
func NewModel(logger *zap.Logger, gen Generator, self agent.SelfSurface, temperature float32) *Model {
	return &Model{
		gen:         gen,
		logger:      logger.Named("oracle"),
		self:        self,
		temperature: temperature,
		grid:        geometry.ExecutionGrid,
	}
}

// GeneratePlan asks the model for a step list.
func (m *Model) GeneratePlan(ctx context.Context, goal string) (*agent.Plan, error) {
	text, err := m.gen.Generate(ctx, Request{
		System:      plannerSystem,
		Prompt:      planPrompt(goal),
		Temperature: m.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}
	plan, err := agent.ParsePlan(text, goal)
	if err != nil {
		return nil, fmt.Errorf("plan response unusable: %w", err)
	}
	m.logger.Info("Plan generated", zap.String("goal", goal), zap.Int("steps", len(plan.Steps)))
	return plan, nil
}

// NextAction proposes the next action. Refocusing away from our own window
// and Paint sketches are answered without the model. A failed model call
// falls back to the scripted demo action rather than failing the run.
func (m *Model) NextAction(ctx context.Context, step agent.PlanStep, obs agent.Observation, goal string, history *agent.InteractionHistory) (agent.Action, error) {
	if a, ok := focusOverride(step, obs, m.self); ok {
		m.logger.Debug("Proposing focus override", zap.String("target", a.Params.Salient()))
		return a, nil
	}
	if a, ok := sketchAction(step); ok {
		return a, nil
	}

	req := Request{
		System:      actionSystem,
		Prompt:      actionPrompt(goal, step, observationJSON(obs), history, m.grid.Cols, m.grid.Rows),
		Temperature: m.temperature,
		JSON:        true,
	}
	if obs.Screenshot != "" {
		img, err := observation.DecodeDataURL(obs.Screenshot)
		if err != nil {
			m.logger.Warn("Dropping undecodable screenshot", zap.Error(err))
		} else {
			req.Image = img
		}
	}

	text, err := m.gen.Generate(ctx, req)
	if err == nil {
		var a agent.Action
		if a, err = agent.ParseAction(text); err == nil {
			return a, nil
		}
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return agent.Action{}, err
	}
	m.logger.Error("Action generation failed; falling back to scripted action", zap.Int("step", step.ID), zap.Error(err))
	a, _ := DemoAction(step)
	return a, nil
}

// CheckStepCompletion asks the model whether the step is done. Errors are
// returned so the caller can fall back to the step's validation expression.
func (m *Model) CheckStepCompletion(ctx context.Context, step agent.PlanStep, obs agent.Observation, goal string) (agent.StepCompletion, error) {
	text, err := m.gen.Generate(ctx, Request{
		System:      completionSystem,
		Prompt:      completionPrompt(goal, step, observationJSON(obs)),
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return agent.StepCompletion{}, fmt.Errorf("completion check failed: %w", err)
	}
	verdict := agent.ParseCompletion(text)
	m.logger.Debug("Completion verdict",
		zap.Int("step", step.ID),
		zap.Bool("complete", verdict.IsComplete),
		zap.String("reason", verdict.Reason),
	)
	return verdict, nil
}

// observationJSON renders obs without its screenshot, which travels as an
// image part instead.
func observationJSON(obs agent.Observation) string {
	b, err := json.MarshalIndent(obs, "", "  ")
	if err != nil {
		return "{}"
	}
	return strings.TrimSpace(string(b))
}
