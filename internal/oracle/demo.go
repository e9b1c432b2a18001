// internal/oracle/demo.go
package oracle

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
)

// DemoText is what the demo plan types into Notepad.
const DemoText = "Hello from DeskPilot"

// Demo is a deterministic oracle for running without a model. It knows one
// scripted Notepad goal and otherwise asks the operator to take over.
type Demo struct {
	logger *zap.Logger
	self   agent.SelfSurface
}

var _ agent.Oracle = (*Demo)(nil)

// NewDemo creates the offline oracle.
func NewDemo(logger *zap.Logger, self agent.SelfSurface) *Demo {
	return &Demo{logger: logger.Named("oracle.demo"), self: self}
}

// DemoPlan returns the scripted plan for goal.
func DemoPlan(goal string) *agent.Plan {
	if !strings.Contains(strings.ToLower(goal), "notepad") {
		return &agent.Plan{
			Goal: goal,
			Steps: []agent.PlanStep{{
				ID:                   1,
				Description:          "Unable to auto-generate a plan without an API key.",
				RiskLevel:            agent.RiskHigh,
				RequiresConfirmation: true,
				Validation:           "last_action_success",
			}},
		}
	}
	return &agent.Plan{
		Goal:         goal,
		RequiredApps: []string{"notepad"},
		Steps: []agent.PlanStep{
			{ID: 1, Description: "Open Notepad", RiskLevel: agent.RiskLow, Validation: `active_window_title contains "Notepad"`},
			{ID: 2, Description: "Type the message", RiskLevel: agent.RiskLow, Validation: "last_action_success"},
			{ID: 3, Description: "Save: Press Ctrl+S", RiskLevel: agent.RiskMedium, RequiresConfirmation: true, Validation: "last_action_success"},
			{ID: 4, Description: "Save: Type filename test.txt", RiskLevel: agent.RiskLow, Validation: "last_action_success"},
			{ID: 5, Description: "Save: Press Enter", RiskLevel: agent.RiskMedium, Validation: "last_action_success"},
		},
	}
}

// demoScript maps step wording to a fixed action, first match wins.
var demoScript = []struct {
	phrase string
	action agent.Action
}{
	{"open notepad", agent.Action{
		Type:   agent.ActionFocusWindow,
		Params: agent.FocusWindowParams{Title: "Notepad", Process: "notepad"},
	}},
	{"type the message", agent.Action{
		Type:   agent.ActionTypeText,
		Params: agent.TypeTextParams{Text: DemoText},
	}},
	{"save: press ctrl+s", agent.Action{
		Type:                 agent.ActionHotkey,
		Params:               agent.HotkeyParams{Keys: []string{"CTRL", "S"}},
		RequiresConfirmation: true,
	}},
	{"save: type filename", agent.Action{
		Type:   agent.ActionTypeText,
		Params: agent.TypeTextParams{Text: "test.txt"},
	}},
	{"save: press enter", agent.Action{
		Type:   agent.ActionHotkey,
		Params: agent.HotkeyParams{Keys: []string{"ENTER"}},
	}},
}

// DemoAction returns the scripted action for step, or a confirmed short wait
// when the step is not scripted.
func DemoAction(step agent.PlanStep) (agent.Action, bool) {
	d := strings.ToLower(step.Description)
	for _, s := range demoScript {
		if strings.Contains(d, s.phrase) {
			return s.action, true
		}
	}
	return agent.Action{
		Type:                 agent.ActionWait,
		Params:               agent.WaitParams{Ms: 500},
		RequiresConfirmation: true,
	}, false
}

func (d *Demo) GeneratePlan(_ context.Context, goal string) (*agent.Plan, error) {
	d.logger.Warn("No model configured; using demo plan.", zap.String("goal", goal))
	return DemoPlan(goal), nil
}

func (d *Demo) NextAction(_ context.Context, step agent.PlanStep, obs agent.Observation, _ string, _ *agent.InteractionHistory) (agent.Action, error) {
	if a, ok := focusOverride(step, obs, d.self); ok {
		return a, nil
	}
	if a, ok := sketchAction(step); ok {
		return a, nil
	}
	a, ok := DemoAction(step)
	if !ok {
		d.logger.Warn("No demo action mapping for step", zap.Int("step", step.ID), zap.String("description", step.Description))
	}
	return a, nil
}

// CheckStepCompletion always reports success; the demo cannot look.
func (d *Demo) CheckStepCompletion(context.Context, agent.PlanStep, agent.Observation, string) (agent.StepCompletion, error) {
	return agent.StepCompletion{IsComplete: true, Reason: "No API key for verification"}, nil
}
