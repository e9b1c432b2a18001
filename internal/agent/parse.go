// internal/agent/parse.go
package agent

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoJSONObject is returned when oracle output holds no JSON object.
var ErrNoJSONObject = errors.New("output did not contain a JSON object")

// ExtractJSONObject returns the first balanced {...} object in text,
// tolerating markdown fences and prose around it.
func ExtractJSONObject(text string) (string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", fmt.Errorf("empty output: %w", ErrNoJSONObject)
	}
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated object: %w", ErrNoJSONObject)
}

// ParseAction decodes an oracle response into an Action. Only malformed JSON
// is an error; missing or mistyped parameters are left absent and reported by
// the executor as parameter errors.
func ParseAction(text string) (Action, error) {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return Action{}, err
	}
	var raw map[string]any
	if err := json.UnmarshalFromString(obj, &raw); err != nil {
		return Action{}, fmt.Errorf("failed to decode action: %w", err)
	}

	params, ok := raw["parameters"].(map[string]any)
	if !ok {
		// Some responses flatten parameters into the top-level object.
		params = raw
	}
	return BuildAction(
		ParseActionType(stringField(raw, "action_type")),
		params,
		boolField(raw, "requires_confirmation"),
		stringField(raw, "expected_result"),
	), nil
}

// BuildAction builds the typed variant for t from a loosely typed bag.
// Unknown keys are ignored.
func BuildAction(t ActionType, m map[string]any, requiresConfirmation bool, expected string) Action {
	a := Action{Type: t, RequiresConfirmation: requiresConfirmation, ExpectedResult: expected}
	if m == nil {
		m = map[string]any{}
	}

	switch t {
	case ActionFocusWindow:
		a.Params = FocusWindowParams{Title: stringField(m, "title"), Process: stringField(m, "process")}
	case ActionClickCoordinates:
		a.Params = buildClickCoordinates(m)
	case ActionClickGrid:
		a.Params = ClickGridParams{Cell: intField(m, "cell")}
	case ActionClickAndType:
		a.Params = ClickAndTypeParams{Cell: intField(m, "cell"), Text: stringField(m, "text")}
	case ActionClickUIA:
		a.Params = ClickUIAParams{AutomationID: stringField(m, "automation_id"), Name: stringField(m, "name")}
	case ActionTypeText:
		a.Params = TypeTextParams{
			Text:            stringField(m, "text"),
			UIAAutomationID: stringField(m, "uia_automation_id"),
			UIAName:         stringField(m, "uia_name"),
		}
	case ActionHotkey:
		a.Params = HotkeyParams{Keys: keysField(m, "keys")}
	case ActionWait:
		ms := 0
		if v := intField(m, "ms"); v != nil {
			ms = *v
		}
		a.Params = WaitParams{Ms: ms}
	case ActionNavigateURL:
		a.Params = NavigateURLParams{URL: stringField(m, "url"), Browser: stringField(m, "browser")}
	case ActionScroll:
		a.Params = ScrollParams{Direction: stringField(m, "direction"), Amount: stringField(m, "amount")}
	case ActionRunCommand:
		a.Params = RunCommandParams{
			Command:   stringField(m, "command"),
			Shell:     stringField(m, "shell"),
			TimeoutMs: intField(m, "timeout_ms"),
		}
	case ActionWinRun:
		a.Params = WinRunParams{Command: stringField(m, "command")}
	case ActionClickText:
		idx := 0
		if v := intField(m, "index"); v != nil {
			idx = *v
		}
		a.Params = ClickTextParams{Text: stringField(m, "text"), Index: idx}
	}
	return a
}

func buildClickCoordinates(m map[string]any) ClickCoordinatesParams {
	p := ClickCoordinatesParams{
		At:          pointSpec(m, ""),
		To:          pointSpec(m, "to_"),
		DragSteps:   intField(m, "drag_steps"),
		DragDelayMs: intField(m, "drag_delay_ms"),
		MoveDelayMs: intField(m, "move_delay_ms"),
	}
	if raw, ok := m["path"].([]any); ok {
		p.HasPath = true
		for _, el := range raw {
			pm, ok := el.(map[string]any)
			if !ok {
				continue
			}
			spec := pointSpec(pm, "")
			spec.Lift = boolField(pm, "lift")
			p.Path = append(p.Path, spec)
		}
	}
	return p
}

func pointSpec(m map[string]any, prefix string) geometry.PointSpec {
	return geometry.PointSpec{
		MRX: floatField(m, prefix+"mrx"),
		MRY: floatField(m, prefix+"mry"),
		RX:  floatField(m, prefix+"rx"),
		RY:  floatField(m, prefix+"ry"),
		X:   floatField(m, prefix+"x"),
		Y:   floatField(m, prefix+"y"),
	}
}

// -- lenient field readers --

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func floatField(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &f
		}
	}
	return nil
}

func intField(m map[string]any, key string) *int {
	f := floatField(m, key)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func boolField(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// keysField accepts ["CTRL","S"] or "CTRL+S".
func keysField(m map[string]any, key string) []string {
	var out []string
	switch v := m[key].(type) {
	case []any:
		for _, k := range v {
			if s, ok := k.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		for _, k := range strings.Split(v, "+") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

// -- plans and verdicts --

type planDTO struct {
	Goal                string        `json:"goal"`
	ClarifyingQuestions []string      `json:"clarifying_questions"`
	RequiredApps        []string      `json:"required_apps"`
	Steps               []planStepDTO `json:"steps"`
}

type planStepDTO struct {
	ID                   int    `json:"id"`
	Description          string `json:"description"`
	RiskLevel            string `json:"risk_level"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Validation           string `json:"validation"`
}

// ParsePlan decodes a planning oracle response. goal fills in a missing
// goal field.
func ParsePlan(text, goal string) (*Plan, error) {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}
	var dto planDTO
	if err := json.UnmarshalFromString(obj, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	if len(dto.Steps) == 0 {
		return nil, ErrEmptyPlan
	}

	plan := &Plan{
		Goal:                firstNonEmpty(dto.Goal, goal),
		ClarifyingQuestions: dto.ClarifyingQuestions,
		RequiredApps:        dto.RequiredApps,
		Steps:               make([]PlanStep, 0, len(dto.Steps)),
	}
	for _, s := range dto.Steps {
		plan.Steps = append(plan.Steps, PlanStep{
			ID:                   s.ID,
			Description:          s.Description,
			RiskLevel:            ParseRisk(s.RiskLevel),
			RequiresConfirmation: s.RequiresConfirmation,
			Validation:           s.Validation,
		})
	}
	return plan, nil
}

// ParseCompletion decodes a completion verdict. Unparseable output counts as
// not complete.
func ParseCompletion(text string) StepCompletion {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return StepCompletion{Reason: "failed to parse verification response"}
	}
	var raw map[string]any
	if err := json.UnmarshalFromString(obj, &raw); err != nil {
		return StepCompletion{Reason: "failed to parse verification response"}
	}
	return StepCompletion{
		IsComplete: raw["is_complete"] == true,
		Reason:     stringField(raw, "reason"),
		Suggestion: stringField(raw, "suggested_next_action"),
	}
}
