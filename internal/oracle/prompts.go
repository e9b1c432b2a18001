// internal/oracle/prompts.go
package oracle

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/deskpilot/internal/agent"
)

const plannerSystem = `You plan desktop automation for an agent that can only see the screen and send mouse and keyboard input on Windows.
Reply with one JSON object and nothing else.`

const planPromptTemplate = `Break this goal into a detailed, ordered execution plan: %s

Rules:
- Prefer many small atomic steps; ten to twenty is normal.
- Each step performs exactly one thing.
- Put an explicit focus or click step before any typing.
- Name exactly what to click, where to type and which keys to press.

Useful step shapes:
- "Open <app> using Win+R"
- "Focus on <app> window"
- "Click on <exact text or button>"
- "Type '<exact text>'"
- "Press <keys>", for example Ctrl+S, Enter or Tab
- "Wait for <condition>"
- "Navigate to <url>"

Respond with JSON of this shape:
{"goal": string, "clarifying_questions": [string], "required_apps": [string],
 "steps": [{"id": int, "description": string, "risk_level": "low"|"medium"|"high",
            "requires_confirmation": bool, "validation": string}]}

validation is either "last_action_success" or active_window_title contains "<text>".
Mark steps that delete, send, purchase or overwrite as high risk.`

const actionSystem = `You drive a Windows desktop one action at a time for an automation agent.
Reply with STRICT JSON only: {"action_type": string, "parameters": object, "requires_confirmation": bool, "expected_result": string}.`

const actionPromptTemplate = `Overall goal: %s

Current step %d: %s
Finish ONLY this step. Do not jump ahead to later steps.

Actions taken so far in this step:
%s

Current observation:
%s

The screenshot is attached. A red grid of %d columns by %d rows is drawn over the window; cells are numbered 1 to %d, left to right then top to bottom.

Choose the single best next action. Ranked from most to least reliable:
1. win_run {"command": "notepad"}: open an application through the Run dialog.
2. click_text {"text": "Save", "index": 0}: click visible text found by OCR.
3. hotkey {"keys": ["CTRL", "S"]}: keyboard shortcut.
4. type_text {"text": "..."}: type into the focused control.
5. focus_window {"process": "notepad", "title": "Notepad"}: bring a window to front.
6. click_grid {"cell": 42}: click the center of a grid cell.
7. navigate_url {"url": "https://...", "browser": "firefox"}: open a page.
8. scroll {"direction": "down", "amount": "page"}.
9. wait {"ms": 1000}.
10. run_command {"command": "...", "shell": "powershell"}: last resort.
Also available: click_coordinates with x/y, rx/ry (0..1 of the window) or a "path" of points, click_and_type {"cell", "text"}, click_uia {"automation_id" or "name"}.

Guidance:
- In a browser, the address bar and tabs are browser chrome; page content is below it.
- If the step is already satisfied on screen, answer {"action_type": "done", "parameters": {}}.
- Do not repeat an action that already failed; try a different approach.
- Ignore popups, ads and anything unrelated to the step.`

const completionSystem = `You verify whether one step of a desktop automation plan is finished.
Be generous: if the screen is consistent with the step having succeeded, call it complete.
Reply with JSON only: {"is_complete": bool, "reason": string, "suggested_next_action": string}.`

const completionPromptTemplate = `Overall goal: %s

Step %d: %s
Expected validation: %s

Observation after the last action:
%s`

func planPrompt(goal string) string {
	return fmt.Sprintf(planPromptTemplate, goal)
}

func actionPrompt(goal string, step agent.PlanStep, obsJSON string, history *agent.InteractionHistory, cols, rows int) string {
	recent := "(none)"
	if history != nil && history.Len() > 0 {
		recent = strings.TrimRight(history.Summary(), "\n")
	}
	return fmt.Sprintf(actionPromptTemplate,
		orDefault(goal, "(not given)"), step.ID, step.Description,
		recent, obsJSON, cols, rows, cols*rows)
}

func completionPrompt(goal string, step agent.PlanStep, obsJSON string) string {
	return fmt.Sprintf(completionPromptTemplate,
		orDefault(goal, "(not given)"), step.ID, step.Description,
		orDefault(step.Validation, "last_action_success"), obsJSON)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
