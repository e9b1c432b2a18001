// internal/agent/params.go
package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// ActionParams is the parameter variant carried by an Action. Each action
// type has exactly one variant; optional fields are pointers or empty values.
type ActionParams interface {
	// Salient renders the parameter that distinguishes one action of this
	// type from another, for repetition detection.
	Salient() string
}

type FocusWindowParams struct {
	Title   string
	Process string
}

func (p FocusWindowParams) Salient() string { return firstNonEmpty(p.Process, p.Title) }

// ClickCoordinatesParams covers single clicks, drags and multi-stroke paths.
// HasPath selects path mode even when Path is empty.
type ClickCoordinatesParams struct {
	At          geometry.PointSpec
	To          geometry.PointSpec
	DragSteps   *int
	DragDelayMs *int

	HasPath     bool
	Path        []geometry.PointSpec
	MoveDelayMs *int
}

// IsDrag reports whether a destination point was supplied.
func (p ClickCoordinatesParams) IsDrag() bool {
	return !p.HasPath && p.To.Mode() != geometry.ModeNone
}

func (p ClickCoordinatesParams) Salient() string {
	if p.HasPath {
		return fmt.Sprintf("path[%d]", len(p.Path))
	}
	s := formatSpec(p.At)
	if p.IsDrag() {
		s += "->" + formatSpec(p.To)
	}
	return s
}

type ClickGridParams struct {
	Cell *int
}

func (p ClickGridParams) Salient() string { return formatCell(p.Cell) }

type ClickAndTypeParams struct {
	Cell *int
	Text string
}

func (p ClickAndTypeParams) Salient() string { return p.Text }

type ClickUIAParams struct {
	AutomationID string
	Name         string
}

func (p ClickUIAParams) Salient() string { return firstNonEmpty(p.AutomationID, p.Name) }

// TypeTextParams optionally names an accessibility element to check and focus
// before typing.
type TypeTextParams struct {
	Text            string
	UIAAutomationID string
	UIAName         string
}

func (p TypeTextParams) Salient() string { return p.Text }

type HotkeyParams struct {
	Keys []string
}

func (p HotkeyParams) Salient() string { return strings.ToUpper(strings.Join(p.Keys, "+")) }

type WaitParams struct {
	Ms int
}

func (p WaitParams) Salient() string { return strconv.Itoa(p.Ms) }

type NavigateURLParams struct {
	URL     string
	Browser string
}

func (p NavigateURLParams) Salient() string { return p.URL }

type ScrollParams struct {
	Direction string
	Amount    string
}

func (p ScrollParams) Salient() string { return p.Direction + " " + p.Amount }

// RunCommandParams runs Command through Shell; an empty Shell uses the
// platform default. TimeoutMs overrides the configured bounded wait.
type RunCommandParams struct {
	Command   string
	Shell     string
	TimeoutMs *int
}

func (p RunCommandParams) Salient() string { return p.Command }

type WinRunParams struct {
	Command string
}

func (p WinRunParams) Salient() string { return p.Command }

// ClickTextParams selects the Index-th OCR match for Text.
type ClickTextParams struct {
	Text  string
	Index int
}

func (p ClickTextParams) Salient() string { return p.Text }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func formatCell(cell *int) string {
	if cell == nil {
		return "?"
	}
	return strconv.Itoa(*cell)
}

func formatSpec(s geometry.PointSpec) string {
	f := func(v *float64) string { return strconv.FormatFloat(*v, 'g', 4, 64) }
	switch s.Mode() {
	case geometry.ModeSquare:
		return "mrx=" + f(s.MRX) + ",mry=" + f(s.MRY)
	case geometry.ModeRelative:
		return "rx=" + f(s.RX) + ",ry=" + f(s.RY)
	case geometry.ModeAbsolute:
		return "x=" + f(s.X) + ",y=" + f(s.Y)
	default:
		return "?"
	}
}
