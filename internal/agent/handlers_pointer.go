// internal/agent/handlers_pointer.go
package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
	"github.com/xkilldash9x/deskpilot/internal/humanoid"
)

const (
	clickSettle     = 100 * time.Millisecond
	quadClickSettle = 150 * time.Millisecond
	typeSettle      = 300 * time.Millisecond
	scrollSettle    = 300 * time.Millisecond
)

func (e *Executor) handleClickCoordinates(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[ClickCoordinatesParams](action)
	if err != nil {
		return "", err
	}
	if p.HasPath {
		return e.tracePath(p)
	}

	var rect *geometry.Rect
	if p.At.NeedsRect() || (p.IsDrag() && p.To.NeedsRect()) {
		r, err := e.foregroundRect()
		if err != nil {
			return "", err
		}
		rect = &r
	}

	from, err := geometry.Resolve(p.At, rect)
	if err != nil {
		return "", invalidParams("click_coordinates needs x/y, rx/ry or mrx/mry: %v", err)
	}

	if !p.IsDrag() {
		e.human.Click(from)
		e.pause(ctx, clickSettle)
		return "Clicked at " + formatPoint(from), nil
	}

	to, err := geometry.Resolve(p.To, rect)
	if err != nil {
		return "", invalidParams("drag destination is not resolvable: %v", err)
	}
	steps := geometry.ClampDragSteps(p.DragSteps)
	delay := time.Duration(geometry.ClampDragDelay(p.DragDelayMs)) * time.Millisecond
	e.human.Drag(from, to, steps, delay)
	return fmt.Sprintf("Dragged from %s to %s in %d steps", formatPoint(from), formatPoint(to), steps), nil
}

func (e *Executor) tracePath(p ClickCoordinatesParams) (string, error) {
	var rect *geometry.Rect
	for _, spec := range p.Path {
		if spec.NeedsRect() {
			r, err := e.foregroundRect()
			if err != nil {
				return "", err
			}
			rect = &r
			break
		}
	}

	points := make([]humanoid.StrokePoint, 0, len(p.Path))
	for _, spec := range p.Path {
		pt, err := geometry.Resolve(spec, rect)
		if err != nil {
			continue
		}
		points = append(points, humanoid.StrokePoint{Point: pt, Lift: spec.Lift})
	}
	if len(points) == 0 {
		return "", invalidParams("no point resolved")
	}

	delay := time.Duration(geometry.MoveDelay(p.MoveDelayMs)) * time.Millisecond
	strokes := e.human.Trace(points, delay)
	if dropped := len(p.Path) - len(points); dropped > 0 {
		e.logger.Debug("Dropped unresolvable path points", zap.Int("dropped", dropped))
	}
	return fmt.Sprintf("Traced %d points in %d strokes", len(points), strokes), nil
}

// gridTarget validates cell and maps it to a screen point.
func (e *Executor) gridTarget(cell *int) (geometry.Point, string, error) {
	if cell == nil {
		return geometry.Point{}, "", invalidParams("missing grid cell")
	}
	if err := e.grid.Validate(*cell); err != nil {
		return geometry.Point{}, "", invalidParams("invalid grid cell: %v", err)
	}
	rect, err := e.foregroundRect()
	if err != nil {
		return geometry.Point{}, "", err
	}
	pt, err := e.grid.CellCenter(*cell, rect)
	if err != nil {
		return geometry.Point{}, "", invalidParams("%v", err)
	}
	row, col, _ := e.grid.RowCol(*cell)
	info := fmt.Sprintf("row %d/%d, col %d/%d", row+1, e.grid.Rows, col+1, e.grid.Cols)
	return pt, info, nil
}

func (e *Executor) handleClickGrid(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[ClickGridParams](action)
	if err != nil {
		return "", err
	}
	pt, info, err := e.gridTarget(p.Cell)
	if err != nil {
		return "", err
	}
	e.human.Click(pt)
	e.pause(ctx, clickSettle)
	return fmt.Sprintf("Clicked cell %d (%s) at %s", *p.Cell, info, formatPoint(pt)), nil
}

func (e *Executor) handleClickAndType(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[ClickAndTypeParams](action)
	if err != nil {
		return "", err
	}
	pt, info, err := e.gridTarget(p.Cell)
	if err != nil {
		return "", err
	}
	// A quadruple click selects everything; the typed text replaces it.
	e.human.MultiClick(pt, 4)
	e.pause(ctx, quadClickSettle)
	e.human.Type(p.Text)
	e.pause(ctx, typeSettle)
	return fmt.Sprintf("Typed %q in cell %d (%s) at %s", p.Text, *p.Cell, info, formatPoint(pt)), nil
}

func (e *Executor) handleScroll(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[ScrollParams](action)
	if err != nil {
		return "", err
	}
	delta := humanoid.ScrollDelta(p.Direction, p.Amount)
	e.human.Scroll(delta)
	e.pause(ctx, scrollSettle)
	return fmt.Sprintf("Scrolled by %d", delta), nil
}

func (e *Executor) handleClickText(ctx context.Context, action Action) (string, error) {
	p, err := paramsOf[ClickTextParams](action)
	if err != nil {
		return "", err
	}
	if p.Text == "" {
		return "", invalidParams("no text specified for click_text")
	}
	if e.text == nil {
		return "", newActionError(ErrCodeEnvironment, "text location is not available on this platform")
	}
	rect, err := e.foregroundRect()
	if err != nil {
		return "", err
	}

	matches, err := e.text.FindText(ctx, rect, p.Text)
	if err != nil {
		return "", fmt.Errorf("text search for %q failed: %w", p.Text, err)
	}
	if len(matches) == 0 {
		return "", newActionError(ErrCodeTextNotFound, "text %q not found on screen", p.Text)
	}
	RankMatches(matches)

	idx := p.Index
	if idx < 0 || idx >= len(matches) {
		idx = 0
	}
	m := matches[idx]
	center := m.Bounds.Center()
	e.human.Click(center)
	e.pause(ctx, clickSettle)
	return fmt.Sprintf("Clicked on %q at %s", m.Text, formatPoint(center)), nil
}

// RankMatches orders matches by confidence descending, then top-to-bottom,
// then left-to-right.
func RankMatches(matches []TextMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Bounds.Top != b.Bounds.Top {
			return a.Bounds.Top < b.Bounds.Top
		}
		return a.Bounds.Left < b.Bounds.Left
	})
}
