package humanoid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// setup returns a Humanoid over a Recorder and a slice collecting every pause.
func setup(t *testing.T) (*Humanoid, *Recorder, *[]time.Duration) {
	t.Helper()
	rec := &Recorder{}
	var pauses []time.Duration
	h := New(rec, zap.NewNop(), WithSleep(func(d time.Duration) { pauses = append(pauses, d) }))
	return h, rec, &pauses
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestClick(t *testing.T) {
	h, rec, _ := setup(t)
	h.Click(geometry.Point{X: 10, Y: 20})

	events := rec.Events()
	assert.Equal(t, []EventKind{EventMove, EventDown, EventUp}, kinds(events))
	assert.Equal(t, 10, events[0].X)
	assert.Equal(t, 20, events[0].Y)
	assert.Equal(t, geometry.Point{X: 10, Y: 20}, h.Position())
}

func TestMultiClickQuadruple(t *testing.T) {
	h, rec, pauses := setup(t)
	h.MultiClick(geometry.Point{X: 1, Y: 1}, 4)

	assert.Equal(t, 4, rec.Count(EventDown))
	assert.Equal(t, 4, rec.Count(EventUp))
	assert.Equal(t, 1, rec.Count(EventMove))
	assert.Len(t, *pauses, 3, "a gap between each pair of clicks")
}

func TestDragProducesExactIntermediateMoves(t *testing.T) {
	from := geometry.Point{X: 100, Y: 100}
	to := geometry.Point{X: 300, Y: 160}

	for _, steps := range []int{1, 5, 24, 200} {
		h, rec, pauses := setup(t)
		h.Drag(from, to, steps, 5*time.Millisecond)

		events := rec.Events()
		require.Equal(t, EventMove, events[0].Kind)
		require.Equal(t, EventDown, events[1].Kind)
		require.Equal(t, EventUp, events[len(events)-1].Kind)

		intermediate := events[2 : len(events)-1]
		require.Len(t, intermediate, steps)
		for _, e := range intermediate {
			assert.Equal(t, EventMove, e.Kind)
		}
		last := intermediate[len(intermediate)-1]
		assert.Equal(t, to, geometry.Point{X: last.X, Y: last.Y})

		stepPauses := 0
		for _, p := range *pauses {
			if p == 5*time.Millisecond {
				stepPauses++
			}
		}
		assert.Equal(t, steps, stepPauses)
	}
}

func TestTraceStrokes(t *testing.T) {
	h, rec, _ := setup(t)

	pts := []StrokePoint{
		{Point: geometry.Point{X: 0, Y: 0}},
		{Point: geometry.Point{X: 1, Y: 0}},
		{Point: geometry.Point{X: 2, Y: 0}},
		{Point: geometry.Point{X: 10, Y: 10}, Lift: true},
		{Point: geometry.Point{X: 11, Y: 10}},
	}
	strokes := h.Trace(pts, 3*time.Millisecond)

	assert.Equal(t, 2, strokes)
	assert.Equal(t, []EventKind{
		EventMove, EventDown, EventMove, EventMove,
		EventUp, EventMove, EventDown, EventMove,
		EventUp,
	}, kinds(rec.Events()))
}

func TestTraceLiftOnFirstPointIsHarmless(t *testing.T) {
	h, rec, _ := setup(t)
	strokes := h.Trace([]StrokePoint{{Point: geometry.Point{X: 5, Y: 5}, Lift: true}}, 0)

	assert.Equal(t, 1, strokes)
	assert.Equal(t, []EventKind{EventMove, EventDown, EventUp}, kinds(rec.Events()))
}

func TestChordReleasesInReverse(t *testing.T) {
	h, rec, _ := setup(t)
	h.Chord(VKControl, VKShift, 'S')

	events := rec.Events()
	require.Len(t, events, 6)
	assert.Equal(t, []uint16{VKControl, VKShift, 'S', 'S', VKShift, VKControl},
		[]uint16{events[0].Key, events[1].Key, events[2].Key, events[3].Key, events[4].Key, events[5].Key})
	assert.Equal(t, []EventKind{EventKeyDown, EventKeyDown, EventKeyDown, EventKeyUp, EventKeyUp, EventKeyUp}, kinds(events))
}

func TestLookupKey(t *testing.T) {
	cases := map[string]uint16{
		"win": VKLWin, "LWIN": VKLWin, "rwin": VKRWin,
		"ctrl": VKControl, "Control": VKControl, "alt": VKMenu,
		"enter": VKReturn, "RETURN": VKReturn, "esc": VKEscape,
		"a": 'A', "Z": 'Z', "7": '7', "f5": VKF1 + 4, "F12": VKF1 + 11,
	}
	for name, want := range cases {
		got, ok := LookupKey(name)
		assert.Truef(t, ok, "expected %q to resolve", name)
		assert.Equalf(t, want, got, "key %q", name)
	}

	for _, bad := range []string{"", "HYPER", "F13", "ab", "!"} {
		_, ok := LookupKey(bad)
		assert.Falsef(t, ok, "expected %q to be unknown", bad)
	}
}

func TestResolveKeysDropsUnknown(t *testing.T) {
	codes, unknown := ResolveKeys([]string{"CTRL", "BOGUS", "S"})
	assert.Equal(t, []uint16{VKControl, 'S'}, codes)
	assert.Equal(t, []string{"BOGUS"}, unknown)

	assert.True(t, IsWindowsKey("win"))
	assert.False(t, IsWindowsKey("alt"))
}

func TestScrollDelta(t *testing.T) {
	assert.Equal(t, 500, ScrollDelta("up", "page"))
	assert.Equal(t, -500, ScrollDelta("down", "PAGE"))
	assert.Equal(t, 120, ScrollDelta("UP", "120"))
	assert.Equal(t, -300, ScrollDelta("down", "lots"))
	assert.Equal(t, -300, ScrollDelta("", ""))
	assert.Equal(t, -100, ScrollDelta("up", "-100"))
	assert.Equal(t, 100, ScrollDelta("down", " -100 "))
}
