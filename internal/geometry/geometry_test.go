package geometry

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectDimensionsNeverZero(t *testing.T) {
	r := Rect{Left: 10, Top: 10, Right: 10, Bottom: 5}
	assert.Equal(t, 1, r.Width())
	assert.Equal(t, 1, r.Height())
}

func TestResolveRelativeStaysInsideRect(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		left, top := rng.Intn(3000)-1000, rng.Intn(3000)-1000
		r := Rect{Left: left, Top: top, Right: left + 1 + rng.Intn(2000), Bottom: top + 1 + rng.Intn(2000)}
		rx, ry := rng.Float64(), rng.Float64()
		if i%50 == 0 {
			rx, ry = 1, 1
		}
		p := ResolveRelative(rx, ry, r)
		require.Truef(t, r.Contains(p), "point %s outside %s for (%f,%f)", p, r, rx, ry)
	}
}

func TestResolveSquareClampsBeforeScaling(t *testing.T) {
	r := Rect{Left: 100, Top: 50, Right: 900, Bottom: 450}

	assert.Equal(t, ResolveSquare(0, 0.3, r), ResolveSquare(-0.5, 0.3, r))
	assert.Equal(t, ResolveSquare(1, 0.3, r), ResolveSquare(7, 0.3, r))
	assert.Equal(t, ResolveSquare(0.2, 0, r), ResolveSquare(0.2, -3, r))
}

func TestResolveSquareIsCentred(t *testing.T) {
	// 800x400 → 400px square offset 200px from the left edge.
	r := Rect{Left: 100, Top: 50, Right: 900, Bottom: 450}

	assert.Equal(t, Point{X: 300, Y: 50}, ResolveSquare(0, 0, r))
	assert.Equal(t, Point{X: 500, Y: 250}, ResolveSquare(0.5, 0.5, r))
	assert.Equal(t, Point{X: 700, Y: 450}, ResolveSquare(1, 1, r))
}

func TestResolvePriority(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 1000, Bottom: 500}

	t.Run("square wins over relative and absolute", func(t *testing.T) {
		spec := PointSpec{MRX: Float(0), MRY: Float(0), RX: Float(1), RY: Float(1), X: Float(5), Y: Float(5)}
		p, err := Resolve(spec, &r)
		require.NoError(t, err)
		assert.Equal(t, Point{X: 250, Y: 0}, p)
	})

	t.Run("relative wins over absolute", func(t *testing.T) {
		spec := PointSpec{RX: Float(0.5), RY: Float(0.5), X: Float(5), Y: Float(5)}
		p, err := Resolve(spec, &r)
		require.NoError(t, err)
		assert.Equal(t, Point{X: 500, Y: 250}, p)
	})

	t.Run("half pair falls through to next mode", func(t *testing.T) {
		spec := PointSpec{RX: Float(0.5), X: Float(5), Y: Float(7)}
		p, err := Resolve(spec, nil)
		require.NoError(t, err)
		assert.Equal(t, Point{X: 5, Y: 7}, p)
	})

	t.Run("absolute needs no rect", func(t *testing.T) {
		p, err := Resolve(Abs(12, 34), nil)
		require.NoError(t, err)
		assert.Equal(t, Point{X: 12, Y: 34}, p)
	})

	t.Run("relative without rect fails", func(t *testing.T) {
		_, err := Resolve(Rel(0.5, 0.5), nil)
		assert.ErrorIs(t, err, ErrNoRect)
	})

	t.Run("empty spec fails", func(t *testing.T) {
		_, err := Resolve(PointSpec{}, &r)
		assert.ErrorIs(t, err, ErrUnresolvable)
	})
}

func TestExecutionGridCells(t *testing.T) {
	g := ExecutionGrid
	r := Rect{Left: 0, Top: 0, Right: 1600, Bottom: 1200}
	require.Equal(t, 192, g.TotalCells())

	first, err := g.CellCenter(1, r)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 50, Y: 50}, first)

	last, err := g.CellCenter(g.TotalCells(), r)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1550, Y: 1150}, last)

	_, err = g.CellCenter(0, r)
	assert.Error(t, err)
	_, err = g.CellCenter(g.TotalCells()+1, r)
	assert.Error(t, err)

	// cell 17 is the first cell of the second row
	second, err := g.CellCenter(17, r)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 50, Y: 150}, second)
}

func TestOverlayGridValidatesIndependently(t *testing.T) {
	g := OverlayGrid
	require.Equal(t, 80, g.TotalCells())

	_, _, err := g.CellCenterRelative(81)
	assert.Error(t, err, "cell valid on the execution grid must still be rejected on the overlay grid")

	rx, ry, err := g.CellCenterRelative(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, rx, 1e-9)
	assert.InDelta(t, 0.0625, ry, 1e-9)
}

func TestInterpolateEndsAtDestination(t *testing.T) {
	from, to := Point{X: 0, Y: 0}, Point{X: 100, Y: -40}

	for _, steps := range []int{1, 2, 7, 24, 200} {
		pts := Interpolate(from, to, steps)
		require.Len(t, pts, steps)
		assert.Equal(t, to, pts[len(pts)-1])
	}

	want := []Point{{X: 25, Y: -10}, {X: 50, Y: -20}, {X: 75, Y: -30}, {X: 100, Y: -40}}
	if diff := cmp.Diff(want, Interpolate(from, to, 4)); diff != "" {
		t.Errorf("Interpolate mismatch (-want +got):\n%s", diff)
	}
}

func TestDragParameterDefaults(t *testing.T) {
	iptr := func(v int) *int { return &v }

	assert.Equal(t, DefaultDragSteps, ClampDragSteps(nil))
	assert.Equal(t, DefaultDragSteps, ClampDragSteps(iptr(0)))
	assert.Equal(t, DefaultDragSteps, ClampDragSteps(iptr(-4)))
	assert.Equal(t, MaxDragSteps, ClampDragSteps(iptr(5000)))
	assert.Equal(t, 1, ClampDragSteps(iptr(1)))

	assert.Equal(t, DefaultDragDelayMs, ClampDragDelay(nil))
	assert.Equal(t, DefaultDragDelayMs, ClampDragDelay(iptr(0)))
	assert.Equal(t, MaxDragDelayMs, ClampDragDelay(iptr(999)))

	assert.Equal(t, DefaultMoveDelayMs, MoveDelay(nil))
	assert.Equal(t, 9, MoveDelay(iptr(9)))
}
