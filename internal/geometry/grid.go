// internal/geometry/grid.go
package geometry

import "fmt"

// Grid divides a rectangle into Rows x Cols cells numbered 1..TotalCells in
// row-major order.
type Grid struct {
	Rows int
	Cols int
}

var (
	// ExecutionGrid is the grid cell-addressed actions are resolved against.
	ExecutionGrid = Grid{Rows: 12, Cols: 16}
	// OverlayGrid is the coarser grid used for visual annotation only.
	OverlayGrid = Grid{Rows: 8, Cols: 10}
)

// TotalCells is Rows*Cols.
func (g Grid) TotalCells() int {
	return g.Rows * g.Cols
}

// Validate returns an error if cell is outside 1..TotalCells.
func (g Grid) Validate(cell int) error {
	if cell < 1 || cell > g.TotalCells() {
		return fmt.Errorf("grid cell %d out of range 1..%d", cell, g.TotalCells())
	}
	return nil
}

// RowCol returns the zero-based row and column of a 1-based cell.
func (g Grid) RowCol(cell int) (row, col int, err error) {
	if err := g.Validate(cell); err != nil {
		return 0, 0, err
	}
	idx := cell - 1
	return idx / g.Cols, idx % g.Cols, nil
}

// CellCenter returns the screen point at the centre of cell within r.
func (g Grid) CellCenter(cell int, r Rect) (Point, error) {
	row, col, err := g.RowCol(cell)
	if err != nil {
		return Point{}, err
	}
	cw := float64(r.Width()) / float64(g.Cols)
	ch := float64(r.Height()) / float64(g.Rows)
	return Point{
		X: r.Left + int(float64(col)*cw+cw/2),
		Y: r.Top + int(float64(row)*ch+ch/2),
	}, nil
}

// CellCenterRelative returns the centre of cell as fractions of the rectangle.
func (g Grid) CellCenterRelative(cell int) (rx, ry float64, err error) {
	row, col, err := g.RowCol(cell)
	if err != nil {
		return 0, 0, err
	}
	return (float64(col) + 0.5) / float64(g.Cols), (float64(row) + 0.5) / float64(g.Rows), nil
}

// CellBounds returns the pixel bounds of cell inside a w x h image.
func (g Grid) CellBounds(cell, w, h int) (Rect, error) {
	row, col, err := g.RowCol(cell)
	if err != nil {
		return Rect{}, err
	}
	cw := float64(w) / float64(g.Cols)
	ch := float64(h) / float64(g.Rows)
	return Rect{
		Left:   int(float64(col) * cw),
		Top:    int(float64(row) * ch),
		Right:  int(float64(col+1) * cw),
		Bottom: int(float64(row+1) * ch),
	}, nil
}
