// internal/observation/overlay.go
package observation

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// OverlayMode selects which grid, if any, is drawn over a capture.
type OverlayMode string

const (
	OverlayExecution OverlayMode = "execution"
	OverlayCoarse    OverlayMode = "coarse"
	OverlayNone      OverlayMode = "none"
)

// Grid returns the grid drawn for the mode.
func (m OverlayMode) Grid() (geometry.Grid, bool) {
	switch m {
	case OverlayExecution:
		return geometry.ExecutionGrid, true
	case OverlayCoarse:
		return geometry.OverlayGrid, true
	default:
		return geometry.Grid{}, false
	}
}

var (
	gridLine   = color.NRGBA{R: 0xFF, A: 0xB4}
	labelText  = color.NRGBA{R: 0xFF, G: 0xFF, A: 0xDC}
	labelPanel = color.NRGBA{A: 0x8C}
)

// DrawGrid draws the cell lines of g over img and labels each cell with its
// number at the cell centre, matching the numbering actions address.
func DrawGrid(img draw.Image, g geometry.Grid) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || g.Rows <= 0 || g.Cols <= 0 {
		return
	}
	line := image.NewUniform(gridLine)

	for row := 0; row <= g.Rows; row++ {
		y := b.Min.Y + min(row*h/g.Rows, h-1)
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), line, image.Point{}, draw.Over)
	}
	for col := 0; col <= g.Cols; col++ {
		x := b.Min.X + min(col*w/g.Cols, w-1)
		draw.Draw(img, image.Rect(x, b.Min.Y, x+1, b.Max.Y), line, image.Point{}, draw.Over)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(labelText), Face: face}
	panel := image.NewUniform(labelPanel)
	for cell := 1; cell <= g.TotalCells(); cell++ {
		cb, err := g.CellBounds(cell, w, h)
		if err != nil {
			continue
		}
		label := strconv.Itoa(cell)
		tw := d.MeasureString(label).Ceil()
		th := face.Metrics().Height.Ceil()
		c := cb.Center()
		x, y := b.Min.X+c.X-tw/2, b.Min.Y+c.Y-th/2

		draw.Draw(img, image.Rect(x-1, y-1, x+tw+1, y+th+1), panel, image.Point{}, draw.Over)
		d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
		d.DrawString(label)
	}
}
