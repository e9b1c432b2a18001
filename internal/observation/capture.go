// internal/observation/capture.go
package observation

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// Capturer grabs the pixels of a screen rectangle.
type Capturer interface {
	Capture(ctx context.Context, area geometry.Rect) (image.Image, error)
}

// SolidCapturer returns a uniformly filled image of the requested size. Dry
// runs use it so the overlay and encoding path still runs.
type SolidCapturer struct {
	Fill color.Color
}

// Capture implements Capturer.
func (s SolidCapturer) Capture(_ context.Context, area geometry.Rect) (image.Image, error) {
	fill := s.Fill
	if fill == nil {
		fill = color.Gray{Y: 0xE0}
	}
	img := image.NewRGBA(image.Rect(0, 0, area.Width(), area.Height()))
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	return img, nil
}
