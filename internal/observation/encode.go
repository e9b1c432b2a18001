// internal/observation/encode.go
package observation

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// DataURLPrefix starts every screenshot the provider emits.
const DataURLPrefix = "data:image/jpeg;base64,"

// clampQuality bounds JPEG quality to a range models read reliably.
func clampQuality(q int) int {
	return min(max(q, 30), 90)
}

// Downscale returns src scaled to at most maxWidth pixels wide, preserving
// aspect ratio. The result is always a fresh RGBA image safe to draw on.
func Downscale(src image.Image, maxWidth int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = max(1, int(float64(h)*float64(maxWidth)/float64(w)+0.5))
		w = maxWidth
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// EncodeDataURL encodes img as a base64 JPEG data URL.
func EncodeDataURL(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL returns the JPEG bytes inside a data URL produced by
// EncodeDataURL.
func DecodeDataURL(url string) ([]byte, error) {
	if !strings.HasPrefix(url, DataURLPrefix) {
		return nil, fmt.Errorf("not a JPEG data URL")
	}
	return base64.StdEncoding.DecodeString(url[len(DataURLPrefix):])
}
