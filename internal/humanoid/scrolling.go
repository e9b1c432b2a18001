// internal/humanoid/scrolling.go
package humanoid

import (
	"strconv"
	"strings"
)

const (
	// PageScrollDelta is the wheel delta used for an "page" scroll amount.
	PageScrollDelta = 500
	// DefaultScrollDelta is used when the amount cannot be parsed.
	DefaultScrollDelta = 300
)

// ScrollDelta converts a direction and an amount ("page" or a number) to a
// signed wheel delta. Up keeps the amount's sign and any other direction
// negates it, so a negative amount reverses the direction.
func ScrollDelta(direction, amount string) int {
	a := strings.ToLower(strings.TrimSpace(amount))
	delta := DefaultScrollDelta
	if a == "page" {
		delta = PageScrollDelta
	} else if n, err := strconv.Atoi(a); err == nil {
		delta = n
	}
	if strings.EqualFold(strings.TrimSpace(direction), "up") {
		return delta
	}
	return -delta
}

// Scroll turns the wheel by delta.
func (h *Humanoid) Scroll(delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.input.MouseWheel(delta)
}
