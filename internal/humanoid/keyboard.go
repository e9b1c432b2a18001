// internal/humanoid/keyboard.go
package humanoid

import (
	"strings"

	"go.uber.org/zap"
)

// Virtual-key codes understood by the host input layer.
const (
	VKBack    uint16 = 0x08
	VKTab     uint16 = 0x09
	VKReturn  uint16 = 0x0D
	VKShift   uint16 = 0x10
	VKControl uint16 = 0x11
	VKMenu    uint16 = 0x12
	VKEscape  uint16 = 0x1B
	VKSpace   uint16 = 0x20
	VKPrior   uint16 = 0x21
	VKNext    uint16 = 0x22
	VKEnd     uint16 = 0x23
	VKHome    uint16 = 0x24
	VKLeft    uint16 = 0x25
	VKUp      uint16 = 0x26
	VKRight   uint16 = 0x27
	VKDown    uint16 = 0x28
	VKDelete  uint16 = 0x2E
	VKLWin    uint16 = 0x5B
	VKRWin    uint16 = 0x5C
	VKF1      uint16 = 0x70
)

var namedKeys = map[string]uint16{
	"WIN":       VKLWin,
	"LWIN":      VKLWin,
	"RWIN":      VKRWin,
	"SHIFT":     VKShift,
	"CTRL":      VKControl,
	"CONTROL":   VKControl,
	"ALT":       VKMenu,
	"ENTER":     VKReturn,
	"RETURN":    VKReturn,
	"TAB":       VKTab,
	"ESC":       VKEscape,
	"ESCAPE":    VKEscape,
	"SPACE":     VKSpace,
	"BACKSPACE": VKBack,
	"DELETE":    VKDelete,
	"DEL":       VKDelete,
	"HOME":      VKHome,
	"END":       VKEnd,
	"PAGEUP":    VKPrior,
	"PAGEDOWN":  VKNext,
	"LEFT":      VKLeft,
	"UP":        VKUp,
	"RIGHT":     VKRight,
	"DOWN":      VKDown,
}

// LookupKey maps a key name such as "CTRL", "F5", "s" or "7" to its
// virtual-key code. Names are case-insensitive.
func LookupKey(name string) (uint16, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if vk, ok := namedKeys[n]; ok {
		return vk, true
	}
	if len(n) == 1 {
		c := n[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return uint16(c), true
		}
	}
	if len(n) >= 2 && len(n) <= 3 && n[0] == 'F' {
		num := 0
		for _, c := range n[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			num = num*10 + int(c-'0')
		}
		if num >= 1 && num <= 12 {
			return VKF1 + uint16(num-1), true
		}
	}
	return 0, false
}

// IsWindowsKey reports whether name refers to either Windows key.
func IsWindowsKey(name string) bool {
	vk, ok := LookupKey(name)
	return ok && (vk == VKLWin || vk == VKRWin)
}

// ResolveKeys maps names to codes, dropping and returning any it does not
// recognise.
func ResolveKeys(names []string) (codes []uint16, unknown []string) {
	for _, name := range names {
		if vk, ok := LookupKey(name); ok {
			codes = append(codes, vk)
		} else {
			unknown = append(unknown, name)
		}
	}
	return codes, unknown
}

// Chord presses keys in order and releases them in reverse order.
func (h *Humanoid) Chord(keys ...uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, k := range keys {
		h.input.KeyDown(k)
		h.Pause(keystrokePause)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		h.input.KeyUp(keys[i])
		h.Pause(keystrokePause)
	}
	h.logger.Debug("Pressed chord", zap.Int("keys", len(keys)))
}

// Type enters text into whatever control holds keyboard focus.
func (h *Humanoid) Type(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.input.TypeText(text)
}
