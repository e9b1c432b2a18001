// internal/agent/history_test.go
package agent

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInteractionHistory_Bounded(t *testing.T) {
	h := NewInteractionHistory(3)
	for i := 0; i < 5; i++ {
		h.RecordAction(ActionWait, fmt.Sprintf("wait:%d", i), true)
	}
	recs := h.Records()
	assert.Len(t, recs, 3)
	assert.Equal(t, "wait:2", recs[0].Details, "oldest entries are evicted first")
	assert.Equal(t, "wait:4", recs[2].Details)
}

func TestInteractionHistory_DefaultSize(t *testing.T) {
	h := NewInteractionHistory(0)
	for i := 0; i < 25; i++ {
		h.RecordAction(ActionVerify, "verify:", true)
	}
	assert.Equal(t, DefaultMaxRecords, h.Len())
}

func TestInteractionHistory_HasRepeatedAction(t *testing.T) {
	h := NewInteractionHistory(10)
	sig := "click_grid:42"
	h.RecordAction(ActionClickGrid, sig+" -> Clicked cell 42", true)
	h.RecordAction(ActionClickGrid, sig+" -> Clicked cell 42", false)
	h.RecordAction(ActionHotkey, "hotkey:CTRL+S", true)

	assert.False(t, h.HasRepeatedAction(ActionClickGrid, sig, 3))

	h.RecordAction(ActionClickGrid, "CLICK_GRID:42", true)
	assert.True(t, h.HasRepeatedAction(ActionClickGrid, sig, 3), "match is case-insensitive")
	assert.False(t, h.HasRepeatedAction(ActionClickCoordinates, sig, 1), "type must match too")
	assert.False(t, h.HasRepeatedAction(ActionClickGrid, "click_grid:7", 1))
}

func TestInteractionHistory_SignatureKeyIsExact(t *testing.T) {
	h := NewInteractionHistory(10)
	for _, sig := range []string{"type_text:hello world", "type_text:hello there", "type_text:hello again"} {
		h.RecordAction(ActionTypeText, SignatureKey(sig)+" -> typed", true)
	}
	for i := 0; i < 3; i++ {
		h.RecordAction(ActionClickCoordinates, SignatureKey("click_coordinates:rx=0.5,ry=0.55"), true)
	}

	assert.False(t, h.HasRepeatedAction(ActionTypeText, SignatureKey("type_text:hello"), 1))
	assert.False(t, h.HasRepeatedAction(ActionClickCoordinates, SignatureKey("click_coordinates:rx=0.5,ry=0.5"), 1))
	assert.True(t, h.HasRepeatedAction(ActionClickCoordinates, SignatureKey("click_coordinates:rx=0.5,ry=0.55"), 3))
	assert.True(t, h.HasRepeatedAction(ActionTypeText, SignatureKey("type_text:HELLO WORLD"), 1), "match is case-insensitive")

	h.RecordAction(ActionTypeText, SignatureKey(`type_text:say "hi"`), true)
	assert.False(t, h.HasRepeatedAction(ActionTypeText, SignatureKey("type_text:say "), 1))
}

func TestInteractionHistory_Summary(t *testing.T) {
	h := NewInteractionHistory(5)
	assert.Equal(t, "No actions taken yet.", h.Summary())

	h.RecordAction(ActionFocusWindow, "focus_window:notepad", true)
	h.RecordAction(ActionTypeText, "type_text:hi", false)
	assert.Equal(t, "1. focus_window: focus_window:notepad [OK]\n2. type_text: type_text:hi [FAILED]", h.Summary())
}

func TestInteractionHistory_Concurrent(t *testing.T) {
	h := NewInteractionHistory(10)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.RecordAction(ActionWait, fmt.Sprintf("wait:%d", i), true)
				_ = h.HasRepeatedAction(ActionWait, "wait", 3)
				_ = h.Summary()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, h.Len())
}
