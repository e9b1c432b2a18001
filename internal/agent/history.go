// internal/agent/history.go
package agent

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultMaxRecords bounds an InteractionHistory when no size is given.
const DefaultMaxRecords = 10

// InteractionRecord is one executed action as remembered within a step.
type InteractionRecord struct {
	Timestamp  time.Time
	ActionType ActionType
	Details    string
	Success    bool
}

// InteractionHistory is a FIFO of the most recent actions taken for a
// single step. It is safe for concurrent use.
type InteractionHistory struct {
	mu         sync.RWMutex
	maxRecords int
	records    []InteractionRecord
}

// NewInteractionHistory returns an empty history holding at most maxRecords
// entries; a non-positive value uses DefaultMaxRecords.
func NewInteractionHistory(maxRecords int) *InteractionHistory {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &InteractionHistory{
		maxRecords: maxRecords,
		records:    make([]InteractionRecord, 0, maxRecords),
	}
}

// RecordAction appends a record, evicting the oldest past the bound.
func (h *InteractionHistory) RecordAction(t ActionType, details string, success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, InteractionRecord{
		Timestamp:  time.Now().UTC(),
		ActionType: t,
		Details:    details,
		Success:    success,
	})
	if over := len(h.records) - h.maxRecords; over > 0 {
		h.records = append(h.records[:0], h.records[over:]...)
	}
}

// SignatureKey renders an action signature for history details. The quoting
// terminates the signature, so searching for one key never matches a record
// whose signature only starts with the same text.
func SignatureKey(sig string) string {
	return strconv.Quote(sig)
}

// HasRepeatedAction reports whether at least threshold records have type t
// and details containing the given text, case-insensitively.
func (h *InteractionHistory) HasRepeatedAction(t ActionType, details string, threshold int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	needle := strings.ToLower(details)
	count := 0
	for _, r := range h.records {
		if r.ActionType == t && strings.Contains(strings.ToLower(r.Details), needle) {
			count++
		}
	}
	return count >= threshold
}

// Len returns the number of records held.
func (h *InteractionHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Records returns a copy of the records, oldest first.
func (h *InteractionHistory) Records() []InteractionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]InteractionRecord(nil), h.records...)
}

// Summary renders the records as a numbered transcript for the proposal
// oracle.
func (h *InteractionHistory) Summary() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.records) == 0 {
		return "No actions taken yet."
	}
	var b strings.Builder
	for i, r := range h.records {
		status := "OK"
		if !r.Success {
			status = "FAILED"
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s: %s [%s]", i+1, r.ActionType, r.Details, status)
	}
	return b.String()
}
