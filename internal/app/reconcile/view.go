package reconcile

import (
	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
)

// ─── Unified view ───────────────────────────────────────────────────────────
// Read-only accessors over the engine's state. Everything returns copies;
// callers never see the engine's internal slices.

// StageNotification is a due-notification derived from a confirmed throw's
// growth model: where the plant is in its lifecycle right now.
type StageNotification struct {
	ThrowLocalID    string `json:"throwLocalId"`
	LedgerID        int64  `json:"asaId"`
	PodTypeName     string `json:"podTypeName"`
	StageID         string `json:"stageId"`
	StageName       string `json:"stageName"`
	Icon            string `json:"icon"`
	ProgressPercent int    `json:"progressPercent"`
	DaysSince       int    `json:"daysSince"`
}

// Timeline returns the unified timeline: pending throws first (minus any
// whose ledger id is already confirmed), then confirmed throws in
// descending throw-date order.
func (e *Engine) Timeline() []domain.Throw {
	e.mu.Lock()
	pending := copyThrows(e.pending)
	confirmed := copyThrows(e.confirmed)
	e.mu.Unlock()

	return UnifiedTimeline(pending, confirmed)
}

// Harvests returns the merged harvest set, placeholders first.
func (e *Engine) Harvests() []domain.Harvest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyHarvests(e.harvests)
}

// Notifications derives stage notifications for all confirmed throws.
// Throws with no resolvable growth model produce none.
func (e *Engine) Notifications() []StageNotification {
	e.mu.Lock()
	confirmed := copyThrows(e.confirmed)
	e.mu.Unlock()

	if e.stages == nil {
		return nil
	}

	var out []StageNotification
	for _, t := range confirmed {
		info, ok := e.stages.Resolve(t.ThrowDate, t.GrowthModelID)
		if !ok {
			continue
		}
		out = append(out, StageNotification{
			ThrowLocalID:    t.LocalID,
			LedgerID:        t.LedgerID,
			PodTypeName:     t.PodTypeName,
			StageID:         info.StageID,
			StageName:       info.StageName,
			Icon:            info.Icon,
			ProgressPercent: info.ProgressPercent,
			DaysSince:       info.DaysSince,
		})
	}
	return out
}

// PendingCount returns the number of throws awaiting confirmation.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// ConfirmedCount returns the number of ledger-confirmed throws.
func (e *Engine) ConfirmedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.confirmed)
}

// Refreshing reports whether a refresh is currently in flight.
func (e *Engine) Refreshing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshing
}

// LastError returns the advisory error from the most recent failed
// refresh, or "" after a successful one.
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
