package reconcile

import (
	"sort"
	"time"

	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
)

// ─── Pure merge and filter functions ────────────────────────────────────────
// These are the reconciliation algorithm proper. They take collections in
// and return collections out — no I/O, no clocks, no shared state — so the
// engine can call them under its lock and tests can drive them directly.

// MergeHarvests unions existing and incoming harvests by transaction id.
// Incoming wins on collision (the ledger's view of a confirmed record is
// fresher than ours). Ordering: placeholders first, preserving their
// original submission order, then confirmed harvests by descending
// harvest timestamp.
func MergeHarvests(existing, incoming []domain.Harvest) []domain.Harvest {
	byID := make(map[string]domain.Harvest, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))

	for _, h := range existing {
		key := h.TxID.String()
		if _, ok := byID[key]; !ok {
			order = append(order, key)
		}
		byID[key] = h
	}
	for _, h := range incoming {
		key := h.TxID.String()
		if _, ok := byID[key]; !ok {
			order = append(order, key)
		}
		byID[key] = h
	}

	var placeholders, confirmed []domain.Harvest
	for _, key := range order {
		h := byID[key]
		if h.TxID.IsPlaceholder() {
			placeholders = append(placeholders, h)
		} else {
			confirmed = append(confirmed, h)
		}
	}

	sort.SliceStable(confirmed, func(i, j int) bool {
		return confirmed[i].HarvestedAt.After(confirmed[j].HarvestedAt)
	})

	return append(placeholders, confirmed...)
}

// FilterPending recomputes the pending set against freshly confirmed
// throws. A pending throw is retired when:
//
//  1. its ledger id now appears among the confirmed throws, or
//  2. the confirmed set has grown beyond the count snapshot taken at
//     submission time — a new confirmation appeared, so the pending entry
//     is presumed represented by it even when the ids do not match, or
//  3. it is older than the pending TTL.
//
// Rule 2 can misfire with several simultaneous pending submissions (it may
// retire one whose confirmation has not landed yet); the next full refresh
// restores the ledger's view, so the timeline still converges.
func FilterPending(pending, confirmed []domain.Throw, countAtSubmit int, now time.Time, ttl time.Duration) []domain.Throw {
	if len(pending) == 0 {
		return pending
	}

	confirmedIDs := make(map[int64]struct{}, len(confirmed))
	for _, c := range confirmed {
		confirmedIDs[c.LedgerID] = struct{}{}
	}

	cutoff := now.Add(-ttl)
	still := pending[:0:0]
	for _, p := range pending {
		if p.LedgerID > 0 {
			if _, ok := confirmedIDs[p.LedgerID]; ok {
				continue
			}
		}
		if len(confirmed) > countAtSubmit {
			continue
		}
		if !p.CreatedAt.IsZero() && p.CreatedAt.Before(cutoff) {
			continue
		}
		still = append(still, p)
	}
	return still
}

// ExpirePending drops pending throws older than the TTL. Applied on every
// cache load so an abandoned submission (say, a crash right after a failed
// submit) cannot clutter the timeline forever. Throws without a creation
// stamp predate TTL tracking and are kept.
func ExpirePending(pending []domain.Throw, now time.Time, ttl time.Duration) []domain.Throw {
	cutoff := now.Add(-ttl)
	kept := pending[:0:0]
	for _, p := range pending {
		if !p.CreatedAt.IsZero() && p.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// UnifiedTimeline assembles the externally observable timeline: pending
// throws (minus any whose ledger id is already confirmed) followed by
// confirmed throws in descending throw-date order.
func UnifiedTimeline(pending, confirmed []domain.Throw) []domain.Throw {
	confirmedIDs := make(map[int64]struct{}, len(confirmed))
	for _, c := range confirmed {
		confirmedIDs[c.LedgerID] = struct{}{}
	}

	out := make([]domain.Throw, 0, len(pending)+len(confirmed))
	for _, p := range pending {
		if p.LedgerID > 0 {
			if _, ok := confirmedIDs[p.LedgerID]; ok {
				continue
			}
		}
		out = append(out, p)
	}

	sorted := make([]domain.Throw, len(confirmed))
	copy(sorted, confirmed)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ThrowDate.After(sorted[j].ThrowDate)
	})

	return append(out, sorted...)
}
