package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the reconciliation engine depends on them.

// Ledger abstracts the external append-only source of truth. Both queries
// are fallible and may return transiently incomplete results; the engine is
// responsible for reconciling whatever they return.
type Ledger interface {
	// QueryThrows returns the confirmed throws for an owner.
	QueryThrows(ctx context.Context, owner string) ([]Throw, error)

	// QueryHarvests returns the confirmed harvests for an owner.
	QueryHarvests(ctx context.Context, owner string) ([]Harvest, error)
}

// Cache is the per-owner durable blob store for the three reconciliation
// collections. It is pure storage with no policy: reads that fail or do not
// parse yield empty collections, writes are best-effort full replacements.
// The ledger is authoritative, never the cache — so nothing here returns an
// error to the caller.
type Cache interface {
	LoadConfirmed(owner string) []Throw
	SaveConfirmed(owner string, throws []Throw)

	LoadPending(owner string) []Throw
	SavePending(owner string, throws []Throw)

	LoadHarvests(owner string) []Harvest
	SaveHarvests(owner string, harvests []Harvest)
}

// StageResolver derives the current growth stage for a throw from its
// throw date and growth model. Pure lookup; unknown models report !ok.
type StageResolver interface {
	Resolve(throwDate time.Time, growthModelID string) (StageInfo, bool)
}
