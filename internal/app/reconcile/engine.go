// Package reconcile implements the optimistic/confirmed reconciliation
// engine: it tracks locally submitted throws that the ledger has not yet
// confirmed, polls the ledger, merges observed state with pending state,
// and exposes one consistent unified timeline per owner.
//
// The engine is a single-writer state container. All mutation goes through
// its operations; the poller and the view read through it. One engine
// exists per active owner and is discarded wholesale on owner change.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
	"github.com/algotables/Eden-Pods-POC-v3/internal/infra/observability"
)

// ─── Config ─────────────────────────────────────────────────────────────────

// Config controls reconciliation timing.
type Config struct {
	PollInterval    time.Duration // confirmation poll tick (default: 5s)
	MaxPollAttempts int           // poll ceiling before pending is abandoned (default: 60)
	PendingTTL      time.Duration // wall-clock TTL for unconfirmed throws (default: 5m)
}

// DefaultConfig returns the reconciliation defaults: a 5-second poll with a
// 60-attempt ceiling (5 minutes of waiting) and a 5-minute pending TTL.
func DefaultConfig() Config {
	return Config{
		PollInterval:    5 * time.Second,
		MaxPollAttempts: 60,
		PendingTTL:      5 * time.Minute,
	}
}

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine owns the reconciliation state for one owner.
type Engine struct {
	owner  string
	cfg    Config
	ledger domain.Ledger
	cache  domain.Cache
	stages domain.StageResolver
	poller *Poller
	now    func() time.Time // injectable clock for tests

	// refreshMu serializes refresh operations so a manual refresh and a
	// poll tick can never mutate the collections concurrently.
	refreshMu sync.Mutex

	mu                     sync.Mutex
	confirmed              []domain.Throw
	pending                []domain.Throw
	harvests               []domain.Harvest
	confirmedCountAtSubmit int
	refreshing             bool
	lastErr                string
}

// NewEngine creates an engine for one owner. The engine starts empty; call
// LoadCache to prime it from durable storage, then Refresh to reconcile
// against the ledger.
func NewEngine(owner string, ledger domain.Ledger, cache domain.Cache, stages domain.StageResolver, cfg Config) *Engine {
	e := &Engine{
		owner:  owner,
		cfg:    cfg,
		ledger: ledger,
		cache:  cache,
		stages: stages,
		now:    time.Now,
	}
	e.poller = NewPoller(cfg.PollInterval, cfg.MaxPollAttempts, e.Refresh, e.abandonPending)
	return e
}

// Owner returns the owner identity this engine reconciles for.
func (e *Engine) Owner() string { return e.owner }

// Poller returns the engine's confirmation poller.
func (e *Engine) Poller() *Poller { return e.poller }

// Close stops the poller. The engine must not be used afterwards.
func (e *Engine) Close() { e.poller.Stop() }

// ─── Load ───────────────────────────────────────────────────────────────────

// LoadCache primes the engine from the durable cache: confirmed throws,
// pending throws (expired entries dropped), and harvests. The confirmed
// count snapshot is initialized from the cached confirmed set so the
// growth heuristic has a baseline before the first ledger query.
func (e *Engine) LoadCache() {
	confirmed := e.cache.LoadConfirmed(e.owner)
	for i := range confirmed {
		confirmed[i].Pending = false
	}

	pending := ExpirePending(e.cache.LoadPending(e.owner), e.now(), e.cfg.PendingTTL)
	for i := range pending {
		pending[i].Pending = true
	}

	harvests := MergeHarvests(nil, e.cache.LoadHarvests(e.owner))

	e.mu.Lock()
	e.confirmed = confirmed
	e.pending = pending
	e.harvests = harvests
	e.confirmedCountAtSubmit = len(confirmed)
	e.mu.Unlock()

	e.publishGauges()
}

// ─── Refresh ────────────────────────────────────────────────────────────────

// Refresh queries the ledger and reconciles. The throw query is
// authoritative: on failure the refresh reports an advisory error and the
// last-known-good confirmed set is preserved. The harvest query degrades to
// an empty result, so a harvest-side outage never fails the refresh.
//
// Within one refresh the confirmed set is replaced before the pending set
// is re-filtered, so retirement decisions never use stale confirmed data.
func (e *Engine) Refresh(ctx context.Context) error {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	e.setRefreshing(true)
	defer e.setRefreshing(false)

	throws, err := e.ledger.QueryThrows(ctx, e.owner)
	if err != nil {
		observability.RefreshesTotal.WithLabelValues("error").Inc()
		observability.LedgerQueryFailures.WithLabelValues("throws").Inc()
		e.setError(err.Error())
		return fmt.Errorf("query throws: %w", err)
	}

	harvests, err := e.ledger.QueryHarvests(ctx, e.owner)
	if err != nil {
		observability.LedgerQueryFailures.WithLabelValues("harvests").Inc()
		log.Printf("[reconcile] harvest query failed for %s, continuing with empty result: %v", e.owner, err)
		harvests = nil
	}

	for i := range throws {
		throws[i].LocalID = domain.ChainLocalID(throws[i].LedgerID)
		throws[i].Pending = false
	}

	e.mu.Lock()
	e.confirmed = throws
	e.harvests = MergeHarvests(e.harvests, harvests)
	e.pending = FilterPending(e.pending, e.confirmed, e.confirmedCountAtSubmit, e.now(), e.cfg.PendingTTL)
	e.lastErr = ""

	confirmedCopy := copyThrows(e.confirmed)
	pendingCopy := copyThrows(e.pending)
	harvestsCopy := copyHarvests(e.harvests)
	pendingEmpty := len(e.pending) == 0
	e.mu.Unlock()

	e.cache.SaveConfirmed(e.owner, confirmedCopy)
	e.cache.SaveHarvests(e.owner, harvestsCopy)
	e.cache.SavePending(e.owner, pendingCopy)

	if pendingEmpty {
		e.poller.Stop()
	}

	observability.RefreshesTotal.WithLabelValues("ok").Inc()
	e.publishGauges()
	return nil
}

// ─── Submit ─────────────────────────────────────────────────────────────────

// SubmitPending registers a locally dispatched throw before ledger
// confirmation is known. It snapshots the confirmed count (the baseline for
// the growth-retirement heuristic), stamps and prepends the throw, persists
// the pending set, and starts the confirmation poller. The caller must only
// invoke this after the write itself was accepted — a failed or cancelled
// submission creates no pending state.
func (e *Engine) SubmitPending(t domain.Throw) domain.Throw {
	if t.LocalID == "" {
		t.LocalID = uuid.NewString()
	}
	t.Pending = true
	t.CreatedAt = e.now()
	if t.ThrowDate.IsZero() {
		t.ThrowDate = t.CreatedAt
	}

	e.mu.Lock()
	e.confirmedCountAtSubmit = len(e.confirmed)
	e.pending = append([]domain.Throw{t}, e.pending...)
	pendingCopy := copyThrows(e.pending)
	e.mu.Unlock()

	e.cache.SavePending(e.owner, pendingCopy)
	e.poller.Start()
	e.publishGauges()

	log.Printf("[reconcile] pending throw %s submitted for %s", t.LocalID, e.owner)
	return t
}

// ReportSubmissionFailure records the outcome of a throw submission that
// never reached the ledger. User cancellation is suppressed entirely; a
// rejection surfaces as the advisory error. Neither creates pending state.
func (e *Engine) ReportSubmissionFailure(err error) {
	if err == nil || errors.Is(err, domain.ErrSubmissionCancelled) {
		return
	}
	log.Printf("[reconcile] submission failed for %s: %v", e.owner, err)
	e.setError(err.Error())
}

// abandonPending clears the pending set; invoked by the poller when the
// attempt ceiling is exceeded.
func (e *Engine) abandonPending() {
	e.mu.Lock()
	e.pending = nil
	e.mu.Unlock()

	e.cache.SavePending(e.owner, nil)
	e.publishGauges()
}

// ─── Harvest operations ─────────────────────────────────────────────────────

// AddOptimisticHarvest registers a harvest before ledger confirmation.
// A harvest without an id gets a fresh placeholder id.
func (e *Engine) AddOptimisticHarvest(h domain.Harvest) domain.Harvest {
	if h.TxID.IsZero() {
		h.TxID = domain.PlaceholderTxID(uuid.NewString())
	}
	if h.HarvestedAt.IsZero() {
		h.HarvestedAt = e.now()
	}

	e.mu.Lock()
	e.harvests = append([]domain.Harvest{h}, e.harvests...)
	harvestsCopy := copyHarvests(e.harvests)
	e.mu.Unlock()

	e.cache.SaveHarvests(e.owner, harvestsCopy)
	e.publishGauges()
	return h
}

// ConfirmHarvest renames a placeholder harvest to its ledger-assigned
// transaction id. The rename happens in place: afterwards exactly one
// record with the real id exists and none with the placeholder, all other
// fields untouched.
func (e *Engine) ConfirmHarvest(placeholderID, realID string) error {
	e.mu.Lock()
	found := false
	for i := range e.harvests {
		if e.harvests[i].TxID.String() == placeholderID {
			e.harvests[i].TxID = domain.ConfirmedTxID(realID)
			found = true
			break
		}
	}
	harvestsCopy := copyHarvests(e.harvests)
	e.mu.Unlock()

	if !found {
		return fmt.Errorf("confirm harvest %s: %w", placeholderID, domain.ErrHarvestNotFound)
	}
	e.cache.SaveHarvests(e.owner, harvestsCopy)
	return nil
}

// RemoveHarvest withdraws a harvest by transaction id (typically a
// user-cancelled placeholder).
func (e *Engine) RemoveHarvest(txID string) error {
	e.mu.Lock()
	kept := e.harvests[:0:0]
	found := false
	for _, h := range e.harvests {
		if h.TxID.String() == txID {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	e.harvests = kept
	harvestsCopy := copyHarvests(e.harvests)
	e.mu.Unlock()

	if !found {
		return fmt.Errorf("remove harvest %s: %w", txID, domain.ErrHarvestNotFound)
	}
	e.cache.SaveHarvests(e.owner, harvestsCopy)
	e.publishGauges()
	return nil
}

// ─── Internal helpers ───────────────────────────────────────────────────────

func (e *Engine) setRefreshing(v bool) {
	e.mu.Lock()
	e.refreshing = v
	e.mu.Unlock()
}

func (e *Engine) setError(msg string) {
	e.mu.Lock()
	e.lastErr = msg
	e.mu.Unlock()
}

func (e *Engine) publishGauges() {
	e.mu.Lock()
	pending := len(e.pending)
	harvests := len(e.harvests)
	e.mu.Unlock()

	observability.PendingThrows.Set(float64(pending))
	observability.HarvestsTracked.Set(float64(harvests))
}

func copyThrows(in []domain.Throw) []domain.Throw {
	out := make([]domain.Throw, len(in))
	copy(out, in)
	return out
}

func copyHarvests(in []domain.Harvest) []domain.Harvest {
	out := make([]domain.Harvest, len(in))
	copy(out, in)
	return out
}
