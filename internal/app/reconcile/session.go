package reconcile

import (
	"context"
	"log"
	"sync"

	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
	"github.com/algotables/Eden-Pods-POC-v3/internal/infra/observability"
)

// ─── Owner session lifecycle ────────────────────────────────────────────────
// NoOwner → Loading → Active on owner identity arrival (Loading spans the
// initial ledger refresh; the cached view is already served); any state →
// NoOwner on loss. An owner change while active is clear-then-set: the old
// engine's poller is stopped synchronously before the new owner's load
// begins, so a stale in-flight tick can never write into the new owner's
// state.

// SessionState is the session's lifecycle state.
type SessionState int

const (
	SessionNoOwner SessionState = iota
	SessionLoading
	SessionActive
)

// String returns a human-readable session state.
func (s SessionState) String() string {
	switch s {
	case SessionNoOwner:
		return "no-owner"
	case SessionLoading:
		return "loading"
	case SessionActive:
		return "active"
	default:
		return "unknown"
	}
}

// Session manages the engine for the currently active owner identity.
type Session struct {
	ledger domain.Ledger
	cache  domain.Cache
	stages domain.StageResolver
	cfg    Config

	mu     sync.Mutex
	engine *Engine
	state  SessionState
}

// NewSession creates a session with no active owner.
func NewSession(ledger domain.Ledger, cache domain.Cache, stages domain.StageResolver, cfg Config) *Session {
	return &Session{
		ledger: ledger,
		cache:  cache,
		stages: stages,
		cfg:    cfg,
		state:  SessionNoOwner,
	}
}

// SetOwner activates a session for the given owner: loads the cache,
// primes a fresh engine, performs one immediate refresh (not waiting for
// the first poll tick), and starts the poller if pending throws remain.
// Any previous owner's engine is discarded first — state is never merged
// across identities. The session reports Loading while the immediate
// refresh is in flight; the engine already serves the cached view.
//
// The returned error is the immediate refresh's advisory error; the
// session is active either way and the cached view is served meanwhile.
func (s *Session) SetOwner(ctx context.Context, owner string) error {
	if owner == "" {
		s.ClearOwner()
		return nil
	}

	s.mu.Lock()
	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
	}
	eng := NewEngine(owner, s.ledger, s.cache, s.stages, s.cfg)
	eng.LoadCache()
	s.engine = eng
	s.state = SessionLoading
	s.mu.Unlock()

	observability.SessionSwitches.Inc()
	log.Printf("[session] owner %s loading, %d cached pending", owner, eng.PendingCount())

	err := eng.Refresh(ctx)

	// The refresh ran unlocked against a captured engine. A concurrent
	// ClearOwner or owner switch may have discarded it meanwhile; only a
	// still-current engine goes active and gets its poller started.
	s.mu.Lock()
	if s.engine == eng {
		s.state = SessionActive
		if eng.PendingCount() > 0 {
			eng.Poller().Start()
		}
	}
	s.mu.Unlock()
	return err
}

// ClearOwner deactivates the session: stops the poller synchronously and
// discards the reconciliation state in full.
func (s *Session) ClearOwner() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
		log.Printf("[session] owner cleared")
	}
	s.state = SessionNoOwner
}

// Engine returns the active owner's engine, or ErrNoOwner.
func (s *Session) Engine() (*Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil, domain.ErrNoOwner
	}
	return s.engine, nil
}

// Owner returns the active owner identity, or "".
func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return ""
	}
	return s.engine.Owner()
}

// State returns the session lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
