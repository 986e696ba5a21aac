package reconcile

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/algotables/Eden-Pods-POC-v3/internal/infra/observability"
)

// ─── Confirmation Poller ────────────────────────────────────────────────────
// A cancellable repeating task that drives refreshes until the pending set
// drains or the attempt ceiling is hit. State machine:
//
//	Idle → Polling → (Idle | Terminated)
//
// Terminated means the ceiling was exceeded: the pending set is purged (the
// submissions are presumed lost) and the loop stops itself. That is normal
// eventual-consistency behavior, not a fault.

// PollerState is the poller's lifecycle state.
type PollerState int

const (
	PollerIdle PollerState = iota
	PollerPolling
	PollerTerminated
)

// String returns a human-readable poller state.
func (s PollerState) String() string {
	switch s {
	case PollerIdle:
		return "idle"
	case PollerPolling:
		return "polling"
	case PollerTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Poller periodically invokes a refresh function. At most one loop is
// active at a time; Start always cancels the previous loop first. Each
// loop carries a generation number, and a loop may only act on the shared
// state while its generation is current — a stale loop that lost a race
// with Start or Stop exits without side effects.
type Poller struct {
	mu       sync.Mutex
	interval time.Duration
	maxTicks int
	state    PollerState
	cancel   context.CancelFunc
	gen      uint64

	tick    func(ctx context.Context) error // one refresh attempt
	abandon func()                          // purge pending at the ceiling
}

// NewPoller creates a poller. tick runs once per interval; abandon runs
// when the attempt ceiling is exceeded.
func NewPoller(interval time.Duration, maxTicks int, tick func(ctx context.Context) error, abandon func()) *Poller {
	return &Poller{
		interval: interval,
		maxTicks: maxTicks,
		tick:     tick,
		abandon:  abandon,
	}
}

// Start begins (or restarts) the poll loop. Any previous loop is cancelled
// and superseded first, and its attempt counter does not carry over.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.gen++
	p.state = PollerPolling

	go p.loop(ctx, p.gen)
}

// Stop cancels future ticks and supersedes the current loop. Idempotent;
// an in-flight tick is allowed to complete and its result still applies.
// A terminated poller stays terminated.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	if p.state == PollerPolling {
		p.state = PollerIdle
	}
}

// State returns the current lifecycle state.
func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// loop runs ticks until cancelled or the ceiling is exceeded.
func (p *Poller) loop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticks++
			observability.PollerTicks.Inc()

			if ticks > p.maxTicks {
				p.terminate(gen)
				return
			}

			// A failing tick is retried on the next interval; the loop
			// must survive transient query failures.
			if err := p.tick(ctx); err != nil {
				log.Printf("[poller] tick %d: %v", ticks, err)
			}
		}
	}
}

// terminate purges the pending set and parks the poller permanently — but
// only if gen is still the current generation. A loop superseded between
// its ceiling check and taking the lock must not cancel its replacement or
// purge pending submitted after it. The purge runs under the lock, so a
// concurrent Start cannot spawn a replacement mid-purge.
func (p *Poller) terminate(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = PollerTerminated
	p.abandon()

	observability.PollerTerminations.Inc()
	log.Printf("[poller] attempt ceiling reached, pending throws abandoned")
}
