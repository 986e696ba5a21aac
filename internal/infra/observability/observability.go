// Package observability exposes Prometheus metrics for the reconciliation
// engine. Metrics are package-level promauto collectors registered on the
// default registry and served by the API's /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Reconciliation Metrics ─────────────────────────────────────────────────

// RefreshesTotal counts refresh operations by outcome ("ok" or "error").
var RefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "eden",
	Subsystem: "reconcile",
	Name:      "refreshes_total",
	Help:      "Total refresh operations by outcome.",
}, []string{"result"})

// LedgerQueryFailures counts failed ledger queries by source collection.
var LedgerQueryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "eden",
	Subsystem: "reconcile",
	Name:      "ledger_query_failures_total",
	Help:      "Total failed ledger queries by source (throws, harvests).",
}, []string{"source"})

// PendingThrows tracks the number of locally pending throws for the
// active owner session.
var PendingThrows = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "eden",
	Subsystem: "reconcile",
	Name:      "pending_throws",
	Help:      "Locally submitted throws awaiting ledger confirmation.",
})

// HarvestsTracked tracks the number of harvests in the merged set.
var HarvestsTracked = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "eden",
	Subsystem: "reconcile",
	Name:      "harvests_tracked",
	Help:      "Harvests in the merged set (placeholders and confirmed).",
})

// ─── Poller Metrics ─────────────────────────────────────────────────────────

// PollerTicks counts confirmation poller ticks.
var PollerTicks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "eden",
	Subsystem: "poller",
	Name:      "ticks_total",
	Help:      "Total confirmation poller ticks.",
})

// PollerTerminations counts poll loops that hit the attempt ceiling and
// purged their pending set.
var PollerTerminations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "eden",
	Subsystem: "poller",
	Name:      "terminations_total",
	Help:      "Poll loops terminated at the attempt ceiling.",
})

// ─── Session Metrics ────────────────────────────────────────────────────────

// SessionSwitches counts owner session activations.
var SessionSwitches = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "eden",
	Subsystem: "session",
	Name:      "switches_total",
	Help:      "Owner session activations (including owner changes).",
})
