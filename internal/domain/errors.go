package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Session errors
	ErrNoOwner = errors.New("no active owner session")

	// Ledger errors
	ErrLedgerUnavailable = errors.New("ledger query failed")

	// Submission errors. Cancellation is user-initiated and must be
	// suppressed from advisory display; rejection is a genuine fault.
	ErrSubmissionCancelled = errors.New("submission cancelled by user")
	ErrSubmissionRejected  = errors.New("submission rejected by ledger")

	// Harvest errors
	ErrHarvestNotFound = errors.New("harvest not found")

	// Catalog errors
	ErrUnknownPodType     = errors.New("unknown pod type")
	ErrUnknownGrowthModel = errors.New("unknown growth model")
)
