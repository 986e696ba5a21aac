// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ─── Throw (primary entity) ─────────────────────────────────────────────────

// Throw represents one planting event. A throw starts life pending (local
// only, LedgerID zero) and becomes confirmed once a ledger query observes
// the asset the submission created.
type Throw struct {
	LocalID       string    `json:"localId"`
	LedgerID      int64     `json:"asaId"`
	TxID          string    `json:"txId,omitempty"`
	PodTypeID     string    `json:"podTypeId"`
	PodTypeName   string    `json:"podTypeName"`
	PodTypeIcon   string    `json:"podTypeIcon"`
	ThrowDate     time.Time `json:"throwDate"`
	LocationLabel string    `json:"locationLabel,omitempty"`
	GrowthModelID string    `json:"growthModelId"`
	ThrownBy      string    `json:"thrownBy,omitempty"`
	ConfirmedAt   time.Time `json:"confirmedAt,omitempty"`
	Pending       bool      `json:"isPending"`
	CreatedAt     time.Time `json:"createdAt,omitempty"` // submission stamp, drives pending TTL
}

// Confirmed reports whether the throw has been observed on the ledger.
func (t Throw) Confirmed() bool { return t.LedgerID > 0 && !t.Pending }

// ChainLocalID returns the canonical local id for a ledger-confirmed throw.
func ChainLocalID(ledgerID int64) string {
	return fmt.Sprintf("chain-%d", ledgerID)
}

// ─── Harvest (derived entity) ───────────────────────────────────────────────

// QuantityClass is the tri-valued harvest size ordinal.
type QuantityClass string

const (
	QuantitySmall  QuantityClass = "small"
	QuantityMedium QuantityClass = "medium"
	QuantityLarge  QuantityClass = "large"
)

// Valid reports whether q is one of the three known classes.
func (q QuantityClass) Valid() bool {
	switch q {
	case QuantitySmall, QuantityMedium, QuantityLarge:
		return true
	}
	return false
}

// Harvest represents a secondary event referencing a confirmed throw.
// Identity is the transaction id, which is a placeholder until the ledger
// assigns a real one (see TxID).
type Harvest struct {
	TxID          TxID          `json:"txId"`
	ThrowLedgerID int64         `json:"throwAsaId"`
	PlantID       string        `json:"plantId,omitempty"`
	Quantity      QuantityClass `json:"quantityClass"`
	Notes         string        `json:"notes,omitempty"`
	HarvestedAt   time.Time     `json:"harvestedAt"`
	ConfirmedAt   time.Time     `json:"confirmedAt,omitempty"`
}

// ─── Transaction identity ───────────────────────────────────────────────────

// placeholderPrefix is the wire form marker for provisional ids. It is kept
// for compatibility with previously cached payloads; inside the process the
// placeholder/confirmed distinction lives in the type, not the string.
const placeholderPrefix = "pending-"

type txKind uint8

const (
	txConfirmed txKind = iota
	txPlaceholder
)

// TxID identifies a harvest. It is either a locally generated placeholder
// (provisional key) or the ledger's real transaction id (durable key).
// The zero value is an empty confirmed id and reports IsZero.
type TxID struct {
	kind  txKind
	value string
}

// PlaceholderTxID wraps a locally generated token as a provisional id.
func PlaceholderTxID(token string) TxID {
	return TxID{kind: txPlaceholder, value: token}
}

// ConfirmedTxID wraps a ledger-assigned transaction id.
func ConfirmedTxID(id string) TxID {
	return TxID{kind: txConfirmed, value: id}
}

// ParseTxID decodes the wire form. Prefix sniffing happens only here, at
// the serialization boundary.
func ParseTxID(s string) TxID {
	if rest, ok := strings.CutPrefix(s, placeholderPrefix); ok {
		return PlaceholderTxID(rest)
	}
	return ConfirmedTxID(s)
}

// IsPlaceholder reports whether the id is provisional.
func (id TxID) IsPlaceholder() bool { return id.kind == txPlaceholder }

// IsZero reports whether the id is unset.
func (id TxID) IsZero() bool { return id.value == "" }

// String returns the wire form of the id.
func (id TxID) String() string {
	if id.kind == txPlaceholder {
		return placeholderPrefix + id.value
	}
	return id.value
}

// MarshalJSON encodes the id in its wire form.
func (id TxID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the wire form.
func (id *TxID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = ParseTxID(s)
	return nil
}

// ─── Growth stage lookup result ─────────────────────────────────────────────

// StageInfo describes the current lifecycle stage of a confirmed throw,
// derived from its throw date and growth model.
type StageInfo struct {
	StageID         string `json:"stageId"`
	StageName       string `json:"stageName"`
	Icon            string `json:"icon"`
	ProgressPercent int    `json:"progressPercent"`
	DaysSince       int    `json:"daysSince"`
}
