package domain

import (
	"encoding/json"
	"testing"
	"time"
)

// ─── TxID Tests ─────────────────────────────────────────────────────────────

func TestTxID_WireForm(t *testing.T) {
	tests := []struct {
		name        string
		id          TxID
		want        string
		placeholder bool
	}{
		{
			name:        "placeholder carries prefix",
			id:          PlaceholderTxID("abc123"),
			want:        "pending-abc123",
			placeholder: true,
		},
		{
			name: "confirmed is the raw ledger id",
			id:   ConfirmedTxID("TXN7Y4"),
			want: "TXN7Y4",
		},
		{
			name: "confirmed id that merely contains the word pending",
			id:   ConfirmedTxID("XPENDING9"),
			want: "XPENDING9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.id.IsPlaceholder(); got != tt.placeholder {
				t.Errorf("IsPlaceholder() = %v, want %v", got, tt.placeholder)
			}
		})
	}
}

func TestParseTxID_RoundTrip(t *testing.T) {
	for _, s := range []string{"pending-xyz", "REALTX1"} {
		id := ParseTxID(s)
		if id.String() != s {
			t.Errorf("ParseTxID(%q).String() = %q", s, id.String())
		}
	}

	if !ParseTxID("pending-xyz").IsPlaceholder() {
		t.Error("ParseTxID should classify prefixed ids as placeholders")
	}
	if ParseTxID("REALTX1").IsPlaceholder() {
		t.Error("ParseTxID should classify bare ids as confirmed")
	}
}

func TestTxID_JSON(t *testing.T) {
	h := Harvest{
		TxID:          PlaceholderTxID("tok"),
		ThrowLedgerID: 42,
		Quantity:      QuantityMedium,
		HarvestedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Harvest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.TxID.IsPlaceholder() || got.TxID.String() != "pending-tok" {
		t.Errorf("round-tripped TxID = %q placeholder=%v", got.TxID.String(), got.TxID.IsPlaceholder())
	}
	if got.Quantity != QuantityMedium {
		t.Errorf("Quantity = %q, want %q", got.Quantity, QuantityMedium)
	}
}

func TestTxID_IsZero(t *testing.T) {
	var id TxID
	if !id.IsZero() {
		t.Error("zero TxID should report IsZero")
	}
	if ConfirmedTxID("x").IsZero() {
		t.Error("non-empty TxID should not report IsZero")
	}
}

// ─── Throw Tests ────────────────────────────────────────────────────────────

func TestThrow_Confirmed(t *testing.T) {
	tests := []struct {
		name  string
		throw Throw
		want  bool
	}{
		{"ledger id and not pending", Throw{LedgerID: 7}, true},
		{"pending with ledger id", Throw{LedgerID: 7, Pending: true}, false},
		{"no ledger id", Throw{Pending: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.throw.Confirmed(); got != tt.want {
				t.Errorf("Confirmed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChainLocalID(t *testing.T) {
	if got := ChainLocalID(42); got != "chain-42" {
		t.Errorf("ChainLocalID(42) = %q", got)
	}
}

// ─── QuantityClass Tests ────────────────────────────────────────────────────

func TestQuantityClass_Valid(t *testing.T) {
	for _, q := range []QuantityClass{QuantitySmall, QuantityMedium, QuantityLarge} {
		if !q.Valid() {
			t.Errorf("%q should be valid", q)
		}
	}
	if QuantityClass("jumbo").Valid() {
		t.Error("unknown class should be invalid")
	}
}
