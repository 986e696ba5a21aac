package indexer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
)

func encodeNote(t *testing.T, standard string, props map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"standard":   standard,
		"properties": props,
	})
	if err != nil {
		t.Fatalf("marshal note: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestQueryThrows(t *testing.T) {
	throwNote := func(podType, date string) map[string]any {
		return map[string]any{
			"eden_type":     "throw",
			"podTypeId":     podType,
			"podTypeName":   "Kitchen Herb Mix",
			"throwDate":     date,
			"growthModelId": "temperate-herb",
		}
	}

	c := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/assets":
			if got := r.URL.Query().Get("creator"); got != "ALICE" {
				t.Errorf("expected creator=ALICE, got %s", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"assets": []map[string]any{{"index": 101}, {"index": 202}, {"index": 303}},
			})
		case "/v2/transactions":
			switch r.URL.Query().Get("asset-id") {
			case "101":
				json.NewEncoder(w).Encode(map[string]any{
					"transactions": []map[string]any{{
						"id":         "TX101",
						"note":       encodeNote(t, "arc69", throwNote("kitchen-herb", "2026-08-01T00:00:00Z")),
						"round-time": 1785542400,
					}},
				})
			case "202":
				// Not an Eden asset: no arc69 throw note.
				json.NewEncoder(w).Encode(map[string]any{
					"transactions": []map[string]any{{
						"id":         "TX202",
						"note":       base64.StdEncoding.EncodeToString([]byte("not json")),
						"round-time": 1785542400,
					}},
				})
			case "303":
				json.NewEncoder(w).Encode(map[string]any{
					"transactions": []map[string]any{{
						"id":         "TX303",
						"note":       encodeNote(t, "arc69", throwNote("salad-green", "2026-08-10T00:00:00Z")),
						"round-time": 1786320000,
					}},
				})
			default:
				http.Error(w, "unknown asset", http.StatusBadRequest)
			}
		default:
			http.NotFound(w, r)
		}
	})

	got, err := c.QueryThrows(context.Background(), "ALICE")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 throws (non-Eden asset skipped), got %d", len(got))
	}
	// Newest throw date first.
	if got[0].LedgerID != 303 || got[1].LedgerID != 101 {
		t.Errorf("unexpected order: %d, %d", got[0].LedgerID, got[1].LedgerID)
	}
	if got[0].LocalID != "chain-303" {
		t.Errorf("expected canonical local id chain-303, got %s", got[0].LocalID)
	}
	if got[1].TxID != "TX101" || got[1].PodTypeID != "kitchen-herb" {
		t.Errorf("throw fields mismatch: %+v", got[1])
	}
	if got[1].ConfirmedAt.IsZero() {
		t.Error("expected the confirmation time from the round time")
	}
}

func TestQueryThrowsListFailure(t *testing.T) {
	c := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.QueryThrows(context.Background(), "ALICE")
	if !errors.Is(err, domain.ErrLedgerUnavailable) {
		t.Errorf("expected ErrLedgerUnavailable, got %v", err)
	}
}

func TestQueryHarvests(t *testing.T) {
	c := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/transactions" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("address") != "ALICE" || q.Get("address-role") != "sender" || q.Get("tx-type") != "pay" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"transactions": []map[string]any{
				{
					"id": "HARV1",
					"note": encodeNote(t, "arc69", map[string]any{
						"eden_type":     "harvest",
						"throwAsaId":    101,
						"quantityClass": "medium",
						"harvestedAt":   "2026-08-05T00:00:00Z",
					}),
					"round-time": 1785888000,
				},
				{
					"id": "HARV2",
					"note": encodeNote(t, "arc69", map[string]any{
						"eden_type":     "harvest",
						"throwAsaId":    "303", // string-encoded asset id
						"quantityClass": "not-a-class",
					}),
					"round-time": 1786320000,
				},
				{
					"id":         "OTHER",
					"note":       encodeNote(t, "arc69", map[string]any{"eden_type": "throw"}),
					"round-time": 1786320000,
				},
			},
		})
	})

	got, err := c.QueryHarvests(context.Background(), "ALICE")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 harvests (non-harvest note skipped), got %d", len(got))
	}
	// Newest harvest time first; HARV2 falls back to its round time.
	if got[0].TxID.String() != "HARV2" || got[1].TxID.String() != "HARV1" {
		t.Errorf("unexpected order: %s, %s", got[0].TxID.String(), got[1].TxID.String())
	}
	if got[0].ThrowLedgerID != 303 {
		t.Errorf("string-encoded asset id not parsed: %d", got[0].ThrowLedgerID)
	}
	if got[0].Quantity != domain.QuantitySmall {
		t.Errorf("unknown quantity class must default to small, got %s", got[0].Quantity)
	}
	if got[1].ThrowLedgerID != 101 || got[1].Quantity != domain.QuantityMedium {
		t.Errorf("harvest fields mismatch: %+v", got[1])
	}
	if got[0].TxID.IsPlaceholder() || got[1].TxID.IsPlaceholder() {
		t.Error("ledger harvests must carry confirmed ids")
	}
}

func TestQueryHarvestsFailure(t *testing.T) {
	c := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := c.QueryHarvests(context.Background(), "ALICE")
	if !errors.Is(err, domain.ErrLedgerUnavailable) {
		t.Errorf("expected ErrLedgerUnavailable, got %v", err)
	}
}
