// Package indexer implements domain.Ledger against an Algorand-indexer
// compatible REST API. Throws are assets created by the owner whose asset
// config transaction carries an arc69 note with eden_type "throw"; harvests
// are zero-amount pay transactions by the owner with eden_type "harvest".
//
// The indexer is eventually consistent: freshly submitted writes are not
// visible for a while, results can be partial, and individual notes can be
// malformed. Malformed items are skipped, never fatal.
package indexer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
)

// ─── Config ─────────────────────────────────────────────────────────────────

// Config controls the indexer client.
type Config struct {
	BaseURL string        // e.g. https://testnet-idx.algonode.cloud
	Timeout time.Duration // per-request timeout (default: 15s)
}

// DefaultConfig returns the public testnet indexer defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://testnet-idx.algonode.cloud",
		Timeout: 15 * time.Second,
	}
}

// Client queries the indexer. It implements domain.Ledger.
type Client struct {
	base string
	http *http.Client
}

// New creates an indexer client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// ─── Wire types ─────────────────────────────────────────────────────────────

type assetsResponse struct {
	Assets []struct {
		Index int64 `json:"index"`
	} `json:"assets"`
}

type transactionsResponse struct {
	Transactions []indexerTxn `json:"transactions"`
}

type indexerTxn struct {
	ID        string `json:"id"`
	Note      string `json:"note"` // base64
	RoundTime int64  `json:"round-time"`
}

// arc69Note is the decoded note payload.
type arc69Note struct {
	Standard   string          `json:"standard"`
	Properties json.RawMessage `json:"properties"`
}

type throwProps struct {
	EdenType      string `json:"eden_type"`
	PodTypeID     string `json:"podTypeId"`
	PodTypeName   string `json:"podTypeName"`
	PodTypeIcon   string `json:"podTypeIcon"`
	ThrowDate     string `json:"throwDate"`
	LocationLabel string `json:"locationLabel"`
	GrowthModelID string `json:"growthModelId"`
	ThrownBy      string `json:"thrownBy"`
}

type harvestProps struct {
	EdenType      string          `json:"eden_type"`
	ThrowAsaID    json.RawMessage `json:"throwAsaId"` // number or quoted string
	PlantID       string          `json:"plantId"`
	QuantityClass string          `json:"quantityClass"`
	HarvestedAt   string          `json:"harvestedAt"`
	Notes         string          `json:"notes"`
}

// ─── domain.Ledger implementation ───────────────────────────────────────────

// QueryThrows returns the confirmed throws for an owner: every asset the
// owner created whose config transaction carries a throw note. Per-asset
// failures are skipped; only the asset listing itself is fatal.
func (c *Client) QueryThrows(ctx context.Context, owner string) ([]domain.Throw, error) {
	var assets assetsResponse
	q := url.Values{"creator": {owner}}
	if err := c.get(ctx, "/v2/assets", q, &assets); err != nil {
		return nil, fmt.Errorf("list assets for %s: %w", owner, err)
	}

	out := make([]domain.Throw, 0, len(assets.Assets))
	for _, a := range assets.Assets {
		t, err := c.fetchThrow(ctx, a.Index)
		if err != nil {
			log.Printf("[indexer] asset %d skipped: %v", a.Index, err)
			continue
		}
		if t != nil {
			out = append(out, *t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ThrowDate.After(out[j].ThrowDate)
	})
	return out, nil
}

// fetchThrow resolves one asset's config transactions into a Throw, or nil
// when no transaction carries a throw note.
func (c *Client) fetchThrow(ctx context.Context, assetID int64) (*domain.Throw, error) {
	var resp transactionsResponse
	q := url.Values{
		"asset-id": {fmt.Sprintf("%d", assetID)},
		"tx-type":  {"acfg"},
	}
	if err := c.get(ctx, "/v2/transactions", q, &resp); err != nil {
		return nil, err
	}

	// Newest config transaction with a valid throw note wins.
	for i := len(resp.Transactions) - 1; i >= 0; i-- {
		tx := resp.Transactions[i]
		var props throwProps
		if !decodeNote(tx.Note, &props) || props.EdenType != "throw" {
			continue
		}

		confirmedAt := time.Unix(tx.RoundTime, 0).UTC()
		throwDate := parseTimeOr(props.ThrowDate, confirmedAt)
		modelID := props.GrowthModelID
		if modelID == "" {
			modelID = "temperate-herb"
		}

		return &domain.Throw{
			LocalID:       domain.ChainLocalID(assetID),
			LedgerID:      assetID,
			TxID:          tx.ID,
			PodTypeID:     props.PodTypeID,
			PodTypeName:   props.PodTypeName,
			PodTypeIcon:   props.PodTypeIcon,
			ThrowDate:     throwDate,
			LocationLabel: props.LocationLabel,
			GrowthModelID: modelID,
			ThrownBy:      props.ThrownBy,
			ConfirmedAt:   confirmedAt,
		}, nil
	}
	return nil, nil
}

// QueryHarvests returns the confirmed harvests for an owner: pay
// transactions sent by the owner carrying a harvest note.
func (c *Client) QueryHarvests(ctx context.Context, owner string) ([]domain.Harvest, error) {
	var resp transactionsResponse
	q := url.Values{
		"address":      {owner},
		"address-role": {"sender"},
		"tx-type":      {"pay"},
	}
	if err := c.get(ctx, "/v2/transactions", q, &resp); err != nil {
		return nil, fmt.Errorf("list harvests for %s: %w", owner, err)
	}

	var out []domain.Harvest
	for _, tx := range resp.Transactions {
		var props harvestProps
		if !decodeNote(tx.Note, &props) || props.EdenType != "harvest" {
			continue
		}

		confirmedAt := time.Unix(tx.RoundTime, 0).UTC()
		quantity := domain.QuantityClass(props.QuantityClass)
		if !quantity.Valid() {
			quantity = domain.QuantitySmall
		}

		out = append(out, domain.Harvest{
			TxID:          domain.ConfirmedTxID(tx.ID),
			ThrowLedgerID: parseAsaID(props.ThrowAsaID),
			PlantID:       props.PlantID,
			Quantity:      quantity,
			Notes:         props.Notes,
			HarvestedAt:   parseTimeOr(props.HarvestedAt, confirmedAt),
			ConfirmedAt:   confirmedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].HarvestedAt.After(out[j].HarvestedAt)
	})
	return out, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// get performs one JSON GET against the indexer.
func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: indexer returned %s", domain.ErrLedgerUnavailable, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// decodeNote decodes a base64 arc69 note into props. Returns false for
// empty, undecodable, or non-arc69 notes.
func decodeNote(note string, props any) bool {
	if note == "" {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(note)
	if err != nil {
		return false
	}

	var n arc69Note
	if err := json.Unmarshal(raw, &n); err != nil || n.Standard != "arc69" || len(n.Properties) == 0 {
		return false
	}
	return json.Unmarshal(n.Properties, props) == nil
}

// parseAsaID accepts the asset id as a JSON number or quoted string —
// both occur in the wild depending on who encoded the note.
func parseAsaID(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		fmt.Sscanf(s, "%d", &n)
	}
	return n
}

func parseTimeOr(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fallback
	}
	return t
}
