// Package sqlite implements the per-owner durable cache on SQLite.
// Each of the three reconciliation collections (confirmed throws, pending
// throws, harvests) is stored as one JSON blob keyed by owner and
// collection name. Writes are full-collection replacements; there is no
// read-modify-write across processes.
//
// The cache is best-effort, never authoritative — the ledger is. Reads that
// fail or do not parse yield empty collections, and write failures are
// logged and swallowed.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"log"

	_ "modernc.org/sqlite"

	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
)

// compatVersion is embedded in the collection key. Bumping it orphans old
// rows, which read back as empty — incompatible formats are never migrated.
const compatVersion = "v3"

const (
	colConfirmed = "confirmed"
	colPending   = "pending"
	colHarvests  = "harvests"
)

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the cache schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS owner_cache (
			owner      TEXT NOT NULL,
			collection TEXT NOT NULL,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (owner, collection)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_owner_cache_owner ON owner_cache(owner)`,
	}
}

// ─── Cache ──────────────────────────────────────────────────────────────────

// Cache is the SQLite-backed implementation of domain.Cache.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path and applies
// the schema. Use ":memory:" for an ephemeral cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// ─── domain.Cache implementation ────────────────────────────────────────────

// LoadConfirmed returns the cached confirmed throws for an owner.
func (c *Cache) LoadConfirmed(owner string) []domain.Throw {
	var out []domain.Throw
	c.load(owner, colConfirmed, &out)
	return out
}

// SaveConfirmed replaces the cached confirmed throws for an owner.
func (c *Cache) SaveConfirmed(owner string, throws []domain.Throw) {
	c.save(owner, colConfirmed, throws, len(throws) == 0)
}

// LoadPending returns the cached pending throws for an owner. TTL filtering
// is reconciliation policy and happens in the engine, not here.
func (c *Cache) LoadPending(owner string) []domain.Throw {
	var out []domain.Throw
	c.load(owner, colPending, &out)
	return out
}

// SavePending replaces the cached pending throws for an owner. An empty
// set deletes the row.
func (c *Cache) SavePending(owner string, throws []domain.Throw) {
	c.save(owner, colPending, throws, len(throws) == 0)
}

// LoadHarvests returns the cached harvests for an owner.
func (c *Cache) LoadHarvests(owner string) []domain.Harvest {
	var out []domain.Harvest
	c.load(owner, colHarvests, &out)
	return out
}

// SaveHarvests replaces the cached harvests for an owner.
func (c *Cache) SaveHarvests(owner string, harvests []domain.Harvest) {
	c.save(owner, colHarvests, harvests, len(harvests) == 0)
}

// ─── Internals ──────────────────────────────────────────────────────────────

func collectionKey(name string) string {
	return name + "-" + compatVersion
}

// load reads one collection into dest. Missing rows and unparseable
// payloads both leave dest empty.
func (c *Cache) load(owner, collection string, dest any) {
	var payload string
	err := c.db.QueryRow(`
		SELECT payload FROM owner_cache WHERE owner = ? AND collection = ?
	`, owner, collectionKey(collection)).Scan(&payload)
	if err == sql.ErrNoRows {
		return
	}
	if err != nil {
		log.Printf("[cache] load %s/%s: %v", owner, collection, err)
		return
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		log.Printf("[cache] unparseable %s/%s payload, treating as empty: %v", owner, collection, err)
	}
}

// save replaces one collection. Empty collections delete the row so stale
// keys do not accumulate.
func (c *Cache) save(owner, collection string, v any, empty bool) {
	if empty {
		if _, err := c.db.Exec(`
			DELETE FROM owner_cache WHERE owner = ? AND collection = ?
		`, owner, collectionKey(collection)); err != nil {
			log.Printf("[cache] delete %s/%s: %v", owner, collection, err)
		}
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[cache] marshal %s/%s: %v", owner, collection, err)
		return
	}

	if _, err := c.db.Exec(`
		INSERT INTO owner_cache (owner, collection, payload, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(owner, collection) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = datetime('now')
	`, owner, collectionKey(collection), string(payload)); err != nil {
		log.Printf("[cache] save %s/%s: %v", owner, collection, err)
	}
}
