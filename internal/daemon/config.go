// Package daemon holds the daemon configuration, loaded from a TOML file
// with sensible defaults for every field.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/algotables/Eden-Pods-POC-v3/internal/app/reconcile"
)

// Config is the full daemon configuration.
type Config struct {
	API    APIConfig    `toml:"api"`
	Ledger LedgerConfig `toml:"ledger"`
	Poll   PollConfig   `toml:"poll"`
	Cache  CacheConfig  `toml:"cache"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// LedgerConfig points at the Algorand indexer.
type LedgerConfig struct {
	IndexerURL     string `toml:"indexer_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PollConfig controls the confirmation poller and pending expiry.
type PollConfig struct {
	IntervalSeconds   int `toml:"interval_seconds"`
	MaxAttempts       int `toml:"max_attempts"`
	PendingTTLSeconds int `toml:"pending_ttl_seconds"`
}

// CacheConfig controls the durable per-owner cache.
type CacheConfig struct {
	Path string `toml:"path"`
}

// DefaultConfig returns the daemon defaults: local API on 8642, the public
// testnet indexer, a 5-second poll with a 60-attempt ceiling, a 5-minute
// pending TTL, and a cache under ~/.eden.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8642,
			Metrics: true,
		},
		Ledger: LedgerConfig{
			IndexerURL:     "https://testnet-idx.algonode.cloud",
			TimeoutSeconds: 15,
		},
		Poll: PollConfig{
			IntervalSeconds:   5,
			MaxAttempts:       60,
			PendingTTLSeconds: 300,
		},
		Cache: CacheConfig{
			Path: defaultCachePath(),
		},
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file
// is not an error — defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = defaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the host:port the API listens on.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// ReconcileConfig converts the poll section into engine timing.
func (c Config) ReconcileConfig() reconcile.Config {
	return reconcile.Config{
		PollInterval:    time.Duration(c.Poll.IntervalSeconds) * time.Second,
		MaxPollAttempts: c.Poll.MaxAttempts,
		PendingTTL:      time.Duration(c.Poll.PendingTTLSeconds) * time.Second,
	}
}

// LedgerTimeout returns the per-request indexer timeout.
func (c Config) LedgerTimeout() time.Duration {
	return time.Duration(c.Ledger.TimeoutSeconds) * time.Second
}

func edenHome() string {
	if env := os.Getenv("EDEN_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".eden")
}

func defaultConfigPath() string {
	return filepath.Join(edenHome(), "config.toml")
}

func defaultCachePath() string {
	return filepath.Join(edenHome(), "cache.db")
}
