package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("EDEN_HOME", home)

	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" || cfg.API.Port != 8642 {
		t.Errorf("unexpected API defaults: %+v", cfg.API)
	}
	if !cfg.API.Metrics {
		t.Error("metrics should default to enabled")
	}
	if cfg.Ledger.IndexerURL != "https://testnet-idx.algonode.cloud" {
		t.Errorf("unexpected indexer default: %s", cfg.Ledger.IndexerURL)
	}
	if cfg.Poll.IntervalSeconds != 5 || cfg.Poll.MaxAttempts != 60 || cfg.Poll.PendingTTLSeconds != 300 {
		t.Errorf("unexpected poll defaults: %+v", cfg.Poll)
	}
	if want := filepath.Join(home, "cache.db"); cfg.Cache.Path != want {
		t.Errorf("expected cache path %s, got %s", want, cfg.Cache.Path)
	}

	if got := cfg.ListenAddr(); got != "127.0.0.1:8642" {
		t.Errorf("unexpected listen addr: %s", got)
	}

	rc := cfg.ReconcileConfig()
	if rc.PollInterval != 5*time.Second || rc.MaxPollAttempts != 60 || rc.PendingTTL != 5*time.Minute {
		t.Errorf("unexpected reconcile config: %+v", rc)
	}
	if got := cfg.LedgerTimeout(); got != 15*time.Second {
		t.Errorf("unexpected ledger timeout: %s", got)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("EDEN_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("missing config file must not error: %v", err)
	}
	if cfg.API.Port != 8642 {
		t.Errorf("expected defaults, got port %d", cfg.API.Port)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[api]
host = "0.0.0.0"
port = 9000
metrics = false

[ledger]
indexer_url = "http://localhost:8980"
timeout_seconds = 5

[poll]
interval_seconds = 2
max_attempts = 10
pending_ttl_seconds = 60

[cache]
path = "/var/lib/eden/cache.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 9000 || cfg.API.Metrics {
		t.Errorf("api section not applied: %+v", cfg.API)
	}
	if cfg.Ledger.IndexerURL != "http://localhost:8980" || cfg.LedgerTimeout() != 5*time.Second {
		t.Errorf("ledger section not applied: %+v", cfg.Ledger)
	}
	rc := cfg.ReconcileConfig()
	if rc.PollInterval != 2*time.Second || rc.MaxPollAttempts != 10 || rc.PendingTTL != time.Minute {
		t.Errorf("poll section not applied: %+v", rc)
	}
	if cfg.Cache.Path != "/var/lib/eden/cache.db" {
		t.Errorf("cache section not applied: %s", cfg.Cache.Path)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("EDEN_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nport = 7777\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.Port != 7777 {
		t.Errorf("override not applied: %d", cfg.API.Port)
	}
	if cfg.Poll.IntervalSeconds != 5 {
		t.Errorf("untouched sections must keep defaults, got %+v", cfg.Poll)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nport ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error for malformed TOML")
	}
}
