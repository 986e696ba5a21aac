package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/algotables/Eden-Pods-POC-v3/internal/api"
	"github.com/algotables/Eden-Pods-POC-v3/internal/app/reconcile"
	"github.com/algotables/Eden-Pods-POC-v3/internal/daemon"
	"github.com/algotables/Eden-Pods-POC-v3/internal/infra/catalog"
	"github.com/algotables/Eden-Pods-POC-v3/internal/infra/indexer"
	"github.com/algotables/Eden-Pods-POC-v3/internal/infra/sqlite"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation daemon",
	Long: `serve starts the Eden daemon: it opens the durable per-owner cache,
connects the indexer client, and serves the reconciliation API over HTTP
until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to config.toml (default: $EDEN_HOME/config.toml)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig(serveConfigPath)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Cache.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	cache, err := sqlite.Open(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer cache.Close()

	ledger := indexer.New(indexer.Config{
		BaseURL: cfg.Ledger.IndexerURL,
		Timeout: cfg.LedgerTimeout(),
	})

	session := reconcile.NewSession(ledger, cache, catalog.Resolver{}, cfg.ReconcileConfig())
	defer session.ClearOwner()

	server := api.NewServer(session)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] eden %s listening on %s (indexer %s)", Version, cfg.ListenAddr(), cfg.Ledger.IndexerURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Printf("[daemon] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	log.Printf("[daemon] stopped")
	return nil
}
