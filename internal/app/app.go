package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"jurydb/internal/reconcile"
	"jurydb/pkg/config"
	"jurydb/pkg/logger"
	"jurydb/pkg/progress"
	"jurydb/pkg/schema"
	"jurydb/pkg/state"
	"jurydb/pkg/store"
	"jurydb/pkg/telemetry"
	"jurydb/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	pb *store.Pebble
	ps *progress.Store

	srv *http.Server
}

// New initializes resources that do not require a running context
// (state dirs, DB, validation rules, runtime keys). Call Run to start
// the schedulers and the HTTP server and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate effective config early and fail fast
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	initRuntimeKeys(eff)
	initValidation(eff)

	if err := state.EnsureStateDirs(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to prepare state dirs under %s: %w", eff.DBPath, err)
	}

	// the store lives in its own subdir so crash dumps and reconcile
	// artifacts under state/ never mix with pebble's files
	pb, err := store.Open(state.PathsVar.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", state.PathsVar.Store, err)
	}

	return &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		pb:        pb,
		ps:        progress.New(pb),
	}, nil
}

// Store exposes the progress store, mainly for tests and tooling.
func (a *App) Store() *progress.Store { return a.ps }

// Run migrates the schema, starts the reconciler and the HTTP server,
// and blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	migrated, err := schema.Run(ctx, a.pb)
	if err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	if migrated {
		logger.Info("schema_migrated", "version", schema.Version)
	}

	a.printBanner()

	cancelReconcile, err := reconcile.Start(ctx, a.eff, a.ps)
	if err != nil {
		return err
	}
	defer cancelReconcile()

	go a.pollStoreMetrics(ctx)

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			a.shutdown()
			return err
		}
		return nil
	}
}

// shutdown drains the HTTP server and closes the store.
func (a *App) shutdown() {
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(ctx); err != nil {
			logger.Warn("http_shutdown_error", "error", err)
		}
	}
	if err := a.pb.Close(); err != nil {
		logger.Warn("store_close_error", "error", err)
	}
	logger.Info("shutdown_complete")
}

// pollStoreMetrics publishes store-level gauges on a fixed cadence.
func (a *App) pollStoreMetrics(ctx context.Context) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m := a.pb.GetMetrics()
			telemetry.SetStoreMetrics(m.DiskBytes, m.L0Files)
		}
	}
}

// initRuntimeKeys publishes the backend API keys and signing secrets
// for global use. Backend keys double as signing secrets so signatures
// issued via /_sign verify without extra configuration.
func initRuntimeKeys(eff config.EffectiveConfigResult) {
	rc := &config.RuntimeConfig{BackendKeys: map[string]struct{}{}, SigningKeys: map[string]struct{}{}}
	for _, k := range eff.Config.Security.APIKeys.Backend {
		rc.BackendKeys[k] = struct{}{}
		rc.SigningKeys[k] = struct{}{}
	}
	for _, k := range eff.Config.Security.SigningKeys {
		rc.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(rc)
}

// initValidation builds validation rules from config and sets them
// globally.
func initValidation(eff config.EffectiveConfigResult) {
	validation.SetRules(validation.Rules{
		MaxPayloadBytes: int64(eff.Config.Limits.MaxPayloadBytes),
		MaxUserLen:      eff.Config.Limits.MaxUserLen,
	})
}
