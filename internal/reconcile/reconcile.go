// Package reconcile schedules periodic index reconciliation sweeps.
// Record and index writes are not atomic, so an index can reference ids
// whose record write never landed; the sweep drops those entries.
package reconcile

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adhocore/gronx"

	"jurydb/pkg/config"
	"jurydb/pkg/logger"
	"jurydb/pkg/progress"
	"jurydb/pkg/state"
	"jurydb/pkg/telemetry"
)

var (
	storedStore *progress.Store
)

// SetStore registers the progress store so tests or admin triggers can
// invoke reconciliation on demand.
func SetStore(s *progress.Store) {
	storedStore = s
}

// RunImmediate triggers a single reconciliation sweep using the
// registered store.
func RunImmediate(ctx context.Context) (int, error) {
	if storedStore == nil {
		return 0, fmt.Errorf("no store registered for reconciliation run")
	}
	return runOnce(ctx, storedStore)
}

// Start starts the reconciliation scheduler if enabled. Returns a
// cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult, s *progress.Store) (context.CancelFunc, error) {
	rc := eff.Config.Reconcile
	if !rc.Enabled {
		logger.Info("reconcile_disabled")
		return func() {}, nil
	}

	// lock/artifact directory under the DB state path
	if p := state.PathsVar.Reconcile; p != "" {
		if err := os.MkdirAll(p, 0o700); err != nil {
			logger.Error("reconcile_path_create_failed", "path", p, "error", err)
			return nil, err
		}
	}

	cronExpr := rc.Cron
	if cronExpr == "" {
		cronExpr = "0 3 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("reconcile_invalid_cron", "cron", rc.Cron)
		return nil, fmt.Errorf("invalid reconcile cron expression: %s", rc.Cron)
	}

	SetStore(s)

	logger.Info("reconcile_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, s, cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick for the configured cron
// expression with gronx and sleeps until then.
func runScheduler(ctx context.Context, s *progress.Store, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("reconcile_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("reconcile_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-time.After(wait):
			if _, err := runOnce(ctx, s); err != nil {
				logger.Error("reconcile_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("reconcile_scheduler_stopping")
			return
		}
	}
}

// runOnce performs a single sweep and records the drop count.
func runOnce(ctx context.Context, s *progress.Store) (int, error) {
	start := time.Now()
	dropped, err := s.ReconcileIndexes(ctx)
	if err != nil {
		return dropped, err
	}
	if dropped > 0 {
		telemetry.ReconcileDrops.Add(float64(dropped))
	}
	logger.Info("reconcile_run_ok", "dropped", dropped, "took", time.Since(start).String())
	return dropped, nil
}
