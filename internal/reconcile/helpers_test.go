package reconcile

import (
	"jurydb/pkg/config"
)

func testEff(enabled bool, cron string) config.EffectiveConfigResult {
	cfg := &config.Config{}
	cfg.Reconcile.Enabled = enabled
	cfg.Reconcile.Cron = cron
	return config.EffectiveConfigResult{Config: cfg}
}
