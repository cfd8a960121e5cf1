package app

import (
	"fmt"
	"os"

	"jurydb/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks
// light so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, JURYDB_DB_PATH env, or server.db_path in config")
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if len(eff.Config.Security.APIKeys.Backend) == 0 &&
		len(eff.Config.Security.APIKeys.Frontend) == 0 &&
		len(eff.Config.Security.APIKeys.Admin) == 0 {
		// not fatal: the gate will reject every request, which is a
		// legitimate locked-down state, but worth a loud warning later
		fmt.Fprintln(os.Stderr, "warning: no API keys configured; all requests will be rejected")
	}

	return nil
}
