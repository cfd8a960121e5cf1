package config

import (
	"flag"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged view of flags, config file and
// environment the rest of the server consumes.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "config", or "env"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// LoadEffective merges config file, env overrides and flags into an
// EffectiveConfigResult plus the derived backend/signing key sets.
// Explicit flags win over env, which wins over the file.
func LoadEffective(flags Flags) (EffectiveConfigResult, map[string]struct{}, map[string]struct{}, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	source := "config"
	if err != nil {
		// a config path the operator asked for explicitly must exist
		if flags.Set["config"] {
			return EffectiveConfigResult{}, nil, nil, err
		}
		cfg = &Config{}
		source = "flags"
	}
	backendKeys, signingKeys, envUsed := LoadEnvOverrides(cfg)
	if envUsed && source == "flags" {
		source = "env"
	}

	addr := cfg.Addr()
	if flags.Set["addr"] || (cfg.Server.Address == "" && cfg.Server.Port == 0 && !envUsed) {
		addr = flags.Addr
	}
	dbPath := cfg.Server.DBPath
	if flags.Set["db"] || dbPath == "" {
		dbPath = flags.DB
	}
	if len(flags.Set) > 0 {
		source = "flags"
	}
	return EffectiveConfigResult{Config: cfg, Addr: addr, DBPath: dbPath, Source: source}, backendKeys, signingKeys, nil
}
