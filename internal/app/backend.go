package app

import (
	"fmt"

	"github.com/pranshuparmar/whoisit/internal/config"
	"github.com/pranshuparmar/whoisit/internal/lookup"
	"github.com/pranshuparmar/whoisit/internal/tui"
)

// backend is a lookup source that can also list every connection.
type backend interface {
	lookup.Lookuper
	tui.Lister
}

func newBackend(cfg config.LookupSection) (backend, error) {
	switch cfg.Backend {
	case config.BackendLsof, "":
		return lookup.Lsof{Path: cfg.LsofPath}, nil
	case config.BackendProcNet:
		return lookup.ProcNet{Root: cfg.ProcRoot}, nil
	}
	return nil, fmt.Errorf("unknown lookup backend %q", cfg.Backend)
}

// loadConfig resolves the configuration file and environment, then applies
// the command line overrides in flags.
func loadConfig(path string, override func(*config.Config)) (config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
