package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate checks a fully resolved configuration.
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return errors.New("server.listen must be set")
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("invalid server.listen %q: %w", c.Server.Listen, err)
	}
	if c.Server.SessionTimeout < 0 {
		return fmt.Errorf("server.session_timeout must not be negative, got %s", c.Server.SessionTimeout)
	}
	if c.Server.MaxLookups < 0 {
		return fmt.Errorf("server.max_lookups must not be negative, got %d", c.Server.MaxLookups)
	}

	switch c.Lookup.Backend {
	case BackendLsof:
		if c.Lookup.LsofPath == "" {
			return errors.New("lookup.lsof_path must be set for the lsof backend")
		}
	case BackendProcNet:
		if c.Lookup.ProcRoot == "" {
			return errors.New("lookup.proc_root must be set for the procnet backend")
		}
	default:
		return fmt.Errorf("lookup.backend must be %q or %q, got %q", BackendLsof, BackendProcNet, c.Lookup.Backend)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "logfmt", "json":
	default:
		return fmt.Errorf("logging.format must be logfmt or json, got %q", c.Logging.Format)
	}
	return nil
}
