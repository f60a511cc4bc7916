package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from WHOISIT_* environment variables. Empty
// variables are ignored.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("WHOISIT_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}

	if v := os.Getenv("WHOISIT_SESSION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid WHOISIT_SESSION_TIMEOUT: %w", err)
		}
		cfg.Server.SessionTimeout = Duration(d)
	}

	if v := os.Getenv("WHOISIT_MAX_LOOKUPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WHOISIT_MAX_LOOKUPS: %w", err)
		}
		cfg.Server.MaxLookups = n
	}

	if v := os.Getenv("WHOISIT_BACKEND"); v != "" {
		cfg.Lookup.Backend = v
	}

	if v := os.Getenv("WHOISIT_LSOF_PATH"); v != "" {
		cfg.Lookup.LsofPath = v
	}

	if v := os.Getenv("WHOISIT_PROC_ROOT"); v != "" {
		cfg.Lookup.ProcRoot = v
	}

	if v := os.Getenv("WHOISIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("WHOISIT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}

// LoadConfig is Load followed by ApplyEnv.
func LoadConfig(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
