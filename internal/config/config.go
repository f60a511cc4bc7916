// Package config loads the whoisit configuration: defaults, then an optional
// YAML file, then WHOISIT_* environment overrides.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pranshuparmar/whoisit/internal/lookup"
	"github.com/pranshuparmar/whoisit/internal/server"
)

const (
	BackendLsof    = "lsof"
	BackendProcNet = "procnet"
)

type Config struct {
	Server  ServerSection  `yaml:"server"`
	Lookup  LookupSection  `yaml:"lookup"`
	Logging LoggingSection `yaml:"logging"`
}

type ServerSection struct {
	// Listen is the TCP address to bind, e.g. ":113" or "[::]:113".
	Listen string `yaml:"listen"`
	// SessionTimeout bounds a whole session. Zero disables the deadline.
	SessionTimeout Duration `yaml:"session_timeout"`
	// MaxLookups caps concurrent lookups. Zero means unlimited.
	MaxLookups int `yaml:"max_lookups"`
}

type LookupSection struct {
	// Backend is "lsof" or "procnet".
	Backend  string `yaml:"backend"`
	LsofPath string `yaml:"lsof_path"`
	ProcRoot string `yaml:"proc_root"`
}

type LoggingSection struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is logfmt or json.
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerSection{
			Listen:         server.DefaultAddr,
			SessionTimeout: Duration(30 * time.Second),
			MaxLookups:     64,
		},
		Lookup: LookupSection{
			Backend:  BackendLsof,
			LsofPath: lookup.DefaultLsofPath,
			ProcRoot: lookup.DefaultProcRoot,
		},
		Logging: LoggingSection{
			Level:  "info",
			Format: "logfmt",
		},
	}
}

// Duration is a time.Duration written in YAML as a Go duration string ("30s").
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Set and Type make Duration usable as a command line flag.
func (d *Duration) Set(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) Type() string { return "duration" }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}
