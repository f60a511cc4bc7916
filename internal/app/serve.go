package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/pranshuparmar/whoisit/internal/config"
	"github.com/pranshuparmar/whoisit/internal/lookup"
	"github.com/pranshuparmar/whoisit/internal/server"
)

var serveFlags struct {
	config         string
	listen         string
	backend        string
	lsofPath       string
	procRoot       string
	logLevel       string
	logFormat      string
	sessionTimeout config.Duration
	maxLookups     int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ident responder",
	Long: `Run the ident responder until interrupted.

Settings are taken from the defaults, then the --config file, then WHOISIT_*
environment variables, then the flags below.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(serveFlags.config, func(c *config.Config) {
			applyServeFlags(cmd, c)
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func init() {
	def := config.Default()
	serveFlags.sessionTimeout = def.Server.SessionTimeout

	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.config, "config", "c", "", "path to a YAML configuration file")
	f.StringVarP(&serveFlags.listen, "listen", "l", def.Server.Listen, "address to listen on")
	f.StringVar(&serveFlags.backend, "backend", def.Lookup.Backend, "connection lookup backend: lsof or procnet")
	f.StringVar(&serveFlags.lsofPath, "lsof-path", def.Lookup.LsofPath, "lsof binary used by the lsof backend")
	f.StringVar(&serveFlags.procRoot, "proc-root", def.Lookup.ProcRoot, "procfs mount used by the procnet backend")
	f.StringVar(&serveFlags.logLevel, "log-level", def.Logging.Level, "minimum log level: debug, info, warn or error")
	f.StringVar(&serveFlags.logFormat, "log-format", def.Logging.Format, "log format: logfmt or json")
	f.Var(&serveFlags.sessionTimeout, "session-timeout", "bound on one session, 0 disables")
	f.IntVar(&serveFlags.maxLookups, "max-lookups", def.Server.MaxLookups, "concurrent lookups allowed, 0 for no limit")
}

// applyServeFlags copies the flags the user actually set over c.
func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("listen") {
		c.Server.Listen = serveFlags.listen
	}
	if f.Changed("backend") {
		c.Lookup.Backend = serveFlags.backend
	}
	if f.Changed("lsof-path") {
		c.Lookup.LsofPath = serveFlags.lsofPath
	}
	if f.Changed("proc-root") {
		c.Lookup.ProcRoot = serveFlags.procRoot
	}
	if f.Changed("log-level") {
		c.Logging.Level = serveFlags.logLevel
	}
	if f.Changed("log-format") {
		c.Logging.Format = serveFlags.logFormat
	}
	if f.Changed("session-timeout") {
		c.Server.SessionTimeout = serveFlags.sessionTimeout
	}
	if f.Changed("max-lookups") {
		c.Server.MaxLookups = serveFlags.maxLookups
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return err
	}

	b, err := newBackend(cfg.Lookup)
	if err != nil {
		return err
	}
	lk := lookup.Limit(b, cfg.Server.MaxLookups)

	level.Info(logger).Log(
		"msg", "Starting whoisit",
		"version", versionString(),
		"listen", cfg.Server.Listen,
		"backend", cfg.Lookup.Backend,
		"session_timeout", cfg.Server.SessionTimeout,
		"max_lookups", cfg.Server.MaxLookups,
	)

	srv := server.New(lk, logger, server.Options{
		SessionTimeout: cfg.Server.SessionTimeout.Std(),
	})
	if err := srv.ListenAndServe(ctx, cfg.Server.Listen); err != nil {
		level.Error(logger).Log("msg", "Server failed", "err", err)
		return err
	}
	return nil
}
