package app

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pranshuparmar/whoisit/internal/config"
	"github.com/pranshuparmar/whoisit/internal/output"
	"github.com/pranshuparmar/whoisit/internal/pipeline"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

// backendFlags selects the lookup backend for the local inspection commands.
type backendFlags struct {
	config  string
	backend string
}

func (b *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&b.config, "config", "c", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&b.backend, "backend", "", "connection lookup backend: lsof or procnet")
}

func (b *backendFlags) resolve() (backend, error) {
	cfg, err := loadConfig(b.config, func(c *config.Config) {
		if b.backend != "" {
			c.Lookup.Backend = b.backend
		}
	})
	if err != nil {
		return nil, err
	}
	return newBackend(cfg.Lookup)
}

var lookupFlags struct {
	backendFlags
	all  bool
	json bool
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <remote-ip> <remote-port> [local-port]",
	Short: "Run the responder's connection lookup locally",
	Long: `Run the same lookup the responder performs for a peer at
<remote-ip>:<remote-port>. With [local-port], report the user the responder
would name for that port; without it, list every matching connection.`,
	Example: "  whoisit lookup 192.0.2.10 6667 40123\n  whoisit lookup ::1 443 --all --json",
	Args:    cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		acfg, err := parseLookupArgs(args)
		if err != nil {
			return err
		}
		acfg.All = lookupFlags.all

		b, err := lookupFlags.resolve()
		if err != nil {
			return err
		}

		res, err := pipeline.Analyze(cmd.Context(), b, acfg)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if lookupFlags.json {
			out, err := output.ToJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, out)
			return nil
		}
		output.PrintResult(w, res, colorEnabled(w))
		return nil
	},
}

func init() {
	lookupFlags.register(lookupCmd)
	lookupCmd.Flags().BoolVar(&lookupFlags.all, "all", false, "list every matching connection, not just the owner")
	lookupCmd.Flags().BoolVar(&lookupFlags.json, "json", false, "print the result as JSON")
}

func parseLookupArgs(args []string) (pipeline.AnalyzeConfig, error) {
	var cfg pipeline.AnalyzeConfig
	ip, err := netip.ParseAddr(args[0])
	if err != nil {
		return cfg, fmt.Errorf("invalid remote address %q: %w", args[0], err)
	}
	remotePort, err := parsePortArg("remote port", args[1])
	if err != nil {
		return cfg, err
	}
	cfg.Remote = model.RemoteEndpoint{IP: ip, Port: remotePort}
	if len(args) > 2 {
		if cfg.LocalPort, err = parsePortArg("local port", args[2]); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func parsePortArg(name, s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return uint16(n), nil
}
