package app

import (
	"github.com/spf13/cobra"

	"github.com/pranshuparmar/whoisit/internal/tui"
)

var connectionsFlags backendFlags

var connectionsCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conns"},
	Short:   "Browse local TCP connections and the ident reply for each",
	Args:    cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		b, err := connectionsFlags.resolve()
		if err != nil {
			return err
		}
		return tui.Start(b, versionString())
	},
}

func init() {
	connectionsFlags.register(connectionsCmd)
}
