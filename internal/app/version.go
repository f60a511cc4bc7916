package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func versionString() string {
	v := version
	if v == "" {
		v = "dev"
	}
	s := "whoisit " + v
	if commit != "" {
		s += " (" + commit
		if buildDate != "" {
			s += ", built " + buildDate
		}
		s += ")"
	}
	return s
}
