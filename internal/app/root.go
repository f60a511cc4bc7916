// Package app wires the whoisit command line.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = ""
	commit    = ""
	buildDate = ""
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "whoisit",
	Short: "RFC 1413 ident responder",
	Long: `whoisit answers ident (RFC 1413) queries: given a pair of ports, it reports
which local user owns the TCP connection between them.

Run "whoisit serve" to start the responder on port 113. The other commands
query a remote ident server or inspect local connections the same way the
responder does.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized output")
	rootCmd.AddCommand(serveCmd, queryCmd, lookupCmd, connectionsCmd, versionCmd)
}

// SetVersionBuildCommitString records the values injected at build time.
func SetVersionBuildCommitString(v, c, d string) {
	version = v
	commit = c
	buildDate = d
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// colorEnabled reports whether w should get ANSI colors.
func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
