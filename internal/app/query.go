package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pranshuparmar/whoisit/internal/client"
	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/internal/output"
)

var queryFlags struct {
	json    bool
	timeout time.Duration
}

var queryCmd = &cobra.Command{
	Use:   "query <host[:port]> <server-port> <client-port>",
	Short: "Ask a remote ident server who owns a connection",
	Long: `Ask the ident server on host who owns the TCP connection from its
<server-port> to our <client-port>. The port defaults to 113.`,
	Example: "  whoisit query irc.example.net 6667 40123",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := ident.ParseQuery(args[1] + "," + args[2])
		if err != nil {
			return err
		}

		c := client.Client{Timeout: queryFlags.timeout}
		resp, err := c.Query(cmd.Context(), args[0], pair)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if queryFlags.json {
			out, err := output.ToJSON(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, out)
			return nil
		}
		output.RenderResponse(w, resp, colorEnabled(w))
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVar(&queryFlags.json, "json", false, "print the reply as JSON")
	queryCmd.Flags().DurationVar(&queryFlags.timeout, "timeout", 10*time.Second, "bound on the whole exchange")
}
