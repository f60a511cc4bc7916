package output

import (
	"fmt"
	"io"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

var (
	colorResetTree   = "\033[0m"
	colorMagentaTree = "\033[35m"
	colorGreenTree   = "\033[32m"
	colorBoldTree    = "\033[2m"
	colorYellowTree  = "\033[33m"
)

// recordLimit caps how many records PrintResult lists.
const recordLimit = 20

// PrintResult prints a lookup result: the target, the owner of the queried
// local port, and the connection records beneath it.
func PrintResult(w io.Writer, r model.Result, colorEnabled bool) {
	colorReset := ""
	colorMagenta := ""
	colorGreen := ""
	colorBold := ""
	colorYellow := ""
	if colorEnabled {
		colorReset = colorResetTree
		colorMagenta = colorMagentaTree
		colorGreen = colorGreenTree
		colorBold = colorBoldTree
		colorYellow = colorYellowTree
	}

	fmt.Fprintf(w, "%s %s(%s)%s\n", r.Remote, colorBold, r.Target, colorReset)
	if r.LocalPort != 0 {
		prefix := "  " + colorMagenta + "└─ " + colorReset
		if r.Found {
			fmt.Fprintf(w, "%slocal port %d owned by %s%s%s\n", prefix, r.LocalPort, colorGreen, r.Owner, colorReset)
		} else {
			fmt.Fprintf(w, "%slocal port %d: no owner found\n", prefix, r.LocalPort)
		}
	}

	count := len(r.Records)
	for i, rec := range r.Records {
		if i >= recordLimit {
			fmt.Fprintf(w, "  %s└─ %s... and %d more\n", colorMagenta, colorReset, count-recordLimit)
			break
		}
		connector := "├─ "
		if i == count-1 {
			connector = "└─ "
		}
		user := rec.User
		if user == "" {
			user = "?"
		}
		fmt.Fprintf(w, "  %s%s%s%s %s%s%s\n", colorMagenta, connector, colorReset, rec.Name, colorBold, user, colorReset)
	}

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "%swarning:%s %s\n", colorYellow, colorReset, warn)
	}
}
