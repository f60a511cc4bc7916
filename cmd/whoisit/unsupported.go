//go:build !unix

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(
		os.Stderr,
		"whoisit is only supported on Unix-like systems.\n\nConnection ownership is read from lsof or the Linux /proc TCP tables, neither of which is available on this platform.",
	)
	os.Exit(1)
}
