package lookup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

const DefaultLsofPath = "lsof"

// Lsof looks up connections by running lsof.
type Lsof struct {
	// Path of the lsof binary. Empty means DefaultLsofPath, resolved via $PATH.
	Path string
}

func (l Lsof) path() string {
	if l.Path == "" {
		return DefaultLsofPath
	}
	return l.Path
}

// Args returns the lsof arguments used to list connections to remote:
// select by target, print login and name fields only, no DNS lookups.
func (l Lsof) Args(remote model.RemoteEndpoint) []string {
	return []string{"-i", Target(remote.IP, remote.Port), "-F", "Ln", "-n"}
}

// Lookup runs lsof and returns its stdout. lsof exits non-zero when nothing
// matched, so any completed run counts as success; only a failure to start it
// or an abnormal termination (signal, context cancellation) is an error.
func (l Lsof) Lookup(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
	return l.run(ctx, l.Args(remote))
}

func (l Lsof) run(ctx context.Context, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.path(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	var xe *exec.ExitError
	if errors.As(err, &xe) && xe.Exited() && ctx.Err() == nil {
		return stdout.Bytes(), nil
	}
	if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
		err = fmt.Errorf("%w: %s", err, msg)
	}
	if ctx.Err() != nil {
		err = fmt.Errorf("%w (%v)", err, ctx.Err())
	}
	return nil, ident.NewLookupError(fmt.Sprintf("run %s %s", l.path(), strings.Join(args, " ")), err)
}
