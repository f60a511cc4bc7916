// Package lookup finds the local owner of a TCP connection to a remote
// endpoint. The connection table is produced by a Lookuper as lsof field
// output (-F) and searched with FindOwner.
package lookup

import (
	"context"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

// Lookuper produces a listing of the local TCP connections to remote, in lsof
// field output format restricted to L (login) and n (name) lines.
type Lookuper interface {
	Lookup(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error)
}

// Func adapts a function to the Lookuper interface.
type Func func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error)

func (f Func) Lookup(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
	return f(ctx, remote)
}
