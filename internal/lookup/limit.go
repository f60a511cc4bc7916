package lookup

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

type limited struct {
	next Lookuper
	sem  *semaphore.Weighted
}

// Limit bounds the number of concurrent lookups run by next to n. Callers
// wait for a slot until their context is done. n <= 0 returns next unchanged.
func Limit(next Lookuper, n int) Lookuper {
	if n <= 0 {
		return next
	}
	return limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

func (l limited) Lookup(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, ident.NewLookupError("wait for lookup slot", err)
	}
	defer l.sem.Release(1)
	return l.next.Lookup(ctx, remote)
}
