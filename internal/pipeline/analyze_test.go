package pipeline

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/internal/lookup"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

const listing = "Lalice\nn127.0.0.1:4000->127.0.0.1:80\nLbob\nn127.0.0.1:5000->127.0.0.1:80\n"

type recorder struct {
	calls  []model.RemoteEndpoint
	output string
	err    error
}

func (r *recorder) Lookup(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
	r.calls = append(r.calls, remote)
	return []byte(r.output), r.err
}

var peer = netip.MustParseAddr("::ffff:127.0.0.1")

func TestIdentify_UserID(t *testing.T) {
	lk := &recorder{output: listing}
	resp, err := Identify(context.Background(), lk, "5000 , 80", peer)
	require.NoError(t, err)
	assert.Equal(t, model.UserIDResponse("5000 , 80", "bob"), resp)
	assert.Equal(t, []model.RemoteEndpoint{{IP: peer, Port: 80}}, lk.calls)
}

func TestIdentify_NoUser(t *testing.T) {
	lk := &recorder{output: listing}
	resp, err := Identify(context.Background(), lk, "9999, 80", peer)
	require.NoError(t, err)
	assert.Equal(t, model.ErrorResponse("9999, 80", model.ErrorNoUser), resp)
}

func TestIdentify_InvalidPortSkipsLookup(t *testing.T) {
	lk := &recorder{output: listing}
	resp, err := Identify(context.Background(), lk, "not-a-port, 80", peer)
	require.Error(t, err)
	assert.True(t, ident.IsInvalidPort(err))
	assert.Equal(t, "not-a-port, 80 : ERROR : INVALID-PORT", resp.String())
	assert.Empty(t, lk.calls)
}

func TestIdentify_LookupFailure(t *testing.T) {
	lk := &recorder{err: ident.NewLookupError("run lsof", errors.New("boom"))}
	resp, err := Identify(context.Background(), lk, "4000, 80", peer)
	require.Error(t, err)
	assert.True(t, ident.IsLookup(err))
	assert.Equal(t, model.Response{}, resp)
}

func TestAnalyze(t *testing.T) {
	remote := model.RemoteEndpoint{IP: peer, Port: 80}
	lk := lookup.Func(func(ctx context.Context, r model.RemoteEndpoint) ([]byte, error) {
		return []byte("n127.0.0.1:3000->127.0.0.1:80\n" + listing), nil
	})

	res, err := Analyze(context.Background(), lk, AnalyzeConfig{Remote: remote, LocalPort: 4000})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "alice", res.Owner)
	assert.Equal(t, "4TCP@127.0.0.1:80", res.Target)
	assert.Equal(t, "[::ffff:127.0.0.1]:80", res.Remote)
	assert.Empty(t, res.Records)
	assert.Equal(t, []string{"no login reported for 127.0.0.1:3000->127.0.0.1:80"}, res.Warnings)

	res, err = Analyze(context.Background(), lk, AnalyzeConfig{Remote: remote})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Len(t, res.Records, 3)

	res, err = Analyze(context.Background(), lk, AnalyzeConfig{Remote: remote, LocalPort: 3000, All: true})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Len(t, res.Records, 3)
}
