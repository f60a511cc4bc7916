// Package pipeline runs one ident query end to end: parse, look up, match.
package pipeline

import (
	"context"
	"net/netip"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/internal/lookup"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

// Identify answers query for a client connected from peer.
//
// A malformed query returns the INVALID-PORT response together with the
// parse error; the response should still be sent. A lookup failure returns a
// zero Response and the error; nothing should be sent. Otherwise the response
// is a USERID or NO-USER reply and err is nil.
func Identify(ctx context.Context, lk lookup.Lookuper, query string, peer netip.Addr) (model.Response, error) {
	pair, err := ident.ParseQuery(query)
	if err != nil {
		return model.ErrorResponse(query, model.ErrorInvalidPort), err
	}

	out, err := lk.Lookup(ctx, model.RemoteEndpoint{IP: peer, Port: pair.Remote})
	if err != nil {
		return model.Response{}, err
	}

	if user, ok := lookup.FindOwner(pair.Local, out); ok {
		return model.UserIDResponse(query, user), nil
	}
	return model.ErrorResponse(query, model.ErrorNoUser), nil
}

type AnalyzeConfig struct {
	Remote    model.RemoteEndpoint
	LocalPort uint16
	// All collects every record of the listing, not just the owner.
	All bool
}

// Analyze runs a lookup locally and reports what an ident query for
// cfg.LocalPort from cfg.Remote would find.
func Analyze(ctx context.Context, lk lookup.Lookuper, cfg AnalyzeConfig) (model.Result, error) {
	out, err := lk.Lookup(ctx, cfg.Remote)
	if err != nil {
		return model.Result{}, err
	}

	res := model.Result{
		Remote:    cfg.Remote.String(),
		Target:    lookup.Target(cfg.Remote.IP, cfg.Remote.Port),
		LocalPort: cfg.LocalPort,
	}
	if cfg.LocalPort != 0 {
		res.Owner, res.Found = lookup.FindOwner(cfg.LocalPort, out)
	}
	records := lookup.ParseRecords(out)
	if cfg.All || cfg.LocalPort == 0 {
		res.Records = records
	}
	for _, r := range records {
		if r.User == "" {
			res.Warnings = append(res.Warnings, "no login reported for "+r.Name)
		}
	}
	return res, nil
}
