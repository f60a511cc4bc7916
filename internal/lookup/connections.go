package lookup

import (
	"context"
	"strings"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

// ListConnections returns every TCP socket lsof can see, with owner and state.
func (l Lsof) ListConnections(ctx context.Context) ([]model.Connection, error) {
	out, err := l.run(ctx, []string{"-i", "TCP", "-n", "-P", "-F", "pcLnT"})
	if err != nil {
		return nil, err
	}
	return Connections(ParseRecords(out)), nil
}

// Connections converts records whose name is "<local>-><remote>" or a bare
// listening "<local>" into connection rows.
func Connections(records []model.Record) []model.Connection {
	conns := make([]model.Connection, 0, len(records))
	for _, r := range records {
		local, remote, _ := strings.Cut(r.Name, "->")
		state := r.State
		if state == "" && remote == "" {
			state = "LISTEN"
		}
		conns = append(conns, model.Connection{
			User:    r.User,
			PID:     r.PID,
			Command: r.Command,
			Local:   local,
			Remote:  remote,
			State:   state,
		})
	}
	return conns
}
