// Package ident implements the RFC 1413 query and reply line formats.
package ident

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

// MaxLineLength is the longest query line accepted from a client.
const MaxLineLength = 1024

// ParseQuery parses "<port-on-server> , <port-on-client>". Whitespace around
// either value is ignored.
func ParseQuery(raw string) (model.PortPair, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != 2 {
		return model.PortPair{}, NewInvalidPortError(fmt.Sprintf("expected 2 fields, got %d", len(fields)), nil)
	}

	local, err := parsePort(fields[0])
	if err != nil {
		return model.PortPair{}, err
	}
	remote, err := parsePort(fields[1])
	if err != nil {
		return model.PortPair{}, err
	}
	return model.PortPair{Local: local, Remote: remote}, nil
}

func parsePort(field string) (uint16, error) {
	s := strings.TrimSpace(field)
	// ParseUint rejects signs, so "+80" and "-1" both fail here.
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, NewInvalidPortError(fmt.Sprintf("invalid port %q", s), err)
	}
	return uint16(n), nil
}
