package model

import (
	"fmt"
	"net/netip"
)

// PortPair is a parsed ident query. Local is the port on the host running
// the responder, Remote is the port on the querying peer.
type PortPair struct {
	Local  uint16
	Remote uint16
}

// RemoteEndpoint is the peer side of the connection being attributed. The IP
// always comes from the accepted socket, never from the query text.
type RemoteEndpoint struct {
	IP   netip.Addr
	Port uint16
}

func (e RemoteEndpoint) String() string {
	return netip.AddrPortFrom(e.IP, e.Port).String()
}

type ResponseKind string

const (
	ResponseUserID ResponseKind = "USERID"
	ResponseError  ResponseKind = "ERROR"
)

// Error codes sent in ERROR responses.
const (
	ErrorInvalidPort = "INVALID-PORT"
	ErrorNoUser      = "NO-USER"
)

// OperatingSystem reported in USERID responses.
const OperatingSystem = "UNIX"

// Response is one ident reply line.
type Response struct {
	Query  string       `json:"query"`
	Kind   ResponseKind `json:"kind"`
	OS     string       `json:"os,omitempty"`
	UserID string       `json:"user_id,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// String renders the response without the line terminator.
func (r Response) String() string {
	if r.Kind == ResponseUserID {
		return fmt.Sprintf("%s : %s : %s : %s", r.Query, ResponseUserID, r.OS, r.UserID)
	}
	return fmt.Sprintf("%s : %s : %s", r.Query, ResponseError, r.Error)
}

func UserIDResponse(query, user string) Response {
	return Response{Query: query, Kind: ResponseUserID, OS: OperatingSystem, UserID: user}
}

func ErrorResponse(query, code string) Response {
	return Response{Query: query, Kind: ResponseError, Error: code}
}
