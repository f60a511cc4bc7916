package ident

import (
	"errors"
	"fmt"
)

// Kind discriminates the failures a session can hit.
type Kind int

const (
	// KindNoQuery: the peer closed or sent no usable line. Nothing is answered.
	KindNoQuery Kind = iota + 1
	// KindInvalidPort: the query did not hold two u16 ports. Answered with INVALID-PORT.
	KindInvalidPort
	// KindLookup: the connection listing could not be produced. Nothing is answered.
	KindLookup
)

func (k Kind) String() string {
	switch k {
	case KindNoQuery:
		return "no_query"
	case KindInvalidPort:
		return "invalid_port"
	case KindLookup:
		return "lookup"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Error struct {
	Kind    Kind
	Message string
	Inner   error
}

func (e Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e Error) Unwrap() error { return e.Inner }

func NewNoQueryError(message string, inner error) Error {
	return Error{Kind: KindNoQuery, Message: message, Inner: inner}
}

func NewInvalidPortError(message string, inner error) Error {
	return Error{Kind: KindInvalidPort, Message: message, Inner: inner}
}

func NewLookupError(message string, inner error) Error {
	return Error{Kind: KindLookup, Message: message, Inner: inner}
}

// KindOf returns the Kind of the first ident Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNoQuery(err error) bool     { return KindOf(err) == KindNoQuery }
func IsInvalidPort(err error) bool { return KindOf(err) == KindInvalidPort }
func IsLookup(err error) bool      { return KindOf(err) == KindLookup }
