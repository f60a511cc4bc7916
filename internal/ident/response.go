package ident

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

// ReadQuery reads one query line from r. The terminator may be CRLF or a bare
// LF, and a final unterminated line before EOF is accepted. Lines longer than
// MaxLineLength (counting a CR but not the LF), non-UTF-8 input and an empty
// stream are NoQuery errors.
func ReadQuery(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, MaxLineLength+2)
	line, err := br.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", NewNoQueryError("query line too long", nil)
	case errors.Is(err, io.EOF):
		if len(line) == 0 {
			return "", NewNoQueryError("connection closed before query", err)
		}
	case err != nil:
		return "", NewNoQueryError("read query", err)
	}

	// A trailing CR counts toward MaxLineLength; only the LF is free.
	line = bytes.TrimSuffix(line, []byte("\n"))
	if len(line) > MaxLineLength {
		return "", NewNoQueryError("query line too long", nil)
	}
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !utf8.Valid(line) {
		return "", NewNoQueryError("query is not valid UTF-8", nil)
	}
	return string(line), nil
}

// WriteResponse writes resp as one CRLF-terminated line.
func WriteResponse(w io.Writer, resp model.Response) error {
	if _, err := fmt.Fprintf(w, "%s\r\n", resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// ParseResponse parses a reply line as sent by an ident server. It is the
// inverse of WriteResponse and is used by the client.
func ParseResponse(line string) (model.Response, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 3 {
		return model.Response{}, fmt.Errorf("malformed response %q", line)
	}

	resp := model.Response{
		Query: strings.TrimSpace(parts[0]),
		Kind:  model.ResponseKind(strings.TrimSpace(parts[1])),
	}
	switch resp.Kind {
	case model.ResponseUserID:
		if len(parts) != 4 {
			return model.Response{}, fmt.Errorf("malformed USERID response %q", line)
		}
		// RFC 1413 allows an optional ",charset" after the OS name.
		opsys, _, _ := strings.Cut(parts[2], ",")
		resp.OS = strings.TrimSpace(opsys)
		// The user id may itself contain colons and spaces.
		resp.UserID = strings.TrimLeft(parts[3], " ")
	case model.ResponseError:
		resp.Error = strings.TrimSpace(strings.Join(parts[2:], ":"))
	default:
		return model.Response{}, fmt.Errorf("unknown response type %q", resp.Kind)
	}
	return resp, nil
}
