// Package client queries a remote RFC 1413 ident server.
package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

// DefaultPort is the well-known ident port.
const DefaultPort = "113"

// Client sends one query per connection.
type Client struct {
	// Timeout bounds the whole exchange when ctx has no earlier deadline.
	// Zero means 30 seconds.
	Timeout time.Duration
	Dialer  net.Dialer
}

// Query asks the ident server at addr (host or host:port) who owns the
// connection from its port pair.Local to our port pair.Remote.
func (c *Client) Query(ctx context.Context, addr string, pair model.PortPair) (model.Response, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := c.Dialer.DialContext(ctx, "tcp", withDefaultPort(addr))
	if err != nil {
		return model.Response{}, fmt.Errorf("dial ident server: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return model.Response{}, err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := fmt.Fprintf(conn, "%d, %d\r\n", pair.Local, pair.Remote); err != nil {
		return model.Response{}, fmt.Errorf("send query: %w", err)
	}

	line, err := bufio.NewReaderSize(conn, ident.MaxLineLength).ReadString('\n')
	if err != nil && line == "" {
		return model.Response{}, fmt.Errorf("read response: %w", err)
	}
	return ident.ParseResponse(line)
}

func withDefaultPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), DefaultPort)
}
