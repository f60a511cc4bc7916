package lookup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

const DefaultProcRoot = "/proc"

const tcpEstablished = "01"

// ProcNet looks up connections by reading the Linux kernel TCP tables
// (/proc/net/tcp and /proc/net/tcp6) directly, without a subprocess. Its
// output uses the same L/n line format as Lsof so FindOwner works on either.
type ProcNet struct {
	// Root is the procfs mount point. Empty means DefaultProcRoot.
	Root string
	// UserName maps a numeric uid to a login name. Nil means os/user, falling
	// back to the numeric uid when the account is unknown.
	UserName func(uid string) string
}

func (p ProcNet) root() string {
	if p.Root == "" {
		return DefaultProcRoot
	}
	return p.Root
}

func (p ProcNet) userName(uid string) string {
	if p.UserName != nil {
		return p.UserName(uid)
	}
	u, err := user.LookupId(uid)
	if err != nil {
		return uid
	}
	return u.Username
}

func (p ProcNet) Lookup(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ident.NewLookupError("read connection table", err)
	}
	want := netip.AddrPortFrom(remote.IP.WithZone("").Unmap(), remote.Port)

	var (
		out   bytes.Buffer
		names = map[string]string{}
		read  int
	)
	for _, table := range []string{"tcp", "tcp6"} {
		path := filepath.Join(p.root(), "net", table)
		rows, err := readTCPTable(path)
		if errors.Is(err, fs.ErrNotExist) {
			// tcp6 is absent when IPv6 is disabled.
			continue
		}
		if err != nil {
			return nil, ident.NewLookupError("read connection table", err)
		}
		read++

		for _, row := range rows {
			if row.state != tcpEstablished || row.remote != want {
				continue
			}
			name, ok := names[row.uid]
			if !ok {
				name = p.userName(row.uid)
				names[row.uid] = name
			}
			fmt.Fprintf(&out, "L%s\nn%s->%s\n", name, row.local, row.remote)
		}
	}
	if read == 0 {
		return nil, ident.NewLookupError("read connection table", fmt.Errorf("no TCP tables under %s", p.root()))
	}
	return out.Bytes(), nil
}

type tcpRow struct {
	local  netip.AddrPort
	remote netip.AddrPort
	state  string
	uid    string
}

func readTCPTable(path string) ([]tcpRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []tcpRow
	scanner := bufio.NewScanner(f)
	scanner.Scan() // skip header
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}
		local, ok := parseProcAddr(fields[1])
		if !ok {
			continue
		}
		remote, ok := parseProcAddr(fields[2])
		if !ok {
			continue
		}
		rows = append(rows, tcpRow{
			local:  local,
			remote: remote,
			state:  fields[3],
			uid:    fields[7],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// parseProcAddr parses "0100007F:1F90" style addresses. IPv6 addresses are
// stored as four little-endian 32-bit words. IPv4-mapped addresses are
// unmapped.
func parseProcAddr(raw string) (netip.AddrPort, bool) {
	ipHex, portHex, ok := strings.Cut(raw, ":")
	if !ok {
		return netip.AddrPort{}, false
	}
	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return netip.AddrPort{}, false
	}
	b, err := hex.DecodeString(ipHex)
	if err != nil {
		return netip.AddrPort{}, false
	}

	var addr netip.Addr
	switch len(b) {
	case 4:
		addr = netip.AddrFrom4([4]byte{b[3], b[2], b[1], b[0]})
	case 16:
		var a [16]byte
		for i := 0; i < 4; i++ {
			a[i*4+0] = b[i*4+3]
			a[i*4+1] = b[i*4+2]
			a[i*4+2] = b[i*4+1]
			a[i*4+3] = b[i*4+0]
		}
		addr = netip.AddrFrom16(a).Unmap()
	default:
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(addr, uint16(port)), true
}

var tcpStates = map[string]string{
	"01": "ESTABLISHED",
	"02": "SYN_SENT",
	"03": "SYN_RECV",
	"04": "FIN_WAIT1",
	"05": "FIN_WAIT2",
	"06": "TIME_WAIT",
	"07": "CLOSE",
	"08": "CLOSE_WAIT",
	"09": "LAST_ACK",
	"0A": "LISTEN",
	"0B": "CLOSING",
}

// ListConnections returns every row of the TCP tables. The kernel tables do
// not name the owning process, so PID and Command are left empty.
func (p ProcNet) ListConnections(ctx context.Context) ([]model.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := map[string]string{}
	var conns []model.Connection
	for _, table := range []string{"tcp", "tcp6"} {
		rows, err := readTCPTable(filepath.Join(p.root(), "net", table))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			name, ok := names[row.uid]
			if !ok {
				name = p.userName(row.uid)
				names[row.uid] = name
			}
			state, ok := tcpStates[row.state]
			if !ok {
				state = "UNKNOWN"
			}
			c := model.Connection{User: name, Local: row.local.String(), State: state}
			if state != "LISTEN" {
				c.Remote = row.remote.String()
			}
			conns = append(conns, c)
		}
	}
	return conns, nil
}
