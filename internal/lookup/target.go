package lookup

import (
	"fmt"
	"net/netip"
)

// Target returns the lsof -i selector for TCP connections to ip:port.
// IPv4-mapped IPv6 peers, which is how IPv4 clients show up on a dual-stack
// listener, are unwrapped so lsof gets a plain IPv4 literal.
func Target(ip netip.Addr, port uint16) string {
	ip = ip.WithZone("")
	if ip.Is4() || ip.Is4In6() {
		return fmt.Sprintf("4TCP@%s:%d", ip.Unmap(), port)
	}
	return fmt.Sprintf("6TCP@[%s]:%d", ip, port)
}
