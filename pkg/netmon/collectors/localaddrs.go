package collectors

import (
	"net"
	"net/netip"
)

// defaultLocalAddrs is used when the machine's interface addresses cannot be
// enumerated.
var defaultLocalAddrs = []string{"127.0.0.1", "10.0.0.0", "0.0.0.1"}

// LocalAddrs returns the IP addresses assigned to this machine's interfaces.
// Falls back to a small default set when enumeration fails or yields nothing.
func LocalAddrs() map[string]struct{} {
	addrs := make(map[string]struct{})

	ifaceAddrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range ifaceAddrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil {
				continue
			}
			if parsed, ok := netip.AddrFromSlice(ip); ok {
				addrs[parsed.Unmap().String()] = struct{}{}
			}
		}
	}

	if len(addrs) == 0 {
		for _, a := range defaultLocalAddrs {
			addrs[a] = struct{}{}
		}
	}
	return addrs
}

// IsPrivateIP reports whether ip is private or local to this machine: one of
// the machine's own addresses, loopback, RFC1918/ULA private, or link-local.
// locals may be nil, in which case LocalAddrs is consulted.
func IsPrivateIP(ip string, locals map[string]struct{}) bool {
	if ip == "" {
		return false
	}
	if locals == nil {
		locals = LocalAddrs()
	}
	if _, ok := locals[ip]; ok {
		return true
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast()
}
