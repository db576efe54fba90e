package collectors

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/c4ristian/netmonitor/pkg/netmon"
	"github.com/go-logr/logr"
)

// ConnectionCollector enumerates this machine's sockets from
// /proc/net/{tcp,tcp6,udp,udp6} and maps them to their owning processes.
//
// Data sources:
// - /proc/net/tcp, /proc/net/tcp6: TCP sockets with state and endpoints
// - /proc/net/udp, /proc/net/udp6: UDP sockets
// - /proc/[pid]/fd/*: socket inode to PID mapping
// - /proc/[pid]/comm: process name
//
// Reference: https://www.kernel.org/doc/html/latest/networking/proc_net_tcp.html
type ConnectionCollector struct {
	netmon.BaseCollector
	procPath string
}

// Compile-time interface check
var _ netmon.PointCollector = (*ConnectionCollector)(nil)

func init() {
	netmon.Register(netmon.SourceTypeConnections, netmon.PartialNewContinuousPointCollector(
		func(logger logr.Logger, config netmon.CollectionConfig) (netmon.PointCollector, error) {
			return NewConnectionCollector(logger, config)
		},
	))
}

func NewConnectionCollector(logger logr.Logger, config netmon.CollectionConfig) (*ConnectionCollector, error) {
	if err := config.Validate(netmon.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	capabilities := netmon.CollectorCapabilities{
		SupportsOneShot:    true,
		SupportsContinuous: false,
		RequiresRoot:       false,
		MinKernelVersion:   "2.6.0",
	}

	return &ConnectionCollector{
		BaseCollector: netmon.NewBaseCollector(
			netmon.SourceTypeConnections,
			"Connection Snapshot Collector",
			logger,
			config,
			capabilities,
		),
		procPath: config.HostProcPath,
	}, nil
}

func (c *ConnectionCollector) Collect(ctx context.Context) (any, error) {
	return c.collectConnections(ctx)
}

// protoFiles maps the protocol label to its /proc/net file name. UDP sockets
// have no meaningful TCP state and are reported as NONE.
var protoFiles = []struct {
	proto string
	file  string
	isUDP bool
}{
	{"tcp", "tcp", false},
	{"tcp6", "tcp6", false},
	{"udp", "udp", true},
	{"udp6", "udp6", true},
}

// collectConnections reads all four /proc/net socket tables.
//
// Error handling strategy:
// - A missing table for a single protocol is skipped (e.g. no IPv6)
// - All four tables missing is an error
// - Malformed lines are skipped with logging
// - Sockets without a resolvable PID get PID -1 (permission, raced exit)
func (c *ConnectionCollector) collectConnections(ctx context.Context) ([]netmon.Connection, error) {
	now := time.Now()
	inodePIDs := c.socketInodePIDs(ctx)
	locals := LocalAddrs()

	var rows []socketRow
	var readErrs []error

	for _, pf := range protoFiles {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := filepath.Join(c.procPath, "net", pf.file)
		parsed, err := c.parseSocketTable(path, pf.proto, pf.isUDP)
		if err != nil {
			c.Logger().V(1).Info("Skipping socket table", "path", path, "error", err)
			readErrs = append(readErrs, err)
			continue
		}
		rows = append(rows, parsed...)
	}

	if len(readErrs) == len(protoFiles) {
		return nil, fmt.Errorf("no socket tables readable under %s: %w",
			filepath.Join(c.procPath, "net"), readErrs[0])
	}

	names := make(map[int32]string)
	conns := make([]netmon.Connection, 0, len(rows))
	for _, row := range rows {
		conn := row.conn
		conn.Date = now
		conn.RemotePrivate = conn.HasRemote() && IsPrivateIP(conn.RemoteIP, locals)

		if pid, ok := inodePIDs[row.inode]; ok {
			conn.PID = pid
			name, cached := names[pid]
			if !cached {
				name = c.processName(pid)
				names[pid] = name
			}
			conn.Process = name
		}
		conns = append(conns, conn)
	}

	c.Logger().V(1).Info("Collected connection snapshot", "connections", len(conns))
	return conns, nil
}

// socketRow carries the socket inode alongside the row during collection so
// Connection itself stays free of proc internals.
type socketRow struct {
	conn  netmon.Connection
	inode uint64
}

// parseSocketTable parses one /proc/net/{tcp,tcp6,udp,udp6} table.
//
// Line format (header line first):
//
//	sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
//	 0: 0100007F:0277 00000000:0000 0A 00000000:00000000 00:00000000 00000000   102        0 12345 ...
//
// Addresses are hex-encoded in host byte order, ports big-endian hex.
func (c *ConnectionCollector) parseSocketTable(path, proto string, isUDP bool) ([]socketRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var rows []socketRow
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if lineNum == 1 {
			// Header line
			continue
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			c.Logger().V(2).Info("Skipping malformed socket line",
				"path", path, "line", lineNum)
			continue
		}

		localIP, localPort, err := decodeSocketAddr(fields[1])
		if err != nil {
			c.Logger().V(2).Info("Failed to decode local address",
				"path", path, "value", fields[1], "error", err)
			continue
		}
		remoteIP, remotePort, err := decodeSocketAddr(fields[2])
		if err != nil {
			c.Logger().V(2).Info("Failed to decode remote address",
				"path", path, "value", fields[2], "error", err)
			continue
		}

		status := "NONE"
		if !isUDP {
			status = tcpStateName(fields[3])
		}

		inode, err := strconv.ParseUint(fields[9], 10, 64)
		if err != nil {
			inode = 0
		}

		conn := netmon.Connection{
			PID:       -1,
			Status:    status,
			LocalIP:   localIP,
			LocalPort: localPort,
			Proto:     proto,
		}
		// An all-zero remote means no peer: report an empty IP and port -1
		// so listeners and unconnected UDP sockets are distinguishable.
		if remoteIP != "" && !(isZeroAddr(remoteIP) && remotePort == 0) {
			conn.RemoteIP = remoteIP
			conn.RemotePort = remotePort
		} else {
			conn.RemotePort = -1
		}

		rows = append(rows, socketRow{conn: conn, inode: inode})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return rows, nil
}

// socketInodePIDs builds a socket-inode to PID map by walking the fd
// directories of all processes. Entries that cannot be read (permission,
// process exited) are skipped.
func (c *ConnectionCollector) socketInodePIDs(ctx context.Context) map[uint64]int32 {
	inodePIDs := make(map[uint64]int32)

	entries, err := os.ReadDir(c.procPath)
	if err != nil {
		c.Logger().V(1).Info("Failed to list processes", "path", c.procPath, "error", err)
		return inodePIDs
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return inodePIDs
		default:
		}

		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.ParseInt(entry.Name(), 10, 32)
		if err != nil {
			continue // Not a PID directory
		}

		fdPath := filepath.Join(c.procPath, entry.Name(), "fd")
		fds, err := os.ReadDir(fdPath)
		if err != nil {
			continue
		}

		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(fdPath, fd.Name()))
			if err != nil {
				continue
			}
			inode, ok := socketInodeFromLink(target)
			if !ok {
				continue
			}
			inodePIDs[inode] = int32(pid)
		}
	}

	return inodePIDs
}

// socketInodeFromLink extracts N from a "socket:[N]" fd symlink target.
func socketInodeFromLink(target string) (uint64, bool) {
	const prefix = "socket:["
	if !strings.HasPrefix(target, prefix) || !strings.HasSuffix(target, "]") {
		return 0, false
	}
	inode, err := strconv.ParseUint(target[len(prefix):len(target)-1], 10, 64)
	if err != nil {
		return 0, false
	}
	return inode, true
}

// processName reads the process name from /proc/[pid]/comm. Returns an empty
// string when the process is gone or unreadable.
func (c *ConnectionCollector) processName(pid int32) string {
	data, err := os.ReadFile(filepath.Join(c.procPath, strconv.Itoa(int(pid)), "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// decodeSocketAddr decodes a /proc/net "HEXIP:HEXPORT" endpoint. IPv4
// addresses are 8 hex digits in host byte order, IPv6 addresses 32 hex digits
// as four host-order 32-bit groups. IPv4-mapped IPv6 addresses are unmapped
// to their dotted-quad form.
func decodeSocketAddr(s string) (string, int32, error) {
	ipHex, portHex, found := strings.Cut(s, ":")
	if !found {
		return "", -1, fmt.Errorf("invalid socket address %q", s)
	}

	port, err := strconv.ParseUint(portHex, 16, 32)
	if err != nil {
		return "", -1, fmt.Errorf("invalid port %q: %w", portHex, err)
	}

	raw, err := hex.DecodeString(ipHex)
	if err != nil {
		return "", -1, fmt.Errorf("invalid address %q: %w", ipHex, err)
	}

	var addr netip.Addr
	switch len(raw) {
	case 4:
		addr = netip.AddrFrom4([4]byte{raw[3], raw[2], raw[1], raw[0]})
	case 16:
		var b [16]byte
		for group := 0; group < 4; group++ {
			for i := 0; i < 4; i++ {
				b[group*4+i] = raw[group*4+3-i]
			}
		}
		addr = netip.AddrFrom16(b).Unmap()
	default:
		return "", -1, fmt.Errorf("invalid address length %d", len(raw))
	}

	return addr.String(), int32(port), nil
}

// isZeroAddr reports whether ip is the unspecified address.
func isZeroAddr(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return addr.IsUnspecified()
}

// tcpStateName maps the hex state nibble of /proc/net/tcp to its name.
// Reference: include/net/tcp_states.h
func tcpStateName(hexState string) string {
	switch strings.ToUpper(hexState) {
	case "01":
		return "ESTABLISHED"
	case "02":
		return "SYN_SENT"
	case "03":
		return "SYN_RECV"
	case "04":
		return "FIN_WAIT1"
	case "05":
		return "FIN_WAIT2"
	case "06":
		return "TIME_WAIT"
	case "07":
		return "CLOSE"
	case "08":
		return "CLOSE_WAIT"
	case "09":
		return "LAST_ACK"
	case "0A":
		return "LISTEN"
	case "0B":
		return "CLOSING"
	case "0C":
		return "NEW_SYN_RECV"
	default:
		return "UNKNOWN"
	}
}
