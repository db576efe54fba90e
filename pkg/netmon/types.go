package netmon

import (
	"fmt"
	"path/filepath"
	"time"
)

// SourceType identifies a kind of network data source
type SourceType string

const (
	SourceTypeConnections SourceType = "connections"
	SourceTypeTraffic     SourceType = "traffic"
)

// CollectorStatus represents the operational status of a collector
type CollectorStatus string

const (
	CollectorStatusActive   CollectorStatus = "active"
	CollectorStatusFailed   CollectorStatus = "failed"
	CollectorStatusDisabled CollectorStatus = "disabled"
)

// Connection represents a single socket of this machine together with its
// owning process. One row of a connection snapshot.
type Connection struct {
	// Time the snapshot was taken
	Date time.Time
	// Owning process ID, -1 when no process could be mapped to the socket
	PID int32
	// Process name from /proc/[pid]/comm, empty when unavailable
	Process string
	// TCP state name (ESTABLISHED, LISTEN, ...); NONE for UDP sockets
	Status string
	// Local endpoint
	LocalIP   string
	LocalPort int32
	// Remote endpoint. RemoteIP is empty and RemotePort is -1 for sockets
	// without a remote peer (listeners, unconnected UDP).
	RemoteIP   string
	RemotePort int32
	// Whether the remote address is private/local to this machine
	RemotePrivate bool
	// Protocol the socket was read from: tcp, tcp6, udp, udp6
	Proto string
}

// HasRemote reports whether the connection has a remote peer.
func (c Connection) HasRemote() bool {
	return c.RemoteIP != ""
}

// TrafficStats represents cumulative traffic counters of one network
// interface from /proc/net/dev. Counters are since interface initialization.
type TrafficStats struct {
	Timestamp time.Time
	Interface string
	// Receive counters (columns 1-4 of the receive block)
	BytesRecv   uint64
	PacketsRecv uint64
	RxErrors    uint64
	RxDropped   uint64
	// Transmit counters (columns 1-4 of the transmit block)
	BytesSent   uint64
	PacketsSent uint64
	TxErrors    uint64
	TxDropped   uint64
}

// TotalTraffic folds per-interface rows into a single row with the interface
// name "all". Returns a zero row with that name for empty input.
func TotalTraffic(stats []TrafficStats) TrafficStats {
	total := TrafficStats{Interface: "all"}
	for _, s := range stats {
		if total.Timestamp.IsZero() {
			total.Timestamp = s.Timestamp
		}
		total.BytesRecv += s.BytesRecv
		total.PacketsRecv += s.PacketsRecv
		total.RxErrors += s.RxErrors
		total.RxDropped += s.RxDropped
		total.BytesSent += s.BytesSent
		total.PacketsSent += s.PacketsSent
		total.TxErrors += s.TxErrors
		total.TxDropped += s.TxDropped
	}
	if total.Timestamp.IsZero() {
		total.Timestamp = time.Now()
	}
	return total
}

// FilterOptions control which connection rows a snapshot keeps.
type FilterOptions struct {
	// Keep rows whose remote address is private/local
	IncludePrivate bool
	// Keep rows without a remote peer (listeners, unconnected UDP)
	IncludeEmptyRemote bool
}

// Filter applies opts to conns and returns the kept rows. By default rows
// with a private remote and rows without a remote peer are dropped.
func Filter(conns []Connection, opts FilterOptions) []Connection {
	result := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if !opts.IncludeEmptyRemote && !c.HasRemote() {
			continue
		}
		if !opts.IncludePrivate && c.HasRemote() && c.RemotePrivate {
			continue
		}
		result = append(result, c)
	}
	return result
}

// CollectorCapabilities describes what a collector supports and requires
type CollectorCapabilities struct {
	SupportsOneShot    bool
	SupportsContinuous bool
	RequiresRoot       bool
	MinKernelVersion   string
}

// CollectionConfig represents configuration for network data collection
type CollectionConfig struct {
	Interval     time.Duration
	HostProcPath string // Path to /proc (useful for containers)
	HostSysPath  string // Path to /sys (useful for containers)
}

// DefaultCollectionConfig returns a default configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Interval:     30 * time.Second,
		HostProcPath: "/proc",
		HostSysPath:  "/sys",
	}
}

// ApplyDefaults fills in zero values with defaults
func (c *CollectionConfig) ApplyDefaults() {
	defaults := DefaultCollectionConfig()

	if c.Interval == 0 {
		c.Interval = defaults.Interval
	}
	if c.HostProcPath == "" {
		c.HostProcPath = defaults.HostProcPath
	}
	if c.HostSysPath == "" {
		c.HostSysPath = defaults.HostSysPath
	}
}

// ValidateOptions specifies validation requirements for CollectionConfig
type ValidateOptions struct {
	RequireHostProcPath bool
	RequireHostSysPath  bool
}

// Validate ensures that all configured paths are absolute paths and that
// required paths are non-empty.
func (c *CollectionConfig) Validate(opt ValidateOptions) error {
	if opt.RequireHostProcPath && c.HostProcPath == "" {
		return fmt.Errorf("HostProcPath is required but not provided")
	}
	if opt.RequireHostSysPath && c.HostSysPath == "" {
		return fmt.Errorf("HostSysPath is required but not provided")
	}

	if c.HostProcPath != "" && !filepath.IsAbs(c.HostProcPath) {
		return fmt.Errorf("HostProcPath must be an absolute path, got: %q", c.HostProcPath)
	}
	if c.HostSysPath != "" && !filepath.IsAbs(c.HostSysPath) {
		return fmt.Errorf("HostSysPath must be an absolute path, got: %q", c.HostSysPath)
	}
	return nil
}
