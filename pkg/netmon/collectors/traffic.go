package collectors

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/c4ristian/netmonitor/pkg/netmon"
	"github.com/go-logr/logr"
)

// TrafficCollector collects network interface counters from /proc/net/dev.
//
// /proc/net/dev format:
//
//	Inter-|   Receive                                                |  Transmit
//	 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
//	    lo: 1234567   12345    0    0    0     0          0         0 1234567   12345    0    0    0     0       0          0
//
// All counter values are cumulative since interface initialization.
//
// Reference: https://www.kernel.org/doc/html/latest/networking/statistics.html
type TrafficCollector struct {
	netmon.BaseCollector
	procNetDevPath string
}

// Compile-time interface check
var _ netmon.PointCollector = (*TrafficCollector)(nil)

func init() {
	netmon.Register(netmon.SourceTypeTraffic, netmon.PartialNewContinuousPointCollector(
		func(logger logr.Logger, config netmon.CollectionConfig) (netmon.PointCollector, error) {
			return NewTrafficCollector(logger, config)
		},
	))
}

func NewTrafficCollector(logger logr.Logger, config netmon.CollectionConfig) (*TrafficCollector, error) {
	if err := config.Validate(netmon.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	capabilities := netmon.CollectorCapabilities{
		SupportsOneShot:    true,
		SupportsContinuous: false,
		RequiresRoot:       false,
		MinKernelVersion:   "2.6.0", // /proc/net/dev has been around forever
	}

	return &TrafficCollector{
		BaseCollector: netmon.NewBaseCollector(
			netmon.SourceTypeTraffic,
			"Traffic Snapshot Collector",
			logger,
			config,
			capabilities,
		),
		procNetDevPath: filepath.Join(config.HostProcPath, "net", "dev"),
	}, nil
}

func (c *TrafficCollector) Collect(ctx context.Context) (any, error) {
	return c.collectTrafficStats()
}

// collectTrafficStats reads and parses /proc/net/dev.
//
// Error handling strategy:
// - /proc/net/dev is critical - returns error if unavailable
// - Malformed lines are skipped with logging
func (c *TrafficCollector) collectTrafficStats() ([]netmon.TrafficStats, error) {
	file, err := os.Open(c.procNetDevPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.procNetDevPath, err)
	}
	defer file.Close()

	now := time.Now()
	var stats []netmon.TrafficStats
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip the two header lines
		if lineNum <= 2 {
			continue
		}

		// Format: interface_name: rx_bytes rx_packets ... tx_compressed
		name, counters, found := strings.Cut(line, ":")
		if !found {
			c.Logger().V(2).Info("Skipping malformed line", "line", lineNum)
			continue
		}

		fields := strings.Fields(counters)
		if len(fields) < 16 {
			c.Logger().V(2).Info("Skipping line with insufficient fields",
				"line", lineNum, "fields", len(fields))
			continue
		}

		stat := netmon.TrafficStats{
			Timestamp: now,
			Interface: strings.TrimSpace(name),
		}

		// Receive counters (columns 1-4)
		stat.BytesRecv, err = strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			c.Logger().V(2).Info("Failed to parse rx_bytes",
				"interface", stat.Interface, "value", fields[0], "error", err)
		}
		stat.PacketsRecv, err = strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			c.Logger().V(2).Info("Failed to parse rx_packets",
				"interface", stat.Interface, "value", fields[1], "error", err)
		}
		stat.RxErrors, _ = strconv.ParseUint(fields[2], 10, 64)
		stat.RxDropped, _ = strconv.ParseUint(fields[3], 10, 64)

		// Transmit counters (columns 9-12)
		stat.BytesSent, err = strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			c.Logger().V(2).Info("Failed to parse tx_bytes",
				"interface", stat.Interface, "value", fields[8], "error", err)
		}
		stat.PacketsSent, err = strconv.ParseUint(fields[9], 10, 64)
		if err != nil {
			c.Logger().V(2).Info("Failed to parse tx_packets",
				"interface", stat.Interface, "value", fields[9], "error", err)
		}
		stat.TxErrors, _ = strconv.ParseUint(fields[10], 10, 64)
		stat.TxDropped, _ = strconv.ParseUint(fields[11], 10, 64)

		stats = append(stats, stat)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", c.procNetDevPath, err)
	}

	c.Logger().V(1).Info("Collected traffic statistics", "interfaces", len(stats))
	return stats, nil
}
