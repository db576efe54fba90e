package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c4ristian/netmonitor/internal/export"
	"github.com/c4ristian/netmonitor/pkg/netmon"
	"github.com/c4ristian/netmonitor/pkg/netmon/collectors"
)

var (
	trafficTotal bool
	trafficCSV   bool
)

var trafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Print a snapshot of network traffic counters",
	Long: `Print packet and byte counters of this machine's network interfaces.
Counters are cumulative since interface initialization. With --total a single
row with the sum over all interfaces is printed.`,
	RunE: runTraffic,
}

func init() {
	rootCmd.AddCommand(trafficCmd)

	trafficCmd.Flags().BoolVar(&trafficTotal, "total", false, "print totals instead of per-interface rows")
	trafficCmd.Flags().BoolVar(&trafficCSV, "csv", false, "print as CSV")
}

func runTraffic(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	collector, err := collectors.NewTrafficCollector(logger, collectionConfig(cfg))
	if err != nil {
		return err
	}

	result, err := collector.Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to collect traffic stats: %w", err)
	}
	stats, ok := result.([]netmon.TrafficStats)
	if !ok {
		return fmt.Errorf("unexpected collector result %T", result)
	}

	if trafficTotal {
		stats = []netmon.TrafficStats{netmon.TotalTraffic(stats)}
	}

	if trafficCSV {
		return export.WriteTrafficCSV(os.Stdout, stats)
	}
	return export.RenderTrafficTable(os.Stdout, stats)
}
