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
	snapshotPrivate  bool
	snapshotEmptyRIP bool
	snapshotCSV      bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print a snapshot of the current connections",
	Long: `Print a snapshot of this machine's network connections and their
owning processes. By default connections with a private remote address and
sockets without a remote peer are filtered out.`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().BoolVar(&snapshotPrivate, "private", false, "include private remote IPs")
	snapshotCmd.Flags().BoolVar(&snapshotEmptyRIP, "empty-rip", false, "include sockets without a remote IP")
	snapshotCmd.Flags().BoolVar(&snapshotCSV, "csv", false, "print as CSV")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	collector, err := collectors.NewConnectionCollector(logger, collectionConfig(cfg))
	if err != nil {
		return err
	}

	result, err := collector.Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to collect connections: %w", err)
	}
	conns, ok := result.([]netmon.Connection)
	if !ok {
		return fmt.Errorf("unexpected collector result %T", result)
	}

	conns = netmon.Filter(conns, netmon.FilterOptions{
		IncludePrivate:     snapshotPrivate,
		IncludeEmptyRemote: snapshotEmptyRIP,
	})

	if snapshotCSV {
		return export.WriteConnectionsCSV(os.Stdout, conns)
	}
	return export.RenderConnectionsTable(os.Stdout, conns)
}
