package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/c4ristian/netmonitor/internal/ui"
	"github.com/c4ristian/netmonitor/pkg/netmon"
	_ "github.com/c4ristian/netmonitor/pkg/netmon/collectors" // register collectors
)

var (
	watchInterval  int
	watchPrivate   bool
	watchNonRemote bool
	watchTraffic   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically refresh a connection or traffic table",
	Long: `Show this machine's network connections in the terminal and refresh
them periodically. Like the snapshot command, connections with a private
remote address and sockets without a remote peer are hidden unless the
corresponding flag is set.

With --traffic, per-interface send/receive rates are shown instead.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVarP(&watchInterval, "interval", "i", 0, "refresh every i seconds (default: 5)")
	watchCmd.Flags().BoolVar(&watchPrivate, "private", false, "include private remote IPs")
	watchCmd.Flags().BoolVar(&watchNonRemote, "non-remote", false, "include sockets without a remote IP")
	watchCmd.Flags().BoolVar(&watchTraffic, "traffic", false, "watch traffic rates instead of connections")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchInterval > 0 {
		cfg.Watch.Interval = watchInterval
	}

	source := netmon.SourceTypeConnections
	if watchTraffic {
		source = netmon.SourceTypeTraffic
	}

	factory, err := netmon.GetCollector(source)
	if err != nil {
		return err
	}

	cc := collectionConfig(cfg)
	cc.Interval = time.Duration(cfg.Watch.Interval) * time.Second

	collector, err := factory(logger, cc)
	if err != nil {
		return err
	}

	dataChan, err := collector.Start(cmd.Context())
	if err != nil {
		return err
	}
	defer collector.Stop()

	rates := netmon.NewRateTracker()

	opts := netmon.FilterOptions{
		IncludePrivate:     watchPrivate,
		IncludeEmptyRemote: watchNonRemote,
	}

	for data := range dataChan {
		ui.ClearScreen()
		switch payload := data.(type) {
		case []netmon.Connection:
			renderWatchConnections(os.Stdout, payload, opts)
		case []netmon.TrafficStats:
			renderWatchTraffic(os.Stdout, rates, payload)
		default:
			return fmt.Errorf("unexpected collector payload %T", data)
		}
	}
	return nil
}

func renderWatchConnections(w io.Writer, conns []netmon.Connection, opts netmon.FilterOptions) {
	conns = netmon.Filter(conns, opts)
	// Remote address descending so public peers come first
	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].RemoteIP > conns[j].RemoteIP
	})

	fmt.Fprintln(w, ui.Bold("netmonitor")+ui.Dim(fmt.Sprintf("  %d connections  %s",
		len(conns), time.Now().Format("15:04:05"))))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, ui.Header(strings.Join(
		[]string{"time", "pid", "proc", "status", "proto", "lip", "lport", "rip", "rport", "rpriv"}, "\t")))

	for _, c := range conns {
		pid := ""
		if c.PID > 0 {
			pid = fmt.Sprintf("%d", c.PID)
		}
		rport := ""
		if c.RemotePort >= 0 {
			rport = fmt.Sprintf("%d", c.RemotePort)
		}
		rpriv := ""
		if c.RemotePrivate {
			rpriv = ui.Private("yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			c.Date.Format("15:04:05"), pid, c.Process, c.Status, c.Proto,
			c.LocalIP, c.LocalPort, c.RemoteIP, rport, rpriv)
	}
	tw.Flush()
}

func renderWatchTraffic(w io.Writer, tracker *netmon.RateTracker, stats []netmon.TrafficStats) {
	trafficRates := tracker.Update(stats, time.Now())

	fmt.Fprintln(w, ui.Bold("netmonitor")+ui.Dim(fmt.Sprintf("  %d interfaces  %s",
		len(stats), time.Now().Format("15:04:05"))))

	if trafficRates == nil {
		fmt.Fprintln(w, ui.Hint("gathering baseline..."))
		return
	}

	sort.Slice(trafficRates, func(i, j int) bool {
		return trafficRates[i].Interface < trafficRates[j].Interface
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, ui.Header(strings.Join(
		[]string{"interface", "recv/s", "sent/s", "pkts_recv/s", "pkts_sent/s"}, "\t")))
	for _, r := range trafficRates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.1f\n",
			r.Interface,
			formatBytesPerSec(r.BytesRecvPer),
			formatBytesPerSec(r.BytesSentPer),
			r.PacketsRecvPer, r.PacketsSentPer)
	}
	tw.Flush()
}

// formatBytesPerSec renders a byte rate with a binary unit suffix.
func formatBytesPerSec(rate float64) string {
	switch {
	case rate >= 1<<20:
		return fmt.Sprintf("%.1f MiB/s", rate/(1<<20))
	case rate >= 1<<10:
		return fmt.Sprintf("%.1f KiB/s", rate/(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", rate)
	}
}
