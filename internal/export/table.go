package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/c4ristian/netmonitor/pkg/netmon"
)

// RenderConnectionsTable writes a plain-text connection table to w. Unknown
// PIDs, missing process names and empty remotes render as empty cells.
func RenderConnectionsTable(w io.Writer, conns []netmon.Connection) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(ConnectionColumns, "\t"))

	for _, c := range conns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%t\n",
			c.Date.Format(TimeFormat),
			blankIfNeg(c.PID),
			c.Process,
			c.Status,
			c.LocalIP,
			c.LocalPort,
			c.RemoteIP,
			blankIfNeg(c.RemotePort),
			c.RemotePrivate,
		)
	}
	return tw.Flush()
}

// RenderTrafficTable writes a plain-text traffic table to w.
func RenderTrafficTable(w io.Writer, stats []netmon.TrafficStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(TrafficColumns, "\t"))

	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			s.Timestamp.Format(TimeFormat),
			s.Interface,
			s.PacketsRecv,
			s.PacketsSent,
			s.BytesRecv,
			s.BytesSent,
		)
	}
	return tw.Flush()
}

func blankIfNeg(v int32) string {
	if v < 0 {
		return ""
	}
	return strconv.FormatInt(int64(v), 10)
}
