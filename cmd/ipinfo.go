package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/c4ristian/netmonitor/internal/config"
	"github.com/c4ristian/netmonitor/internal/ipinfo"
)

var ipinfoCmd = &cobra.Command{
	Use:   "ipinfo <ip>",
	Short: "Look up the owner of an IP address",
	Long: `Look up the owning organisation and country of an IP address via the
ipinfo.io API. Useful for identifying a remote peer from a snapshot or
capture.`,
	Args: cobra.ExactArgs(1),
	RunE: runIPInfo,
}

func init() {
	rootCmd.AddCommand(ipinfoCmd)
}

func runIPInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return printIPInfo(cmd.Context(), os.Stdout, newIPInfoClient(cfg), args[0])
}

func printIPInfo(ctx context.Context, w io.Writer, client *ipinfo.Client, ip string) error {
	info, err := client.Lookup(ctx, ip)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", ip, err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ip\t%s\n", ip)
	fmt.Fprintf(tw, "org\t%s\n", orUnknown(info.Org))
	fmt.Fprintf(tw, "country\t%s\n", orUnknown(info.Country))
	return tw.Flush()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// newIPInfoClient builds the lookup client from the ipinfo config section.
func newIPInfoClient(cfg *config.Config) *ipinfo.Client {
	opts := []ipinfo.Option{
		ipinfo.WithLogger(logger),
		ipinfo.WithTimeout(time.Duration(cfg.IPInfo.TimeoutSeconds) * time.Second),
	}
	if cfg.IPInfo.BaseURL != "" {
		opts = append(opts, ipinfo.WithBaseURL(cfg.IPInfo.BaseURL))
	}
	return ipinfo.NewClient(opts...)
}
