package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c4ristian/netmonitor/pkg/netmon"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the available data sources",
	Long: `List the registered data sources together with their capabilities.
Each source can be watched with the watch command; the connections source
also backs the snapshot and capture commands.`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cc := collectionConfig(cfg)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "source\tname\tone-shot\tcontinuous\troot\tmin kernel")

	for _, source := range netmon.AvailableSources() {
		factory, err := netmon.GetCollector(source)
		if err != nil {
			return err
		}
		collector, err := factory(logger, cc)
		if err != nil {
			return err
		}

		caps := collector.Capabilities()
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%t\t%s\n",
			source, collector.Name(),
			caps.SupportsOneShot, caps.SupportsContinuous,
			caps.RequiresRoot, caps.MinKernelVersion)
	}
	return tw.Flush()
}
