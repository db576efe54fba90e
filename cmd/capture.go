package cmd

import (
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/c4ristian/netmonitor/internal/capture"
	"github.com/c4ristian/netmonitor/internal/config"
	"github.com/c4ristian/netmonitor/internal/pipeline"
	"github.com/c4ristian/netmonitor/internal/ui"
	"github.com/c4ristian/netmonitor/pkg/netmon/collectors"
)

var (
	captureEvery   int
	captureOver    int
	captureFile    string
	capturePrivate bool
	captureProcs   bool
	captureIPInfo  bool
	captureStdout  bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture connection snapshots to a CSV file",
	Long: `Capture snapshots of this machine's network connections and export
them to a CSV file. Snapshots are captured every --every seconds over a
period of --over minutes; a period of zero or less runs until interrupted.

The first capture creates the file and writes the header, later captures
append.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntVarP(&captureEvery, "every", "e", 0, "capture every e seconds (default: 30)")
	captureCmd.Flags().IntVarP(&captureOver, "over", "o", 0, "capture over o minutes, <=0 runs until interrupted (default: -1)")
	captureCmd.Flags().StringVarP(&captureFile, "file", "f", "", "path of destination file (default: data/connections.csv)")
	captureCmd.Flags().BoolVar(&capturePrivate, "private", false, "include local/private connections")
	captureCmd.Flags().BoolVar(&captureProcs, "procs", false, "add the process name column")
	captureCmd.Flags().BoolVar(&captureIPInfo, "ipinfo", false, "look up IP owner info (ip_org, ip_country columns)")
	captureCmd.Flags().BoolVar(&captureStdout, "stdout", false, "mirror captured rows to stdout")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCaptureFlagOverrides(cmd, cfg)

	collector, err := collectors.NewConnectionCollector(logger, collectionConfig(cfg))
	if err != nil {
		return err
	}

	router := pipeline.NewRouter(logger)
	defer router.Close()

	csvConsumer := pipeline.NewCSVConsumer(
		cfg.Capture.File, cfg.Capture.LookupProcesses, cfg.Capture.LookupIPInfo, logger)
	if err := csvConsumer.Start(cmd.Context()); err != nil {
		return err
	}
	if err := router.RegisterConsumer(csvConsumer); err != nil {
		return err
	}

	if captureStdout {
		stdoutConsumer := pipeline.NewStdoutConsumer(
			os.Stdout, cfg.Capture.LookupProcesses, cfg.Capture.LookupIPInfo)
		if err := router.RegisterConsumer(stdoutConsumer); err != nil {
			return err
		}
	}

	var opts []capture.Option
	opts = append(opts, capture.WithLogger(logger))
	if cfg.Capture.LookupIPInfo {
		opts = append(opts, capture.WithIPInfoClient(newIPInfoClient(cfg)))
	}

	runner, err := capture.NewRunner(collector, router, capture.Config{
		Every:           time.Duration(cfg.Capture.Every) * time.Second,
		Over:            time.Duration(cfg.Capture.Over) * time.Minute,
		IncludePrivate:  cfg.Capture.IncludePrivate,
		LookupProcesses: cfg.Capture.LookupProcesses,
		LookupIPInfo:    cfg.Capture.LookupIPInfo,
	}, opts...)
	if err != nil {
		return err
	}

	if !quiet {
		figure.NewFigure("CAPCON", "", true).Print()
		ui.Success("Capturing to " + cfg.Capture.File)
	}

	return runner.Run(cmd.Context())
}

func applyCaptureFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if captureEvery > 0 {
		cfg.Capture.Every = captureEvery
	}
	// --over 0 is an explicit "run until interrupted", so the flag has to be
	// distinguished from its zero default.
	if cmd.Flags().Changed("over") {
		cfg.Capture.Over = captureOver
	}
	if captureFile != "" {
		cfg.Capture.File = captureFile
	}
	if capturePrivate {
		cfg.Capture.IncludePrivate = true
	}
	if captureProcs {
		cfg.Capture.LookupProcesses = true
	}
	if captureIPInfo {
		cfg.Capture.LookupIPInfo = true
	}
}
