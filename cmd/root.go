package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/c4ristian/netmonitor/internal/config"
	"github.com/c4ristian/netmonitor/internal/ui"
	"github.com/c4ristian/netmonitor/pkg/netmon"
)

var (
	cfgFile   string
	verbosity int
	quiet     bool
	procPath  string
	sysPath   string

	logger logr.Logger
)

var rootCmd = &cobra.Command{
	Use:   "netmonitor",
	Short: "Monitor this machine's network connections and traffic",
	Long: `netmonitor inspects the network activity of this machine: current
TCP/UDP connections with their owning processes, per-interface traffic
counters, and scheduled CSV captures of connection snapshots.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger()
		netmon.SetRegistryLogger(logger.WithName("registry"))
	},
}

// Execute runs the CLI with signal-aware cancellation. SIGINT/SIGTERM stop
// long-running commands (capture, watch) cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !quiet {
		fmt.Fprint(os.Stderr, ui.FormatError(err.Error(), "", ""))
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: netmonitor.yml)")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity level")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all log output on stderr")
	rootCmd.PersistentFlags().StringVar(&procPath, "proc-path", "", "path to the proc filesystem (default: /proc)")
	rootCmd.PersistentFlags().StringVar(&sysPath, "sys-path", "", "path to the sys filesystem (default: /sys)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("netmonitor")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("NETMONITOR")
	// Nested keys like capture.every map to NETMONITOR_CAPTURE_EVERY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Flags are parsed before the initializers run, so quiet is set here
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !quiet {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

// newLogger builds the CLI logger. Logs go to stderr only so CSV output on
// stdout stays pipe-clean; --quiet discards everything.
func newLogger() logr.Logger {
	if quiet {
		return logr.Discard()
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	// zapr maps logr V-levels to negative zap levels
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))

	zapLog, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		return logr.Discard()
	}
	return zapr.NewLogger(zapLog)
}

// loadConfig loads the file/env configuration and applies the global path
// flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if procPath != "" {
		cfg.ProcPath = procPath
	}
	if sysPath != "" {
		cfg.SysPath = sysPath
	}
	return cfg, nil
}

// collectionConfig builds the collector configuration from cfg.
func collectionConfig(cfg *config.Config) netmon.CollectionConfig {
	cc := netmon.CollectionConfig{
		HostProcPath: cfg.ProcPath,
		HostSysPath:  cfg.SysPath,
	}
	cc.ApplyDefaults()
	return cc
}
