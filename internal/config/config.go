package config

import "github.com/spf13/viper"

// Config is the netmonitor configuration loaded from netmonitor.yml, the
// environment and flag overrides.
type Config struct {
	ProcPath string        `mapstructure:"proc_path"`
	SysPath  string        `mapstructure:"sys_path"`
	Capture  CaptureConfig `mapstructure:"capture"`
	IPInfo   IPInfoConfig  `mapstructure:"ipinfo"`
	Watch    WatchConfig   `mapstructure:"watch"`
}

type CaptureConfig struct {
	// Capture every N seconds
	Every int `mapstructure:"every"`
	// Stop after N minutes; <=0 runs until interrupted
	Over int `mapstructure:"over"`
	// Destination CSV file
	File string `mapstructure:"file"`
	// Keep private remote addresses
	IncludePrivate bool `mapstructure:"include_private"`
	// Add the process column
	LookupProcesses bool `mapstructure:"lookup_processes"`
	// Add the ip_org/ip_country columns
	LookupIPInfo bool `mapstructure:"lookup_ipinfo"`
}

type IPInfoConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type WatchConfig struct {
	// Refresh interval in seconds
	Interval int `mapstructure:"interval"`
}

// setDefaults registers every key with viper. Registration matters beyond the
// default values: viper.Unmarshal only consults the environment for keys it
// knows about.
func setDefaults() {
	viper.SetDefault("proc_path", "/proc")
	viper.SetDefault("sys_path", "/sys")
	viper.SetDefault("capture.every", 30)
	viper.SetDefault("capture.over", -1)
	viper.SetDefault("capture.file", "data/connections.csv")
	viper.SetDefault("capture.include_private", false)
	viper.SetDefault("capture.lookup_processes", false)
	viper.SetDefault("capture.lookup_ipinfo", false)
	viper.SetDefault("ipinfo.base_url", "")
	viper.SetDefault("ipinfo.timeout_seconds", 10)
	viper.SetDefault("watch.interval", 5)
}

// Load returns the configuration with defaults overlaid by whatever viper
// has read from file and environment.
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
