package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/proc", cfg.ProcPath)
	assert.Equal(t, "/sys", cfg.SysPath)
	assert.Equal(t, 30, cfg.Capture.Every)
	assert.Equal(t, -1, cfg.Capture.Over)
	assert.Equal(t, "data/connections.csv", cfg.Capture.File)
	assert.False(t, cfg.Capture.IncludePrivate)
	assert.Equal(t, 10, cfg.IPInfo.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Watch.Interval)
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("proc_path", "/host/proc")
	viper.Set("capture.every", 10)
	viper.Set("capture.include_private", true)
	viper.Set("watch.interval", 2)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/host/proc", cfg.ProcPath)
	assert.Equal(t, 10, cfg.Capture.Every)
	assert.True(t, cfg.Capture.IncludePrivate)
	assert.Equal(t, 2, cfg.Watch.Interval)
	// Untouched values keep their defaults
	assert.Equal(t, "/sys", cfg.SysPath)
	assert.Equal(t, "data/connections.csv", cfg.Capture.File)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Same env wiring the CLI sets up before Load
	viper.SetEnvPrefix("NETMONITOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("NETMONITOR_PROC_PATH", "/host/proc")
	t.Setenv("NETMONITOR_CAPTURE_EVERY", "10")
	t.Setenv("NETMONITOR_WATCH_INTERVAL", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/host/proc", cfg.ProcPath)
	assert.Equal(t, 10, cfg.Capture.Every)
	assert.Equal(t, 2, cfg.Watch.Interval)
	assert.Equal(t, "/sys", cfg.SysPath)
}
