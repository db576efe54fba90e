package netmon_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c4ristian/netmonitor/pkg/netmon"
)

func TestFilter(t *testing.T) {
	remote := netmon.Connection{
		RemoteIP: "93.184.216.34", RemotePort: 443, Status: "ESTABLISHED",
	}
	private := netmon.Connection{
		RemoteIP: "192.168.1.10", RemotePort: 22, RemotePrivate: true,
	}
	listener := netmon.Connection{
		RemoteIP: "", RemotePort: -1, Status: "LISTEN",
	}

	conns := []netmon.Connection{remote, private, listener}

	tests := []struct {
		name string
		opts netmon.FilterOptions
		want []netmon.Connection
	}{
		{
			name: "defaults drop private and empty remote",
			opts: netmon.FilterOptions{},
			want: []netmon.Connection{remote},
		},
		{
			name: "include private",
			opts: netmon.FilterOptions{IncludePrivate: true},
			want: []netmon.Connection{remote, private},
		},
		{
			name: "include empty remote",
			opts: netmon.FilterOptions{IncludeEmptyRemote: true},
			want: []netmon.Connection{remote, listener},
		},
		{
			name: "include everything",
			opts: netmon.FilterOptions{IncludePrivate: true, IncludeEmptyRemote: true},
			want: []netmon.Connection{remote, private, listener},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := netmon.Filter(conns, tt.opts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := netmon.Filter(nil, netmon.FilterOptions{})
	assert.Empty(t, got)
}

func TestHasRemote(t *testing.T) {
	assert.True(t, netmon.Connection{RemoteIP: "10.0.0.1"}.HasRemote())
	assert.False(t, netmon.Connection{RemoteIP: "", RemotePort: -1}.HasRemote())
}

func TestTotalTraffic(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stats := []netmon.TrafficStats{
		{
			Timestamp: ts, Interface: "eth0",
			BytesRecv: 100, PacketsRecv: 10, RxErrors: 1, RxDropped: 2,
			BytesSent: 200, PacketsSent: 20, TxErrors: 3, TxDropped: 4,
		},
		{
			Timestamp: ts, Interface: "lo",
			BytesRecv: 50, PacketsRecv: 5, RxErrors: 0, RxDropped: 0,
			BytesSent: 50, PacketsSent: 5, TxErrors: 0, TxDropped: 0,
		},
	}

	total := netmon.TotalTraffic(stats)
	assert.Equal(t, "all", total.Interface)
	assert.Equal(t, ts, total.Timestamp)
	assert.Equal(t, uint64(150), total.BytesRecv)
	assert.Equal(t, uint64(15), total.PacketsRecv)
	assert.Equal(t, uint64(1), total.RxErrors)
	assert.Equal(t, uint64(2), total.RxDropped)
	assert.Equal(t, uint64(250), total.BytesSent)
	assert.Equal(t, uint64(25), total.PacketsSent)
	assert.Equal(t, uint64(3), total.TxErrors)
	assert.Equal(t, uint64(4), total.TxDropped)
}

func TestTotalTrafficEmpty(t *testing.T) {
	total := netmon.TotalTraffic(nil)
	assert.Equal(t, "all", total.Interface)
	assert.False(t, total.Timestamp.IsZero())
	assert.Zero(t, total.BytesRecv)
}

func TestCollectionConfigApplyDefaults(t *testing.T) {
	var cfg netmon.CollectionConfig
	cfg.ApplyDefaults()

	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, "/proc", cfg.HostProcPath)
	assert.Equal(t, "/sys", cfg.HostSysPath)

	custom := netmon.CollectionConfig{
		Interval:     5 * time.Second,
		HostProcPath: "/host/proc",
	}
	custom.ApplyDefaults()
	assert.Equal(t, 5*time.Second, custom.Interval)
	assert.Equal(t, "/host/proc", custom.HostProcPath)
	assert.Equal(t, "/sys", custom.HostSysPath)
}

func TestCollectionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  netmon.CollectionConfig
		opts    netmon.ValidateOptions
		wantErr string
	}{
		{
			name:   "empty config without requirements",
			config: netmon.CollectionConfig{},
			opts:   netmon.ValidateOptions{},
		},
		{
			name:    "missing required proc path",
			config:  netmon.CollectionConfig{},
			opts:    netmon.ValidateOptions{RequireHostProcPath: true},
			wantErr: "HostProcPath is required",
		},
		{
			name:    "missing required sys path",
			config:  netmon.CollectionConfig{HostProcPath: "/proc"},
			opts:    netmon.ValidateOptions{RequireHostSysPath: true},
			wantErr: "HostSysPath is required",
		},
		{
			name:    "relative proc path",
			config:  netmon.CollectionConfig{HostProcPath: "proc"},
			opts:    netmon.ValidateOptions{RequireHostProcPath: true},
			wantErr: "must be an absolute path",
		},
		{
			name:    "relative sys path",
			config:  netmon.CollectionConfig{HostSysPath: "sys"},
			opts:    netmon.ValidateOptions{},
			wantErr: "must be an absolute path",
		},
		{
			name:   "valid absolute paths",
			config: netmon.CollectionConfig{HostProcPath: "/proc", HostSysPath: "/sys"},
			opts: netmon.ValidateOptions{
				RequireHostProcPath: true,
				RequireHostSysPath:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(tt.opts)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
