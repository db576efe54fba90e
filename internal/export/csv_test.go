package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c4ristian/netmonitor/pkg/netmon"
)

var testDate = time.Date(2024, 5, 1, 14, 30, 45, 0, time.UTC)

func TestWriteConnectionsCSV(t *testing.T) {
	conns := []netmon.Connection{
		{
			Date: testDate, PID: 4242, Process: "curl", Status: "ESTABLISHED",
			LocalIP: "192.168.1.1", LocalPort: 54321,
			RemoteIP: "93.184.216.34", RemotePort: 443,
		},
		{
			Date: testDate, PID: -1, Status: "LISTEN",
			LocalIP: "127.0.0.1", LocalPort: 8080, RemotePort: -1,
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteConnectionsCSV(&sb, conns))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,pid,proc,status,lip,lport,rip,rport,rpriv", lines[0])
	assert.Equal(t, "2024-05-01 14:30:45,4242,curl,ESTABLISHED,192.168.1.1,54321,93.184.216.34,443,false", lines[1])
	assert.Equal(t, "2024-05-01 14:30:45,-1,,LISTEN,127.0.0.1,8080,,-1,false", lines[2])
}

func TestWriteTrafficCSV(t *testing.T) {
	stats := []netmon.TrafficStats{
		{
			Timestamp: testDate, Interface: "eth0",
			BytesRecv: 1000, PacketsRecv: 10, BytesSent: 2000, PacketsSent: 20,
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteTrafficCSV(&sb, stats))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,network_interface,packets_recv,packets_sent,bytes_recv,bytes_sent", lines[0])
	assert.Equal(t, "2024-05-01 14:30:45,eth0,10,20,1000,2000", lines[1])
}

func TestCaptureColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"timestamp", "ip_address", "port", "ip_private", "pid", "status"},
		CaptureColumns(false, false))
	assert.Equal(t,
		[]string{"timestamp", "ip_address", "port", "ip_private", "pid", "status", "process"},
		CaptureColumns(true, false))
	assert.Equal(t,
		[]string{"timestamp", "ip_address", "port", "ip_private", "pid", "status", "process", "ip_org", "ip_country"},
		CaptureColumns(true, true))
}

func TestCaptureRecord(t *testing.T) {
	row := CaptureRow{
		Timestamp: testDate, IPAddress: "93.184.216.34", Port: 443,
		IPPrivate: false, PID: 4242, Status: "ESTABLISHED",
		Process: "curl", Org: "AS15133 Edgecast Inc.", Country: "US",
	}

	assert.Equal(t,
		[]string{"2024-05-01 14:30:45", "93.184.216.34", "443", "false", "4242", "ESTABLISHED"},
		CaptureRecord(row, false, false))
	assert.Equal(t,
		[]string{"2024-05-01 14:30:45", "93.184.216.34", "443", "false", "4242", "ESTABLISHED", "curl", "AS15133 Edgecast Inc.", "US"},
		CaptureRecord(row, true, true))
}

func TestCSVFileTruncateThenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.csv")
	file := NewCSVFile(path)
	assert.Equal(t, path, file.Path())

	header := []string{"timestamp", "ip_address"}
	require.NoError(t, file.Write(header, [][]string{
		{"2024-05-01 14:30:45", "93.184.216.34"},
	}, true))
	require.NoError(t, file.Write(header, [][]string{
		{"2024-05-01 14:31:45", "93.184.216.34"},
	}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,ip_address", lines[0])
	assert.Equal(t, "2024-05-01 14:30:45,93.184.216.34", lines[1])
	assert.Equal(t, "2024-05-01 14:31:45,93.184.216.34", lines[2])
}

func TestCSVFileTruncateDiscardsOldContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.csv")
	require.NoError(t, os.WriteFile(path, []byte("old content\n"), 0o644))

	file := NewCSVFile(path)
	require.NoError(t, file.Write([]string{"a", "b"}, [][]string{{"1", "2"}}, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}
