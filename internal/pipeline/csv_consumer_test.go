package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c4ristian/netmonitor/internal/export"
	"github.com/c4ristian/netmonitor/pkg/netmon"
)

func captureEvent(rows []export.CaptureRow) Event {
	return Event{
		Timestamp: time.Now(),
		Source:    netmon.SourceTypeConnections,
		Data:      rows,
	}
}

func TestCSVConsumerWriteThenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.csv")
	consumer := NewCSVConsumer(path, false, false, logr.Discard())
	assert.Equal(t, "csv:"+path, consumer.Name())

	ts := time.Date(2024, 5, 1, 14, 30, 45, 0, time.UTC)
	row := export.CaptureRow{
		Timestamp: ts, IPAddress: "93.184.216.34", Port: 443,
		PID: 4242, Status: "ESTABLISHED",
	}

	require.NoError(t, consumer.HandleEvent(captureEvent([]export.CaptureRow{row})))
	row.Timestamp = ts.Add(time.Minute)
	require.NoError(t, consumer.HandleEvent(captureEvent([]export.CaptureRow{row})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,ip_address,port,ip_private,pid,status", lines[0])
	assert.Equal(t, "2024-05-01 14:30:45,93.184.216.34,443,false,4242,ESTABLISHED", lines[1])
	assert.Equal(t, "2024-05-01 14:31:45,93.184.216.34,443,false,4242,ESTABLISHED", lines[2])

	health := consumer.Health()
	assert.True(t, health.Healthy)
	assert.Equal(t, uint64(2), health.EventsCount)
}

func TestCSVConsumerOptionalColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.csv")
	consumer := NewCSVConsumer(path, true, true, logr.Discard())

	row := export.CaptureRow{
		Timestamp: time.Date(2024, 5, 1, 14, 30, 45, 0, time.UTC),
		IPAddress: "93.184.216.34", Port: 443, PID: 4242, Status: "ESTABLISHED",
		Process: "curl", Org: "AS15133 Edgecast Inc.", Country: "US",
	}
	require.NoError(t, consumer.HandleEvent(captureEvent([]export.CaptureRow{row})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,ip_address,port,ip_private,pid,status,process,ip_org,ip_country", lines[0])
	assert.Contains(t, lines[1], "curl")
	assert.Contains(t, lines[1], "US")
}

func TestCSVConsumerRejectsUnexpectedPayload(t *testing.T) {
	consumer := NewCSVConsumer(filepath.Join(t.TempDir(), "capture.csv"), false, false, logr.Discard())

	err := consumer.HandleEvent(Event{Data: "not rows"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected event payload")

	health := consumer.Health()
	assert.False(t, health.Healthy)
	assert.Equal(t, uint64(1), health.ErrorsCount)
}

func TestStdoutConsumer(t *testing.T) {
	var sb strings.Builder
	consumer := NewStdoutConsumer(&sb, false, false)
	assert.Equal(t, "stdout", consumer.Name())

	row := export.CaptureRow{
		Timestamp: time.Date(2024, 5, 1, 14, 30, 45, 0, time.UTC),
		IPAddress: "93.184.216.34", Port: 443, PID: 4242, Status: "ESTABLISHED",
	}
	require.NoError(t, consumer.HandleEvent(captureEvent([]export.CaptureRow{row})))
	require.NoError(t, consumer.HandleEvent(captureEvent([]export.CaptureRow{row})))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	// Header once, then one line per event
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,ip_address,port,ip_private,pid,status", lines[0])
}
