// Package export renders connection and traffic snapshots as CSV and as
// plain-text tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/c4ristian/netmonitor/pkg/netmon"
)

// TimeFormat is the timestamp layout used in CSV output and tables.
const TimeFormat = "2006-01-02 15:04:05"

// ConnectionColumns is the column order of connection snapshot output.
var ConnectionColumns = []string{
	"date", "pid", "proc", "status", "lip", "lport", "rip", "rport", "rpriv",
}

// TrafficColumns is the column order of traffic snapshot output.
var TrafficColumns = []string{
	"timestamp", "network_interface", "packets_recv", "packets_sent",
	"bytes_recv", "bytes_sent",
}

// ConnectionRecord renders one connection as a CSV record in
// ConnectionColumns order.
func ConnectionRecord(c netmon.Connection) []string {
	return []string{
		c.Date.Format(TimeFormat),
		strconv.FormatInt(int64(c.PID), 10),
		c.Process,
		c.Status,
		c.LocalIP,
		strconv.FormatInt(int64(c.LocalPort), 10),
		c.RemoteIP,
		strconv.FormatInt(int64(c.RemotePort), 10),
		strconv.FormatBool(c.RemotePrivate),
	}
}

// TrafficRecord renders one traffic row as a CSV record in TrafficColumns
// order.
func TrafficRecord(s netmon.TrafficStats) []string {
	return []string{
		s.Timestamp.Format(TimeFormat),
		s.Interface,
		strconv.FormatUint(s.PacketsRecv, 10),
		strconv.FormatUint(s.PacketsSent, 10),
		strconv.FormatUint(s.BytesRecv, 10),
		strconv.FormatUint(s.BytesSent, 10),
	}
}

// WriteConnectionsCSV writes a connection snapshot with header to w.
func WriteConnectionsCSV(w io.Writer, conns []netmon.Connection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ConnectionColumns); err != nil {
		return err
	}
	for _, c := range conns {
		if err := cw.Write(ConnectionRecord(c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrafficCSV writes a traffic snapshot with header to w.
func WriteTrafficCSV(w io.Writer, stats []netmon.TrafficStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrafficColumns); err != nil {
		return err
	}
	for _, s := range stats {
		if err := cw.Write(TrafficRecord(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CaptureRow is one row of a scheduled capture, in the capture CSV layout
// (timestamp, ip_address, port, ip_private, pid, status) plus optional
// process and IP-owner columns.
type CaptureRow struct {
	Timestamp time.Time
	IPAddress string
	Port      int32
	IPPrivate bool
	PID       int32
	Status    string
	Process   string
	Org       string
	Country   string
}

// CaptureColumns returns the capture CSV header. The process column is
// appended when withProcess is set, the ip_org/ip_country columns when
// withIPInfo is set.
func CaptureColumns(withProcess, withIPInfo bool) []string {
	cols := []string{"timestamp", "ip_address", "port", "ip_private", "pid", "status"}
	if withProcess {
		cols = append(cols, "process")
	}
	if withIPInfo {
		cols = append(cols, "ip_org", "ip_country")
	}
	return cols
}

// CaptureRecord renders row in the layout of CaptureColumns.
func CaptureRecord(row CaptureRow, withProcess, withIPInfo bool) []string {
	rec := []string{
		row.Timestamp.Format(TimeFormat),
		row.IPAddress,
		strconv.FormatInt(int64(row.Port), 10),
		strconv.FormatBool(row.IPPrivate),
		strconv.FormatInt(int64(row.PID), 10),
		row.Status,
	}
	if withProcess {
		rec = append(rec, row.Process)
	}
	if withIPInfo {
		rec = append(rec, row.Org, row.Country)
	}
	return rec
}

// CSVFile appends CSV records to a file. The header is written only when the
// file is created or truncated, so repeated captures into the same file
// produce one header followed by all captured rows.
type CSVFile struct {
	path string
}

func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

func (f *CSVFile) Path() string {
	return f.path
}

// Write appends records to the file. When truncate is set the file is
// recreated and the header written first.
func (f *CSVFile) Write(header []string, records [][]string, truncate bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	file, err := os.OpenFile(f.path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if truncate {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
