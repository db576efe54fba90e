package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/c4ristian/netmonitor/internal/export"
	"github.com/go-logr/logr"
)

// CSVConsumer appends captured connection rows to a CSV file. The first event
// truncates the file and writes the header, every later event appends.
type CSVConsumer struct {
	file        *export.CSVFile
	withProcess bool
	withIPInfo  bool
	logger      logr.Logger

	first       atomic.Bool
	eventsCount atomic.Uint64
	errorsCount atomic.Uint64
	lastErr     atomic.Value // error
}

// Compile-time interface check
var _ Consumer = (*CSVConsumer)(nil)

func NewCSVConsumer(path string, withProcess, withIPInfo bool, logger logr.Logger) *CSVConsumer {
	c := &CSVConsumer{
		file:        export.NewCSVFile(path),
		withProcess: withProcess,
		withIPInfo:  withIPInfo,
		logger:      logger.WithName("csv-consumer"),
	}
	c.first.Store(true)
	return c
}

func (c *CSVConsumer) Name() string {
	return "csv:" + c.file.Path()
}

func (c *CSVConsumer) Start(ctx context.Context) error {
	return nil
}

func (c *CSVConsumer) HandleEvent(event Event) error {
	rows, ok := event.Data.([]export.CaptureRow)
	if !ok {
		err := fmt.Errorf("unexpected event payload %T", event.Data)
		c.recordError(err)
		return err
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, export.CaptureRecord(row, c.withProcess, c.withIPInfo))
	}

	truncate := c.first.CompareAndSwap(true, false)
	header := export.CaptureColumns(c.withProcess, c.withIPInfo)
	if err := c.file.Write(header, records, truncate); err != nil {
		c.recordError(err)
		return err
	}

	c.eventsCount.Add(1)
	c.logger.V(1).Info("Wrote capture", "rows", len(records), "file", c.file.Path())
	return nil
}

func (c *CSVConsumer) Health() ConsumerHealth {
	health := ConsumerHealth{
		EventsCount: c.eventsCount.Load(),
		ErrorsCount: c.errorsCount.Load(),
	}
	if err, ok := c.lastErr.Load().(error); ok {
		health.LastError = err
	}
	health.Healthy = health.LastError == nil
	return health
}

func (c *CSVConsumer) recordError(err error) {
	c.errorsCount.Add(1)
	c.lastErr.Store(err)
}
