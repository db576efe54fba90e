package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/c4ristian/netmonitor/internal/export"
)

// StdoutConsumer mirrors captured rows to a writer as CSV, useful for
// watching an interactive capture run alongside the file output.
type StdoutConsumer struct {
	w           io.Writer
	withProcess bool
	withIPInfo  bool

	first       atomic.Bool
	eventsCount atomic.Uint64
}

// Compile-time interface check
var _ Consumer = (*StdoutConsumer)(nil)

func NewStdoutConsumer(w io.Writer, withProcess, withIPInfo bool) *StdoutConsumer {
	c := &StdoutConsumer{w: w, withProcess: withProcess, withIPInfo: withIPInfo}
	c.first.Store(true)
	return c
}

func (c *StdoutConsumer) Name() string {
	return "stdout"
}

func (c *StdoutConsumer) Start(ctx context.Context) error {
	return nil
}

func (c *StdoutConsumer) HandleEvent(event Event) error {
	rows, ok := event.Data.([]export.CaptureRow)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event.Data)
	}

	cw := csv.NewWriter(c.w)
	if c.first.CompareAndSwap(true, false) {
		if err := cw.Write(export.CaptureColumns(c.withProcess, c.withIPInfo)); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := cw.Write(export.CaptureRecord(row, c.withProcess, c.withIPInfo)); err != nil {
			return err
		}
	}
	cw.Flush()

	c.eventsCount.Add(1)
	return cw.Error()
}

func (c *StdoutConsumer) Health() ConsumerHealth {
	return ConsumerHealth{
		Healthy:     true,
		EventsCount: c.eventsCount.Load(),
	}
}
