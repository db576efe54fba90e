// Package capture schedules periodic connection snapshots and publishes them
// to the capture pipeline.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/c4ristian/netmonitor/internal/export"
	"github.com/c4ristian/netmonitor/internal/ipinfo"
	"github.com/c4ristian/netmonitor/internal/pipeline"
	"github.com/c4ristian/netmonitor/pkg/netmon"
	"github.com/go-logr/logr"
)

// Config controls a capture run.
type Config struct {
	// Interval between captures
	Every time.Duration
	// Total run time; zero or negative means run until cancelled
	Over time.Duration
	// Keep rows whose remote address is private/local
	IncludePrivate bool
	// Look up process names (adds the process column)
	LookupProcesses bool
	// Look up IP owner info (adds the ip_org/ip_country columns)
	LookupIPInfo bool
}

// Runner captures connection snapshots on a schedule. The first capture runs
// immediately and truncates the output, subsequent captures append.
type Runner struct {
	collector netmon.PointCollector
	router    *pipeline.Router
	ipClient  *ipinfo.Client
	config    Config
	logger    logr.Logger
}

type Option func(*Runner)

func WithLogger(logger logr.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithIPInfoClient sets the client used for --ipinfo lookups.
func WithIPInfoClient(client *ipinfo.Client) Option {
	return func(r *Runner) { r.ipClient = client }
}

func NewRunner(collector netmon.PointCollector, router *pipeline.Router,
	config Config, opts ...Option) (*Runner, error) {
	if collector == nil {
		return nil, fmt.Errorf("collector is required")
	}
	if router == nil {
		return nil, fmt.Errorf("router is required")
	}
	if config.Every <= 0 {
		config.Every = 30 * time.Second
	}

	r := &Runner{
		collector: collector,
		router:    router,
		config:    config,
		logger:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if config.LookupIPInfo && r.ipClient == nil {
		r.ipClient = ipinfo.NewClient(ipinfo.WithLogger(r.logger))
	}
	return r, nil
}

// Run captures until the configured duration elapses or ctx is cancelled.
// Individual capture failures are logged and the schedule continues.
func (r *Runner) Run(ctx context.Context) error {
	if r.config.Over > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Over)
		defer cancel()
	}

	if err := r.CaptureOnce(ctx); err != nil {
		// The first capture establishes the output file; failing here
		// means the whole run cannot produce anything useful.
		return fmt.Errorf("initial capture failed: %w", err)
	}

	ticker := time.NewTicker(r.config.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Capture run finished")
			return nil
		case <-ticker.C:
			if err := r.CaptureOnce(ctx); err != nil {
				r.logger.Error(err, "Capture failed")
			}
		}
	}
}

// CaptureOnce takes a single snapshot and publishes it to the pipeline.
func (r *Runner) CaptureOnce(ctx context.Context) error {
	result, err := r.collector.Collect(ctx)
	if err != nil {
		return err
	}
	conns, ok := result.([]netmon.Connection)
	if !ok {
		return fmt.Errorf("unexpected collector result %T", result)
	}

	rows := r.buildRows(ctx, conns)
	r.logger.Info("Connections captured", "rows", len(rows))

	return r.router.Publish(pipeline.Event{
		Timestamp: time.Now(),
		Source:    netmon.SourceTypeConnections,
		Data:      rows,
	})
}

// buildRows converts a snapshot into capture rows. Sockets without a remote
// peer or a known owning process are dropped, private remotes only kept when
// configured, and IP owner info looked up once per distinct address.
func (r *Runner) buildRows(ctx context.Context, conns []netmon.Connection) []export.CaptureRow {
	infoCache := make(map[string]ipinfo.Info)
	rows := make([]export.CaptureRow, 0, len(conns))

	for _, c := range conns {
		if !c.HasRemote() || c.PID <= 0 {
			continue
		}
		if !r.config.IncludePrivate && c.RemotePrivate {
			continue
		}

		row := export.CaptureRow{
			Timestamp: c.Date,
			IPAddress: c.RemoteIP,
			Port:      c.RemotePort,
			IPPrivate: c.RemotePrivate,
			PID:       c.PID,
			Status:    c.Status,
			Process:   c.Process,
		}

		if r.config.LookupIPInfo && r.ipClient != nil {
			info, cached := infoCache[c.RemoteIP]
			if !cached {
				looked, err := r.ipClient.Lookup(ctx, c.RemoteIP)
				if err != nil {
					r.logger.V(1).Info("IP info lookup failed",
						"ip", c.RemoteIP, "error", err)
				}
				info = looked
				infoCache[c.RemoteIP] = info
			}
			row.Org = info.Org
			row.Country = info.Country
		}

		rows = append(rows, row)
	}
	return rows
}
