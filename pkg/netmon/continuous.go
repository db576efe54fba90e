package netmon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// NewPointCollector creates a PointCollector instance
type NewPointCollector func(logger logr.Logger, config CollectionConfig) (PointCollector, error)

// NewCollector creates a ContinuousCollector instance
type NewCollector func(logger logr.Logger, config CollectionConfig) (ContinuousCollector, error)

// ContinuousPointCollector adapts a PointCollector to the ContinuousCollector
// interface by invoking it on a ticker until the context is cancelled.
type ContinuousPointCollector struct {
	*BaseContinuousCollector
	point PointCollector

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Compile-time interface check
var _ ContinuousCollector = (*ContinuousPointCollector)(nil)

// PartialNewContinuousPointCollector turns a PointCollector factory into a
// ContinuousCollector factory for registration.
func PartialNewContinuousPointCollector(factory NewPointCollector) NewCollector {
	return func(logger logr.Logger, config CollectionConfig) (ContinuousCollector, error) {
		point, err := factory(logger, config)
		if err != nil {
			return nil, err
		}
		return NewContinuousPointCollector(point, logger, config), nil
	}
}

func NewContinuousPointCollector(point PointCollector, logger logr.Logger,
	config CollectionConfig) *ContinuousPointCollector {
	caps := point.Capabilities()
	caps.SupportsContinuous = true

	return &ContinuousPointCollector{
		BaseContinuousCollector: NewBaseContinuousCollector(
			point.Type(), point.Name(), logger, config, caps,
		),
		point: point,
	}
}

// Start begins periodic collection. The first collection happens immediately,
// subsequent ones every config.Interval. The returned channel is closed when
// the context is cancelled or Stop is called.
func (c *ContinuousPointCollector) Start(ctx context.Context) (<-chan any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil, fmt.Errorf("collector %s already started", c.Name())
	}

	interval := c.Config().Interval
	if interval <= 0 {
		interval = DefaultCollectionConfig().Interval
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.SetStatus(CollectorStatusActive)

	dataChan := make(chan any)
	go c.runCollection(ctx, interval, dataChan)
	return dataChan, nil
}

func (c *ContinuousPointCollector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.SetStatus(CollectorStatusDisabled)
	return nil
}

func (c *ContinuousPointCollector) runCollection(ctx context.Context, interval time.Duration, dataChan chan<- any) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(dataChan)

	collect := func() {
		result, err := c.point.Collect(ctx)
		if err != nil {
			c.Logger().Error(err, "collection failed")
			c.SetError(err)
			return
		}
		c.ClearError()
		c.SetStatus(CollectorStatusActive)

		select {
		case dataChan <- result:
		case <-ctx.Done():
		}
	}

	collect()

	for {
		select {
		case <-ctx.Done():
			c.SetStatus(CollectorStatusDisabled)
			return
		case <-ticker.C:
			collect()
		}
	}
}
