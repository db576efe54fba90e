package netmon

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

// PointCollector performs one-shot data collection
type PointCollector interface {
	Type() SourceType
	Name() string

	// Collect performs a single collection and returns the result
	Collect(ctx context.Context) (any, error)

	Capabilities() CollectorCapabilities
}

// ContinuousCollector performs ongoing data collection with streaming output
type ContinuousCollector interface {
	Type() SourceType
	Name() string

	// Start begins continuous collection and returns a channel for
	// streaming results
	Start(ctx context.Context) (<-chan any, error)

	// Stop halts continuous collection and cleans up resources
	Stop() error

	Status() CollectorStatus
	LastError() error
	Capabilities() CollectorCapabilities
}

// BaseCollector provides the common plumbing shared by all collectors
type BaseCollector struct {
	sourceType   SourceType
	name         string
	logger       logr.Logger
	config       CollectionConfig
	capabilities CollectorCapabilities
}

func NewBaseCollector(sourceType SourceType, name string, logger logr.Logger,
	config CollectionConfig, capabilities CollectorCapabilities) BaseCollector {
	return BaseCollector{
		sourceType:   sourceType,
		name:         name,
		logger:       logger.WithName(string(sourceType)),
		config:       config,
		capabilities: capabilities,
	}
}

func (b *BaseCollector) Type() SourceType {
	return b.sourceType
}

func (b *BaseCollector) Name() string {
	return b.name
}

func (b *BaseCollector) Capabilities() CollectorCapabilities {
	return b.capabilities
}

func (b *BaseCollector) Logger() logr.Logger {
	return b.logger
}

func (b *BaseCollector) Config() CollectionConfig {
	return b.config
}

// BaseContinuousCollector adds status and error tracking on top of
// BaseCollector for collectors that stream results. Status and error are
// written by the collection goroutine and read by callers, so access is
// mutex-guarded.
type BaseContinuousCollector struct {
	BaseCollector
	mu        sync.RWMutex
	status    CollectorStatus
	lastError error
}

func NewBaseContinuousCollector(sourceType SourceType, name string, logger logr.Logger,
	config CollectionConfig, capabilities CollectorCapabilities) *BaseContinuousCollector {
	return &BaseContinuousCollector{
		BaseCollector: NewBaseCollector(sourceType, name, logger, config, capabilities),
		status:        CollectorStatusDisabled,
	}
}

func (b *BaseContinuousCollector) Status() CollectorStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *BaseContinuousCollector) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError
}

func (b *BaseContinuousCollector) SetStatus(status CollectorStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

func (b *BaseContinuousCollector) SetError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = err
	if err != nil {
		b.status = CollectorStatusFailed
		b.logger.Error(err, "collector error")
	}
}

func (b *BaseContinuousCollector) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = nil
}
