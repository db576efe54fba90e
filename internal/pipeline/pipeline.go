// Package pipeline routes captured snapshots to one or more consumers
// (CSV file, stdout). Consumers are registered on a router which fans every
// event out to all of them; one failing consumer does not stop the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/c4ristian/netmonitor/pkg/netmon"
	"github.com/go-logr/logr"
)

// ErrRouterClosed is returned when attempting to publish to a closed router
var ErrRouterClosed = errors.New("capture router is closed")

// Event represents one captured snapshot flowing through the pipeline.
// Data holds the payload, typically []export.CaptureRow for connection
// captures.
type Event struct {
	Timestamp time.Time
	Source    netmon.SourceType
	Data      any
}

// Consumer processes capture events. Each consumer receives events via
// direct method calls and decides how to handle them.
type Consumer interface {
	// Name returns the unique name of this consumer
	Name() string

	// HandleEvent processes a single capture event
	HandleEvent(event Event) error

	// Start initializes the consumer
	Start(ctx context.Context) error

	// Health returns the current health status
	Health() ConsumerHealth
}

type ConsumerHealth struct {
	Healthy     bool
	LastError   error
	EventsCount uint64
	ErrorsCount uint64
}

// Router fans capture events out to registered consumers.
type Router struct {
	logger    logr.Logger
	mu        sync.RWMutex
	consumers map[string]Consumer
	closed    bool
}

func NewRouter(logger logr.Logger) *Router {
	return &Router{
		logger:    logger.WithName("capture-router"),
		consumers: make(map[string]Consumer),
	}
}

// RegisterConsumer adds a consumer to receive events. The consumer must
// already be started by the caller before registration.
func (r *Router) RegisterConsumer(consumer Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := consumer.Name()
	if _, exists := r.consumers[name]; exists {
		return fmt.Errorf("consumer %s already registered", name)
	}

	r.consumers[name] = consumer
	r.logger.Info("Consumer registered", "consumer", name)
	return nil
}

// UnregisterConsumer removes a consumer
func (r *Router) UnregisterConsumer(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.consumers[name]; !exists {
		return fmt.Errorf("consumer %s not found", name)
	}

	delete(r.consumers, name)
	r.logger.Info("Consumer unregistered", "consumer", name)
	return nil
}

// Publish emits a single event to all registered consumers. Per-consumer
// failures are logged; the last one is returned after the fan-out completes.
func (r *Router) Publish(event Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRouterClosed
	}

	var lastErr error
	for name, consumer := range r.consumers {
		if err := consumer.HandleEvent(event); err != nil {
			r.logger.V(1).Info("Failed to handle event in consumer",
				"consumer", name, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

// Close marks the router as closed; further publishes fail with
// ErrRouterClosed.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Stats returns per-consumer health.
func (r *Router) Stats() map[string]ConsumerHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]ConsumerHealth, len(r.consumers))
	for name, consumer := range r.consumers {
		stats[name] = consumer.Health()
	}
	return stats
}
