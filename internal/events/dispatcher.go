package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/observability"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
// Publish never waits for handlers; Run consumes events until ctx is cancelled.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	Run(ctx context.Context) error
}

// ErrQueueFull is returned by Publish when the in-memory buffer is saturated.
var ErrQueueFull = errors.New("event queue full")

// RetryPolicy bounds handler retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	return p
}

// backoff returns the wait before retry number attempt (1-based).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	wait := p.BaseBackoff << (attempt - 1)
	if wait <= 0 || wait > p.MaxBackoff {
		return p.MaxBackoff
	}
	return wait
}

// registry stores subscriptions and runs handlers with retries.
type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	retry     RetryPolicy
	logger    *zap.Logger
	metrics   *observability.Metrics
}

func newRegistry(retry RetryPolicy, logger *zap.Logger, metrics *observability.Metrics) *registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registry{
		listeners: make(map[EventType][]EventHandler),
		retry:     retry.normalized(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Subscribe registers a handler for the given event type.
func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

// deliver runs every handler for event, retrying each independently. It
// returns an error when at least one handler exhausted its attempts.
func (r *registry) deliver(ctx context.Context, event Event) error {
	r.mu.RLock()
	handlers := append([]EventHandler{}, r.listeners[event.Type]...)
	r.mu.RUnlock()

	var failed error
	for _, handler := range handlers {
		if err := r.runWithRetry(ctx, event, handler); err != nil {
			failed = errors.Join(failed, err)
		}
	}
	if failed != nil {
		r.metrics.RecordEvent(string(event.Type), "failed")
		return failed
	}
	r.metrics.RecordEvent(string(event.Type), "delivered")
	return nil
}

func (r *registry) runWithRetry(ctx context.Context, event Event, handler EventHandler) error {
	var err error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		if err = handler(ctx, event); err == nil {
			return nil
		}
		r.logger.Warn("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == r.retry.MaxAttempts {
			break
		}
		timer := time.NewTimer(r.retry.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}

// MemoryDispatcher is a buffered in-process dispatcher consumed by a worker pool.
type MemoryDispatcher struct {
	*registry
	queue   chan Event
	workers int
}

// NewMemoryDispatcher creates a dispatcher with the given buffer size and worker count.
func NewMemoryDispatcher(queueSize, workers int, retry RetryPolicy, logger *zap.Logger, metrics *observability.Metrics) *MemoryDispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &MemoryDispatcher{
		registry: newRegistry(retry, logger, metrics),
		queue:    make(chan Event, queueSize),
		workers:  workers,
	}
}

// Publish enqueues the event without waiting for handlers.
func (d *MemoryDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
		d.metrics.RecordEvent(string(event.Type), "published")
		return nil
	default:
		d.metrics.RecordEvent(string(event.Type), "dropped")
		return ErrQueueFull
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (d *MemoryDispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event := <-d.queue:
					if err := d.deliver(ctx, event); err != nil {
						d.logger.Error("event delivery abandoned",
							zap.String("event_id", event.ID),
							zap.String("event_type", string(event.Type)),
							zap.Error(err))
					}
				}
			}
		}()
	}
	wg.Wait()
	return nil
}
