package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/observability"
)

// RedisDispatcher queues events on a Redis list so they survive restarts.
// Events that exhaust their retries are moved to a dead-letter list.
type RedisDispatcher struct {
	*registry
	client      *redis.Client
	queueKey    string
	deadKey     string
	pollTimeout time.Duration
	workers     int
}

// RedisOptions configures RedisDispatcher.
type RedisOptions struct {
	QueueKey    string
	DeadKey     string
	PollTimeout time.Duration
	Workers     int
	Retry       RetryPolicy
}

// NewRedisDispatcher builds a dispatcher backed by client.
func NewRedisDispatcher(client *redis.Client, opts RedisOptions, logger *zap.Logger, metrics *observability.Metrics) *RedisDispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	return &RedisDispatcher{
		registry:    newRegistry(opts.Retry, logger, metrics),
		client:      client,
		queueKey:    opts.QueueKey,
		deadKey:     opts.DeadKey,
		pollTimeout: opts.PollTimeout,
		workers:     opts.Workers,
	}
}

// Publish pushes the event onto the queue list.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := d.client.LPush(ctx, d.queueKey, payload).Err(); err != nil {
		d.metrics.RecordEvent(string(event.Type), "dropped")
		return err
	}
	d.metrics.RecordEvent(string(event.Type), "published")
	return nil
}

// Run pops events with BRPOP until ctx is cancelled.
func (d *RedisDispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.consume(ctx)
		}()
	}
	wg.Wait()
	return nil
}

func (d *RedisDispatcher) consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		result, err := d.client.BRPop(ctx, d.pollTimeout, d.queueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Warn("event queue poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.retry.BaseBackoff):
			}
			continue
		}

		// result is [key, value]
		raw := result[1]
		var event Event
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			d.logger.Error("discarding undecodable event", zap.Error(err))
			d.bury(ctx, raw)
			continue
		}
		if err := d.deliver(ctx, event); err != nil {
			d.logger.Error("event moved to dead-letter list",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
			d.metrics.RecordEvent(string(event.Type), "dead")
			d.bury(ctx, raw)
		}
	}
}

func (d *RedisDispatcher) bury(ctx context.Context, raw string) {
	if d.deadKey == "" {
		return
	}
	// The dead-letter write must outlive a cancelled worker context.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.client.LPush(writeCtx, d.deadKey, raw).Err(); err != nil {
		d.logger.Error("dead-letter write failed", zap.Error(err))
	}
}
