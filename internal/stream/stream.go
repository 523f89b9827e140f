// Package stream publishes tracker events to a Redis stream and other sinks.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

// Event types.
const (
	EventCycleCompleted    = "cycle.completed"
	EventInsightsGenerated = "insights.generated"
	EventPlatformFailed    = "platform.failed"
)

// Publisher delivers an event to a sink.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, eventType string, data any) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, eventType string, data any) error {
	return f(ctx, eventType, data)
}

// Noop discards every event.
var Noop Publisher = PublisherFunc(func(context.Context, string, any) error { return nil })

// Multi publishes to every sink and joins their errors.
func Multi(pubs ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, eventType string, data any) error {
		var errs []error
		for _, p := range pubs {
			if p == nil {
				continue
			}
			if err := p.Publish(ctx, eventType, data); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// RedisClient is the subset of *redis.Client used here.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Config configures RedisPublisher.
type Config struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// RedisPublisher appends events to a capped Redis stream.
type RedisPublisher struct {
	client RedisClient
	stream string
	maxLen int64
	now    func() time.Time
}

// NewRedisPublisher connects to Redis. The connection is lazy; use Ping
// to verify it.
func NewRedisPublisher(cfg Config) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisPublisherWithClient(client, cfg.Stream, cfg.MaxLen)
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client RedisClient, stream string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: maxLen, now: time.Now}
}

// Publish appends one entry with fields id, type, timestamp and data (JSON).
func (p *RedisPublisher) Publish(ctx context.Context, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return apperror.New(apperror.CodeStreamPublishFailed, apperror.WithCause(err), apperror.WithContext(eventType))
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
		Values: map[string]any{
			"id":        uuid.NewString(),
			"type":      eventType,
			"timestamp": strconv.FormatInt(p.now().UnixNano(), 10),
			"data":      string(payload),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return apperror.New(apperror.CodeStreamPublishFailed, apperror.WithCause(err), apperror.WithContext(eventType))
	}
	return nil
}

// Ping checks connectivity, for health checks.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
