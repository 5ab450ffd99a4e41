package dedupe

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a processed event id is remembered. The
// external processor retries failed deliveries for days, but handler
// idempotency covers anything older than this window.
const DefaultTTL = 72 * time.Hour

const keyPrefix = "webhook_event:v1:"

// Deduper records processed webhook event ids so that at-least-once
// delivery does not dispatch the same event twice. It is an optimization
// only: every handler is idempotent on its own, so losing the redis state
// is safe.
type Deduper interface {
	// MarkProcessed records the event id. It returns true if this is the
	// first time the id was seen.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	// Seen reports whether the event id was already recorded.
	Seen(ctx context.Context, eventID string) (bool, error)
}

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisDeduper creates a redis-backed Deduper.
func NewRedisDeduper(cfg *config.Configuration, logger *logger.Logger) Deduper {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &redisDeduper{
		client: client,
		ttl:    DefaultTTL,
		logger: logger,
	}
}

// NewRedisDeduperWithClient creates a Deduper over an existing client.
// Used by tests with miniredis.
func NewRedisDeduperWithClient(client *redis.Client, logger *logger.Logger) Deduper {
	return &redisDeduper{
		client: client,
		ttl:    DefaultTTL,
		logger: logger,
	}
}

func (d *redisDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	first, err := d.client.SetNX(ctx, keyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, err
	}
	return first, nil
}

func (d *redisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, keyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
