// Package cache keeps update counts in Redis so thread badges do not hit the
// database on every board render.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"orderlyflow/internal/board"
	"orderlyflow/internal/config"
	"orderlyflow/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "updates:count:"
	versionPrefix = "updates:version:"
	versionTTL    = 24 * time.Hour
)

var errStale = errors.New("count invalidated while loading")

// Token is the invalidation version observed by a cache miss. Set only writes
// when the version is still the same, so a count read from the database
// before a post or delete never overwrites the invalidation.
type Token string

// Counts caches per-entity update counts. Implementations must be safe for
// concurrent use.
type Counts interface {
	Get(ctx context.Context, boardID, entityID string, t board.EntityType) (n int64, hit bool, tok Token)
	Set(ctx context.Context, boardID, entityID string, t board.EntityType, n int64, tok Token)
	Invalidate(ctx context.Context, boardID, entityID string, t board.EntityType)
}

type RedisCounts struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

var _ Counts = (*RedisCounts)(nil)

// Connect dials Redis and checks it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisCounts(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *RedisCounts {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCounts{client: client, ttl: ttl, metrics: m}
}

func key(boardID, entityID string, t board.EntityType) string {
	return keyPrefix + boardID + ":" + string(t) + ":" + entityID
}

func versionKey(boardID, entityID string, t board.EntityType) string {
	return versionPrefix + boardID + ":" + string(t) + ":" + entityID
}

func (c *RedisCounts) observe(result string) {
	if c.metrics != nil {
		c.metrics.CountCache.WithLabelValues(result).Inc()
	}
}

func versionOf(v any) Token {
	if s, ok := v.(string); ok {
		return Token(s)
	}
	return "0"
}

// Get reports a cached count. On a miss it returns the token Set needs.
// Redis errors count as a miss with an empty token, which Set ignores.
func (c *RedisCounts) Get(ctx context.Context, boardID, entityID string, t board.EntityType) (int64, bool, Token) {
	vals, err := c.client.MGet(ctx, key(boardID, entityID, t), versionKey(boardID, entityID, t)).Result()
	if err != nil || len(vals) != 2 {
		c.observe("error")
		return 0, false, ""
	}
	tok := versionOf(vals[1])
	raw, ok := vals[0].(string)
	if !ok {
		c.observe("miss")
		return 0, false, tok
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.observe("error")
		return 0, false, tok
	}
	c.observe("hit")
	return n, true, tok
}

// Set caches n unless the entity was invalidated after tok was taken.
func (c *RedisCounts) Set(ctx context.Context, boardID, entityID string, t board.EntityType, n int64, tok Token) {
	if tok == "" {
		return
	}
	vk := versionKey(boardID, entityID, t)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Result()
		if errors.Is(err, redis.Nil) {
			cur = "0"
		} else if err != nil {
			return err
		}
		if Token(cur) != tok {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key(boardID, entityID, t), n, c.ttl)
			return nil
		})
		return err
	}, vk)
	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.observe("stale")
	default:
		c.observe("error")
	}
}

// Invalidate bumps the entity's version and drops its cached count.
func (c *RedisCounts) Invalidate(ctx context.Context, boardID, entityID string, t board.EntityType) {
	vk := versionKey(boardID, entityID, t)
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, vk)
		p.Expire(ctx, vk, versionTTL)
		p.Del(ctx, key(boardID, entityID, t))
		return nil
	})
	if err != nil {
		c.observe("error")
	}
}

// Nop never caches.
type Nop struct{}

var _ Counts = Nop{}

func (Nop) Get(context.Context, string, string, board.EntityType) (int64, bool, Token) {
	return 0, false, ""
}
func (Nop) Set(context.Context, string, string, board.EntityType, int64, Token) {}
func (Nop) Invalidate(context.Context, string, string, board.EntityType)        {}
