// Package rate implementa rate limiting de ventana fija, en Redis o en memoria.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
	// WindowTTL es lo que falta para que la ventana actual se resetee.
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(hits, max int64, ttl, window time.Duration) Result {
	if ttl <= 0 {
		ttl = window
	}
	res := Result{
		Allowed:     hits <= max,
		Limit:       max,
		Remaining:   max - hits,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}

// RedisLimiter: fixed window con INCR + EXPIRE NX en una transacción.
// Comparte contador entre réplicas del chat-server.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window, now: time.Now}
}

func (l *RedisLimiter) key(k string, winStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(k, " ", "_"), winStart.Unix())
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := l.now().UTC().Truncate(l.window)
	rk := l.key(key, winStart)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, rk)
	pipe.ExpireNX(ctx, rk, l.window)
	ttl := pipe.PTTL(ctx, rk)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: redis: %w", err)
	}
	return newResult(incr.Val(), l.max, ttl.Val(), l.window), nil
}
