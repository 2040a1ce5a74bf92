package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el fixed window en proceso (un solo chat-server, tests).
// go-cache se encarga de expirar las ventanas viejas.
type MemoryLimiter struct {
	c      *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()
	winStart := now.Truncate(l.window)
	ttl := winStart.Add(l.window).Sub(now)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	// Add falla si ya existe: en ese caso solo incrementamos
	_ = l.c.Add(k, int64(0), ttl)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: nueva ventana
		l.c.Set(k, int64(1), ttl)
		hits = 1
	}
	return newResult(hits, l.max, ttl, l.window), nil
}
