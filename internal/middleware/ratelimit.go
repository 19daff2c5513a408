package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
)

const limiterIdleTTL = 10 * time.Minute

// Limiter — token bucket на каждый action.
// Неиспользуемые записи периодически удаляются.
type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*limiterEntry
	hits  uint64
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter создаёт Limiter. Возвращает nil, если rps или burst <= 0:
// nil-Limiter пропускает всё.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: limiterIdleTTL,
		byKey:   make(map[string]*limiterEntry),
	}
}

// Allow расходует один токен для key.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}

// RateLimit ограничивает частоту попыток каждого action.
// При превышении попытка завершается ErrRateLimited, action не выполняется.
func RateLimit(rps float64, burst int) pipeline.Middleware {
	return RateLimitWith(NewLimiter(rps, burst))
}

// RateLimitWith — RateLimit с готовым Limiter.
func RateLimitWith(l *Limiter) pipeline.Middleware {
	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error) {
		name := action.ActionName(ctx)
		if !l.Allow(name, time.Now()) {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, name)
		}
		return next()
	}
}
