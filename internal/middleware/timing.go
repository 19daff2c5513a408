package middleware

import (
	"context"
	"time"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
)

// DurationKey — ключ длительности последней попытки (мс).
const DurationKey = "duration_ms"

// Timing записывает длительность последней попытки в контекст action.
func Timing() pipeline.Middleware {
	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error) {
		start := time.Now()
		out, err := next()
		actx.Set(DurationKey, time.Since(start).Milliseconds())
		return out, err
	}
}
