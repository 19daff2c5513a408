package middleware

import (
	"context"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
	"github.com/shaiso/Caddy/internal/telemetry"
)

// Metrics считает попытки по исходу (caddy_attempts_total)
// и повторы (caddy_retries_total).
func Metrics(m *telemetry.Metrics) pipeline.Middleware {
	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error) {
		name := action.ActionName(ctx)
		if inv, ok := action.InvocationFromContext(ctx); ok && inv.Attempt > 1 {
			m.IncRetry(name)
		}

		out, err := next()

		switch {
		case err == nil:
			m.ObserveAttempt(name, telemetry.OutcomeSuccess)
		case ctx.Err() != nil:
			m.ObserveAttempt(name, telemetry.OutcomeAborted)
		default:
			m.ObserveAttempt(name, telemetry.OutcomeError)
		}
		return out, err
	}
}
