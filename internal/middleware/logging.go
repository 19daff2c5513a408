package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
	"github.com/shaiso/Caddy/internal/telemetry"
)

// Logging логирует каждую попытку.
func Logging(logger *slog.Logger) pipeline.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error) {
		log := logger
		if inv, ok := action.InvocationFromContext(ctx); ok {
			log = telemetry.WithInvocationID(telemetry.WithAction(logger, inv.Action), inv.ID.String()).
				With("attempt", inv.Attempt)
		}

		log.Debug("attempt started")
		start := time.Now()

		out, err := next()

		if err != nil {
			log.Warn("attempt failed",
				"duration", time.Since(start),
				"error", err,
			)
			return out, err
		}

		log.Info("attempt succeeded", "duration", time.Since(start))
		return out, nil
	}
}
