package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
)

// Recovery перехватывает панику во внутренних слоях и превращает её в ErrPanic.
func Recovery(logger *slog.Logger) pipeline.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					"action", action.ActionName(ctx),
					"error", r,
					"stack", string(debug.Stack()),
				)
				out = nil
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		return next()
	}
}
