package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
)

// RequestIDKey — ключ request id в контексте action.
const RequestIDKey = "request_id"

// RequestID записывает request_id в контекст action, если его там нет.
// Повторы одного вызова видят тот же id.
func RequestID() pipeline.Middleware {
	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error) {
		actx.SetIfAbsent(RequestIDKey, uuid.NewString())
		return next()
	}
}
