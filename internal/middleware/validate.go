package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
)

// Validate проверяет, что в контексте action есть все ключи keys.
// Пустая строка или nil считаются отсутствием значения.
func Validate(keys ...string) pipeline.Middleware {
	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error) {
		var missing []string
		for _, key := range keys {
			v, ok := actx.Get(key)
			if !ok || v == nil {
				missing = append(missing, key)
				continue
			}
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				missing = append(missing, key)
			}
		}

		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
		}
		return next()
	}
}

// ValidateFor применяет Validate только к action с именем name.
func ValidateFor(name string, keys ...string) pipeline.Middleware {
	validate := Validate(keys...)
	return func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error) {
		if action.ActionName(ctx) != name {
			return next()
		}
		return validate(ctx, actx, next)
	}
}
