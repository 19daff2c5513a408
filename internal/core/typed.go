package core

import (
	"context"
	"fmt"

	"github.com/shaiso/Caddy/internal/action"
)

// InvokeAs вызывает action и приводит результат к типу T.
//
// nil-результат даёт нулевое значение T без ошибки.
func InvokeAs[T any](ctx context.Context, rt *Runtime, name string, actx *action.Context, opts Options) (T, error) {
	var zero T

	out, err := rt.Invoke(ctx, name, actx, opts)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}

	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrUnexpectedResult, name, out, zero)
	}
	return v, nil
}
