package action

import (
	"context"

	"github.com/google/uuid"
)

// Invocation — сведения о текущей попытке, доступные middleware и action
// через context.Context.
type Invocation struct {
	ID      uuid.UUID
	Action  string
	Attempt int
}

type invocationKey struct{}

// WithInvocation добавляет сведения о попытке в context.
func WithInvocation(ctx context.Context, inv Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext извлекает сведения о попытке.
func InvocationFromContext(ctx context.Context) (Invocation, bool) {
	inv, ok := ctx.Value(invocationKey{}).(Invocation)
	return inv, ok
}

// ActionName возвращает имя вызываемого action или "unknown".
func ActionName(ctx context.Context) string {
	if inv, ok := InvocationFromContext(ctx); ok && inv.Action != "" {
		return inv.Action
	}
	return "unknown"
}
