package action

import (
	"context"
)

// Action — единица работы, которую runtime умеет вызывать по имени.
//
// Что делает action внутри (RPC, вычисление, запись в хранилище) runtime
// не интересует: он видит только Run.
type Action interface {
	// Run выполняет action и возвращает результат.
	// Action должен проверять ctx.Done() для отмены и таймаутов.
	Run(ctx context.Context, actx *Context) (any, error)
}

// Func — адаптер, позволяющий использовать обычную функцию как Action.
type Func func(ctx context.Context, actx *Context) (any, error)

// Run вызывает f(ctx, actx).
func (f Func) Run(ctx context.Context, actx *Context) (any, error) {
	return f(ctx, actx)
}

// Named — action, который знает своё имя.
// Используется для регистрации стандартных actions без явного имени.
type Named interface {
	Action

	// Name возвращает имя, под которым action регистрируется.
	Name() string
}

// isNil проверяет, что action отсутствует или является nil-функцией.
func isNil(a Action) bool {
	if a == nil {
		return true
	}
	if f, ok := a.(Func); ok && f == nil {
		return true
	}
	return false
}
