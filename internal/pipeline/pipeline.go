package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shaiso/Caddy/internal/action"
)

// Next — продолжение pipeline, привязанное к позиции middleware.
// Возвращает результат внутренних слоёв.
type Next func() (any, error)

// Middleware — один слой onion-модели.
//
// Может выполнить код до и после вызова next. Если next не вызван,
// pipeline прерывается, и результатом становится то, что вернул middleware.
type Middleware func(ctx context.Context, actx *action.Context, next Next) (any, error)

// Plugin — старая форма middleware без next.
// Оборачивается через FromPlugin: сначала выполняется plugin, затем всегда next.
type Plugin func(ctx context.Context, actx *action.Context) error

// Handler — терминальный шаг (action) или собранный pipeline целиком.
type Handler func(ctx context.Context, actx *action.Context) (any, error)

// FromPlugin оборачивает Plugin в Middleware, которое всегда вызывает next.
// Ошибка plugin останавливает pipeline.
func FromPlugin(p Plugin) Middleware {
	return func(ctx context.Context, actx *action.Context, next Next) (any, error) {
		if err := p(ctx, actx); err != nil {
			return nil, err
		}
		return next()
	}
}

// Compose собирает middleware и терминальный шаг в один Handler.
//
// Compose([m0, m1], T)(ctx, actx) выполняет m0; когда m0 вызывает next,
// выполняется m1; когда m1 вызывает next — T. Первый middleware — внешний.
//
// Список копируется: последующие изменения исходного слайса не влияют
// на собранный Handler.
func Compose(middlewares []Middleware, terminal Handler) Handler {
	mws := slices.Clone(middlewares)

	return func(ctx context.Context, actx *action.Context) (any, error) {
		d := &dispatcher{
			middlewares: mws,
			terminal:    terminal,
			ctx:         ctx,
			actx:        actx,
			index:       -1,
		}

		out, err := d.dispatch(0)

		// Повторный next — ошибка программиста; её нельзя проглотить в middleware
		if v := d.violation(); v != nil {
			return nil, v
		}
		return out, err
	}
}

// Chain объединяет несколько middleware в один.
// Chain(m1, m2) ведёт себя как m1, внутри которого m2.
func Chain(middlewares ...Middleware) Middleware {
	mws := slices.Clone(middlewares)

	return func(ctx context.Context, actx *action.Context, next Next) (any, error) {
		h := Compose(mws, func(context.Context, *action.Context) (any, error) {
			return next()
		})
		return h(ctx, actx)
	}
}

// dispatcher — состояние одного прохода по pipeline.
type dispatcher struct {
	middlewares []Middleware
	terminal    Handler
	ctx         context.Context
	actx        *action.Context

	mu       sync.Mutex
	index    int
	violated error
}

// dispatch запускает слой с номером i.
func (d *dispatcher) dispatch(i int) (any, error) {
	d.mu.Lock()
	if i <= d.index {
		err := fmt.Errorf("%w: middleware #%d", ErrMultipleNext, i-1)
		if d.violated == nil {
			d.violated = err
		}
		d.mu.Unlock()
		return nil, err
	}
	d.index = i
	d.mu.Unlock()

	if i == len(d.middlewares) {
		if d.terminal == nil {
			return nil, nil
		}
		return d.terminal(d.ctx, d.actx)
	}

	mw := d.middlewares[i]
	if mw == nil {
		return d.dispatch(i + 1)
	}

	return mw(d.ctx, d.actx, func() (any, error) {
		return d.dispatch(i + 1)
	})
}

func (d *dispatcher) violation() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.violated
}
