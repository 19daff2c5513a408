package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
)

// Runtime — реестр actions, стек middleware и контроллер вызовов.
//
// Безопасен для конкурентного использования. Каждый вызов работает
// со снимком middleware, взятым в момент старта.
type Runtime struct {
	registry   *action.Registry
	middleware *pipeline.Stack
}

// New создаёт пустой Runtime.
func New() *Runtime {
	return &Runtime{
		registry:   action.NewRegistry(),
		middleware: pipeline.NewStack(),
	}
}

// Register регистрирует action под именем name.
func (r *Runtime) Register(name string, a action.Action) error {
	return r.registry.Register(name, a)
}

// RegisterNamed регистрирует action под его собственным именем.
func (r *Runtime) RegisterNamed(a action.Named) error {
	return r.registry.RegisterNamed(a)
}

// Unregister удаляет action. Возвращает false, если его не было.
func (r *Runtime) Unregister(name string) bool {
	return r.registry.Unregister(name)
}

// Has проверяет наличие action.
func (r *Runtime) Has(name string) bool {
	return r.registry.Has(name)
}

// List возвращает имена actions в порядке регистрации.
func (r *Runtime) List() []string {
	return r.registry.List()
}

// Use добавляет middleware. Первый добавленный — внешний слой.
func (r *Runtime) Use(m pipeline.Middleware) {
	r.middleware.Use(m)
}

// UsePlugin добавляет старый plugin без next.
func (r *Runtime) UsePlugin(p pipeline.Plugin) {
	r.middleware.UsePlugin(p)
}

// Clear удаляет все actions и все middleware.
func (r *Runtime) Clear() {
	r.registry.Clear()
	r.middleware.Clear()
}

// Invoke вызывает action и возвращает только результат.
func (r *Runtime) Invoke(ctx context.Context, name string, actx *action.Context, opts Options) (any, error) {
	out, _, err := r.InvokeWithMeta(ctx, name, actx, opts)
	return out, err
}

// InvokeWithMeta вызывает action с учётом таймаута, отмены и повторов.
//
// Неизвестное имя — ошибка action.ErrActionNotFound без попыток и без Meta.
// Остальные ошибки возвращаются как *InvokeError с Meta.
func (r *Runtime) InvokeWithMeta(ctx context.Context, name string, actx *action.Context, opts Options) (any, Meta, error) {
	a, err := r.registry.Get(name)
	if err != nil {
		return nil, Meta{}, err
	}

	if actx == nil {
		actx = action.NewContext(nil)
	}

	// Снимок берётся один раз: повторы идут по тому же pipeline
	h := pipeline.Compose(r.middleware.Snapshot(), a.Run)

	meta := Meta{
		InvocationID: uuid.New(),
		Action:       name,
		StartedAt:    time.Now(),
	}

	retries := max(opts.Retries, 0)
	var lastErr error

	for {
		if isCancelled(ctx, opts.Cancel) {
			lastErr = ErrCancelled
			if ctx.Err() != nil {
				lastErr = cancelledError(ctx)
			}
			break
		}

		meta.Attempts++
		attemptCtx := action.WithInvocation(ctx, action.Invocation{
			ID:      meta.InvocationID,
			Action:  name,
			Attempt: meta.Attempts,
		})
		out, err := runAttempt(attemptCtx, h, actx, opts.Timeout, opts.Cancel)
		if err == nil {
			meta.finish()
			return out, meta, nil
		}
		lastErr = err

		// Ошибка action могла совпасть с отменой — отмена важнее
		if isCancelled(ctx, opts.Cancel) && !errors.Is(err, ErrCancelled) {
			lastErr = fmt.Errorf("%w: %w", ErrCancelled, err)
			break
		}

		if !shouldRetry(err) || meta.Attempts > retries {
			break
		}

		retry := meta.Attempts
		safeOnRetry(opts.OnRetry, err, retry)

		if werr := wait(ctx, opts.Backoff.Delay(retry), opts.Cancel); werr != nil {
			lastErr = werr
			break
		}
	}

	meta.finish()
	return nil, meta, &InvokeError{Meta: meta, Err: lastErr}
}
