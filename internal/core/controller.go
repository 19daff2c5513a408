package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/pipeline"
)

// attemptResult — итог выполнения pipeline на горутине попытки.
type attemptResult struct {
	out any
	err error
}

// runAttempt выполняет одну попытку.
//
// Исход определяет первое из событий: завершение pipeline, таймаут,
// отмена ctx или закрытие cancel. Остальные после этого игнорируются:
// канал результата буферизован, таймер остановлен, context попытки отменён.
func runAttempt(
	ctx context.Context,
	h pipeline.Handler,
	actx *action.Context,
	timeout time.Duration,
	cancel <-chan struct{},
) (any, error) {
	attemptCtx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan attemptResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult{err: fmt.Errorf("%w: %v\n%s", ErrActionPanic, r, debug.Stack())}
			}
		}()
		out, err := h(attemptCtx, actx)
		done <- attemptResult{out: out, err: err}
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case res := <-done:
		return res.out, res.err
	case <-timer:
		return nil, &TimeoutError{Timeout: timeout}
	case <-ctx.Done():
		return nil, cancelledError(ctx)
	case <-cancel:
		return nil, ErrCancelled
	}
}

// cancelledError формирует ErrCancelled с причиной отмены context.
func cancelledError(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, ErrCancelled) {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// isCancelled проверяет, отменён ли вызов.
func isCancelled(ctx context.Context, cancel <-chan struct{}) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

// shouldRetry решает, допустим ли повтор после ошибки.
func shouldRetry(err error) bool {
	switch {
	case errors.Is(err, ErrCancelled):
		return false
	case errors.Is(err, pipeline.ErrMultipleNext):
		return false
	default:
		return true
	}
}

// wait ждёт delay с учётом отмены. Возвращает ErrCancelled при отмене.
func wait(ctx context.Context, delay time.Duration, cancel <-chan struct{}) error {
	if delay <= 0 {
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return cancelledError(ctx)
	case <-cancel:
		return ErrCancelled
	}
}

// safeOnRetry вызывает callback; паника в нём игнорируется.
func safeOnRetry(fn func(error, int), err error, attempt int) {
	if fn == nil {
		return
	}
	defer func() { _ = recover() }()
	fn(err, attempt)
}
