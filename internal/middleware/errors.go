package middleware

import "errors"

var (
	// ErrRateLimited — превышен лимит вызовов action.
	// Ошибка повторяемая: следующая попытка может пройти.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrMissingKey — в контексте action нет обязательного ключа.
	ErrMissingKey = errors.New("missing required context key")

	// ErrPanic — паника внутри pipeline, перехваченная Recovery.
	ErrPanic = errors.New("panic recovered")
)
