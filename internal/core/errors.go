package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout — попытка не завершилась за Options.Timeout.
	// Конкретная ошибка — *TimeoutError.
	ErrTimeout = errors.New("action timed out")

	// ErrCancelled — вызов отменён через context или Options.Cancel.
	// Повторы после отмены не выполняются.
	ErrCancelled = errors.New("action cancelled")

	// ErrActionPanic — паника внутри middleware или action.
	ErrActionPanic = errors.New("action panicked")

	// ErrUnexpectedResult — результат не приводится к ожидаемому типу (InvokeAs).
	ErrUnexpectedResult = errors.New("unexpected result type")
)

// TimeoutError — попытка превысила выделенное время.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("action timed out after %s", e.Timeout)
}

// Is позволяет проверять errors.Is(err, ErrTimeout).
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// InvokeError — итоговая ошибка вызова вместе с метаданными.
//
// Err — ошибка последней попытки.
type InvokeError struct {
	Meta Meta
	Err  error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("invoke %s failed after %d attempt(s): %v", e.Meta.Action, e.Meta.Attempts, e.Err)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}

// MetaFromError извлекает Meta из ошибки вызова.
func MetaFromError(err error) (Meta, bool) {
	var ie *InvokeError
	if errors.As(err, &ie) {
		return ie.Meta, true
	}
	return Meta{}, false
}
