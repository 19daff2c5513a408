package actions

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput — в контексте action нет нужных значений
	// или они имеют неверный тип.
	ErrInvalidInput = errors.New("invalid action input")

	// ErrCancelled — action прерван отменой context.
	ErrCancelled = errors.New("action execution cancelled")
)

// HTTPError — сервер ответил статусом 5xx.
// Ошибка повторяемая: runtime может выполнить следующую попытку.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsHTTPError проверяет, является ли ошибка HTTP ошибкой.
func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}
