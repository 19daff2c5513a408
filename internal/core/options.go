package core

import (
	"time"

	"github.com/google/uuid"
)

// Options — параметры одного вызова.
//
// Нулевое значение: без таймаута, без повторов.
type Options struct {
	// Timeout ограничивает каждую попытку отдельно. 0 — без ограничения.
	Timeout time.Duration

	// Retries — количество дополнительных попыток после первой неудачи.
	Retries int

	// OnRetry вызывается синхронно перед повтором номер attempt (с 1).
	OnRetry func(err error, attempt int)

	// Backoff — задержка между попытками. nil — повтор сразу.
	Backoff *Backoff

	// Cancel — дополнительный сигнал отмены для вызывающих без context.
	Cancel <-chan struct{}
}

// Meta — метаданные выполнения одного вызова.
//
// StartedAt/EndedAt покрывают весь вызов, включая неудачные попытки.
type Meta struct {
	InvocationID uuid.UUID
	Action       string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
	Attempts     int
}

// DurationMs возвращает длительность в миллисекундах.
func (m Meta) DurationMs() int64 {
	return m.Duration.Milliseconds()
}

func (m *Meta) finish() {
	m.EndedAt = time.Now()
	m.Duration = m.EndedAt.Sub(m.StartedAt)
}
