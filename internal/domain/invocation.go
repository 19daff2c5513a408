package domain

import (
	"time"

	"github.com/google/uuid"
)

// Invocation — запись журнала о завершённом вызове action.
//
// Хранятся только метаданные. Результат action не сохраняется.
type Invocation struct {
	// ID — идентификатор вызова (совпадает с core.Meta.InvocationID).
	ID uuid.UUID `json:"id"`

	// Action — имя вызванного action.
	Action string `json:"action"`

	// Status — итоговый статус.
	Status InvocationStatus `json:"status"`

	// Attempts — количество выполненных попыток.
	Attempts int `json:"attempts"`

	// StartedAt/EndedAt — границы всего вызова, включая повторы.
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// DurationMs — длительность вызова в миллисекундах.
	DurationMs int64 `json:"duration_ms"`

	// Error — текст ошибки последней попытки (пусто при успехе).
	Error string `json:"error,omitempty"`

	// Source — api, worker, scheduler или cli.
	Source Source `json:"source"`

	// RequestID — идентификатор запроса, если вызов пришёл извне.
	RequestID string `json:"request_id,omitempty"`

	// ScheduleName — имя расписания для вызовов из scheduler.
	ScheduleName string `json:"schedule_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsSuccess возвращает true, если вызов успешен.
func (i *Invocation) IsSuccess() bool {
	return i.Status.IsSuccess()
}

// InvocationFilter — параметры выборки журнала.
type InvocationFilter struct {
	Action string
	Status InvocationStatus
	Source Source
	Limit  int
	Offset int
}

// RetryPolicy — политика повторов, передаваемая вместе с запросом.
type RetryPolicy struct {
	// Retries — количество повторов после первой попытки.
	Retries int `json:"retries,omitempty" yaml:"retries"`

	// Backoff — стратегия задержки: "fixed", "exponential". Пусто — без задержки.
	Backoff string `json:"backoff,omitempty" yaml:"backoff"`

	// InitialDelayMs — начальная задержка в миллисекундах.
	InitialDelayMs int `json:"initial_delay_ms,omitempty" yaml:"initial_delay_ms"`

	// MaxDelayMs — максимальная задержка в миллисекундах.
	MaxDelayMs int `json:"max_delay_ms,omitempty" yaml:"max_delay_ms"`
}

// InvokeRequest — запрос на вызов action (HTTP, очередь, расписание).
type InvokeRequest struct {
	// ID — идентификатор запроса. Используется как request_id.
	ID uuid.UUID `json:"id"`

	// Action — имя action.
	Action string `json:"action"`

	// Context — начальные значения контекста action.
	Context map[string]any `json:"context,omitempty"`

	// TimeoutMs — таймаут одной попытки. 0 — значение по умолчанию.
	TimeoutMs int `json:"timeout_ms,omitempty"`

	// Retry — политика повторов. nil — значение по умолчанию.
	Retry *RetryPolicy `json:"retry,omitempty"`

	// Source — откуда пришёл запрос.
	Source Source `json:"source"`

	// ScheduleName — для запросов из scheduler.
	ScheduleName string `json:"schedule_name,omitempty"`
}
