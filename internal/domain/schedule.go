package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического вызова action.
//
// Расписание задаёт:
//   - cron-выражение: "0 9 * * *" (каждый день в 9:00)
//   - или интервал: каждые N секунд
//
// Scheduler проверяет NextDueAt и отправляет InvokeRequest, когда время подошло.
type Schedule struct {
	// Name — уникальное имя расписания.
	Name string `json:"name"`

	// Action — имя вызываемого action.
	Action string `json:"action"`

	// CronExpr — cron-выражение "минуты часы дни месяцы дни_недели".
	// Задаётся либо CronExpr, либо IntervalSec, но не оба.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между вызовами.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для cron. По умолчанию UTC.
	Timezone string `json:"timezone"`

	// Enabled — если false, scheduler пропускает расписание.
	Enabled bool `json:"enabled"`

	// Context — значения контекста action.
	// Строки рендерятся как шаблоны в момент срабатывания ({{ .Now }}).
	Context map[string]any `json:"context,omitempty"`

	// TimeoutMs и Retry — параметры вызова.
	TimeoutMs int          `json:"timeout_ms,omitempty"`
	Retry     *RetryPolicy `json:"retry,omitempty"`

	// NextDueAt — время следующего срабатывания.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastFiredAt — время последнего срабатывания.
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`

	// LastRequestID — ID последнего отправленного запроса.
	LastRequestID *uuid.UUID `json:"last_request_id,omitempty"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли срабатывать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled || s.NextDueAt == nil {
		return false
	}
	return !now.Before(*s.NextDueAt)
}

// RecordFire записывает срабатывание и следующее время.
func (s *Schedule) RecordFire(requestID uuid.UUID, firedAt, nextDue time.Time) {
	s.LastFiredAt = &firedAt
	s.LastRequestID = &requestID
	s.NextDueAt = &nextDue
}
