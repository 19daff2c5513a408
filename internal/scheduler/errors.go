package scheduler

import "errors"

// Ошибки расписаний.
var (
	// ErrInvalidSchedule — расписание нельзя выполнить.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrNoTrigger — не задан ни cron, ни интервал.
	ErrNoTrigger = errors.New("schedule has neither cron nor interval")
)
