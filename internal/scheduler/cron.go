package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Caddy/internal/domain"
)

// cronParser — стандартные 5 полей и дескрипторы (@hourly, @daily, @every 5m).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextDue вычисляет следующее срабатывание после from.
//
// Cron считается в часовом поясе расписания (невалидный пояс — UTC),
// интервал прибавляется к from. Результат всегда в UTC.
func NextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	switch {
	case sched.IsCron():
		schedule, err := cronParser.Parse(sched.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", sched.CronExpr, err)
		}
		return schedule.Next(from.In(location(sched.Timezone))).UTC(), nil

	case sched.IsInterval():
		return from.Add(time.Duration(sched.IntervalSec) * time.Second).UTC(), nil

	default:
		return time.Time{}, ErrNoTrigger
	}
}

func location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidateCronExpr проверяет cron-выражение.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// ValidateSchedule проверяет, что расписание можно выполнять.
func ValidateSchedule(sched *domain.Schedule) error {
	if sched.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidSchedule)
	}

	switch {
	case sched.CronExpr != "" && sched.IntervalSec > 0:
		return fmt.Errorf("%w: cron and interval are mutually exclusive", ErrInvalidSchedule)
	case sched.CronExpr != "":
		if err := ValidateCronExpr(sched.CronExpr); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
	case sched.IntervalSec <= 0:
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, ErrNoTrigger)
	}

	if sched.Timezone != "" {
		if _, err := time.LoadLocation(sched.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q: %w", ErrInvalidSchedule, sched.Timezone, err)
		}
	}
	return nil
}
