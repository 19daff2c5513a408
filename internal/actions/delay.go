package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Caddy/internal/action"
)

const (
	// NameDelay — имя action задержки.
	NameDelay = "delay"

	keyDurationSec = "duration_sec"
	keyDurationMs  = "duration_ms"
)

// Delay — action задержки.
//
// Ждёт указанное время, прерывается отменой context.
//
// Контекст:
//
//	{
//	    "duration_sec": 10,    // задержка в секундах
//	    // или
//	    "duration_ms": 5000    // задержка в миллисекундах
//	}
type Delay struct{}

// NewDelay создаёт Delay.
func NewDelay() *Delay {
	return &Delay{}
}

// Name возвращает имя action.
func (a *Delay) Name() string {
	return NameDelay
}

// Run выполняет задержку.
func (a *Delay) Run(ctx context.Context, actx *action.Context) (any, error) {
	duration, err := a.parseDuration(actx)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	case <-timer.C:
		return map[string]any{
			"duration_ms": duration.Milliseconds(),
		}, nil
	}
}

// parseDuration извлекает длительность из контекста.
func (a *Delay) parseDuration(actx *action.Context) (time.Duration, error) {
	if sec := actx.GetInt(keyDurationSec); sec > 0 {
		return time.Duration(sec) * time.Second, nil
	}

	if d := actx.GetDuration(keyDurationMs); d > 0 {
		return d, nil
	}

	return 0, fmt.Errorf("%w: %s: duration_sec or duration_ms required", ErrInvalidInput, NameDelay)
}
