package core

import "time"

// Стратегии backoff.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

const (
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Backoff — задержка перед повтором.
type Backoff struct {
	Strategy     string        `json:"strategy" yaml:"strategy"`
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay"`
}

// Delay вычисляет задержку перед повтором номер retry (с 1).
//
// exponential: InitialDelay * 2^(retry-1), не больше MaxDelay.
// fixed или неизвестная стратегия: InitialDelay.
func (b *Backoff) Delay(retry int) time.Duration {
	if b == nil {
		return 0
	}

	initialDelay := b.InitialDelay
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}

	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	delay := initialDelay
	if b.Strategy == BackoffExponential {
		for i := 1; i < retry; i++ {
			delay *= 2
			if delay > maxDelay {
				break
			}
		}
	}

	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
