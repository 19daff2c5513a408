package invoker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/core"
	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/middleware"
	"github.com/shaiso/Caddy/internal/telemetry"
)

// Journal — хранилище записей о вызовах.
// Реализуется *repo.InvocationRepo.
type Journal interface {
	Create(ctx context.Context, inv *domain.Invocation) error
}

// Defaults — параметры вызова, если запрос их не задал.
type Defaults struct {
	Timeout time.Duration
	Retry   domain.RetryPolicy
}

// Config — конфигурация Invoker.
type Config struct {
	Runtime  *core.Runtime
	Journal  Journal            // опционально
	Metrics  *telemetry.Metrics // опционально
	Logger   *slog.Logger
	Defaults Defaults
}

// Invoker выполняет InvokeRequest через runtime и журналирует результат.
type Invoker struct {
	rt       *core.Runtime
	journal  Journal
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	defaults Defaults
}

// Result — итог вызова.
type Result struct {
	Output     any
	Meta       core.Meta
	Invocation *domain.Invocation
}

// New создаёт Invoker.
func New(cfg Config) *Invoker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Invoker{
		rt:       cfg.Runtime,
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		logger:   logger,
		defaults: cfg.Defaults,
	}
}

// Runtime возвращает runtime, через который идут вызовы.
func (i *Invoker) Runtime() *core.Runtime {
	return i.rt
}

// Invoke выполняет запрос.
//
// Неизвестный action возвращается как action.ErrActionNotFound без записи
// в журнал. Во всех остальных случаях Result заполнен, даже при ошибке.
func (i *Invoker) Invoke(ctx context.Context, req *domain.InvokeRequest) (*Result, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	logger := telemetry.WithRequestID(telemetry.WithAction(i.logger, req.Action), req.ID.String())
	if req.Source != "" {
		logger = telemetry.WithSource(logger, string(req.Source))
	}

	actx := action.NewContext(req.Context)
	actx.SetIfAbsent(middleware.RequestIDKey, req.ID.String())

	opts := i.Options(req)
	opts.OnRetry = func(err error, attempt int) {
		logger.Debug("retrying action", "retry", attempt, "error", err)
	}

	out, meta, err := i.rt.InvokeWithMeta(ctx, req.Action, actx, opts)
	if errors.Is(err, action.ErrActionNotFound) {
		return nil, err
	}

	inv := NewInvocation(meta, err, req)
	logger = telemetry.WithInvocationID(logger, inv.ID.String())

	if err != nil {
		logger.Warn("action failed",
			"status", inv.Status,
			"attempts", inv.Attempts,
			"duration_ms", inv.DurationMs,
			"error", err,
		)
	} else {
		logger.Info("action succeeded",
			"attempts", inv.Attempts,
			"duration_ms", inv.DurationMs,
		)
	}

	if i.metrics != nil {
		i.metrics.ObserveInvocation(req.Action, inv.Status.String(), meta.Duration, meta.Attempts)
	}

	// Журнал не влияет на результат вызова
	if i.journal != nil {
		if jerr := i.journal.Create(context.WithoutCancel(ctx), inv); jerr != nil {
			logger.Error("failed to journal invocation", "error", jerr)
		}
	}

	return &Result{Output: out, Meta: meta, Invocation: inv}, err
}

// Options строит core.Options из запроса и значений по умолчанию.
func (i *Invoker) Options(req *domain.InvokeRequest) core.Options {
	opts := core.Options{Timeout: i.defaults.Timeout}
	if req.TimeoutMs > 0 {
		opts.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	policy := i.defaults.Retry
	if req.Retry != nil {
		policy = *req.Retry
	}

	opts.Retries = max(policy.Retries, 0)
	opts.Backoff = BackoffFromPolicy(policy)
	return opts
}

// BackoffFromPolicy возвращает core.Backoff или nil, если стратегия не задана.
func BackoffFromPolicy(p domain.RetryPolicy) *core.Backoff {
	if p.Backoff == "" {
		return nil
	}
	return &core.Backoff{
		Strategy:     p.Backoff,
		InitialDelay: time.Duration(p.InitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(p.MaxDelayMs) * time.Millisecond,
	}
}

// NewInvocation строит запись журнала из Meta и ошибки вызова.
func NewInvocation(meta core.Meta, err error, req *domain.InvokeRequest) *domain.Invocation {
	inv := &domain.Invocation{
		ID:           meta.InvocationID,
		Action:       meta.Action,
		Status:       StatusOf(err),
		Attempts:     meta.Attempts,
		StartedAt:    meta.StartedAt,
		EndedAt:      meta.EndedAt,
		DurationMs:   meta.DurationMs(),
		Source:       req.Source,
		RequestID:    req.ID.String(),
		ScheduleName: req.ScheduleName,
		CreatedAt:    time.Now(),
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Action == "" {
		inv.Action = req.Action
	}
	if err != nil {
		inv.Error = errorMessage(err)
	}
	return inv
}

// StatusOf определяет статус вызова по ошибке.
func StatusOf(err error) domain.InvocationStatus {
	switch {
	case err == nil:
		return domain.InvocationStatusSucceeded
	case errors.Is(err, core.ErrCancelled):
		return domain.InvocationStatusCancelled
	case errors.Is(err, core.ErrTimeout):
		return domain.InvocationStatusTimedOut
	default:
		return domain.InvocationStatusFailed
	}
}

// errorMessage возвращает ошибку последней попытки без обёртки InvokeError.
func errorMessage(err error) string {
	var ie *core.InvokeError
	if errors.As(err, &ie) && ie.Err != nil {
		return ie.Err.Error()
	}
	return err.Error()
}
