package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/engine"
)

// EnvPrefix — переменные окружения с этим префиксом доступны
// в шаблонах контекста как {{ .Env.CADDY_... }}.
const EnvPrefix = "CADDY_"

// Leader — лидерство между несколькими экземплярами scheduler.
// Реализуется *repo.LeaderLock.
type Leader interface {
	TryAcquire(ctx context.Context) (bool, error)
}

// Scheduler — планировщик вызовов по расписаниям.
//
// Расписания хранятся в памяти (приходят из конфигурации).
type Scheduler struct {
	mu        sync.Mutex
	schedules []*domain.Schedule

	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules  []*domain.Schedule
	Dispatcher Dispatcher
	Logger     *slog.Logger

	// Now — источник времени (для тестов). По умолчанию time.Now.
	Now func() time.Time
}

// New проверяет расписания и вычисляет первое срабатывание каждого.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("scheduler: dispatcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Scheduler{
		dispatcher: cfg.Dispatcher,
		logger:     logger,
		now:        now,
	}

	start := now()
	for _, sched := range cfg.Schedules {
		if err := ValidateSchedule(sched); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sched.Name, err)
		}
		next, err := NextDue(sched, start)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sched.Name, err)
		}
		sched.NextDueAt = &next
		s.schedules = append(s.schedules, sched)
	}

	return s, nil
}

// Schedules возвращает копию текущего состояния расписаний.
func (s *Scheduler) Schedules() []domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		out = append(out, *sched)
	}
	return out
}

// Tick выполняет один тик планировщика.
//
// Для каждого due расписания:
//  1. рендерит контекст (шаблоны с .Now и .Env)
//  2. отправляет InvokeRequest через Dispatcher
//  3. сдвигает NextDueAt
//
// Пропущенные срабатывания не догоняются: следующее время считается от now.
// Ошибка одного расписания не блокирует остальные.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	fired := 0
	for _, sched := range s.schedules {
		if !sched.IsDue(now) {
			continue
		}
		ok, err := s.fire(ctx, sched, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %q: %w", sched.Name, err))
		}
		if ok {
			fired++
		}
	}

	if fired > 0 || len(errs) > 0 {
		s.logger.Info("scheduler tick completed",
			"fired", fired,
			"failed", len(errs),
		)
	}
	return errors.Join(errs...)
}

// fire отправляет один запрос. Возвращает true, если запрос отправлен.
func (s *Scheduler) fire(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	logger := s.logger.With("schedule_name", sched.Name, "action", sched.Action)

	next, err := NextDue(sched, now)
	if err != nil {
		// Некорректное расписание отключается, иначе оно срабатывало бы каждый тик
		sched.Enabled = false
		logger.Error("failed to calculate next due, disabling schedule", "error", err)
		return false, err
	}

	req, err := BuildRequest(sched, now)
	if err != nil {
		sched.NextDueAt = &next
		logger.Error("failed to render schedule context", "error", err)
		return false, err
	}

	sched.RecordFire(req.ID, now, next)

	if err := s.dispatcher.Dispatch(ctx, req); err != nil {
		logger.Warn("failed to dispatch scheduled invocation", "request_id", req.ID, "error", err)
		return false, err
	}

	logger.Debug("schedule fired", "request_id", req.ID, "next_due_at", next)
	return true, nil
}

// BuildRequest формирует InvokeRequest из расписания.
func BuildRequest(sched *domain.Schedule, now time.Time) (*domain.InvokeRequest, error) {
	data := engine.NewData(nil)
	data.Now = now
	data.LoadEnv(EnvPrefix)

	values, err := engine.RenderMap(sched.Context, data)
	if err != nil {
		return nil, err
	}

	return &domain.InvokeRequest{
		ID:           uuid.New(),
		Action:       sched.Action,
		Context:      values,
		TimeoutMs:    sched.TimeoutMs,
		Retry:        sched.Retry,
		Source:       domain.SourceScheduler,
		ScheduleName: sched.Name,
	}, nil
}

// Run вызывает Tick каждые interval, пока ctx не отменён.
//
// Если leader задан, тик выполняется только экземпляром, получившим
// лидерство.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, leader Leader) {
	tk := time.NewTicker(interval)
	defer tk.Stop()

	wasLeader := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
		}

		if leader != nil {
			ok, err := leader.TryAcquire(ctx)
			if err != nil {
				s.logger.Warn("leader lock failed", "error", err)
				continue
			}
			if ok != wasLeader {
				s.logger.Info("leadership changed", "leader", ok)
				wasLeader = ok
			}
			if !ok {
				continue
			}
		}

		if err := s.Tick(ctx); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}
	}
}
