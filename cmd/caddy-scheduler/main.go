// Caddy Scheduler — вызывает actions по расписаниям из конфигурации.
//
// Несколько экземпляров могут работать одновременно: тики выполняет
// только лидер (pg advisory lock). Без базы экземпляр считает себя
// единственным.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Caddy/internal/app"
	"github.com/shaiso/Caddy/internal/config"
	"github.com/shaiso/Caddy/internal/repo"
	"github.com/shaiso/Caddy/internal/scheduler"
	"github.com/shaiso/Caddy/internal/telemetry"
)

const schedLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger("caddy-scheduler")
	logger.Info("starting caddy-scheduler")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	queue := cfg.Scheduler.Dispatch == config.DispatchQueue
	deps, err := app.Bootstrap(ctx, cfg, logger, app.Options{Database: true, RabbitMQ: queue})
	if err != nil {
		logger.Error("failed to bootstrap", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	var dispatcher scheduler.Dispatcher
	var local *scheduler.LocalDispatcher
	if queue {
		if deps.Publisher == nil {
			logger.Error("queue dispatch requires RabbitMQ")
			os.Exit(1)
		}
		dispatcher = scheduler.NewQueueDispatcher(deps.Publisher)
	} else {
		local = scheduler.NewLocalDispatcher(deps.Invoker(), logger)
		dispatcher = local
	}

	sched, err := scheduler.New(scheduler.Config{
		Schedules:  cfg.DomainSchedules(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("invalid schedules", "error", err)
		os.Exit(1)
	}
	logger.Info("schedules loaded", "count", len(cfg.Schedules), "dispatch", cfg.Scheduler.Dispatch)

	var leader scheduler.Leader
	var lock *repo.LeaderLock
	if deps.Pool != nil {
		lock = repo.NewLeaderLock(deps.Pool, schedLockKey)
		leader = lock
	} else {
		logger.Warn("no database, leader election disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(gctx, cfg.Scheduler.TickInterval, leader)
		return nil
	})
	g.Go(func() error {
		return app.Serve(gctx, app.Addr(cfg.HTTP.SchedulerPort), app.NewMux(nil), logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("scheduler error", "error", err)
	}

	if local != nil {
		local.Wait()
	}
	if lock != nil {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := lock.Release(releaseCtx); err != nil {
			logger.Warn("failed to release leader lock", "error", err)
		}
		releaseCancel()
	}

	logger.Info("caddy-scheduler stopped")
}
