// Caddy Worker — выполняет вызовы из очереди actions.invoke.
//
// Worker:
//   - получает InvokeRequest из RabbitMQ
//   - вызывает action через runtime с повторами и таймаутом
//   - журналирует вызов и публикует action.completed
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Caddy/internal/app"
	"github.com/shaiso/Caddy/internal/config"
	"github.com/shaiso/Caddy/internal/telemetry"
	"github.com/shaiso/Caddy/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger("caddy-worker")
	logger.Info("starting caddy-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, err := app.Bootstrap(ctx, cfg, logger, app.Options{Database: true, RabbitMQ: true})
	if err != nil {
		logger.Error("failed to bootstrap", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	if deps.MQ == nil {
		logger.Error("worker requires RabbitMQ")
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Invoker:   deps.Invoker(),
		Publisher: deps.Publisher,
		Conn:      deps.MQ,
		Prefetch:  cfg.RabbitMQ.Prefetch,
		Logger:    logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	if err := app.Serve(ctx, app.Addr(cfg.HTTP.WorkerPort), app.NewMux(nil), logger); err != nil {
		logger.Error("http server error", "error", err)
	}

	w.Stop()
	logger.Info("caddy-worker stopped")
}
