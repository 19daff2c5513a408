// Caddy API — HTTP API для вызова actions и чтения журнала.
//
// Синхронные вызовы выполняются в процессе API; "async": true ставит
// вызов в очередь actions.invoke для caddy-worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Caddy/internal/api"
	"github.com/shaiso/Caddy/internal/app"
	"github.com/shaiso/Caddy/internal/config"
	"github.com/shaiso/Caddy/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("caddy-api")
	logger.Info("starting caddy-api")

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

	apiCfg := api.Config{
		Invoker: deps.Invoker(),
		Actions: deps.Runtime,
		Logger:  logger,
	}
	if deps.Journal != nil {
		apiCfg.Journal = deps.Journal
	}
	if deps.Publisher != nil {
		apiCfg.Publisher = deps.Publisher
	}

	mux := app.NewMux(nil)
	api.NewHandler(apiCfg).RegisterRoutes(mux)

	if err := app.Serve(ctx, app.Addr(cfg.HTTP.APIPort), mux, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("caddy-api stopped")
}
