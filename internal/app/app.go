package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Caddy/internal/actions"
	"github.com/shaiso/Caddy/internal/config"
	"github.com/shaiso/Caddy/internal/core"
	"github.com/shaiso/Caddy/internal/invoker"
	"github.com/shaiso/Caddy/internal/middleware"
	"github.com/shaiso/Caddy/internal/mq"
	"github.com/shaiso/Caddy/internal/repo"
	"github.com/shaiso/Caddy/internal/telemetry"
)

// shutdownTimeout — время на graceful shutdown HTTP сервера.
const shutdownTimeout = 10 * time.Second

// Deps — общие зависимости сервисных бинарников.
//
// Pool/Journal и MQ/Publisher равны nil, если PostgreSQL или RabbitMQ
// недоступны: сервис продолжает работу без журнала или очереди.
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	Runtime *core.Runtime

	Pool    *pgxpool.Pool
	Journal *repo.InvocationRepo

	MQ        *mq.Connection
	Publisher *mq.Publisher
}

// Options — какие внешние системы нужны сервису.
type Options struct {
	Database bool
	RabbitMQ bool

	// Registerer — реестр метрик. nil — prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Bootstrap собирает runtime со встроенными actions и подключается к
// PostgreSQL и RabbitMQ, если они запрошены в opts.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Deps, error) {
	d := &Deps{
		Config:  cfg,
		Logger:  logger,
		Metrics: telemetry.NewMetrics(opts.Registerer),
	}

	rt, err := NewRuntime(cfg, logger, d.Metrics)
	if err != nil {
		return nil, err
	}
	d.Runtime = rt

	if opts.Database {
		d.connectDatabase(ctx)
	}
	if opts.RabbitMQ {
		d.connectRabbitMQ(ctx)
	}

	return d, nil
}

// NewRuntime создаёт runtime со стандартным набором middleware и actions.
//
// Порядок слоёв: Recovery (внешний), Logging, RequestID, Metrics, RateLimit.
func NewRuntime(cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) (*core.Runtime, error) {
	rt := core.New()

	rt.Use(middleware.Recovery(logger))
	rt.Use(middleware.Logging(logger))
	rt.Use(middleware.RequestID())
	if metrics != nil {
		rt.Use(middleware.Metrics(metrics))
	}
	if cfg.RateLimit.RPS > 0 {
		rt.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	if err := actions.DefaultSet(rt); err != nil {
		return nil, fmt.Errorf("register actions: %w", err)
	}
	return rt, nil
}

func (d *Deps) connectDatabase(ctx context.Context) {
	pool, err := repo.NewPool(ctx, d.Config.Database.URL)
	if err != nil {
		d.Logger.Warn("database not available, running without invocation journal", "error", err)
		return
	}
	if err := repo.Migrate(ctx, pool); err != nil {
		d.Logger.Warn("failed to migrate database, running without invocation journal", "error", err)
		pool.Close()
		return
	}

	d.Pool = pool
	d.Journal = repo.NewInvocationRepo(pool)
	d.Logger.Info("database connected")
}

func (d *Deps) connectRabbitMQ(ctx context.Context) {
	url := d.Config.RabbitMQ.URL
	if url == "" {
		url = mq.DefaultURL()
	}

	conn, err := mq.NewConnection(url, d.Logger)
	if err != nil {
		d.Logger.Warn("RabbitMQ not available", "error", err)
		return
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		d.Logger.Warn("failed to setup topology", "error", err)
	}

	d.MQ = conn
	d.Publisher = mq.NewPublisher(conn, d.Logger)
	d.Logger.Info("RabbitMQ connected")
}

// Invoker создаёт Invoker с параметрами вызова из конфигурации.
// Журнал подключается, только если база доступна.
func (d *Deps) Invoker() *invoker.Invoker {
	cfg := invoker.Config{
		Runtime: d.Runtime,
		Metrics: d.Metrics,
		Logger:  d.Logger,
		Defaults: invoker.Defaults{
			Timeout: d.Config.Invoke.Timeout,
			Retry:   d.Config.DefaultRetry(),
		},
	}
	if d.Journal != nil {
		cfg.Journal = d.Journal
	}
	return invoker.New(cfg)
}

// Close закрывает подключения.
func (d *Deps) Close() {
	if d.MQ != nil {
		if err := d.MQ.Close(); err != nil {
			d.Logger.Warn("failed to close RabbitMQ connection", "error", err)
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// NewMux создаёт mux с /healthz и /metrics.
func NewMux(gatherer prometheus.Gatherer) *http.ServeMux {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	startTime := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Addr возвращает адрес для порта.
func Addr(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}

// Serve запускает HTTP сервер и останавливает его при отмене ctx.
// Возвращает nil после graceful shutdown.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
