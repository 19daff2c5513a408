package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/invoker"
	"github.com/shaiso/Caddy/internal/mq"
)

const (
	defaultConcurrency = 1
	defaultPrefetch    = 5
)

// Invoker выполняет запрос. Реализуется *invoker.Invoker.
type Invoker interface {
	Invoke(ctx context.Context, req *domain.InvokeRequest) (*invoker.Result, error)
}

// CompletionPublisher публикует action.completed. Реализуется *mq.Publisher.
type CompletionPublisher interface {
	PublishCompleted(ctx context.Context, payload mq.CompletedPayload) error
}

// Worker выполняет вызовы из очереди actions.invoke.
//
// Worker не хранит состояние: несколько экземпляров читают одну очередь.
// Каждый вызов журналируется Invoker'ом, итог публикуется в
// actions.completed.
type Worker struct {
	invoker   Invoker
	publisher CompletionPublisher
	conn      *mq.Connection

	concurrency int
	prefetch    int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	stoppedMu sync.RWMutex
	stopped   bool
}

// Config — конфигурация Worker.
type Config struct {
	Invoker   Invoker
	Publisher CompletionPublisher // опционально
	Conn      *mq.Connection

	// Concurrency — количество параллельных consumer'ов (default: 1).
	Concurrency int
	// Prefetch — prefetch каждого consumer'а (default: 5).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Worker{
		invoker:     cfg.Invoker,
		publisher:   cfg.Publisher,
		conn:        cfg.Conn,
		concurrency: concurrency,
		prefetch:    prefetch,
		logger:      logger,
	}
}

// Start запускает consumer'ы и сразу возвращает управление.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return ErrNoConnection
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"queue", mq.QueueActionsInvoke,
		"concurrency", w.concurrency,
		"prefetch", w.prefetch,
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		consumer := mq.NewConsumer(w.conn, w.logger.With("consumer", i), mq.ConsumerConfig{
			Queue:    mq.QueueActionsInvoke,
			Handler:  w.HandleInvoke,
			Prefetch: w.prefetch,
		})
		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("invoke consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает consumer'ы и ждёт текущие вызовы.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
