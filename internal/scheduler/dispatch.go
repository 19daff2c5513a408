package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/invoker"
)

// Dispatcher отправляет запрос, сформированный расписанием.
// Dispatch не должен блокироваться на время выполнения action.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.InvokeRequest) error
}

// Publisher — публикация в очередь actions.invoke. Реализуется *mq.Publisher.
type Publisher interface {
	PublishInvoke(ctx context.Context, req *domain.InvokeRequest) error
}

// QueueDispatcher отправляет запросы worker'ам через RabbitMQ.
type QueueDispatcher struct {
	pub Publisher
}

func NewQueueDispatcher(pub Publisher) *QueueDispatcher {
	return &QueueDispatcher{pub: pub}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, req *domain.InvokeRequest) error {
	return d.pub.PublishInvoke(ctx, req)
}

// Invoker — вызов action в процессе. Реализуется *invoker.Invoker.
type Invoker interface {
	Invoke(ctx context.Context, req *domain.InvokeRequest) (*invoker.Result, error)
}

// LocalDispatcher вызывает action в отдельной горутине внутри scheduler.
//
// Вызовы используют context тика: остановка scheduler отменяет их.
type LocalDispatcher struct {
	inv    Invoker
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewLocalDispatcher(inv Invoker, logger *slog.Logger) *LocalDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalDispatcher{inv: inv, logger: logger}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, req *domain.InvokeRequest) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// Итог уже залогирован и записан в журнал Invoker'ом
		if _, err := d.inv.Invoke(ctx, req); err != nil {
			d.logger.Debug("scheduled invocation failed",
				"schedule_name", req.ScheduleName,
				"request_id", req.ID,
				"error", err,
			)
		}
	}()
	return nil
}

// Wait ждёт завершения всех запущенных вызовов.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}
