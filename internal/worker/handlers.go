package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/mq"
)

// HandleInvoke обрабатывает сообщение action.invoke.
//
// Решение по сообщению:
//   - некорректное сообщение или неизвестный action — DLQ (mq.ErrPermanent)
//   - остановка воркера во время вызова — возврат в очередь
//   - любой другой итог вызова, включая ошибку action, — ack
func (w *Worker) HandleInvoke(ctx context.Context, delivery *mq.Delivery) error {
	req, err := parseRequest(&delivery.Message)
	if err != nil {
		w.logger.Error("rejecting invoke message", "message_id", delivery.Message.ID, "error", err)
		return err
	}
	if req.Source == "" {
		req.Source = domain.SourceWorker
	}

	w.logger.Debug("received invoke request",
		"request_id", req.ID,
		"action", req.Action,
		"source", req.Source,
	)

	res, err := w.invoker.Invoke(ctx, req)
	if errors.Is(err, action.ErrActionNotFound) {
		return fmt.Errorf("%w: %w", mq.ErrPermanent, err)
	}
	if ctx.Err() != nil {
		// Воркер останавливается — сообщение достанется другому экземпляру
		return ctx.Err()
	}

	if res != nil && res.Invocation != nil {
		w.publishCompletion(ctx, res.Invocation)
	}
	return nil
}

// parseRequest извлекает InvokeRequest из сообщения.
func parseRequest(msg *mq.Message) (*domain.InvokeRequest, error) {
	if msg.Type != mq.MessageTypeInvoke {
		return nil, fmt.Errorf("%w: %w: %q", mq.ErrPermanent, mq.ErrUnknownMessageType, msg.Type)
	}

	req, err := mq.ParsePayload[domain.InvokeRequest](msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", mq.ErrPermanent, ErrInvalidRequest, err)
	}
	if req.Action == "" {
		return nil, fmt.Errorf("%w: %w: action is required", mq.ErrPermanent, ErrInvalidRequest)
	}
	return &req, nil
}

// publishCompletion публикует action.completed. Ошибка публикации не
// влияет на ack: вызов уже записан в журнал.
func (w *Worker) publishCompletion(ctx context.Context, inv *domain.Invocation) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.PublishCompleted(ctx, mq.CompletedFromInvocation(inv)); err != nil {
		w.logger.Warn("failed to publish action.completed",
			"invocation_id", inv.ID,
			"error", err,
		)
	}
}
