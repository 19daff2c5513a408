package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Caddy/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

const (
	// MessageTypeInvoke — запрос на вызов action. Payload: domain.InvokeRequest.
	MessageTypeInvoke MessageType = "action.invoke"

	// MessageTypeCompleted — вызов завершён. Payload: CompletedPayload.
	MessageTypeCompleted MessageType = "action.completed"
)

// Message — конверт любого сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// CompletedPayload — событие о завершённом вызове.
// Результат action не передаётся, только метаданные.
type CompletedPayload struct {
	InvocationID uuid.UUID `json:"invocation_id"`
	RequestID    string    `json:"request_id"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	DurationMs   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	Source       string    `json:"source,omitempty"`
	ScheduleName string    `json:"schedule_name,omitempty"`
}

// CompletedFromInvocation строит событие по записи журнала.
func CompletedFromInvocation(inv *domain.Invocation) CompletedPayload {
	return CompletedPayload{
		InvocationID: inv.ID,
		RequestID:    inv.RequestID,
		Action:       inv.Action,
		Status:       inv.Status.String(),
		Attempts:     inv.Attempts,
		DurationMs:   inv.DurationMs,
		Error:        inv.Error,
		Source:       string(inv.Source),
		ScheduleName: inv.ScheduleName,
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish отправляет msg в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishInvoke ставит запрос на вызов в очередь actions.invoke.
// Потребитель: worker.
func (p *Publisher) PublishInvoke(ctx context.Context, req *domain.InvokeRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return p.Publish(ctx, ExchangeActions, RoutingKeyInvoke, NewMessage(MessageTypeInvoke, req))
}

// PublishCompleted публикует событие action.completed.
func (p *Publisher) PublishCompleted(ctx context.Context, payload CompletedPayload) error {
	return p.Publish(ctx, ExchangeActions, RoutingKeyCompleted, NewMessage(MessageTypeCompleted, payload))
}
