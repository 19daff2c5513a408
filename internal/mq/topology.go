package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeActions Exchange = "caddy.actions"
	ExchangeDLQ     Exchange = "caddy.dlq"
)

const (
	QueueActionsInvoke    Queue = "actions.invoke"
	QueueActionsCompleted Queue = "actions.completed"
	QueueDLQActions       Queue = "dlq.actions"
)

const (
	RoutingKeyInvoke    RoutingKey = "invoke"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQ       RoutingKey = "actions"
)

// QueueDecl — объявление очереди.
type QueueDecl struct {
	Name Queue
	Args amqp.Table
}

// Binding — привязка очереди к обменнику.
type Binding struct {
	Queue      Queue
	RoutingKey RoutingKey
	Exchange   Exchange
}

// Topology — полное описание exchanges, queues и bindings.
type Topology struct {
	Exchanges []Exchange // все direct и durable
	Queues    []QueueDecl
	Bindings  []Binding
}

// DefaultTopology возвращает топологию Caddy.
//
// actions.invoke отправляет отклонённые сообщения в dlq.actions.
// actions.completed — только события, без DLQ.
func DefaultTopology() Topology {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQ),
	}

	return Topology{
		Exchanges: []Exchange{ExchangeActions, ExchangeDLQ},
		Queues: []QueueDecl{
			{Name: QueueActionsInvoke, Args: dlqArgs},
			{Name: QueueActionsCompleted},
			{Name: QueueDLQActions},
		},
		Bindings: []Binding{
			{QueueActionsInvoke, RoutingKeyInvoke, ExchangeActions},
			{QueueActionsCompleted, RoutingKeyCompleted, ExchangeActions},
			{QueueDLQActions, RoutingKeyDLQ, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет DefaultTopology. Объявления идемпотентны.
func SetupTopology(ctx context.Context, conn *Connection) error {
	topo := DefaultTopology()
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return topo.declare(ch)
	})
}

func (t Topology) declare(ch *amqp.Channel) error {
	for _, ex := range t.Exchanges {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	for _, q := range t.Queues {
		_, err := ch.QueueDeclare(
			string(q.Name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.Args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.Name, err)
		}
	}

	for _, b := range t.Bindings {
		err := ch.QueueBind(
			string(b.Queue),
			string(b.RoutingKey),
			string(b.Exchange),
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает схему топологии для логов при старте.
func TopologyInfo() string {
	return `
  Caddy RabbitMQ Topology:

    caddy.actions (direct)
    ├── actions.invoke [routing: invoke]
    │       Consumer: caddy-worker
    │       DLQ: dlq.actions
    └── actions.completed [routing: completed]
            Consumer: external subscribers

    caddy.dlq (direct)
    └── dlq.actions [routing: actions]
            Manual processing
`
}
