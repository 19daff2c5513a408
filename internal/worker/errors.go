package worker

import "errors"

// Ошибки воркера.
var (
	// ErrInvalidRequest — сообщение не содержит корректный InvokeRequest.
	ErrInvalidRequest = errors.New("invalid invoke request")

	// ErrNoConnection — Start вызван без соединения с RabbitMQ.
	ErrNoConnection = errors.New("worker: rabbitmq connection is required")
)
