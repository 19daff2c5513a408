package mq

import "errors"

// Ошибки RabbitMQ слоя.
var (
	// ErrNoChannel — соединение ещё не установлено или переподключается.
	ErrNoChannel = errors.New("no channel available")

	// ErrPermanent — обработчик не сможет обработать сообщение никогда.
	// Такое сообщение сразу уходит в DLQ без повторной доставки.
	ErrPermanent = errors.New("permanent message failure")

	// ErrUnknownMessageType — тип сообщения не подходит очереди.
	ErrUnknownMessageType = errors.New("unknown message type")
)
