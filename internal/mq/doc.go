// Package mq — RabbitMQ транспорт для асинхронных вызовов.
//
// Структура:
//   - connection.go — соединение с переподключением
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация action.invoke и action.completed
//   - consumer.go   — потребление с ack/nack и DLQ
//
// Типы сообщений:
//   - action.invoke    — запрос на вызов (payload: domain.InvokeRequest)
//   - action.completed — итог вызова (payload: CompletedPayload)
//
// Exchanges:
//   - caddy.actions — запросы и события
//   - caddy.dlq     — dead letter queue
package mq
