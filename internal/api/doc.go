// Package api — HTTP API для вызова actions и чтения журнала.
//
// Endpoints:
//
//	GET  /api/v1/actions                — зарегистрированные actions
//	POST /api/v1/actions/{name}/invoke  — вызов (синхронный или async через RabbitMQ)
//	GET  /api/v1/invocations            — журнал вызовов с фильтрами
//	GET  /api/v1/invocations/{id}       — одна запись журнала
//
// Ошибки вызова: 404 — action не найден, 504 — таймаут, 499 — отмена,
// 502 — action вернул ошибку. Тело ошибки вызова содержит meta.
package api
