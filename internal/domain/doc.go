// Package domain содержит типы сервисного слоя Caddy:
//   - Invocation — запись журнала вызовов (только метаданные)
//   - InvokeRequest, RetryPolicy — запрос на вызов action
//   - Schedule — расписание вызовов
//
// Пакет не зависит от runtime (internal/core): преобразование
// core.Meta в Invocation делает internal/invoker.
package domain
