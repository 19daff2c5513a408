// Package telemetry обеспечивает наблюдаемость сервисов Caddy.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики вызовов actions
//
// Runtime (internal/core) сам ничего не пишет: логи и метрики
// подключаются через middleware и сервисные слои.
// Все бинарники экспортируют метрики на /metrics.
package telemetry
