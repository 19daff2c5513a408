// Package app собирает зависимости сервисных бинарников caddy-api,
// caddy-worker и caddy-scheduler: runtime с middleware и встроенными
// actions, журнал в PostgreSQL, RabbitMQ, HTTP сервер с /healthz и
// /metrics.
package app
