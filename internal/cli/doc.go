// Package cli реализует инструмент командной строки Caddy.
//
// CLI работает через HTTP API и не импортирует внутренние пакеты системы:
// типы ответов продублированы в client.go.
//
// Client оборачивает запросы к API и конверты ответов (data, list, error).
// Ошибка API возвращается как *APIError; для неудачного вызова action
// в ней есть Meta с числом попыток и длительностью.
//
// Output печатает таблицы (text/tabwriter) или JSON (--json). Данные идут
// в stdout, сообщения — в stderr, поэтому работает pipe:
//
//	caddy action invoke http --set url=https://example.com --json | jq .result
//
// Команды:
//   - action: list, invoke NAME [--set K=V]... [--timeout MS] [--retries N] [--async]
//   - invocation: list, get ID
//
// NewActionCmd и NewInvocationCmd принимают clientFn и outputFn — замыкания,
// создающие Client и Output после разбора PersistentFlags.
package cli
