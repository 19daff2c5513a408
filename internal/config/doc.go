// Package config загружает конфигурацию Caddy.
//
// Источники (по возрастанию приоритета):
//  1. значения по умолчанию
//  2. YAML файл из CADDY_CONFIG (неизвестные поля — ошибка)
//  3. переменные окружения DB_URL, RABBITMQ_URL, API_PORT, WORKER_PORT, SCHED_PORT
//
// Пример:
//
//	invoke:
//	  timeout: 30s
//	  retries: 2
//	  backoff: {strategy: exponential, initial_delay: 500ms, max_delay: 10s}
//	rate_limit: {rps: 50, burst: 100}
//	schedules:
//	  - name: nightly-report
//	    action: http
//	    cron: "0 3 * * *"
//	    context: {method: POST, url: "https://example.com/report?at={{ .Now.Unix }}"}
package config
