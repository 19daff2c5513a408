// Package invoker — общий путь вызова action для сервисов.
//
// API, worker и scheduler получают domain.InvokeRequest и передают его
// в Invoker.Invoke, который:
//  1. строит core.Options (таймаут, повторы, backoff) из запроса и Defaults
//  2. вызывает action через core.Runtime
//  3. пишет domain.Invocation в журнал (только метаданные)
//  4. обновляет Prometheus метрики
//
// Runtime сам не логирует: все сообщения о вызовах пишет Invoker.
package invoker
