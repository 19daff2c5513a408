// Package actions содержит встроенные actions, которые регистрируют
// сервисы Caddy.
//
// Для runtime это обычные action.Action: внутрь он не заглядывает.
// Параметры каждый action берёт из своего action.Context.
//
//	echo      — возвращает значение "value"
//	delay     — ждёт duration_sec / duration_ms, прерывается отменой
//	http      — HTTP запрос (method, url, headers, body, timeout_sec),
//	            5xx возвращается как *HTTPError
//	transform — рендерит mappings (internal/engine) против контекста
//	parallel  — вызывает несколько actions через runtime одновременно
//
// DefaultSet(rt) регистрирует их все.
package actions
