// Package core — runtime вызова actions.
//
// Runtime объединяет реестр actions (internal/action), стек middleware
// (internal/pipeline) и контроллер вызовов.
//
// # Вызов
//
//	rt := core.New()
//	rt.Register("echo", action.Func(func(ctx context.Context, actx *action.Context) (any, error) {
//	    return actx.Value("value"), nil
//	}))
//	out, meta, err := rt.InvokeWithMeta(ctx, "echo", action.NewContext(map[string]any{"value": 42}), core.Options{})
//
// # Попытки
//
// Вызов состоит из попыток. Попытка — один проход по всему pipeline,
// от первого middleware до action. Попытка выполняется на отдельной горутине,
// контроллер ждёт первое из событий:
//   - завершение pipeline
//   - Options.Timeout (отдельно для каждой попытки) — *TimeoutError
//   - отмена ctx или закрытие Options.Cancel — ErrCancelled
//
// После таймаута или отмены context попытки отменяется. Action, который
// его не проверяет, продолжает работать в фоне, его результат отбрасывается.
//
// # Повторы
//
// Всего выполняется не больше 1 + Options.Retries попыток.
// Не повторяются: ErrCancelled и pipeline.ErrMultipleNext.
// Таймаут, ошибки action и middleware, паника (ErrActionPanic) — повторяются.
// Перед повтором n вызывается Options.OnRetry(err, n), затем ждём Options.Backoff.
//
// Контекст action (*action.Context) общий для всех попыток вызова.
//
// # Ошибки
//
// Неизвестный action — action.ErrActionNotFound, попытки не расходуются.
// Остальные ошибки возвращаются как *InvokeError: Meta + ошибка последней попытки.
//
// Runtime сам ничего не логирует. Логирование — через middleware.
package core
