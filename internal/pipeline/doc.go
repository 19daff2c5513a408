// Package pipeline собирает middleware и action в один вызов (onion-модель).
//
// Middleware получает context, action.Context и продолжение next:
//
//	func(ctx context.Context, actx *action.Context, next pipeline.Next) (any, error)
//
// Compose([m0, m1, m2], T) даёт Handler, в котором m0 — внешний слой,
// T — action. На входе middleware выполняются в порядке регистрации,
// на выходе — в обратном.
//
// Контракты:
//   - повторный вызов next внутри одного middleware — ErrMultipleNext,
//     нижние слои повторно не выполняются
//   - middleware, не вызвавший next, прерывает pipeline
//   - Plugin (старая форма без next) оборачивается FromPlugin и всегда вызывает next
package pipeline
