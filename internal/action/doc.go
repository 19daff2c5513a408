// Package action содержит базовые типы runtime: Action, Context и Registry.
//
// # Обзор
//
// Action — любая единица работы с единственной операцией Run.
// Runtime не знает, что action делает внутри: вызывает удалённый RPC,
// считает статистику или пишет в хранилище.
//
//	type Action interface {
//	    Run(ctx context.Context, actx *Context) (any, error)
//	}
//
// Обычную функцию можно зарегистрировать через адаптер Func:
//
//	r := action.NewRegistry()
//	err := r.Register("echo", action.Func(func(_ context.Context, actx *action.Context) (any, error) {
//	    return actx.Value("value"), nil
//	}))
//
// # Context
//
// Context — изменяемый мешок ключ-значение. Передаётся по ссылке через
// все middleware и в action. Для одного вызова используется один и тот же
// экземпляр, в том числе между retry.
//
// # Registry
//
// Registry владеет отображением имя → Action:
//   - Register — ErrDuplicateAction для занятого имени, ErrInvalidAction для пустого имени или nil
//   - Unregister — возвращает, было ли что-то удалено
//   - Has, List (порядок регистрации), Get, Count, Clear
package action
