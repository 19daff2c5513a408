// Package engine рендерит Go templates против контекста action.
//
// Используется:
//   - action transform — mappings рендерятся против значений контекста
//   - scheduler — контекст расписания рендерится в момент срабатывания
//     ({{ .Now }}, {{ .Env.VAR }})
//
// Дополнительные функции шаблонов: json, toJSON, fromJSON, default,
// coalesce, join, split, contains, hasPrefix, hasSuffix, lower, upper,
// trim, replace.
package engine
