package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/shaiso/Caddy/internal/action"
)

// Data — данные для рендеринга шаблонов.
//
// Доступ из шаблона:
//   - {{ .Values.key }} — значения контекста action
//   - {{ .Results.name.field }} — результаты ранее вызванных actions
//   - {{ .Env.VAR_NAME }} — переменные окружения
//   - {{ .Now }} — время рендеринга
type Data struct {
	Values  map[string]any    `json:"values"`
	Results map[string]any    `json:"results"`
	Env     map[string]string `json:"env"`
	Now     time.Time         `json:"now"`
}

// NewData создаёт Data со значениями values.
func NewData(values map[string]any) *Data {
	if values == nil {
		values = make(map[string]any)
	}
	return &Data{
		Values:  values,
		Results: make(map[string]any),
		Env:     make(map[string]string),
		Now:     time.Now(),
	}
}

// FromAction создаёт Data из снимка контекста action.
func FromAction(actx *action.Context) *Data {
	if actx == nil {
		return NewData(nil)
	}
	return NewData(actx.Snapshot())
}

// AddResult добавляет результат action под именем name.
func (d *Data) AddResult(name string, result any) {
	d.Results[name] = result
}

// SetEnv устанавливает переменную окружения.
func (d *Data) SetEnv(key, value string) {
	d.Env[key] = value
}

// LoadEnv копирует переменные окружения процесса с префиксом prefix.
func (d *Data) LoadEnv(prefix string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(key, prefix) {
			d.Env[key] = value
		}
	}
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если первый аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// coalesce — возвращает первое непустое значение
	"coalesce": func(values ...any) any {
		for _, v := range values {
			if v != nil {
				if s, ok := v.(string); ok && s == "" {
					continue
				}
				return v
			}
		}
		return nil
	},

	// toJSON — алиас для json
	"toJSON": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	},

	// fromJSON — парсит JSON строку
	"fromJSON": func(s string) any {
		var result any
		if err := json.Unmarshal([]byte(s), &result); err != nil {
			return nil
		}
		return result
	},

	// join — объединяет слайс строк
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	// split — разбивает строку на слайс
	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},

	// contains — проверяет, содержит ли строка подстроку
	"contains": strings.Contains,

	// hasPrefix — проверяет префикс строки
	"hasPrefix": strings.HasPrefix,

	// hasSuffix — проверяет суффикс строки
	"hasSuffix": strings.HasSuffix,

	// lower — приводит к нижнему регистру
	"lower": strings.ToLower,

	// upper — приводит к верхнему регистру
	"upper": strings.ToUpper,

	// trim — удаляет пробелы по краям
	"trim": strings.TrimSpace,

	// replace — заменяет подстроку
	"replace": strings.ReplaceAll,
}

// Render рендерит строковый шаблон.
//
//	{{ .Values.param }}
//	{{ .Results.fetch.body }}
//	{{ if .Values.enabled }}...{{ end }}
func Render(tmpl string, data *Data) (string, error) {
	// Без шаблонных выражений — возвращаем как есть
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

// RenderValue рендерит произвольное значение.
// Рекурсивно обрабатывает map и slice, остальные типы возвращает как есть.
func RenderValue(value any, data *Data) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil

	case string:
		return Render(v, data)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			rendered, err := RenderValue(val, data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			result[key] = rendered
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			rendered, err := RenderValue(val, data)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			result[i] = rendered
		}
		return result, nil

	case map[string]string:
		result := make(map[string]string, len(v))
		for key, val := range v {
			rendered, err := Render(val, data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			result[key] = rendered
		}
		return result, nil

	case []string:
		result := make([]string, len(v))
		for i, val := range v {
			rendered, err := Render(val, data)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			result[i] = rendered
		}
		return result, nil

	default:
		return value, nil
	}
}

// RenderMap рендерит map целиком. nil даёт пустую map.
func RenderMap(values map[string]any, data *Data) (map[string]any, error) {
	if values == nil {
		return make(map[string]any), nil
	}

	rendered, err := RenderValue(values, data)
	if err != nil {
		return nil, err
	}

	result, ok := rendered.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected map, got %T", ErrTemplateRender, rendered)
	}
	return result, nil
}

// RenderCondition вычисляет условие. Пустое условие истинно.
func RenderCondition(condition string, data *Data) (bool, error) {
	if condition == "" {
		return true, nil
	}

	tmpl := fmt.Sprintf(`{{if %s}}true{{else}}false{{end}}`, condition)

	result, err := Render(tmpl, data)
	if err != nil {
		return false, err
	}
	return result == "true", nil
}

// ParseValue пытается разобрать отрендеренную строку как JSON
// (object, array, number, bool). Иначе возвращает строку.
func ParseValue(value string) any {
	trimmed := strings.TrimSpace(value)

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj
	}

	var arr []any
	if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
		return arr
	}

	var num json.Number
	if err := json.Unmarshal([]byte(trimmed), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}

	return value
}
