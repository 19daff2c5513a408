package action

import (
	"sort"
	"sync"
	"time"
)

// Context — изменяемый набор ключ-значение, общий для всех middleware
// и action в рамках одного вызова.
//
// Один и тот же экземпляр передаётся по ссылке через весь pipeline.
// При retry используется тот же Context: изменения неудачной попытки
// видны следующей.
//
// Потокобезопасен: попытка, прерванная по таймауту, может ещё работать,
// когда стартует следующая.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext создаёт Context с копией начальных значений.
func NewContext(values map[string]any) *Context {
	c := &Context{
		values: make(map[string]any, len(values)),
	}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Get возвращает значение по ключу.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Value возвращает значение по ключу или nil.
func (c *Context) Value(key string) any {
	v, _ := c.Get(key)
	return v
}

// Set устанавливает значение.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// SetIfAbsent устанавливает значение, только если ключа ещё нет.
// Возвращает текущее значение ключа.
func (c *Context) SetIfAbsent(key string, value any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[key]; ok {
		return v
	}
	c.values[key] = value
	return value
}

// Delete удаляет ключ.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Has проверяет наличие ключа.
func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Len возвращает количество ключей.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Keys возвращает отсортированный список ключей.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot возвращает поверхностную копию значений.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Merge копирует значения в Context, перезаписывая существующие ключи.
func (c *Context) Merge(values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.values[k] = v
	}
}

// GetString извлекает строковое значение.
func (c *Context) GetString(key string) string {
	if s, ok := c.Value(key).(string); ok {
		return s
	}
	return ""
}

// GetInt извлекает числовое значение как int.
func (c *Context) GetInt(key string) int {
	switch n := c.Value(key).(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// GetFloat извлекает числовое значение как float64.
func (c *Context) GetFloat(key string) float64 {
	switch n := c.Value(key).(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// GetBool извлекает булево значение.
func (c *Context) GetBool(key string, defaultVal bool) bool {
	if b, ok := c.Value(key).(bool); ok {
		return b
	}
	return defaultVal
}

// GetDuration извлекает длительность.
// Числа трактуются как миллисекунды, строки — в формате time.ParseDuration.
func (c *Context) GetDuration(key string) time.Duration {
	switch v := c.Value(key).(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case string:
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return 0
}

// GetMap извлекает map[string]any.
func (c *Context) GetMap(key string) map[string]any {
	if m, ok := c.Value(key).(map[string]any); ok {
		return m
	}
	return nil
}

// GetStringMap извлекает map[string]string.
func (c *Context) GetStringMap(key string) map[string]string {
	switch m := c.Value(key).(type) {
	case map[string]string:
		return m
	case map[string]any:
		result := make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				result[k] = s
			}
		}
		return result
	}
	return nil
}

// GetStrings извлекает список строк.
func (c *Context) GetStrings(key string) []string {
	switch v := c.Value(key).(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}
