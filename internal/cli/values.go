package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseSets разбирает значения флага --set вида KEY=VALUE в контекст вызова.
//
// VALUE, который разбирается как JSON (число, bool, null, объект, массив,
// строка в кавычках), передаётся типизированным; остальное — строкой.
// Повторный ключ перезаписывает предыдущий.
func ParseSets(sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	values := make(map[string]any, len(sets))
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected KEY=VALUE", kv)
		}
		values[key] = parseValue(raw)
	}
	return values, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
