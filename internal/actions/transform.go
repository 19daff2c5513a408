package actions

import (
	"context"
	"fmt"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/engine"
)

const (
	// NameTransform — имя action трансформации.
	NameTransform = "transform"

	keyMappings = "mappings"
	keyWhen     = "when"
)

// Transform рендерит mappings (Go templates) против контекста action.
//
// Контекст:
//
//	{
//	    "items": [1, 2, 3],
//	    "when": "gt (len .Values.items) 0",
//	    "mappings": {
//	        "total": "{{ len .Values.items }}",
//	        "ids": "{{ json .Values.items }}"
//	    }
//	}
//
// Результат — отрендеренные mappings, значения разбираются как JSON
// где возможно: {"total": 3, "ids": [1, 2, 3]}.
// Если условие when ложно, результат — пустая map.
type Transform struct{}

// NewTransform создаёт Transform.
func NewTransform() *Transform {
	return &Transform{}
}

// Name возвращает имя action.
func (a *Transform) Name() string {
	return NameTransform
}

// Run рендерит mappings.
func (a *Transform) Run(ctx context.Context, actx *action.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	default:
	}

	data := engine.FromAction(actx)

	ok, err := engine.RenderCondition(actx.GetString(keyWhen), data)
	if err != nil {
		return nil, fmt.Errorf("transform when: %w", err)
	}

	mappings := actx.GetStringMap(keyMappings)
	outputs := make(map[string]any, len(mappings))
	if !ok {
		return outputs, nil
	}

	for key, tmpl := range mappings {
		rendered, err := engine.Render(tmpl, data)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", key, err)
		}
		outputs[key] = engine.ParseValue(rendered)
	}

	return outputs, nil
}
