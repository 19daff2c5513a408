package actions

import (
	"context"

	"github.com/shaiso/Caddy/internal/action"
)

// NameEcho — имя echo action.
const NameEcho = "echo"

// Echo возвращает значение ключа "value" из контекста.
type Echo struct{}

// NewEcho создаёт Echo.
func NewEcho() *Echo {
	return &Echo{}
}

// Name возвращает имя action.
func (a *Echo) Name() string {
	return NameEcho
}

// Run возвращает actx["value"].
func (a *Echo) Run(_ context.Context, actx *action.Context) (any, error) {
	return actx.Value("value"), nil
}
