package actions

import (
	"fmt"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/core"
)

// DefaultSet регистрирует в rt все встроенные actions:
// echo, delay, http, transform, parallel.
func DefaultSet(rt *core.Runtime) error {
	set := []action.Named{
		NewEcho(),
		NewDelay(),
		NewHTTP(),
		NewTransform(),
		NewParallel(rt),
	}

	for _, a := range set {
		if err := rt.RegisterNamed(a); err != nil {
			return fmt.Errorf("register %s: %w", a.Name(), err)
		}
	}
	return nil
}

// Names возвращает имена встроенных actions.
func Names() []string {
	return []string{NameEcho, NameDelay, NameHTTP, NameTransform, NameParallel}
}
