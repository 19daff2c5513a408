package actions

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/core"
)

const (
	// NameParallel — имя action параллельного вызова.
	NameParallel = "parallel"

	keyActions       = "actions"
	keyInputs        = "inputs"
	keyBranchTimeout = "branch_timeout_ms"
	keyBranchRetries = "branch_retries"
	keyFailFast      = "fail_fast"
)

// Invoker — то, через что parallel вызывает другие actions.
// Реализуется *core.Runtime.
type Invoker interface {
	Invoke(ctx context.Context, name string, actx *action.Context, opts core.Options) (any, error)
}

// Parallel вызывает несколько actions одновременно и собирает результаты.
//
// Контекст:
//
//	{
//	    "actions": ["fetch_a", "fetch_b"],
//	    "inputs": {
//	        "fetch_a": {"url": "https://a.example.com"},
//	        "fetch_b": {"url": "https://b.example.com"}
//	    },
//	    "branch_timeout_ms": 5000,
//	    "branch_retries": 1,
//	    "fail_fast": true
//	}
//
// Каждая ветка — отдельный вызов через Invoker со своим контекстом из inputs.
// fail_fast (по умолчанию true): первая ошибка отменяет остальные ветки
// и возвращается как ошибка action. Иначе ошибки собираются в "errors".
//
// Результат:
//
//	{
//	    "results": {"fetch_a": {...}, "fetch_b": {...}},
//	    "errors": {"fetch_b": "..."}   // только при fail_fast=false
//	}
type Parallel struct {
	invoker Invoker
}

// NewParallel создаёт Parallel поверх invoker.
func NewParallel(invoker Invoker) *Parallel {
	return &Parallel{invoker: invoker}
}

// Name возвращает имя action.
func (a *Parallel) Name() string {
	return NameParallel
}

// Run запускает ветки.
func (a *Parallel) Run(ctx context.Context, actx *action.Context) (any, error) {
	names, err := a.parseActions(actx)
	if err != nil {
		return nil, err
	}

	inputs := actx.GetMap(keyInputs)
	opts := core.Options{
		Timeout: actx.GetDuration(keyBranchTimeout),
		Retries: actx.GetInt(keyBranchRetries),
	}
	failFast := actx.GetBool(keyFailFast, true)

	var (
		mu      sync.Mutex
		results = make(map[string]any, len(names))
		errs    = make(map[string]any)
	)

	g := &errgroup.Group{}
	gctx := ctx
	if failFast {
		g, gctx = errgroup.WithContext(ctx)
	}

	for _, name := range names {
		branchCtx := action.NewContext(branchValues(inputs, name))

		g.Go(func() error {
			out, err := a.invoker.Invoke(gctx, name, branchCtx, opts)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if failFast {
					return fmt.Errorf("branch %s: %w", name, err)
				}
				errs[name] = err.Error()
				return nil
			}
			results[name] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	output := map[string]any{"results": results}
	if len(errs) > 0 {
		output["errors"] = errs
	}
	return output, nil
}

// parseActions проверяет список веток.
func (a *Parallel) parseActions(actx *action.Context) ([]string, error) {
	names := actx.GetStrings(keyActions)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s: actions is required", ErrInvalidInput, NameParallel)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		switch {
		case name == "":
			return nil, fmt.Errorf("%w: %s: empty action name", ErrInvalidInput, NameParallel)
		case name == NameParallel:
			return nil, fmt.Errorf("%w: %s: nested parallel is not allowed", ErrInvalidInput, NameParallel)
		case seen[name]:
			return nil, fmt.Errorf("%w: %s: duplicate action %s", ErrInvalidInput, NameParallel, name)
		}
		seen[name] = true
	}

	return names, nil
}

// branchValues возвращает значения контекста для ветки name.
func branchValues(inputs map[string]any, name string) map[string]any {
	if v, ok := inputs[name].(map[string]any); ok {
		return v
	}
	return nil
}
