package action

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry — реестр actions по имени.
//
// Хранит порядок регистрации: List возвращает имена в нём,
// чтобы диагностика была детерминированной.
// Потокобезопасен.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
	order   []string
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register регистрирует action под именем.
//
// Возвращает ErrInvalidAction для пустого имени или nil action
// и ErrDuplicateAction, если имя уже занято. Замена action делается
// через Unregister + Register.
func (r *Registry) Register(name string, a Action) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must be a non-empty string", ErrInvalidAction)
	}
	if isNil(a) {
		return fmt.Errorf("%w: %s must implement Run", ErrInvalidAction, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, name)
	}

	r.actions[name] = a
	r.order = append(r.order, name)
	return nil
}

// RegisterNamed регистрирует action под его собственным именем.
func (r *Registry) RegisterNamed(a Named) error {
	if a == nil {
		return fmt.Errorf("%w: nil action", ErrInvalidAction)
	}
	return r.Register(a.Name(), a)
}

// Get возвращает action по имени.
// Возвращает ErrActionNotFound, если action не найден.
func (r *Registry) Get(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.actions[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}

	return a, nil
}

// Has проверяет, зарегистрирован ли action.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.actions[name]
	return exists
}

// List возвращает имена actions в порядке регистрации.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Count возвращает количество зарегистрированных actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Unregister удаляет action из реестра.
// Возвращает true, если что-то было удалено.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; !exists {
		return false
	}

	delete(r.actions, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return true
}

// Clear удаляет все actions.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = make(map[string]Action)
	r.order = nil
}
