package pipeline

import (
	"slices"
	"sync"
)

// Stack — изменяемый упорядоченный список middleware.
//
// Вызовы берут снимок через Snapshot в момент старта, поэтому Use,
// вызванный параллельно, не влияет на уже идущие вызовы.
type Stack struct {
	mu    sync.RWMutex
	items []Middleware
}

// NewStack создаёт пустой Stack.
func NewStack() *Stack {
	return &Stack{}
}

// Use добавляет middleware в конец (самый внутренний слой).
// nil игнорируется.
func (s *Stack) Use(m Middleware) {
	if m == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, m)
}

// UsePlugin добавляет старый plugin без next.
func (s *Stack) UsePlugin(p Plugin) {
	if p == nil {
		return
	}
	s.Use(FromPlugin(p))
}

// Snapshot возвращает копию текущего списка.
func (s *Stack) Snapshot() []Middleware {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len возвращает количество middleware.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear удаляет все middleware.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
