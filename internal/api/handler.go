package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/invoker"
)

// Invoker выполняет вызов синхронно. Реализуется *invoker.Invoker.
type Invoker interface {
	Invoke(ctx context.Context, req *domain.InvokeRequest) (*invoker.Result, error)
}

// ActionLister — список зарегистрированных actions. Реализуется *core.Runtime.
type ActionLister interface {
	List() []string
	Has(name string) bool
}

// Journal — чтение журнала вызовов. Реализуется *repo.InvocationRepo.
type Journal interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invocation, error)
	List(ctx context.Context, filter domain.InvocationFilter) ([]domain.Invocation, error)
}

// Publisher ставит вызов в очередь. Реализуется *mq.Publisher.
type Publisher interface {
	PublishInvoke(ctx context.Context, req *domain.InvokeRequest) error
}

// Handler — обработчики API.
type Handler struct {
	invoker   Invoker
	actions   ActionLister
	journal   Journal
	publisher Publisher
	logger    *slog.Logger
}

// Config — зависимости Handler. Journal и Publisher опциональны:
// без них соответствующие endpoints отвечают 503.
type Config struct {
	Invoker   Invoker
	Actions   ActionLister
	Journal   Journal
	Publisher Publisher
	Logger    *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		invoker:   cfg.Invoker,
		actions:   cfg.Actions,
		journal:   cfg.Journal,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}
