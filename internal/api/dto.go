package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/core"
	"github.com/shaiso/Caddy/internal/domain"
)

// InvokeRequestBody — тело POST /api/v1/actions/{name}/invoke.
type InvokeRequestBody struct {
	Context   map[string]any `json:"context,omitempty"`
	TimeoutMs int            `json:"timeout_ms,omitempty"`

	// Retries — nil означает политику сервера по умолчанию.
	Retries        *int   `json:"retries,omitempty"`
	Backoff        string `json:"backoff,omitempty"`
	InitialDelayMs int    `json:"initial_delay_ms,omitempty"`
	MaxDelayMs     int    `json:"max_delay_ms,omitempty"`

	// Async — поставить вызов в очередь и сразу вернуть 202.
	Async bool `json:"async,omitempty"`
}

// ToDomain строит InvokeRequest для action name.
func (b *InvokeRequestBody) ToDomain(id uuid.UUID, name string) *domain.InvokeRequest {
	req := &domain.InvokeRequest{
		ID:        id,
		Action:    name,
		Context:   b.Context,
		TimeoutMs: b.TimeoutMs,
		Source:    domain.SourceAPI,
	}
	if b.Retries != nil || b.Backoff != "" {
		req.Retry = &domain.RetryPolicy{
			Backoff:        b.Backoff,
			InitialDelayMs: b.InitialDelayMs,
			MaxDelayMs:     b.MaxDelayMs,
		}
		if b.Retries != nil {
			req.Retry.Retries = *b.Retries
		}
	}
	return req
}

// MetaResponse — метаданные вызова.
type MetaResponse struct {
	InvocationID uuid.UUID `json:"invocation_id"`
	Action       string    `json:"action"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMs   int64     `json:"duration_ms"`
	Attempts     int       `json:"attempts"`
}

// MetaFromCore конвертирует core.Meta.
func MetaFromCore(m core.Meta) MetaResponse {
	return MetaResponse{
		InvocationID: m.InvocationID,
		Action:       m.Action,
		StartedAt:    m.StartedAt,
		EndedAt:      m.EndedAt,
		DurationMs:   m.DurationMs(),
		Attempts:     m.Attempts,
	}
}

// InvokeResponse — успешный синхронный вызов.
type InvokeResponse struct {
	Result any          `json:"result"`
	Meta   MetaResponse `json:"meta"`
}

// AcceptedResponse — вызов поставлен в очередь.
type AcceptedResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Action    string    `json:"action"`
}

// ActionResponse — зарегистрированный action.
type ActionResponse struct {
	Name string `json:"name"`
}

// InvocationResponse — запись журнала.
type InvocationResponse struct {
	ID           uuid.UUID `json:"id"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMs   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	Source       string    `json:"source"`
	RequestID    string    `json:"request_id,omitempty"`
	ScheduleName string    `json:"schedule_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// InvocationFromDomain конвертирует domain.Invocation.
func InvocationFromDomain(inv domain.Invocation) InvocationResponse {
	return InvocationResponse{
		ID:           inv.ID,
		Action:       inv.Action,
		Status:       inv.Status.String(),
		Attempts:     inv.Attempts,
		StartedAt:    inv.StartedAt,
		EndedAt:      inv.EndedAt,
		DurationMs:   inv.DurationMs,
		Error:        inv.Error,
		Source:       string(inv.Source),
		RequestID:    inv.RequestID,
		ScheduleName: inv.ScheduleName,
		CreatedAt:    inv.CreatedAt,
	}
}
