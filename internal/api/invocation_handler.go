package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/domain"
)

// ListInvocations возвращает журнал вызовов.
// GET /api/v1/invocations?action=...&status=...&source=...&limit=...&offset=...
func (h *Handler) ListInvocations(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		Unavailable(w, "invocation journal is not configured")
		return
	}

	q := r.URL.Query()
	filter := domain.InvocationFilter{
		Action: q.Get("action"),
		Source: domain.Source(q.Get("source")),
	}

	if s := q.Get("status"); s != "" {
		status, ok := domain.ParseInvocationStatus(s)
		if !ok {
			BadRequest(w, "invalid status: "+s)
			return
		}
		filter.Status = status
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	invocations, err := h.journal.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]InvocationResponse, len(invocations))
	for i, inv := range invocations {
		result[i] = InvocationFromDomain(inv)
	}

	List(w, result, len(result))
}

// GetInvocation возвращает запись журнала по ID.
// GET /api/v1/invocations/{id}
func (h *Handler) GetInvocation(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		Unavailable(w, "invocation journal is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid invocation id")
		return
	}

	inv, err := h.journal.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "invocation not found") {
		return
	}

	Success(w, InvocationFromDomain(*inv))
}

// intParam парсит неотрицательное число. Пустая строка — 0.
func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
