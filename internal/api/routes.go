package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		RequestID(),
		Logging(h.logger),
	)

	// Actions
	mux.Handle("GET /api/v1/actions", chain(http.HandlerFunc(h.ListActions)))
	mux.Handle("POST /api/v1/actions/{name}/invoke", chain(http.HandlerFunc(h.InvokeAction)))

	// Invocations
	mux.Handle("GET /api/v1/invocations", chain(http.HandlerFunc(h.ListInvocations)))
	mux.Handle("GET /api/v1/invocations/{id}", chain(http.HandlerFunc(h.GetInvocation)))
}
