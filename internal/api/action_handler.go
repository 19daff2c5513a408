package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/domain"
)

// maxBodyBytes — ограничение размера тела запроса.
const maxBodyBytes = 1 << 20

// ListActions возвращает зарегистрированные actions.
// GET /api/v1/actions
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	names := h.actions.List()

	result := make([]ActionResponse, len(names))
	for i, name := range names {
		result[i] = ActionResponse{Name: name}
	}

	List(w, result, len(result))
}

// InvokeAction вызывает action.
// POST /api/v1/actions/{name}/invoke
//
// Синхронный вызов отвечает {result, meta}; ошибки вызова — конверт
// ошибки с meta. С "async": true запрос уходит в RabbitMQ и ответ 202.
func (h *Handler) InvokeAction(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var body InvokeRequestBody
	if err := decodeBody(w, r, &body); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.TimeoutMs < 0 {
		BadRequest(w, "timeout_ms must not be negative")
		return
	}
	if body.Retries != nil && *body.Retries < 0 {
		BadRequest(w, "retries must not be negative")
		return
	}

	if !h.actions.Has(name) {
		NotFound(w, "action not found: "+name)
		return
	}

	req := body.ToDomain(RequestIDFromContext(r.Context()), name)

	if body.Async {
		h.enqueue(w, r, req)
		return
	}

	res, err := h.invoker.Invoke(r.Context(), req)
	if errors.Is(err, action.ErrActionNotFound) {
		// Action удалён между Has и Invoke
		NotFound(w, "action not found: "+name)
		return
	}
	if err != nil {
		InvokeFailed(w, err, res.Meta)
		return
	}

	Success(w, InvokeResponse{
		Result: res.Output,
		Meta:   MetaFromCore(res.Meta),
	})
}

// enqueue публикует запрос в actions.invoke.
func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, req *domain.InvokeRequest) {
	if h.publisher == nil {
		Unavailable(w, "async invocation requires RabbitMQ")
		return
	}

	if err := h.publisher.PublishInvoke(r.Context(), req); err != nil {
		h.logger.Error("failed to publish invoke request", "request_id", req.ID, "error", err)
		Unavailable(w, "failed to enqueue invocation")
		return
	}

	Accepted(w, AcceptedResponse{RequestID: req.ID, Action: req.Action})
}

// decodeBody декодирует JSON тело. Пустое тело допустимо.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
