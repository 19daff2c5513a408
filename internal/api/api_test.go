package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/core"
	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/invoker"
	"github.com/shaiso/Caddy/internal/repo"
)

// fakeJournal — журнал в памяти.
type fakeJournal struct {
	rows       []domain.Invocation
	lastFilter domain.InvocationFilter
	err        error
}

func (j *fakeJournal) Create(_ context.Context, inv *domain.Invocation) error {
	j.rows = append(j.rows, *inv)
	return nil
}

func (j *fakeJournal) GetByID(_ context.Context, id uuid.UUID) (*domain.Invocation, error) {
	for i := range j.rows {
		if j.rows[i].ID == id {
			return &j.rows[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

func (j *fakeJournal) List(_ context.Context, filter domain.InvocationFilter) ([]domain.Invocation, error) {
	j.lastFilter = filter
	if j.err != nil {
		return nil, j.err
	}
	return j.rows, nil
}

// fakePublisher запоминает запросы.
type fakePublisher struct {
	reqs []*domain.InvokeRequest
	err  error
}

func (p *fakePublisher) PublishInvoke(_ context.Context, req *domain.InvokeRequest) error {
	if p.err != nil {
		return p.err
	}
	p.reqs = append(p.reqs, req)
	return nil
}

type testServer struct {
	mux       *http.ServeMux
	journal   *fakeJournal
	publisher *fakePublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	rt := core.New()
	register := func(name string, fn action.Func) {
		if err := rt.Register(name, fn); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	register("echo", func(_ context.Context, c *action.Context) (any, error) {
		return map[string]any{
			"value":      c.Value("value"),
			"request_id": c.Value("request_id"),
		}, nil
	})
	register("fail", func(context.Context, *action.Context) (any, error) {
		return nil, errors.New("boom")
	})
	register("slow", func(ctx context.Context, _ *action.Context) (any, error) {
		select {
		case <-time.After(time.Second):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	journal := &fakeJournal{}
	pub := &fakePublisher{}

	h := NewHandler(Config{
		Invoker:   invoker.New(invoker.Config{Runtime: rt, Journal: journal, Logger: logger}),
		Actions:   rt,
		Journal:   journal,
		Publisher: pub,
		Logger:    logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testServer{mux: mux, journal: journal, publisher: pub}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

type invokeEnvelope struct {
	Data struct {
		Result map[string]any `json:"result"`
		Meta   MetaResponse   `json:"meta"`
	} `json:"data"`
}

// --- Actions ---

func TestListActions(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/actions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decode[struct {
		Data  []ActionResponse `json:"data"`
		Total int              `json:"total"`
	}](t, rec)
	if resp.Total != 3 || resp.Data[0].Name != "echo" {
		t.Errorf("unexpected actions: %+v", resp)
	}
}

func TestInvokeAction_Success(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/actions/echo/invoke", `{"context": {"value": 42}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	resp := decode[invokeEnvelope](t, rec)
	if resp.Data.Result["value"] != float64(42) {
		t.Errorf("expected 42, got %v", resp.Data.Result["value"])
	}
	if resp.Data.Meta.Attempts != 1 || resp.Data.Meta.Action != "echo" {
		t.Errorf("unexpected meta: %+v", resp.Data.Meta)
	}
	if resp.Data.Meta.InvocationID == uuid.Nil {
		t.Error("meta should carry invocation ID")
	}

	if len(s.journal.rows) != 1 || s.journal.rows[0].Source != domain.SourceAPI {
		t.Errorf("invocation should be journaled with api source: %+v", s.journal.rows)
	}
}

func TestInvokeAction_EmptyBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/actions/echo/invoke", "")
	if rec.Code != http.StatusOK {
		t.Errorf("empty body should be allowed, got %d: %s", rec.Code, rec.Body)
	}
}

func TestInvokeAction_RequestID(t *testing.T) {
	s := newTestServer(t)
	id := uuid.New()

	rec := s.do(t, http.MethodPost, "/api/v1/actions/echo/invoke", "{}", HeaderRequestID, id.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(HeaderRequestID); got != id.String() {
		t.Errorf("response should echo request ID, got %q", got)
	}

	resp := decode[invokeEnvelope](t, rec)
	if resp.Data.Result["request_id"] != id.String() {
		t.Errorf("request ID should reach the action context, got %v", resp.Data.Result["request_id"])
	}
	if s.journal.rows[0].RequestID != id.String() {
		t.Errorf("journal should store request ID, got %q", s.journal.rows[0].RequestID)
	}
}

func TestInvokeAction_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		status   int
		code     ErrorCode
		hasMeta  bool
		attempts int
	}{
		{"unknown action", "/api/v1/actions/missing/invoke", "{}", http.StatusNotFound, ErrCodeNotFound, false, 0},
		{"action error", "/api/v1/actions/fail/invoke", `{"retries": 2}`, http.StatusBadGateway, ErrCodeActionFailed, true, 3},
		{"timeout", "/api/v1/actions/slow/invoke", `{"timeout_ms": 20}`, http.StatusGatewayTimeout, ErrCodeTimeout, true, 1},
		{"invalid json", "/api/v1/actions/echo/invoke", `{"context":`, http.StatusBadRequest, ErrCodeBadRequest, false, 0},
		{"unknown field", "/api/v1/actions/echo/invoke", `{"ctx": {}}`, http.StatusBadRequest, ErrCodeBadRequest, false, 0},
		{"negative retries", "/api/v1/actions/echo/invoke", `{"retries": -1}`, http.StatusBadRequest, ErrCodeBadRequest, false, 0},
		{"negative timeout", "/api/v1/actions/echo/invoke", `{"timeout_ms": -5}`, http.StatusBadRequest, ErrCodeBadRequest, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body)
			}

			resp := decode[ErrorResponse](t, rec)
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Error.Code)
			}
			if (resp.Error.Meta != nil) != tt.hasMeta {
				t.Fatalf("meta presence: expected %v, got %+v", tt.hasMeta, resp.Error.Meta)
			}
			if tt.hasMeta && resp.Error.Meta.Attempts != tt.attempts {
				t.Errorf("expected %d attempts, got %d", tt.attempts, resp.Error.Meta.Attempts)
			}
		})
	}
}

func TestInvokeAction_Async(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/actions/echo/invoke", `{"async": true, "context": {"value": 1}, "retries": 2}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}

	resp := decode[struct {
		Data AcceptedResponse `json:"data"`
	}](t, rec)
	if len(s.publisher.reqs) != 1 {
		t.Fatalf("expected 1 published request, got %d", len(s.publisher.reqs))
	}

	req := s.publisher.reqs[0]
	if req.ID != resp.Data.RequestID || req.Action != "echo" {
		t.Errorf("published request does not match response: %+v vs %+v", req, resp.Data)
	}
	if req.Retry == nil || req.Retry.Retries != 2 {
		t.Errorf("retry policy should be published, got %+v", req.Retry)
	}
	if len(s.journal.rows) != 0 {
		t.Error("async invoke should not run in the API process")
	}
}

func TestInvokeAction_AsyncUnavailable(t *testing.T) {
	s := newTestServer(t)
	s.publisher.err = errors.New("broker down")

	rec := s.do(t, http.MethodPost, "/api/v1/actions/echo/invoke", `{"async": true}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestInvokeErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&core.InvokeError{Err: core.ErrCancelled}, StatusClientClosedRequest},
		{&core.InvokeError{Err: fmt.Errorf("%w: %w", core.ErrCancelled, errors.New("x"))}, StatusClientClosedRequest},
		{&core.InvokeError{Err: &core.TimeoutError{Timeout: time.Second}}, http.StatusGatewayTimeout},
		{&core.InvokeError{Err: errors.New("boom")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		if status, _ := InvokeErrorStatus(tt.err); status != tt.status {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.status, status)
		}
	}
}

func TestBodyToDomain(t *testing.T) {
	id := uuid.New()

	req := (&InvokeRequestBody{TimeoutMs: 100}).ToDomain(id, "echo")
	if req.Retry != nil {
		t.Error("no retry fields should keep server defaults")
	}
	if req.ID != id || req.Source != domain.SourceAPI || req.TimeoutMs != 100 {
		t.Errorf("unexpected request: %+v", req)
	}

	zero := 0
	req = (&InvokeRequestBody{Retries: &zero}).ToDomain(id, "echo")
	if req.Retry == nil || req.Retry.Retries != 0 {
		t.Error("explicit zero retries should override defaults")
	}
}

// --- Invocations ---

func TestListInvocations(t *testing.T) {
	s := newTestServer(t)
	s.journal.rows = []domain.Invocation{
		{ID: uuid.New(), Action: "echo", Status: domain.InvocationStatusSucceeded, Source: domain.SourceAPI},
	}

	rec := s.do(t, http.MethodGet, "/api/v1/invocations?action=echo&status=SUCCEEDED&source=api&limit=10&offset=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	f := s.journal.lastFilter
	if f.Action != "echo" || f.Status != domain.InvocationStatusSucceeded || f.Source != domain.SourceAPI {
		t.Errorf("filter not parsed: %+v", f)
	}
	if f.Limit != 10 || f.Offset != 5 {
		t.Errorf("pagination not parsed: %+v", f)
	}

	resp := decode[struct {
		Data  []InvocationResponse `json:"data"`
		Total int                  `json:"total"`
	}](t, rec)
	if resp.Total != 1 || resp.Data[0].Status != "SUCCEEDED" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestListInvocations_BadParams(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []string{"status=DONE", "limit=abc", "offset=-1"} {
		rec := s.do(t, http.MethodGet, "/api/v1/invocations?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestListInvocations_RepoError(t *testing.T) {
	s := newTestServer(t)
	s.journal.err = errors.New("db down")

	rec := s.do(t, http.MethodGet, "/api/v1/invocations", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestGetInvocation(t *testing.T) {
	s := newTestServer(t)
	id := uuid.New()
	s.journal.rows = []domain.Invocation{{ID: id, Action: "fail", Status: domain.InvocationStatusFailed, Error: "boom"}}

	rec := s.do(t, http.MethodGet, "/api/v1/invocations/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[struct {
		Data InvocationResponse `json:"data"`
	}](t, rec)
	if resp.Data.ID != id || resp.Data.Error != "boom" {
		t.Errorf("unexpected invocation: %+v", resp.Data)
	}

	if rec := s.do(t, http.MethodGet, "/api/v1/invocations/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/v1/invocations/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestInvocations_NoJournal(t *testing.T) {
	h := NewHandler(Config{Actions: core.New()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	for _, path := range []string{"/api/v1/invocations", "/api/v1/invocations/" + uuid.NewString()} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}

// --- Middleware ---

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(Recovery(logger), Logging(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	rw.WriteHeader(http.StatusTeapot)
	if rw.status != http.StatusTeapot {
		t.Errorf("expected 418, got %d", rw.status)
	}
}

func TestRequestID_GeneratesWhenInvalid(t *testing.T) {
	var seen uuid.UUID
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen == uuid.Nil {
		t.Fatal("request ID should be generated")
	}
	if rec.Header().Get(HeaderRequestID) != seen.String() {
		t.Error("generated ID should be returned in the response")
	}
}
