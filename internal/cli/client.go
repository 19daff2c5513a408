package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ActionResponse — зарегистрированный action.
type ActionResponse struct {
	Name string `json:"name"`
}

// MetaResponse — метаданные вызова.
type MetaResponse struct {
	InvocationID string `json:"invocation_id"`
	Action       string `json:"action"`
	StartedAt    string `json:"started_at"`
	EndedAt      string `json:"ended_at"`
	DurationMs   int64  `json:"duration_ms"`
	Attempts     int    `json:"attempts"`
}

// InvokeResponse — результат синхронного вызова.
type InvokeResponse struct {
	Result any          `json:"result"`
	Meta   MetaResponse `json:"meta"`
}

// AcceptedResponse — вызов поставлен в очередь.
type AcceptedResponse struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
}

// InvocationResponse — запись журнала.
type InvocationResponse struct {
	ID           string `json:"id"`
	Action       string `json:"action"`
	Status       string `json:"status"`
	Attempts     int    `json:"attempts"`
	StartedAt    string `json:"started_at"`
	EndedAt      string `json:"ended_at"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	Source       string `json:"source"`
	RequestID    string `json:"request_id,omitempty"`
	ScheduleName string `json:"schedule_name,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// --- Request types ---

// InvokeRequest — тело запроса на вызов.
type InvokeRequest struct {
	Context   map[string]any `json:"context,omitempty"`
	TimeoutMs int            `json:"timeout_ms,omitempty"`
	Retries   *int           `json:"retries,omitempty"`
	Backoff   string         `json:"backoff,omitempty"`
	Async     bool           `json:"async,omitempty"`
}

// ListInvocationsOpts — параметры фильтрации журнала.
type ListInvocationsOpts struct {
	Action string
	Status string
	Source string
	Limit  int
	Offset int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string        `json:"code"`
		Message string        `json:"message"`
		Meta    *MetaResponse `json:"meta,omitempty"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
// Meta заполнена, если action был вызван.
type APIError struct {
	Status  int
	Code    string
	Message string
	Meta    *MetaResponse
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Caddy API.
//
// Таймаут HTTP-клиента не задан: длительность синхронного вызова
// ограничивается timeout_ms самого вызова и context команды.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// ListActions возвращает зарегистрированные actions.
func (c *Client) ListActions(ctx context.Context) ([]ActionResponse, error) {
	var actions []ActionResponse
	err := c.list(ctx, "/api/v1/actions", nil, &actions)
	return actions, err
}

// InvokeAction вызывает action синхронно.
func (c *Client) InvokeAction(ctx context.Context, name string, req InvokeRequest) (*InvokeResponse, error) {
	req.Async = false
	var res InvokeResponse
	if err := c.post(ctx, invokePath(name), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EnqueueAction ставит вызов в очередь.
func (c *Client) EnqueueAction(ctx context.Context, name string, req InvokeRequest) (*AcceptedResponse, error) {
	req.Async = true
	var res AcceptedResponse
	if err := c.post(ctx, invokePath(name), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListInvocations возвращает журнал вызовов.
func (c *Client) ListInvocations(ctx context.Context, opts ListInvocationsOpts) ([]InvocationResponse, error) {
	params := url.Values{}
	if opts.Action != "" {
		params.Set("action", opts.Action)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Source != "" {
		params.Set("source", opts.Source)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	var invocations []InvocationResponse
	err := c.list(ctx, "/api/v1/invocations", params, &invocations)
	return invocations, err
}

// GetInvocation возвращает запись журнала по ID.
func (c *Client) GetInvocation(ctx context.Context, id string) (*InvocationResponse, error) {
	var inv InvocationResponse
	if err := c.get(ctx, "/api/v1/invocations/"+url.PathEscape(id), &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func invokePath(name string) string {
	return "/api/v1/actions/" + url.PathEscape(name) + "/invoke"
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) list(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
		apiErr.Meta = er.Error.Meta
	}
	return apiErr
}

// AsAPIError извлекает *APIError из цепочки ошибок.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
