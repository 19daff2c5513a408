package actions

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shaiso/Caddy/internal/action"
)

const (
	// NameHTTP — имя HTTP action.
	NameHTTP = "http"

	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// Ключи контекста HTTP action.
const (
	keyMethod          = "method"
	keyURL             = "url"
	keyHeaders         = "headers"
	keyBody            = "body"
	keyFollowRedirects = "follow_redirects"
	keyValidateSSL     = "validate_ssl"
	keyTimeoutSec      = "timeout_sec"
)

// HTTP — action HTTP запроса.
//
// Контекст:
//
//	{
//	    "method": "POST",
//	    "url": "https://api.example.com/data",
//	    "headers": {"Authorization": "Bearer ..."},
//	    "body": {"data": [1, 2, 3]},
//	    "follow_redirects": true,
//	    "validate_ssl": true,
//	    "timeout_sec": 30
//	}
//
// Результат:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json", ...},
//	    "body": {...}  // JSON или строка
//	}
//
// Ответ 5xx возвращается как *HTTPError, чтобы runtime мог повторить попытку.
type HTTP struct {
	// Transport используется вместо стандартного (тесты).
	Transport http.RoundTripper
}

// NewHTTP создаёт HTTP action.
func NewHTTP() *HTTP {
	return &HTTP{}
}

// Name возвращает имя action.
func (a *HTTP) Name() string {
	return NameHTTP
}

// Run выполняет HTTP запрос.
func (a *HTTP) Run(ctx context.Context, actx *action.Context) (any, error) {
	cfg, err := a.parseInput(actx)
	if err != nil {
		return nil, err
	}

	client := a.buildClient(cfg)

	req, err := a.buildRequest(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	return a.parseResponse(resp)
}

// httpInput — разобранные параметры запроса.
type httpInput struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            any
	FollowRedirects bool
	ValidateSSL     bool
	TimeoutSec      int
}

// parseInput разбирает параметры запроса из контекста.
func (a *HTTP) parseInput(actx *action.Context) (*httpInput, error) {
	cfg := &httpInput{
		Method:          actx.GetString(keyMethod),
		URL:             actx.GetString(keyURL),
		Headers:         make(map[string]string),
		Body:            actx.Value(keyBody),
		FollowRedirects: actx.GetBool(keyFollowRedirects, true),
		ValidateSSL:     actx.GetBool(keyValidateSSL, true),
		TimeoutSec:      actx.GetInt(keyTimeoutSec),
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: %s: url is required", ErrInvalidInput, NameHTTP)
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)

	// Копия: заголовки дополняются ниже, контекст action не меняется
	for k, v := range actx.GetStringMap(keyHeaders) {
		cfg.Headers[k] = v
	}

	return cfg, nil
}

// Общие транспорты для всех экземпляров HTTP action: соединения
// переиспользуются, простаивающие закрываются через idleConnTimeout.
var (
	transportsOnce    sync.Once
	verifiedTransport *http.Transport
	insecureTransport *http.Transport
)

const idleConnTimeout = 90 * time.Second

func newTransport(insecure bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.IdleConnTimeout = idleConnTimeout
	t.MaxIdleConnsPerHost = 10
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecure}
	return t
}

// sharedTransport возвращает транспорт с проверкой сертификата или без неё.
func sharedTransport(validateSSL bool) *http.Transport {
	transportsOnce.Do(func() {
		verifiedTransport = newTransport(false)
		insecureTransport = newTransport(true)
	})
	if validateSSL {
		return verifiedTransport
	}
	return insecureTransport
}

// buildClient создаёт HTTP клиент с нужными настройками.
func (a *HTTP) buildClient(cfg *httpInput) *http.Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	var checkRedirect func(*http.Request, []*http.Request) error
	if !cfg.FollowRedirects {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	transport := a.Transport
	if transport == nil {
		transport = sharedTransport(cfg.ValidateSSL)
	}

	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport:     transport,
	}
}

// buildRequest создаёт HTTP запрос.
func (a *HTTP) buildRequest(ctx context.Context, cfg *httpInput) (*http.Request, error) {
	var bodyReader io.Reader

	if cfg.Body != nil {
		bodyBytes, err := serializeBody(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		if _, ok := cfg.Headers["Content-Type"]; !ok {
			cfg.Headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// serializeBody сериализует body в bytes.
func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// parseResponse разбирает ответ. 5xx — *HTTPError.
func (a *HTTP) parseResponse(resp *http.Response) (any, error) {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(bodyBytes),
		}
	}

	var body any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        body,
	}, nil
}
