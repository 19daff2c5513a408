package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/Caddy/internal/action"
	"github.com/shaiso/Caddy/internal/actions"
	"github.com/shaiso/Caddy/internal/config"
	"github.com/shaiso/Caddy/internal/core"
	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/middleware"
	"github.com/shaiso/Caddy/internal/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRuntime(t *testing.T) {
	rt, err := NewRuntime(&config.Config{}, testLogger(), telemetry.NewMetrics(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(rt.List(), actions.Names()) {
		t.Errorf("expected %v, got %v", actions.Names(), rt.List())
	}

	actx := action.NewContext(map[string]any{"value": 42})
	out, err := rt.Invoke(context.Background(), actions.NameEcho, actx, core.Options{})
	if err != nil || out != 42 {
		t.Fatalf("expected 42, got %v (err %v)", out, err)
	}
	if actx.GetString(middleware.RequestIDKey) == "" {
		t.Error("request id middleware should be installed")
	}
}

func TestNewRuntime_RateLimit(t *testing.T) {
	cfg := &config.Config{RateLimit: config.RateLimitConfig{RPS: 0.001, Burst: 1}}
	rt, err := NewRuntime(cfg, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	invoke := func() error {
		_, err := rt.Invoke(context.Background(), actions.NameEcho, action.NewContext(nil), core.Options{})
		return err
	}

	if err := invoke(); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	if err := invoke(); !errors.Is(err, middleware.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestDepsInvoker_Defaults(t *testing.T) {
	cfg := &config.Config{Invoke: config.InvokeConfig{
		Timeout: 2 * time.Second,
		Retries: 3,
		Backoff: config.BackoffConfig{Strategy: core.BackoffFixed, InitialDelay: 10 * time.Millisecond},
	}}

	d, err := Bootstrap(context.Background(), cfg, testLogger(), Options{Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	if d.Journal != nil || d.Publisher != nil {
		t.Error("no external systems were requested")
	}

	opts := d.Invoker().Options(&domain.InvokeRequest{Action: actions.NameEcho})
	if opts.Timeout != 2*time.Second || opts.Retries != 3 {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.Backoff == nil || opts.Backoff.InitialDelay != 10*time.Millisecond {
		t.Errorf("backoff not applied: %+v", opts.Backoff)
	}

	res, err := d.Invoker().Invoke(context.Background(), &domain.InvokeRequest{
		Action:  actions.NameEcho,
		Context: map[string]any{"value": "hi"},
	})
	if err != nil || res.Output != "hi" {
		t.Errorf("expected hi, got %+v (err %v)", res, err)
	}
}

func TestNewMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	telemetry.NewMetrics(reg).ObserveInvocation("echo", "SUCCEEDED", time.Millisecond, 1)
	mux := NewMux(reg)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "ok") {
		t.Errorf("unexpected healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "caddy_invocations_total") {
		t.Errorf("metrics should be exposed, got:\n%s", rec.Body.String())
	}
}

func TestAddr(t *testing.T) {
	if got := Addr(8080); got != ":8080" {
		t.Errorf("expected :8080, got %s", got)
	}
}

func TestServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), testLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	err = Serve(context.Background(), ln.Addr().String(), http.NotFoundHandler(), testLogger())
	if err == nil {
		t.Error("expected error for busy address")
	}
}
