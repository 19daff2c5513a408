package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"DEBUG", slog.LevelDebug, false},
		{"debug", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"info+2", slog.LevelInfo + 2, false},
		{"", slog.LevelInfo, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "TEXT")

	opts, err := OptionsFromEnv("caddy-api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := LoggerOptions{Service: "caddy-api", Level: slog.LevelWarn, Format: FormatText}
	if opts != want {
		t.Errorf("got %+v, want %+v", opts, want)
	}

	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("LOG_FORMAT", "")
	opts, err = OptionsFromEnv("caddy-worker")
	if err == nil {
		t.Error("expected error for unknown level")
	}
	if opts.Level != slog.LevelInfo || opts.Format != FormatJSON {
		t.Errorf("expected INFO/json fallback, got %+v", opts)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LoggerOptions{Service: "caddy-worker", Level: slog.LevelWarn, Format: FormatJSON})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %s", out)
	}
	for _, want := range []string{`"msg":"shown"`, `"service":"caddy-worker"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, `"source":{`) {
		t.Errorf("caller location expected only at DEBUG: %s", out)
	}

	buf.Reset()
	NewLogger(&buf, LoggerOptions{Level: slog.LevelDebug, Format: FormatText}).Debug("trace")
	out = buf.String()
	if !strings.Contains(out, "msg=trace") || !strings.Contains(out, "source=") {
		t.Errorf("expected text record with caller location, got %s", out)
	}
	if strings.Contains(out, "service=") {
		t.Errorf("unexpected service attribute: %s", out)
	}
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
	if FromContext(WithLogger(context.Background(), nil)) != slog.Default() {
		t.Error("nil logger in context should fall back to default")
	}

	l := WithAction(logger, "echo")
	l = WithRequestID(WithInvocationID(l, "abc"), "req-1")
	WithSource(l, "api").Info("done")

	out := buf.String()
	for _, want := range []string{`"action":"echo"`, `"invocation_id":"abc"`, `"request_id":"req-1"`, `"source":"api"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveInvocation("echo", "SUCCEEDED", 20*time.Millisecond, 1)
	m.ObserveInvocation("echo", "FAILED", time.Second, 3)
	m.ObserveInvocation("echo", "SUCCEEDED", time.Millisecond, 1)
	m.ObserveAttempt("echo", OutcomeError)
	m.IncRetry("echo")
	m.IncRetry("echo")

	if v := testutil.ToFloat64(m.invocations.WithLabelValues("echo", "SUCCEEDED")); v != 2 {
		t.Errorf("expected 2 successful invocations, got %v", v)
	}
	if v := testutil.ToFloat64(m.invocations.WithLabelValues("echo", "FAILED")); v != 1 {
		t.Errorf("expected 1 failed invocation, got %v", v)
	}
	if v := testutil.ToFloat64(m.attemptsAll.WithLabelValues("echo", OutcomeError)); v != 1 {
		t.Errorf("expected 1 failed attempt, got %v", v)
	}
	if v := testutil.ToFloat64(m.retries.WithLabelValues("echo")); v != 2 {
		t.Errorf("expected 2 retries, got %v", v)
	}

	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("expected 1 duration series, got %d", n)
	}
}
