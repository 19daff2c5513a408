package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Форматы вывода логов.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// LoggerOptions — параметры логгера сервиса.
type LoggerOptions struct {
	Service string
	Level   slog.Level
	Format  string // FormatJSON или FormatText
}

// ParseLevel разбирает уровень логирования без учёта регистра.
// Пустая строка — INFO. Допускаются смещения вида "debug+2".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// OptionsFromEnv читает LOG_LEVEL и LOG_FORMAT.
// Неизвестный уровень заменяется на INFO, ошибка возвращается для лога.
func OptionsFromEnv(service string) (LoggerOptions, error) {
	opts := LoggerOptions{Service: service, Format: FormatJSON}

	level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	opts.Level = level

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), FormatText) {
		opts.Format = FormatText
	}
	return opts, err
}

// NewLogger создаёт логгер, пишущий в w.
// На уровне DEBUG в запись добавляется место вызова.
func NewLogger(w io.Writer, opts LoggerOptions) *slog.Logger {
	hopts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.Level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(w, hopts)
	} else {
		handler = slog.NewJSONHandler(w, hopts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	return logger
}

// SetupLogger настраивает логгер сервиса из окружения, пишет в stdout
// и делает его логгером по умолчанию.
func SetupLogger(service string) *slog.Logger {
	opts, err := OptionsFromEnv(service)
	logger := NewLogger(os.Stdout, opts)
	slog.SetDefault(logger)

	if err != nil {
		logger.Warn("invalid LOG_LEVEL, using INFO", "error", err)
	}
	return logger
}

type loggerKey struct{}

// WithLogger кладёт логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext достаёт логгер из контекста, иначе slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func WithAction(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("action", name)
}

func WithInvocationID(logger *slog.Logger, invocationID string) *slog.Logger {
	return logger.With("invocation_id", invocationID)
}

func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithSource добавляет источник вызова: api, worker или scheduler.
func WithSource(logger *slog.Logger, source string) *slog.Logger {
	return logger.With("source", source)
}
