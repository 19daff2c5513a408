package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Caddy/internal/core"
	"github.com/shaiso/Caddy/internal/domain"
	"github.com/shaiso/Caddy/internal/scheduler"
)

// EnvConfigPath — переменная с путём к YAML файлу конфигурации.
const EnvConfigPath = "CADDY_CONFIG"

// Режимы отправки вызовов из scheduler.
const (
	DispatchLocal = "local"
	DispatchQueue = "queue"
)

// Config — конфигурация всех бинарников Caddy.
type Config struct {
	Database  DatabaseConfig   `yaml:"database"`
	RabbitMQ  RabbitMQConfig   `yaml:"rabbitmq"`
	HTTP      HTTPConfig       `yaml:"http"`
	Invoke    InvokeConfig     `yaml:"invoke"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
	Scheduler SchedulerConfig  `yaml:"scheduler"`
	Schedules []ScheduleConfig `yaml:"schedules"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Prefetch int    `yaml:"prefetch"`
}

type HTTPConfig struct {
	APIPort       int `yaml:"api_port"`
	WorkerPort    int `yaml:"worker_port"`
	SchedulerPort int `yaml:"scheduler_port"`
}

// InvokeConfig — параметры вызова по умолчанию.
type InvokeConfig struct {
	// Timeout — таймаут одной попытки. 0 — без таймаута.
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	Backoff BackoffConfig `yaml:"backoff"`
}

type BackoffConfig struct {
	Strategy     string        `yaml:"strategy"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// RateLimitConfig — лимит вызовов на каждый action. RPS <= 0 отключает лимит.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SchedulerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	// Dispatch — "local" (вызов в процессе scheduler) или "queue" (через RabbitMQ).
	Dispatch string `yaml:"dispatch"`
}

// ScheduleConfig — расписание в YAML.
type ScheduleConfig struct {
	Name     string              `yaml:"name"`
	Action   string              `yaml:"action"`
	Cron     string              `yaml:"cron"`
	Interval time.Duration       `yaml:"interval"`
	Timezone string              `yaml:"timezone"`
	Enabled  *bool               `yaml:"enabled"`
	Context  map[string]any      `yaml:"context"`
	Timeout  time.Duration       `yaml:"timeout"`
	Retry    *domain.RetryPolicy `yaml:"retry"`
}

// Load читает конфигурацию из файла CADDY_CONFIG (если задан),
// применяет переменные окружения, значения по умолчанию и валидирует.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvConfigPath))
}

// LoadFile — Load с явным путём. Пустой путь — только окружение и defaults.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAMLStrict(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse разбирает YAML без чтения окружения.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := decodeYAMLStrict(b, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAMLStrict(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return errors.New("yaml: multiple documents are not allowed")
		}
		return err
	}
	return nil
}

// applyEnv переопределяет значения из окружения.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("DB_URL"); ok && v != "" {
		cfg.Database.URL = v
	}
	if v, ok := lookup("RABBITMQ_URL"); ok && v != "" {
		cfg.RabbitMQ.URL = v
	}

	ports := []struct {
		env string
		dst *int
	}{
		{"API_PORT", &cfg.HTTP.APIPort},
		{"WORKER_PORT", &cfg.HTTP.WorkerPort},
		{"SCHED_PORT", &cfg.HTTP.SchedulerPort},
	}
	for _, p := range ports {
		v, ok := lookup(p.env)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalidConfig, p.env, v)
		}
		*p.dst = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.APIPort == 0 {
		cfg.HTTP.APIPort = 8080
	}
	if cfg.HTTP.SchedulerPort == 0 {
		cfg.HTTP.SchedulerPort = 8081
	}
	if cfg.HTTP.WorkerPort == 0 {
		cfg.HTTP.WorkerPort = 8082
	}
	if cfg.RabbitMQ.Prefetch == 0 {
		cfg.RabbitMQ.Prefetch = 5
	}
	if cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = max(int(cfg.RateLimit.RPS), 1)
	}
	if cfg.Scheduler.TickInterval == 0 {
		cfg.Scheduler.TickInterval = time.Second
	}
	cfg.Scheduler.Dispatch = strings.ToLower(strings.TrimSpace(cfg.Scheduler.Dispatch))
	if cfg.Scheduler.Dispatch == "" {
		cfg.Scheduler.Dispatch = DispatchLocal
	}
	cfg.Invoke.Backoff.Strategy = strings.ToLower(strings.TrimSpace(cfg.Invoke.Backoff.Strategy))
	for i := range cfg.Schedules {
		if cfg.Schedules[i].Timezone == "" {
			cfg.Schedules[i].Timezone = "UTC"
		}
	}
}

// Validate проверяет конфигурацию. Все ошибки оборачивают ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if c.Invoke.Timeout < 0 {
		errs = append(errs, errors.New("invoke.timeout must not be negative"))
	}
	if c.Invoke.Retries < 0 {
		errs = append(errs, errors.New("invoke.retries must not be negative"))
	}
	switch c.Invoke.Backoff.Strategy {
	case "", core.BackoffFixed, core.BackoffExponential:
	default:
		errs = append(errs, fmt.Errorf("invoke.backoff.strategy %q is unknown", c.Invoke.Backoff.Strategy))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}
	switch c.Scheduler.Dispatch {
	case DispatchLocal, DispatchQueue:
	default:
		errs = append(errs, fmt.Errorf("scheduler.dispatch %q must be local or queue", c.Scheduler.Dispatch))
	}

	seen := make(map[string]bool, len(c.Schedules))
	for i, s := range c.Schedules {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("schedules[%d]: name is required", i))
		} else if seen[s.Name] {
			errs = append(errs, fmt.Errorf("schedules[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true

		if err := scheduler.ValidateSchedule(s.ToDomain()); err != nil {
			errs = append(errs, fmt.Errorf("schedules[%d] %q: %w", i, s.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// DefaultRetry возвращает политику повторов по умолчанию.
func (c *Config) DefaultRetry() domain.RetryPolicy {
	return domain.RetryPolicy{
		Retries:        c.Invoke.Retries,
		Backoff:        c.Invoke.Backoff.Strategy,
		InitialDelayMs: int(c.Invoke.Backoff.InitialDelay.Milliseconds()),
		MaxDelayMs:     int(c.Invoke.Backoff.MaxDelay.Milliseconds()),
	}
}

// DomainSchedules конвертирует все расписания.
func (c *Config) DomainSchedules() []*domain.Schedule {
	out := make([]*domain.Schedule, 0, len(c.Schedules))
	for _, s := range c.Schedules {
		out = append(out, s.ToDomain())
	}
	return out
}

// ToDomain конвертирует ScheduleConfig в domain.Schedule.
// Интервал округляется до секунд; enabled по умолчанию true.
func (s ScheduleConfig) ToDomain() *domain.Schedule {
	enabled := true
	if s.Enabled != nil {
		enabled = *s.Enabled
	}

	return &domain.Schedule{
		Name:        s.Name,
		Action:      s.Action,
		CronExpr:    s.Cron,
		IntervalSec: int(s.Interval / time.Second),
		Timezone:    s.Timezone,
		Enabled:     enabled,
		Context:     s.Context,
		TimeoutMs:   int(s.Timeout.Milliseconds()),
		Retry:       s.Retry,
	}
}
