package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/Caddy/internal/domain"
)

// Пагинация List.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// uniqueViolation — SQLSTATE нарушения уникальности.
const uniqueViolation = "23505"

// InvocationRepo — журнал вызовов. Хранит только метаданные.
type InvocationRepo struct {
	db Querier
}

// NewInvocationRepo создаёт InvocationRepo.
func NewInvocationRepo(db Querier) *InvocationRepo {
	return &InvocationRepo{db: db}
}

// Create записывает вызов.
func (r *InvocationRepo) Create(ctx context.Context, inv *domain.Invocation) error {
	query := `
		INSERT INTO invocations (id, action, status, attempts, started_at, ended_at,
		                         duration_ms, error, source, request_id, schedule_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		inv.ID,
		inv.Action,
		inv.Status,
		inv.Attempts,
		inv.StartedAt,
		inv.EndedAt,
		inv.DurationMs,
		nullString(inv.Error),
		inv.Source,
		nullString(inv.RequestID),
		nullString(inv.ScheduleName),
		inv.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: invocation %s", ErrAlreadyExists, inv.ID)
		}
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

const selectInvocation = `
	SELECT id, action, status, attempts, started_at, ended_at, duration_ms,
	       error, source, request_id, schedule_name, created_at
	FROM invocations
`

// GetByID возвращает вызов по ID.
func (r *InvocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invocation, error) {
	return scanInvocation(r.db.QueryRow(ctx, selectInvocation+"WHERE id = $1", id))
}

// List возвращает вызовы, новые первыми.
func (r *InvocationRepo) List(ctx context.Context, filter domain.InvocationFilter) ([]domain.Invocation, error) {
	filter = NormalizeFilter(filter)

	query := selectInvocation + `
		WHERE ($1::text IS NULL OR action = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR source = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query,
		nullString(filter.Action),
		nullString(string(filter.Status)),
		nullString(string(filter.Source)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var invocations []domain.Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, *inv)
	}
	return invocations, rows.Err()
}

// NormalizeFilter применяет границы пагинации.
func NormalizeFilter(f domain.InvocationFilter) domain.InvocationFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	f.Limit = min(f.Limit, MaxListLimit)
	f.Offset = max(f.Offset, 0)
	return f
}

// scanInvocation сканирует строку. pgx.Rows тоже реализует pgx.Row.
func scanInvocation(row pgx.Row) (*domain.Invocation, error) {
	var inv domain.Invocation
	var invErr, requestID, scheduleName *string

	err := row.Scan(
		&inv.ID,
		&inv.Action,
		&inv.Status,
		&inv.Attempts,
		&inv.StartedAt,
		&inv.EndedAt,
		&inv.DurationMs,
		&invErr,
		&inv.Source,
		&requestID,
		&scheduleName,
		&inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invocation: %w", err)
	}

	inv.Error = deref(invErr)
	inv.RequestID = deref(requestID)
	inv.ScheduleName = deref(scheduleName)
	return &inv, nil
}

// nullString возвращает nil для пустой строки (NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
