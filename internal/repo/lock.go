package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lockCloseTimeout = 5 * time.Second

// sessionConn — соединение, на котором держится advisory lock.
type sessionConn interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Close закрывает физическое соединение, вместе с ним сервер снимает lock.
	Close(ctx context.Context) error
	Release()
}

type poolConn struct {
	*pgxpool.Conn
}

func (c poolConn) Close(ctx context.Context) error {
	return c.Conn.Conn().Close(ctx)
}

// LeaderLock — лидерство через pg_try_advisory_lock.
//
// Advisory lock принадлежит сессии, поэтому лидер держит отдельное
// соединение из пула до Release.
type LeaderLock struct {
	key     int64
	acquire func(ctx context.Context) (sessionConn, error)
	conn    sessionConn
}

// NewLeaderLock создаёт LeaderLock для ключа key.
func NewLeaderLock(pool *pgxpool.Pool, key int64) *LeaderLock {
	return &LeaderLock{
		key: key,
		acquire: func(ctx context.Context) (sessionConn, error) {
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			return poolConn{conn}, nil
		},
	}
}

// TryAcquire пытается стать лидером. Уже полученный lock проверяется
// пингом соединения: при разрыве лидерство теряется.
func (l *LeaderLock) TryAcquire(ctx context.Context) (bool, error) {
	if l.conn != nil {
		if err := l.conn.Ping(ctx); err == nil {
			return true, nil
		}
		l.drop(ctx)
	}

	conn, err := l.acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire conn: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// drop закрывает соединение лидера, не возвращая его в пул:
// сессия могла пережить неудачный пинг и всё ещё держать lock.
func (l *LeaderLock) drop(ctx context.Context) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockCloseTimeout)
	defer cancel()

	_ = l.conn.Close(closeCtx)
	l.conn.Release()
	l.conn = nil
}

// IsLeader сообщает, удерживается ли lock.
func (l *LeaderLock) IsLeader() bool {
	return l.conn != nil
}

// Release снимает lock и возвращает соединение в пул.
// Если unlock не удался, соединение закрывается.
func (l *LeaderLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}

	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.key); err != nil {
		l.drop(ctx)
		return fmt.Errorf("advisory unlock: %w", err)
	}

	l.conn.Release()
	l.conn = nil
	return nil
}
