package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresManager backs locks with session-level advisory locks, for
// deployments where several processes write to the same destination tables.
type PostgresManager struct {
	pool *pgxpool.Pool
}

// NewPostgresManager wires an advisory-lock manager backed by pgxpool.
func NewPostgresManager(pool *pgxpool.Pool) *PostgresManager {
	return &PostgresManager{pool: pool}
}

// Named implements Manager.
func (m *PostgresManager) Named(name string) Lock {
	return &postgresLock{pool: m.pool, name: name}
}

// postgresLock pins one pool connection for the duration of the hold;
// advisory locks are owned by the session that took them.
type postgresLock struct {
	pool *pgxpool.Pool
	name string
	conn *pgxpool.Conn
}

func (l *postgresLock) TryAcquire(ctx context.Context, timeout time.Duration) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection for lock %s: %w", l.name, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		var got bool
		err := conn.QueryRow(
			ctx,
			`SELECT pg_try_advisory_lock(hashtext($1))`,
			l.name,
		).Scan(&got)
		if err != nil {
			conn.Release()
			return false, fmt.Errorf("failed to take advisory lock %s: %w", l.name, err)
		}
		if got {
			l.conn = conn
			return true, nil
		}
		if time.Now().After(deadline) {
			conn.Release()
			return false, nil
		}

		wait := retryInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			conn.Release()
			return false, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *postgresLock) Release() error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()

	_, err := l.conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, l.name)
	if err != nil {
		return fmt.Errorf("failed to release advisory lock %s: %w", l.name, err)
	}
	return nil
}
