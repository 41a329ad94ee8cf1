package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/rowsync/internal/domain"
)

// PostgresSink persists audit entries in the sync_audit relation.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink wires a sink backed by pgxpool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Record implements Sink.
func (s *PostgresSink) Record(ctx context.Context, entry domain.AuditEntry) error {
	if s.pool == nil {
		return fmt.Errorf("audit sink not initialized")
	}

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO sync_audit (correlation_id, action, source_table, source_row, primary_id, name, detail, result, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.CorrelationID,
		entry.Action,
		entry.SourceTable,
		entry.SourceRow,
		entry.PrimaryID,
		entry.Name,
		entry.Detail,
		string(entry.Result),
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries for one action, newest first.
func (s *PostgresSink) List(ctx context.Context, action string, limit int) ([]domain.AuditEntry, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("audit sink not initialized")
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.pool.Query(
		ctx,
		`SELECT correlation_id, action, source_table, source_row, primary_id, name, detail, result, error_message, created_at
		 FROM sync_audit
		 WHERE ($1 = '' OR action = $1)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		action,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var (
			entry     domain.AuditEntry
			result    string
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.CorrelationID,
			&entry.Action,
			&entry.SourceTable,
			&entry.SourceRow,
			&entry.PrimaryID,
			&entry.Name,
			&entry.Detail,
			&result,
			&entry.ErrorMessage,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", scanErr)
		}

		entry.Result = domain.Result(result)
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", rowsErr)
	}
	return entries, nil
}
