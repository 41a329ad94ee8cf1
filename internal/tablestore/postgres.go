package tablestore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/rowsync/internal/domain"
)

// PostgresStore keeps every table as numbered rows of the sync_rows
// relation. The engine never relies on transactions here: correctness under
// concurrent invocations comes from the advisory lock, and each operation is
// a single statement or an idempotent read-modify-write.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) exists(ctx context.Context, table string) error {
	var found bool
	err := s.pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM sync_rows WHERE table_name = $1 AND row_num = $2)`,
		table, HeaderRow,
	).Scan(&found)
	if err != nil {
		return fmt.Errorf("failed to check table %s: %w", table, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return nil
}

// CreateTable inserts a header row for the table if one is not present.
func (s *PostgresStore) CreateTable(ctx context.Context, table string, header domain.Record) error {
	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO sync_rows (table_name, row_num, cells)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (table_name, row_num) DO NOTHING`,
		table, HeaderRow, []string(header),
	)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// ReadRow implements Store.
func (s *PostgresStore) ReadRow(ctx context.Context, table string, row, width int) (domain.Record, error) {
	var cells []string
	err := s.pool.QueryRow(
		ctx,
		`SELECT cells FROM sync_rows WHERE table_name = $1 AND row_num = $2`,
		table, row,
	).Scan(&cells)
	if err != nil {
		return nil, fmt.Errorf("failed to read row %d of %s: %w", row, table, err)
	}

	rec := domain.NewRecord(width)
	for col := 1; col <= width && col <= len(cells); col++ {
		rec = rec.Set(col, cells[col-1])
	}
	return rec, nil
}

// ReadRows implements Store.
func (s *PostgresStore) ReadRows(ctx context.Context, table string, fromRow, toRow, fromCol, toCol int) ([]domain.Record, error) {
	if fromRow < 1 || fromCol < 1 || toCol < fromCol {
		return nil, fmt.Errorf("invalid region %d..%d x %d..%d for table %s", fromRow, toRow, fromCol, toCol, table)
	}

	rows, err := s.pool.Query(
		ctx,
		`SELECT row_num, cells FROM sync_rows
		 WHERE table_name = $1 AND row_num BETWEEN $2 AND $3
		 ORDER BY row_num`,
		table, fromRow, toRow,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", table, err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			rowNum int
			cells  []string
		)
		if scanErr := rows.Scan(&rowNum, &cells); scanErr != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, scanErr)
		}
		rec := domain.NewRecord(toCol - fromCol + 1)
		for c := fromCol; c <= toCol && c <= len(cells); c++ {
			rec = rec.Set(c-fromCol+1, cells[c-1])
		}
		out = append(out, rec)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate rows of %s: %w", table, rowsErr)
	}
	return out, nil
}

// RowCount implements Store.
func (s *PostgresStore) RowCount(ctx context.Context, table string) (int, error) {
	if err := s.exists(ctx, table); err != nil {
		return 0, err
	}

	var count int
	err := s.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM sync_rows WHERE table_name = $1`,
		table,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return count, nil
}

// HeaderWidth implements Store.
func (s *PostgresStore) HeaderWidth(ctx context.Context, table string) (int, error) {
	var cells []string
	err := s.pool.QueryRow(
		ctx,
		`SELECT cells FROM sync_rows WHERE table_name = $1 AND row_num = $2`,
		table, HeaderRow,
	).Scan(&cells)
	if err != nil {
		return 0, fmt.Errorf("failed to read header of %s: %w", table, err)
	}

	width := 0
	for col, value := range cells {
		if value != "" {
			width = col + 1
		}
	}
	return width, nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, table string, rec domain.Record) (int, error) {
	if err := s.exists(ctx, table); err != nil {
		return 0, err
	}

	var row int
	err := s.pool.QueryRow(
		ctx,
		`INSERT INTO sync_rows (table_name, row_num, cells)
		 SELECT $1, COALESCE(MAX(row_num), 0) + 1, $2
		 FROM sync_rows WHERE table_name = $1
		 RETURNING row_num`,
		table, []string(rec),
	).Scan(&row)
	if err != nil {
		return 0, fmt.Errorf("failed to append to %s: %w", table, err)
	}
	return row, nil
}

// WriteRow implements Store.
func (s *PostgresStore) WriteRow(ctx context.Context, table string, row, fromCol int, cells domain.Record) error {
	var existing []string
	err := s.pool.QueryRow(
		ctx,
		`SELECT cells FROM sync_rows WHERE table_name = $1 AND row_num = $2`,
		table, row,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to read row %d of %s: %w", row, table, err)
	}

	merged := domain.Record(existing)
	for i := 1; i <= cells.Width(); i++ {
		merged = merged.Set(fromCol+i-1, cells.Get(i))
	}

	_, err = s.pool.Exec(
		ctx,
		`UPDATE sync_rows SET cells = $3 WHERE table_name = $1 AND row_num = $2`,
		table, row, []string(merged),
	)
	if err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, table, err)
	}
	return nil
}

// SortRows implements Store.
func (s *PostgresStore) SortRows(ctx context.Context, table string, col int, ascending bool) error {
	rows, err := s.pool.Query(
		ctx,
		`SELECT cells FROM sync_rows
		 WHERE table_name = $1 AND row_num > $2
		 ORDER BY row_num`,
		table, HeaderRow,
	)
	if err != nil {
		return fmt.Errorf("failed to read rows of %s: %w", table, err)
	}
	defer rows.Close()

	var data []domain.Record
	for rows.Next() {
		var cells []string
		if scanErr := rows.Scan(&cells); scanErr != nil {
			return fmt.Errorf("failed to scan row of %s: %w", table, scanErr)
		}
		data = append(data, domain.Record(cells))
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("failed to iterate rows of %s: %w", table, rowsErr)
	}
	if len(data) <= 1 {
		return nil
	}

	sort.SliceStable(data, func(i, j int) bool {
		return compareCells(data[i].Get(col), data[j].Get(col), ascending)
	})

	for i, rec := range data {
		_, err := s.pool.Exec(
			ctx,
			`UPDATE sync_rows SET cells = $3 WHERE table_name = $1 AND row_num = $2`,
			table, HeaderRow+1+i, []string(rec),
		)
		if err != nil {
			return fmt.Errorf("failed to reorder %s: %w", table, err)
		}
	}
	return nil
}
