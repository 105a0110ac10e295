// Package postgres adapts a pgx connection pool to the engine's database
// capability. It materializes query results into column/row form and
// classifies driver failures into the engine's retryable/non-retryable
// taxonomy.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adsight/exporter/internal/core"
)

// DB wraps a pgx pool as a core.Database.
type DB struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Query executes positional-parameter SQL and materializes the full result.
// Reporting queries are bounded by the engine's row ceiling upstream, so
// loading all rows into memory is acceptable here.
func (d *DB) Query(ctx context.Context, sql string, args ...any) (*core.TabularResult, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	result := &core.TabularResult{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, classify(err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return result, nil
}

// classify maps a driver error onto the engine's sentinels. Connectivity
// failures (dial errors, dropped connections, SQLSTATE class 08) are
// retryable; everything else indicates a query problem.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("%w: %s", core.ErrDatabaseUnavailable, pgErr.Message)
		}
		return fmt.Errorf("%w: %s (SQLSTATE %s)", core.ErrQueryFailed, pgErr.Message, pgErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrDatabaseUnavailable, err)
	}

	return fmt.Errorf("%w: %v", core.ErrQueryFailed, err)
}
