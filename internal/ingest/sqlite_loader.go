package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads "SELECT name, value FROM <Table>". The database is
// opened directly from the OS filesystem.
type SQLiteSource struct {
	Path  string
	Table string
}

// Values implements ValueSource.
func (s *SQLiteSource) Values(ctx context.Context) (map[string]float64, error) {
	values := make(map[string]float64)
	err := StreamSQLite(ctx, s.Path, s.Table, func(name string, value float64) error {
		values[name] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// StreamSQLite calls fn for every (name, value) row of table, one row at a
// time.
func StreamSQLite(ctx context.Context, dbPath, table string, fn func(name string, value float64) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.QueryContext(ctx, "SELECT name, value FROM "+quoteIdent(table))
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var (
			name  string
			value sql.NullFloat64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if !value.Valid {
			return &ValueFormatError{Source: dbPath, Record: name, Err: errNotNumber}
		}
		if err := fn(name, value.Float64); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
