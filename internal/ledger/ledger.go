// Package ledger records summarization runs in a SQLite database so that
// budgets, modes and errors can be compared across runs.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agentic-research/cascade/api"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created INTEGER NOT NULL,
	hierarchies TEXT NOT NULL,
	values_source TEXT NOT NULL,
	budget INTEGER NOT NULL,
	mode TEXT NOT NULL,
	take_log INTEGER NOT NULL,
	size INTEGER NOT NULL,
	weight REAL NOT NULL,
	lattice_nodes INTEGER NOT NULL,
	leaves INTEGER NOT NULL,
	average_error REAL NOT NULL,
	worst_error REAL NOT NULL,
	elapsed_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);

CREATE TABLE IF NOT EXISTS representatives (
	run_id TEXT NOT NULL REFERENCES runs(id),
	pos INTEGER NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	leaves INTEGER NOT NULL,
	share REAL NOT NULL,
	PRIMARY KEY (run_id, pos)
) WITHOUT ROWID;
`

// Run is one recorded run.
type Run struct {
	ID          string
	Created     time.Time
	Hierarchies string
	Values      string
	Report      api.Report
}

// Ledger is a handle on a run database. It is safe for concurrent use.
type Ledger struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open opens or creates the ledger at dbPath.
func Open(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Record stores rep and its representatives in one transaction. An empty
// rep.RunID gets a fresh UUID; the stored ID is returned.
func (l *Ledger) Record(ctx context.Context, cfg api.RunConfig, rep api.Report) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := rep.RunID
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created, hierarchies, values_source, budget, mode, take_log,
			size, weight, lattice_nodes, leaves, average_error, worst_error, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, l.now().UnixNano(), strings.Join(cfg.Hierarchies, ";"), cfg.Values,
		rep.Budget, rep.Mode, rep.TakeLog,
		rep.Size, rep.Weight, rep.LatticeNodes, rep.Leaves,
		rep.AverageError, rep.WorstError, rep.ElapsedMS,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO representatives (run_id, pos, name, value, leaves, share)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() { _ = stmt.Close() }()
	for i, r := range rep.Representatives {
		if _, err := stmt.ExecContext(ctx, id, i, r.Name, r.Value, r.Leaves, r.Share); err != nil {
			return "", fmt.Errorf("insert representative %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
// Representatives are not loaded.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, created, hierarchies, values_source, budget, mode, take_log,
		size, weight, lattice_nodes, leaves, average_error, worst_error, elapsed_ms
		FROM runs ORDER BY created DESC, id`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Get returns one run with its representatives.
func (l *Ledger) Get(ctx context.Context, id string) (Run, error) {
	row := l.db.QueryRowContext(ctx, `SELECT id, created, hierarchies, values_source, budget, mode, take_log,
		size, weight, lattice_nodes, leaves, average_error, worst_error, elapsed_ms
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	r.Report.Representatives, err = l.Representatives(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

// Representatives returns the chosen nodes of one run in summary order.
func (l *Ledger) Representatives(ctx context.Context, runID string) ([]api.Representative, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT name, value, leaves, share FROM representatives WHERE run_id = ? ORDER BY pos`, runID)
	if err != nil {
		return nil, fmt.Errorf("query representatives: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var reps []api.Representative
	for rows.Next() {
		var r api.Representative
		if err := rows.Scan(&r.Name, &r.Value, &r.Leaves, &r.Share); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		reps = append(reps, r)
	}
	return reps, rows.Err()
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r       Run
		created int64
	)
	err := s.Scan(&r.ID, &created, &r.Hierarchies, &r.Values,
		&r.Report.Budget, &r.Report.Mode, &r.Report.TakeLog,
		&r.Report.Size, &r.Report.Weight, &r.Report.LatticeNodes, &r.Report.Leaves,
		&r.Report.AverageError, &r.Report.WorstError, &r.Report.ElapsedMS)
	if err != nil {
		return Run{}, err
	}
	r.Created = time.Unix(0, created)
	r.Report.RunID = r.ID
	return r, nil
}
