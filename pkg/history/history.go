// Package history keeps a SQLite log of validation runs and their findings,
// so results can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/result"
)

// Store is a history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Run is one recorded validation run.
type Run struct {
	ID           string        `json:"id"`
	Root         string        `json:"root"`
	Standard     string        `json:"standard"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	ErrorCount   int           `json:"error_count"`
	WarningCount int           `json:"warning_count"`
	Success      bool          `json:"success"`
	Finished     bool          `json:"finished"`
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		standard TEXT NOT NULL,
		started_at INTEGER NOT NULL, -- unix nanoseconds
		duration_ms INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		success INTEGER NOT NULL,
		finished INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_root_started ON runs(root, started_at);

	CREATE TABLE IF NOT EXISTS findings (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		level TEXT NOT NULL,
		severity TEXT NOT NULL,
		response_time INTEGER NOT NULL,
		file TEXT,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores rep and all its findings in one transaction.
func (s *Store) Record(ctx context.Context, rep *manager.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, root, standard, started_at, duration_ms, error_count, warning_count, success, finished)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.Root, rep.StandardVersion, rep.StartedAt.UnixNano(),
		rep.Duration.Std().Milliseconds(), rep.ErrorCount, rep.WarningCount,
		boolInt(rep.Success()), boolInt(rep.Finished))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rep.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (run_id, seq, level, severity, response_time, file, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare findings: %w", err)
	}
	defer stmt.Close()
	for i, r := range rep.Results {
		if _, err := stmt.ExecContext(ctx, rep.RunID, i, string(r.Level), r.Severity.String(), r.ResponseTime, r.File, r.Message); err != nil {
			return fmt.Errorf("insert finding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A non-empty root restricts
// the result to runs over that directory.
func (s *Store) Recent(ctx context.Context, root string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, root, standard, started_at, duration_ms, error_count, warning_count, success, finished FROM runs`
	args := []any{}
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started           int64
			durationMs        int64
			success, finished int
		)
		if err := rows.Scan(&r.ID, &r.Root, &r.Standard, &started, &durationMs,
			&r.ErrorCount, &r.WarningCount, &success, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Success, r.Finished = success != 0, finished != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Findings returns the recorded findings of run id in recorded order.
func (s *Store) Findings(ctx context.Context, id string) ([]result.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT level, severity, response_time, file, message
		FROM findings WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var out []result.Result
	for rows.Next() {
		var (
			r        result.Result
			level    string
			severity string
			file     sql.NullString
		)
		if err := rows.Scan(&level, &severity, &r.ResponseTime, &file, &r.Message); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		r.Level = result.Level(level)
		if r.Severity, err = result.ParseSeverity(severity); err != nil {
			return nil, fmt.Errorf("run %s: %w", id, err)
		}
		r.File = file.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs, with their findings.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return res.RowsAffected()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
