// Package history keeps a SQLite record of generation runs and the documents
// each run produced.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Outcome values recorded for a run.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
)

// Run is one generate or check invocation.
type Run struct {
	ID        string
	Command   string // generate, check, watch
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	Project   string
	Root      string
	Commit    string
	Files     int
	TestCases int
	DryRun    bool
	Error     string
	Documents []Document
}

// Document is the per-document result of a run.
type Document struct {
	Kind        string
	Path        string
	Status      string
	Fingerprint string
	Bytes       int
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at path. Use ":memory:" for an
// in-memory database. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		project TEXT NOT NULL,
		root TEXT NOT NULL,
		git_commit TEXT,
		files INTEGER NOT NULL DEFAULT 0,
		test_cases INTEGER NOT NULL DEFAULT 0,
		dry_run INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE TABLE IF NOT EXISTS documents (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		status TEXT NOT NULL,
		fingerprint TEXT,
		bytes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, kind)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a run and its documents. An empty ID is filled with a new UUID.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at, duration_ms, outcome, project, root, git_commit, files, test_cases, dry_run, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.StartedAt.UnixNano(), run.Duration.Milliseconds(), run.Outcome,
		run.Project, run.Root, run.Commit, run.Files, run.TestCases, run.DryRun, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, d := range run.Documents {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO documents (run_id, kind, path, status, fingerprint, bytes) VALUES (?, ?, ?, ?, ?, ?)",
			run.ID, d.Kind, d.Path, d.Status, d.Fingerprint, d.Bytes,
		)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", d.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = "id, command, started_at, duration_ms, outcome, project, root, git_commit, files, test_cases, dry_run, error"

// Recent returns up to limit runs, newest first, with their documents.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	for i := range runs {
		docs, err := s.documents(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Documents = docs
	}
	return runs, nil
}

// Get returns the run with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}

	run := runs[0]
	if run.Documents, err = s.documents(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, path, status, fingerprint, bytes FROM documents WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var fp sql.NullString
		if err := rows.Scan(&d.Kind, &d.Path, &d.Status, &fp, &d.Bytes); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Fingerprint = fp.String
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, durationMS int64
		var commit, errText sql.NullString
		err := rows.Scan(&r.ID, &r.Command, &startedAt, &durationMS, &r.Outcome, &r.Project, &r.Root,
			&commit, &r.Files, &r.TestCases, &r.DryRun, &errText)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Commit = commit.String
		r.Error = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
