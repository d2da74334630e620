// Package journal persists run history in SQLite. Every batch run gets a
// row in the runs table; each file processed during the run gets a row in
// run_items. The history and status commands read from here.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; old databases must be deleted rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version of the tool.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeRunning     Outcome = "running"
	OutcomeCompleted   Outcome = "completed"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// ItemStatus records how a single file fared.
type ItemStatus string

const (
	ItemTranscoded ItemStatus = "transcoded"
	ItemFailed     ItemStatus = "failed"
)

// Run is one batch invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	DryRun     bool
	Outcome    Outcome
	Discovered int
	Transcoded int
	Skipped    int
	Failed     int
}

// Item is one file processed during a run.
type Item struct {
	ID           int64
	RunID        string
	SourcePath   string
	DestPath     string
	Status       ItemStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// Counts is the final tally recorded when a run finishes.
type Counts struct {
	Discovered int
	Transcoded int
	Skipped    int
	Failed     int
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginRun inserts a new run in the running state and returns it.
func (s *Store) BeginRun(ctx context.Context, dryRun bool) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
		Outcome:   OutcomeRunning,
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, started_at, dry_run, outcome) VALUES (?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.Format(time.RFC3339Nano),
		boolToInt(run.DryRun),
		run.Outcome,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordItem appends one processed file to the run. Safe for concurrent use
// from worker goroutines.
func (s *Store) RecordItem(ctx context.Context, runID, source, dest string, status ItemStatus, errMessage string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_items (run_id, source_path, dest_path, status, error_message, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		runID,
		source,
		dest,
		status,
		nullableString(errMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run item: %w", err)
	}
	return nil
}

// FinishRun records the terminal outcome and final counters for a run.
func (s *Store) FinishRun(ctx context.Context, runID string, outcome Outcome, counts Counts) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET finished_at = ?, outcome = ?, discovered = ?, transcoded = ?, skipped = ?, failed = ?
         WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		outcome,
		counts.Discovered,
		counts.Transcoded,
		counts.Skipped,
		counts.Failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// RecentRuns returns the newest runs first, up to limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastRun returns the most recently started run, or nil when the journal
// is empty.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return run, nil
}

// FailedItems returns the failed files of a run ordered by insertion.
func (s *Store) FailedItems(ctx context.Context, runID string) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, source_path, dest_path, status, error_message, created_at
         FROM run_items WHERE run_id = ? AND status = ? ORDER BY id`,
		runID,
		ItemFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("query failed items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const runColumns = "id, started_at, finished_at, dry_run, outcome, discovered, transcoded, skipped, failed"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
		dryRun      int
		outcome     string
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finishedRaw,
		&dryRun,
		&outcome,
		&run.Discovered,
		&run.Transcoded,
		&run.Skipped,
		&run.Failed,
	); err != nil {
		return nil, err
	}
	run.DryRun = dryRun != 0
	run.Outcome = Outcome(outcome)
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item       Item
		errMessage sql.NullString
		status     string
		createdRaw string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.RunID,
		&item.SourcePath,
		&item.DestPath,
		&status,
		&errMessage,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	item.Status = ItemStatus(status)
	item.ErrorMessage = errMessage.String
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		item.CreatedAt = created
	}
	return &item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
