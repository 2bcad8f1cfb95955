// Package journal persists reconciliation runs and their per-rule
// actions to a local SQLite database. It is the audit trail behind
// `rime history`.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"grimm.is/rime/internal/reconcile"
)

// ErrNoRun is returned when a run ID does not exist.
var ErrNoRun = errors.New("run not found")

// Run is one recorded reconciliation run.
type Run struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Snapshot  string
	Version   string
	DryRun    bool
	Fast      bool
	Disabled  int
	Ignored   int
	Updated   int
	Unchanged int
	Created   int
	Rejected  int
	Failed    int
}

// Summary renders the run's tallies in the same shape the sync command
// prints.
func (r Run) Summary() string {
	s := fmt.Sprintf("%d updated, %d created, %d disabled, %d unchanged, %d ignored, %d rejected, %d failed",
		r.Updated, r.Created, r.Disabled, r.Unchanged, r.Ignored, r.Rejected, r.Failed)
	if r.DryRun {
		s += " (dry run)"
	}
	return s
}

// Action is one stored engine decision.
type Action struct {
	Seq         int
	Phase       int
	Kind        string
	RuleID      string
	DisplayName string
	Attr        string
	Before      string
	After       string
	Note        string
	Error       string
}

// Journal provides persistent storage for reconciliation runs.
type Journal struct {
	mu            sync.RWMutex
	db            *sql.DB
	retentionDays int
}

// Open opens (creating if necessary) the journal at the given path.
func Open(dbPath string, retentionDays int) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started DATETIME NOT NULL,
			finished DATETIME NOT NULL,
			snapshot TEXT NOT NULL,
			version TEXT NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			fast INTEGER NOT NULL DEFAULT 0,
			disabled INTEGER NOT NULL DEFAULT 0,
			ignored INTEGER NOT NULL DEFAULT 0,
			updated INTEGER NOT NULL DEFAULT 0,
			unchanged INTEGER NOT NULL DEFAULT 0,
			created INTEGER NOT NULL DEFAULT 0,
			rejected INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
		CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			phase INTEGER NOT NULL,
			kind TEXT NOT NULL,
			rule_id TEXT,
			display_name TEXT,
			attr TEXT,
			before_value TEXT,
			after_value TEXT,
			note TEXT,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_actions_run ON actions(run_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal tables: %w", err)
	}

	if retentionDays <= 0 {
		retentionDays = 90
	}

	return &Journal{db: db, retentionDays: retentionDays}, nil
}

// Record persists a finished run and returns its assigned ID.
func (j *Journal) Record(snapshotPath, version string, rep *reconcile.Report) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := uuid.NewString()

	tx, err := j.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin journal write: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO runs (id, started, finished, snapshot, version, dry_run, fast,
			disabled, ignored, updated, unchanged, created, rejected, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, rep.Started, rep.Finished, snapshotPath, version, rep.DryRun, rep.Fast,
		rep.Disabled, rep.Ignored, rep.Updated, rep.Unchanged, rep.Created, rep.Rejected, rep.Failed)
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO actions (run_id, seq, phase, kind, rule_id, display_name, attr, before_value, after_value, note, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("prepare action insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range rep.Actions {
		errText := ""
		if a.Err != nil {
			errText = a.Err.Error()
		}
		_, err := stmt.Exec(id, i, a.Phase, string(a.Kind), a.RuleID, a.DisplayName,
			string(a.Attr), a.Before, a.After, a.Note, errText)
		if err != nil {
			tx.Rollback()
			return "", fmt.Errorf("insert action: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit journal write: %w", err)
	}
	return id, nil
}

// Runs returns the most recent runs, newest first.
func (j *Journal) Runs(limit int) ([]Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	query := `SELECT id, started, finished, snapshot, version, dry_run, fast,
		disabled, ignored, updated, unchanged, created, rejected, failed
		FROM runs ORDER BY started DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := j.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns one run by ID.
func (j *Journal) Get(id string) (Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	row := j.db.QueryRow(`SELECT id, started, finished, snapshot, version, dry_run, fast,
		disabled, ignored, updated, unchanged, created, rejected, failed
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNoRun, id)
	}
	return r, err
}

// Actions returns the actions of one run in execution order.
func (j *Journal) Actions(runID string) ([]Action, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(`SELECT seq, phase, kind, rule_id, display_name, attr,
		before_value, after_value, note, error
		FROM actions WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		err := rows.Scan(&a.Seq, &a.Phase, &a.Kind, &a.RuleID, &a.DisplayName,
			&a.Attr, &a.Before, &a.After, &a.Note, &a.Error)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Prune removes runs older than the retention period, actions included.
func (j *Journal) Prune() (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)

	tx, err := j.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM actions WHERE run_id IN (SELECT id FROM runs WHERE started < ?)`, cutoff); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prune actions: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM runs WHERE started < ?`, cutoff)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the total number of recorded runs.
func (j *Journal) Count() (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var count int64
	err := j.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	err := s.Scan(&r.ID, &r.Started, &r.Finished, &r.Snapshot, &r.Version, &r.DryRun, &r.Fast,
		&r.Disabled, &r.Ignored, &r.Updated, &r.Unchanged, &r.Created, &r.Rejected, &r.Failed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
