// Package store archives completed solve runs in SQLite. The archive is a
// daemon-side concern: the solver core stays stateless, and nothing in the
// analysis path depends on this package.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// Run is one archived solve record.
type Run struct {
	ID          int64     `json:"id"`
	Method      string    `json:"method"`
	Strategy    string    `json:"strategy"`
	Status      string    `json:"status"`
	Objective   float64   `json:"objective"`
	GrowthRate  float64   `json:"growth_rate"`
	Phenotype   string    `json:"phenotype"`
	ModelID     string    `json:"model_id"`
	Reactions   int       `json:"reactions"`
	Metabolites int       `json:"metabolites"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewStore opens the SQLite database, enables WAL mode, and applies the
// schema.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		method TEXT NOT NULL,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL,
		objective REAL NOT NULL,
		growth_rate REAL NOT NULL,
		phenotype TEXT NOT NULL,
		model_id TEXT NOT NULL,
		reactions INTEGER NOT NULL,
		metabolites INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_method ON runs(method);
	`
	_, err := s.db.Exec(query)
	return err
}

// RecordRun appends one run to the archive and returns its id.
func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (method, strategy, status, objective, growth_rate, phenotype,
			model_id, reactions, metabolites, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Method, run.Strategy, run.Status, run.Objective, run.GrowthRate,
		run.Phenotype, run.ModelID, run.Reactions, run.Metabolites, run.DurationMS,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

// RecentRuns returns the newest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, method, strategy, status, objective, growth_rate, phenotype,
			model_id, reactions, metabolites, duration_ms, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Method, &r.Strategy, &r.Status, &r.Objective,
			&r.GrowthRate, &r.Phenotype, &r.ModelID, &r.Reactions, &r.Metabolites,
			&r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PruneBefore deletes archived runs older than the cutoff and returns the
// number removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

// CountByStatus aggregates the archive by solver status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
