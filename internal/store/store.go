// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists search runs and per-neuron download outcomes in a
// local SQLite database so repeated runs over the same archive can be
// inspected and resumed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kpeez/neuromorphopy/pkg/types"
)

const dbFile = "neuromorphopy.db"

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Dir/neuromorphopy.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filter TEXT NOT NULL,
			total INTEGER NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS neurons (
			neuron_name TEXT NOT NULL,
			search_id INTEGER NOT NULL REFERENCES searches(id),
			metadata TEXT,
			status TEXT,
			reason TEXT,
			finished_at TEXT,
			PRIMARY KEY (neuron_name, search_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_neurons_search_id ON neurons(search_id)`,
		`CREATE INDEX IF NOT EXISTS idx_neurons_status ON neurons(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginSearch records a search run and its matched records, returning the
// run's id for later outcome updates.
func (s *Store) BeginSearch(ctx context.Context, filter string, neurons []types.NeuronRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO searches (filter, total, started_at) VALUES (?, ?, ?)`,
		filter, len(neurons), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting search: %w", err)
	}
	searchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading search id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO neurons (neuron_name, search_id, metadata) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing neuron insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range neurons {
		metadata, err := json.Marshal(n)
		if err != nil {
			return 0, fmt.Errorf("encoding metadata for %s: %w", n.Name(), err)
		}
		if _, err := stmt.ExecContext(ctx, n.Name(), searchID, string(metadata)); err != nil {
			return 0, fmt.Errorf("inserting neuron %s: %w", n.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing search: %w", err)
	}
	return searchID, nil
}

// RecordOutcome stores the terminal download state of one neuron in a run.
func (s *Store) RecordOutcome(ctx context.Context, searchID int64, neuron string, status types.DownloadStatus, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE neurons SET status = ?, reason = ?, finished_at = ? WHERE neuron_name = ? AND search_id = ?`,
		string(status), reason, time.Now().UTC().Format(time.RFC3339), neuron, searchID)
	if err != nil {
		return fmt.Errorf("recording outcome for %s: %w", neuron, err)
	}
	return nil
}

// RunSummary aggregates the outcomes of one search run.
type RunSummary struct {
	Filter  string
	Total   int
	Written int
	Skipped int
	Failed  int
	Pending int
}

// Summarize returns the outcome tallies for a search run.
func (s *Store) Summarize(ctx context.Context, searchID int64) (RunSummary, error) {
	var summary RunSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT filter, total FROM searches WHERE id = ?`, searchID,
	).Scan(&summary.Filter, &summary.Total)
	if err != nil {
		return RunSummary{}, fmt.Errorf("reading search %d: %w", searchID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(status, ''), COUNT(*) FROM neurons WHERE search_id = ? GROUP BY status`,
		searchID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("reading outcomes for search %d: %w", searchID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return RunSummary{}, fmt.Errorf("scanning outcome row: %w", err)
		}
		switch types.DownloadStatus(status) {
		case types.StatusWritten:
			summary.Written = count
		case types.StatusSkipped:
			summary.Skipped = count
		case types.StatusFailed:
			summary.Failed = count
		default:
			summary.Pending = count
		}
	}
	return summary, rows.Err()
}

// Neurons returns the stored metadata records for a search run in insertion
// order.
func (s *Store) Neurons(ctx context.Context, searchID int64) ([]types.NeuronRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT metadata FROM neurons WHERE search_id = ? ORDER BY rowid`, searchID)
	if err != nil {
		return nil, fmt.Errorf("reading neurons for search %d: %w", searchID, err)
	}
	defer rows.Close()

	var neurons []types.NeuronRecord
	for rows.Next() {
		var metadata string
		if err := rows.Scan(&metadata); err != nil {
			return nil, fmt.Errorf("scanning neuron row: %w", err)
		}
		var record types.NeuronRecord
		if err := json.Unmarshal([]byte(metadata), &record); err != nil {
			return nil, fmt.Errorf("decoding stored metadata: %w", err)
		}
		neurons = append(neurons, record)
	}
	return neurons, rows.Err()
}
