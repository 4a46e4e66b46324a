// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the append-only history of completed research
// reports in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-agent/pkg/types"
)

// ErrNotFound is returned by Get for an unknown report ID.
var ErrNotFound = errors.New("report not found")

// Store manages the report history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultConfig().Store.Path
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
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
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			report TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append records one completed report. A missing ID is generated and a zero
// timestamp is set to now. Timestamps are stored as RFC 3339 UTC with a
// fixed-width fraction so that text order matches time order.
func (s *Store) Append(ctx context.Context, r types.StoredReport) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, query, report, timestamp) VALUES (?, ?, ?, ?)`,
		r.ID, r.Query, r.Report, formatTime(r.Timestamp))
	if err != nil {
		return fmt.Errorf("inserting report %s: %w", r.ID, err)
	}
	return nil
}

// List returns reports newest first. A limit of zero or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]types.StoredReport, error) {
	q := `SELECT id, query, report, timestamp FROM reports ORDER BY timestamp DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	reports := []types.StoredReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return reports, nil
}

// Get returns one report by ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (types.StoredReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, report, timestamp FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StoredReport{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (types.StoredReport, error) {
	var r types.StoredReport
	var ts string
	if err := sc.Scan(&r.ID, &r.Query, &r.Report, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning report: %w", err)
	}
	t, err := time.Parse(timeLayout, ts)
	if err != nil {
		return r, fmt.Errorf("parsing timestamp of %s: %w", r.ID, err)
	}
	r.Timestamp = t
	return r, nil
}

// timeLayout is RFC3339Nano with trailing zeros kept.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
