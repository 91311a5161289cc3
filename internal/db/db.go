// Package db provides PostgreSQL storage for scanned assets and their marketplace matches.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = errors.New("record not found")

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the tables and indexes if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Schema returns the DDL applied by Migrate.
func Schema() string {
	return schemaSQL
}

// CreateScanRun records the start of a scan and returns its ID
func (db *DB) CreateScanRun(ctx context.Context, locationID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO scan_runs (location_id, status)
		 VALUES ($1, $2)
		 RETURNING id`,
		locationID, ScanRunRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create scan run for %s: %w", locationID, err)
	}
	return id, nil
}

// CompleteScanRun stores the final status and counters of a scan
func (db *DB) CompleteScanRun(ctx context.Context, runID uuid.UUID, status string, processed, total, failures int) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE scan_runs
		 SET status = $1, processed = $2, total = $3, failures = $4, completed_at = NOW()
		 WHERE id = $5`,
		status, processed, total, failures, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete scan run %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to complete scan run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetScanRun retrieves a scan run by ID
func (db *DB) GetScanRun(ctx context.Context, runID uuid.UUID) (*ScanRun, error) {
	var run ScanRun
	err := db.pool.QueryRow(ctx,
		`SELECT id, location_id, status, processed, total, failures, started_at, completed_at
		 FROM scan_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.LocationID, &run.Status, &run.Processed, &run.Total, &run.Failures, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan run: %w", err)
	}
	return &run, nil
}

// ListScanRuns retrieves the most recent scans of a location
func (db *DB) ListScanRuns(ctx context.Context, locationID string, limit int) ([]ScanRun, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, location_id, status, processed, total, failures, started_at, completed_at
		 FROM scan_runs WHERE location_id = $1 ORDER BY started_at DESC LIMIT $2`,
		locationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var run ScanRun
		if err := rows.Scan(&run.ID, &run.LocationID, &run.Status, &run.Processed, &run.Total, &run.Failures, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
