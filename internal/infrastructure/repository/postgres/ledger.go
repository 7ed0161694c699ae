// Package postgres persists the processed-file ledger. The in-memory dedup
// set guarantees at-most-once within a run; the ledger extends that across
// restarts when a DSN is configured.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type ProcessedLedger struct {
	db *sql.DB
}

func NewProcessedLedger(db *sql.DB) *ProcessedLedger {
	return &ProcessedLedger{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (l *ProcessedLedger) EnsureSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent pipeline startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processed_files (
	path TEXT PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processed_files_processed_at ON processed_files(processed_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (l *ProcessedLedger) Seen(ctx context.Context, path string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM processed_files WHERE path = $1)`

	var seen bool
	if err := l.db.QueryRowContext(ctx, query, path).Scan(&seen); err != nil {
		return false, fmt.Errorf("query processed ledger: %w", err)
	}
	return seen, nil
}

func (l *ProcessedLedger) Record(ctx context.Context, path string) error {
	const query = `
INSERT INTO processed_files (path, processed_at)
VALUES ($1, $2)
ON CONFLICT (path) DO NOTHING`

	if _, err := l.db.ExecContext(ctx, query, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("record processed path: %w", err)
	}
	return nil
}
