// Package store is the optional Postgres audit log: one row per processed
// item, so operators can prove what was anonymized, when, and with how many
// detections. The pipeline runs fully without it.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type Store struct {
	conn *pgx.Conn
}

// RunRecord is one processed input item.
type RunRecord struct {
	ID          int64
	Input       string
	Output      string
	Frames      int
	Detections  int
	Status      string // "done", "skipped", or "failed"
	Detail      string // error text for skipped/failed items
	CompletedAt time.Time
}

func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Auto-migration keeps the tool zero-setup.
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS anonymize_runs (
			id BIGSERIAL PRIMARY KEY,
			input TEXT NOT NULL,
			output TEXT,
			frames INT NOT NULL DEFAULT 0,
			detections INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			completed_at TIMESTAMPTZ DEFAULT NOW()
		);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// RecordRun persists the outcome of one item.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO anonymize_runs (input, output, frames, detections, status, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.Input, rec.Output, rec.Frames, rec.Detections, rec.Status, rec.Detail)
	return err
}

// RecentRuns returns the newest runs first, capped at limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, input, COALESCE(output, ''), frames, detections, status, detail, completed_at
		FROM anonymize_runs
		ORDER BY completed_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Input, &r.Output, &r.Frames, &r.Detections, &r.Status, &r.Detail, &r.CompletedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// StatusOf maps an item outcome onto the status column.
func StatusOf(skipped bool, err error) (string, string) {
	switch {
	case err == nil:
		return "done", ""
	case skipped:
		return "skipped", err.Error()
	default:
		return "failed", err.Error()
	}
}
