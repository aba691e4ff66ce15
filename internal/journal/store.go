// Package journal persists provisioning runs and their step outcomes so
// repeat runs on the same host can be audited (`provision history`).
package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	StatusRunning   = "running"
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusInterrupt = "interrupted"
)

type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	GPUMemMiB  int
	Status     string
}

type StepRecord struct {
	RunID    string
	Seq      int
	Step     string
	Status   string
	Duration time.Duration
	Message  string
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  started_at DATETIME NOT NULL,
  finished_at DATETIME,
  gpu_mem_mib INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'running'
);

CREATE TABLE IF NOT EXISTS run_steps (
  run_id TEXT NOT NULL,
  seq INTEGER NOT NULL,
  step TEXT NOT NULL,
  status TEXT NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  message TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (run_id, seq)
);
`)
	return err
}

// BeginRun inserts a new running record and returns its id.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, started_at, status) VALUES (?, ?, ?);",
		id, time.Now().UTC(), StatusRunning)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetGPUMemory(ctx context.Context, runID string, mib int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET gpu_mem_mib=? WHERE run_id=?;", mib, runID)
	return err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at=?, status=? WHERE run_id=?;",
		time.Now().UTC(), status, runID)
	return err
}

func (s *Store) RecordStep(ctx context.Context, rec StepRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO run_steps (run_id, seq, step, status, duration_ms, message)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, seq) DO UPDATE SET
  step=excluded.step,
  status=excluded.status,
  duration_ms=excluded.duration_ms,
  message=excluded.message;
`, rec.RunID, rec.Seq, rec.Step, rec.Status, rec.Duration.Milliseconds(), rec.Message)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, started_at, finished_at, gpu_mem_mib, status
FROM runs ORDER BY started_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.GPUMemMiB, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Steps returns the step records of one run in sequence order.
func (s *Store) Steps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, seq, step, status, duration_ms, message
FROM run_steps WHERE run_id=? ORDER BY seq ASC;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		var ms int64
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Step, &rec.Status, &ms, &rec.Message); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
