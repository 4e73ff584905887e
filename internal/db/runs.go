package db

import (
	"context"
	"fmt"
	"time"
)

// Run is one recorded auto-processing invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Captured   int
	Replied    int
	Resolved   int
	Scheduled  int
	Failures   int
	Error      string
}

type runRow struct {
	ID         string `db:"id"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	Captured   int    `db:"captured"`
	Replied    int    `db:"replied"`
	Resolved   int    `db:"resolved"`
	Scheduled  int    `db:"scheduled"`
	Failures   int    `db:"failures"`
	Error      string `db:"error"`
}

// RecordRun inserts a finished run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at,
			captured, replied, resolved, scheduled, failures, error
		) VALUES (
			:id, :started_at, :finished_at,
			:captured, :replied, :resolved, :scheduled, :failures, :error
		)`,
		runRow{
			ID:         r.ID,
			StartedAt:  r.StartedAt.UnixMilli(),
			FinishedAt: r.FinishedAt.UnixMilli(),
			Captured:   r.Captured,
			Replied:    r.Replied,
			Resolved:   r.Resolved,
			Scheduled:  r.Scheduled,
			Failures:   r.Failures,
			Error:      r.Error,
		},
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, started_at, finished_at, captured, replied, resolved, scheduled, failures, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, Run{
			ID:         r.ID,
			StartedAt:  time.UnixMilli(r.StartedAt).UTC(),
			FinishedAt: time.UnixMilli(r.FinishedAt).UTC(),
			Captured:   r.Captured,
			Replied:    r.Replied,
			Resolved:   r.Resolved,
			Scheduled:  r.Scheduled,
			Failures:   r.Failures,
			Error:      r.Error,
		})
	}
	return runs, nil
}
