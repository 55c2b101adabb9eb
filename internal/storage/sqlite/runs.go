package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/extrisk/extrisk/internal/types"
)

// RecordRun inserts the initial row for an executed scan run.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *types.ScanRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_runs (id, status, manual, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, string(run.Status), boolToInt(run.Manual), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun updates the run row with its terminal status and counters.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *types.ScanRun) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scan_runs
		SET status = ?, finished_at = ?, scanned = ?, skipped = ?, errors = ?, found_high = ?
		WHERE id = ?
	`, string(run.Status), run.FinishedAt, run.Scanned, run.Skipped, run.Errors,
		boolToInt(run.FoundHigh), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finish of run %s: %w", run.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recently started first.
func (s *SQLiteStorage) RecentRuns(ctx context.Context, limit int) ([]*types.ScanRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, manual, started_at, finished_at, scanned, skipped, errors, found_high
		FROM scan_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.ScanRun
	for rows.Next() {
		run := &types.ScanRun{}
		var status string
		var manual, foundHigh int
		var finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &status, &manual, &run.StartedAt, &finishedAt,
			&run.Scanned, &run.Skipped, &run.Errors, &foundHigh); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Status = types.RunStatus(status)
		run.Manual = manual != 0
		run.FoundHigh = foundHigh != 0
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run rows: %w", err)
	}
	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
