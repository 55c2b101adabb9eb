package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/extrisk/extrisk/internal/types"
)

// RecordRun inserts the initial row for an executed scan run.
func (s *PostgresStorage) RecordRun(ctx context.Context, run *types.ScanRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_runs (id, status, manual, started_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, string(run.Status), run.Manual, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun updates the run row with its terminal status and counters.
func (s *PostgresStorage) FinishRun(ctx context.Context, run *types.ScanRun) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scan_runs
		SET status = $1, finished_at = $2, scanned = $3, skipped = $4, errors = $5, found_high = $6
		WHERE id = $7
	`, string(run.Status), run.FinishedAt, run.Scanned, run.Skipped, run.Errors,
		run.FoundHigh, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recently started first.
func (s *PostgresStorage) RecentRuns(ctx context.Context, limit int) ([]*types.ScanRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, manual, started_at, finished_at, scanned, skipped, errors, found_high
		FROM scan_runs ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.ScanRun
	for rows.Next() {
		run := &types.ScanRun{}
		var status string
		var finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &status, &run.Manual, &run.StartedAt, &finishedAt,
			&run.Scanned, &run.Skipped, &run.Errors, &run.FoundHigh); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Status = types.RunStatus(status)
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
