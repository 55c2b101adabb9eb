package sqlite

import (
	"context"
	"fmt"

	"github.com/extrisk/extrisk/internal/types"
)

// AppendResult appends one classification result to the persisted log.
// The log is append-only; replacement of older rows for the same extension
// happens in the ledger's in-memory index, not here.
func (s *SQLiteStorage) AppendResult(ctx context.Context, r *types.ScanResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_results (extension_id, display_name, risk_label, risk)
		VALUES (?, ?, ?, ?)
	`, r.ExtensionID, r.DisplayName, r.RiskLabel, r.Risk)
	if err != nil {
		return fmt.Errorf("failed to append result for %s: %w", r.ExtensionID, err)
	}
	return nil
}

// ListResults returns every logged result in insertion order.
func (s *SQLiteStorage) ListResults(ctx context.Context) ([]*types.ScanResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT extension_id, display_name, risk_label, risk
		FROM scan_results ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*types.ScanResult
	for rows.Next() {
		r := &types.ScanResult{}
		if err := rows.Scan(&r.ExtensionID, &r.DisplayName, &r.RiskLabel, &r.Risk); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate result rows: %w", err)
	}
	return results, nil
}

// ClearResults discards the persisted result log.
func (s *SQLiteStorage) ClearResults(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM scan_results"); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	return nil
}
