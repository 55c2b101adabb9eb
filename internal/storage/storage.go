package storage

import (
	"context"
	"strings"

	"github.com/extrisk/extrisk/internal/types"
)

// Storage defines the interface for scan persistence backends.
//
// Three independent areas live behind it: the scan-state key/value store
// (interval gating, per-extension scanned versions, alert suppression), the
// append-only result log that backs the ledger, and the run history. No
// multi-key atomicity is required; the scanner writes keys one at a time
// from a single sequential loop.
type Storage interface {
	// Scan state (key/value)
	GetState(ctx context.Context, key, def string) (string, error)
	SetState(ctx context.Context, key, value string) error

	// Result log. ListResults returns rows in insertion order; the ledger
	// rebuilds its index from that order at startup.
	AppendResult(ctx context.Context, r *types.ScanResult) error
	ListResults(ctx context.Context) ([]*types.ScanResult, error)
	ClearResults(ctx context.Context) error

	// Run history
	RecordRun(ctx context.Context, run *types.ScanRun) error
	FinishRun(ctx context.Context, run *types.ScanRun) error
	RecentRuns(ctx context.Context, limit int) ([]*types.ScanRun, error)

	// Lifecycle
	Close() error
}

// State keys written by the scanner. Per-extension keys are derived so that
// a crash mid-run loses at most the in-flight extension.
const KeyLastScan = "last-scan-timestamp"

// ScannedKey is the state key holding the last successfully classified
// version of an extension.
func ScannedKey(extensionID string) string { return "scanned-" + extensionID }

// AlertedKey is the state key marking that the one-time high-risk alert for
// an extension has already been shown. Never cleared.
func AlertedKey(extensionID string) string { return "alerted-" + extensionID }

// AlertedYes is the value stored under an alerted key.
const AlertedYes = "yes"

// IsPostgresDSN reports whether database names a PostgreSQL DSN rather than
// a SQLite file path.
func IsPostgresDSN(database string) bool {
	return strings.HasPrefix(database, "postgres://") ||
		strings.HasPrefix(database, "postgresql://")
}
