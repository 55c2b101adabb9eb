package sqlite

const schema = `
-- Scan state table (key/value)
-- Holds last-scan-timestamp, scanned-<id> version markers and alerted-<id>
-- suppression flags. One row per key, written incrementally during a run.
CREATE TABLE IF NOT EXISTS scan_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Result log table (append-only)
-- Every ledger write appends a row; the in-memory index is rebuilt from
-- this log in seq order at startup. Cleared as a whole on ledger reset.
CREATE TABLE IF NOT EXISTS scan_results (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    extension_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    risk_label TEXT NOT NULL,
    risk REAL NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scan_results_extension ON scan_results(extension_id);

-- Run history table (audit trail)
CREATE TABLE IF NOT EXISTS scan_runs (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    manual INTEGER NOT NULL DEFAULT 0,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    scanned INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    errors INTEGER NOT NULL DEFAULT 0,
    found_high INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_started_at ON scan_runs(started_at);
`
