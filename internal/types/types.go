package types

import "time"

// Extension is one installed editor extension as reported by a provider.
// ID is the stable identity ("publisher.name"); Version changes over the
// extension's lifecycle outside of our control.
type Extension struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// ScanResult is one classification outcome for an extension. Records are
// keyed by ExtensionID in the ledger; DisplayName is a non-unique attribute
// (two extensions may legitimately share a display name).
type ScanResult struct {
	ExtensionID string  `json:"extension_id"`
	DisplayName string  `json:"display_name"`
	RiskLabel   string  `json:"risk_label"`
	Risk        float64 `json:"risk"`
}

// OrgContext carries the machine identity attached to classification
// requests when operating in org mode.
type OrgContext struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

// RunStatus is the terminal state of a scan run.
type RunStatus string

const (
	// RunStatusCompleted means the loop processed every eligible extension.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusCancelled means cancellation was observed before the loop finished.
	RunStatusCancelled RunStatus = "cancelled"
	// RunStatusRateLimited means the remote service returned 429 and the loop halted.
	RunStatusRateLimited RunStatus = "rate_limited"
	// RunStatusInvalidKey means the credential was rejected and the loop halted.
	RunStatusInvalidKey RunStatus = "invalid_key"
	// RunStatusSkipped means the run was gated (no credential, or the
	// configured interval has not elapsed) and nothing executed.
	RunStatusSkipped RunStatus = "skipped"
)

// RunOutcome summarizes one invocation of the scanner. Exactly one outcome
// is produced per invocation; it is derived from the terminal condition of
// the loop and never persisted as-is (run history keeps its own record).
type RunOutcome struct {
	RunID     string
	Status    RunStatus
	FoundHigh bool // at least one new extension crossed the high-risk threshold
	Scanned   int  // extensions successfully classified and recorded
	Skipped   int  // extensions skipped by the unchanged-version policy
	Errors    int  // per-extension transport or decode failures (non-fatal)
}

// ScanRun is the persisted record of one executed scan run. Gated no-op
// invocations are not recorded.
type ScanRun struct {
	ID         string
	Status     RunStatus
	Manual     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Scanned    int
	Skipped    int
	Errors     int
	FoundHigh  bool
}
