// Package scanner implements the scan orchestrator: the control loop that
// decides which installed extensions to classify, paces requests against
// the remote service, interprets its failure signals, and updates persisted
// state incrementally so a crash mid-run loses at most the in-flight
// extension.
package scanner

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/extrisk/extrisk/internal/extensions"
	"github.com/extrisk/extrisk/internal/ledger"
	"github.com/extrisk/extrisk/internal/notify"
	"github.com/extrisk/extrisk/internal/riskclient"
	"github.com/extrisk/extrisk/internal/storage"
	"github.com/extrisk/extrisk/internal/types"
)

const (
	// HighRiskThreshold is the risk score at or above which an extension
	// triggers the one-time high-risk alert.
	HighRiskThreshold = 7.0

	// requestSpacing is the courtesy delay between classification
	// requests. A fixed throttle, not an adaptive backoff.
	requestSpacing = 1500 * time.Millisecond

	// excludedNamespace marks platform-builtin extensions, which are
	// never scanned.
	excludedNamespace = "vscode."
)

// Classifier is the slice of the risk client the scanner depends on.
type Classifier interface {
	Classify(ctx context.Context, req riskclient.Request) riskclient.Verdict
}

// CredentialSource resolves the API credential for a run. An empty
// credential disables all network activity.
type CredentialSource interface {
	Get() (string, error)
}

// Config wires the scanner's collaborators. Store, Client, Ledger,
// Notifier, Provider and Credentials are required.
type Config struct {
	Store       storage.Storage
	Client      Classifier
	Ledger      *ledger.Ledger
	Notifier    notify.Notifier
	Provider    extensions.Provider
	Credentials CredentialSource

	// Org carries machine identity attached to requests in org mode;
	// nil otherwise.
	Org *types.OrgContext

	// ScanOnlyNewVersions skips extensions whose installed version was
	// already classified. Manual runs override it.
	ScanOnlyNewVersions bool
	// ScanEveryXHours gates scheduled runs; 0 disables gating. Manual
	// runs are never gated.
	ScanEveryXHours int

	// OnProgress, when set, is called once per processed extension with
	// (done, total).
	OnProgress func(done, total int)

	// RequestSpacing overrides the inter-request delay; 0 means the
	// default. Tests shrink it.
	RequestSpacing time.Duration

	// Clock overrides time.Now for interval-gating tests.
	Clock func() time.Time
}

// Scanner runs scans. A single Scanner must not have RunScan invoked
// concurrently; the caller holds a run-in-progress guard.
type Scanner struct {
	cfg     Config
	spacing time.Duration
	now     func() time.Time
}

// New validates the configuration and builds a scanner.
func New(cfg Config) (*Scanner, error) {
	if cfg.Store == nil || cfg.Client == nil || cfg.Ledger == nil ||
		cfg.Notifier == nil || cfg.Provider == nil || cfg.Credentials == nil {
		return nil, fmt.Errorf("scanner config is missing a required collaborator")
	}
	s := &Scanner{cfg: cfg, spacing: cfg.RequestSpacing, now: cfg.Clock}
	if s.spacing == 0 {
		s.spacing = requestSpacing
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// RunScan executes one scan run and returns its outcome. manual marks a
// user-initiated run: it bypasses interval gating and the unchanged-version
// skip policy.
//
// The returned error covers only local failures (storage, enumeration);
// every remote failure mode terminates in an outcome, never an error.
func (s *Scanner) RunScan(ctx context.Context, manual bool) (*types.RunOutcome, error) {
	apiKey, err := s.cfg.Credentials.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential: %w", err)
	}
	if apiKey == "" {
		// No credential means no network activity and no state changes.
		return &types.RunOutcome{Status: types.RunStatusSkipped}, nil
	}

	now := s.now()
	if !manual && s.cfg.ScanEveryXHours > 0 {
		gated, err := s.intervalGated(ctx, now)
		if err != nil {
			return nil, err
		}
		if gated {
			return &types.RunOutcome{Status: types.RunStatusSkipped}, nil
		}
	}

	// State writes survive cancellation: a run cancelled between items
	// keeps every result already written, so they are detached from the
	// cancelable context.
	writeCtx := context.WithoutCancel(ctx)

	// Stamp before any network call: a crash during the run still counts
	// as an attempted run for gating purposes.
	if err := s.cfg.Store.SetState(writeCtx, storage.KeyLastScan, strconv.FormatInt(now.Unix(), 10)); err != nil {
		return nil, fmt.Errorf("failed to stamp scan time: %w", err)
	}

	installed, err := s.cfg.Provider.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate extensions: %w", err)
	}
	eligible := make([]types.Extension, 0, len(installed))
	for _, ext := range installed {
		if strings.HasPrefix(ext.ID, excludedNamespace) {
			continue
		}
		eligible = append(eligible, ext)
	}

	run := &types.ScanRun{
		ID:        uuid.New().String(),
		Status:    types.RunStatusCompleted,
		Manual:    manual,
		StartedAt: now,
	}
	if err := s.cfg.Store.RecordRun(writeCtx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	// The displayed set is replaced by this run's findings as they
	// arrive; run history, not the ledger log, is the durable audit trail.
	if err := s.cfg.Ledger.Reset(writeCtx); err != nil {
		return nil, fmt.Errorf("failed to reset ledger: %w", err)
	}

	s.cfg.Notifier.Info("📡 Running scan on %d extensions...", len(eligible))

	outcome := &types.RunOutcome{RunID: run.ID, Status: types.RunStatusCompleted}
	limiter := rate.NewLimiter(rate.Every(s.spacing), 1)

loop:
	for i, ext := range eligible {
		// Cancellation is cooperative: polled here, once per extension.
		if ctx.Err() != nil {
			outcome.Status = types.RunStatusCancelled
			break
		}
		s.progress(i+1, len(eligible))

		if s.cfg.ScanOnlyNewVersions && !manual {
			lastVersion, err := s.cfg.Store.GetState(ctx, storage.ScannedKey(ext.ID), "")
			if err != nil {
				return nil, fmt.Errorf("failed to read scanned version for %s: %w", ext.ID, err)
			}
			if lastVersion == ext.Version {
				outcome.Skipped++
				continue
			}
		}

		// Pace attempted requests. Skipped extensions never reach here,
		// so they consume no token.
		if err := limiter.Wait(ctx); err != nil {
			outcome.Status = types.RunStatusCancelled
			break
		}

		verdict := s.cfg.Client.Classify(ctx, riskclient.Request{
			ExtensionID: ext.ID,
			Version:     ext.Version,
			APIKey:      apiKey,
			Org:         s.cfg.Org,
		})

		switch verdict.Kind {
		case riskclient.VerdictTransportError:
			// Per-extension failure: report it and move on.
			outcome.Errors++
			s.cfg.Notifier.Error("scan of %s failed: %v", ext.ID, verdict.Err)

		case riskclient.VerdictRateLimited:
			outcome.Status = types.RunStatusRateLimited
			s.cfg.Notifier.Info("📡 Rate limit reached; remaining extensions were not scanned this run.")
			break loop

		case riskclient.VerdictUnauthorized:
			outcome.Status = types.RunStatusInvalidKey
			break loop

		case riskclient.VerdictMalformed:
			// Undecodable body: skip state updates for this extension.
			outcome.Errors++
			fmt.Fprintf(os.Stderr, "malformed classification for %s: %v\n", ext.ID, verdict.Err)

		case riskclient.VerdictOK:
			if err := s.recordResult(writeCtx, ext, verdict.Report, outcome); err != nil {
				return nil, err
			}
			outcome.Scanned++
		}
	}

	finished := s.now()
	run.Status = outcome.Status
	run.FinishedAt = &finished
	run.Scanned = outcome.Scanned
	run.Skipped = outcome.Skipped
	run.Errors = outcome.Errors
	run.FoundHigh = outcome.FoundHigh
	if err := s.cfg.Store.FinishRun(writeCtx, run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to finish run record: %v\n", err)
	}

	s.summarize(outcome)
	return outcome, nil
}

// intervalGated reports whether a scheduled run should be suppressed
// because the configured interval has not yet elapsed.
func (s *Scanner) intervalGated(ctx context.Context, now time.Time) (bool, error) {
	last, err := s.cfg.Store.GetState(ctx, storage.KeyLastScan, "")
	if err != nil {
		return false, fmt.Errorf("failed to read last scan time: %w", err)
	}
	if last == "" {
		return false, nil
	}
	ts, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		// Unreadable stamp: scan rather than silently never scanning.
		return false, nil
	}
	interval := time.Duration(s.cfg.ScanEveryXHours) * time.Hour
	return now.Sub(time.Unix(ts, 0)) < interval, nil
}

// recordResult persists a successful classification: scanned-version state,
// the ledger entry, and the one-time high-risk alert.
func (s *Scanner) recordResult(ctx context.Context, ext types.Extension, report *riskclient.Report, outcome *types.RunOutcome) error {
	if err := s.cfg.Store.SetState(ctx, storage.ScannedKey(ext.ID), ext.Version); err != nil {
		return fmt.Errorf("failed to record scanned version for %s: %w", ext.ID, err)
	}
	if err := s.cfg.Ledger.Add(ctx, ext.ID, report.DisplayName, report.RiskLabel, report.Risk); err != nil {
		return fmt.Errorf("failed to record result for %s: %w", ext.ID, err)
	}

	if report.Risk < HighRiskThreshold {
		return nil
	}

	alerted, err := s.cfg.Store.GetState(ctx, storage.AlertedKey(ext.ID), "")
	if err != nil {
		return fmt.Errorf("failed to read alert state for %s: %w", ext.ID, err)
	}
	if alerted == storage.AlertedYes {
		// Already alerted once in this extension's lifetime.
		return nil
	}

	s.cfg.Notifier.Modal(
		fmt.Sprintf("High Risk Extension Found: %s", report.Title()),
		fmt.Sprintf("A high risk extension %q (%s) is installed on this machine.\n"+
			"Review its report before continuing to trust it.\n"+
			"This alert will not be shown again for this extension.",
			report.Title(), ext.ID),
	)
	if err := s.cfg.Store.SetState(ctx, storage.AlertedKey(ext.ID), storage.AlertedYes); err != nil {
		return fmt.Errorf("failed to record alert state for %s: %w", ext.ID, err)
	}
	outcome.FoundHigh = true
	return nil
}

// summarize emits the single end-of-run summary, most severe condition
// first. Gated no-op runs never reach here.
func (s *Scanner) summarize(outcome *types.RunOutcome) {
	switch {
	case outcome.Status == types.RunStatusInvalidKey:
		s.cfg.Notifier.Error("📡 Scan aborted: the API key was rejected. Set a new key with `extrisk apikey set`.")
	case outcome.Status == types.RunStatusCancelled:
		s.cfg.Notifier.Info("📡 Scan cancelled; %d results recorded.", outcome.Scanned)
	case outcome.FoundHigh:
		s.cfg.Notifier.Info("📡 Finished scan with high risk findings 🚨 Review the results with `extrisk results`.")
	default:
		s.cfg.Notifier.Info("📡 Finished scan with no high risk findings.")
	}
}

func (s *Scanner) progress(done, total int) {
	if s.cfg.OnProgress != nil {
		s.cfg.OnProgress(done, total)
	}
}
