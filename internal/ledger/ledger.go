// Package ledger maintains the ordered view of scan results: an in-memory
// index over the storage backend's append-only result log.
//
// Records are keyed by extension ID (the stable identity). The index is
// rebuilt from the persisted log at startup, with later log rows replacing
// earlier rows for the same extension, so the displayed set always reflects
// the most recent classification of each extension.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/extrisk/extrisk/internal/storage"
	"github.com/extrisk/extrisk/internal/types"
)

// Ledger holds the current result set and its backing log.
type Ledger struct {
	store storage.Storage

	mu      sync.Mutex
	results map[string]*types.ScanResult
	order   []string // extension IDs in first-insert order, for stable ties

	// OnChange, when set, is called after every mutation. The scanner's
	// caller uses it to refresh whatever is presenting the results; the
	// scanner itself never learns what that is.
	OnChange func()
}

// New builds a ledger and rebuilds its index from the persisted log.
func New(ctx context.Context, store storage.Storage) (*Ledger, error) {
	l := &Ledger{
		store:   store,
		results: make(map[string]*types.ScanResult),
	}

	logged, err := store.ListResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load result log: %w", err)
	}
	for _, r := range logged {
		l.upsert(r)
	}
	return l, nil
}

// Add records one classification result: the in-memory index is upserted
// and the raw tuple is appended to the persisted log.
func (l *Ledger) Add(ctx context.Context, extensionID, displayName, riskLabel string, risk float64) error {
	r := &types.ScanResult{
		ExtensionID: extensionID,
		DisplayName: displayName,
		RiskLabel:   riskLabel,
		Risk:        risk,
	}
	if err := l.store.AppendResult(ctx, r); err != nil {
		return fmt.Errorf("failed to persist result: %w", err)
	}

	l.mu.Lock()
	l.upsert(r)
	l.mu.Unlock()

	l.notify()
	return nil
}

// List returns the current records ordered by risk descending. Ties keep
// first-insert order.
func (l *Ledger) List() []*types.ScanResult {
	l.mu.Lock()
	out := make([]*types.ScanResult, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.results[id])
	}
	l.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Risk > out[j].Risk
	})
	return out
}

// Len returns the number of current records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

// Reset clears the in-memory index and the persisted log, so the next run's
// findings replace the previously displayed set as they arrive. Run history
// is kept elsewhere and is not affected.
func (l *Ledger) Reset(ctx context.Context) error {
	if err := l.store.ClearResults(ctx); err != nil {
		return fmt.Errorf("failed to clear result log: %w", err)
	}

	l.mu.Lock()
	l.results = make(map[string]*types.ScanResult)
	l.order = nil
	l.mu.Unlock()

	l.notify()
	return nil
}

// upsert replaces or inserts a record in the index. Callers hold mu (or
// have exclusive access during construction).
func (l *Ledger) upsert(r *types.ScanResult) {
	if _, seen := l.results[r.ExtensionID]; !seen {
		l.order = append(l.order, r.ExtensionID)
	}
	l.results[r.ExtensionID] = r
}

func (l *Ledger) notify() {
	if l.OnChange != nil {
		l.OnChange()
	}
}
