// Package runlist supplies the ordered run collection that the version panel
// and the comparison picker both read.
package runlist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// RunFetcher loads run records from the backend.
type RunFetcher interface {
	FetchRuns(ctx context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error)
	FetchRun(ctx context.Context, workflowID, runID string) (*models.Run, error)
}

// Adapter holds the currently visible run list for one workflow. Repeated
// identical queries return identically ordered rows, so re-renders never
// reorder the list a user is mid-selection against. Like the version list,
// overlapping fetches resolve last-issued-wins.
type Adapter struct {
	mu      sync.Mutex
	fetcher RunFetcher
	logger  *slog.Logger

	workflowID string
	query      models.RunQuery
	runs       []*models.Run
	lastErr    error

	issuedSeq  uint64
	appliedSeq uint64
}

// NewAdapter creates an empty run list for the given workflow.
func NewAdapter(fetcher RunFetcher, workflowID string, logger *slog.Logger) *Adapter {
	return &Adapter{
		fetcher:    fetcher,
		logger:     logger.With("module", "runlist"),
		workflowID: workflowID,
		runs:       make([]*models.Run, 0),
	}
}

// Runs returns a copy of the currently visible list.
func (a *Adapter) Runs() []*models.Run {
	a.mu.Lock()
	defer a.mu.Unlock()

	runs := make([]*models.Run, len(a.runs))
	copy(runs, a.runs)

	return runs
}

// Query returns the filters and sort the current list was loaded with.
func (a *Adapter) Query() models.RunQuery {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.query
}

// LastError returns the failure of the most recent applied fetch, if any.
func (a *Adapter) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.lastErr
}

// List fetches the run list for the given query and makes it the visible
// collection. A fetch that resolves after a later-issued one is discarded.
// On failure the visible list is emptied; nothing else is touched, so
// comparison slots keep the runs they already hold even when those runs are
// filtered out of view.
func (a *Adapter) List(ctx context.Context, query models.RunQuery) ([]*models.Run, error) {
	a.mu.Lock()
	a.issuedSeq++
	seq := a.issuedSeq
	workflowID := a.workflowID
	a.mu.Unlock()

	runs, err := a.fetcher.FetchRuns(ctx, workflowID, query)

	a.mu.Lock()
	defer a.mu.Unlock()

	if seq < a.issuedSeq && seq <= a.appliedSeq {
		a.logger.Debug("discarding stale run fetch", "workflow_id", workflowID, "seq", seq)

		stale := make([]*models.Run, len(a.runs))
		copy(stale, a.runs)

		return stale, a.lastErr
	}

	a.appliedSeq = seq
	a.query = query

	if err != nil {
		a.runs = make([]*models.Run, 0)
		a.lastErr = err

		a.logger.Error("failed to fetch runs", "workflow_id", workflowID, "error", err)

		return make([]*models.Run, 0), err
	}

	sorted := make([]*models.Run, len(runs))
	copy(sorted, runs)

	// Re-sort locally so ordering does not depend on which store served the
	// fetch. The sorter is stable; identical queries yield identical order.
	if sortErr := models.SortRuns(sorted, query.SortKey, query.SortOrder); sortErr != nil {
		a.runs = make([]*models.Run, 0)
		a.lastErr = sortErr

		return make([]*models.Run, 0), sortErr
	}

	a.runs = sorted
	a.lastErr = nil

	listed := make([]*models.Run, len(sorted))
	copy(listed, sorted)

	return listed, nil
}

// Refresh re-runs the current query.
func (a *Adapter) Refresh(ctx context.Context) error {
	a.mu.Lock()
	query := a.query
	a.mu.Unlock()

	_, err := a.List(ctx, query)

	return err
}

// Get loads a single run record, bypassing the visible list.
func (a *Adapter) Get(ctx context.Context, runID string) (*models.Run, error) {
	a.mu.Lock()
	workflowID := a.workflowID
	a.mu.Unlock()

	return a.fetcher.FetchRun(ctx, workflowID, runID)
}
