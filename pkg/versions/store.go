// Package versions holds the single source of truth for whether the user is
// editing the live draft or inspecting a read-only historical deployment.
package versions

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// DeploymentFetcher is the slice of the boundary gateway the store consumes.
type DeploymentFetcher interface {
	FetchDeployments(ctx context.Context, workflowID string) ([]*models.Deployment, error)
}

// Store is the authority for draft-vs-preview mode. Both local transitions
// are total functions; only Refresh touches the network, and a stale response
// is never allowed to roll the visible list back.
type Store struct {
	mu         sync.Mutex
	fetcher    DeploymentFetcher
	logger     *slog.Logger
	workflowID string

	preview     *models.Deployment
	deployments []*models.Deployment
	lastErr     error

	issuedSeq  uint64
	appliedSeq uint64
}

// NewStore creates a version store for one workflow session.
func NewStore(fetcher DeploymentFetcher, workflowID string, logger *slog.Logger) *Store {
	return &Store{
		fetcher:     fetcher,
		logger:      logger,
		workflowID:  workflowID,
		deployments: make([]*models.Deployment, 0),
	}
}

// PreviewVersion switches the consuming view to read-only rendering of the
// given deployment. Re-entrant: selecting a new deployment atomically
// replaces the previous selection. The snapshot is treated as opaque.
func (s *Store) PreviewVersion(deployment *models.Deployment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preview = deployment
}

// ExitPreview returns control to draft editing. Idempotent.
func (s *Store) ExitPreview() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preview = nil
}

// IsPreviewing reports whether a historical deployment is being inspected.
func (s *Store) IsPreviewing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.preview != nil
}

// ActiveDeployment returns the previewed deployment, nil in draft mode.
func (s *Store) ActiveDeployment() *models.Deployment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.preview
}

// Deployments returns the currently visible version list, newest first.
func (s *Store) Deployments() []*models.Deployment {
	s.mu.Lock()
	defer s.mu.Unlock()

	listed := make([]*models.Deployment, len(s.deployments))
	copy(listed, s.deployments)

	return listed
}

// LastError returns the error signal of the most recent applied fetch, nil
// after a successful one.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// ListDeployments fetches the workflow's deployments and applies them sorted
// by version descending, ties keeping input order. Overlapping calls resolve
// last-issued-wins: a slower response from an earlier call is discarded so
// the visible list never rolls back. A failed fetch surfaces an empty list
// plus the error and leaves the preview selection untouched.
func (s *Store) ListDeployments(ctx context.Context) ([]*models.Deployment, error) {
	s.mu.Lock()
	s.issuedSeq++
	seq := s.issuedSeq
	workflowID := s.workflowID
	s.mu.Unlock()

	deployments, err := s.fetcher.FetchDeployments(ctx, workflowID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.issuedSeq && seq <= s.appliedSeq {
		// A later-issued call already resolved; keep its result.
		s.logger.Debug("discarding stale deployment fetch", "workflow_id", workflowID, "seq", seq)

		stale := make([]*models.Deployment, len(s.deployments))
		copy(stale, s.deployments)

		return stale, s.lastErr
	}

	s.appliedSeq = seq

	if err != nil {
		s.deployments = make([]*models.Deployment, 0)
		s.lastErr = err

		s.logger.Error("failed to fetch deployments", "workflow_id", workflowID, "error", err)

		return make([]*models.Deployment, 0), err
	}

	sorted := make([]*models.Deployment, len(deployments))
	copy(sorted, deployments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version > sorted[j].Version
	})

	s.deployments = sorted
	s.lastErr = nil

	listed := make([]*models.Deployment, len(sorted))
	copy(listed, sorted)

	return listed, nil
}

// Refresh re-fetches the version list, discarding the returned slice.
func (s *Store) Refresh(ctx context.Context) error {
	_, err := s.ListDeployments(ctx)

	return err
}
