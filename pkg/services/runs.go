package services

import (
	"context"
	"fmt"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// Runs serves the read-only run history.
type Runs struct {
	persistence persistence.Persistence
}

// NewRuns creates a new run history service.
func NewRuns(persistence persistence.Persistence) *Runs {
	return &Runs{
		persistence: persistence,
	}
}

// List returns the workflow's runs filtered and sorted per the query.
func (r *Runs) List(ctx context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error) {
	if workflowID == "" {
		return nil, ErrEmptyWorkflowID
	}

	runs, err := r.persistence.RunRepository().List(ctx, workflowID, query)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSortField, err)
		}

		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Get returns one run by ID.
func (r *Runs) Get(ctx context.Context, workflowID, runID string) (*models.Run, error) {
	if workflowID == "" {
		return nil, ErrEmptyWorkflowID
	}

	return r.persistence.RunRepository().GetByID(ctx, workflowID, runID)
}
