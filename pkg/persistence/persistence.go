// Package persistence provides the data storage abstraction for deployments
// and run records.
package persistence

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// ListDeploymentsOptions filters a deployment listing.
type ListDeploymentsOptions struct {
	WorkflowID string
	ActiveOnly bool
}

// DeploymentRepository stores immutable deployment snapshots. Implementations
// assign nothing; version numbers are chosen by the service layer through
// NextVersion.
type DeploymentRepository interface {
	List(ctx context.Context, opts ListDeploymentsOptions) ([]*models.Deployment, error)
	GetByID(ctx context.Context, id string) (*models.Deployment, error)
	Save(ctx context.Context, deployment *models.Deployment) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	// NextVersion returns the next monotonically increasing version number
	// for the workflow, starting at 1.
	NextVersion(ctx context.Context, workflowID string) (int64, error)
}

// RunRepository stores run records. Runs are append-only from the core's
// perspective; terminal runs never change.
type RunRepository interface {
	List(ctx context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error)
	GetByID(ctx context.Context, workflowID, runID string) (*models.Run, error)
	Save(ctx context.Context, run *models.Run) error
}

type Persistence interface {
	DeploymentRepository() DeploymentRepository
	RunRepository() RunRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
