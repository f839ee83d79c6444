package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// DeploymentRepository handles deployment-related database operations.
type DeploymentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDeploymentRepository creates a new deployment repository.
func NewDeploymentRepository(db *sql.DB, logger *slog.Logger) *DeploymentRepository {
	return &DeploymentRepository{db: db, logger: logger}
}

const deploymentColumns = `
	id
  , workflow_id
  , version
  , target
  , description
  , active
  , snapshot
  , created_at
  , created_by
`

// List returns deployments matching the options, newest version first.
func (r *DeploymentRepository) List(ctx context.Context, opts persistence.ListDeploymentsOptions) ([]*models.Deployment, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE ($1 = '' OR workflow_id = $1)
		  AND ($2 = false OR active = true)
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, opts.WorkflowID, opts.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}

	defer func(ctx context.Context, r *DeploymentRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	deployments := make([]*models.Deployment, 0)

	for rows.Next() {
		deployment, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}

		deployments = append(deployments, deployment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating deployments: %w", err)
	}

	return deployments, nil
}

// GetByID returns a deployment by its ID.
func (r *DeploymentRepository) GetByID(ctx context.Context, id string) (*models.Deployment, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE id = $1
	`

	deployment, err := scanDeployment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDeploymentError("GetByID", id, persistence.ErrDeploymentNotFound)
		}

		return nil, fmt.Errorf("failed to get deployment %s: %w", id, err)
	}

	return deployment, nil
}

// Save inserts a deployment. Deployments are immutable snapshots; only the
// active flag changes afterwards, through SetActive.
func (r *DeploymentRepository) Save(ctx context.Context, deployment *models.Deployment) error {
	if err := deployment.Validate(); err != nil {
		return persistence.NewDeploymentError("Save", deployment.ID, err)
	}

	var snapshot any
	if deployment.Snapshot != nil {
		snapshot = []byte(deployment.Snapshot)
	}

	query := `
		INSERT INTO deployments (id, workflow_id, version, target, description, active, snapshot, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		deployment.ID,
		deployment.WorkflowID,
		deployment.Version,
		string(deployment.Target),
		deployment.Description,
		deployment.Active,
		snapshot,
		deployment.CreatedAt,
		deployment.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save deployment %s: %w", deployment.ID, err)
	}

	return nil
}

// SetActive flips the active flag of a stored deployment.
func (r *DeploymentRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE deployments SET active = $2 WHERE id = $1", id, active)
	if err != nil {
		return fmt.Errorf("failed to update deployment %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewDeploymentError("SetActive", id, persistence.ErrDeploymentNotFound)
	}

	return nil
}

// Delete removes a deployment row.
func (r *DeploymentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM deployments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete deployment %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewDeploymentError("Delete", id, persistence.ErrDeploymentNotFound)
	}

	return nil
}

// NextVersion returns max version + 1 for the workflow.
func (r *DeploymentRepository) NextVersion(ctx context.Context, workflowID string) (int64, error) {
	var version int64

	query := "SELECT COALESCE(MAX(version), 0) + 1 FROM deployments WHERE workflow_id = $1"

	err := r.db.QueryRowContext(ctx, query, workflowID).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query next version for workflow %s: %w", workflowID, err)
	}

	return version, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeployment(row rowScanner) (*models.Deployment, error) {
	var (
		deployment models.Deployment
		target     string
		snapshot   sql.Null[[]byte]
	)

	err := row.Scan(
		&deployment.ID,
		&deployment.WorkflowID,
		&deployment.Version,
		&target,
		&deployment.Description,
		&deployment.Active,
		&snapshot,
		&deployment.CreatedAt,
		&deployment.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	deployment.Target = models.DeploymentTarget(target)
	if snapshot.Valid {
		deployment.Snapshot = json.RawMessage(snapshot.V)
	}

	return &deployment, nil
}
