package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// DeploymentRepository handles deployment-related file operations.
type DeploymentRepository struct {
	root string
}

// NewDeploymentRepository creates a new deployment repository.
func NewDeploymentRepository(root string) *DeploymentRepository {
	return &DeploymentRepository{root: root}
}

func (dr *DeploymentRepository) dir() string {
	return path.Join(dr.root, "deployments")
}

// List returns deployments matching the options, newest version first.
func (dr *DeploymentRepository) List(ctx context.Context, opts persistence.ListDeploymentsOptions) ([]*models.Deployment, error) {
	all, err := dr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Deployment, 0, len(all))

	for _, deployment := range all {
		if opts.WorkflowID != "" && deployment.WorkflowID != opts.WorkflowID {
			continue
		}

		if opts.ActiveOnly && !deployment.Active {
			continue
		}

		filtered = append(filtered, deployment)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Version > filtered[j].Version
	})

	return filtered, nil
}

// GetByID returns a deployment by its ID.
func (dr *DeploymentRepository) GetByID(_ context.Context, id string) (*models.Deployment, error) {
	filePath := path.Join(dr.dir(), id+".json")

	data, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewDeploymentError("GetByID", id, persistence.ErrDeploymentNotFound)
		}

		return nil, fmt.Errorf("failed to read deployment file: %w", err)
	}

	var deployment models.Deployment

	err = json.Unmarshal(data, &deployment)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal deployment %s: %w", id, err)
	}

	return &deployment, nil
}

// Save writes a deployment as a JSON file.
func (dr *DeploymentRepository) Save(_ context.Context, deployment *models.Deployment) error {
	if err := deployment.Validate(); err != nil {
		return persistence.NewDeploymentError("Save", deployment.ID, err)
	}

	err := os.MkdirAll(dr.dir(), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create deployments directory: %w", err)
	}

	data, err := json.MarshalIndent(deployment, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deployment %s: %w", deployment.ID, err)
	}

	filePath := path.Join(dr.dir(), deployment.ID+".json")

	err = os.WriteFile(filePath, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write deployment file: %w", err)
	}

	return nil
}

// SetActive flips the active flag of a stored deployment.
func (dr *DeploymentRepository) SetActive(ctx context.Context, id string, active bool) error {
	deployment, err := dr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	deployment.Active = active

	return dr.Save(ctx, deployment)
}

// Delete removes a deployment file.
func (dr *DeploymentRepository) Delete(_ context.Context, id string) error {
	filePath := path.Join(dr.dir(), id+".json")

	err := os.Remove(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewDeploymentError("Delete", id, persistence.ErrDeploymentNotFound)
		}

		return fmt.Errorf("failed to delete deployment file: %w", err)
	}

	return nil
}

// NextVersion scans the workflow's deployments and returns max version + 1.
func (dr *DeploymentRepository) NextVersion(ctx context.Context, workflowID string) (int64, error) {
	deployments, err := dr.List(ctx, persistence.ListDeploymentsOptions{WorkflowID: workflowID})
	if err != nil {
		return 0, err
	}

	var maxVersion int64

	for _, deployment := range deployments {
		if deployment.Version > maxVersion {
			maxVersion = deployment.Version
		}
	}

	return maxVersion + 1, nil
}

func (dr *DeploymentRepository) loadAll(ctx context.Context) ([]*models.Deployment, error) {
	if _, err := os.Stat(dr.dir()); os.IsNotExist(err) {
		return make([]*models.Deployment, 0), nil
	}

	root := os.DirFS(dr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list deployment files: %w", err)
	}

	deployments := make([]*models.Deployment, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		deploymentID := file[:len(file)-5] // Remove .json extension

		deployment, err := dr.GetByID(ctx, deploymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deployment %s: %w", deploymentID, err)
		}

		deployments = append(deployments, deployment)
	}

	return deployments, nil
}
