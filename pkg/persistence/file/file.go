// Package file provides file-based persistence for deployments and runs.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file
// system.
type Persistence struct {
	root           string
	deploymentRepo *DeploymentRepository
	runRepo        *RunRepository
}

// NewPersistence creates a new instance of Persistence with the specified
// root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		deploymentRepo: NewDeploymentRepository(cleanRoot),
		runRepo:        NewRunRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) DeploymentRepository() persistence.DeploymentRepository {
	return fp.deploymentRepo
}

func (fp *Persistence) RunRepository() persistence.RunRepository {
	return fp.runRepo
}
