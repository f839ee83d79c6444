package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// RunRepository handles run-record file operations. Runs are stored per
// workflow so listings never scan unrelated records.
type RunRepository struct {
	root string
}

// NewRunRepository creates a new run repository.
func NewRunRepository(root string) *RunRepository {
	return &RunRepository{root: root}
}

func (rr *RunRepository) dir(workflowID string) string {
	return path.Join(rr.root, "runs", workflowID)
}

// List returns the workflow's runs filtered and sorted per the query.
func (rr *RunRepository) List(ctx context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error) {
	if _, err := os.Stat(rr.dir(workflowID)); os.IsNotExist(err) {
		return make([]*models.Run, 0), nil
	}

	root := os.DirFS(rr.dir(workflowID))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	runs := make([]*models.Run, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		runID := file[:len(file)-5]

		run, err := rr.GetByID(ctx, workflowID, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
		}

		if query.Matches(run) {
			runs = append(runs, run)
		}
	}

	err = models.SortRuns(runs, query.SortKey, query.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, err)
	}

	return runs, nil
}

// GetByID returns a run by its ID.
func (rr *RunRepository) GetByID(_ context.Context, workflowID, runID string) (*models.Run, error) {
	filePath := path.Join(rr.dir(workflowID), runID+".json")

	data, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewRunError("GetByID", workflowID, runID, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var run models.Run

	err = json.Unmarshal(data, &run)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}

	return &run, nil
}

// Save writes a run record as a JSON file.
func (rr *RunRepository) Save(_ context.Context, run *models.Run) error {
	err := os.MkdirAll(rr.dir(run.WorkflowID), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	filePath := path.Join(rr.dir(run.WorkflowID), run.ID+".json")

	err = os.WriteFile(filePath, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}

	return nil
}
