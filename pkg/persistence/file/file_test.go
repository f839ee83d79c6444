package file

import (
	"context"
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeploymentRepositoryRoundTrip(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	repo := fp.DeploymentRepository()
	ctx := context.Background()

	deployment := &models.Deployment{
		ID:          "dep-1",
		WorkflowID:  "wf-1",
		Version:     1,
		Target:      models.TargetWebapp,
		Description: "first release",
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	require.NoError(t, repo.Save(ctx, deployment))

	loaded, err := repo.GetByID(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, deployment.WorkflowID, loaded.WorkflowID)
	assert.Equal(t, deployment.Target, loaded.Target)
	assert.True(t, loaded.Active)

	require.NoError(t, repo.SetActive(ctx, "dep-1", false))

	loaded, err = repo.GetByID(ctx, "dep-1")
	require.NoError(t, err)
	assert.False(t, loaded.Active)

	require.NoError(t, repo.Delete(ctx, "dep-1"))

	_, err = repo.GetByID(ctx, "dep-1")
	assert.True(t, persistence.IsDeploymentNotFound(err))
}

func TestDeploymentRepositoryListSortsByVersionDescending(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	repo := fp.DeploymentRepository()
	ctx := context.Background()

	for _, version := range []int64{2, 1, 3} {
		require.NoError(t, repo.Save(ctx, &models.Deployment{
			ID:         "dep-" + string(rune('0'+version)),
			WorkflowID: "wf-1",
			Version:    version,
			Target:     models.TargetAPI,
		}))
	}

	require.NoError(t, repo.Save(ctx, &models.Deployment{
		ID:         "other",
		WorkflowID: "wf-2",
		Version:    9,
		Target:     models.TargetAPI,
	}))

	deployments, err := repo.List(ctx, persistence.ListDeploymentsOptions{WorkflowID: "wf-1"})
	require.NoError(t, err)
	require.Len(t, deployments, 3)
	assert.Equal(t, int64(3), deployments[0].Version)
	assert.Equal(t, int64(2), deployments[1].Version)
	assert.Equal(t, int64(1), deployments[2].Version)
}

func TestDeploymentRepositoryNextVersion(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	repo := fp.DeploymentRepository()
	ctx := context.Background()

	version, err := repo.NextVersion(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, repo.Save(ctx, &models.Deployment{
		ID:         "dep-1",
		WorkflowID: "wf-1",
		Version:    4,
		Target:     models.TargetSchedule,
	}))

	version, err = repo.NextVersion(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
}

func TestRunRepositoryListFiltersAndSorts(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	repo := fp.RunRepository()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	runs := []*models.Run{
		{ID: "run-a", WorkflowID: "wf-1", Status: models.RunStatusSuccess, StartedAt: base, CostUSD: 0.5},
		{ID: "run-b", WorkflowID: "wf-1", Status: models.RunStatusFailed, StartedAt: base.Add(time.Minute), CostUSD: 0.1},
		{ID: "run-c", WorkflowID: "wf-1", Status: models.RunStatusSuccess, StartedAt: base.Add(2 * time.Minute), CostUSD: 0.9},
	}
	for _, run := range runs {
		require.NoError(t, repo.Save(ctx, run))
	}

	listed, err := repo.List(ctx, "wf-1", models.RunQuery{
		Statuses: []models.RunStatus{models.RunStatusSuccess},
		SortKey:  models.RunSortCost,
	})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "run-c", listed[0].ID)
	assert.Equal(t, "run-a", listed[1].ID)

	_, err = repo.List(ctx, "wf-1", models.RunQuery{SortKey: "price"})
	assert.True(t, persistence.IsInvalidSortField(err))
}

func TestRunRepositoryGetByIDNotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.RunRepository().GetByID(context.Background(), "wf-1", "missing")
	assert.True(t, persistence.IsRunNotFound(err))
}
