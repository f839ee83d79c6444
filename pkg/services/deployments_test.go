package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/eventbus"
	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Simple in-memory deployment repository for service tests.
type testDeploymentRepository struct {
	deployments map[string]*models.Deployment
}

func (r *testDeploymentRepository) List(_ context.Context, opts persistence.ListDeploymentsOptions) ([]*models.Deployment, error) {
	listed := make([]*models.Deployment, 0, len(r.deployments))

	for _, deployment := range r.deployments {
		if opts.WorkflowID != "" && deployment.WorkflowID != opts.WorkflowID {
			continue
		}

		if opts.ActiveOnly && !deployment.Active {
			continue
		}

		listed = append(listed, deployment)
	}

	sort.SliceStable(listed, func(i, j int) bool {
		return listed[i].Version > listed[j].Version
	})

	return listed, nil
}

func (r *testDeploymentRepository) GetByID(_ context.Context, id string) (*models.Deployment, error) {
	if deployment, exists := r.deployments[id]; exists {
		return deployment, nil
	}

	return nil, persistence.NewDeploymentError("GetByID", id, persistence.ErrDeploymentNotFound)
}

func (r *testDeploymentRepository) Save(_ context.Context, deployment *models.Deployment) error {
	r.deployments[deployment.ID] = deployment

	return nil
}

func (r *testDeploymentRepository) SetActive(_ context.Context, id string, active bool) error {
	deployment, exists := r.deployments[id]
	if !exists {
		return persistence.NewDeploymentError("SetActive", id, persistence.ErrDeploymentNotFound)
	}

	deployment.Active = active

	return nil
}

func (r *testDeploymentRepository) Delete(_ context.Context, id string) error {
	if _, exists := r.deployments[id]; !exists {
		return persistence.NewDeploymentError("Delete", id, persistence.ErrDeploymentNotFound)
	}

	delete(r.deployments, id)

	return nil
}

func (r *testDeploymentRepository) NextVersion(_ context.Context, workflowID string) (int64, error) {
	var maxVersion int64

	for _, deployment := range r.deployments {
		if deployment.WorkflowID == workflowID && deployment.Version > maxVersion {
			maxVersion = deployment.Version
		}
	}

	return maxVersion + 1, nil
}

type testRunRepository struct {
	runs map[string]*models.Run
}

func (r *testRunRepository) List(_ context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error) {
	listed := make([]*models.Run, 0)

	for _, run := range r.runs {
		if run.WorkflowID == workflowID && query.Matches(run) {
			listed = append(listed, run)
		}
	}

	err := models.SortRuns(listed, query.SortKey, query.SortOrder)
	if err != nil {
		return nil, persistence.ErrInvalidSortField
	}

	return listed, nil
}

func (r *testRunRepository) GetByID(_ context.Context, workflowID, runID string) (*models.Run, error) {
	if run, exists := r.runs[runID]; exists && run.WorkflowID == workflowID {
		return run, nil
	}

	return nil, persistence.NewRunError("GetByID", workflowID, runID, persistence.ErrRunNotFound)
}

func (r *testRunRepository) Save(_ context.Context, run *models.Run) error {
	r.runs[run.ID] = run

	return nil
}

type testPersistence struct {
	deploymentRepo *testDeploymentRepository
	runRepo        *testRunRepository
}

func (p *testPersistence) HealthCheck(_ context.Context) error { return nil }
func (p *testPersistence) Close(_ context.Context) error       { return nil }

func (p *testPersistence) DeploymentRepository() persistence.DeploymentRepository {
	return p.deploymentRepo
}

func (p *testPersistence) RunRepository() persistence.RunRepository {
	return p.runRepo
}

func createTestPersistence() *testPersistence {
	return &testPersistence{
		deploymentRepo: &testDeploymentRepository{deployments: make(map[string]*models.Deployment)},
		runRepo:        &testRunRepository{runs: make(map[string]*models.Run)},
	}
}

// recordingPublisher captures published events in order.
type recordingPublisher struct {
	published []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.published = append(p.published, event)

	return nil
}

func validDraft() *models.Workflow {
	return &models.Workflow{
		ID:   "wf-1",
		Name: "Order sync",
		Nodes: []*models.WorkflowNode{
			{ID: "n1", Type: "http_request", Category: models.CategoryTypeAction, Enabled: true},
		},
	}
}

func TestDeploymentsDeployAssignsMonotonicVersions(t *testing.T) {
	p := createTestPersistence()
	publisher := &recordingPublisher{}
	service := NewDeployments(p, publisher)
	ctx := context.Background()

	first, err := service.Deploy(ctx, DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetAPI, Description: "v1", Draft: validDraft(),
	})
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, int64(1), first.Version)
	assert.NotEmpty(t, first.AuthSecret)

	second, err := service.Deploy(ctx, DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetAPI, Description: "v2", Draft: validDraft(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)

	require.Len(t, publisher.published, 2)
	created, ok := publisher.published[0].(events.DeploymentCreated)
	require.True(t, ok)
	assert.Equal(t, int64(1), created.Version)
}

func TestDeploymentsDeployWorkflowNodeHasNoSecret(t *testing.T) {
	service := NewDeployments(createTestPersistence(), nil)

	result, err := service.Deploy(context.Background(), DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetWorkflowNode, Draft: validDraft(),
	})
	require.NoError(t, err)
	assert.Empty(t, result.AuthSecret)
}

func TestDeploymentsDeployScheduleRequiresTriggerNode(t *testing.T) {
	service := NewDeployments(createTestPersistence(), nil)

	_, err := service.Deploy(context.Background(), DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetSchedule, Draft: validDraft(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScheduleRequired)
	assert.True(t, IsValidationError(err))
}

func TestDeploymentsDeployScheduleRejectsBadCron(t *testing.T) {
	service := NewDeployments(createTestPersistence(), nil)

	draft := validDraft()
	draft.Nodes = append(draft.Nodes, &models.WorkflowNode{
		ID:       "n2",
		Type:     models.NodeTypeTriggerSchedule,
		Category: models.CategoryTypeTrigger,
		Enabled:  true,
		Config:   map[string]any{"cron_expression": "every day at noon"},
	})

	_, err := service.Deploy(context.Background(), DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetSchedule, Draft: draft,
	})
	assert.ErrorIs(t, err, ErrInvalidCron)
}

func TestDeploymentsDeployValidatesDeclaredSchemas(t *testing.T) {
	service := NewDeployments(createTestPersistence(), nil)

	draft := validDraft()
	draft.Variables = map[string]any{
		"input_schema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
		},
	}

	result, err := service.Deploy(context.Background(), DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetAPI, Draft: draft,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.InputSchema)

	draft.Variables["input_schema"] = map[string]any{"type": 42}

	_, err = service.Deploy(context.Background(), DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetAPI, Draft: draft,
	})
	assert.ErrorIs(t, err, ErrInvalidInputSchema)

	draft.Variables = map[string]any{"output_schema": map[string]any{"type": 42}}

	_, err = service.Deploy(context.Background(), DeployRequest{
		WorkflowID: "wf-1", Target: models.TargetAPI, Draft: draft,
	})
	assert.ErrorIs(t, err, ErrInvalidOutputSchema)
	assert.True(t, IsValidationError(err))
}

func TestDeploymentsToggleAndDeletePublishEvents(t *testing.T) {
	p := createTestPersistence()
	publisher := &recordingPublisher{}
	service := NewDeployments(p, publisher)
	ctx := context.Background()

	deployment := &models.Deployment{
		ID:         "dep-1",
		WorkflowID: "wf-1",
		Version:    1,
		Target:     models.TargetWebapp,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, p.deploymentRepo.Save(ctx, deployment))

	toggled, err := service.Toggle(ctx, "dep-1")
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	require.NoError(t, service.Delete(ctx, "dep-1"))

	_, err = service.Toggle(ctx, "dep-1")
	assert.True(t, persistence.IsDeploymentNotFound(err))

	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.DeploymentToggledEvent, publisher.published[0].GetType())
	assert.Equal(t, events.DeploymentDeletedEvent, publisher.published[1].GetType())
}

func TestRunsListRejectsUnknownSortKey(t *testing.T) {
	service := NewRuns(createTestPersistence())

	_, err := service.List(context.Background(), "wf-1", models.RunQuery{SortKey: "price"})
	assert.ErrorIs(t, err, ErrInvalidSortField)
}

func TestRunsListAndGet(t *testing.T) {
	p := createTestPersistence()
	service := NewRuns(p)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.runRepo.Save(ctx, &models.Run{ID: "run-1", WorkflowID: "wf-1", Status: models.RunStatusSuccess, StartedAt: base}))
	require.NoError(t, p.runRepo.Save(ctx, &models.Run{ID: "run-2", WorkflowID: "wf-1", Status: models.RunStatusFailed, StartedAt: base.Add(time.Minute)}))

	runs, err := service.List(ctx, "wf-1", models.RunQuery{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)

	run, err := service.Get(ctx, "wf-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, run.Status)

	_, err = service.Get(ctx, "wf-1", "missing")
	assert.True(t, persistence.IsRunNotFound(err))
}
