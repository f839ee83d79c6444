// Package services provides deployment lifecycle and run history services
// backing the dashboard API.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/eventbus"
	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// Deployments handles deployment creation and lifecycle mutations. Every
// successful mutation publishes a lifecycle event so sessions re-fetch
// instead of patching local state.
type Deployments struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
}

// NewDeployments creates a new deployment service. The publisher may be nil
// in contexts that do not propagate events.
func NewDeployments(persistence persistence.Persistence, publisher eventbus.EventPublisher) *Deployments {
	return &Deployments{
		persistence: persistence,
		publisher:   publisher,
	}
}

// HealthCheck checks the health of the persistence layer.
func (d *Deployments) HealthCheck(ctx context.Context) (string, bool) {
	if d.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := d.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// DeployRequest carries one deploy submission.
type DeployRequest struct {
	WorkflowID  string
	Target      models.DeploymentTarget
	Description string
	Draft       *models.Workflow
	CreatedBy   string
}

// Deploy validates the draft, snapshots it as the next version, and returns
// the raw result the client-side flow normalizes per target.
func (d *Deployments) Deploy(ctx context.Context, req DeployRequest) (*models.RawDeployResult, error) {
	if req.WorkflowID == "" {
		return nil, ErrEmptyWorkflowID
	}

	if !req.Target.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, req.Target)
	}

	if err := d.validateDraft(req); err != nil {
		return nil, err
	}

	inputSchema, outputSchema, err := d.validateSchemas(req.Draft)
	if err != nil {
		return nil, err
	}

	version, err := d.persistence.DeploymentRepository().NextVersion(ctx, req.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate version: %w", err)
	}

	snapshot, err := json.Marshal(req.Draft)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot draft: %w", err)
	}

	deployment := &models.Deployment{
		ID:          uuid.New().String(),
		WorkflowID:  req.WorkflowID,
		Version:     version,
		Target:      req.Target,
		Description: req.Description,
		Active:      true,
		Snapshot:    snapshot,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   req.CreatedBy,
	}

	err = d.persistence.DeploymentRepository().Save(ctx, deployment)
	if err != nil {
		return nil, fmt.Errorf("failed to save deployment: %w", err)
	}

	d.publish(ctx, req.WorkflowID, events.DeploymentCreated{
		BaseEvent:    d.baseEvent(events.DeploymentCreatedEvent, req.WorkflowID),
		DeploymentID: deployment.ID,
		Version:      deployment.Version,
		Target:       string(deployment.Target),
	})

	result := &models.RawDeployResult{
		Success:      true,
		URLSlug:      deployment.ID,
		Version:      deployment.Version,
		InputSchema:  inputSchema,
		OutputSchema: outputSchema,
	}

	if req.Target != models.TargetWorkflowNode {
		result.AuthSecret = uuid.New().String()
	}

	return result, nil
}

// List returns the workflow's deployments, newest version first.
func (d *Deployments) List(ctx context.Context, workflowID string) ([]*models.Deployment, error) {
	if workflowID == "" {
		return nil, ErrEmptyWorkflowID
	}

	return d.persistence.DeploymentRepository().List(ctx, persistence.ListDeploymentsOptions{
		WorkflowID: workflowID,
	})
}

// Toggle flips the active flag and returns the updated deployment.
func (d *Deployments) Toggle(ctx context.Context, deploymentID string) (*models.Deployment, error) {
	deployment, err := d.persistence.DeploymentRepository().GetByID(ctx, deploymentID)
	if err != nil {
		return nil, err
	}

	err = d.persistence.DeploymentRepository().SetActive(ctx, deploymentID, !deployment.Active)
	if err != nil {
		return nil, err
	}

	deployment.Active = !deployment.Active

	d.publish(ctx, deployment.WorkflowID, events.DeploymentToggled{
		BaseEvent:    d.baseEvent(events.DeploymentToggledEvent, deployment.WorkflowID),
		DeploymentID: deployment.ID,
		Active:       deployment.Active,
	})

	return deployment, nil
}

// Delete removes a deployment.
func (d *Deployments) Delete(ctx context.Context, deploymentID string) error {
	deployment, err := d.persistence.DeploymentRepository().GetByID(ctx, deploymentID)
	if err != nil {
		return err
	}

	err = d.persistence.DeploymentRepository().Delete(ctx, deploymentID)
	if err != nil {
		return err
	}

	d.publish(ctx, deployment.WorkflowID, events.DeploymentDeleted{
		BaseEvent:    d.baseEvent(events.DeploymentDeletedEvent, deployment.WorkflowID),
		DeploymentID: deployment.ID,
	})

	return nil
}

func (d *Deployments) validateDraft(req DeployRequest) error {
	if req.Draft == nil {
		return ErrDraftRequired
	}

	if len(req.Draft.Nodes) == 0 {
		return ErrNodesRequired
	}

	if req.Target != models.TargetSchedule {
		return nil
	}

	spec, ok := req.Draft.ScheduleTrigger()
	if !ok {
		return ErrScheduleRequired
	}

	if err := spec.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCron, err)
	}

	return nil
}

// validateSchemas checks the draft's declared input/output schemas are valid
// JSON Schemas and returns them in raw form for the deploy result.
func (d *Deployments) validateSchemas(draft *models.Workflow) (json.RawMessage, json.RawMessage, error) {
	inputSchema, err := d.compileSchema(draft.Variables["input_schema"])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidInputSchema, err)
	}

	outputSchema, err := d.compileSchema(draft.Variables["output_schema"])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidOutputSchema, err)
	}

	return inputSchema, outputSchema, nil
}

func (d *Deployments) compileSchema(raw any) (json.RawMessage, error) {
	if raw == nil {
		return nil, nil
	}

	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, err
	}

	return json.Marshal(raw)
}

func (d *Deployments) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func (d *Deployments) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.publisher == nil {
		return
	}

	// Event delivery is best effort; the session re-fetches on demand anyway.
	_ = d.publisher.Publish(ctx, key, event)
}
