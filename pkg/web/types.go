// Package web provides HTTP request and response types for the deployment API.
package web

import (
	"encoding/json"
	"time"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// DeployRequest represents the request body for publishing a draft.
type DeployRequest struct {
	Target      string           `json:"target"      validate:"required"`
	Description string           `json:"description" validate:"max=500"`
	Draft       *models.Workflow `json:"draft"       validate:"required"`
	CreatedBy   string           `json:"created_by"`
}

// DeploymentResponse is the API view of a deployment record. The draft
// snapshot stays server-side.
type DeploymentResponse struct {
	ID          string    `json:"id"`
	WorkflowID  string    `json:"workflow_id"`
	Version     int64     `json:"version"`
	Target      string    `json:"target"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// TransformDeploymentResponse filters a deployment for the API.
func TransformDeploymentResponse(deployment *models.Deployment) DeploymentResponse {
	return DeploymentResponse{
		ID:          deployment.ID,
		WorkflowID:  deployment.WorkflowID,
		Version:     deployment.Version,
		Target:      string(deployment.Target),
		Description: deployment.Description,
		Active:      deployment.Active,
		CreatedAt:   deployment.CreatedAt,
		CreatedBy:   deployment.CreatedBy,
	}
}

// RunResponse is the API view of a run record.
type RunResponse struct {
	ID                string                     `json:"id"`
	WorkflowID        string                     `json:"workflow_id"`
	DeploymentVersion int64                      `json:"deployment_version"`
	Status            string                     `json:"status"`
	StartedAt         time.Time                  `json:"started_at"`
	FinishedAt        *time.Time                 `json:"finished_at,omitempty"`
	DurationMS        int64                      `json:"duration_ms"`
	CostUSD           float64                    `json:"cost_usd"`
	Tokens            int64                      `json:"tokens"`
	NodeOutputs       map[string]json.RawMessage `json:"node_outputs,omitempty"`
}

// TransformRunResponse flattens a run for the API, with the duration
// precomputed for list rendering.
func TransformRunResponse(run *models.Run) RunResponse {
	return RunResponse{
		ID:                run.ID,
		WorkflowID:        run.WorkflowID,
		DeploymentVersion: run.DeploymentVersion,
		Status:            string(run.Status),
		StartedAt:         run.StartedAt,
		FinishedAt:        run.FinishedAt,
		DurationMS:        run.Duration().Milliseconds(),
		CostUSD:           run.CostUSD,
		Tokens:            run.Tokens,
		NodeOutputs:       run.NodeOutputs,
	}
}
