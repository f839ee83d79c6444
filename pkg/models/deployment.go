package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDeployment is returned when a deployment record fails validation.
var ErrInvalidDeployment = errors.New("invalid deployment")

// Deployment is an immutable published snapshot of a workflow draft. Versions
// are allocated per workflow and never reused, even after deletion.
type Deployment struct {
	ID          string           `json:"id"          validate:"required"`
	WorkflowID  string           `json:"workflow_id" validate:"required"`
	Version     int64            `json:"version"     validate:"required,gt=0"`
	Target      DeploymentTarget `json:"target"      validate:"required"`
	Description string           `json:"description"`
	Active      bool             `json:"active"`
	Snapshot    json.RawMessage  `json:"snapshot,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	CreatedBy   string           `json:"created_by"`
}

// Validate checks the structural invariants of a deployment record.
func (d *Deployment) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDeployment)
	}

	if d.WorkflowID == "" {
		return fmt.Errorf("%w: missing workflow id", ErrInvalidDeployment)
	}

	if d.Version <= 0 {
		return fmt.Errorf("%w: version must be positive", ErrInvalidDeployment)
	}

	if !d.Target.IsValid() {
		return fmt.Errorf("%w: %q is not a deployment target", ErrInvalidDeployment, d.Target)
	}

	return nil
}

// RawDeployResult is the backend payload returned by a deploy submission,
// before target-specific shaping.
type RawDeployResult struct {
	Success      bool            `json:"success"`
	URLSlug      string          `json:"url_slug,omitempty"`
	AuthSecret   string          `json:"auth_secret,omitempty"`
	Version      int64           `json:"version,omitempty"`
	InputSchema  json.RawMessage `json:"input_schema,omitempty"`
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// DeploymentResult is the normalized, target-specific view of a successful
// deployment that the success screen renders.
type DeploymentResult struct {
	Target         DeploymentTarget `json:"target"`
	Version        int64            `json:"version"`
	URLSlug        string           `json:"url_slug,omitempty"`
	AuthSecret     string           `json:"auth_secret,omitempty"`
	ShareURL       string           `json:"share_url,omitempty"`
	EmbedURL       string           `json:"embed_url,omitempty"`
	IsWorkflowNode bool             `json:"is_workflow_node,omitempty"`
	CronExpression string           `json:"cron_expression,omitempty"`
	Timezone       string           `json:"timezone,omitempty"`
	InputSchema    json.RawMessage  `json:"input_schema,omitempty"`
	OutputSchema   json.RawMessage  `json:"output_schema,omitempty"`
}
