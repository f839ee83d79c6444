// Package gateway defines the boundary operations the dashboard core
// consumes. Transport errors never cross this boundary raw; every
// implementation converts failures into a typed *Error before they reach the
// state machines.
package gateway

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// Gateway is the full set of boundary operations. The core only reads
// through it; every mutation is followed by an explicit re-fetch rather than
// optimistic local patching.
type Gateway interface {
	FetchDeployments(ctx context.Context, workflowID string) ([]*models.Deployment, error)
	SubmitDeployment(ctx context.Context, workflowID string, target models.DeploymentTarget, description string, draft *models.Workflow) (*models.RawDeployResult, error)
	ToggleDeploymentActive(ctx context.Context, deploymentID string) error
	DeleteDeployment(ctx context.Context, deploymentID string) error
	FetchRuns(ctx context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error)
	FetchRun(ctx context.Context, workflowID, runID string) (*models.Run, error)
}

// Kind classifies a boundary failure. Nothing here is fatal; each kind maps
// to a local, recoverable presentation (empty list, error step, toast).
type Kind string

const (
	KindFetch    Kind = "fetch"
	KindSubmit   Kind = "submit"
	KindMutation Kind = "mutation"
)

// Error is the typed local form of a boundary failure.
type Error struct {
	Op      string
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Op + ": " + e.Message
	}

	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the human-readable message, preferring the backend's
// own wording when it supplied one.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return "something went wrong, please try again"
}

// WrapError converts an underlying failure into a typed boundary error. A nil
// err yields nil.
func WrapError(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Op: op, Kind: kind, Err: err}
}
