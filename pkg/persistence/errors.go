// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDeploymentNotFound indicates a deployment was not found by the given identifier.
	ErrDeploymentNotFound = errors.New("deployment not found")

	// ErrRunNotFound indicates a run record was not found by the given identifier.
	ErrRunNotFound = errors.New("run not found")

	// ErrDeploymentAlreadyExists indicates a deployment with the same identifier already exists.
	ErrDeploymentAlreadyExists = errors.New("deployment already exists")

	// ErrInvalidSortField indicates an unsupported sort key was requested.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// DeploymentError wraps deployment-related errors with additional context.
type DeploymentError struct {
	Op           string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	DeploymentID string
	WorkflowID   string
	Err          error
}

func (e *DeploymentError) Error() string {
	target := e.DeploymentID
	if target == "" {
		target = "workflow " + e.WorkflowID
	}

	return fmt.Sprintf("%s operation failed for deployment %s: %v", e.Op, target, e.Err)
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

func (e *DeploymentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDeploymentError creates a new deployment error with context.
func NewDeploymentError(op, deploymentID string, err error) *DeploymentError {
	return &DeploymentError{
		Op:           op,
		DeploymentID: deploymentID,
		Err:          err,
	}
}

// RunError wraps run-related errors with additional context.
type RunError struct {
	Op         string
	WorkflowID string
	RunID      string
	Err        error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s in workflow %s: %v", e.Op, e.RunID, e.WorkflowID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRunError creates a new run error with context.
func NewRunError(op, workflowID, runID string, err error) *RunError {
	return &RunError{
		Op:         op,
		WorkflowID: workflowID,
		RunID:      runID,
		Err:        err,
	}
}

// IsDeploymentNotFound checks if an error indicates a missing deployment.
func IsDeploymentNotFound(err error) bool {
	return errors.Is(err, ErrDeploymentNotFound)
}

// IsRunNotFound checks if an error indicates a missing run record.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsInvalidSortField checks if an error indicates an unsupported sort key.
func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField)
}
