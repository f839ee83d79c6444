// Package services provides standardized error types for service layer
// operations.
package services

import (
	"errors"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidSortField    = errors.New("invalid sort field")
	ErrInvalidTarget       = errors.New("invalid deployment target")
	ErrEmptyWorkflowID     = errors.New("workflow ID cannot be empty")
	ErrDraftRequired       = errors.New("draft workflow is required")
	ErrNodesRequired       = errors.New("workflow must have at least one node")
	ErrScheduleRequired    = errors.New("schedule deployments require an enabled schedule trigger node")
	ErrInvalidCron         = errors.New("invalid cron expression")
	ErrInvalidInputSchema  = errors.New("invalid input schema")
	ErrInvalidOutputSchema = errors.New("invalid output schema")
)

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrEmptyWorkflowID) ||
		errors.Is(err, ErrDraftRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrScheduleRequired) ||
		errors.Is(err, ErrInvalidCron) ||
		errors.Is(err, ErrInvalidInputSchema) ||
		errors.Is(err, ErrInvalidOutputSchema)
}
