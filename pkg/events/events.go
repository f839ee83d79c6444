// Package events defines event types for deployment lifecycle notifications.
package events

import (
	"time"
)

type EventType string

// Topic carries every deployment lifecycle event.
const Topic = "flowdeck.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	DeploymentCreatedEvent EventType = "deployment.created"
	DeploymentToggledEvent EventType = "deployment.toggled"
	DeploymentDeletedEvent EventType = "deployment.deleted"
	RunFinishedEvent       EventType = "run.finished"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// GetWorkflowID returns the workflow the event belongs to. Sessions use it
// to ignore events for other workflows on the shared topic.
func (e BaseEvent) GetWorkflowID() string {
	return e.WorkflowID
}

// DeploymentCreated signals that a deploy submission succeeded and a new
// version exists.
type DeploymentCreated struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
	Version      int64  `json:"version"`
	Target       string `json:"target"`
}

func (e DeploymentCreated) GetType() EventType {
	return DeploymentCreatedEvent
}

// DeploymentToggled signals an active/inactive flip.
type DeploymentToggled struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
	Active       bool   `json:"active"`
}

func (e DeploymentToggled) GetType() EventType {
	return DeploymentToggledEvent
}

// DeploymentDeleted signals a deployment was removed.
type DeploymentDeleted struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
}

func (e DeploymentDeleted) GetType() EventType {
	return DeploymentDeletedEvent
}

// RunFinished signals a run reached a terminal status.
type RunFinished struct {
	BaseEvent

	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

func (e RunFinished) GetType() EventType {
	return RunFinishedEvent
}
