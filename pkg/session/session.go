// Package session wires the dashboard core for one open workflow: the
// version panel, the publish dialog, the comparison picker and the run list,
// all reading through a single boundary gateway. The session is an explicit
// context object; nothing here is a global singleton.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowdeck/flowdeck/pkg/comparison"
	"github.com/flowdeck/flowdeck/pkg/deployflow"
	"github.com/flowdeck/flowdeck/pkg/eventbus"
	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/gateway"
	"github.com/flowdeck/flowdeck/pkg/runlist"
	"github.com/flowdeck/flowdeck/pkg/versions"
)

// Config carries the collaborators a session needs.
type Config struct {
	WorkflowID string
	BaseURL    string
	Gateway    gateway.Gateway
	EventBus   eventbus.EventSubscriber
	Logger     *slog.Logger
}

// Session is the per-workflow dashboard context object.
type Session struct {
	workflowID string
	gateway    gateway.Gateway
	eventBus   eventbus.EventSubscriber
	logger     *slog.Logger

	Versions *versions.Store
	Flow     *deployflow.Flow
	Selector *comparison.Selector
	Runs     *runlist.Adapter
}

// New constructs the four core components around the given gateway. The
// event bus may be nil; the session then relies on explicit refreshes only.
func New(config Config) (*Session, error) {
	if config.WorkflowID == "" {
		return nil, fmt.Errorf("session requires a workflow id")
	}

	if config.Gateway == nil {
		return nil, fmt.Errorf("session requires a gateway")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		workflowID: config.WorkflowID,
		gateway:    config.Gateway,
		eventBus:   config.EventBus,
		logger:     logger.With("module", "session", "workflow_id", config.WorkflowID),
		Versions:   versions.NewStore(config.Gateway, config.WorkflowID, logger),
		Flow:       deployflow.NewFlow(config.Gateway, config.WorkflowID, config.BaseURL, logger),
		Selector:   comparison.NewSelector(),
		Runs:       runlist.NewAdapter(config.Gateway, config.WorkflowID, logger),
	}, nil
}

// Start loads the initial version list and subscribes to deployment
// lifecycle and run completion events so the version panel and the run list
// re-fetch when the server moves on.
func (s *Session) Start(ctx context.Context) error {
	if _, err := s.Versions.ListDeployments(ctx); err != nil {
		// Non-fatal; the version panel shows an empty list with a retry.
		s.logger.Warn("initial deployment fetch failed", "error", err)
	}

	if s.eventBus == nil {
		return nil
	}

	for _, eventType := range []events.EventType{
		events.DeploymentCreatedEvent,
		events.DeploymentToggledEvent,
		events.DeploymentDeletedEvent,
	} {
		err := s.eventBus.Handle(eventType, s.onDeploymentEvent)
		if err != nil {
			return fmt.Errorf("failed to register handler for %s: %w", eventType, err)
		}
	}

	if err := s.eventBus.Handle(events.RunFinishedEvent, s.onRunFinished); err != nil {
		return fmt.Errorf("failed to register handler for %s: %w", events.RunFinishedEvent, err)
	}

	err := s.eventBus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to deployment events: %w", err)
	}

	return nil
}

// ToggleDeployment flips a deployment's active flag. The version list is
// re-fetched whether or not the mutation succeeded, so the panel always
// shows the server's truth.
func (s *Session) ToggleDeployment(ctx context.Context, deploymentID string) error {
	mutationErr := s.gateway.ToggleDeploymentActive(ctx, deploymentID)

	if err := s.Versions.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after toggle failed", "deployment_id", deploymentID, "error", err)
	}

	return mutationErr
}

// DeleteDeployment removes a deployment, then re-fetches unconditionally.
func (s *Session) DeleteDeployment(ctx context.Context, deploymentID string) error {
	mutationErr := s.gateway.DeleteDeployment(ctx, deploymentID)

	if err := s.Versions.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after delete failed", "deployment_id", deploymentID, "error", err)
	}

	return mutationErr
}

// HandleEscape routes a global cancel gesture to the comparison picker.
func (s *Session) HandleEscape() bool {
	return s.Selector.HandleEscape()
}

func (s *Session) onDeploymentEvent(ctx context.Context, event any) error {
	base, ok := event.(interface{ GetWorkflowID() string })
	if ok && base.GetWorkflowID() != s.workflowID {
		return nil
	}

	err := s.Versions.Refresh(ctx)
	if err != nil {
		s.logger.Warn("refresh on deployment event failed", "error", err)
	}

	return nil
}

func (s *Session) onRunFinished(ctx context.Context, event any) error {
	base, ok := event.(interface{ GetWorkflowID() string })
	if ok && base.GetWorkflowID() != s.workflowID {
		return nil
	}

	err := s.Runs.Refresh(ctx)
	if err != nil {
		s.logger.Warn("refresh on run completion failed", "error", err)
	}

	return nil
}
