// Package inproc implements the boundary gateway directly over the service
// layer, for single-process deployments and tests.
package inproc

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/gateway"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/otelhelper"
	"github.com/flowdeck/flowdeck/pkg/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Gateway struct {
	deployments *services.Deployments
	runs        *services.Runs
	tracer      trace.Tracer
}

// NewGateway creates a gateway over the given services. A nil tracer disables
// span recording.
func NewGateway(deployments *services.Deployments, runs *services.Runs, tracer trace.Tracer) *Gateway {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("flowdeck")
	}

	return &Gateway{
		deployments: deployments,
		runs:        runs,
		tracer:      tracer,
	}
}

func (g *Gateway) FetchDeployments(ctx context.Context, workflowID string) ([]*models.Deployment, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "gateway.fetch_deployments",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	deployments, err := g.deployments.List(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, gateway.WrapError("fetch_deployments", gateway.KindFetch, err)
	}

	return deployments, nil
}

func (g *Gateway) SubmitDeployment(ctx context.Context, workflowID string, target models.DeploymentTarget, description string, draft *models.Workflow) (*models.RawDeployResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "gateway.submit_deployment",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.TargetKey, string(target)),
	)
	defer span.End()

	result, err := g.deployments.Deploy(ctx, services.DeployRequest{
		WorkflowID:  workflowID,
		Target:      target,
		Description: description,
		Draft:       draft,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, gateway.WrapError("submit_deployment", gateway.KindSubmit, err)
	}

	span.SetAttributes(attribute.Int64(otelhelper.VersionKey, result.Version))

	return result, nil
}

func (g *Gateway) ToggleDeploymentActive(ctx context.Context, deploymentID string) error {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "gateway.toggle_deployment",
		attribute.String(otelhelper.DeploymentIDKey, deploymentID),
	)
	defer span.End()

	_, err := g.deployments.Toggle(ctx, deploymentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return gateway.WrapError("toggle_deployment", gateway.KindMutation, err)
	}

	return nil
}

func (g *Gateway) DeleteDeployment(ctx context.Context, deploymentID string) error {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "gateway.delete_deployment",
		attribute.String(otelhelper.DeploymentIDKey, deploymentID),
	)
	defer span.End()

	err := g.deployments.Delete(ctx, deploymentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return gateway.WrapError("delete_deployment", gateway.KindMutation, err)
	}

	return nil
}

func (g *Gateway) FetchRuns(ctx context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "gateway.fetch_runs",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	runs, err := g.runs.List(ctx, workflowID, query)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, gateway.WrapError("fetch_runs", gateway.KindFetch, err)
	}

	return runs, nil
}

func (g *Gateway) FetchRun(ctx context.Context, workflowID, runID string) (*models.Run, error) {
	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "gateway.fetch_run",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.RunIDKey, runID),
	)
	defer span.End()

	run, err := g.runs.Get(ctx, workflowID, runID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, gateway.WrapError("fetch_run", gateway.KindFetch, err)
	}

	return run, nil
}
