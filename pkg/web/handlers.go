// Package web provides HTTP handlers and REST API endpoints for deployment
// and run history management.
package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	deploymentService *services.Deployments
	runService        *services.Runs
	validator         *validator.Validate
}

func NewAPIHandlers(
	deploymentService *services.Deployments,
	runService *services.Runs,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		deploymentService: deploymentService,
		runService:        runService,
		validator:         validator,
	}
}

func (h *APIHandlers) GetDeployments(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	deployments, err := h.deploymentService.List(c.Context(), workflowID)
	if err != nil {
		return handleServiceError(c, err)
	}

	responses := make([]DeploymentResponse, 0, len(deployments))
	for _, deployment := range deployments {
		responses = append(responses, TransformDeploymentResponse(deployment))
	}

	return c.JSON(fiber.Map{
		"deployments": responses,
		"count":       len(responses),
	})
}

func (h *APIHandlers) CreateDeployment(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req DeployRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON payload: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	target, err := models.ParseDeploymentTarget(req.Target)
	if err != nil {
		return badRequest(c, "Unknown deployment target: "+req.Target)
	}

	result, err := h.deploymentService.Deploy(c.Context(), services.DeployRequest{
		WorkflowID:  workflowID,
		Target:      target,
		Description: req.Description,
		Draft:       req.Draft,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(result)
}

func (h *APIHandlers) ToggleDeployment(c fiber.Ctx) error {
	deploymentID := c.Params("id")
	if deploymentID == "" {
		return badRequest(c, "Deployment ID is required")
	}

	deployment, err := h.deploymentService.Toggle(c.Context(), deploymentID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformDeploymentResponse(deployment))
}

func (h *APIHandlers) DeleteDeployment(c fiber.Ctx) error {
	deploymentID := c.Params("id")
	if deploymentID == "" {
		return badRequest(c, "Deployment ID is required")
	}

	err := h.deploymentService.Delete(c.Context(), deploymentID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	query, err := h.parseRunQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	runs, err := h.runService.List(c.Context(), workflowID, *query)
	if err != nil {
		return handleServiceError(c, err)
	}

	responses := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, TransformRunResponse(run))
	}

	return c.JSON(fiber.Map{
		"runs":  responses,
		"count": len(responses),
		"sorting": fiber.Map{
			"sort_by":    query.SortKey,
			"sort_order": query.SortOrder,
		},
	})
}

// parseRunQuery parses filtering and sorting query parameters for a run
// listing. Sort keys are validated downstream against the allowlist.
func (h *APIHandlers) parseRunQuery(c fiber.Ctx) (*models.RunQuery, error) {
	query := &models.RunQuery{
		SortKey:   models.RunSortKey(c.Query("sort_by")),
		SortOrder: models.SortOrder(c.Query("sort_order")),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		for _, status := range strings.Split(statusStr, ",") {
			query.Statuses = append(query.Statuses, models.RunStatus(strings.TrimSpace(status)))
		}
	}

	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return nil, err
		}

		query.Since = &since
	}

	if untilStr := c.Query("until"); untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return nil, err
		}

		query.Until = &until
	}

	return query, nil
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	workflowID := c.Params("id")
	runID := c.Params("runId")

	if workflowID == "" || runID == "" {
		return badRequest(c, "Workflow ID and run ID are required")
	}

	run, err := h.runService.Get(c.Context(), workflowID, runID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformRunResponse(run))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.deploymentService.HealthCheck(c.Context())
	if !healthy {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"message": message,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": message,
	})
}

// RegisterRoutes wires the API surface onto the fiber app.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	app.Get("/health", handlers.HealthCheck)

	app.Get("/workflows/:id/deployments", handlers.GetDeployments)
	app.Post("/workflows/:id/deployments", handlers.CreateDeployment)
	app.Post("/deployments/:id/toggle", handlers.ToggleDeployment)
	app.Delete("/deployments/:id", handlers.DeleteDeployment)

	app.Get("/workflows/:id/runs", handlers.GetRuns)
	app.Get("/workflows/:id/runs/:runId", handlers.GetRun)
}
