package web

import (
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case persistence.IsDeploymentNotFound(err):
		return notFound(c, "Deployment not found")

	case persistence.IsRunNotFound(err):
		return notFound(c, "Run not found")

	case persistence.IsInvalidSortField(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("invalid_sort_field").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	default:
		// Log unexpected errors but don't expose details
		return internalError(c, err)
	}
}
