package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/sentimento/sentimento/pkg/persistence"
)

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("execution_not_found").
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

// handleRepositoryError maps execution-store errors for the retrieval
// endpoint. The start endpoint has its own wire contract and never uses
// problem responses.
func handleRepositoryError(c fiber.Ctx, err error) error {
	if persistence.IsExecutionNotFound(err) {
		return notFound(c, "execution not found")
	}

	return internalError(c, err)
}
