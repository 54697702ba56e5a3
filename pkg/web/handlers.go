package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/sentimento/sentimento/pkg/document"
	"github.com/sentimento/sentimento/pkg/engine"
	"github.com/sentimento/sentimento/pkg/persistence"
)

// ExecutionStarter is the slice of the engine the gateway needs.
type ExecutionStarter interface {
	Start(ctx context.Context, input document.Document) (*engine.Handle, error)
}

type Handlers struct {
	starter    ExecutionStarter
	repository persistence.ExecutionRepository
	schema     *gojsonschema.Schema
	logger     *slog.Logger
}

func NewHandlers(starter ExecutionStarter, repository persistence.ExecutionRepository, logger *slog.Logger) (*Handlers, error) {
	schema, err := compileStartRequestSchema()
	if err != nil {
		return nil, err
	}

	return &Handlers{
		starter:    starter,
		repository: repository,
		schema:     schema,
		logger:     logger,
	}, nil
}

// StartSentiment validates the body, starts an execution and answers with
// the start outcome. The execution's eventual result is never part of this
// response.
func (h *Handlers) StartSentiment(c fiber.Ctx) error {
	requestID := uuid.New().String()

	err := validateStartRequest(h.schema, c.Body())
	if err != nil {
		h.logger.WarnContext(c.Context(), "Rejected start request", "request_id", requestID, "error", err)

		return writeResponse(c, MapStartOutcome(StartError{
			RequestID: requestID,
			Message:   err.Error(),
		}))
	}

	body, err := document.FromJSON(c.Body())
	if err != nil {
		return writeResponse(c, MapStartOutcome(StartError{
			RequestID: requestID,
			Message:   err.Error(),
		}))
	}

	txt, err := body.String("txt")
	if err != nil {
		return writeResponse(c, MapStartOutcome(StartError{
			RequestID: requestID,
			Message:   err.Error(),
		}))
	}

	// Only txt crosses the boundary; anything else the schema would have
	// rejected already.
	handle, err := h.starter.Start(c.Context(), document.New(map[string]any{"txt": txt}))
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to start execution", "request_id", requestID, "error", err)

		return writeResponse(c, MapStartOutcome(StartError{
			RequestID: requestID,
			Message:   "failed to start execution: " + err.Error(),
		}))
	}

	h.logger.InfoContext(c.Context(), "Started execution",
		"request_id", requestID,
		"execution_id", handle.ID,
	)

	return writeResponse(c, MapStartOutcome(StartSuccess{
		RequestID:   requestID,
		ExecutionID: handle.ID,
		StartDate:   handle.StartedAt,
	}))
}

// GetExecution returns the persisted state of one execution.
func (h *Handlers) GetExecution(c fiber.Ctx) error {
	record, err := h.repository.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	body := ExecutionBody{
		ID:           record.ID,
		Status:       record.Status,
		CurrentState: record.CurrentState,
		StartedAt:    record.StartedAt,
		FinishedAt:   record.FinishedAt,
		Error:        record.Error,
	}

	if record.Status == persistence.StatusSucceeded {
		body.Result = record.Document
	}

	return c.JSON(body)
}

func (h *Handlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Sentimento API is healthy"
	httpStatus := fiber.StatusOK
	repositoryCheck := "ok"

	err := h.repository.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Sentimento API is unhealthy"
		httpStatus = fiber.StatusInternalServerError
		repositoryCheck = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func writeResponse(c fiber.Ctx, response Response) error {
	return c.Status(response.StatusCode).JSON(response.Body)
}
