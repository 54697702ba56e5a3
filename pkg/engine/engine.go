// Package engine drives executions of a workflow definition. Start returns a
// handle immediately; the execution itself advances on its own goroutine
// until it reaches SUCCEEDED or FAILED. There is no cancellation of a running
// execution.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sentimento/sentimento/pkg/document"
	"github.com/sentimento/sentimento/pkg/eventbus"
	"github.com/sentimento/sentimento/pkg/events"
	"github.com/sentimento/sentimento/pkg/otelhelper"
	"github.com/sentimento/sentimento/pkg/persistence"
	"github.com/sentimento/sentimento/pkg/statemachine"
)

const defaultMaxConcurrent = 256

type Engine struct {
	definition *statemachine.Definition
	repository persistence.ExecutionRepository
	eventBus   eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
	slots      chan struct{}
	wg         sync.WaitGroup
}

// NewEngine wires an engine for one definition. maxConcurrent bounds the
// number of executions in flight; Start fails fast once the bound is reached.
func NewEngine(
	definition *statemachine.Definition,
	repository persistence.ExecutionRepository,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	maxConcurrent int,
) *Engine {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	return &Engine{
		definition: definition,
		repository: repository,
		eventBus:   eventBus,
		logger:     logger,
		tracer:     otel.Tracer("sentimento/engine"),
		slots:      make(chan struct{}, maxConcurrent),
	}
}

// Start creates an execution for the input document and schedules it. It
// returns before the first state runs; failures after this point never reach
// the caller and are only observable through the execution's persisted state
// and the execution log.
func (e *Engine) Start(ctx context.Context, input document.Document) (*Handle, error) {
	select {
	case e.slots <- struct{}{}:
	default:
		return nil, ErrEngineSaturated
	}

	execution := &Execution{
		ID:           "exec-" + uuid.New().String(),
		Document:     input,
		CurrentState: e.definition.StartAt(),
		Status:       StatusRunning,
		StartedAt:    time.Now().UTC(),
	}

	err := e.repository.Save(ctx, execution.record())
	if err != nil {
		<-e.slots

		return nil, fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	started := events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, execution.ID),
		Input:     input.Fields(),
	}
	e.publish(ctx, execution.ID, started)

	// The run loop must outlive the request that started it, and must not
	// keep reading from it either: HTTP servers recycle the request context
	// the moment the handler returns. Only the active span crosses over.
	runCtx := trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx))

	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		defer func() { <-e.slots }()

		e.run(runCtx, execution)
	}()

	return &Handle{ID: execution.ID, StartedAt: execution.StartedAt}, nil
}

// Drain waits for all in-flight executions to finish.
func (e *Engine) Drain() {
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context, execution *Execution) {
	logger := e.logger.With("execution_id", execution.ID)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "execution",
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
	)
	defer span.End()

	logger.InfoContext(ctx, "Starting execution", "start_state", execution.CurrentState)

	for execution.Status == StatusRunning {
		state, ok := e.definition.State(execution.CurrentState)
		if !ok {
			// Unreachable for a validated definition.
			e.fail(ctx, logger, span, execution, fmt.Errorf("state %q does not exist", execution.CurrentState))

			return
		}

		e.publish(ctx, execution.ID, events.StateEntered{
			BaseEvent: events.NewBaseEvent(events.StateEnteredEvent, execution.ID),
			State:     execution.CurrentState,
		})

		next, doc, err := e.step(ctx, logger, execution.CurrentState, state, execution.Document)
		if err != nil {
			e.fail(ctx, logger, span, execution, fmt.Errorf("state %q: %w", execution.CurrentState, err))

			return
		}

		execution.Document = doc

		if next == "" {
			e.succeed(ctx, logger, execution)

			return
		}

		execution.CurrentState = next
		e.save(ctx, logger, execution)
	}
}

// step runs a single state and returns the next state name. An empty next
// name means the execution is complete.
func (e *Engine) step(
	ctx context.Context,
	logger *slog.Logger,
	name string,
	state statemachine.State,
	doc document.Document,
) (string, document.Document, error) {
	switch s := state.(type) {
	case statemachine.Task:
		merged, err := e.runTask(ctx, logger, name, s, doc)
		if err != nil {
			return "", doc, err
		}

		return s.Next, merged, nil

	case statemachine.Pass:
		applied, err := s.Apply(doc)
		if err != nil {
			return "", doc, fmt.Errorf("%w: %w", ErrStepOutput, err)
		}

		return s.Next, applied, nil

	case statemachine.Choice:
		next, err := e.route(s, doc)
		if err != nil {
			return "", doc, err
		}

		return next, doc, nil

	default:
		return "", doc, fmt.Errorf("unsupported state kind %T", state)
	}
}

func (e *Engine) runTask(
	ctx context.Context,
	logger *slog.Logger,
	name string,
	task statemachine.Task,
	doc document.Document,
) (document.Document, error) {
	request, err := task.BuildInput(doc)
	if err != nil {
		return doc, fmt.Errorf("%w: %w", ErrStepOutput, err)
	}

	logger.InfoContext(ctx, "Invoking capability", "state", name, "capability", task.Capability)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "capability",
		attribute.String(otelhelper.StateNameKey, name),
		attribute.String(otelhelper.CapabilityKey, task.Capability),
	)
	defer span.End()

	response, err := task.Invoke(ctx, request)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.CapabilityKey, task.Capability))

		return doc, fmt.Errorf("%w: %s: %w", ErrCapability, task.Capability, err)
	}

	if task.MergeResult == nil {
		return response, nil
	}

	return task.MergeResult(doc, response), nil
}

// route evaluates choice rules in declared order; the first match wins.
func (e *Engine) route(choice statemachine.Choice, doc document.Document) (string, error) {
	for _, rule := range choice.Rules {
		match, err := rule.When.Evaluate(doc)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRouting, err)
		}

		if match {
			return rule.Next, nil
		}
	}

	if choice.Default == "" {
		return "", ErrRouting
	}

	return choice.Default, nil
}

func (e *Engine) succeed(ctx context.Context, logger *slog.Logger, execution *Execution) {
	execution.Status = StatusSucceeded
	execution.FinishedAt = time.Now().UTC()
	e.save(ctx, logger, execution)

	e.publish(ctx, execution.ID, events.ExecutionSucceeded{
		BaseEvent: events.NewBaseEvent(events.ExecutionSucceededEvent, execution.ID),
		Result:    execution.Document.Fields(),
		Duration:  execution.FinishedAt.Sub(execution.StartedAt),
	})

	logger.InfoContext(ctx, "Execution succeeded", "duration", execution.FinishedAt.Sub(execution.StartedAt))
}

func (e *Engine) fail(ctx context.Context, logger *slog.Logger, span trace.Span, execution *Execution, err error) {
	execution.Status = StatusFailed
	execution.Err = err
	execution.FinishedAt = time.Now().UTC()
	e.save(ctx, logger, execution)

	otelhelper.SetError(span, err, attribute.String(otelhelper.StateNameKey, execution.CurrentState))
	e.publish(ctx, execution.ID, events.ExecutionFailed{
		BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, execution.ID),
		State:     execution.CurrentState,
		Error:     err.Error(),
		Duration:  execution.FinishedAt.Sub(execution.StartedAt),
	})

	logger.ErrorContext(ctx, "Execution failed", "state", execution.CurrentState, "error", err)
}

func (e *Engine) save(ctx context.Context, logger *slog.Logger, execution *Execution) {
	err := e.repository.Save(ctx, execution.record())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to save execution", "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
