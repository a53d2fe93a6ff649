package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog"
)

var tracer = otel.Tracer("github.com/jcmexdev/ecommerce-catalog/internal/coordinator")

// Step represents a single unit of work in the Saga.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator manages the execution of a collection of Steps.
type Orchestrator struct {
	sagaID  string
	steps   []Step
	logRepo sagalog.Repository // nil-safe: transitions are not persisted if nil
	payload string
}

type Option func(*Orchestrator)

// WithPayload stores the serialised input on the STARTED log entry so the
// saga can be inspected or replayed from the log.
func WithPayload(payload string) Option {
	return func(o *Orchestrator) { o.payload = payload }
}

func NewOrchestrator(sagaID string, steps []Step, logRepo sagalog.Repository, opts ...Option) *Orchestrator {
	o := &Orchestrator{sagaID: sagaID, steps: steps, logRepo: logRepo}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start runs the saga steps sequentially.
// If a step fails, it triggers the compensation of all previously successful
// steps and returns the step's error unchanged. Compensation and the failure
// log entries ignore cancellation of ctx but keep its values and span.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "saga.run", traceAttrs(o.sagaID))
	defer span.End()

	o.record(ctx, sagalog.StatusStarted, "", o.payload, nil)

	var successfulSteps []Step

	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", o.sagaID, "step", step.Name())
		if err := o.execute(ctx, step); err != nil {
			slog.WarnContext(ctx, "saga step failed, starting rollback", "saga_id", o.sagaID, "step", step.Name(), "error", err)
			// the caller may be gone already; compensation must still run
			rbCtx := context.WithoutCancel(ctx)
			errs := []string{fmt.Sprintf("step %s failed: %v", step.Name(), err)}
			o.record(rbCtx, sagalog.StatusCompensating, step.Name(), "", errs)

			errs = append(errs, o.rollback(rbCtx, successfulSteps)...)
			o.record(rbCtx, sagalog.StatusFailed, step.Name(), "", errs)

			span.RecordError(err)
			span.SetStatus(codes.Error, "saga failed")
			return err
		}
		// Track successful step for potential compensation (LIFO)
		successfulSteps = append(successfulSteps, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	slog.DebugContext(ctx, "saga completed", "saga_id", o.sagaID)
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, step Step) error {
	ctx, span := tracer.Start(ctx, step.Name(), traceAttrs(o.sagaID))
	defer span.End()

	if err := step.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating saga step", "saga_id", o.sagaID, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate step", "saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.logRepo == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, status, step, payload, errs)
	if err := o.logRepo.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to persist saga log entry", "saga_id", o.sagaID, "status", status, "error", err)
	}
}

func traceAttrs(sagaID string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("saga.id", sagaID))
}
