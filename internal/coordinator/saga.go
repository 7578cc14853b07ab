package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/ecommerce-orders/internal/coordinator/sagalog"
)

// Step represents a single unit of work in the Saga.
// Compensate undoes whatever Execute made visible; read-only steps may leave it empty.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator manages the execution of a collection of Steps.
type Orchestrator struct {
	steps []Step
	log   sagalog.Repository
}

type Option func(*Orchestrator)

// WithLog records every transition of the saga in repo.
func WithLog(repo sagalog.Repository) Option {
	return func(o *Orchestrator) { o.log = repo }
}

func NewOrchestrator(steps []Step, opts ...Option) *Orchestrator {
	o := &Orchestrator{steps: steps}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start runs the saga steps sequentially.
// If a step fails, it triggers the compensation of all previously successful steps
// and returns the step's error unchanged.
func (o *Orchestrator) Start(ctx context.Context, sagaID, payload string) error {
	o.record(ctx, sagalog.NewEntry(ctx, sagaID, sagalog.StatusStarted, "", payload, nil))

	var successfulSteps []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", sagaID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "saga step failed, starting rollback",
				"saga_id", sagaID, "step", step.Name(), "error", err)

			errs := []string{fmt.Sprintf("step %s failed: %v", step.Name(), err)}
			o.record(ctx, sagalog.NewEntry(ctx, sagaID, sagalog.StatusCompensating, step.Name(), "", errs))
			errs = append(errs, o.rollback(ctx, sagaID, successfulSteps)...)
			o.record(ctx, sagalog.NewEntry(ctx, sagaID, sagalog.StatusFailed, step.Name(), "", errs))
			return err
		}
		// Track successful step for potential compensation (LIFO)
		successfulSteps = append(successfulSteps, step)
		o.record(ctx, sagalog.NewEntry(ctx, sagaID, sagalog.StatusStepDone, step.Name(), "", nil))
	}

	o.record(ctx, sagalog.NewEntry(ctx, sagaID, sagalog.StatusCompleted, "", "", nil))
	slog.DebugContext(ctx, "saga completed", "saga_id", sagaID)
	return nil
}

// rollback outlives a cancelled request; compensations must still run.
func (o *Orchestrator) rollback(ctx context.Context, sagaID string, steps []Step) []string {
	ctx = context.WithoutCancel(ctx)
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating saga step", "saga_id", sagaID, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to compensate saga step",
				"saga_id", sagaID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

// record never fails the saga; a lost log row only costs observability.
func (o *Orchestrator) record(ctx context.Context, entry *sagalog.SagaLog) {
	if o.log == nil {
		return
	}
	if err := o.log.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to write saga log", "saga_id", entry.SagaID, "status", entry.Status, "error", err)
	}
}
