// Package sagalog defines the append-only log written while an order is being
// created. Each row is one transition of one saga run, correlated with the
// distributed trace that produced it.
package sagalog

import "time"

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// SagaLog is a single row in the saga_logs table.
type SagaLog struct {
	// SagaID is the id of the order being created, assigned before the first step.
	SagaID string

	Status Status

	// CurrentStep is the step that just completed or failed. Empty on
	// STARTED and COMPLETED rows.
	CurrentStep string

	// Payload is the JSON request that started the saga. Only set on STARTED.
	Payload string

	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string

	TraceID string
	SpanID  string

	UpdatedAt time.Time
}
