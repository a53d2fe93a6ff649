// Package sagalog records every state transition of an order-creation saga.
//
// The log is an append-only audit trail: one row per transition, carrying the
// trace and span ids that were active when it was written so a row can be
// joined with the distributed trace. Rows for a saga whose last entry is
// COMPENSATING point at orders whose stock restore did not finish.
package sagalog

import "time"

// Status represents the lifecycle state of a saga execution.
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
	// SagaID is the identity pre-assigned to the order being created.
	SagaID      string
	Status      Status
	CurrentStep string

	// Payload is the JSON-serialised order request, written on STARTED only.
	Payload string

	// ErrorMessages is a JSON array of step and compensation failures.
	ErrorMessages string

	TraceID   string
	SpanID    string
	UpdatedAt time.Time
}
