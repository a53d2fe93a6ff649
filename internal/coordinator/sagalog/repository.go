package sagalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no entry exists for a saga.
var ErrNotFound = errors.New("sagalog: saga not found")

// Repository is the port for persisting saga log entries. The orchestrator
// depends on this abstraction, not on SQLite directly.
type Repository interface {
	// Save appends a new entry; existing rows are never updated.
	Save(ctx context.Context, entry *SagaLog) error
}
