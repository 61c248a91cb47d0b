package app

import (
	"sync"
	"time"
)

// Operation status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks one CLI or HTTP invocation against the register.
// Operations that change stored data are marked mutating; only those trigger the
// automatic vault snapshot on Close. An operation may be shared by concurrent HTTP
// requests.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	StartedAt  time.Time

	mu       sync.Mutex
	status   string
	mutating bool
}

// NewOperation creates an operation that starts out successful and read-only.
// The id is derived from the start time.
func NewOperation(name, parameters string, startedAt time.Time) *Operation {
	return &Operation{
		ID:         startedAt.UTC().Format("20060102T150405Z"),
		Name:       name,
		Parameters: parameters,
		StartedAt:  startedAt,
		status:     StatusSuccess,
	}
}

// MarkMutating records that the operation wrote to the register.
func (op *Operation) MarkMutating() {
	op.mu.Lock()
	op.mutating = true
	op.mu.Unlock()
}

// Mutating reports whether MarkMutating was called.
func (op *Operation) Mutating() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.mutating
}

// Fail marks the operation as failed. A nil err is ignored.
func (op *Operation) Fail(err error) {
	if err == nil {
		return
	}
	op.mu.Lock()
	op.status = StatusError
	op.mu.Unlock()
}

// Status returns StatusSuccess or StatusError.
func (op *Operation) Status() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.status
}

// Succeeded reports whether no failure was recorded.
func (op *Operation) Succeeded() bool {
	return op.Status() == StatusSuccess
}
