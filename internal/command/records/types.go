// Package records tracks administrator commands through their lifecycle.
package records

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a command.
type Status string

const (
	// StatusValidated means the command was classified and its payload passed validation.
	StatusValidated Status = "validated"
	// StatusExecuting means the dispatcher is applying the side effects.
	StatusExecuting Status = "executing"
	// StatusCommitted means every side effect was applied.
	StatusCommitted Status = "committed"
	// StatusFailed is terminal. A failed command is never retried.
	StatusFailed Status = "failed"
)

var (
	// ErrNotFound is returned for an unknown record id.
	ErrNotFound = errors.New("records: not found")

	// ErrInvalidTransition is returned when a status change skips or reverses a state.
	ErrInvalidTransition = errors.New("records: invalid status transition")
)

// Record is one administrator command.
type Record struct {
	ID      string `json:"id"`
	Command string `json:"command"`

	// Action is the classified action name, empty when classification failed.
	Action string `json:"action,omitempty"`

	Status Status `json:"status"`

	// Message is the user-facing outcome.
	Message string `json:"message,omitempty"`

	// Error holds internal failure details.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Filter narrows List results.
type Filter struct {
	Status Status
	Action string
	Limit  int
	Offset int
}

// Repository stores command records.
type Repository interface {
	// Create stores a new record in either the validated or the failed state.
	Create(ctx context.Context, rec *Record) (*Record, error)

	// Get returns a record by id.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records newest first.
	List(ctx context.Context, filter Filter) ([]*Record, error)

	// Transition moves a record to status, recording message and errMsg.
	Transition(ctx context.Context, id string, status Status, message, errMsg string) error
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusValidated:
		return to == StatusExecuting || to == StatusFailed
	case StatusExecuting:
		return to == StatusCommitted || to == StatusFailed
	default:
		return false
	}
}
