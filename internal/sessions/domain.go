package sessions

import (
	"fmt"
	"time"
)

// Kind classifies a legislative session.
type Kind string

const (
	KindOrdinary      Kind = "ORDINARY"
	KindExtraordinary Kind = "EXTRAORDINARY"
	KindSolemn        Kind = "SOLEMN"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindOrdinary, KindExtraordinary, KindSolemn:
		return true
	}
	return false
}

// Status tracks a session through its lifecycle.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusOpen      Status = "OPEN"
	StatusClosed    Status = "CLOSED"
	StatusCancelled Status = "CANCELLED"
)

// CanTransitionTo enforces the session lifecycle: a session opens, then
// closes; only a scheduled session can be cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusScheduled:
		return next == StatusOpen || next == StatusCancelled
	case StatusOpen:
		return next == StatusClosed
	default:
		return false
	}
}

// Session represents a sitting of a council.
type Session struct {
	ID          string    `json:"id"`
	CouncilID   string    `json:"councilId"`
	Number      int       `json:"number"`
	Kind        Kind      `json:"kind"`
	Status      Status    `json:"status"`
	ScheduledAt time.Time `json:"scheduledAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SessionInput carries the writable fields of a session.
type SessionInput struct {
	Number      int
	Kind        Kind
	ScheduledAt time.Time
}

// Validate checks the input invariants.
func (in SessionInput) Validate() error {
	if in.Number <= 0 {
		return fmt.Errorf("session number must be positive")
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("unknown session kind %q", in.Kind)
	}
	if in.ScheduledAt.IsZero() {
		return fmt.Errorf("session needs a scheduled time")
	}
	return nil
}
