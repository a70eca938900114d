package matters

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Status tracks a matter through the legislative workflow.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusInCommittee Status = "IN_COMMITTEE"
	StatusOnAgenda    Status = "ON_AGENDA"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusArchived    Status = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInCommittee, StatusOnAgenda, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// Matter represents a legislative matter (bill, motion, request).
type Matter struct {
	ID        string    `json:"id"`
	CouncilID string    `json:"councilId"`
	SessionID string    `json:"sessionId,omitempty"`
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Author    string    `json:"author"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MatterInput carries the writable fields of a matter.
type MatterInput struct {
	SessionID string
	Code      string
	Title     string
	Summary   string
	Author    string
	Status    Status
}

// Validate checks the input invariants.
func (in MatterInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("matter code is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("matter title is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("unknown matter status %q", in.Status)
	}
	return nil
}

var folder = cases.Fold()

// SearchKey normalizes free text for case-insensitive matching; the same
// folding is applied at write time and query time.
func SearchKey(parts ...string) string {
	return folder.String(strings.Join(parts, " "))
}
