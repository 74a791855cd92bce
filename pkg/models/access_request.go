package models

import (
	"time"

	"github.com/google/uuid"
)

// Access type constants for data-access grants.
const (
	AccessTypeRole = "ROLE"
	AccessTypeUser = "USER"
)

// AccessRequest represents a request for table-level read access with a
// validity window. Its lifecycle is a strict subset of ChangeRequest's:
// pending -> approved | denied, with no return-for-info or resubmission.
type AccessRequest struct {
	ID              uuid.UUID  `json:"id"`
	TableFullName   string     `json:"table_full_name"`
	Requester       string     `json:"requester"`
	Justification   string     `json:"justification"`
	AccessType      string     `json:"access_type"`
	GrantToName     string     `json:"grant_to_name"`
	AccessStartDate time.Time  `json:"access_start_date"`
	AccessEndDate   time.Time  `json:"access_end_date"`
	Status          string     `json:"status"`
	Approver        *string    `json:"approver,omitempty"`
	DecisionComment *string    `json:"decision_comment,omitempty"`
	DecisionDate    *time.Time `json:"decision_date,omitempty"`
	RequestedAt     time.Time  `json:"requested_at"`
}

// IsTerminal reports whether the request has reached a terminal status.
func (r *AccessRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusDenied
}

// ValidAccessType reports whether t is a known access grant type.
func ValidAccessType(t string) bool {
	return t == AccessTypeRole || t == AccessTypeUser
}
