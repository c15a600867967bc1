package model

import (
	"strings"
	"time"
)

// Priority is the urgency of a request, ordered Low < Medium < High
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var priorityRanks = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
}

// Priorities returns all priorities in declaration order
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Rank returns the declaration index of the priority and whether it is known
func (p Priority) Rank() (int, bool) {
	rank, ok := priorityRanks[p]
	return rank, ok
}

// IsValid reports whether p is one of the declared priorities
func (p Priority) IsValid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// ParsePriority resolves a priority name case-insensitively.
// Portuguese labels used by older API builds are accepted as well.
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low", "baixa":
		return PriorityLow, true
	case "medium", "media", "média":
		return PriorityMedium, true
	case "high", "alta":
		return PriorityHigh, true
	}
	return "", false
}

// PriorityFromOrdinal resolves the numeric wire form (0, 1, 2)
func PriorityFromOrdinal(ordinal int) (Priority, bool) {
	for p, rank := range priorityRanks {
		if rank == ordinal {
			return p, true
		}
	}
	return "", false
}

// Status is the review state of a request, ordered Pending < Approved < Rejected
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var statusRanks = map[Status]int{
	StatusPending:  0,
	StatusApproved: 1,
	StatusRejected: 2,
}

// Statuses returns all statuses in declaration order
func Statuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected}
}

// Rank returns the declaration index of the status and whether it is known
func (s Status) Rank() (int, bool) {
	rank, ok := statusRanks[s]
	return rank, ok
}

// IsValid reports whether s is one of the declared statuses
func (s Status) IsValid() bool {
	_, ok := statusRanks[s]
	return ok
}

// ParseStatus resolves a status name case-insensitively
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate, true
	}
	return "", false
}

// StatusFromOrdinal resolves the numeric wire form (0, 1, 2)
func StatusFromOrdinal(ordinal int) (Status, bool) {
	for s, rank := range statusRanks {
		if rank == ordinal {
			return s, true
		}
	}
	return "", false
}

// RequestRecord is a request as returned by the remote API. Records are
// replaced wholesale on refetch and never modified in place.
type RequestRecord struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Category    string     `json:"category" yaml:"category"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	Status      Status     `json:"status" yaml:"status"`
	CreatorID   string     `json:"createdBy" yaml:"created_by"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"created_at"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// IsPending reports whether the request still awaits review
func (r RequestRecord) IsPending() bool {
	return r.Status == StatusPending
}

// Draft holds the fields a user fills in to submit a new request
type Draft struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Description string   `json:"description" validate:"required,min=10"`
	Category    string   `json:"category" validate:"required"`
	Priority    Priority `json:"priority" validate:"required,priority"`
}

// RejectInput carries the reviewer's reason for rejecting a request
type RejectInput struct {
	Reason string `json:"reason" validate:"required,min=5"`
}
