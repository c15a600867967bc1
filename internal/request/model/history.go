package model

import "time"

// HistoryEntry is one audit line of a request's lifecycle. Entries are read-only
// and fetched per request.
type HistoryEntry struct {
	ID          string    `json:"id" yaml:"id"`
	RequestID   string    `json:"requestId" yaml:"request_id"`
	Action      string    `json:"action" yaml:"action"`
	Description string    `json:"description" yaml:"description"`
	ActorID     string    `json:"userId" yaml:"user_id"`
	Timestamp   time.Time `json:"createdAt" yaml:"created_at"`
	OldValue    string    `json:"oldValue" yaml:"old_value"`
	NewValue    string    `json:"newValue" yaml:"new_value"`
}

// RequestDetail is a single request together with its history and whether
// the current identity may review it.
type RequestDetail struct {
	Request RequestRecord  `json:"request" yaml:"request"`
	History []HistoryEntry `json:"history" yaml:"history"`
	CanAct  bool           `json:"canAct" yaml:"can_act"`
}
