package report

import "github.com/approvalflow/workflow-client/internal/request/model"

// StatusLabel is the display label of a status; unknown values are shown as is
func StatusLabel(s model.Status) string {
	switch s {
	case model.StatusPending:
		return "Pending"
	case model.StatusApproved:
		return "Approved"
	case model.StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// PriorityLabel is the display label of a priority
func PriorityLabel(p model.Priority) string {
	if parsed, ok := model.ParsePriority(string(p)); ok {
		return string(parsed)
	}
	return string(p)
}
