package model

import "strings"

// OrderField names the record attribute the list is sorted by
type OrderField string

const (
	OrderByCreatedAt OrderField = "created_at"
	OrderByTitle     OrderField = "title"
	OrderByCategory  OrderField = "category"
	OrderByPriority  OrderField = "priority"
	OrderByStatus    OrderField = "status"
)

// ParseOrderField resolves an order field name, accepting snake and camel case
func ParseOrderField(value string) (OrderField, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "")
	switch normalized {
	case "createdat", "created", "creationtime":
		return OrderByCreatedAt, true
	case "title":
		return OrderByTitle, true
	case "category":
		return OrderByCategory, true
	case "priority":
		return OrderByPriority, true
	case "status":
		return OrderByStatus, true
	}
	return "", false
}

// OrderDirection is ascending or descending
type OrderDirection string

const (
	Ascending  OrderDirection = "asc"
	Descending OrderDirection = "desc"
)

// ParseOrderDirection resolves "asc"/"desc" case-insensitively
func ParseOrderDirection(value string) (OrderDirection, bool) {
	switch OrderDirection(strings.ToLower(strings.TrimSpace(value))) {
	case Ascending:
		return Ascending, true
	case Descending:
		return Descending, true
	}
	return "", false
}

// FilterCriteria is the user's list selection. Empty fields impose no constraint.
type FilterCriteria struct {
	Status         Status         `json:"status,omitempty" form:"status"`
	Category       string         `json:"category,omitempty" form:"category"`
	Priority       Priority       `json:"priority,omitempty" form:"priority"`
	Search         string         `json:"search,omitempty" form:"search"`
	CreatedBy      string         `json:"createdBy,omitempty" form:"createdBy"`
	OrderBy        OrderField     `json:"orderBy,omitempty" form:"orderBy"`
	OrderDirection OrderDirection `json:"orderDirection,omitempty" form:"orderDirection"`
}

// SameFilters reports whether c and other select the same records, ignoring ordering
func (c FilterCriteria) SameFilters(other FilterCriteria) bool {
	return c.Status == other.Status &&
		c.Category == other.Category &&
		c.Priority == other.Priority &&
		c.Search == other.Search &&
		c.CreatedBy == other.CreatedBy
}

// WithoutFilters returns a copy of c with every filter field cleared and ordering kept
func (c FilterCriteria) WithoutFilters() FilterCriteria {
	return FilterCriteria{OrderBy: c.OrderBy, OrderDirection: c.OrderDirection}
}

// Page is the displayed slice of the filtered and sorted working set
type Page struct {
	Items      []RequestRecord `json:"items" yaml:"items"`
	Page       int             `json:"page" yaml:"page"`
	PageSize   int             `json:"pageSize" yaml:"page_size"`
	TotalItems int             `json:"totalItems" yaml:"total_items"`
	TotalPages int             `json:"totalPages" yaml:"total_pages"`
}

// ListQuery carries the optional server-side hints sent with a list fetch.
// The remote API may ignore any of them.
type ListQuery struct {
	Status         Status
	Category       string
	Priority       Priority
	Search         string
	CreatedBy      string
	Page           int
	PageSize       int
	OrderBy        OrderField
	OrderDirection OrderDirection
}
