// Package request holds the client-side list engine and the review action gate.
package request

import (
	"slices"
	"sort"
	"strings"

	"github.com/approvalflow/workflow-client/internal/request/model"
	"github.com/approvalflow/workflow-client/internal/system/error/codes"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
)

// Engine filters, sorts and paginates the authorized working set.
//
// The displayed page always equals
// sort(filter(workingSet, criteria))[(page-1)*size : page*size]
// and the page count is derived from the filtered count.
// An Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	workingSet []model.RequestRecord
	identity   sessionmodel.Identity
	categories []string

	criteria model.FilterCriteria
	view     []model.RequestRecord
	page     int
	pageSize int
}

// NewEngine creates an empty engine with the given page size and default ordering
func NewEngine(pageSize int, orderBy model.OrderField, direction model.OrderDirection) *Engine {
	if pageSize <= 0 {
		pageSize = 10
	}
	if orderBy == "" {
		orderBy = model.OrderByCreatedAt
	}
	if direction == "" {
		direction = model.Descending
	}
	return &Engine{
		page:     1,
		pageSize: pageSize,
		criteria: model.FilterCriteria{OrderBy: orderBy, OrderDirection: direction},
		view:     []model.RequestRecord{},
	}
}

// LoadWorkingSet replaces the working set. Identities without the Manager role
// only ever see their own records; that narrowing lasts for the loaded set.
func (e *Engine) LoadWorkingSet(records []model.RequestRecord, identity sessionmodel.Identity) {
	e.identity = identity

	manager := identity.IsManager()
	set := make([]model.RequestRecord, 0, len(records))
	for _, record := range records {
		if !manager && (identity.ID == "" || record.CreatorID != identity.ID) {
			continue
		}
		set = append(set, record)
	}
	e.workingSet = set
	e.categories = distinctCategories(set)

	if !manager {
		e.criteria.CreatedBy = ""
	}

	e.recompute()
	if totalPages := e.totalPages(); e.page > totalPages {
		e.page = totalPages
	}
}

// ApplyFilters sets the list criteria. Any change to a filter field returns to
// the first page; a change of ordering alone keeps the current page.
func (e *Engine) ApplyFilters(criteria model.FilterCriteria) {
	criteria = e.normalize(criteria)
	changed := !e.criteria.SameFilters(criteria)

	e.criteria = criteria
	e.recompute()

	if changed {
		e.page = 1
	} else if totalPages := e.totalPages(); e.page > totalPages {
		e.page = totalPages
	}
}

// ClearFilters drops every filter field and keeps the ordering
func (e *Engine) ClearFilters() {
	e.ApplyFilters(e.criteria.WithoutFilters())
}

// SortBy changes the ordering without leaving the current page
func (e *Engine) SortBy(field model.OrderField, direction model.OrderDirection) {
	next := e.criteria
	next.OrderBy = field
	next.OrderDirection = direction
	e.ApplyFilters(next)
}

// SetPage moves to page. Out of range pages are ignored.
func (e *Engine) SetPage(page int) {
	if page < 1 || page > e.totalPages() {
		return
	}
	e.page = page
}

// SetPageSize changes the page size and returns to the first page.
// The filter criteria are kept.
func (e *Engine) SetPageSize(size int) *serviceerror.ServiceError {
	if size <= 0 {
		err := serviceerror.FieldValidationError(map[string]string{"pageSize": "page size must be positive"})
		err.Code = codes.InvalidPageSize
		return err
	}
	e.pageSize = size
	e.page = 1
	return nil
}

// CurrentPage returns the displayed page
func (e *Engine) CurrentPage() model.Page {
	total := len(e.view)
	start := (e.page - 1) * e.pageSize
	if start > total {
		start = total
	}
	end := start + e.pageSize
	if end > total {
		end = total
	}

	items := make([]model.RequestRecord, end-start)
	copy(items, e.view[start:end])

	return model.Page{
		Items:      items,
		Page:       e.page,
		PageSize:   e.pageSize,
		TotalItems: total,
		TotalPages: e.totalPages(),
	}
}

// Criteria returns the active criteria
func (e *Engine) Criteria() model.FilterCriteria {
	return e.criteria
}

// Categories returns the sorted distinct categories of the working set
func (e *Engine) Categories() []string {
	return slices.Clone(e.categories)
}

// PageNumbers returns a window of at most maxVisible page numbers around the current page
func (e *Engine) PageNumbers(maxVisible int) []int {
	if maxVisible <= 0 {
		return nil
	}
	totalPages := e.totalPages()
	start := e.page - maxVisible/2
	if start < 1 {
		start = 1
	}
	end := start + maxVisible - 1
	if end > totalPages {
		end = totalPages
	}
	if end-start+1 < maxVisible {
		start = end - maxVisible + 1
		if start < 1 {
			start = 1
		}
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

func (e *Engine) totalPages() int {
	pages := (len(e.view) + e.pageSize - 1) / e.pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func (e *Engine) normalize(criteria model.FilterCriteria) model.FilterCriteria {
	if criteria.OrderBy == "" {
		criteria.OrderBy = e.criteria.OrderBy
	}
	if criteria.OrderDirection == "" {
		criteria.OrderDirection = e.criteria.OrderDirection
	}
	criteria.CreatedBy = strings.TrimSpace(criteria.CreatedBy)
	if !e.identity.IsManager() {
		criteria.CreatedBy = ""
	}
	return criteria
}

func (e *Engine) recompute() {
	filtered := make([]model.RequestRecord, 0, len(e.workingSet))
	for _, record := range e.workingSet {
		if matches(record, e.criteria) {
			filtered = append(filtered, record)
		}
	}
	sortRecords(filtered, e.criteria.OrderBy, e.criteria.OrderDirection)
	e.view = filtered
}

func matches(record model.RequestRecord, criteria model.FilterCriteria) bool {
	if criteria.Status != "" && record.Status != criteria.Status {
		return false
	}
	if criteria.Category != "" && record.Category != criteria.Category {
		return false
	}
	if criteria.Priority != "" && record.Priority != criteria.Priority {
		return false
	}
	if criteria.Search != "" {
		term := strings.ToLower(criteria.Search)
		if !strings.Contains(strings.ToLower(record.Title), term) &&
			!strings.Contains(strings.ToLower(record.Description), term) {
			return false
		}
	}
	if criteria.CreatedBy != "" {
		if record.CreatorID == "" ||
			!strings.Contains(strings.ToLower(record.CreatorID), strings.ToLower(criteria.CreatedBy)) {
			return false
		}
	}
	return true
}

// sortRecords orders records in place. Equal keys keep their input order.
func sortRecords(records []model.RequestRecord, field model.OrderField, direction model.OrderDirection) {
	slices.SortStableFunc(records, func(a, b model.RequestRecord) int {
		if direction == model.Descending {
			return compareRecords(b, a, field)
		}
		return compareRecords(a, b, field)
	})
}

func compareRecords(a, b model.RequestRecord, field model.OrderField) int {
	switch field {
	case model.OrderByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case model.OrderByTitle:
		return strings.Compare(a.Title, b.Title)
	case model.OrderByCategory:
		return strings.Compare(a.Category, b.Category)
	case model.OrderByPriority:
		rankA, okA := a.Priority.Rank()
		rankB, okB := b.Priority.Rank()
		if !okA || !okB {
			return strings.Compare(string(a.Priority), string(b.Priority))
		}
		return rankA - rankB
	case model.OrderByStatus:
		rankA, okA := a.Status.Rank()
		rankB, okB := b.Status.Rank()
		if !okA || !okB {
			return strings.Compare(string(a.Status), string(b.Status))
		}
		return rankA - rankB
	}
	return 0
}

func distinctCategories(records []model.RequestRecord) []string {
	seen := make(map[string]struct{})
	for _, record := range records {
		if record.Category != "" {
			seen[record.Category] = struct{}{}
		}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
