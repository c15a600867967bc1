// Package workspace ties the session, the request gateway and the list engine
// together into the operations a view performs.
package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/gateway"
	"github.com/approvalflow/workflow-client/internal/request"
	"github.com/approvalflow/workflow-client/internal/request/model"
	"github.com/approvalflow/workflow-client/internal/request/validator"
	"github.com/approvalflow/workflow-client/internal/session"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/config"
	"github.com/approvalflow/workflow-client/internal/system/error/codes"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

const requestNotFound = "request not found"

// Gateway is the subset of the remote request API the workspace uses
type Gateway interface {
	FetchRequests(ctx context.Context, query model.ListQuery) ([]model.RequestRecord, error)
	FetchRequestByID(ctx context.Context, id string) (*model.RequestRecord, error)
	FetchHistory(ctx context.Context, requestID string) ([]model.HistoryEntry, error)
	CreateRequest(ctx context.Context, draft model.Draft, creatorID string) (*model.RequestRecord, error)
	Approve(ctx context.Context, id, actorID string) (*model.RequestRecord, error)
	Reject(ctx context.Context, id, reason, actorID string) (*model.RequestRecord, error)
}

const pageWindow = 5

// Workspace is the list and detail state of one signed-in view.
// It is safe for concurrent use.
type Workspace struct {
	mu      sync.Mutex
	engine  *request.Engine
	loaded  bool
	ticket  uint64
	session *session.Service
	gateway Gateway
	options config.RequestsConfig
	logger  *logrus.Logger
}

// New creates a workspace with an empty working set
func New(svc *session.Service, gw Gateway, options config.RequestsConfig, logger *logrus.Logger) *Workspace {
	if options.BulkPageSize <= 0 {
		options.BulkPageSize = 100
	}
	w := &Workspace{
		session: svc,
		gateway: gw,
		options: options,
		logger:  logger,
	}
	w.engine = w.newEngine()
	return w
}

func (w *Workspace) newEngine() *request.Engine {
	orderBy, _ := model.ParseOrderField(w.options.DefaultOrderBy)
	direction, _ := model.ParseOrderDirection(w.options.DefaultOrderDirection)
	return request.NewEngine(w.options.DefaultPageSize, orderBy, direction)
}

// Session returns the session service backing this workspace
func (w *Workspace) Session() *session.Service {
	return w.session
}

// Reset drops the working set and list state, e.g. after the identity changed.
// Refreshes started before the reset are discarded.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine = w.newEngine()
	w.loaded = false
	w.ticket++
}

// Refresh refetches the bulk working set. When several refreshes overlap,
// only the one initiated last is applied. On failure the previous working
// set stays in place.
func (w *Workspace) Refresh(ctx context.Context) (model.Page, *serviceerror.ServiceError) {
	identity, svcErr := w.activeIdentity(ctx)
	if svcErr != nil {
		return model.Page{}, svcErr
	}

	w.mu.Lock()
	w.ticket++
	ticket := w.ticket
	criteria := w.engine.Criteria()
	w.mu.Unlock()

	records, err := w.gateway.FetchRequests(ctx, model.ListQuery{
		Page:           1,
		PageSize:       w.options.BulkPageSize,
		OrderBy:        criteria.OrderBy,
		OrderDirection: criteria.OrderDirection,
	})
	if err != nil {
		svcErr := w.gatewayError(ctx, err, "")
		w.logger.WithError(err).WithField("userId", identity.ID).Warn("Failed to refresh requests")
		return model.Page{}, svcErr
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if ticket != w.ticket {
		w.logger.WithField("ticket", ticket).Debug("Discarding superseded refresh")
		return w.engine.CurrentPage(), nil
	}
	w.engine.LoadWorkingSet(records, identity)
	w.loaded = true

	w.logger.WithFields(logrus.Fields{
		"userId":  identity.ID,
		"fetched": len(records),
	}).Debug("Working set refreshed")
	return w.engine.CurrentPage(), nil
}

// Loaded reports whether a working set has been applied since the last reset
func (w *Workspace) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded
}

// ListState is the list view read under one lock
type ListState struct {
	Page        model.Page
	Criteria    model.FilterCriteria
	PageNumbers []int
}

// ListState returns the displayed page with the criteria and pager window it was built from
func (w *Workspace) ListState() ListState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ListState{
		Page:        w.engine.CurrentPage(),
		Criteria:    w.engine.Criteria(),
		PageNumbers: w.engine.PageNumbers(pageWindow),
	}
}

// Categories returns the categories present in the working set
func (w *Workspace) Categories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Categories()
}

// ApplyFilters validates and applies list criteria
func (w *Workspace) ApplyFilters(criteria model.FilterCriteria) (model.Page, *serviceerror.ServiceError) {
	normalized, svcErr := NormalizeCriteria(criteria)
	if svcErr != nil {
		return model.Page{}, svcErr
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.ApplyFilters(normalized)
	return w.engine.CurrentPage(), nil
}

// ClearFilters removes every filter and keeps the ordering
func (w *Workspace) ClearFilters() model.Page {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.ClearFilters()
	return w.engine.CurrentPage()
}

// SortBy changes the ordering. field and direction are parsed leniently.
func (w *Workspace) SortBy(field, direction string) (model.Page, *serviceerror.ServiceError) {
	orderBy, ok := model.ParseOrderField(field)
	if !ok {
		return model.Page{}, serviceerror.FieldValidationError(map[string]string{"orderBy": "unknown order field " + field})
	}
	dir := model.Ascending
	if direction != "" {
		if dir, ok = model.ParseOrderDirection(direction); !ok {
			return model.Page{}, serviceerror.FieldValidationError(map[string]string{"orderDirection": "order direction must be asc or desc"})
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.SortBy(orderBy, dir)
	return w.engine.CurrentPage(), nil
}

// SetPage moves to page; out of range pages leave the view unchanged
func (w *Workspace) SetPage(page int) model.Page {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.SetPage(page)
	return w.engine.CurrentPage()
}

// SetPageSize changes the page size. Sizes outside the configured options are refused.
func (w *Workspace) SetPageSize(size int) (model.Page, *serviceerror.ServiceError) {
	if size > 0 && !w.options.IsPageSizeAllowed(size) {
		svcErr := serviceerror.FieldValidationError(map[string]string{"pageSize": "page size is not one of the offered options"})
		svcErr.Code = codes.InvalidPageSize
		return model.Page{}, svcErr
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if svcErr := w.engine.SetPageSize(size); svcErr != nil {
		return model.Page{}, svcErr
	}
	return w.engine.CurrentPage(), nil
}

// Detail fetches a request with its history and whether the caller may review it
func (w *Workspace) Detail(ctx context.Context, id string) (*model.RequestDetail, *serviceerror.ServiceError) {
	identity, svcErr := w.activeIdentity(ctx)
	if svcErr != nil {
		return nil, svcErr
	}

	record, svcErr := w.fetchVisible(ctx, id, identity)
	if svcErr != nil {
		return nil, svcErr
	}

	history, svcErr := w.history(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}

	return &model.RequestDetail{
		Request: *record,
		History: history,
		CanAct:  request.CanAct(sessionmodel.CapabilitiesOf(identity), *record),
	}, nil
}

// History fetches the audit history of a request. Identities without the
// Manager role only see the history of their own requests. Failures other
// than a lost session yield an empty history.
func (w *Workspace) History(ctx context.Context, id string) ([]model.HistoryEntry, *serviceerror.ServiceError) {
	identity, svcErr := w.activeIdentity(ctx)
	if svcErr != nil {
		return nil, svcErr
	}
	if !identity.IsManager() {
		if _, svcErr := w.fetchVisible(ctx, id, identity); svcErr != nil {
			return nil, svcErr
		}
	}
	return w.history(ctx, id)
}

func (w *Workspace) history(ctx context.Context, id string) ([]model.HistoryEntry, *serviceerror.ServiceError) {
	history, err := w.gateway.FetchHistory(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			return nil, w.gatewayError(ctx, err, "")
		}
		w.logger.WithError(err).WithField("requestId", id).Warn("Failed to load request history")
		return []model.HistoryEntry{}, nil
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	return history, nil
}

// Create submits a new request for the signed-in user and refreshes the list
func (w *Workspace) Create(ctx context.Context, draft model.Draft) (*model.RequestRecord, *serviceerror.ServiceError) {
	if svcErr := request.CheckSubmit(w.session.Holder().Capabilities()); svcErr != nil {
		return nil, svcErr
	}
	identity, svcErr := w.activeIdentity(ctx)
	if svcErr != nil {
		return nil, svcErr
	}
	if parsed, valid := model.ParsePriority(string(draft.Priority)); valid {
		draft.Priority = parsed
	}
	if svcErr := validator.ValidateDraft(draft); svcErr != nil {
		return nil, svcErr
	}

	created, err := w.gateway.CreateRequest(ctx, draft, identity.ID)
	if err != nil {
		return nil, w.gatewayError(ctx, err, "")
	}

	w.logger.WithFields(logrus.Fields{
		"userId":   identity.ID,
		"category": draft.Category,
	}).Info("Request submitted")

	if _, svcErr := w.Refresh(ctx); svcErr != nil {
		w.logger.WithField("error", svcErr.String()).Warn("Refresh after submit failed")
	}
	return created, nil
}

// Approve approves a pending request and returns its reloaded detail
func (w *Workspace) Approve(ctx context.Context, id string) (*model.RequestDetail, *serviceerror.ServiceError) {
	return w.review(ctx, id, "approve", func(actorID string) error {
		_, err := w.gateway.Approve(ctx, id, actorID)
		return err
	})
}

// Reject rejects a pending request with reason and returns its reloaded detail.
// The reason is validated before anything is sent.
func (w *Workspace) Reject(ctx context.Context, id, reason string) (*model.RequestDetail, *serviceerror.ServiceError) {
	if svcErr := validator.ValidateRejectReason(reason); svcErr != nil {
		return nil, svcErr
	}
	return w.review(ctx, id, "reject", func(actorID string) error {
		_, err := w.gateway.Reject(ctx, id, reason, actorID)
		return err
	})
}

// review re-checks the action gate against a freshly fetched record, performs
// the action and reloads detail and list.
func (w *Workspace) review(ctx context.Context, id, action string, perform func(actorID string) error) (*model.RequestDetail, *serviceerror.ServiceError) {
	identity, svcErr := w.activeIdentity(ctx)
	if svcErr != nil {
		return nil, svcErr
	}
	caps := sessionmodel.CapabilitiesOf(identity)
	if svcErr := request.CheckReviewer(caps); svcErr != nil {
		return nil, svcErr
	}

	record, err := w.gateway.FetchRequestByID(ctx, id)
	if err != nil {
		return nil, w.gatewayError(ctx, err, requestNotFound)
	}
	if svcErr := request.CheckAction(caps, *record); svcErr != nil {
		return nil, svcErr
	}

	if err := perform(identity.ID); err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{
			"requestId": id,
			"action":    action,
		}).Error("Review action failed")
		return nil, w.gatewayError(ctx, err, requestNotFound)
	}

	w.logger.WithFields(logrus.Fields{
		"requestId": id,
		"action":    action,
		"userId":    identity.ID,
	}).Info("Request reviewed")

	if _, svcErr := w.Refresh(ctx); svcErr != nil {
		w.logger.WithField("error", svcErr.String()).Warn("Refresh after review failed")
	}
	return w.Detail(ctx, id)
}

// activeIdentity returns the signed-in identity. An expired session is
// dropped together with the working set.
func (w *Workspace) activeIdentity(ctx context.Context) (sessionmodel.Identity, *serviceerror.ServiceError) {
	identity, svcErr := w.session.Active(ctx)
	if svcErr != nil {
		w.Reset()
		return sessionmodel.Identity{}, svcErr
	}
	return identity, nil
}

// fetchVisible fetches a request, hiding requests of other creators from
// identities without the Manager role.
func (w *Workspace) fetchVisible(ctx context.Context, id string, identity sessionmodel.Identity) (*model.RequestRecord, *serviceerror.ServiceError) {
	record, err := w.gateway.FetchRequestByID(ctx, id)
	if err != nil {
		return nil, w.gatewayError(ctx, err, requestNotFound)
	}
	if !identity.IsManager() && record.CreatorID != identity.ID {
		return nil, serviceerror.CustomServiceError(serviceerror.NotFoundError, requestNotFound)
	}
	return record, nil
}

// gatewayError maps a gateway failure and drops the session when the remote
// API no longer accepts its token.
func (w *Workspace) gatewayError(ctx context.Context, err error, notFound string) *serviceerror.ServiceError {
	svcErr := gateway.ToServiceError(err, notFound)
	if svcErr.Is(serviceerror.AuthenticationLostError) {
		w.session.Invalidate(ctx)
		w.Reset()
	}
	return svcErr
}

// NormalizeCriteria resolves enum and ordering names in criteria
func NormalizeCriteria(criteria model.FilterCriteria) (model.FilterCriteria, *serviceerror.ServiceError) {
	fields := map[string]string{}

	if criteria.Status != "" {
		status, ok := model.ParseStatus(string(criteria.Status))
		if !ok {
			fields["status"] = "status must be one of " + statusNames()
		}
		criteria.Status = status
	}
	if criteria.Priority != "" {
		priority, ok := model.ParsePriority(string(criteria.Priority))
		if !ok {
			fields["priority"] = "priority must be one of " + priorityNames()
		}
		criteria.Priority = priority
	}
	if criteria.OrderBy != "" {
		orderBy, ok := model.ParseOrderField(string(criteria.OrderBy))
		if !ok {
			fields["orderBy"] = "unknown order field " + string(criteria.OrderBy)
		}
		criteria.OrderBy = orderBy
	}
	if criteria.OrderDirection != "" {
		direction, ok := model.ParseOrderDirection(string(criteria.OrderDirection))
		if !ok {
			fields["orderDirection"] = "order direction must be asc or desc"
		}
		criteria.OrderDirection = direction
	}

	if len(fields) > 0 {
		return model.FilterCriteria{}, serviceerror.FieldValidationError(fields)
	}
	return criteria, nil
}

func statusNames() string {
	names := make([]string, 0, len(model.Statuses()))
	for _, status := range model.Statuses() {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

func priorityNames() string {
	names := make([]string, 0, len(model.Priorities()))
	for _, priority := range model.Priorities() {
		names = append(names, string(priority))
	}
	return strings.Join(names, ", ")
}
