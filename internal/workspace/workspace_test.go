package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/approvalflow/workflow-client/internal/gateway"
	"github.com/approvalflow/workflow-client/internal/request/model"
	"github.com/approvalflow/workflow-client/internal/session"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/config"
	"github.com/approvalflow/workflow-client/internal/system/error/codes"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
	"github.com/approvalflow/workflow-client/internal/workspace/mocks"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testOptions() config.RequestsConfig {
	return config.RequestsConfig{
		DefaultPageSize:       10,
		PageSizeOptions:       []int{5, 10, 20, 50},
		BulkPageSize:          100,
		DefaultOrderBy:        "created_at",
		DefaultOrderDirection: "desc",
	}
}

func newTestWorkspace(t *testing.T, identity *sessionmodel.Identity) (*Workspace, *mocks.MockGateway) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	holder := session.NewHolder()
	if identity != nil {
		holder.SetSession("tok", *identity, time.Time{})
	}
	gw := &mocks.MockGateway{}
	svc := session.NewService(holder, nil, nil, logger)
	return New(svc, gw, testOptions(), logger), gw
}

func managerIdentity() *sessionmodel.Identity {
	return &sessionmodel.Identity{ID: "m1", Name: "Maria", Roles: sessionmodel.NewRoleSet("Manager"), Active: true}
}

func userIdentity(id string) *sessionmodel.Identity {
	return &sessionmodel.Identity{ID: id, Name: "Ana", Roles: sessionmodel.NewRoleSet("User"), Active: true}
}

func rec(id, creator string, status model.Status, offset int) model.RequestRecord {
	return model.RequestRecord{
		ID:          id,
		Title:       "Request " + id,
		Description: "Description of " + id,
		Category:    "IT",
		Priority:    model.PriorityMedium,
		Status:      status,
		CreatorID:   creator,
		CreatedAt:   base.Add(time.Duration(offset) * time.Hour),
	}
}

func mixedSet() []model.RequestRecord {
	return []model.RequestRecord{
		rec("r1", "u1", model.StatusPending, 1),
		rec("r2", "u2", model.StatusPending, 2),
		rec("r3", "u1", model.StatusApproved, 3),
		rec("r4", "u2", model.StatusRejected, 4),
	}
}

func pageIDs(page model.Page) []string {
	ids := make([]string, 0, len(page.Items))
	for _, r := range page.Items {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestRefresh_SendsBulkQuery(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, model.ListQuery{
		Page:           1,
		PageSize:       100,
		OrderBy:        model.OrderByCreatedAt,
		OrderDirection: model.Descending,
	}).Return(mixedSet(), nil)

	page, svcErr := ws.Refresh(context.Background())

	require.Nil(t, svcErr)
	assert.Equal(t, []string{"r4", "r3", "r2", "r1"}, pageIDs(page))
	assert.True(t, ws.Loaded())
	gw.AssertExpectations(t)
}

func TestRefresh_NarrowsNonManagers(t *testing.T) {
	ws, gw := newTestWorkspace(t, userIdentity("u1"))
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(mixedSet(), nil)

	page, svcErr := ws.Refresh(context.Background())

	require.Nil(t, svcErr)
	assert.Equal(t, []string{"r3", "r1"}, pageIDs(page))
	assert.Equal(t, 2, page.TotalItems)
}

func TestRefresh_RequiresIdentity(t *testing.T) {
	ws, gw := newTestWorkspace(t, nil)

	_, svcErr := ws.Refresh(context.Background())

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))
	gw.AssertNotCalled(t, "FetchRequests", mock.Anything, mock.Anything)
}

func TestRefresh_RemoteFailureKeepsWorkingSet(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(mixedSet(), nil).Once()
	gw.On("FetchRequests", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: connection refused", gateway.ErrRemote)).Once()

	_, svcErr := ws.Refresh(context.Background())
	require.Nil(t, svcErr)

	_, svcErr = ws.Refresh(context.Background())
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.RemoteFailureError))
	assert.Equal(t, 4, ws.ListState().Page.TotalItems)
	assert.True(t, ws.Session().Holder().Capabilities().Authenticated)
}

func TestRefresh_UnauthorizedClearsSession(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).
		Return(nil, &gateway.StatusError{StatusCode: 401}).Once()

	_, svcErr := ws.Refresh(context.Background())

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))
	_, ok := ws.Session().Holder().CurrentIdentity()
	assert.False(t, ok)
	assert.Empty(t, ws.Session().Holder().Token())
}

func TestRefresh_ExpiredSessionResets(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(mixedSet(), nil).Once()
	_, svcErr := ws.Refresh(context.Background())
	require.Nil(t, svcErr)
	require.True(t, ws.Loaded())

	ws.Session().Holder().SetSession("tok", *managerIdentity(), time.Now().Add(-time.Minute))
	_, svcErr = ws.Refresh(context.Background())

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))
	assert.False(t, ws.Loaded())
	assert.Empty(t, ws.Session().Holder().Token())
	gw.AssertNumberOfCalls(t, "FetchRequests", 1)
}

func TestRefresh_LastInitiatedWins(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	started := make(chan struct{})
	release := make(chan struct{})

	stale := []model.RequestRecord{rec("old", "u1", model.StatusPending, 1)}
	fresh := []model.RequestRecord{rec("new", "u1", model.StatusPending, 1)}

	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(stale, nil).Once().Run(func(mock.Arguments) {
		close(started)
		<-release
	})
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(fresh, nil).Once()

	done := make(chan *serviceerror.ServiceError)
	go func() {
		_, svcErr := ws.Refresh(context.Background())
		done <- svcErr
	}()
	<-started

	page, svcErr := ws.Refresh(context.Background())
	require.Nil(t, svcErr)
	assert.Equal(t, []string{"new"}, pageIDs(page))

	close(release)
	require.Nil(t, <-done)
	assert.Equal(t, []string{"new"}, pageIDs(ws.ListState().Page))
}

func TestApplyFilters_ValidatesEnums(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(mixedSet(), nil)
	_, _ = ws.Refresh(context.Background())

	_, svcErr := ws.ApplyFilters(model.FilterCriteria{Status: "ARCHIVED", Priority: "Urgent"})
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.ValidationError))
	assert.Equal(t, "status must be one of PENDING, APPROVED, REJECTED", svcErr.FieldErrors["status"])
	assert.Equal(t, "priority must be one of Low, Medium, High", svcErr.FieldErrors["priority"])

	page, svcErr := ws.ApplyFilters(model.FilterCriteria{Status: "pending", CreatedBy: " U2 "})
	require.Nil(t, svcErr)
	assert.Equal(t, []string{"r2"}, pageIDs(page))
	assert.Equal(t, model.StatusPending, ws.ListState().Criteria.Status)

	page = ws.ClearFilters()
	assert.Equal(t, 4, page.TotalItems)
}

func TestSortBy(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(mixedSet(), nil)
	_, _ = ws.Refresh(context.Background())

	page, svcErr := ws.SortBy("status", "")
	require.Nil(t, svcErr)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, pageIDs(page))

	_, svcErr = ws.SortBy("colour", "asc")
	require.NotNil(t, svcErr)

	_, svcErr = ws.SortBy("title", "sideways")
	require.NotNil(t, svcErr)
}

func TestSetPageSize(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(mixedSet(), nil)
	_, _ = ws.Refresh(context.Background())

	page, svcErr := ws.SetPageSize(5)
	require.Nil(t, svcErr)
	assert.Equal(t, 5, page.PageSize)

	for _, size := range []int{0, -1, 7} {
		_, svcErr = ws.SetPageSize(size)
		require.NotNil(t, svcErr, "size %d", size)
		assert.Equal(t, codes.InvalidPageSize, svcErr.Code)
	}
	assert.Equal(t, 5, ws.ListState().Page.PageSize)
}

func TestSetPageAndPageNumbers(t *testing.T) {
	records := make([]model.RequestRecord, 0, 45)
	for i := 0; i < 45; i++ {
		records = append(records, rec(fmt.Sprintf("r%02d", i), "u1", model.StatusPending, i))
	}
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(records, nil)
	_, _ = ws.Refresh(context.Background())

	assert.Equal(t, 3, ws.SetPage(3).Page)
	assert.Equal(t, 3, ws.SetPage(99).Page)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ws.ListState().PageNumbers)
	assert.Equal(t, 45, ws.ListState().Page.TotalItems)
	assert.Equal(t, []string{"IT"}, ws.Categories())
}

func TestDetail(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	pending := rec("r1", "u1", model.StatusPending, 1)
	history := []model.HistoryEntry{{ID: "h1", RequestID: "r1", Action: "CREATED"}}
	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&pending, nil)
	gw.On("FetchHistory", mock.Anything, "r1").Return(history, nil)

	detail, svcErr := ws.Detail(context.Background(), "r1")

	require.Nil(t, svcErr)
	assert.Equal(t, "r1", detail.Request.ID)
	assert.Equal(t, history, detail.History)
	assert.True(t, detail.CanAct)
}

func TestDetail_NotFound(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequestByID", mock.Anything, "missing").Return(nil, &gateway.StatusError{StatusCode: 404})

	detail, svcErr := ws.Detail(context.Background(), "missing")

	assert.Nil(t, detail)
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.NotFoundError))
	assert.Equal(t, "request not found", svcErr.ErrorDescription)
}

func TestDetail_HidesOtherCreatorsFromUsers(t *testing.T) {
	ws, gw := newTestWorkspace(t, userIdentity("u1"))
	other := rec("r2", "u2", model.StatusPending, 1)
	gw.On("FetchRequestByID", mock.Anything, "r2").Return(&other, nil)

	_, svcErr := ws.Detail(context.Background(), "r2")

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.NotFoundError))
	gw.AssertNotCalled(t, "FetchHistory", mock.Anything, mock.Anything)
}

func TestHistory_HidesOtherCreatorsFromUsers(t *testing.T) {
	ws, gw := newTestWorkspace(t, userIdentity("u1"))
	other := rec("r2", "u2", model.StatusPending, 1)
	gw.On("FetchRequestByID", mock.Anything, "r2").Return(&other, nil)

	history, svcErr := ws.History(context.Background(), "r2")

	assert.Nil(t, history)
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.NotFoundError))
	gw.AssertNotCalled(t, "FetchHistory", mock.Anything, mock.Anything)
}

func TestHistory_OwnRequest(t *testing.T) {
	ws, gw := newTestWorkspace(t, userIdentity("u1"))
	own := rec("r1", "u1", model.StatusPending, 1)
	entries := []model.HistoryEntry{{ID: "h1", RequestID: "r1", Action: "CREATED"}}
	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&own, nil)
	gw.On("FetchHistory", mock.Anything, "r1").Return(entries, nil)

	history, svcErr := ws.History(context.Background(), "r1")

	require.Nil(t, svcErr)
	assert.Equal(t, entries, history)
}

func TestHistory_ManagerSkipsOwnershipLookup(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchHistory", mock.Anything, "r2").Return(nil, nil)

	history, svcErr := ws.History(context.Background(), "r2")

	require.Nil(t, svcErr)
	assert.NotNil(t, history)
	assert.Empty(t, history)
	gw.AssertNotCalled(t, "FetchRequestByID", mock.Anything, mock.Anything)
}

func TestDetail_UserCannotAct(t *testing.T) {
	ws, gw := newTestWorkspace(t, userIdentity("u1"))
	own := rec("r1", "u1", model.StatusPending, 1)
	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&own, nil)
	gw.On("FetchHistory", mock.Anything, "r1").Return(nil, errors.New("history service down"))

	detail, svcErr := ws.Detail(context.Background(), "r1")

	require.Nil(t, svcErr)
	assert.False(t, detail.CanAct)
	assert.NotNil(t, detail.History)
	assert.Empty(t, detail.History)
}

func TestApprove_Success(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	pending := rec("r1", "u1", model.StatusPending, 1)
	approved := rec("r1", "u1", model.StatusApproved, 1)

	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&pending, nil).Once()
	gw.On("Approve", mock.Anything, "r1", "m1").Return(nil, nil).Once()
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return([]model.RequestRecord{approved}, nil).Once()
	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&approved, nil).Once()
	gw.On("FetchHistory", mock.Anything, "r1").Return([]model.HistoryEntry{}, nil).Once()

	detail, svcErr := ws.Approve(context.Background(), "r1")

	require.Nil(t, svcErr)
	assert.Equal(t, model.StatusApproved, detail.Request.Status)
	assert.False(t, detail.CanAct)
	assert.Equal(t, model.StatusApproved, ws.ListState().Page.Items[0].Status)
	gw.AssertExpectations(t)
}

func TestApprove_GateUsesFreshRecord(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).
		Return([]model.RequestRecord{rec("r1", "u1", model.StatusPending, 1)}, nil).Once()
	_, svcErr := ws.Refresh(context.Background())
	require.Nil(t, svcErr)

	alreadyApproved := rec("r1", "u1", model.StatusApproved, 1)
	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&alreadyApproved, nil).Once()

	_, svcErr = ws.Approve(context.Background(), "r1")

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.ForbiddenError))
	assert.Equal(t, codes.RequestNotPending, svcErr.Code)
	gw.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_NonManagerForbidden(t *testing.T) {
	ws, gw := newTestWorkspace(t, userIdentity("u1"))

	_, svcErr := ws.Approve(context.Background(), "r1")

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.ForbiddenError))
	assert.Equal(t, codes.ReviewNotPermitted, svcErr.Code)
	assert.Empty(t, gw.Calls)
}

func TestApprove_RemoteFailure(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	pending := rec("r1", "u1", model.StatusPending, 1)
	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&pending, nil).Once()
	gw.On("Approve", mock.Anything, "r1", "m1").Return(nil, &gateway.StatusError{StatusCode: 500}).Once()

	_, svcErr := ws.Approve(context.Background(), "r1")

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.RemoteFailureError))
	gw.AssertNotCalled(t, "FetchRequests", mock.Anything, mock.Anything)
}

func TestReject_ShortReasonSendsNothing(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())

	_, svcErr := ws.Reject(context.Background(), "r1", "nope")

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.ValidationError))
	assert.Equal(t, codes.RejectReasonTooShort, svcErr.Code)
	assert.Empty(t, gw.Calls)
}

func TestReject_Success(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	pending := rec("r1", "u1", model.StatusPending, 1)
	rejected := rec("r1", "u1", model.StatusRejected, 1)

	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&pending, nil).Once()
	gw.On("Reject", mock.Anything, "r1", "Budget exceeded", "m1").Return(nil, nil).Once()
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return([]model.RequestRecord{rejected}, nil).Once()
	gw.On("FetchRequestByID", mock.Anything, "r1").Return(&rejected, nil).Once()
	gw.On("FetchHistory", mock.Anything, "r1").Return([]model.HistoryEntry{}, nil).Once()

	detail, svcErr := ws.Reject(context.Background(), "r1", "Budget exceeded")

	require.Nil(t, svcErr)
	assert.Equal(t, model.StatusRejected, detail.Request.Status)
	gw.AssertExpectations(t)
}

func TestCreate(t *testing.T) {
	draft := model.Draft{
		Title:       "Laptop",
		Description: "A new laptop for work",
		Category:    "IT",
		Priority:    "high",
	}
	normalized := draft
	normalized.Priority = model.PriorityHigh

	ws, gw := newTestWorkspace(t, userIdentity("u1"))
	created := rec("r9", "u1", model.StatusPending, 9)
	gw.On("CreateRequest", mock.Anything, normalized, "u1").Return(&created, nil).Once()
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return([]model.RequestRecord{created}, nil).Once()

	record, svcErr := ws.Create(context.Background(), draft)

	require.Nil(t, svcErr)
	assert.Equal(t, "r9", record.ID)
	assert.Equal(t, 1, ws.ListState().Page.TotalItems)
	gw.AssertExpectations(t)
}

func TestCreate_Refusals(t *testing.T) {
	valid := model.Draft{Title: "Laptop", Description: "A new laptop for work", Category: "IT", Priority: model.PriorityLow}

	tests := []struct {
		name     string
		identity *sessionmodel.Identity
		draft    model.Draft
		expected serviceerror.ServiceError
	}{
		{"signed out", nil, valid, serviceerror.AuthenticationLostError},
		{"manager only", managerIdentity(), valid, serviceerror.ForbiddenError},
		{"invalid draft", userIdentity("u1"), model.Draft{Title: "ab"}, serviceerror.ValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, gw := newTestWorkspace(t, tt.identity)

			record, svcErr := ws.Create(context.Background(), tt.draft)

			assert.Nil(t, record)
			require.NotNil(t, svcErr)
			assert.True(t, svcErr.Is(tt.expected), svcErr.String())
			assert.Empty(t, gw.Calls)
		})
	}
}

func TestReset(t *testing.T) {
	ws, gw := newTestWorkspace(t, managerIdentity())
	gw.On("FetchRequests", mock.Anything, mock.Anything).Return(mixedSet(), nil)
	_, _ = ws.Refresh(context.Background())
	_, _ = ws.SetPageSize(5)

	ws.Reset()

	assert.False(t, ws.Loaded())
	page := ws.ListState().Page
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 10, page.PageSize)
}
