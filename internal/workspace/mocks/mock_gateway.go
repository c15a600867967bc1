package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/approvalflow/workflow-client/internal/request/model"
)

// MockGateway is a mock implementation of workspace.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FetchRequests(ctx context.Context, query model.ListQuery) ([]model.RequestRecord, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RequestRecord), args.Error(1)
}

func (m *MockGateway) FetchRequestByID(ctx context.Context, id string) (*model.RequestRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestRecord), args.Error(1)
}

func (m *MockGateway) FetchHistory(ctx context.Context, requestID string) ([]model.HistoryEntry, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HistoryEntry), args.Error(1)
}

func (m *MockGateway) CreateRequest(ctx context.Context, draft model.Draft, creatorID string) (*model.RequestRecord, error) {
	args := m.Called(ctx, draft, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestRecord), args.Error(1)
}

func (m *MockGateway) Approve(ctx context.Context, id, actorID string) (*model.RequestRecord, error) {
	args := m.Called(ctx, id, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestRecord), args.Error(1)
}

func (m *MockGateway) Reject(ctx context.Context, id, reason, actorID string) (*model.RequestRecord, error) {
	args := m.Called(ctx, id, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestRecord), args.Error(1)
}
