package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"weddingplan/internal/domain"
	"weddingplan/internal/service"
	"weddingplan/internal/session"
)

// MockImportService is a mock implementation of service.ImportService.
type MockImportService struct {
	mock.Mock
}

func viewOrNil(args mock.Arguments) (*session.View, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.View), args.Error(1)
}

func (m *MockImportService) Start(ctx context.Context, weddingID uuid.UUID) (*session.View, error) {
	return viewOrNil(m.Called(ctx, weddingID))
}

func (m *MockImportService) Submit(ctx context.Context, weddingID, sessionID uuid.UUID, input service.SubmitInput) (*session.View, error) {
	return viewOrNil(m.Called(ctx, weddingID, sessionID, input))
}

func (m *MockImportService) Get(ctx context.Context, weddingID, sessionID uuid.UUID) (*session.View, error) {
	return viewOrNil(m.Called(ctx, weddingID, sessionID))
}

func (m *MockImportService) Answer(ctx context.Context, weddingID, sessionID uuid.UUID, clarificationID, value string) (*session.View, error) {
	return viewOrNil(m.Called(ctx, weddingID, sessionID, clarificationID, value))
}

func (m *MockImportService) Skip(ctx context.Context, weddingID, sessionID uuid.UUID, clarificationID string) (*session.View, error) {
	return viewOrNil(m.Called(ctx, weddingID, sessionID, clarificationID))
}

func (m *MockImportService) RemoveOperation(ctx context.Context, weddingID, sessionID uuid.UUID, index int) (*session.View, error) {
	return viewOrNil(m.Called(ctx, weddingID, sessionID, index))
}

func (m *MockImportService) UpdateOperation(ctx context.Context, weddingID, sessionID uuid.UUID, index int, data domain.VendorPatch) (*session.View, error) {
	return viewOrNil(m.Called(ctx, weddingID, sessionID, index, data))
}

func (m *MockImportService) Cancel(ctx context.Context, weddingID, sessionID uuid.UUID) error {
	args := m.Called(ctx, weddingID, sessionID)
	return args.Error(0)
}

func (m *MockImportService) Execute(ctx context.Context, weddingID, sessionID uuid.UUID, input service.ExecuteInput) (*service.ExecuteResult, error) {
	args := m.Called(ctx, weddingID, sessionID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExecuteResult), args.Error(1)
}
