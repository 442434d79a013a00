package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"weddingplan/internal/domain"
)

// MockVendorRepository is a mock implementation of port.VendorRepository.
type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) Create(ctx context.Context, vendor *domain.VendorRecord) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) GetByID(ctx context.Context, weddingID, vendorID uuid.UUID) (*domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorRecord), args.Error(1)
}

func (m *MockVendorRepository) ListByWedding(ctx context.Context, weddingID uuid.UUID) ([]domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorRecord), args.Error(1)
}

func (m *MockVendorRepository) Update(ctx context.Context, vendor *domain.VendorRecord) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) Delete(ctx context.Context, weddingID, vendorID uuid.UUID) error {
	args := m.Called(ctx, weddingID, vendorID)
	return args.Error(0)
}

func (m *MockVendorRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
