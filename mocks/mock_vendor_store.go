package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"weddingplan/internal/domain"
	"weddingplan/internal/port"
)

// MockVendorStore is a mock implementation of port.VendorStore.
type MockVendorStore struct {
	mock.Mock
}

func (m *MockVendorStore) CreateVendor(ctx context.Context, weddingID uuid.UUID, patch domain.VendorPatch) (*domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorRecord), args.Error(1)
}

func (m *MockVendorStore) UpdateVendor(ctx context.Context, weddingID, vendorID uuid.UUID, patch domain.VendorPatch, opts port.UpdateOptions) (*domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID, vendorID, patch, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorRecord), args.Error(1)
}

func (m *MockVendorStore) ListVendors(ctx context.Context, weddingID uuid.UUID) ([]domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorRecord), args.Error(1)
}
