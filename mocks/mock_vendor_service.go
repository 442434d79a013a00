package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"weddingplan/internal/domain"
	"weddingplan/internal/port"
)

// MockVendorService is a mock implementation of service.VendorService.
type MockVendorService struct {
	mock.Mock
}

func (m *MockVendorService) CreateVendor(ctx context.Context, weddingID uuid.UUID, patch domain.VendorPatch) (*domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorRecord), args.Error(1)
}

func (m *MockVendorService) UpdateVendor(ctx context.Context, weddingID, vendorID uuid.UUID, patch domain.VendorPatch, opts port.UpdateOptions) (*domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID, vendorID, patch, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorRecord), args.Error(1)
}

func (m *MockVendorService) ListVendors(ctx context.Context, weddingID uuid.UUID) ([]domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorRecord), args.Error(1)
}

func (m *MockVendorService) GetVendor(ctx context.Context, weddingID, vendorID uuid.UUID) (*domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorRecord), args.Error(1)
}

func (m *MockVendorService) DeleteVendor(ctx context.Context, weddingID, vendorID uuid.UUID) error {
	args := m.Called(ctx, weddingID, vendorID)
	return args.Error(0)
}

func (m *MockVendorService) UpdatePaymentAmount(ctx context.Context, weddingID, vendorID uuid.UUID, paymentID string, amount float64) (*domain.VendorRecord, error) {
	args := m.Called(ctx, weddingID, vendorID, paymentID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorRecord), args.Error(1)
}

func (m *MockVendorService) UpcomingPayments(ctx context.Context, weddingID uuid.UUID) ([]domain.UpcomingPayment, error) {
	args := m.Called(ctx, weddingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UpcomingPayment), args.Error(1)
}
