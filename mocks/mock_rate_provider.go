package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRateProvider is a mock implementation of port.RateProvider.
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(float64), args.Error(1)
}
