package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"weddingplan/internal/port"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendImportSummary(ctx context.Context, toEmail, toName string, summary port.ImportSummary) error {
	args := m.Called(ctx, toEmail, toName, summary)
	return args.Error(0)
}
