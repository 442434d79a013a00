package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"weddingplan/internal/port"
)

// MockSourceArchive is a mock implementation of port.SourceArchive.
type MockSourceArchive struct {
	mock.Mock
}

func (m *MockSourceArchive) Store(ctx context.Context, src port.ArchiveSource) (*port.ArchivedSource, error) {
	args := m.Called(ctx, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ArchivedSource), args.Error(1)
}

func (m *MockSourceArchive) DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
