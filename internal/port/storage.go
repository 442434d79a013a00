package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ArchiveSource is the input of a committed import. Filename is the uploaded file's
// name and is empty for typed text.
type ArchiveSource struct {
	WeddingID   uuid.UUID
	SessionID   uuid.UUID
	Filename    string
	ContentType string
	Body        []byte
}

// ArchivedSource locates a stored import source.
type ArchivedSource struct {
	Key      string
	Location string
	ETag     string
}

// SourceArchive keeps committed import sources and issues time-limited download links.
type SourceArchive interface {
	Store(ctx context.Context, src ArchiveSource) (*ArchivedSource, error)
	DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
