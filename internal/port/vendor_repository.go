package port

import (
	"context"

	"github.com/google/uuid"

	"weddingplan/internal/domain"
)

// VendorRepository defines the contract for vendor persistence.
// All query methods include weddingID to keep couples' rosters isolated.
type VendorRepository interface {
	Create(ctx context.Context, vendor *domain.VendorRecord) error
	GetByID(ctx context.Context, weddingID, vendorID uuid.UUID) (*domain.VendorRecord, error)
	ListByWedding(ctx context.Context, weddingID uuid.UUID) ([]domain.VendorRecord, error)
	Update(ctx context.Context, vendor *domain.VendorRecord) error
	Delete(ctx context.Context, weddingID, vendorID uuid.UUID) error
	Ping(ctx context.Context) error
}
