package port

import (
	"context"

	"github.com/google/uuid"

	"weddingplan/internal/domain"
)

// UpdateOptions controls how UpdateVendor treats the payment schedule.
type UpdateOptions struct {
	// MergePayments folds the patch's payments into the stored schedule instead of replacing it.
	MergePayments bool
}

// VendorStore is the CRUD surface the import pipeline reads rosters from and writes operations to.
type VendorStore interface {
	CreateVendor(ctx context.Context, weddingID uuid.UUID, patch domain.VendorPatch) (*domain.VendorRecord, error)
	UpdateVendor(ctx context.Context, weddingID, vendorID uuid.UUID, patch domain.VendorPatch, opts UpdateOptions) (*domain.VendorRecord, error)
	ListVendors(ctx context.Context, weddingID uuid.UUID) ([]domain.VendorRecord, error)
}
