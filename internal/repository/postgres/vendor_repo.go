package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"weddingplan/internal/domain"
	"weddingplan/internal/port"
)

const vendorColumns = `id, wedding_id, vendor_type, vendor_name, contact_name, email, phone, website,
	vendor_currency, cost_converted_currency, vendor_cost, cost_converted,
	contract_required, contract_signed, contract_signed_date, notes, skip_completion_prompt,
	payments, created_at, updated_at`

type vendorRepo struct {
	db *sqlx.DB
}

// NewVendorRepo creates a new PostgreSQL-backed VendorRepository.
func NewVendorRepo(db *sqlx.DB) port.VendorRepository {
	return &vendorRepo{db: db}
}

func (r *vendorRepo) Create(ctx context.Context, vendor *domain.VendorRecord) error {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	now := time.Now().UTC()
	vendor.CreatedAt = now
	vendor.UpdatedAt = now

	query := `INSERT INTO vendors (` + vendorColumns + `)
		VALUES (:id, :wedding_id, :vendor_type, :vendor_name, :contact_name, :email, :phone, :website,
			:vendor_currency, :cost_converted_currency, :vendor_cost, :cost_converted,
			:contract_required, :contract_signed, :contract_signed_date, :notes, :skip_completion_prompt,
			:payments, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, vendor); err != nil {
		return fmt.Errorf("vendorRepo.Create: %w", err)
	}
	return nil
}

func (r *vendorRepo) GetByID(ctx context.Context, weddingID, vendorID uuid.UUID) (*domain.VendorRecord, error) {
	var vendor domain.VendorRecord
	err := r.db.GetContext(ctx, &vendor,
		"SELECT "+vendorColumns+" FROM vendors WHERE id = $1 AND wedding_id = $2", vendorID, weddingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVendorNotFound
		}
		return nil, fmt.Errorf("vendorRepo.GetByID: %w", err)
	}
	return &vendor, nil
}

func (r *vendorRepo) ListByWedding(ctx context.Context, weddingID uuid.UUID) ([]domain.VendorRecord, error) {
	var vendors []domain.VendorRecord
	err := r.db.SelectContext(ctx, &vendors,
		"SELECT "+vendorColumns+" FROM vendors WHERE wedding_id = $1 ORDER BY vendor_type, vendor_name, created_at",
		weddingID)
	if err != nil {
		return nil, fmt.Errorf("vendorRepo.ListByWedding: %w", err)
	}
	if vendors == nil {
		vendors = []domain.VendorRecord{}
	}
	return vendors, nil
}

func (r *vendorRepo) Update(ctx context.Context, vendor *domain.VendorRecord) error {
	vendor.UpdatedAt = time.Now().UTC()

	query := `UPDATE vendors SET
			vendor_type = :vendor_type, vendor_name = :vendor_name, contact_name = :contact_name,
			email = :email, phone = :phone, website = :website,
			vendor_currency = :vendor_currency, cost_converted_currency = :cost_converted_currency,
			vendor_cost = :vendor_cost, cost_converted = :cost_converted,
			contract_required = :contract_required, contract_signed = :contract_signed,
			contract_signed_date = :contract_signed_date, notes = :notes,
			skip_completion_prompt = :skip_completion_prompt, payments = :payments,
			updated_at = :updated_at
		WHERE id = :id AND wedding_id = :wedding_id`

	result, err := r.db.NamedExecContext(ctx, query, vendor)
	if err != nil {
		return fmt.Errorf("vendorRepo.Update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vendorRepo.Update rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrVendorNotFound
	}
	return nil
}

func (r *vendorRepo) Delete(ctx context.Context, weddingID, vendorID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM vendors WHERE id = $1 AND wedding_id = $2", vendorID, weddingID)
	if err != nil {
		return fmt.Errorf("vendorRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vendorRepo.Delete rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrVendorNotFound
	}
	return nil
}

func (r *vendorRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("vendorRepo.Ping: %w", err)
	}
	return nil
}
