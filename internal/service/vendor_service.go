package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weddingplan/internal/currency"
	"weddingplan/internal/domain"
	"weddingplan/internal/logger"
	"weddingplan/internal/port"
	"weddingplan/internal/schedule"
)

// VendorService is the vendor CRUD store. It owns the payment-schedule invariants:
// merged schedules, unpaid-only conversion and recomputed totals.
type VendorService interface {
	port.VendorStore
	GetVendor(ctx context.Context, weddingID, vendorID uuid.UUID) (*domain.VendorRecord, error)
	DeleteVendor(ctx context.Context, weddingID, vendorID uuid.UUID) error
	UpdatePaymentAmount(ctx context.Context, weddingID, vendorID uuid.UUID, paymentID string, amount float64) (*domain.VendorRecord, error)
	UpcomingPayments(ctx context.Context, weddingID uuid.UUID) ([]domain.UpcomingPayment, error)
}

type vendorService struct {
	repo            port.VendorRepository
	converter       *currency.Converter
	defaultCurrency string
	log             *zap.Logger
}

// NewVendorService creates a new VendorService implementation.
func NewVendorService(repo port.VendorRepository, converter *currency.Converter, defaultCurrency string, log *zap.Logger) VendorService {
	if converter == nil {
		converter = currency.NewConverter(nil, log)
	}
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &vendorService{
		repo:            repo,
		converter:       converter,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		log:             logger.OrNop(log),
	}
}

func (s *vendorService) CreateVendor(ctx context.Context, weddingID uuid.UUID, patch domain.VendorPatch) (*domain.VendorRecord, error) {
	if !patch.CanCreate() {
		return nil, domain.ErrInvalidVendorType
	}
	if err := validateCurrencies(&patch); err != nil {
		return nil, err
	}
	if err := validatePayments(patch.Payments); err != nil {
		return nil, err
	}

	vendor := &domain.VendorRecord{
		WeddingID:      weddingID,
		VendorCurrency: s.defaultCurrency,
	}
	patch.ApplyTo(vendor)
	s.normalizeCurrencies(vendor)
	vendor.Payments = schedule.MergePayments(nil, withoutIDs(patch.Payments))

	s.converter.FillUnpaid(ctx, vendor)
	schedule.RecomputeTotals(vendor)

	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, fmt.Errorf("vendorService.CreateVendor: %w", err)
	}
	s.log.Info("vendorService.CreateVendor: created",
		zap.String("wedding_id", weddingID.String()),
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("vendor_type", string(vendor.VendorType)),
		zap.Int("payments", len(vendor.Payments)),
	)
	return present(vendor), nil
}

func (s *vendorService) UpdateVendor(ctx context.Context, weddingID, vendorID uuid.UUID, patch domain.VendorPatch, opts port.UpdateOptions) (*domain.VendorRecord, error) {
	if patch.VendorType != nil && !patch.VendorType.Valid() {
		return nil, domain.ErrInvalidVendorType
	}
	if err := validateCurrencies(&patch); err != nil {
		return nil, err
	}
	if err := validatePayments(patch.Payments); err != nil {
		return nil, err
	}

	vendor, err := s.repo.GetByID(ctx, weddingID, vendorID)
	if err != nil {
		return nil, err
	}

	if opts.MergePayments {
		if patch.Payments, err = mergeablePayments(vendor, patch.Payments); err != nil {
			return nil, err
		}
	}

	patch.ApplyTo(vendor)
	s.normalizeCurrencies(vendor)
	switch {
	case opts.MergePayments:
		vendor.Payments = schedule.MergePayments(vendor.Payments, patch.Payments)
		clearStaleConversions(vendor, patch.Payments)
	case patch.Payments != nil:
		vendor.Payments = schedule.ReplacePayments(patch.Payments)
	}

	s.converter.FillUnpaid(ctx, vendor)
	schedule.RecomputeTotals(vendor)

	if err := s.repo.Update(ctx, vendor); err != nil {
		return nil, fmt.Errorf("vendorService.UpdateVendor: %w", err)
	}
	s.log.Info("vendorService.UpdateVendor: updated",
		zap.String("wedding_id", weddingID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.Bool("merge_payments", opts.MergePayments),
		zap.Int("payments", len(vendor.Payments)),
	)
	return present(vendor), nil
}

func (s *vendorService) ListVendors(ctx context.Context, weddingID uuid.UUID) ([]domain.VendorRecord, error) {
	vendors, err := s.repo.ListByWedding(ctx, weddingID)
	if err != nil {
		return nil, err
	}
	for i := range vendors {
		vendors[i].Payments = schedule.SortLogical(vendors[i].Payments)
	}
	return vendors, nil
}

func (s *vendorService) GetVendor(ctx context.Context, weddingID, vendorID uuid.UUID) (*domain.VendorRecord, error) {
	vendor, err := s.repo.GetByID(ctx, weddingID, vendorID)
	if err != nil {
		return nil, err
	}
	return present(vendor), nil
}

func (s *vendorService) DeleteVendor(ctx context.Context, weddingID, vendorID uuid.UUID) error {
	return s.repo.Delete(ctx, weddingID, vendorID)
}

// UpdatePaymentAmount sets the raw amount of one installment. Unpaid installments are
// re-converted at the current rate; a paid installment keeps its recorded conversion.
func (s *vendorService) UpdatePaymentAmount(ctx context.Context, weddingID, vendorID uuid.UUID, paymentID string, amount float64) (*domain.VendorRecord, error) {
	vendor, err := s.repo.GetByID(ctx, weddingID, vendorID)
	if err != nil {
		return nil, err
	}
	idx := vendor.PaymentByID(paymentID)
	if idx < 0 {
		return nil, domain.ErrPaymentNotFound
	}

	vendor.Payments[idx].Amount = amount
	s.converter.Reconvert(ctx, vendor, idx)
	schedule.RecomputeTotals(vendor)

	if err := s.repo.Update(ctx, vendor); err != nil {
		return nil, fmt.Errorf("vendorService.UpdatePaymentAmount: %w", err)
	}
	return present(vendor), nil
}

// UpcomingPayments lists every unpaid installment across the wedding's vendors by due date.
func (s *vendorService) UpcomingPayments(ctx context.Context, weddingID uuid.UUID) ([]domain.UpcomingPayment, error) {
	vendors, err := s.repo.ListByWedding(ctx, weddingID)
	if err != nil {
		return nil, err
	}
	items := []domain.UpcomingPayment{}
	for i := range vendors {
		v := &vendors[i]
		for _, p := range v.Payments {
			if p.Paid {
				continue
			}
			items = append(items, domain.UpcomingPayment{
				VendorID:   v.ID,
				VendorName: v.DisplayName(),
				VendorType: v.VendorType,
				Currency:   v.VendorCurrency,
				Payment:    p,
			})
		}
	}
	return schedule.SortUpcoming(items), nil
}

func (s *vendorService) normalizeCurrencies(v *domain.VendorRecord) {
	v.VendorCurrency = strings.ToUpper(strings.TrimSpace(v.VendorCurrency))
	if v.VendorCurrency == "" {
		v.VendorCurrency = s.defaultCurrency
	}
	v.CostConvertedCurrency = strings.ToUpper(strings.TrimSpace(v.CostConvertedCurrency))
	if v.CostConvertedCurrency == "" {
		v.CostConvertedCurrency = v.VendorCurrency
	}
}

func validatePayments(payments []domain.PaymentPatch) error {
	for i := range payments {
		if pt := payments[i].PaymentType; pt != nil && !pt.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidPaymentType, *pt)
		}
		if err := validateCurrency(payments[i].AmountCurrency); err != nil {
			return err
		}
		if err := validateCurrency(payments[i].AmountConvertedCurrency); err != nil {
			return err
		}
	}
	return nil
}

// validateCurrencies rejects vendor currencies that would not fit the CHAR(3) columns.
func validateCurrencies(patch *domain.VendorPatch) error {
	if err := validateCurrency(patch.VendorCurrency); err != nil {
		return err
	}
	return validateCurrency(patch.CostConvertedCurrency)
}

func validateCurrency(code *string) error {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil
	}
	if _, ok := domain.CurrencyCode(*code); !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, *code)
	}
	return nil
}

func withoutIDs(incoming []domain.PaymentPatch) []domain.PaymentPatch {
	out := make([]domain.PaymentPatch, len(incoming))
	for i := range incoming {
		out[i] = incoming[i]
		out[i].ID = ""
	}
	return out
}

// mergeablePayments forgets incoming ids the vendor does not hold, so they cannot leak in
// from another schedule, and requires every installment left without an id to be complete.
func mergeablePayments(v *domain.VendorRecord, incoming []domain.PaymentPatch) ([]domain.PaymentPatch, error) {
	if incoming == nil {
		return nil, nil
	}
	out := make([]domain.PaymentPatch, len(incoming))
	copy(out, incoming)
	for i := range out {
		if out[i].ID != "" && v.PaymentByID(out[i].ID) < 0 {
			out[i].ID = ""
		}
		if out[i].ID == "" && !out[i].IsComplete() {
			return nil, fmt.Errorf("payment %d: %w", i+1, domain.ErrIncompletePayment)
		}
	}
	return out, nil
}

// clearStaleConversions drops the stored conversion of an unpaid installment whose raw
// amount was just changed without a new converted amount, so it is re-converted.
func clearStaleConversions(v *domain.VendorRecord, incoming []domain.PaymentPatch) {
	for i := range incoming {
		in := &incoming[i]
		if in.ID == "" || in.Amount == nil || in.AmountConverted != nil {
			continue
		}
		if idx := v.PaymentByID(in.ID); idx >= 0 && !v.Payments[idx].Paid {
			v.Payments[idx].AmountConverted = nil
		}
	}
}

// present returns the vendor with its payments in installment order.
func present(v *domain.VendorRecord) *domain.VendorRecord {
	v.Payments = schedule.SortLogical(v.Payments)
	return v
}
