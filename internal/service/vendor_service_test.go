package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"weddingplan/internal/currency"
	"weddingplan/internal/domain"
	"weddingplan/internal/port"
	"weddingplan/internal/service"
	"weddingplan/mocks"
)

func setupVendorService(rates port.RateProvider) (service.VendorService, *mocks.MockVendorRepository) {
	repo := new(mocks.MockVendorRepository)
	svc := service.NewVendorService(repo, currency.NewConverter(rates, nil), "eur", nil)
	return svc, repo
}

func paymentPatch(desc string, amount float64, pt domain.PaymentType) domain.PaymentPatch {
	return domain.PaymentPatch{
		Description: domain.Ptr(desc),
		Amount:      domain.Ptr(amount),
		PaymentType: domain.Ptr(pt),
	}
}

func TestVendorService_CreateVendor(t *testing.T) {
	svc, repo := setupVendorService(nil)
	weddingID := uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.VendorRecord")).Return(nil)

	vendor, err := svc.CreateVendor(context.Background(), weddingID, domain.VendorPatch{
		VendorType: domain.Ptr(domain.VendorTypeFlorist),
		VendorName: domain.Ptr("Petal & Stem"),
		Payments: []domain.PaymentPatch{
			paymentPatch("Final payment", 700, domain.PaymentTypeCash),
			paymentPatch("1st deposit", 300, domain.PaymentTypeBankTransfer),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, weddingID, vendor.WeddingID)
	assert.Equal(t, "EUR", vendor.VendorCurrency)
	assert.Equal(t, "EUR", vendor.CostConvertedCurrency)
	assert.InDelta(t, 1000.0, vendor.VendorCost, 0.001)
	assert.InDelta(t, 1000.0, vendor.CostConverted, 0.001)
	require.Len(t, vendor.Payments, 2)
	assert.Equal(t, "1st deposit", vendor.Payments[0].Description)
	for _, p := range vendor.Payments {
		assert.NotEmpty(t, p.ID)
		require.NotNil(t, p.AmountConverted)
	}
	repo.AssertExpectations(t)
}

func TestVendorService_CreateVendor_ConvertsToDisplayCurrency(t *testing.T) {
	rates := new(mocks.MockRateProvider)
	rates.On("Rate", mock.Anything, "EUR", "USD").Return(1.1, nil)
	svc, repo := setupVendorService(rates)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	vendor, err := svc.CreateVendor(context.Background(), uuid.New(), domain.VendorPatch{
		VendorType:            domain.Ptr(domain.VendorTypeVenue),
		VendorCurrency:        domain.Ptr("eur"),
		CostConvertedCurrency: domain.Ptr("usd"),
		Payments:              []domain.PaymentPatch{paymentPatch("Full payment", 1000, domain.PaymentTypeBankTransfer)},
	})

	require.NoError(t, err)
	assert.InDelta(t, 1000.0, vendor.VendorCost, 0.001)
	assert.InDelta(t, 1100.0, vendor.CostConverted, 0.001)
	assert.Equal(t, "USD", vendor.Payments[0].AmountConvertedCurrency)
}

func TestVendorService_CreateVendor_InvalidType(t *testing.T) {
	svc, repo := setupVendorService(nil)

	_, err := svc.CreateVendor(context.Background(), uuid.New(), domain.VendorPatch{
		VendorName: domain.Ptr("Nameless"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidVendorType)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVendorService_CreateVendor_InvalidPaymentType(t *testing.T) {
	svc, repo := setupVendorService(nil)

	_, err := svc.CreateVendor(context.Background(), uuid.New(), domain.VendorPatch{
		VendorType: domain.Ptr(domain.VendorTypeDJ),
		Payments:   []domain.PaymentPatch{paymentPatch("Deposit", 100, domain.PaymentType("cheque"))},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidPaymentType)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVendorService_CreateVendor_IssuesFreshPaymentIDs(t *testing.T) {
	svc, repo := setupVendorService(nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	incoming := paymentPatch("Deposit", 300, domain.PaymentTypeCash)
	incoming.ID = "p1"
	vendor, err := svc.CreateVendor(context.Background(), uuid.New(), domain.VendorPatch{
		VendorType: domain.Ptr(domain.VendorTypePhotographer),
		Payments:   []domain.PaymentPatch{incoming},
	})

	require.NoError(t, err)
	require.Len(t, vendor.Payments, 1)
	assert.NotEmpty(t, vendor.Payments[0].ID)
	assert.NotEqual(t, "p1", vendor.Payments[0].ID)
}

func TestVendorService_UpdateVendor_MergeKeepsUnmentionedPayments(t *testing.T) {
	svc, repo := setupVendorService(nil)
	weddingID, vendorID := uuid.New(), uuid.New()
	paid := 500.0

	stored := &domain.VendorRecord{
		ID:             vendorID,
		WeddingID:      weddingID,
		VendorType:     domain.VendorTypePhotographer,
		VendorCurrency: "EUR",
		Payments: domain.Payments{
			{ID: "p1", Description: "1st deposit", Amount: 500, AmountConverted: &paid, AmountConvertedCurrency: "EUR", PaymentType: domain.PaymentTypeCash, Paid: true, PaidDate: "2026-01-10"},
			{ID: "p2", Description: "Final payment", Amount: 1500, PaymentType: domain.PaymentTypeCash},
		},
	}
	repo.On("GetByID", mock.Anything, weddingID, vendorID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.VendorRecord")).Return(nil)

	vendor, err := svc.UpdateVendor(context.Background(), weddingID, vendorID, domain.VendorPatch{
		Payments: []domain.PaymentPatch{paymentPatch("2nd deposit", 400, domain.PaymentTypeBankTransfer)},
	}, port.UpdateOptions{MergePayments: true})

	require.NoError(t, err)
	require.Len(t, vendor.Payments, 3)
	assert.Equal(t, "1st deposit", vendor.Payments[0].Description)
	assert.True(t, vendor.Payments[0].Paid)
	assert.Equal(t, "2nd deposit", vendor.Payments[1].Description)
	assert.Equal(t, "Final payment", vendor.Payments[2].Description)
	assert.InDelta(t, 2400.0, vendor.VendorCost, 0.001)
}

func TestVendorService_UpdateVendor_MergeForgetsForeignPaymentIDs(t *testing.T) {
	svc, repo := setupVendorService(nil)
	weddingID, vendorID := uuid.New(), uuid.New()

	stored := &domain.VendorRecord{
		ID:             vendorID,
		WeddingID:      weddingID,
		VendorType:     domain.VendorTypePhotographer,
		VendorCurrency: "EUR",
		Payments:       domain.Payments{{ID: "q1", Description: "Final balance", Amount: 900, PaymentType: domain.PaymentTypeCash}},
	}
	repo.On("GetByID", mock.Anything, weddingID, vendorID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	incoming := paymentPatch("Deposit", 300, domain.PaymentTypeCash)
	incoming.ID = "p1"
	vendor, err := svc.UpdateVendor(context.Background(), weddingID, vendorID, domain.VendorPatch{
		Payments: []domain.PaymentPatch{incoming},
	}, port.UpdateOptions{MergePayments: true})

	require.NoError(t, err)
	require.Len(t, vendor.Payments, 2)
	for _, p := range vendor.Payments {
		assert.NotEqual(t, "p1", p.ID)
		assert.NotEmpty(t, p.ID)
	}
	assert.InDelta(t, 1200.0, vendor.VendorCost, 0.001)
}

func TestVendorService_UpdateVendor_MergeRejectsIncompleteNewPayment(t *testing.T) {
	svc, repo := setupVendorService(nil)
	weddingID, vendorID := uuid.New(), uuid.New()

	stored := &domain.VendorRecord{
		ID:             vendorID,
		WeddingID:      weddingID,
		VendorType:     domain.VendorTypePhotographer,
		VendorCurrency: "EUR",
		Payments:       domain.Payments{{ID: "q1", Description: "Final balance", Amount: 900, PaymentType: domain.PaymentTypeCash}},
	}
	repo.On("GetByID", mock.Anything, weddingID, vendorID).Return(stored, nil)

	tests := []struct {
		name    string
		payment domain.PaymentPatch
	}{
		{"unknown id without amount", domain.PaymentPatch{ID: "p1", Description: domain.Ptr("Deposit"), Paid: domain.Ptr(true)}},
		{"no id without type", domain.PaymentPatch{Description: domain.Ptr("Deposit"), Amount: domain.Ptr(300.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateVendor(context.Background(), weddingID, vendorID, domain.VendorPatch{
				Payments: []domain.PaymentPatch{tt.payment},
			}, port.UpdateOptions{MergePayments: true})

			assert.ErrorIs(t, err, domain.ErrIncompletePayment)
		})
	}
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Len(t, stored.Payments, 1)
}

func TestVendorService_RejectsUnknownCurrency(t *testing.T) {
	svc, repo := setupVendorService(nil)

	_, err := svc.CreateVendor(context.Background(), uuid.New(), domain.VendorPatch{
		VendorType:     domain.Ptr(domain.VendorTypeDJ),
		VendorCurrency: domain.Ptr("EURO"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	bad := paymentPatch("Deposit", 100, domain.PaymentTypeCash)
	bad.AmountCurrency = domain.Ptr("XX")
	_, err = svc.UpdateVendor(context.Background(), uuid.New(), uuid.New(), domain.VendorPatch{
		Payments: []domain.PaymentPatch{bad},
	}, port.UpdateOptions{MergePayments: true})
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestVendorService_UpdateVendor_ReplaceSchedule(t *testing.T) {
	svc, repo := setupVendorService(nil)
	weddingID, vendorID := uuid.New(), uuid.New()

	stored := &domain.VendorRecord{
		ID:             vendorID,
		WeddingID:      weddingID,
		VendorType:     domain.VendorTypeBand,
		VendorCurrency: "EUR",
		Payments:       domain.Payments{{ID: "p1", Description: "Full payment", Amount: 900, PaymentType: domain.PaymentTypeCash}},
	}
	repo.On("GetByID", mock.Anything, weddingID, vendorID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	vendor, err := svc.UpdateVendor(context.Background(), weddingID, vendorID, domain.VendorPatch{
		Payments: []domain.PaymentPatch{paymentPatch("1st deposit", 200, domain.PaymentTypeCash)},
	}, port.UpdateOptions{})

	require.NoError(t, err)
	require.Len(t, vendor.Payments, 1)
	assert.Equal(t, "1st deposit", vendor.Payments[0].Description)
	assert.InDelta(t, 200.0, vendor.VendorCost, 0.001)
}

func TestVendorService_UpdateVendor_NotFound(t *testing.T) {
	svc, repo := setupVendorService(nil)
	repo.On("GetByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrVendorNotFound)

	_, err := svc.UpdateVendor(context.Background(), uuid.New(), uuid.New(), domain.VendorPatch{}, port.UpdateOptions{MergePayments: true})

	assert.ErrorIs(t, err, domain.ErrVendorNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestVendorService_UpdatePaymentAmount_ReconvertsUnpaid(t *testing.T) {
	rates := new(mocks.MockRateProvider)
	rates.On("Rate", mock.Anything, "GBP", "EUR").Return(1.2, nil)
	svc, repo := setupVendorService(rates)
	weddingID, vendorID := uuid.New(), uuid.New()
	old := 120.0

	stored := &domain.VendorRecord{
		ID:                    vendorID,
		WeddingID:             weddingID,
		VendorType:            domain.VendorTypeCake,
		VendorCurrency:        "GBP",
		CostConvertedCurrency: "EUR",
		Payments:              domain.Payments{{ID: "p1", Description: "Full payment", Amount: 100, AmountConverted: &old, AmountConvertedCurrency: "EUR", PaymentType: domain.PaymentTypeCash}},
	}
	repo.On("GetByID", mock.Anything, weddingID, vendorID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	vendor, err := svc.UpdatePaymentAmount(context.Background(), weddingID, vendorID, "p1", 250)

	require.NoError(t, err)
	assert.InDelta(t, 250.0, vendor.Payments[0].Amount, 0.001)
	require.NotNil(t, vendor.Payments[0].AmountConverted)
	assert.InDelta(t, 300.0, *vendor.Payments[0].AmountConverted, 0.001)
	assert.InDelta(t, 300.0, vendor.CostConverted, 0.001)
}

func TestVendorService_UpdatePaymentAmount_PaidKeepsConversion(t *testing.T) {
	rates := new(mocks.MockRateProvider)
	svc, repo := setupVendorService(rates)
	weddingID, vendorID := uuid.New(), uuid.New()
	old := 120.0

	stored := &domain.VendorRecord{
		ID:                    vendorID,
		WeddingID:             weddingID,
		VendorType:            domain.VendorTypeCake,
		VendorCurrency:        "GBP",
		CostConvertedCurrency: "EUR",
		Payments:              domain.Payments{{ID: "p1", Description: "Full payment", Amount: 100, AmountConverted: &old, AmountConvertedCurrency: "EUR", Paid: true}},
	}
	repo.On("GetByID", mock.Anything, weddingID, vendorID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	vendor, err := svc.UpdatePaymentAmount(context.Background(), weddingID, vendorID, "p1", 110)

	require.NoError(t, err)
	assert.InDelta(t, 120.0, *vendor.Payments[0].AmountConverted, 0.001)
	rates.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything)
}

func TestVendorService_UpdatePaymentAmount_UnknownPayment(t *testing.T) {
	svc, repo := setupVendorService(nil)
	weddingID, vendorID := uuid.New(), uuid.New()
	repo.On("GetByID", mock.Anything, weddingID, vendorID).Return(&domain.VendorRecord{ID: vendorID}, nil)

	_, err := svc.UpdatePaymentAmount(context.Background(), weddingID, vendorID, "missing", 10)

	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestVendorService_UpcomingPayments(t *testing.T) {
	svc, repo := setupVendorService(nil)
	weddingID := uuid.New()

	repo.On("ListByWedding", mock.Anything, weddingID).Return([]domain.VendorRecord{
		{
			ID: uuid.New(), VendorType: domain.VendorTypeVenue, VendorName: "Castle", VendorCurrency: "EUR",
			Payments: domain.Payments{
				{ID: "a", Description: "1st deposit", Amount: 1000, DueDate: "2026-03-01", Paid: true},
				{ID: "b", Description: "Final payment", Amount: 4000, DueDate: "2026-08-01"},
			},
		},
		{
			ID: uuid.New(), VendorType: domain.VendorTypeDJ, VendorCurrency: "EUR",
			Payments: domain.Payments{{ID: "c", Description: "Full payment", Amount: 600, DueDate: "2026-05-15"}},
		},
	}, nil)

	items, err := svc.UpcomingPayments(context.Background(), weddingID)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Payment.ID)
	assert.Equal(t, "DJ", items[0].VendorName)
	assert.Equal(t, "b", items[1].Payment.ID)
}

func TestVendorService_ListVendors_Error(t *testing.T) {
	svc, repo := setupVendorService(nil)
	repo.On("ListByWedding", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.ListVendors(context.Background(), uuid.New())
	assert.Error(t, err)
}
