package extraction_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"weddingplan/internal/domain"
	"weddingplan/internal/extraction"
	"weddingplan/internal/parser"
	"weddingplan/internal/port"
	"weddingplan/mocks"
)

const maxPDF = 20 * 1024 * 1024

func newEngine(backend port.VendorExtractor) *extraction.Engine {
	return extraction.NewEngine(backend, extraction.Config{MaxPDFBytes: maxPDF, DefaultCurrency: "EUR"}, nil)
}

func fakePDF(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte("%PDF-1.7\n"))
	return b
}

func vendor(vt domain.VendorType, name, currency string, payments ...domain.PaymentRecord) domain.VendorRecord {
	return domain.VendorRecord{
		ID:             uuid.New(),
		VendorType:     vt,
		VendorName:     name,
		VendorCurrency: currency,
		Payments:       payments,
	}
}

func TestEngine_RejectsOversizedPDFBeforeBackend(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	engine := newEngine(backend)

	_, err := engine.Extract(context.Background(), extraction.Input{PDF: fakePDF(25 * 1024 * 1024), Filename: "contract.pdf"}, nil)

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	backend.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestEngine_RejectsNonPDFWithPDFExtension(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	engine := newEngine(backend)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	_, err := engine.Extract(context.Background(), extraction.Input{PDF: png, Filename: "quote.pdf"}, nil)

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	backend.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestEngine_RejectsEmptyInput(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)

	_, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "   "}, nil)

	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	backend.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestEngine_AcceptsPDFAtCap(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return len(in.PDF) == maxPDF && in.DefaultCurrency == "EUR"
	})).Return(&port.ExtractOutput{}, nil)

	_, err := newEngine(backend).Extract(context.Background(), extraction.Input{PDF: fakePDF(maxPDF)}, nil)

	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestEngine_BackendFailureIsExtractionFailure(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	rl := parser.NewRateLimitError("claude", errors.New("429"), 30)
	backend.On("Extract", mock.Anything, mock.Anything).Return(nil, rl)

	_, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "hello"}, nil)

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	var rlErr *parser.RateLimitError
	assert.True(t, errors.As(err, &rlErr))
}

func TestEngine_NothingFoundAsksGlobally(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "lovely weather today"}, nil)

	require.NoError(t, err)
	assert.Empty(t, res.Operations)
	require.Len(t, res.Clarifications, 1)
	assert.True(t, res.Clarifications[0].IsGlobal())
	assert.Equal(t, extraction.NothingFoundQuestion, res.Clarifications[0].Question)
}

func TestEngine_TypeOnlyReferenceWithSeveralCandidatesAsks(t *testing.T) {
	jane := vendor(domain.VendorTypeCaterer, "Jane's Catering", "EUR")
	paella := vendor(domain.VendorTypeCaterer, "Paella Bros", "EUR")
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action:            domain.ActionUpdate,
			VendorID:          jane.ID.String(),
			MatchedVendorName: "Jane's Catering",
			VendorData: domain.VendorPatch{
				VendorType: domain.Ptr(domain.VendorTypeCaterer),
				Notes:      domain.Ptr("tasting booked"),
			},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(),
		extraction.Input{Text: "the caterer confirmed the tasting"},
		[]domain.VendorRecord{jane, paella})

	require.NoError(t, err)
	require.Len(t, res.Clarifications, 1)
	c := res.Clarifications[0]
	assert.Equal(t, domain.FieldActionChoice, c.Field)
	assert.Equal(t, domain.FieldTypeChoice, c.FieldType)
	assert.True(t, c.Required)
	assert.Equal(t, []string{domain.ChoiceCreateNew, "Update Jane's Catering", "Update Paella Bros", domain.ChoiceSkip}, c.Choices)
	assert.Equal(t, paella.ID.String(), c.ChoiceTargets["Update Paella Bros"])
}

func TestEngine_ActionChoiceCarriesPaymentMatchesPerCandidate(t *testing.T) {
	lens := vendor(domain.VendorTypePhotographer, "Lens Studio", "EUR",
		domain.PaymentRecord{ID: "p1", Description: "Deposit", Amount: 300, PaymentType: domain.PaymentTypeCash})
	pixel := vendor(domain.VendorTypePhotographer, "Pixel Co", "EUR",
		domain.PaymentRecord{ID: "q1", Description: "Final balance", Amount: 900})
	tests := []struct {
		name     string
		vendorID string
	}{
		{name: "type only", vendorID: ""},
		{name: "guessed target", vendorID: pixel.ID.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := new(mocks.MockVendorExtractor)
			backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
				Operations: []domain.ParsedOperation{{
					Action:   domain.ActionUpdate,
					VendorID: tt.vendorID,
					VendorData: domain.VendorPatch{
						VendorType: domain.Ptr(domain.VendorTypePhotographer),
						Payments:   []domain.PaymentPatch{{Description: domain.Ptr("deposit"), Paid: domain.Ptr(true)}},
					},
				}},
			}, nil)

			res, err := newEngine(backend).Extract(context.Background(),
				extraction.Input{Text: "paid the photographer deposit"},
				[]domain.VendorRecord{lens, pixel})

			require.NoError(t, err)
			var choice *domain.Clarification
			for i := range res.Clarifications {
				if res.Clarifications[i].Field == domain.FieldActionChoice {
					choice = &res.Clarifications[i]
				}
			}
			require.NotNil(t, choice)
			assert.Equal(t, []domain.PaymentMatch{{ID: "p1", Typed: true}}, choice.ChoicePayments["Update Lens Studio"])
			assert.Equal(t, []domain.PaymentMatch{{}}, choice.ChoicePayments["Update Pixel Co"])
			assert.Empty(t, res.Operations[0].VendorData.Payments[0].ID)
		})
	}
}

func TestEngine_NamedReferenceDoesNotAsk(t *testing.T) {
	jane := vendor(domain.VendorTypeCaterer, "Jane's Catering", "EUR")
	paella := vendor(domain.VendorTypeCaterer, "Paella Bros", "EUR")
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action:     domain.ActionUpdate,
			VendorID:   paella.ID.String(),
			VendorData: domain.VendorPatch{Notes: domain.Ptr("tasting booked")},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(),
		extraction.Input{Text: "Paella Bros confirmed the tasting"},
		[]domain.VendorRecord{jane, paella})

	require.NoError(t, err)
	assert.Empty(t, res.Clarifications)
	op := res.Operations[0]
	assert.Equal(t, "Paella Bros", op.MatchedVendorName)
	assert.Equal(t, domain.VendorTypeCaterer, *op.VendorData.VendorType)
}

func TestEngine_UpdateWithoutMatchBecomesCreate(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action:   domain.ActionUpdate,
			VendorID: "not-a-vendor",
			VendorData: domain.VendorPatch{
				VendorType: domain.Ptr(domain.VendorTypeFlorist),
				VendorName: domain.Ptr("Petals"),
			},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "Petals will do flowers"}, nil)

	require.NoError(t, err)
	op := res.Operations[0]
	assert.Equal(t, domain.ActionCreate, op.Action)
	assert.Empty(t, op.VendorID)
	assert.Contains(t, op.Warnings, "no matching existing vendor; it will be created")
}

func TestEngine_FuzzyNameResolvesUpdate(t *testing.T) {
	cortijo := vendor(domain.VendorTypeVenue, "El Cortijo de los Caballos", "EUR")
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action:            domain.ActionUpdate,
			MatchedVendorName: "Cortijo de los Caballos",
			VendorData:        domain.VendorPatch{Notes: domain.Ptr("ceremony moved to 5pm")},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "cortijo moved the ceremony"}, []domain.VendorRecord{cortijo})

	require.NoError(t, err)
	assert.Equal(t, cortijo.ID.String(), res.Operations[0].VendorID)
	assert.Equal(t, domain.ActionUpdate, res.Operations[0].Action)
}

func TestEngine_AdoptsExistingPaymentIDByDescription(t *testing.T) {
	lens := vendor(domain.VendorTypePhotographer, "Lens & Light", "USD",
		domain.PaymentRecord{ID: "p-dep", Description: "1st deposit", Amount: 500, PaymentType: domain.PaymentTypeCash},
		domain.PaymentRecord{ID: "p-final", Description: "Final balance", Amount: 1500, PaymentType: domain.PaymentTypeCash},
	)
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action:   domain.ActionUpdate,
			VendorID: lens.ID.String(),
			VendorData: domain.VendorPatch{Payments: []domain.PaymentPatch{
				{Description: domain.Ptr("1st Deposit"), Paid: domain.Ptr(true), PaidDate: domain.Ptr("2026-02-01")},
				{ID: "bogus", Description: domain.Ptr("2nd payment"), Amount: domain.Ptr(250.0), PaymentType: domain.Ptr(domain.PaymentTypeBankTransfer)},
			}},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "paid Lens & Light the deposit"}, []domain.VendorRecord{lens})

	require.NoError(t, err)
	payments := res.Operations[0].VendorData.Payments
	assert.Equal(t, "p-dep", payments[0].ID)
	assert.Empty(t, payments[1].ID)
	assert.Equal(t, "USD", *payments[0].AmountCurrency)
	assert.Nil(t, res.Operations[0].VendorData.VendorCurrency)
	assert.Empty(t, res.Clarifications)
}

func TestEngine_DefaultsCurrencyAndWarns(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action: domain.ActionCreate,
			VendorData: domain.VendorPatch{
				VendorType: domain.Ptr(domain.VendorTypeCake),
				Payments: []domain.PaymentPatch{{
					Description: domain.Ptr("Full payment"),
					Amount:      domain.Ptr(400.0),
					PaymentType: domain.Ptr(domain.PaymentTypeCash),
				}},
			},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "cake 400"}, nil)

	require.NoError(t, err)
	op := res.Operations[0]
	assert.Equal(t, "EUR", *op.VendorData.VendorCurrency)
	assert.Equal(t, "EUR", *op.VendorData.Payments[0].AmountCurrency)
	assert.Contains(t, op.Warnings, "assumed EUR")
}

func TestEngine_UnknownCurrencyAsksAndFallsBack(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action: domain.ActionCreate,
			VendorData: domain.VendorPatch{
				VendorType:     domain.Ptr(domain.VendorTypeCake),
				VendorName:     domain.Ptr("Sugar Co"),
				VendorCurrency: domain.Ptr("euros"),
				Payments: []domain.PaymentPatch{{
					Description:    domain.Ptr("Full payment"),
					Amount:         domain.Ptr(400.0),
					AmountCurrency: domain.Ptr("bucks"),
					PaymentType:    domain.Ptr(domain.PaymentTypeCash),
				}},
			},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "Sugar Co cake 400 euros"}, nil)

	require.NoError(t, err)
	op := res.Operations[0]
	assert.Equal(t, "EUR", *op.VendorData.VendorCurrency)
	assert.Equal(t, "EUR", *op.VendorData.Payments[0].AmountCurrency)
	assert.Contains(t, op.AmbiguousFields, "vendor_currency")
	assert.Contains(t, op.AmbiguousFields, "payment_0_amount_currency")
	require.Len(t, res.Clarifications, 1)
	c := res.Clarifications[0]
	assert.Equal(t, "vendor_currency", c.Field)
	assert.True(t, c.Required)
	assert.True(t, c.AppliesTo(0))
}

func TestEngine_KnownCurrencyIsUpperCased(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action: domain.ActionCreate,
			VendorData: domain.VendorPatch{
				VendorType:     domain.Ptr(domain.VendorTypeCake),
				VendorCurrency: domain.Ptr(" chf "),
				Payments: []domain.PaymentPatch{{
					Description: domain.Ptr("Full payment"),
					Amount:      domain.Ptr(400.0),
					PaymentType: domain.Ptr(domain.PaymentTypeCash),
				}},
			},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "cake 400 CHF"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "CHF", *res.Operations[0].VendorData.VendorCurrency)
	assert.Equal(t, "CHF", *res.Operations[0].VendorData.Payments[0].AmountCurrency)
	assert.Empty(t, res.Clarifications)
}

func TestEngine_DropsConvertedAmountWithoutBasis(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action: domain.ActionCreate,
			VendorData: domain.VendorPatch{
				VendorType:     domain.Ptr(domain.VendorTypeDJ),
				VendorCurrency: domain.Ptr("gbp"),
				Payments: []domain.PaymentPatch{{
					Description:     domain.Ptr("Full payment"),
					Amount:          domain.Ptr(800.0),
					AmountConverted: domain.Ptr(930.0),
					PaymentType:     domain.Ptr(domain.PaymentTypeBankTransfer),
				}},
			},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "dj 800 pounds"}, nil)

	require.NoError(t, err)
	op := res.Operations[0]
	assert.Equal(t, "GBP", *op.VendorData.VendorCurrency)
	assert.Nil(t, op.VendorData.Payments[0].AmountConverted)
	assert.NotEmpty(t, op.Warnings)
}

func TestEngine_MissingPaymentTypesGetIndexedClarifications(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action: domain.ActionCreate,
			VendorData: domain.VendorPatch{
				VendorType: domain.Ptr(domain.VendorTypeBand),
				VendorName: domain.Ptr("Brass"),
				Payments: []domain.PaymentPatch{
					{Description: domain.Ptr("1st deposit"), Amount: domain.Ptr(300.0)},
					{Description: domain.Ptr("Final balance"), Amount: domain.Ptr(700.0), PaymentType: domain.Ptr(domain.PaymentType("card"))},
				},
			},
		}},
		Clarifications: []domain.Clarification{{
			Question:       "How is the deposit paid?",
			Field:          domain.FieldPaymentType,
			FieldType:      domain.FieldTypeChoice,
			OperationIndex: domain.Ptr(0),
			Choices:        []string{"cash", "bank_transfer"},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "brass band"}, nil)

	require.NoError(t, err)
	require.Len(t, res.Clarifications, 2)
	assert.Equal(t, "How is the deposit paid?", res.Clarifications[0].Question)
	assert.Equal(t, 0, *res.Clarifications[0].PaymentIndex)
	assert.True(t, res.Clarifications[0].Required)
	assert.Equal(t, 1, *res.Clarifications[1].PaymentIndex)
	assert.Nil(t, res.Operations[0].VendorData.Payments[1].PaymentType)
}

func TestEngine_CreateWithoutTypeAsksForType(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Operations: []domain.ParsedOperation{{
			Action:     domain.ActionCreate,
			VendorData: domain.VendorPatch{VendorName: domain.Ptr("Mystery Co"), VendorType: domain.Ptr(domain.VendorType("Juggler"))},
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "Mystery Co"}, nil)

	require.NoError(t, err)
	require.Len(t, res.Clarifications, 1)
	assert.Equal(t, "vendor_type", res.Clarifications[0].Field)
	assert.Contains(t, res.Operations[0].AmbiguousFields, "vendor_type")
}

func TestEngine_OutOfRangeClarificationBecomesGlobal(t *testing.T) {
	backend := new(mocks.MockVendorExtractor)
	backend.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Clarifications: []domain.Clarification{{
			Question:       "Which vendor?",
			Field:          "vendor_name",
			FieldType:      domain.FieldTypeChoice,
			OperationIndex: domain.Ptr(4),
		}},
	}, nil)

	res, err := newEngine(backend).Extract(context.Background(), extraction.Input{Text: "hmm"}, nil)

	require.NoError(t, err)
	require.Len(t, res.Clarifications, 1)
	assert.True(t, res.Clarifications[0].IsGlobal())
	assert.Equal(t, domain.FieldTypeText, res.Clarifications[0].FieldType)
}
