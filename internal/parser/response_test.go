package parser_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weddingplan/internal/domain"
	"weddingplan/internal/parser"
)

func TestDecodeExtraction(t *testing.T) {
	text := `{
  "operations": [
    {"action": "create", "vendor_data": {"vendor_type": "Florist", "vendor_name": "Petal & Stem", "email": "",
      "payments": [{"description": "Deposit", "amount": 500, "payment_type": "", "due_date": "2026-05-01"}]}}
  ],
  "clarifications_needed": [
    {"question": "Cash or bank transfer?", "field": "payment_type", "field_type": "choice",
     "operation_index": 0, "payment_index": 0, "required": true, "choices": ["cash", "bank_transfer"]}
  ]
}`

	out, err := parser.DecodeExtraction(text, "test-model")

	require.NoError(t, err)
	assert.Equal(t, "test-model", out.ModelUsed)
	require.Len(t, out.Operations, 1)
	op := out.Operations[0]
	assert.Equal(t, domain.ActionCreate, op.Action)
	assert.Equal(t, domain.VendorTypeFlorist, *op.VendorData.VendorType)
	assert.Equal(t, "Petal & Stem", *op.VendorData.VendorName)
	assert.Nil(t, op.VendorData.Email, "blank strings are treated as absent")
	require.Len(t, op.VendorData.Payments, 1)
	assert.Nil(t, op.VendorData.Payments[0].PaymentType)
	assert.Equal(t, 500.0, *op.VendorData.Payments[0].Amount)

	require.Len(t, out.Clarifications, 1)
	assert.Equal(t, 0, *out.Clarifications[0].OperationIndex)
	assert.Equal(t, 0, *out.Clarifications[0].PaymentIndex)
	assert.True(t, out.Clarifications[0].Required)
}

func TestDecodeExtraction_CodeFences(t *testing.T) {
	text := "```json\n{\"operations\": [], \"clarifications_needed\": []}\n```"

	out, err := parser.DecodeExtraction(text, "m")

	require.NoError(t, err)
	assert.Empty(t, out.Operations)
	assert.Empty(t, out.Clarifications)
}

func TestDecodeExtraction_NotJSON(t *testing.T) {
	_, err := parser.DecodeExtraction("I could not find any vendors, sorry!", "m")
	assert.ErrorContains(t, err, "parsing LLM JSON output")

	_, err = parser.DecodeExtraction("   ", "m")
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, parser.StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, parser.StripCodeFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, parser.StripCodeFences(`  {"a":1}  `))
}

func TestBuildVendorPrompt_IncludesRosterAndDefaults(t *testing.T) {
	id := uuid.MustParse("0b9e33a4-6d1c-4c36-9a4c-9a3f8e0c7f11")
	roster := []domain.VendorRecord{{
		ID:             id,
		VendorType:     domain.VendorTypeVenue,
		VendorName:     "Castello di Vincigliata",
		VendorCurrency: "EUR",
		Payments: domain.Payments{
			{ID: "p1", Description: "1st deposit", Amount: 4000, Paid: true},
		},
	}}

	prompt := parser.BuildVendorPrompt(roster, "GBP")

	assert.Contains(t, prompt, id.String())
	assert.Contains(t, prompt, "Castello di Vincigliata")
	assert.Contains(t, prompt, `"p1"`)
	assert.Contains(t, prompt, "GBP will be assumed")
	assert.Contains(t, prompt, `"Hair & Makeup"`)
	assert.Contains(t, prompt, "clarifications_needed")
}
