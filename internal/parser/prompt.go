package parser

import (
	"encoding/json"
	"strings"

	"weddingplan/internal/domain"
)

// rosterEntry is the subset of a vendor the model needs to match references.
type rosterEntry struct {
	ID         string                 `json:"id"`
	VendorType domain.VendorType      `json:"vendor_type"`
	VendorName string                 `json:"vendor_name,omitempty"`
	Currency   string                 `json:"vendor_currency,omitempty"`
	Payments   []rosterPaymentSummary `json:"payments,omitempty"`
}

type rosterPaymentSummary struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date,omitempty"`
	Paid        bool    `json:"paid"`
}

// BuildVendorPrompt returns the system prompt for vendor extraction against the given roster.
func BuildVendorPrompt(roster []domain.VendorRecord, defaultCurrency string) string {
	types := make([]string, len(domain.VendorTypes))
	for i, t := range domain.VendorTypes {
		types[i] = `"` + string(t) + `"`
	}

	return `You extract wedding vendor information and payment schedules from text or documents written by a couple or their planner.

Compare what you find against the EXISTING VENDORS list below and decide, for every vendor mentioned, whether it is a new vendor ("create") or an existing one ("update").

RULES:
- Only use vendor_type values from this list: ` + strings.Join(types, ", ") + `.
- For "update", set vendor_id to the id of the matched existing vendor and matched_vendor_name to its name.
- If a reference could match several existing vendors of the same type and the input does not name one, do not guess: add an "action_choice" clarification instead.
- When updating an existing payment, copy its id into the payment. New payments have no id.
- payment_type is "cash" or "bank_transfer". If the input does not say, leave it out and ask with a "payment_type" clarification that sets payment_index.
- Amounts are plain numbers. Dates are YYYY-MM-DD.
- Only set amount_converted when the input states a converted amount and its currency.
- When no currency is stated, leave vendor_currency empty; ` + defaultCurrency + ` will be assumed.
- Never invent vendor_cost or totals; they are computed from the payments.
- If the input contains nothing vendor-related, return empty operations and one clarification explaining why.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation.

Schema:
{
  "operations": [
    {
      "action": "create" | "update",
      "vendor_id": "",
      "matched_vendor_name": "",
      "vendor_data": {
        "vendor_type": "", "vendor_name": "", "contact_name": "",
        "email": "", "phone": "", "website": "",
        "vendor_currency": "", "cost_converted_currency": "",
        "contract_required": false, "contract_signed": false, "contract_signed_date": "",
        "notes": "",
        "payments": [
          {
            "id": "", "description": "", "amount": 0,
            "amount_currency": "", "amount_converted": 0, "amount_converted_currency": "",
            "payment_type": "", "refundable": false,
            "due_date": "", "paid": false, "paid_date": ""
          }
        ]
      },
      "ambiguous_fields": [],
      "warnings": []
    }
  ],
  "clarifications_needed": [
    {
      "question": "", "field": "", "field_type": "text" | "number" | "date" | "email" | "phone" | "choice",
      "context": "", "operation_index": 0, "payment_index": 0,
      "required": true, "choices": []
    }
  ]
}

Omit fields you have no information for. Omit operation_index for questions about the whole input.

EXISTING VENDORS:
` + rosterJSON(roster)
}

// BuildUserPrompt frames the import text for text-only requests.
func BuildUserPrompt(text string) string {
	return "Extract vendor operations from the following input:\n\n" + text
}

// DocumentInstruction accompanies a PDF attachment.
const DocumentInstruction = "Extract vendor operations from the attached document."

func rosterJSON(roster []domain.VendorRecord) string {
	entries := make([]rosterEntry, 0, len(roster))
	for i := range roster {
		v := &roster[i]
		e := rosterEntry{
			ID:         v.ID.String(),
			VendorType: v.VendorType,
			VendorName: v.VendorName,
			Currency:   v.VendorCurrency,
		}
		for _, p := range v.Payments {
			e.Payments = append(e.Payments, rosterPaymentSummary{
				ID:          p.ID,
				Description: p.Description,
				Amount:      p.Amount,
				DueDate:     p.DueDate,
				Paid:        p.Paid,
			})
		}
		entries = append(entries, e)
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
