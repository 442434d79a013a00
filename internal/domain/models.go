package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VendorRecord is one wedding vendor and its payment schedule.
// VendorCost and CostConverted are derived from Payments and never taken from input.
type VendorRecord struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	WeddingID             uuid.UUID  `db:"wedding_id" json:"wedding_id"`
	VendorType            VendorType `db:"vendor_type" json:"vendor_type"`
	VendorName            string     `db:"vendor_name" json:"vendor_name,omitempty"`
	ContactName           string     `db:"contact_name" json:"contact_name,omitempty"`
	Email                 string     `db:"email" json:"email,omitempty"`
	Phone                 string     `db:"phone" json:"phone,omitempty"`
	Website               string     `db:"website" json:"website,omitempty"`
	VendorCurrency        string     `db:"vendor_currency" json:"vendor_currency"`
	CostConvertedCurrency string     `db:"cost_converted_currency" json:"cost_converted_currency"`
	VendorCost            float64    `db:"vendor_cost" json:"vendor_cost"`
	CostConverted         float64    `db:"cost_converted" json:"cost_converted"`
	ContractRequired      bool       `db:"contract_required" json:"contract_required"`
	ContractSigned        bool       `db:"contract_signed" json:"contract_signed"`
	ContractSignedDate    string     `db:"contract_signed_date" json:"contract_signed_date,omitempty"`
	Notes                 string     `db:"notes" json:"notes,omitempty"`
	SkipCompletionPrompt  bool       `db:"skip_completion_prompt" json:"skip_completion_prompt"`
	Payments              Payments   `db:"payments" json:"payments"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the vendor name, or its type when unnamed.
func (v *VendorRecord) DisplayName() string {
	if v.VendorName != "" {
		return v.VendorName
	}
	return string(v.VendorType)
}

// PaymentByID returns the index of the payment with the given id, or -1.
func (v *VendorRecord) PaymentByID(id string) int {
	for i := range v.Payments {
		if v.Payments[i].ID == id {
			return i
		}
	}
	return -1
}

// PaymentRecord is one installment in a vendor's schedule.
// Amount is in the vendor currency; AmountConverted in the vendor's converted currency.
type PaymentRecord struct {
	ID                      string      `json:"id"`
	Description             string      `json:"description"`
	Amount                  float64     `json:"amount"`
	AmountCurrency          string      `json:"amount_currency,omitempty"`
	AmountConverted         *float64    `json:"amount_converted,omitempty"`
	AmountConvertedCurrency string      `json:"amount_converted_currency,omitempty"`
	PaymentType             PaymentType `json:"payment_type,omitempty"`
	Refundable              bool        `json:"refundable"`
	DueDate                 string      `json:"due_date,omitempty"`
	Paid                    bool        `json:"paid"`
	PaidDate                string      `json:"paid_date,omitempty"`
}

// IsComplete reports whether the installment has a description, an amount and a payment type.
func (p *PaymentRecord) IsComplete() bool {
	return p.Description != "" && p.Amount != 0 && p.PaymentType.Valid()
}

// ConvertedOrAmount returns AmountConverted when present, else Amount.
func (p *PaymentRecord) ConvertedOrAmount() float64 {
	if p.AmountConverted != nil {
		return *p.AmountConverted
	}
	return p.Amount
}

// Payments is the JSONB-backed payment schedule column.
type Payments []PaymentRecord

// Value implements driver.Valuer.
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal([]PaymentRecord(p))
	if err != nil {
		return nil, fmt.Errorf("marshaling payments: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (p *Payments) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Payments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported payments column type %T", src)
	}
	var out []PaymentRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshaling payments: %w", err)
	}
	*p = out
	return nil
}

// UpcomingPayment pairs an unpaid installment with the vendor it belongs to.
type UpcomingPayment struct {
	VendorID   uuid.UUID     `json:"vendor_id"`
	VendorName string        `json:"vendor_name"`
	VendorType VendorType    `json:"vendor_type"`
	Currency   string        `json:"currency"`
	Payment    PaymentRecord `json:"payment"`
}
