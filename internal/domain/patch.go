package domain

import "strings"

// VendorPatch is a partial VendorRecord. Nil fields are left untouched when applied.
// Vendor cost totals have no field here: they are always recomputed from payments.
type VendorPatch struct {
	VendorType            *VendorType    `json:"vendor_type,omitempty"`
	VendorName            *string        `json:"vendor_name,omitempty"`
	ContactName           *string        `json:"contact_name,omitempty"`
	Email                 *string        `json:"email,omitempty"`
	Phone                 *string        `json:"phone,omitempty"`
	Website               *string        `json:"website,omitempty"`
	VendorCurrency        *string        `json:"vendor_currency,omitempty"`
	CostConvertedCurrency *string        `json:"cost_converted_currency,omitempty"`
	ContractRequired      *bool          `json:"contract_required,omitempty"`
	ContractSigned        *bool          `json:"contract_signed,omitempty"`
	ContractSignedDate    *string        `json:"contract_signed_date,omitempty"`
	Notes                 *string        `json:"notes,omitempty"`
	SkipCompletionPrompt  *bool          `json:"skip_completion_prompt,omitempty"`
	Payments              []PaymentPatch `json:"payments,omitempty"`
}

// CanCreate reports whether the patch carries enough to create a vendor.
func (p *VendorPatch) CanCreate() bool {
	return p.VendorType != nil && p.VendorType.Valid()
}

// Label is a human-readable name for error messages: name, else type, else "vendor".
func (p *VendorPatch) Label() string {
	if p.VendorName != nil && strings.TrimSpace(*p.VendorName) != "" {
		return *p.VendorName
	}
	if p.VendorType != nil && *p.VendorType != "" {
		return string(*p.VendorType)
	}
	return "vendor"
}

// ApplyTo copies every non-nil scalar field onto v. Payments are not touched.
func (p *VendorPatch) ApplyTo(v *VendorRecord) {
	if p.VendorType != nil {
		v.VendorType = *p.VendorType
	}
	setString(&v.VendorName, p.VendorName)
	setString(&v.ContactName, p.ContactName)
	setString(&v.Email, p.Email)
	setString(&v.Phone, p.Phone)
	setString(&v.Website, p.Website)
	setString(&v.VendorCurrency, p.VendorCurrency)
	setString(&v.CostConvertedCurrency, p.CostConvertedCurrency)
	setBool(&v.ContractRequired, p.ContractRequired)
	setBool(&v.ContractSigned, p.ContractSigned)
	setString(&v.ContractSignedDate, p.ContractSignedDate)
	setString(&v.Notes, p.Notes)
	setBool(&v.SkipCompletionPrompt, p.SkipCompletionPrompt)
}

// Clone returns a deep copy of the patch.
func (p *VendorPatch) Clone() VendorPatch {
	out := *p
	out.VendorType = clonePtr(p.VendorType)
	out.VendorName = clonePtr(p.VendorName)
	out.ContactName = clonePtr(p.ContactName)
	out.Email = clonePtr(p.Email)
	out.Phone = clonePtr(p.Phone)
	out.Website = clonePtr(p.Website)
	out.VendorCurrency = clonePtr(p.VendorCurrency)
	out.CostConvertedCurrency = clonePtr(p.CostConvertedCurrency)
	out.ContractRequired = clonePtr(p.ContractRequired)
	out.ContractSigned = clonePtr(p.ContractSigned)
	out.ContractSignedDate = clonePtr(p.ContractSignedDate)
	out.Notes = clonePtr(p.Notes)
	out.SkipCompletionPrompt = clonePtr(p.SkipCompletionPrompt)
	if p.Payments != nil {
		out.Payments = make([]PaymentPatch, len(p.Payments))
		for i := range p.Payments {
			out.Payments[i] = p.Payments[i].Clone()
		}
	}
	return out
}

// PaymentPatch is a partial PaymentRecord matched to an existing installment by ID.
type PaymentPatch struct {
	ID                      string       `json:"id,omitempty"`
	Description             *string      `json:"description,omitempty"`
	Amount                  *float64     `json:"amount,omitempty"`
	AmountCurrency          *string      `json:"amount_currency,omitempty"`
	AmountConverted         *float64     `json:"amount_converted,omitempty"`
	AmountConvertedCurrency *string      `json:"amount_converted_currency,omitempty"`
	PaymentType             *PaymentType `json:"payment_type,omitempty"`
	Refundable              *bool        `json:"refundable,omitempty"`
	DueDate                 *string      `json:"due_date,omitempty"`
	Paid                    *bool        `json:"paid,omitempty"`
	PaidDate                *string      `json:"paid_date,omitempty"`
}

// IsComplete reports whether the payment can be executed: description, amount and payment type set.
func (p *PaymentPatch) IsComplete() bool {
	return p.Description != nil && strings.TrimSpace(*p.Description) != "" &&
		p.Amount != nil &&
		p.HasPaymentType()
}

// HasPaymentType reports whether a valid payment type is set.
func (p *PaymentPatch) HasPaymentType() bool {
	return p.PaymentType != nil && p.PaymentType.Valid()
}

// ApplyTo merges the patch into r field by field; absent fields keep r's values.
func (p *PaymentPatch) ApplyTo(r *PaymentRecord) {
	setString(&r.Description, p.Description)
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	setString(&r.AmountCurrency, p.AmountCurrency)
	if p.AmountConverted != nil {
		v := *p.AmountConverted
		r.AmountConverted = &v
	}
	setString(&r.AmountConvertedCurrency, p.AmountConvertedCurrency)
	if p.PaymentType != nil {
		r.PaymentType = *p.PaymentType
	}
	setBool(&r.Refundable, p.Refundable)
	setString(&r.DueDate, p.DueDate)
	setBool(&r.Paid, p.Paid)
	setString(&r.PaidDate, p.PaidDate)
}

// ToRecord builds a new installment from the patch.
func (p *PaymentPatch) ToRecord() PaymentRecord {
	r := PaymentRecord{ID: p.ID}
	p.ApplyTo(&r)
	return r
}

// Clone returns a deep copy of the patch.
func (p *PaymentPatch) Clone() PaymentPatch {
	out := *p
	out.Description = clonePtr(p.Description)
	out.Amount = clonePtr(p.Amount)
	out.AmountCurrency = clonePtr(p.AmountCurrency)
	out.AmountConverted = clonePtr(p.AmountConverted)
	out.AmountConvertedCurrency = clonePtr(p.AmountConvertedCurrency)
	out.PaymentType = clonePtr(p.PaymentType)
	out.Refundable = clonePtr(p.Refundable)
	out.DueDate = clonePtr(p.DueDate)
	out.Paid = clonePtr(p.Paid)
	out.PaidDate = clonePtr(p.PaidDate)
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
