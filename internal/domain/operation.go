package domain

import "fmt"

// Well-known clarification fields and choice labels.
const (
	FieldActionChoice = "action_choice"
	FieldPaymentType  = "payment_type"

	ChoiceCreateNew    = "Create new vendor"
	ChoiceSkip         = "Skip"
	ChoiceUpdatePrefix = "Update "
	ChoiceTotalCost    = "Total cost"
	ChoiceFirstDeposit = "1st deposit"

	DescriptionFullPayment  = "Full payment"
	DescriptionFirstDeposit = "1st deposit"
)

// ParsedOperation is one proposed create or update produced by extraction.
type ParsedOperation struct {
	Action            OperationAction `json:"action"`
	VendorID          string          `json:"vendor_id,omitempty"`
	MatchedVendorName string          `json:"matched_vendor_name,omitempty"`
	VendorData        VendorPatch     `json:"vendor_data"`
	AmbiguousFields   []string        `json:"ambiguous_fields,omitempty"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// Label names the operation's vendor for error reporting.
func (o *ParsedOperation) Label() string {
	label := o.VendorData.Label()
	if label == "vendor" && o.MatchedVendorName != "" {
		label = o.MatchedVendorName
	}
	return fmt.Sprintf("%s %s", o.Action, label)
}

// Clone returns a deep copy of the operation.
func (o *ParsedOperation) Clone() ParsedOperation {
	out := *o
	out.VendorData = o.VendorData.Clone()
	out.AmbiguousFields = append([]string(nil), o.AmbiguousFields...)
	out.Warnings = append([]string(nil), o.Warnings...)
	return out
}

// Clarification is a question asked before an operation executes.
// A nil OperationIndex makes it global to the batch.
type Clarification struct {
	ID             string    `json:"id,omitempty"`
	Question       string    `json:"question"`
	Field          string    `json:"field"`
	FieldType      FieldType `json:"field_type"`
	Context        string    `json:"context,omitempty"`
	OperationIndex *int      `json:"operation_index,omitempty"`
	PaymentIndex   *int      `json:"payment_index,omitempty"`
	Required       bool      `json:"required"`
	Choices        []string  `json:"choices,omitempty"`

	// ChoiceTargets maps an "Update <name>" choice to the vendor id it retargets the operation to.
	ChoiceTargets map[string]string `json:"choice_targets,omitempty"`
	// ChoicePayments holds, per "Update <name>" choice, one entry per payment of the operation.
	ChoicePayments map[string][]PaymentMatch `json:"choice_payments,omitempty"`
}

// PaymentMatch is how one proposed payment lines up with a candidate vendor's schedule.
// An empty ID means the payment would be a new installment there.
type PaymentMatch struct {
	ID    string `json:"id,omitempty"`
	Typed bool   `json:"typed,omitempty"`
}

// HasChoice reports whether value is one of the offered choices.
func (c *Clarification) HasChoice(value string) bool {
	for _, ch := range c.Choices {
		if ch == value {
			return true
		}
	}
	return false
}

// IsGlobal reports whether the clarification applies to the whole batch.
func (c *Clarification) IsGlobal() bool {
	return c.OperationIndex == nil
}

// AppliesTo reports whether the clarification targets operation idx.
func (c *Clarification) AppliesTo(idx int) bool {
	return c.OperationIndex != nil && *c.OperationIndex == idx
}

// Clone returns a deep copy of the clarification.
func (c *Clarification) Clone() Clarification {
	out := *c
	out.OperationIndex = clonePtr(c.OperationIndex)
	out.PaymentIndex = clonePtr(c.PaymentIndex)
	out.Choices = append([]string(nil), c.Choices...)
	if c.ChoiceTargets != nil {
		out.ChoiceTargets = make(map[string]string, len(c.ChoiceTargets))
		for k, v := range c.ChoiceTargets {
			out.ChoiceTargets[k] = v
		}
	}
	if c.ChoicePayments != nil {
		out.ChoicePayments = make(map[string][]PaymentMatch, len(c.ChoicePayments))
		for k, v := range c.ChoicePayments {
			out.ChoicePayments[k] = append([]PaymentMatch(nil), v...)
		}
	}
	return out
}
