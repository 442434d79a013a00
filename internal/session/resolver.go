package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"weddingplan/internal/domain"
)

var paymentFieldRe = regexp.MustCompile(`^payment_(\d+)_([a-z_]+)$`)

// answer is a clarification reply after type-specific normalization.
type answer struct {
	text   string
	number float64
}

func normalizeAnswer(c *domain.Clarification, raw string) answer {
	switch c.FieldType {
	case domain.FieldTypeNumber:
		return answer{text: strings.TrimSpace(raw), number: NormalizeNumber(raw)}
	case domain.FieldTypeEmail:
		return answer{text: NormalizeEmail(raw)}
	case domain.FieldTypeDate:
		return answer{text: FormatDateInput(raw)}
	case domain.FieldTypeChoice:
		return answer{text: raw}
	}
	text := strings.TrimSpace(raw)
	if c.Field == "vendor_name" || c.Field == "contact_name" {
		text = TitleCase(text)
	}
	return answer{text: text, number: NormalizeNumber(text)}
}

// isCurrencyField reports whether answers to field must be ISO 4217 codes.
func isCurrencyField(field string) bool {
	if field == "vendor_currency" || field == "cost_converted_currency" {
		return true
	}
	m := paymentFieldRe.FindStringSubmatch(field)
	return m != nil && m[2] == "amount_currency"
}

// applyVendorField writes an answer onto a vendor-level field. Unknown fields are ignored.
func applyVendorField(p *domain.VendorPatch, field string, a answer) {
	switch field {
	case "vendor_type":
		vt := domain.VendorType(a.text)
		if vt.Valid() {
			p.VendorType = &vt
		}
	case "vendor_name":
		p.VendorName = domain.Ptr(a.text)
	case "contact_name":
		p.ContactName = domain.Ptr(a.text)
	case "email":
		p.Email = domain.Ptr(NormalizeEmail(a.text))
	case "phone":
		p.Phone = domain.Ptr(a.text)
	case "website":
		p.Website = domain.Ptr(a.text)
	case "vendor_currency":
		if code, ok := domain.CurrencyCode(a.text); ok {
			p.VendorCurrency = &code
		}
	case "cost_converted_currency":
		if code, ok := domain.CurrencyCode(a.text); ok {
			p.CostConvertedCurrency = &code
		}
	case "contract_required":
		p.ContractRequired = domain.Ptr(NormalizeBool(a.text))
	case "contract_signed":
		p.ContractSigned = domain.Ptr(NormalizeBool(a.text))
	case "contract_signed_date":
		p.ContractSignedDate = domain.Ptr(FormatDateInput(a.text))
	case "notes":
		p.Notes = domain.Ptr(a.text)
	}
}

// applyPaymentField writes an answer onto one payment field. Unknown fields are ignored.
func applyPaymentField(p *domain.PaymentPatch, field string, a answer, fieldType domain.FieldType) {
	switch field {
	case "description":
		if fieldType == domain.FieldTypeChoice {
			p.Description = domain.Ptr(canonicalDescription(a.text))
		} else {
			p.Description = domain.Ptr(a.text)
		}
	case "amount":
		p.Amount = domain.Ptr(a.number)
	case "amount_converted":
		p.AmountConverted = domain.Ptr(a.number)
	case "amount_currency":
		if code, ok := domain.CurrencyCode(a.text); ok {
			p.AmountCurrency = &code
		}
	case "payment_type":
		pt := domain.PaymentType(a.text)
		if pt.Valid() {
			p.PaymentType = &pt
		}
	case "due_date":
		p.DueDate = domain.Ptr(FormatDateInput(a.text))
	case "paid_date":
		p.PaidDate = domain.Ptr(FormatDateInput(a.text))
	case "paid":
		p.Paid = domain.Ptr(NormalizeBool(a.text))
	case "refundable":
		p.Refundable = domain.Ptr(NormalizeBool(a.text))
	}
}

// canonicalDescription maps a sequencing choice onto the stored payment description.
func canonicalDescription(choice string) string {
	if choice == domain.ChoiceTotalCost {
		return domain.DescriptionFullPayment
	}
	return domain.DescriptionFirstDeposit
}

// applyPaymentType sets the chosen type on the clarification's payment, falling back to
// the first payment still missing one when no valid index is carried.
func applyPaymentType(op *domain.ParsedOperation, c *domain.Clarification, value string) {
	pt := domain.PaymentType(value)
	if !pt.Valid() {
		return
	}
	payments := op.VendorData.Payments
	if c.PaymentIndex != nil && *c.PaymentIndex >= 0 && *c.PaymentIndex < len(payments) {
		payments[*c.PaymentIndex].PaymentType = &pt
		return
	}
	for i := range payments {
		if !payments[i].HasPaymentType() {
			payments[i].PaymentType = &pt
			return
		}
	}
}

// applyToOperation folds a non-action answer into one operation.
func applyToOperation(op *domain.ParsedOperation, c *domain.Clarification, a answer) {
	if c.Field == domain.FieldPaymentType {
		applyPaymentType(op, c, a.text)
		return
	}
	if m := paymentFieldRe.FindStringSubmatch(c.Field); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 || n >= len(op.VendorData.Payments) {
			return
		}
		applyPaymentField(&op.VendorData.Payments[n], m[2], a, c.FieldType)
		return
	}
	applyVendorField(&op.VendorData, c.Field, a)
}

// applyActionChoice resolves an action_choice answer. It reports whether the operation
// must be removed from the batch and, when it stays, which of its payments the chosen
// vendor already holds with a payment type.
func applyActionChoice(op *domain.ParsedOperation, c *domain.Clarification, choice string) (remove bool, typed []bool) {
	payments := op.VendorData.Payments
	typed = make([]bool, len(payments))
	switch {
	case choice == domain.ChoiceSkip:
		return true, nil
	case choice == domain.ChoiceCreateNew:
		op.Action = domain.ActionCreate
		op.VendorID = ""
		op.MatchedVendorName = ""
		for j := range payments {
			payments[j].ID = ""
		}
	case strings.HasPrefix(choice, domain.ChoiceUpdatePrefix):
		id, ok := c.ChoiceTargets[choice]
		if !ok {
			return false, typed
		}
		op.Action = domain.ActionUpdate
		op.VendorID = id
		op.MatchedVendorName = strings.TrimPrefix(choice, domain.ChoiceUpdatePrefix)
		matches := c.ChoicePayments[choice]
		if len(matches) != len(payments) {
			// The payments were edited after extraction; treat them all as new installments.
			matches = make([]domain.PaymentMatch, len(payments))
		}
		for j := range payments {
			payments[j].ID = matches[j].ID
			typed[j] = matches[j].Typed
		}
	}
	return false, typed
}

// paymentRequirements lists the clarifications operation idx needs so every payment can
// be stored: a type unless the target already holds one, and a description and amount
// for new installments. typed marks payments whose stored installment has a type.
func paymentRequirements(idx int, op *domain.ParsedOperation, typed []bool) []domain.Clarification {
	var out []domain.Clarification
	name := op.MatchedVendorName
	if op.VendorData.VendorName != nil && *op.VendorData.VendorName != "" {
		name = *op.VendorData.VendorName
	}
	if name == "" {
		name = "this vendor"
	}
	for j := range op.VendorData.Payments {
		pay := &op.VendorData.Payments[j]
		label := fmt.Sprintf("payment %d", j+1)
		if pay.Description != nil && *pay.Description != "" {
			label = *pay.Description
		}
		if !pay.HasPaymentType() && (j >= len(typed) || !typed[j]) {
			out = append(out, domain.Clarification{
				Question:       fmt.Sprintf("How will the %s for %s be paid?", label, name),
				Field:          domain.FieldPaymentType,
				FieldType:      domain.FieldTypeChoice,
				OperationIndex: domain.Ptr(idx),
				PaymentIndex:   domain.Ptr(j),
				Required:       true,
				Choices:        []string{string(domain.PaymentTypeCash), string(domain.PaymentTypeBankTransfer)},
			})
		}
		if op.Action == domain.ActionUpdate && pay.ID != "" {
			continue
		}
		if pay.Description == nil || strings.TrimSpace(*pay.Description) == "" {
			out = append(out, domain.Clarification{
				Question:       fmt.Sprintf("What is %s for %s?", label, name),
				Field:          fmt.Sprintf("payment_%d_description", j),
				FieldType:      domain.FieldTypeText,
				OperationIndex: domain.Ptr(idx),
				Required:       true,
			})
		}
		if pay.Amount == nil {
			out = append(out, domain.Clarification{
				Question:       fmt.Sprintf("How much is the %s for %s?", label, name),
				Field:          fmt.Sprintf("payment_%d_amount", j),
				FieldType:      domain.FieldTypeNumber,
				OperationIndex: domain.Ptr(idx),
				Required:       true,
			})
		}
	}
	return out
}

// samePaymentQuestion reports whether a and b ask for the same payment field of the same operation.
func samePaymentQuestion(a, b *domain.Clarification) bool {
	if a.OperationIndex == nil || b.OperationIndex == nil || *a.OperationIndex != *b.OperationIndex || a.Field != b.Field {
		return false
	}
	if a.Field != domain.FieldPaymentType {
		return true
	}
	return a.PaymentIndex != nil && b.PaymentIndex != nil && *a.PaymentIndex == *b.PaymentIndex
}

// operationIncomplete reports whether an operation lacks data the store needs.
// Payments without an id are new installments and must be complete; payments with an
// id on an update patch an existing installment and may be partial.
func operationIncomplete(op *domain.ParsedOperation) bool {
	if op.Action == domain.ActionCreate && !op.VendorData.CanCreate() {
		return true
	}
	if op.Action == domain.ActionUpdate && op.VendorID == "" {
		return true
	}
	for i := range op.VendorData.Payments {
		p := &op.VendorData.Payments[i]
		if op.Action == domain.ActionUpdate && p.ID != "" {
			continue
		}
		if !p.IsComplete() {
			return true
		}
	}
	return false
}
