package extraction

import (
	"fmt"
	"strings"
	"time"

	"weddingplan/internal/domain"
)

// NothingFoundQuestion is the global clarification raised when the input holds no vendor data.
const NothingFoundQuestion = "I couldn't find any vendor or payment details in this input. Which vendor is it about?"

type postProcessor struct {
	roster          *Roster
	text            string
	defaultCurrency string
}

func (p *postProcessor) run(ops []domain.ParsedOperation, clars []domain.Clarification) ([]domain.ParsedOperation, []domain.Clarification) {
	outOps := make([]domain.ParsedOperation, 0, len(ops))
	for i := range ops {
		outOps = append(outOps, ops[i].Clone())
	}
	outClars := p.sanitizeClarifications(clars, len(outOps))

	for i := range outOps {
		op := &outOps[i]
		p.normalizeAction(op)
		p.normalizeVendorType(op)
		var target *domain.VendorRecord
		if op.Action == domain.ActionUpdate {
			target, outClars = p.resolveTarget(i, op, outClars)
		}
		p.reconcilePayments(op, target)
		outClars = p.defaultCurrencies(i, op, target, outClars)
		p.dropBaselessConversions(op, target)
		p.checkDates(op)
		outClars = p.requireVendorType(i, op, outClars)
		outClars = p.requirePaymentTypes(i, op, target, outClars)
	}

	for i := range outClars {
		c := &outClars[i]
		if c.Field == domain.FieldActionChoice && c.OperationIndex != nil {
			p.matchChoicePayments(c, ops[*c.OperationIndex].VendorData.Payments)
		}
	}

	if len(outOps) == 0 && len(outClars) == 0 {
		outClars = append(outClars, domain.Clarification{
			Question:  NothingFoundQuestion,
			Field:     "input",
			FieldType: domain.FieldTypeText,
			Context:   "The input did not mention a vendor, a service or an amount.",
		})
	}
	return outOps, outClars
}

// sanitizeClarifications repairs backend clarifications: choice questions without choices
// become text, and out-of-range operation indexes become global.
func (p *postProcessor) sanitizeClarifications(in []domain.Clarification, nOps int) []domain.Clarification {
	out := make([]domain.Clarification, 0, len(in))
	for i := range in {
		c := in[i].Clone()
		if strings.TrimSpace(c.Question) == "" {
			continue
		}
		if c.FieldType == "" {
			c.FieldType = domain.FieldTypeText
		}
		if c.FieldType == domain.FieldTypeChoice && len(c.Choices) == 0 {
			c.FieldType = domain.FieldTypeText
		}
		if c.OperationIndex != nil && (*c.OperationIndex < 0 || *c.OperationIndex >= nOps) {
			c.OperationIndex = nil
		}
		if c.Field == domain.FieldActionChoice {
			p.mapChoiceTargets(&c)
		}
		out = append(out, c)
	}
	return out
}

// mapChoiceTargets resolves "Update <name>" choices of a backend question to roster ids.
func (p *postProcessor) mapChoiceTargets(c *domain.Clarification) {
	for _, choice := range c.Choices {
		if !strings.HasPrefix(choice, domain.ChoiceUpdatePrefix) {
			continue
		}
		if v := p.roster.MatchName(strings.TrimPrefix(choice, domain.ChoiceUpdatePrefix), ""); v != nil {
			if c.ChoiceTargets == nil {
				c.ChoiceTargets = make(map[string]string)
			}
			c.ChoiceTargets[choice] = v.ID.String()
		}
	}
}

func (p *postProcessor) normalizeAction(op *domain.ParsedOperation) {
	switch op.Action {
	case domain.ActionCreate, domain.ActionUpdate:
		return
	}
	if op.VendorID != "" {
		op.Action = domain.ActionUpdate
	} else {
		op.Action = domain.ActionCreate
	}
}

func (p *postProcessor) normalizeVendorType(op *domain.ParsedOperation) {
	vt := op.VendorData.VendorType
	if vt == nil || vt.Valid() {
		return
	}
	for _, known := range domain.VendorTypes {
		if strings.EqualFold(string(known), strings.TrimSpace(string(*vt))) {
			op.VendorData.VendorType = domain.Ptr(known)
			return
		}
	}
	op.Warnings = append(op.Warnings, fmt.Sprintf("unrecognized vendor type %q", string(*vt)))
	op.AmbiguousFields = appendUnique(op.AmbiguousFields, "vendor_type")
	op.VendorData.VendorType = nil
}

// resolveTarget pins an update to a roster vendor, asks the human when the reference is
// type-only and ambiguous, or downgrades the update to a create when nothing matches.
func (p *postProcessor) resolveTarget(idx int, op *domain.ParsedOperation, clars []domain.Clarification) (*domain.VendorRecord, []domain.Clarification) {
	var vt domain.VendorType
	if op.VendorData.VendorType != nil {
		vt = *op.VendorData.VendorType
	}

	target := p.roster.ByID(op.VendorID)
	if target == nil {
		target = p.roster.MatchName(op.MatchedVendorName, vt)
		if target == nil && op.VendorData.VendorName != nil {
			target = p.roster.MatchName(*op.VendorData.VendorName, vt)
		}
		if target != nil {
			op.Warnings = append(op.Warnings, fmt.Sprintf("matched existing vendor %q by name", target.DisplayName()))
		}
	}

	if target == nil {
		candidates := p.roster.OfType(vt)
		switch {
		case vt != "" && len(candidates) > 1:
			op.VendorID = ""
			op.MatchedVendorName = ""
			return nil, p.askActionChoice(idx, op, candidates, clars)
		case vt != "" && len(candidates) == 1:
			target = candidates[0]
			op.Warnings = append(op.Warnings, fmt.Sprintf("matched the only %s, %q", vt, target.DisplayName()))
		default:
			op.Action = domain.ActionCreate
			op.VendorID = ""
			op.MatchedVendorName = ""
			op.Warnings = append(op.Warnings, "no matching existing vendor; it will be created")
			return nil, clars
		}
	}

	op.VendorID = target.ID.String()
	if op.MatchedVendorName == "" {
		op.MatchedVendorName = target.DisplayName()
	}
	if op.VendorData.VendorType == nil {
		op.VendorData.VendorType = domain.Ptr(target.VendorType)
	}

	if candidates := p.roster.OfType(target.VendorType); len(candidates) > 1 && !p.hasNameEvidence(op, target) {
		return target, p.askActionChoice(idx, op, candidates, clars)
	}
	return target, clars
}

// hasNameEvidence reports whether the input itself names the target, as opposed to the
// backend guessing from type-only language such as "the photographer".
func (p *postProcessor) hasNameEvidence(op *domain.ParsedOperation, target *domain.VendorRecord) bool {
	if target.VendorName == "" {
		return false
	}
	if p.text != "" && mentions(p.text, target.VendorName) {
		return true
	}
	return op.VendorData.VendorName != nil && NameSimilarity(*op.VendorData.VendorName, target.VendorName) >= nameMatchThreshold
}

func (p *postProcessor) askActionChoice(idx int, op *domain.ParsedOperation, candidates []*domain.VendorRecord, clars []domain.Clarification) []domain.Clarification {
	for i := range clars {
		if clars[i].Field == domain.FieldActionChoice && clars[i].AppliesTo(idx) {
			clars[i] = actionChoiceFor(idx, op, candidates, clars[i].Question)
			return clars
		}
	}
	return append(clars, actionChoiceFor(idx, op, candidates, ""))
}

func actionChoiceFor(idx int, op *domain.ParsedOperation, candidates []*domain.VendorRecord, question string) domain.Clarification {
	vt := "vendor"
	if op.VendorData.VendorType != nil {
		vt = strings.ToLower(string(*op.VendorData.VendorType))
	}
	if question == "" {
		question = fmt.Sprintf("You have more than one %s. Which one is this about?", vt)
	}
	choices := []string{domain.ChoiceCreateNew}
	targets := make(map[string]string, len(candidates))
	for _, c := range candidates {
		label := domain.ChoiceUpdatePrefix + c.DisplayName()
		if _, dup := targets[label]; dup {
			continue
		}
		choices = append(choices, label)
		targets[label] = c.ID.String()
	}
	choices = append(choices, domain.ChoiceSkip)
	return domain.Clarification{
		Question:       question,
		Field:          domain.FieldActionChoice,
		FieldType:      domain.FieldTypeChoice,
		OperationIndex: domain.Ptr(idx),
		Required:       true,
		Choices:        choices,
		ChoiceTargets:  targets,
	}
}

// reconcilePayments clears ids the store would not recognize and adopts the id of an
// existing installment when an unidentified payment describes exactly one of them.
func (p *postProcessor) reconcilePayments(op *domain.ParsedOperation, target *domain.VendorRecord) {
	payments := op.VendorData.Payments
	for j := range payments {
		pay := &payments[j]
		if pay.PaymentType != nil && !pay.PaymentType.Valid() {
			op.Warnings = append(op.Warnings, fmt.Sprintf("ignored unknown payment type %q", string(*pay.PaymentType)))
			pay.PaymentType = nil
		}
	}
	if target == nil || op.Action == domain.ActionCreate {
		for j := range payments {
			payments[j].ID = ""
		}
		return
	}
	for j, m := range matchPayments(payments, target) {
		pay := &payments[j]
		if pay.ID == "" && m.ID != "" && pay.Description != nil {
			op.Warnings = append(op.Warnings, fmt.Sprintf("matched existing payment %q", *pay.Description))
		}
		pay.ID = m.ID
	}
}

// matchPayments lines proposed payments up with target's schedule. A payment keeps an id
// the target knows; otherwise it adopts the one installment with the same description.
func matchPayments(payments []domain.PaymentPatch, target *domain.VendorRecord) []domain.PaymentMatch {
	out := make([]domain.PaymentMatch, len(payments))
	for j := range payments {
		pay := &payments[j]
		id := ""
		if pay.ID != "" && target.PaymentByID(pay.ID) >= 0 {
			id = pay.ID
		} else if pay.Description != nil {
			id = uniqueDescriptionMatch(target.Payments, *pay.Description)
		}
		if id == "" {
			continue
		}
		k := target.PaymentByID(id)
		out[j] = domain.PaymentMatch{ID: id, Typed: target.Payments[k].PaymentType.Valid()}
	}
	return out
}

// matchChoicePayments records, for every "Update <name>" choice, how the operation's
// payments line up with that vendor. payments are the operation's payments as extracted.
func (p *postProcessor) matchChoicePayments(c *domain.Clarification, payments []domain.PaymentPatch) {
	c.ChoicePayments = nil
	for choice, id := range c.ChoiceTargets {
		target := p.roster.ByID(id)
		if target == nil {
			continue
		}
		if c.ChoicePayments == nil {
			c.ChoicePayments = make(map[string][]domain.PaymentMatch, len(c.ChoiceTargets))
		}
		c.ChoicePayments[choice] = matchPayments(payments, target)
	}
}

func uniqueDescriptionMatch(existing []domain.PaymentRecord, desc string) string {
	want := strings.ToLower(strings.TrimSpace(desc))
	if want == "" {
		return ""
	}
	found := ""
	for i := range existing {
		if strings.ToLower(strings.TrimSpace(existing[i].Description)) == want {
			if found != "" {
				return ""
			}
			found = existing[i].ID
		}
	}
	return found
}

// defaultCurrencies fills missing currencies and replaces codes that are not ISO 4217.
// An unknown vendor currency also raises a required vendor_currency question.
func (p *postProcessor) defaultCurrencies(idx int, op *domain.ParsedOperation, target *domain.VendorRecord, clars []domain.Clarification) []domain.Clarification {
	data := &op.VendorData
	fallback := p.defaultCurrency
	if target != nil && target.VendorCurrency != "" {
		fallback = target.VendorCurrency
	}

	var cur string
	switch {
	case data.VendorCurrency != nil && strings.TrimSpace(*data.VendorCurrency) != "":
		code, ok := domain.CurrencyCode(*data.VendorCurrency)
		if !ok {
			op.Warnings = append(op.Warnings, fmt.Sprintf("unknown currency %q; assumed %s", *data.VendorCurrency, fallback))
			op.AmbiguousFields = appendUnique(op.AmbiguousFields, "vendor_currency")
			clars = askCurrency(idx, op, *data.VendorCurrency, clars)
			code = fallback
		}
		cur = code
		data.VendorCurrency = domain.Ptr(cur)
	case target != nil && target.VendorCurrency != "":
		cur = target.VendorCurrency
	default:
		cur = p.defaultCurrency
		data.VendorCurrency = domain.Ptr(cur)
		op.Warnings = append(op.Warnings, "assumed "+cur)
	}

	if c := data.CostConvertedCurrency; c != nil && strings.TrimSpace(*c) != "" {
		if code, ok := domain.CurrencyCode(*c); ok {
			data.CostConvertedCurrency = domain.Ptr(code)
		} else {
			op.Warnings = append(op.Warnings, fmt.Sprintf("ignored unknown converted currency %q", *c))
			data.CostConvertedCurrency = nil
		}
	}

	for j := range data.Payments {
		pay := &data.Payments[j]
		switch {
		case pay.AmountCurrency == nil || strings.TrimSpace(*pay.AmountCurrency) == "":
			pay.AmountCurrency = domain.Ptr(cur)
		default:
			code, ok := domain.CurrencyCode(*pay.AmountCurrency)
			if !ok {
				op.Warnings = append(op.Warnings, fmt.Sprintf("unknown currency %q for payment %d; assumed %s", *pay.AmountCurrency, j+1, cur))
				op.AmbiguousFields = appendUnique(op.AmbiguousFields, fmt.Sprintf("payment_%d_amount_currency", j))
				code = cur
			}
			pay.AmountCurrency = domain.Ptr(code)
		}
		if c := pay.AmountConvertedCurrency; c != nil && strings.TrimSpace(*c) != "" {
			if code, ok := domain.CurrencyCode(*c); ok {
				pay.AmountConvertedCurrency = domain.Ptr(code)
			} else {
				op.Warnings = append(op.Warnings, fmt.Sprintf("ignored unknown converted currency %q for payment %d", *c, j+1))
				pay.AmountConvertedCurrency = nil
			}
		}
	}
	return clars
}

func askCurrency(idx int, op *domain.ParsedOperation, given string, clars []domain.Clarification) []domain.Clarification {
	for i := range clars {
		if clars[i].Field == "vendor_currency" && clars[i].AppliesTo(idx) {
			clars[i].Required = true
			return clars
		}
	}
	return append(clars, domain.Clarification{
		Question:       fmt.Sprintf("Which currency is %s priced in?", operationName(op)),
		Field:          "vendor_currency",
		FieldType:      domain.FieldTypeText,
		OperationIndex: domain.Ptr(idx),
		Required:       true,
		Context:        fmt.Sprintf("%q is not a currency code. Use a 3-letter code such as EUR.", given),
	})
}

// dropBaselessConversions removes converted amounts that have no currency to be converted into.
func (p *postProcessor) dropBaselessConversions(op *domain.ParsedOperation, target *domain.VendorRecord) {
	data := &op.VendorData
	vendorConverted := ""
	if data.CostConvertedCurrency != nil {
		vendorConverted = strings.TrimSpace(*data.CostConvertedCurrency)
	} else if target != nil {
		vendorConverted = target.CostConvertedCurrency
	}
	for j := range data.Payments {
		pay := &data.Payments[j]
		if pay.AmountConverted == nil {
			continue
		}
		basis := vendorConverted
		if pay.AmountConvertedCurrency != nil && strings.TrimSpace(*pay.AmountConvertedCurrency) != "" {
			basis = *pay.AmountConvertedCurrency
		}
		if basis == "" {
			pay.AmountConverted = nil
			pay.AmountConvertedCurrency = nil
			op.Warnings = append(op.Warnings, fmt.Sprintf("dropped converted amount for payment %d: no target currency", j+1))
		}
	}
}

func (p *postProcessor) checkDates(op *domain.ParsedOperation) {
	check := func(field string, v *string) {
		if v == nil || *v == "" {
			return
		}
		if _, err := time.Parse("2006-01-02", *v); err != nil {
			op.AmbiguousFields = appendUnique(op.AmbiguousFields, field)
			op.Warnings = append(op.Warnings, fmt.Sprintf("%s %q is not a YYYY-MM-DD date", field, *v))
		}
	}
	check("contract_signed_date", op.VendorData.ContractSignedDate)
	for j := range op.VendorData.Payments {
		pay := &op.VendorData.Payments[j]
		check(fmt.Sprintf("payment_%d_due_date", j), pay.DueDate)
		check(fmt.Sprintf("payment_%d_paid_date", j), pay.PaidDate)
	}
}

func (p *postProcessor) requireVendorType(idx int, op *domain.ParsedOperation, clars []domain.Clarification) []domain.Clarification {
	if op.Action != domain.ActionCreate || op.VendorData.CanCreate() {
		return clars
	}
	for i := range clars {
		if clars[i].Field == "vendor_type" && clars[i].AppliesTo(idx) {
			return clars
		}
	}
	choices := make([]string, len(domain.VendorTypes))
	for i, vt := range domain.VendorTypes {
		choices[i] = string(vt)
	}
	return append(clars, domain.Clarification{
		Question:       fmt.Sprintf("What kind of vendor is %s?", operationName(op)),
		Field:          "vendor_type",
		FieldType:      domain.FieldTypeChoice,
		OperationIndex: domain.Ptr(idx),
		Required:       true,
		Choices:        choices,
	})
}

// requirePaymentTypes raises one required payment_type clarification per payment that has
// no type, each carrying its payment index. Backend questions without an index are pinned
// to the first uncovered payment.
func (p *postProcessor) requirePaymentTypes(idx int, op *domain.ParsedOperation, target *domain.VendorRecord, clars []domain.Clarification) []domain.Clarification {
	var missing []int
	for j := range op.VendorData.Payments {
		pay := &op.VendorData.Payments[j]
		if pay.HasPaymentType() {
			continue
		}
		if target != nil && pay.ID != "" {
			if k := target.PaymentByID(pay.ID); k >= 0 && target.Payments[k].PaymentType.Valid() {
				continue
			}
		}
		missing = append(missing, j)
	}
	if len(missing) == 0 {
		return clars
	}

	covered := make(map[int]bool, len(missing))
	var unpinned []int
	for i := range clars {
		c := &clars[i]
		if c.Field != domain.FieldPaymentType || !c.AppliesTo(idx) {
			continue
		}
		c.Required = true
		if c.PaymentIndex != nil {
			covered[*c.PaymentIndex] = true
		} else {
			unpinned = append(unpinned, i)
		}
	}
	for _, j := range missing {
		if covered[j] {
			continue
		}
		if len(unpinned) > 0 {
			clars[unpinned[0]].PaymentIndex = domain.Ptr(j)
			unpinned = unpinned[1:]
			covered[j] = true
			continue
		}
		clars = append(clars, paymentTypeQuestion(idx, j, op))
	}
	return clars
}

func paymentTypeQuestion(idx, j int, op *domain.ParsedOperation) domain.Clarification {
	desc := fmt.Sprintf("payment %d", j+1)
	if d := op.VendorData.Payments[j].Description; d != nil && *d != "" {
		desc = *d
	}
	return domain.Clarification{
		Question:       fmt.Sprintf("How will the %s for %s be paid?", desc, operationName(op)),
		Field:          domain.FieldPaymentType,
		FieldType:      domain.FieldTypeChoice,
		OperationIndex: domain.Ptr(idx),
		PaymentIndex:   domain.Ptr(j),
		Required:       true,
		Choices:        []string{string(domain.PaymentTypeCash), string(domain.PaymentTypeBankTransfer)},
	}
}

func operationName(op *domain.ParsedOperation) string {
	if op.VendorData.VendorName != nil && strings.TrimSpace(*op.VendorData.VendorName) != "" {
		return *op.VendorData.VendorName
	}
	if op.MatchedVendorName != "" {
		return op.MatchedVendorName
	}
	return "this vendor"
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
