package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"weddingplan/internal/domain"
	"weddingplan/internal/port"
)

// extraction is the JSON document every backend is asked to produce.
type extraction struct {
	Operations     []domain.ParsedOperation `json:"operations"`
	Clarifications []domain.Clarification   `json:"clarifications_needed"`
}

// DecodeExtraction decodes a model's text answer into an ExtractOutput. Markdown code
// fences are tolerated; anything that is not a JSON object is an error.
func DecodeExtraction(text, model string) (*port.ExtractOutput, error) {
	raw := StripCodeFences(text)
	if raw == "" {
		return nil, fmt.Errorf("empty model output")
	}

	var parsed extraction
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, Truncate(raw, 500))
	}

	for i := range parsed.Operations {
		dropEmptyStrings(&parsed.Operations[i].VendorData)
	}

	return &port.ExtractOutput{
		Operations:     parsed.Operations,
		Clarifications: parsed.Clarifications,
		ModelUsed:      model,
	}, nil
}

// StripCodeFences removes a surrounding ```json ... ``` block if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Truncate shortens s to maxLen bytes for error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// dropEmptyStrings clears "" values the model emits for unknown fields, so they are
// not mistaken for deliberate overwrites.
func dropEmptyStrings(p *domain.VendorPatch) {
	if p.VendorType != nil && strings.TrimSpace(string(*p.VendorType)) == "" {
		p.VendorType = nil
	}
	for _, f := range []**string{
		&p.VendorName, &p.ContactName, &p.Email, &p.Phone, &p.Website,
		&p.VendorCurrency, &p.CostConvertedCurrency, &p.ContractSignedDate, &p.Notes,
	} {
		clearBlank(f)
	}
	for i := range p.Payments {
		pay := &p.Payments[i]
		if pay.PaymentType != nil && strings.TrimSpace(string(*pay.PaymentType)) == "" {
			pay.PaymentType = nil
		}
		for _, f := range []**string{
			&pay.Description, &pay.AmountCurrency, &pay.AmountConvertedCurrency, &pay.DueDate, &pay.PaidDate,
		} {
			clearBlank(f)
		}
	}
}

func clearBlank(f **string) {
	if *f != nil && strings.TrimSpace(**f) == "" {
		*f = nil
	}
}
