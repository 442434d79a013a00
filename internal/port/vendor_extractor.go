package port

import (
	"context"

	"weddingplan/internal/domain"
)

// ExtractInput carries one import request to a language-understanding backend.
// Exactly one of Text and PDF is set.
type ExtractInput struct {
	Text            string
	PDF             []byte
	Filename        string
	Roster          []domain.VendorRecord
	DefaultCurrency string
}

// ExtractOutput is a backend's decoded answer.
type ExtractOutput struct {
	Operations     []domain.ParsedOperation
	Clarifications []domain.Clarification
	ModelUsed      string
}

// VendorExtractor abstracts LLM-based vendor extraction.
type VendorExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
