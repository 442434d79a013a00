// Package extraction turns free-form text or a PDF into proposed vendor operations and
// the clarifications a human must answer before they run.
package extraction

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/logger"
	"weddingplan/internal/port"
)

// Config bounds extraction input and supplies defaults.
type Config struct {
	MaxPDFBytes     int64
	DefaultCurrency string
}

// Input is one import request. Exactly one of Text and PDF is expected.
type Input struct {
	Text     string
	PDF      []byte
	Filename string
}

// Result is the post-processed extraction output.
type Result struct {
	Operations     []domain.ParsedOperation
	Clarifications []domain.Clarification
	ModelUsed      string
}

// Engine validates input, calls the language-understanding backend and reconciles its
// answer against the roster.
type Engine struct {
	backend port.VendorExtractor
	cfg     Config
	log     *zap.Logger
}

// NewEngine creates an extraction engine.
func NewEngine(backend port.VendorExtractor, cfg Config, log *zap.Logger) *Engine {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	return &Engine{backend: backend, cfg: cfg, log: logger.OrNop(log)}
}

// Validate checks input bounds. It never calls the backend.
func (e *Engine) Validate(in Input) error {
	if len(in.PDF) == 0 {
		if strings.TrimSpace(in.Text) == "" {
			return domain.ErrEmptyInput
		}
		return nil
	}
	if e.cfg.MaxPDFBytes > 0 && int64(len(in.PDF)) > e.cfg.MaxPDFBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", domain.ErrFileTooLarge, len(in.PDF), e.cfg.MaxPDFBytes)
	}
	// The declared filename is ignored; only the sniffed content counts.
	sniffed := http.DetectContentType(in.PDF)
	if ft, ok := domain.AllowedContentTypes[sniffed]; !ok || ft != domain.FileTypePDF {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, sniffed)
	}
	return nil
}

// Extract runs one extraction against the current roster.
func (e *Engine) Extract(ctx context.Context, in Input, roster []domain.VendorRecord) (*Result, error) {
	if err := e.Validate(in); err != nil {
		return nil, err
	}

	out, err := e.backend.Extract(ctx, port.ExtractInput{
		Text:            in.Text,
		PDF:             in.PDF,
		Filename:        in.Filename,
		Roster:          roster,
		DefaultCurrency: e.cfg.DefaultCurrency,
	})
	if err != nil {
		e.log.Warn("extraction.Engine.Extract: backend failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	p := &postProcessor{
		roster:          NewRoster(roster),
		text:            in.Text,
		defaultCurrency: strings.ToUpper(e.cfg.DefaultCurrency),
	}
	ops, clars := p.run(out.Operations, out.Clarifications)

	e.log.Info("extraction.Engine.Extract: done",
		zap.String("model", out.ModelUsed),
		zap.Int("operations", len(ops)),
		zap.Int("clarifications", len(clars)),
	)
	return &Result{Operations: ops, Clarifications: clars, ModelUsed: out.ModelUsed}, nil
}
