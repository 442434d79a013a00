package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	goopenai "github.com/sashabaranov/go-openai"

	"weddingplan/internal/config"
	"weddingplan/internal/parser"
	"weddingplan/internal/port"
)

const (
	defaultModel = "gpt-4o"
	maxTokens    = 8192
	// maxPDFTextChars bounds the text sent for a converted PDF.
	maxPDFTextChars = 60000
)

// PDFText extracts plain text from a PDF. Chat completions take text only, so PDFs are
// converted locally first.
var PDFText = pdfTextFitz

// Parser implements port.VendorExtractor using the OpenAI Chat Completions API.
type Parser struct {
	client *goopenai.Client
	model  string
}

// NewParser creates an OpenAI-based vendor extractor from a provider config.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Parser{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Factory adapts NewParser to parser.ProviderFactory.
func Factory(cfg *config.ParserProviderConfig) (port.VendorExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	return NewParser(cfg), nil
}

func (p *Parser) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	userText, err := userContent(input)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: parser.BuildVendorPrompt(input.Roster, input.DefaultCurrency),
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: userText,
			},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == goopenai.FinishReasonLength {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}

	return parser.DecodeExtraction(resp.Choices[0].Message.Content, p.model)
}

func userContent(input port.ExtractInput) (string, error) {
	if len(input.PDF) == 0 {
		return parser.BuildUserPrompt(input.Text), nil
	}
	text, err := PDFText(input.PDF)
	if err != nil {
		return "", fmt.Errorf("reading PDF text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("reading PDF text: document has no extractable text")
	}
	return parser.BuildUserPrompt(parser.Truncate(text, maxPDFTextChars)), nil
}

func pdfTextFitz(pdf []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer func() { _ = doc.Close() }()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", i+1, err)
		}
		sb.WriteString(page)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func classifyError(err error) error {
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests {
		return parser.NewRateLimitError("openai", err, 0)
	}
	return fmt.Errorf("calling openai API: %w", err)
}
