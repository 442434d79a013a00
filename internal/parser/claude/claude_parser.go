package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"weddingplan/internal/config"
	"weddingplan/internal/parser"
	"weddingplan/internal/port"
)

const (
	defaultModel = "claude-sonnet-4-5-20250929"
	maxTokens    = 8192
)

// Parser implements port.VendorExtractor using the Anthropic Messages API.
type Parser struct {
	client sdk.Client
	model  string
}

// NewParser creates a Claude-based vendor extractor from a provider config.
// A non-empty BaseURL points the client at a different endpoint.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Parser{
		client: sdk.NewClient(opts...),
		model:  model,
	}
}

// Factory adapts NewParser to parser.ProviderFactory.
func Factory(cfg *config.ParserProviderConfig) (port.VendorExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude: api key is required")
	}
	return NewParser(cfg), nil
}

func (p *Parser) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: maxTokens,
		System: []sdk.TextBlockParam{
			{Text: parser.BuildVendorPrompt(input.Roster, input.DefaultCurrency)},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(buildContentBlocks(input)...),
		},
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	if string(msg.StopReason) == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	return parser.DecodeExtraction(text.String(), p.model)
}

func buildContentBlocks(input port.ExtractInput) []sdk.ContentBlockParamUnion {
	if len(input.PDF) > 0 {
		return []sdk.ContentBlockParamUnion{
			sdk.NewDocumentBlock(sdk.Base64PDFSourceParam{
				Data: base64.StdEncoding.EncodeToString(input.PDF),
			}),
			sdk.NewTextBlock(parser.DocumentInstruction),
		}
	}
	return []sdk.ContentBlockParamUnion{
		sdk.NewTextBlock(parser.BuildUserPrompt(input.Text)),
	}
}

func classifyError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		retryAfter := 0
		if apiErr.Response != nil {
			retryAfter = parser.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
		}
		return parser.NewRateLimitError("claude", err, retryAfter)
	}
	return fmt.Errorf("calling anthropic API: %w", err)
}
