package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weddingplan/internal/config"
	"weddingplan/internal/parser"
	claude "weddingplan/internal/parser/claude"
	"weddingplan/internal/port"
)

const extractionJSON = `{"operations":[{"action":"create","vendor_data":{"vendor_type":"Photographer","vendor_name":"Lumen Studio"}}],"clarifications_needed":[]}`

func newTestParser(serverURL string) *claude.Parser {
	return claude.NewParser(&config.ParserProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-test",
		BaseURL:      serverURL,
		MaxRetries:   0,
		TimeoutSecs:  5,
	})
}

func messageResponse(text, stopReason string) map[string]interface{} {
	return map[string]interface{}{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"model":       "claude-test",
		"stop_reason": stopReason,
		"usage": map[string]interface{}{
			"input_tokens":  10,
			"output_tokens": 5,
		},
	}
}

func TestClaudeParser_Extract_Text(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-test", reqBody["model"])

		system := reqBody["system"].([]interface{})
		require.Len(t, system, 1)
		assert.Contains(t, system[0].(map[string]interface{})["text"], "EXISTING VENDORS")

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		content := messages[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, content, 1)
		block := content[0].(map[string]interface{})
		assert.Equal(t, "text", block["type"])
		assert.Contains(t, block["text"], "Booked Lumen Studio")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(extractionJSON, "end_turn"))
	}))
	defer server.Close()

	out, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		Text:            "Booked Lumen Studio for photos",
		DefaultCurrency: "EUR",
	})

	require.NoError(t, err)
	assert.Equal(t, "claude-test", out.ModelUsed)
	require.Len(t, out.Operations, 1)
	assert.Equal(t, "Lumen Studio", *out.Operations[0].VendorData.VendorName)
}

func TestClaudeParser_Extract_PDFSendsDocumentBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		messages := reqBody["messages"].([]interface{})
		content := messages[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, content, 2)

		doc := content[0].(map[string]interface{})
		assert.Equal(t, "document", doc["type"])
		source := doc["source"].(map[string]interface{})
		assert.Equal(t, "JVBERi0xLjQgdGVzdA==", source["data"])
		assert.Equal(t, "text", content[1].(map[string]interface{})["type"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(extractionJSON, "end_turn"))
	}))
	defer server.Close()

	out, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{
		PDF:      []byte("%PDF-1.4 test"),
		Filename: "contract.pdf",
	})

	require.NoError(t, err)
	assert.Len(t, out.Operations, 1)
}

func TestClaudeParser_Extract_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{Text: "x"})

	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Equal(t, 17*time.Second, rlErr.RetryAfter)
}

func TestClaudeParser_Extract_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer server.Close()

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{Text: "x"})

	assert.ErrorContains(t, err, "calling anthropic API")
	var rlErr *parser.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestClaudeParser_Extract_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(`{"operations":[`, "max_tokens"))
	}))
	defer server.Close()

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{Text: "x"})

	assert.ErrorContains(t, err, "truncated")
}

func TestClaudeParser_Extract_NonJSONAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse("Here are the vendors I found: a florist.", "end_turn"))
	}))
	defer server.Close()

	_, err := newTestParser(server.URL).Extract(context.Background(), port.ExtractInput{Text: "x"})

	assert.ErrorContains(t, err, "parsing LLM JSON output")
}

func TestFactory_RequiresAPIKey(t *testing.T) {
	_, err := claude.Factory(&config.ParserProviderConfig{Provider: "claude"})
	assert.Error(t, err)

	p, err := claude.Factory(&config.ParserProviderConfig{Provider: "claude", APIKey: "k"})
	assert.NoError(t, err)
	assert.NotNil(t, p)
}
