package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/llm"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"}, nil)
}

func TestExtractDocumentReturnsContent(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"invoices\\\":[]}\\n```" + `"}}]}`))
	})

	out, err := c.ExtractDocument(context.Background(), llm.ExtractRequest{Text: "INV-1 Alice", FilenameHint: "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"invoices\":[]}\n```", out)
	assert.Equal(t, "test-model", got["model"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestExtractDocumentOverload(t *testing.T) {
	for _, code := range []int{http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", code)
		})
		_, err := c.ExtractDocument(context.Background(), llm.ExtractRequest{Text: "x"})
		require.ErrorIs(t, err, common.ErrServiceUnavailable)
	}
}

func TestExtractDocumentProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})
	_, err := c.ExtractDocument(context.Background(), llm.ExtractRequest{Text: "x"})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LLM_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "401")
	assert.False(t, errors.Is(err, common.ErrServiceUnavailable))
}

func TestExtractDocumentEmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.ExtractDocument(context.Background(), llm.ExtractRequest{Text: "x"})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LLM_ERROR", appErr.Code)
}

func TestExtractDocumentResponseFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{name: "default", format: "", want: FormatJSONObject},
		{name: "unknown falls back", format: "text", want: FormatJSONObject},
		{name: "structured", format: FormatJSONSchema, want: FormatJSONSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"invoices\":[],\"products\":[],\"customers\":[]}"}}]}`))
			}))
			t.Cleanup(srv.Close)
			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, ResponseFormat: tt.format}, nil)

			_, err := c.ExtractDocument(context.Background(), llm.ExtractRequest{Text: "x"})
			require.NoError(t, err)
			rf, ok := got["response_format"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.want, rf["type"])
			if tt.want == FormatJSONSchema {
				js, ok := rf["json_schema"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "invoice_extraction", js["name"])
				assert.NotNil(t, js["schema"])
			}
		})
	}
}

func TestExtractDocumentKeepsOffSchemaAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"invoices\":[\"junk\"]}"}}]}`))
	})
	out, err := c.ExtractDocument(context.Background(), llm.ExtractRequest{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"invoices":["junk"]}`, out)
}
