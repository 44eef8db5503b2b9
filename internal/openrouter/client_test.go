package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 1000, "completion_tokens": 200},
	})
	return body
}

func TestExtractReceipt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Write(successBody(`{"vendor": "Shop"}`))
	}))
	defer server.Close()

	client := NewClient(&Config{APIKey: "test-key", APIURL: server.URL})

	result, err := client.ExtractReceipt(context.Background(), "test-model", "aW1hZ2U=")
	require.NoError(t, err)
	assert.Equal(t, `{"vendor": "Shop"}`, result.Content)
	assert.Equal(t, 1000, result.Usage.PromptTokens)
	assert.Equal(t, 200, result.Usage.CompletionTokens)
}

func TestExtractReceiptRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(successBody("{}"))
	}))
	defer server.Close()

	client := NewClient(&Config{APIKey: "test-key", APIURL: server.URL, MaxRetries: 2})

	result, err := client.ExtractReceipt(context.Background(), "m", "aW1hZ2U=")
	require.NoError(t, err)
	assert.Equal(t, "{}", result.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExtractReceiptGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(&Config{APIKey: "test-key", APIURL: server.URL, MaxRetries: 2})

	_, err := client.ExtractReceipt(context.Background(), "m", "aW1hZ2U=")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	var orErr *OpenRouterError
	require.ErrorAs(t, err, &orErr)
	assert.Equal(t, "check_api_response", orErr.Op)
}

func TestExtractReceiptContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&Config{APIKey: "test-key", APIURL: server.URL, MaxRetries: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.ExtractReceipt(ctx, "m", "aW1hZ2U=")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtractReceiptMissingAPIKey(t *testing.T) {
	client := NewClient(&Config{})

	_, err := client.ExtractReceipt(context.Background(), "m", "aW1hZ2U=")
	require.Error(t, err)

	var orErr *OpenRouterError
	require.ErrorAs(t, err, &orErr)
	assert.Equal(t, "validate_configuration", orErr.Op)
}

func TestExtractReceiptEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(&Config{APIKey: "test-key", APIURL: server.URL})

	_, err := client.ExtractReceipt(context.Background(), "m", "aW1hZ2U=")
	require.Error(t, err)
}
