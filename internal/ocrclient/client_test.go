package ocrclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recognize", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "deu+eng", payload["languages"])

		decoded, err := base64.StdEncoding.DecodeString(payload["image_base64"])
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg bytes"), decoded)

		json.NewEncoder(w).Encode(map[string]string{"text": "REWE Markt\nGesamt 12,00"})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL})

	text, err := client.RecognizeText(context.Background(), []byte("jpeg bytes"), "deu+eng")
	require.NoError(t, err)
	assert.Equal(t, "REWE Markt\nGesamt 12,00", text)
}

func TestRecognizeTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tesseract crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL})

	_, err := client.RecognizeText(context.Background(), []byte("jpeg"), "deu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL})
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestHealthCheckDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL})
	assert.Error(t, client.HealthCheck(context.Background()))
}
