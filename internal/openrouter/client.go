package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterError represents an error that occurred during OpenRouter API interaction
type OpenRouterError struct {
	Op  string // operation that caused the error
	Err error  // original error
}

// Error implements the error interface
func (e *OpenRouterError) Error() string {
	if e.Err == nil {
		return "openrouter error: " + e.Op
	}
	return "openrouter error: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *OpenRouterError) Unwrap() error {
	return e.Err
}

// Client is a chat-completion client for the OpenRouter API
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
}

// Config holds configuration for the OpenRouter client
type Config struct {
	APIKey     string
	APIURL     string // defaults to the public OpenRouter endpoint
	Timeout    time.Duration
	MaxRetries int
	Logger     *slog.Logger
}

// NewClient creates a new OpenRouter client
func NewClient(config *Config) *Client {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxRetries := config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiKey:     config.APIKey,
		apiURL:     apiURL,
		maxRetries: maxRetries,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Usage reports the token counts of a completed call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatResult is the raw outcome of one extraction call
type ChatResult struct {
	Content   string
	Model     string
	Usage     Usage
	ElapsedMs int64
}

// ExtractReceipt sends one chat-completion request carrying the extraction
// prompts and the base64 JPEG, requesting a JSON-only answer. Transient
// transport failures and HTTP error statuses are retried up to the
// configured attempt count with exponential backoff (base 1s, cap 10s).
func (c *Client) ExtractReceipt(ctx context.Context, model, imageBase64 string) (*ChatResult, error) {
	if c.apiKey == "" {
		return nil, &OpenRouterError{
			Op:  "validate_configuration",
			Err: fmt.Errorf("OpenRouter API key is not configured"),
		}
	}

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: userPrompt},
					{
						Type: "image_url",
						ImageURL: &imageURL{
							URL: "data:image/jpeg;base64," + imageBase64,
						},
					},
				},
			},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.1,
		MaxTokens:      2000,
	}

	requestData, err := json.Marshal(payload)
	if err != nil {
		return nil, &OpenRouterError{
			Op:  "marshal_request",
			Err: fmt.Errorf("failed to marshal request payload: %w", err),
		}
	}

	start := time.Now()
	respBody, err := c.doWithRetry(ctx, requestData)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start).Milliseconds()

	var response chatResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, &OpenRouterError{
			Op:  "parse_response_json",
			Err: fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	if len(response.Choices) == 0 {
		return nil, &OpenRouterError{
			Op:  "check_response_choices",
			Err: fmt.Errorf("no choices in response"),
		}
	}

	c.logger.Info("vlm call complete",
		"model", model,
		"input_tokens", response.Usage.PromptTokens,
		"output_tokens", response.Usage.CompletionTokens,
		"elapsed_ms", elapsed,
	)

	return &ChatResult{
		Content:   response.Choices[0].Message.Content,
		Model:     model,
		Usage:     response.Usage,
		ElapsedMs: elapsed,
	}, nil
}

// doWithRetry posts the payload, retrying transport failures and HTTP error
// statuses with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, requestData []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &OpenRouterError{Op: "wait_retry", Err: ctx.Err()}
			}
			c.logger.Warn("retrying openrouter request", "attempt", attempt+1, "error", lastErr)
		}

		respBody, err := c.doOnce(ctx, requestData)
		if err == nil {
			return respBody, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, requestData []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(requestData))
	if err != nil {
		return nil, &OpenRouterError{
			Op:  "create_request",
			Err: fmt.Errorf("failed to create request: %w", err),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &OpenRouterError{
			Op:  "send_request",
			Err: fmt.Errorf("failed to send request: %w", err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &OpenRouterError{
			Op:  "read_response",
			Err: fmt.Errorf("failed to read response body: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body := string(respBody)
		if len(body) > 500 {
			body = body[:500]
		}
		return nil, &OpenRouterError{
			Op:  "check_api_response",
			Err: fmt.Errorf("API error: %s - %s", resp.Status, body),
		}
	}

	return respBody, nil
}

// wire types for the chat-completion request/response

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}
