package extractor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/belegpilot/extraction-service/internal/domain"
	"github.com/belegpilot/extraction-service/internal/openrouter"
)

// ChatClient issues one extraction call against the VLM provider
type ChatClient interface {
	ExtractReceipt(ctx context.Context, model, imageBase64 string) (*openrouter.ChatResult, error)
}

// CostRecorder receives the token usage of every completed VLM call
type CostRecorder interface {
	EstimateCost(model string, inputTokens, outputTokens int) float64
	RecordSpend(ctx context.Context, model string, inputTokens, outputTokens int, costUSD float64) error
}

// VLMMetadata carries the call accounting alongside the parsed data
type VLMMetadata struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	ElapsedMs    int64
	RawResponse  string
}

// VLMExtractor extracts receipt data through a vision-language model
type VLMExtractor struct {
	client ChatClient
	costs  CostRecorder
	logger *slog.Logger
}

// NewVLMExtractor creates a new VLM extractor
func NewVLMExtractor(client ChatClient, costs CostRecorder, logger *slog.Logger) *VLMExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &VLMExtractor{client: client, costs: costs, logger: logger}
}

// Extract sends the image to the given model and parses the JSON answer.
// The spend ledger entry is recorded as soon as usage is known, before any
// parsing, so every completed call is accounted for. A response that fails
// to parse as a JSON object is a normal outcome: nil data with metadata, no
// error.
func (e *VLMExtractor) Extract(ctx context.Context, imageBase64, model string) (*domain.ReceiptData, *VLMMetadata, error) {
	result, err := e.client.ExtractReceipt(ctx, model, imageBase64)
	if err != nil {
		return nil, nil, err
	}

	cost := e.costs.EstimateCost(model, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	if err := e.costs.RecordSpend(ctx, model, result.Usage.PromptTokens, result.Usage.CompletionTokens, cost); err != nil {
		// the call already happened, so keep the result and only log the
		// accounting gap
		e.logger.Error("failed to record spend", "model", model, "error", err)
	}

	meta := &VLMMetadata{
		Model:        model,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		CostUSD:      cost,
		ElapsedMs:    result.ElapsedMs,
		RawResponse:  result.Content,
	}

	data, ok := e.parseResponse(result.Content)
	if !ok {
		e.logger.Warn("vlm response did not parse as JSON object", "model", model)
		return nil, meta, nil
	}

	return data, meta, nil
}

// rawReceipt mirrors the prompt schema with untyped fields so numeric
// values can arrive as numbers or strings
type rawReceipt struct {
	Vendor        any               `json:"vendor"`
	Date          any               `json:"date"`
	TotalAmount   any               `json:"total_amount"`
	Currency      any               `json:"currency"`
	TaxAmount     any               `json:"tax_amount"`
	TaxRate       any               `json:"tax_rate"`
	LineItems     []json.RawMessage `json:"line_items"`
	PaymentMethod any               `json:"payment_method"`
	ReceiptNumber any               `json:"receipt_number"`
}

type rawLineItem struct {
	Description any `json:"description"`
	Quantity    any `json:"quantity"`
	UnitPrice   any `json:"unit_price"`
	Total       any `json:"total"`
}

// parseResponse converts the model answer into receipt data, tolerating the
// common VLM output quirks. Returns ok=false when the content is not a JSON
// object at all.
func (e *VLMExtractor) parseResponse(content string) (*domain.ReceiptData, bool) {
	var raw rawReceipt
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, false
	}

	data := &domain.ReceiptData{
		Vendor:        parseString(raw.Vendor),
		Date:          parseString(raw.Date),
		TotalAmount:   parseNumber(raw.TotalAmount),
		TaxAmount:     parseNumber(raw.TaxAmount),
		TaxRate:       parseNumber(raw.TaxRate),
		PaymentMethod: parseString(raw.PaymentMethod),
		ReceiptNumber: parseString(raw.ReceiptNumber),
		LineItems:     []domain.LineItem{},
		Category:      domain.CategoryOther,
	}

	if currency := parseString(raw.Currency); currency != nil {
		data.Currency = domain.NormalizeCurrency(*currency)
	}

	// items are parsed one by one; a malformed item is dropped, never fatal
	for _, rawItem := range raw.LineItems {
		var item rawLineItem
		if err := json.Unmarshal(rawItem, &item); err != nil {
			e.logger.Debug("skipping malformed line item", "error", err)
			continue
		}

		description := "Unknown"
		if s := parseString(item.Description); s != nil {
			description = *s
		}
		total := 0.0
		if t := parseNumber(item.Total); t != nil {
			total = *t
		}

		lineItem, err := domain.NewLineItem(description, parseNumber(item.Quantity), parseNumber(item.UnitPrice), total)
		if err != nil {
			e.logger.Debug("skipping malformed line item", "error", err)
			continue
		}
		data.LineItems = append(data.LineItems, lineItem)
	}

	return data, true
}

// parseNumber safely parses a numeric field that may arrive as a JSON
// number or a string, including European decimal-comma notation. Returns
// nil for anything that is not a number.
func parseNumber(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// parseString returns a pointer for non-empty strings, nil otherwise
func parseString(value any) *string {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
