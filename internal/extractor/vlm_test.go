package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belegpilot/extraction-service/internal/openrouter"
)

type stubChatClient struct {
	result *openrouter.ChatResult
	err    error
}

func (s *stubChatClient) ExtractReceipt(ctx context.Context, model, imageBase64 string) (*openrouter.ChatResult, error) {
	return s.result, s.err
}

type stubCostRecorder struct {
	rate     float64
	recorded []float64
	err      error
}

func (s *stubCostRecorder) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	return float64(inputTokens+outputTokens) / 1_000_000 * s.rate
}

func (s *stubCostRecorder) RecordSpend(ctx context.Context, model string, inputTokens, outputTokens int, costUSD float64) error {
	s.recorded = append(s.recorded, costUSD)
	return s.err
}

func chatResult(content string) *openrouter.ChatResult {
	return &openrouter.ChatResult{
		Content:   content,
		Model:     "qwen/qwen2.5-vl-72b-instruct",
		Usage:     openrouter.Usage{PromptTokens: 1200, CompletionTokens: 300},
		ElapsedMs: 850,
	}
}

func TestVLMExtract(t *testing.T) {
	content := `{
		"vendor": "REWE Markt GmbH",
		"date": "2026-02-07",
		"total_amount": 23.97,
		"currency": "eur",
		"tax_amount": "3,83",
		"tax_rate": 19,
		"line_items": [
			{"description": "Milch", "quantity": 1, "unit_price": 1.19, "total": 1.19},
			{"description": "Brot", "total": "2,79"}
		],
		"payment_method": "card",
		"receipt_number": null
	}`

	costs := &stubCostRecorder{rate: 0.40}
	e := NewVLMExtractor(&stubChatClient{result: chatResult(content)}, costs, nil)

	data, meta, err := e.Extract(context.Background(), "img", "qwen/qwen2.5-vl-72b-instruct")
	require.NoError(t, err)
	require.NotNil(t, data)
	require.NotNil(t, meta)

	assert.Equal(t, "REWE Markt GmbH", *data.Vendor)
	assert.Equal(t, "2026-02-07", *data.Date)
	assert.Equal(t, 23.97, *data.TotalAmount)
	// currency is upper-cased, comma decimals are accepted
	assert.Equal(t, "EUR", *data.Currency)
	assert.Equal(t, 3.83, *data.TaxAmount)
	assert.Equal(t, 19.0, *data.TaxRate)
	assert.Nil(t, data.ReceiptNumber)

	require.Len(t, data.LineItems, 2)
	assert.Equal(t, "Milch", data.LineItems[0].Description)
	assert.Equal(t, 2.79, data.LineItems[1].Total)
	assert.Nil(t, data.LineItems[1].Quantity)

	assert.Equal(t, 1200, meta.InputTokens)
	assert.Equal(t, 300, meta.OutputTokens)
	assert.InDelta(t, 0.0006, meta.CostUSD, 1e-9)
	require.Len(t, costs.recorded, 1)
	assert.InDelta(t, 0.0006, costs.recorded[0], 1e-9)
}

func TestVLMExtractNonObjectResponse(t *testing.T) {
	costs := &stubCostRecorder{rate: 0.40}
	e := NewVLMExtractor(&stubChatClient{result: chatResult("Sorry, I cannot read this image.")}, costs, nil)

	data, meta, err := e.Extract(context.Background(), "img", "m")
	require.NoError(t, err)
	assert.Nil(t, data)
	require.NotNil(t, meta)

	// the call still cost money and must be recorded
	assert.Len(t, costs.recorded, 1)
}

func TestVLMExtractDropsMalformedItems(t *testing.T) {
	content := `{
		"vendor": "Shop",
		"line_items": [
			{"description": "ok", "total": 5.00},
			{"description": "negative", "total": -2.00},
			"not an object"
		]
	}`

	e := NewVLMExtractor(&stubChatClient{result: chatResult(content)}, &stubCostRecorder{}, nil)

	data, _, err := e.Extract(context.Background(), "img", "m")
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Len(t, data.LineItems, 1)
	assert.Equal(t, "ok", data.LineItems[0].Description)
}

func TestVLMExtractClientError(t *testing.T) {
	costs := &stubCostRecorder{}
	e := NewVLMExtractor(&stubChatClient{err: errors.New("502 from provider")}, costs, nil)

	_, _, err := e.Extract(context.Background(), "img", "m")
	assert.Error(t, err)
	assert.Empty(t, costs.recorded)
}

func TestVLMExtractRecordSpendFailureIsNotFatal(t *testing.T) {
	costs := &stubCostRecorder{rate: 0.40, err: errors.New("db down")}
	e := NewVLMExtractor(&stubChatClient{result: chatResult(`{"vendor": "Shop"}`)}, costs, nil)

	data, _, err := e.Extract(context.Background(), "img", "m")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 12.5, *parseNumber(12.5))
	assert.Equal(t, 12.5, *parseNumber("12,50"))
	assert.Equal(t, 12.5, *parseNumber(" 12.50 "))
	assert.Nil(t, parseNumber("twelve"))
	assert.Nil(t, parseNumber(nil))
	assert.Nil(t, parseNumber(true))
}
