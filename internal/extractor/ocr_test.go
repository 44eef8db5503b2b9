package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	text string
	err  error
}

func (s *stubRecognizer) RecognizeText(ctx context.Context, imageBytes []byte, languages string) (string, error) {
	return s.text, s.err
}

const sampleReceiptText = `REWE Markt GmbH
Hauptstr. 12, 10827 Berlin

Milch 1,19
Brot 2,79

Gesamt: 23,97 €
MwSt: 3,83
07.02.2026 14:32`

func TestOCRExtract(t *testing.T) {
	e := NewOCRExtractor(&stubRecognizer{text: sampleReceiptText}, "deu+eng", nil)

	data, raw, err := e.Extract(context.Background(), []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, sampleReceiptText, raw)

	require.NotNil(t, data.Vendor)
	assert.Equal(t, "REWE Markt GmbH", *data.Vendor)

	require.NotNil(t, data.TotalAmount)
	assert.Equal(t, 23.97, *data.TotalAmount)

	require.NotNil(t, data.TaxAmount)
	assert.Equal(t, 3.83, *data.TaxAmount)

	require.NotNil(t, data.Date)
	assert.Equal(t, "2026-02-07", *data.Date)

	require.NotNil(t, data.Currency)
	assert.Equal(t, "EUR", *data.Currency)

	// OCR never yields line items
	assert.Empty(t, data.LineItems)
}

func TestOCRExtractRecognizerError(t *testing.T) {
	e := NewOCRExtractor(&stubRecognizer{err: errors.New("sidecar down")}, "", nil)

	_, _, err := e.Extract(context.Background(), []byte("jpeg"))
	assert.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"07.02.2026", "2026-02-07"},
		{"07/02/2026", "2026-02-07"},
		{"2026-02-07", "2026-02-07"},
		{"07.02.26", "2026-02-07"},
		{"31.12.99", "1999-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := normalizeDate(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	assert.Nil(t, normalizeDate("February 7th"))
}

func TestExtractAmountVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"german comma", "Summe: 12,50", 12.50},
		{"dot decimal", "Total 8.99", 8.99},
		{"symbol before amount", "Betrag: € 100,00", 100.00},
		{"amount then code", "19.99 EUR", 19.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractAmount(tt.text, totalPatterns)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	assert.Nil(t, extractAmount("no amounts here", totalPatterns))
}

func TestDetectCurrency(t *testing.T) {
	assert.Equal(t, "EUR", *detectCurrency("Gesamt 12,00 €"))
	assert.Equal(t, "USD", *detectCurrency("Total $5.00"))
	assert.Equal(t, "GBP", *detectCurrency("Total 5.00 GBP"))
	// euro wins when both appear
	assert.Equal(t, "EUR", *detectCurrency("12 EUR or $13"))
	assert.Nil(t, detectCurrency("12.00"))
}
