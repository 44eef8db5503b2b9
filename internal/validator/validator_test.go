package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/belegpilot/extraction-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func fixedNow() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

func newTestValidator() *Validator {
	v := NewValidator(nil)
	v.now = fixedNow
	return v
}

func TestFieldWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, weight := range FieldWeights() {
		sum += weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestValidateAndScoreCompleteReceipt(t *testing.T) {
	v := newTestValidator()

	data := &domain.ReceiptData{
		Vendor:      strPtr("REWE Markt GmbH"),
		Date:        strPtr("2026-03-10"),
		TotalAmount: floatPtr(23.97),
		Currency:    strPtr("EUR"),
		TaxAmount:   floatPtr(3.83),
		TaxRate:     floatPtr(19),
		LineItems: []domain.LineItem{
			{Description: "Milch", Total: 1.19},
			{Description: "Brot", Total: 2.79},
			{Description: "Other", Total: 19.99},
		},
	}

	score, fields := v.ValidateAndScore(data, true)

	assert.Equal(t, 1.0, fields["vendor"])
	assert.Equal(t, 1.0, fields["date"])
	assert.Equal(t, 1.0, fields["total"])
	assert.Equal(t, 1.0, fields["line_items"])
	assert.Equal(t, 1.0, fields["tax"])
	assert.Equal(t, 1.0, fields["format"])
	assert.Equal(t, 1.0, score)
}

func TestValidateAndScoreEmptyReceipt(t *testing.T) {
	v := newTestValidator()

	score, fields := v.ValidateAndScore(&domain.ReceiptData{}, false)

	assert.Equal(t, 0.0, fields["vendor"])
	assert.Equal(t, 0.0, fields["date"])
	assert.Equal(t, 0.0, fields["total"])
	assert.Equal(t, 0.3, fields["line_items"])
	assert.Equal(t, 0.5, fields["tax"])
	assert.Equal(t, 0.3, fields["format"])
	// 0.25*0.3 + 0.10*0.5 + 0.10*0.3 = 0.155
	assert.Equal(t, 0.155, score)
}

func TestScoreVendor(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		vendor *string
		want   float64
	}{
		{"missing", nil, 0},
		{"empty", strPtr(""), 0},
		{"too short", strPtr("X"), 0.3},
		{"normal", strPtr("Edeka"), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.scoreVendor(&domain.ReceiptData{Vendor: tt.vendor})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreDate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name string
		date *string
		want float64
	}{
		{"missing", nil, 0},
		{"unparseable", strPtr("10.03.2026"), 0.1},
		{"future", strPtr("2026-04-01"), 0.2},
		{"tomorrow allowed", strPtr("2026-03-16"), 1.0},
		{"very old", strPtr("2023-01-01"), 0.5},
		{"recent", strPtr("2026-03-01"), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.scoreDate(&domain.ReceiptData{Date: tt.date})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreTotal(t *testing.T) {
	v := newTestValidator()

	assert.Equal(t, 0.0, v.scoreTotal(&domain.ReceiptData{}))
	assert.Equal(t, 0.1, v.scoreTotal(&domain.ReceiptData{TotalAmount: floatPtr(0)}))
	assert.Equal(t, 0.1, v.scoreTotal(&domain.ReceiptData{TotalAmount: floatPtr(-5)}))
	assert.Equal(t, 0.3, v.scoreTotal(&domain.ReceiptData{TotalAmount: floatPtr(250000)}))
	assert.Equal(t, 1.0, v.scoreTotal(&domain.ReceiptData{TotalAmount: floatPtr(42.50)}))
}

func TestScoreLineItemsCrossValidation(t *testing.T) {
	v := newTestValidator()

	items := []domain.LineItem{
		{Description: "A", Total: 5},
		{Description: "B", Total: 5},
	}

	// items sum exactly to the total
	data := &domain.ReceiptData{TotalAmount: floatPtr(10), LineItems: items}
	assert.Equal(t, 1.0, v.scoreLineItems(data))

	// items sum to 80% of the total
	data.TotalAmount = floatPtr(12.5)
	assert.Equal(t, 0.7, v.scoreLineItems(data))

	// items wildly off
	data.TotalAmount = floatPtr(100)
	assert.Equal(t, 0.4, v.scoreLineItems(data))

	// no usable total to compare against
	data.TotalAmount = nil
	assert.Equal(t, 0.6, v.scoreLineItems(data))
}

func TestScoreTax(t *testing.T) {
	v := newTestValidator()

	// no tax info at all is neutral
	assert.Equal(t, 0.5, v.scoreTax(&domain.ReceiptData{}))

	// positive amount plus a common rate
	data := &domain.ReceiptData{
		TotalAmount: floatPtr(100),
		TaxAmount:   floatPtr(19),
		TaxRate:     floatPtr(19),
	}
	assert.Equal(t, 1.0, v.scoreTax(data))

	// uncommon but plausible rate
	data.TaxRate = floatPtr(12)
	assert.InDelta(t, 0.9, v.scoreTax(data), 1e-9)

	// tax larger than the total is penalized
	data = &domain.ReceiptData{
		TotalAmount: floatPtr(10),
		TaxAmount:   floatPtr(50),
	}
	assert.InDelta(t, 0.45, v.scoreTax(data), 1e-9)
}
