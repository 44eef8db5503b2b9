package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineItemRejectsNegativeTotal(t *testing.T) {
	_, err := NewLineItem("Milch", nil, nil, -1.19)
	assert.ErrorIs(t, err, ErrNegativeLineTotal)

	item, err := NewLineItem("Milch", nil, nil, 1.19)
	require.NoError(t, err)
	assert.Equal(t, 1.19, item.Total)

	// zero is a legal total, deposit refund lines can be zero after discount
	_, err = NewLineItem("Pfand", nil, nil, 0)
	assert.NoError(t, err)
}

func TestStatusForConfidence(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusForConfidence(0.5))
	assert.Equal(t, StatusSuccess, StatusForConfidence(1.0))
	assert.Equal(t, StatusPartial, StatusForConfidence(0.49))
	assert.Equal(t, StatusPartial, StatusForConfidence(0.001))
	assert.Equal(t, StatusFailed, StatusForConfidence(0))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, (&ReceiptData{}).IsEmpty())

	vendor := "Shop"
	assert.False(t, (&ReceiptData{Vendor: &vendor}).IsEmpty())

	data := &ReceiptData{LineItems: []LineItem{{Description: "A", Total: 1}}}
	assert.False(t, data.IsEmpty())
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Nil(t, NormalizeCurrency(""))
	assert.Nil(t, NormalizeCurrency("   "))
	assert.Equal(t, "EUR", *NormalizeCurrency("eur"))
	assert.Equal(t, "USD", *NormalizeCurrency(" usd "))
}
