package domain

import (
	"errors"
	"strings"
)

// ErrNegativeLineTotal is returned when a line item is constructed with a negative total
var ErrNegativeLineTotal = errors.New("line item total must be non-negative")

// Category is the fixed expense taxonomy assigned to extracted receipts
type Category string

const (
	CategoryGroceries     Category = "groceries"
	CategoryRestaurant    Category = "restaurant"
	CategoryTransport     Category = "transport"
	CategoryOffice        Category = "office"
	CategoryAccommodation Category = "accommodation"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryOther         Category = "other"
)

// LineItem represents a single product or service line on a receipt
type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Total       float64  `json:"total"`
}

// NewLineItem constructs a line item, rejecting negative totals
func NewLineItem(description string, quantity, unitPrice *float64, total float64) (LineItem, error) {
	if total < 0 {
		return LineItem{}, ErrNegativeLineTotal
	}
	return LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       total,
	}, nil
}

// ReceiptData holds the structured fields extracted from a receipt or invoice.
// Nil means the field was not detected, which is meaningful and not an error.
// Date is kept as a YYYY-MM-DD string so an unparseable value can still be
// carried through and penalized during confidence scoring.
type ReceiptData struct {
	Vendor        *string    `json:"vendor,omitempty"`
	Date          *string    `json:"date,omitempty"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`
	Currency      *string    `json:"currency,omitempty"`
	TaxAmount     *float64   `json:"tax_amount,omitempty"`
	TaxRate       *float64   `json:"tax_rate,omitempty"`
	LineItems     []LineItem `json:"line_items"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	ReceiptNumber *string    `json:"receipt_number,omitempty"`
	Category      Category   `json:"category"`

	// Populated on read when the caller asks for a currency conversion;
	// never persisted.
	ConvertedAmount   *float64 `json:"converted_amount,omitempty"`
	ConvertedCurrency *string  `json:"converted_currency,omitempty"`
}

// IsEmpty reports whether no field at all was extracted
func (r *ReceiptData) IsEmpty() bool {
	return r.Vendor == nil && r.Date == nil && r.TotalAmount == nil &&
		r.Currency == nil && r.TaxAmount == nil && r.TaxRate == nil &&
		len(r.LineItems) == 0 && r.PaymentMethod == nil && r.ReceiptNumber == nil
}

// NormalizeCurrency upper-cases a detected currency code. Returns nil for
// empty input so absence stays distinguishable from a detected value.
func NormalizeCurrency(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	normalized := strings.ToUpper(code)
	return &normalized
}
