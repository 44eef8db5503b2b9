package validator

import (
	"log/slog"
	"math"
	"time"

	"github.com/belegpilot/extraction-service/internal/domain"
)

// Weights of the per-field scores in the overall confidence. They sum to
// exactly 1.0; the test suite asserts this.
var fieldWeights = map[string]float64{
	"vendor":     0.15,
	"date":       0.15,
	"total":      0.25,
	"line_items": 0.25,
	"tax":        0.10,
	"format":     0.10,
}

// commonTaxRates are VAT rates that strongly suggest a correct extraction
var commonTaxRates = map[float64]bool{
	0: true, 7: true, 19: true, 20: true, 21: true, 25: true,
}

// Validator computes per-field confidence scores and the weighted overall
// confidence for extracted receipt data. Scoring is pure: the same input
// always yields the same scores, and the data is returned unchanged.
type Validator struct {
	logger *slog.Logger

	// now is injectable for the date heuristics
	now func() time.Time
}

// NewValidator creates a new confidence validator
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger, now: time.Now}
}

// ValidateAndScore scores the receipt data field by field. parsedCleanly
// states whether the upstream response was structurally valid JSON.
// Returns the overall confidence rounded to three decimals plus the
// per-field breakdown.
func (v *Validator) ValidateAndScore(data *domain.ReceiptData, parsedCleanly bool) (float64, domain.FieldScores) {
	scores := domain.FieldScores{
		"vendor":     v.scoreVendor(data),
		"date":       v.scoreDate(data),
		"total":      v.scoreTotal(data),
		"line_items": v.scoreLineItems(data),
		"tax":        v.scoreTax(data),
	}
	if parsedCleanly {
		scores["format"] = 1.0
	} else {
		scores["format"] = 0.3
	}

	var overall float64
	for field, weight := range fieldWeights {
		overall += scores[field] * weight
	}
	overall = math.Round(overall*1000) / 1000

	v.logger.Info("receipt validated",
		"overall_confidence", overall,
		"field_scores", scores,
	)

	return overall, scores
}

func (v *Validator) scoreVendor(data *domain.ReceiptData) float64 {
	if data.Vendor == nil || *data.Vendor == "" {
		return 0
	}
	if len(*data.Vendor) < 2 || len(*data.Vendor) > 200 {
		return 0.3
	}
	return 1.0
}

func (v *Validator) scoreDate(data *domain.ReceiptData) float64 {
	if data.Date == nil || *data.Date == "" {
		return 0
	}

	parsed, err := time.Parse("2006-01-02", *data.Date)
	if err != nil {
		return 0.1
	}

	today := v.now().UTC().Truncate(24 * time.Hour)
	if parsed.After(today.Add(24 * time.Hour)) {
		return 0.2 // future dates are suspicious
	}
	if parsed.Before(today.Add(-730 * 24 * time.Hour)) {
		return 0.5 // very old receipt
	}
	return 1.0
}

func (v *Validator) scoreTotal(data *domain.ReceiptData) float64 {
	if data.TotalAmount == nil {
		return 0
	}
	if *data.TotalAmount <= 0 {
		return 0.1
	}
	if *data.TotalAmount > 100000 {
		return 0.3 // unusually high
	}
	return 1.0
}

func (v *Validator) scoreLineItems(data *domain.ReceiptData) float64 {
	if len(data.LineItems) == 0 {
		return 0.3 // some receipts genuinely have no items
	}

	// cross-validate: items should sum to approximately the total
	if data.TotalAmount != nil && *data.TotalAmount > 0 {
		var itemsSum float64
		for _, item := range data.LineItems {
			itemsSum += item.Total
		}
		if itemsSum > 0 {
			ratio := itemsSum / *data.TotalAmount
			switch {
			case ratio >= 0.9 && ratio <= 1.1:
				return 1.0
			case ratio >= 0.7 && ratio <= 1.3:
				return 0.7
			default:
				return 0.4
			}
		}
	}

	return 0.6 // items exist but cannot be cross-validated
}

func (v *Validator) scoreTax(data *domain.ReceiptData) float64 {
	if data.TaxAmount == nil && data.TaxRate == nil {
		return 0.5 // tax is not always shown
	}

	score := 0.5
	if data.TaxAmount != nil && *data.TaxAmount > 0 {
		score += 0.25
		// tax should never exceed the total
		if data.TotalAmount != nil && *data.TaxAmount > *data.TotalAmount {
			score -= 0.3
		}
	}
	if data.TaxRate != nil {
		if commonTaxRates[*data.TaxRate] {
			score += 0.25
		} else if *data.TaxRate > 0 && *data.TaxRate < 30 {
			score += 0.15
		}
	}

	return math.Min(score, 1.0)
}

// FieldWeights exposes a copy of the weight table
func FieldWeights() map[string]float64 {
	weights := make(map[string]float64, len(fieldWeights))
	for field, weight := range fieldWeights {
		weights[field] = weight
	}
	return weights
}
