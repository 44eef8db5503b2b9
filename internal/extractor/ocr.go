package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/belegpilot/extraction-service/internal/domain"
)

// TextRecognizer turns image bytes into raw text
type TextRecognizer interface {
	RecognizeText(ctx context.Context, imageBytes []byte, languages string) (string, error)
}

// Ordered pattern sets; the first pattern that matches wins.
var (
	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:total|gesamt|summe|betrag)[:\s]*[€$£]?\s*(\d+[.,]\d{2})`),
		regexp.MustCompile(`(?i)(?:total|gesamt|summe|betrag)[:\s]*(\d+[.,]\d{2})\s*[€$£]?`),
		regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s*(?:eur|usd|gbp)`),
	}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{2}[./]\d{2}[./]\d{4})`), // DD.MM.YYYY or DD/MM/YYYY
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),       // YYYY-MM-DD
		regexp.MustCompile(`(\d{2}[./]\d{2}[./]\d{2})`), // DD.MM.YY
	}

	taxPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:mwst|vat|tax|ust)[:\s]*[€$£]?\s*(\d+[.,]\d{2})`),
		regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s*(?:mwst|vat|tax)`),
	}

	dateDMY4 = regexp.MustCompile(`^(\d{2})[./](\d{2})[./](\d{4})`)
	dateISO  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	dateDMY2 = regexp.MustCompile(`^(\d{2})[./](\d{2})[./](\d{2})`)
)

// OCRExtractor is the free fallback path: text recognition plus regex
// pattern matching. It never populates line items; OCR output cannot be
// segmented into items reliably.
type OCRExtractor struct {
	recognizer TextRecognizer
	languages  string
	logger     *slog.Logger
}

// NewOCRExtractor creates an OCR extractor using the given recognizer and
// tesseract-style language set (e.g. "deu+eng").
func NewOCRExtractor(recognizer TextRecognizer, languages string, logger *slog.Logger) *OCRExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if languages == "" {
		languages = "deu+eng"
	}
	return &OCRExtractor{recognizer: recognizer, languages: languages, logger: logger}
}

// Extract recognizes text on the preprocessed JPEG and parses receipt
// fields from it. The raw recognized text is returned for storage.
func (e *OCRExtractor) Extract(ctx context.Context, jpegBytes []byte) (*domain.ReceiptData, string, error) {
	text, err := e.recognizer.RecognizeText(ctx, jpegBytes, e.languages)
	if err != nil {
		return nil, "", fmt.Errorf("text recognition failed: %w", err)
	}

	e.logger.Info("ocr text extracted", "text_length", len(text))

	return e.parseText(text), text, nil
}

// parseText applies the ordered pattern sets to recognized text
func (e *OCRExtractor) parseText(text string) *domain.ReceiptData {
	data := &domain.ReceiptData{
		TotalAmount: extractAmount(text, totalPatterns),
		TaxAmount:   extractAmount(text, taxPatterns),
		Date:        extractDate(text),
		Currency:    detectCurrency(text),
		LineItems:   []domain.LineItem{},
		Category:    domain.CategoryOther,
	}

	// vendor is approximated as the first non-empty recognized line
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			data.Vendor = &line
			break
		}
	}

	return data
}

func extractAmount(text string, patterns []*regexp.Regexp) *float64 {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		amountStr := strings.ReplaceAll(match[1], ",", ".")
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			continue
		}
		return &amount
	}
	return nil
}

func extractDate(text string) *string {
	for _, pattern := range datePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if normalized := normalizeDate(match[1]); normalized != nil {
			return normalized
		}
	}
	return nil
}

// normalizeDate converts the supported date formats to YYYY-MM-DD.
// Two-digit years below 50 map to the 2000s, the rest to the 1900s.
func normalizeDate(dateStr string) *string {
	if m := dateDMY4.FindStringSubmatch(dateStr); m != nil {
		normalized := fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
		return &normalized
	}
	if dateISO.MatchString(dateStr) {
		return &dateStr
	}
	if m := dateDMY2.FindStringSubmatch(dateStr); m != nil {
		year, _ := strconv.Atoi(m[3])
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
		normalized := fmt.Sprintf("%d-%s-%s", year, m[2], m[1])
		return &normalized
	}
	return nil
}

// detectCurrency infers the currency from symbol or ISO-code substrings,
// checked in fixed priority order.
func detectCurrency(text string) *string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "€") || strings.Contains(lower, "eur"):
		return domain.NormalizeCurrency("EUR")
	case strings.Contains(text, "$") || strings.Contains(lower, "usd"):
		return domain.NormalizeCurrency("USD")
	case strings.Contains(text, "£") || strings.Contains(lower, "gbp"):
		return domain.NormalizeCurrency("GBP")
	default:
		return nil
	}
}
