package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrResultNotFound is returned when a stored extraction result does not exist
var ErrResultNotFound = errors.New("extraction result not found")

// Extraction status values derived from the overall confidence score
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Extraction methods describing which path produced the result
const (
	MethodVLM    = "vlm"
	MethodOCR    = "ocr"
	MethodHybrid = "hybrid"
)

// ExtractionRequest carries the optional per-request knobs
type ExtractionRequest struct {
	ForceOCR      bool   // skip the VLM entirely and use OCR only
	ModelOverride string // force a specific model; tier selection is bypassed
}

// FieldScores maps field names to per-field confidence in [0,1]
type FieldScores map[string]float64

// ExtractionResult is the full outcome returned to API callers
type ExtractionResult struct {
	ID               uuid.UUID   `json:"id"`
	Status           string      `json:"status"`
	Data             ReceiptData `json:"data"`
	ConfidenceScore  float64     `json:"confidence_score"`
	FieldScores      FieldScores `json:"field_scores,omitempty"`
	ExtractionMethod string      `json:"extraction_method"`
	ModelUsed        *string     `json:"model_used,omitempty"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
	CostUSD          float64     `json:"cost_usd"`
	CreatedAt        time.Time   `json:"created_at"`
}

// StatusForConfidence maps an overall confidence score to a result status
func StatusForConfidence(confidence float64) string {
	switch {
	case confidence >= 0.5:
		return StatusSuccess
	case confidence > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// SpendEntry is one append-only ledger row for a completed VLM call
type SpendEntry struct {
	ID           uuid.UUID
	Date         time.Time
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// CostSummary reports rolling spend against the configured limits
type CostSummary struct {
	DailySpendUSD     float64 `json:"daily_spend_usd"`
	MonthlySpendUSD   float64 `json:"monthly_spend_usd"`
	DailyLimitUSD     float64 `json:"daily_limit_usd"`
	MonthlyLimitUSD   float64 `json:"monthly_limit_usd"`
	RequestsToday     int     `json:"requests_today"`
	RequestsThisMonth int     `json:"requests_this_month"`
}

// APIKey is the stored record for a caller credential. The plaintext key is
// only ever available at creation time; KeyHash is a bcrypt digest.
type APIKey struct {
	ID            uuid.UUID
	Name          string
	Description   *string
	KeyHash       string
	KeyPrefix     string
	IsActive      bool
	CreatedAt     time.Time
	LastUsedAt    *time.Time
	TotalRequests int
}
