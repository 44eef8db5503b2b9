package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/belegpilot/extraction-service/internal/domain"
)

// ExtractionRepository defines persistence for extraction results
type ExtractionRepository interface {
	// SaveResult stores a finished extraction together with the raw model
	// output and the prefix of the API key that requested it.
	SaveResult(ctx context.Context, result *domain.ExtractionResult, rawResponse *string, keyPrefix string) error

	GetResultByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionResult, error)
	ListResults(ctx context.Context, page, limit int) ([]domain.ExtractionResult, int, error)
}

// CostRepository is the append-only spend ledger backing the budget gate
type CostRepository interface {
	GetDailySpend(ctx context.Context) (float64, error)
	GetMonthlySpend(ctx context.Context) (float64, error)
	RecordSpend(ctx context.Context, model string, inputTokens, outputTokens int, costUSD float64) error
	GetCostSummary(ctx context.Context) (*domain.CostSummary, error)
}

// APIKeyRepository manages caller credentials
type APIKeyRepository interface {
	CreateKey(ctx context.Context, key *domain.APIKey) error
	ListActiveKeys(ctx context.Context) ([]domain.APIKey, error)
	TouchKey(ctx context.Context, id uuid.UUID) error
}
