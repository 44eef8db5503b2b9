package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/belegpilot/extraction-service/internal/domain"
)

// PostgresExtractionRepository implements ExtractionRepository using PostgreSQL
type PostgresExtractionRepository struct {
	db *pgxpool.Pool
}

// NewPostgresExtractionRepository creates a new PostgreSQL extraction repository
func NewPostgresExtractionRepository(db *pgxpool.Pool) *PostgresExtractionRepository {
	return &PostgresExtractionRepository{db: db}
}

// SaveResult stores a finished extraction result
func (r *PostgresExtractionRepository) SaveResult(ctx context.Context, result *domain.ExtractionResult, rawResponse *string, keyPrefix string) error {
	lineItems, err := json.Marshal(result.Data.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO extraction_records (
			id, status, vendor, receipt_date, total_amount, currency,
			tax_amount, tax_rate, line_items, payment_method, receipt_number,
			category, confidence_score, extraction_method, model_used,
			processing_time_ms, cost_usd, raw_vlm_response, api_key_prefix, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`,
		result.ID, result.Status, result.Data.Vendor, result.Data.Date,
		result.Data.TotalAmount, result.Data.Currency, result.Data.TaxAmount,
		result.Data.TaxRate, lineItems, result.Data.PaymentMethod,
		result.Data.ReceiptNumber, string(result.Data.Category),
		result.ConfidenceScore, result.ExtractionMethod, result.ModelUsed,
		result.ProcessingTimeMs, result.CostUSD, rawResponse, keyPrefix, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert extraction record: %w", err)
	}

	return nil
}

// GetResultByID retrieves a stored extraction result
func (r *PostgresExtractionRepository) GetResultByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionResult, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, status, vendor, receipt_date, total_amount, currency,
		       tax_amount, tax_rate, line_items, payment_method, receipt_number,
		       category, confidence_score, extraction_method, model_used,
		       processing_time_ms, cost_usd, created_at
		FROM extraction_records
		WHERE id = $1
	`, id)

	result, err := scanExtractionRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", domain.ErrResultNotFound, id)
		}
		return nil, fmt.Errorf("failed to get extraction result: %w", err)
	}

	return result, nil
}

// ListResults returns a page of stored results, newest first, plus the total record count
func (r *PostgresExtractionRepository) ListResults(ctx context.Context, page, limit int) ([]domain.ExtractionResult, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var totalItems int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM extraction_records`).Scan(&totalItems); err != nil {
		return nil, 0, fmt.Errorf("failed to count extraction records: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, status, vendor, receipt_date, total_amount, currency,
		       tax_amount, tax_rate, line_items, payment_method, receipt_number,
		       category, confidence_score, extraction_method, model_used,
		       processing_time_ms, cost_usd, created_at
		FROM extraction_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query extraction records: %w", err)
	}
	defer rows.Close()

	results := []domain.ExtractionResult{}
	for rows.Next() {
		result, err := scanExtractionRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan extraction record: %w", err)
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating extraction records: %w", err)
	}

	return results, totalItems, nil
}

// scanExtractionRecord reads one extraction_records row into a domain result
func scanExtractionRecord(row pgx.Row) (*domain.ExtractionResult, error) {
	var (
		result    domain.ExtractionResult
		category  string
		lineItems []byte
	)

	err := row.Scan(
		&result.ID, &result.Status, &result.Data.Vendor, &result.Data.Date,
		&result.Data.TotalAmount, &result.Data.Currency, &result.Data.TaxAmount,
		&result.Data.TaxRate, &lineItems, &result.Data.PaymentMethod,
		&result.Data.ReceiptNumber, &category, &result.ConfidenceScore,
		&result.ExtractionMethod, &result.ModelUsed, &result.ProcessingTimeMs,
		&result.CostUSD, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	result.Data.Category = domain.Category(category)
	result.Data.LineItems = []domain.LineItem{}
	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &result.Data.LineItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
		}
	}

	return &result, nil
}
