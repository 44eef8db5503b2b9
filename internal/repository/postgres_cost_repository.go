package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/belegpilot/extraction-service/internal/domain"
)

// PostgresCostRepository implements the spend ledger using PostgreSQL
type PostgresCostRepository struct {
	db           *pgxpool.Pool
	dailyLimit   float64
	monthlyLimit float64
}

// NewPostgresCostRepository creates a new PostgreSQL cost repository.
// The limits are only reported through GetCostSummary; enforcement lives in
// the budget gate.
func NewPostgresCostRepository(db *pgxpool.Pool, dailyLimit, monthlyLimit float64) *PostgresCostRepository {
	return &PostgresCostRepository{
		db:           db,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
	}
}

// GetDailySpend returns the total USD spent since midnight UTC
func (r *PostgresCostRepository) GetDailySpend(ctx context.Context) (float64, error) {
	return r.spendSince(ctx, startOfDay(time.Now().UTC()))
}

// GetMonthlySpend returns the total USD spent since the first of the month
func (r *PostgresCostRepository) GetMonthlySpend(ctx context.Context) (float64, error) {
	return r.spendSince(ctx, startOfMonth(time.Now().UTC()))
}

func (r *PostgresCostRepository) spendSince(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0)
		FROM cost_tracker
		WHERE date >= $1
	`, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum spend: %w", err)
	}
	return total, nil
}

// RecordSpend appends one ledger entry for a completed VLM call
func (r *PostgresCostRepository) RecordSpend(ctx context.Context, model string, inputTokens, outputTokens int, costUSD float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO cost_tracker (id, date, model, input_tokens, output_tokens, cost_usd, request_count)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
	`, uuid.New(), time.Now().UTC(), model, inputTokens, outputTokens, costUSD)
	if err != nil {
		return fmt.Errorf("failed to record spend: %w", err)
	}
	return nil
}

// GetCostSummary reports rolling spend and request counts against the limits
func (r *PostgresCostRepository) GetCostSummary(ctx context.Context) (*domain.CostSummary, error) {
	now := time.Now().UTC()
	summary := &domain.CostSummary{
		DailyLimitUSD:   r.dailyLimit,
		MonthlyLimitUSD: r.monthlyLimit,
	}

	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0), COALESCE(SUM(request_count), 0)
		FROM cost_tracker
		WHERE date >= $1
	`, startOfDay(now)).Scan(&summary.DailySpendUSD, &summary.RequestsToday)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily spend: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0), COALESCE(SUM(request_count), 0)
		FROM cost_tracker
		WHERE date >= $1
	`, startOfMonth(now)).Scan(&summary.MonthlySpendUSD, &summary.RequestsThisMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly spend: %w", err)
	}

	return summary, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
