package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belegpilot/extraction-service/internal/config"
	"github.com/belegpilot/extraction-service/internal/domain"
)

type stubCostRepo struct {
	daily    float64
	monthly  float64
	err      error
	recorded []domain.SpendEntry
}

func (s *stubCostRepo) GetDailySpend(ctx context.Context) (float64, error) {
	return s.daily, s.err
}

func (s *stubCostRepo) GetMonthlySpend(ctx context.Context) (float64, error) {
	return s.monthly, s.err
}

func (s *stubCostRepo) RecordSpend(ctx context.Context, model string, inputTokens, outputTokens int, costUSD float64) error {
	s.recorded = append(s.recorded, domain.SpendEntry{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      costUSD,
	})
	return nil
}

func (s *stubCostRepo) GetCostSummary(ctx context.Context) (*domain.CostSummary, error) {
	return nil, errors.New("not implemented")
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultModel:     "qwen/qwen2.5-vl-72b-instruct",
		FallbackModel:    "openai/gpt-4o-mini",
		DailyBudgetUSD:   1.0,
		MonthlyBudgetUSD: 5.0,
		ModelPricing: map[string]config.ModelPricing{
			"openai/gpt-4o-mini": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
		},
		DefaultModelPrices: config.ModelPricing{InputPerMTok: 1.0, OutputPerMTok: 1.0},
	}
}

func TestCheckSelectsDefaultModelUnderBudget(t *testing.T) {
	repo := &stubCostRepo{daily: 0.79, monthly: 2.0}
	gate := NewGate(repo, testConfig(), nil)

	decision, err := gate.Check(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, decision.Refused)
	assert.Equal(t, "qwen/qwen2.5-vl-72b-instruct", decision.Model)
}

func TestCheckSwitchesToFallbackModel(t *testing.T) {
	repo := &stubCostRepo{daily: 0.85, monthly: 2.0}
	gate := NewGate(repo, testConfig(), nil)

	decision, err := gate.Check(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, decision.Refused)
	assert.Equal(t, "openai/gpt-4o-mini", decision.Model)
}

func TestCheckRefusesNearDailyLimit(t *testing.T) {
	repo := &stubCostRepo{daily: 0.96, monthly: 2.0}
	gate := NewGate(repo, testConfig(), nil)

	decision, err := gate.Check(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, decision.Refused)
	assert.Equal(t, ScopeDaily, decision.Scope)
}

func TestCheckRefusesOverMonthlyLimit(t *testing.T) {
	repo := &stubCostRepo{daily: 0.10, monthly: 5.0}
	gate := NewGate(repo, testConfig(), nil)

	decision, err := gate.Check(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, decision.Refused)
	assert.Equal(t, ScopeMonthly, decision.Scope)
}

func TestCheckMonthlyRefusalWinsOverDaily(t *testing.T) {
	repo := &stubCostRepo{daily: 0.99, monthly: 6.0}
	gate := NewGate(repo, testConfig(), nil)

	decision, err := gate.Check(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, ScopeMonthly, decision.Scope)
}

func TestCheckModelOverrideBypassesTierSelection(t *testing.T) {
	// override wins in the fallback band
	repo := &stubCostRepo{daily: 0.85, monthly: 2.0}
	gate := NewGate(repo, testConfig(), nil)

	decision, err := gate.Check(context.Background(), "openai/gpt-4o")
	require.NoError(t, err)
	assert.False(t, decision.Refused)
	assert.Equal(t, "openai/gpt-4o", decision.Model)
}

func TestCheckModelOverrideStillRefused(t *testing.T) {
	repo := &stubCostRepo{daily: 0.96, monthly: 2.0}
	gate := NewGate(repo, testConfig(), nil)

	decision, err := gate.Check(context.Background(), "openai/gpt-4o")
	require.NoError(t, err)
	assert.True(t, decision.Refused)
	assert.Equal(t, ScopeDaily, decision.Scope)
}

func TestCheckPropagatesLedgerError(t *testing.T) {
	repo := &stubCostRepo{err: errors.New("connection refused")}
	gate := NewGate(repo, testConfig(), nil)

	_, err := gate.Check(context.Background(), "")
	assert.Error(t, err)
}

func TestEstimateCost(t *testing.T) {
	gate := NewGate(&stubCostRepo{}, testConfig(), nil)

	// 1M input and 1M output tokens at gpt-4o-mini rates
	cost := gate.EstimateCost("openai/gpt-4o-mini", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.75, cost, 1e-9)

	// unknown models get the default rates
	cost = gate.EstimateCost("acme/unknown-model", 500_000, 100_000)
	assert.InDelta(t, 0.6, cost, 1e-9)

	assert.Equal(t, 0.0, gate.EstimateCost("openai/gpt-4o-mini", 0, 0))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "proceed(m)", Proceed("m").String())
	assert.Equal(t, "refuse(daily)", Refuse(ScopeDaily).String())
}
