package budget

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/belegpilot/extraction-service/internal/config"
	"github.com/belegpilot/extraction-service/internal/repository"
)

// Refusal scopes for budget decisions
const (
	ScopeDaily   = "daily"
	ScopeMonthly = "monthly"
)

// Daily-budget thresholds. At 80% the gate downgrades to the cheaper
// fallback model; at 95% it refuses the call entirely.
const (
	fallbackThreshold = 0.80
	refuseThreshold   = 0.95
)

// Decision is the tagged outcome of a budget check. Refusal is an ordinary
// result variant rather than an error so the orchestrator's fallback logic
// stays total.
type Decision struct {
	Refused bool
	Scope   string // refusal scope, "daily" or "monthly"
	Model   string // selected model when not refused
}

// Proceed builds an allow decision for the given model
func Proceed(model string) Decision {
	return Decision{Model: model}
}

// Refuse builds a refusal decision for the given scope
func Refuse(scope string) Decision {
	return Decision{Refused: true, Scope: scope}
}

func (d Decision) String() string {
	if d.Refused {
		return fmt.Sprintf("refuse(%s)", d.Scope)
	}
	return fmt.Sprintf("proceed(%s)", d.Model)
}

// Gate enforces the spend ceilings before each paid VLM call. Spend
// aggregates are read from the ledger at decision time; the read-then-write
// sequence is not serialized across concurrent requests, so the ceiling is
// approximate under high concurrency.
type Gate struct {
	costs            repository.CostRepository
	defaultModel     string
	fallbackModel    string
	dailyLimitUSD    float64
	monthlyLimitUSD  float64
	pricing          map[string]config.ModelPricing
	defaultPricing   config.ModelPricing
	logger           *slog.Logger
}

// NewGate creates a budget gate from the application configuration
func NewGate(costs repository.CostRepository, cfg *config.Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		costs:           costs,
		defaultModel:    cfg.DefaultModel,
		fallbackModel:   cfg.FallbackModel,
		dailyLimitUSD:   cfg.DailyBudgetUSD,
		monthlyLimitUSD: cfg.MonthlyBudgetUSD,
		pricing:         cfg.ModelPricing,
		defaultPricing:  cfg.DefaultModelPrices,
		logger:          logger,
	}
}

// Check reads the current spend aggregates and decides whether a VLM call
// may proceed and with which model tier. Rules are evaluated in order and
// the first match wins:
//
//  1. monthly spend at or over the monthly limit: refuse (monthly)
//  2. daily spend at or over 95% of the daily limit: refuse (daily)
//  3. daily spend at or over 80% of the daily limit: fallback model
//  4. otherwise: default model
//
// A non-empty modelOverride replaces the tier selection of rules 3-4 but
// remains subject to the hard refusals of rules 1-2.
func (g *Gate) Check(ctx context.Context, modelOverride string) (Decision, error) {
	dailySpend, err := g.costs.GetDailySpend(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read daily spend: %w", err)
	}
	monthlySpend, err := g.costs.GetMonthlySpend(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read monthly spend: %w", err)
	}

	if monthlySpend >= g.monthlyLimitUSD {
		g.logger.Warn("monthly budget exceeded",
			"monthly_spend_usd", monthlySpend, "monthly_limit_usd", g.monthlyLimitUSD)
		return Refuse(ScopeMonthly), nil
	}

	if dailySpend >= refuseThreshold*g.dailyLimitUSD {
		g.logger.Warn("daily budget nearly exceeded",
			"daily_spend_usd", dailySpend, "daily_limit_usd", g.dailyLimitUSD)
		return Refuse(ScopeDaily), nil
	}

	if modelOverride != "" {
		return Proceed(modelOverride), nil
	}

	if dailySpend >= fallbackThreshold*g.dailyLimitUSD {
		g.logger.Info("switching to fallback model due to budget",
			"daily_spend_usd", dailySpend, "model", g.fallbackModel)
		return Proceed(g.fallbackModel), nil
	}

	return Proceed(g.defaultModel), nil
}

// EstimateCost converts token usage into USD for the given model, falling
// back to the default rates when the model is not in the pricing table.
func (g *Gate) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	rates, ok := g.pricing[model]
	if !ok {
		rates = g.defaultPricing
	}
	inputCost := float64(inputTokens) / 1_000_000 * rates.InputPerMTok
	outputCost := float64(outputTokens) / 1_000_000 * rates.OutputPerMTok
	return inputCost + outputCost
}

// RecordSpend appends one ledger entry for a completed VLM call. Entries are
// written regardless of whether the response later parses.
func (g *Gate) RecordSpend(ctx context.Context, model string, inputTokens, outputTokens int, costUSD float64) error {
	return g.costs.RecordSpend(ctx, model, inputTokens, outputTokens, costUSD)
}
