// Package cost projects the monthly API spend of an agent whose context grows
// with every step it takes.
package cost

import (
	"math"

	"github.com/charmbracelet/x/exp/ordered"
	"github.com/getclawkit/clawkit/internal/pricing"
)

const (
	// DaysPerMonth is the number of days a month is projected over.
	DaysPerMonth = 30

	// OutputRatio is the share of the base step size billed as output. The
	// response length does not grow with the history.
	OutputRatio = 0.3

	// MaxStepsPerRun caps the step sweep.
	MaxStepsPerRun = 50

	tokensPerMillion = 1_000_000
)

// Params are the simulation inputs.
type Params struct {
	DailyRuns            float64 `json:"dailyRuns" yaml:"daily-runs" env:"DAILY_RUNS"`
	StepsPerRun          int     `json:"stepsPerRun" yaml:"steps-per-run" env:"STEPS_PER_RUN"`
	BaseTokensPerStep    float64 `json:"baseTokensPerStep" yaml:"base-tokens-per-step" env:"BASE_TOKENS_PER_STEP"`
	HistoryGrowthPercent float64 `json:"historyGrowthPercent" yaml:"history-growth-percent" env:"HISTORY_GROWTH_PERCENT"`
	CacheHitPercent      float64 `json:"cacheHitPercent" yaml:"cache-hit-percent" env:"CACHE_HIT_PERCENT"`
}

// DefaultParams returns the parameters the simulator starts with.
func DefaultParams() Params {
	return Params{
		DailyRuns:            50,
		StepsPerRun:          10,
		BaseTokensPerStep:    2000,
		HistoryGrowthPercent: 10,
		CacheHitPercent:      50,
	}
}

// Clamp bounds every parameter to its valid range. NaN values become the
// lower bound.
func (p Params) Clamp() Params {
	p.DailyRuns = nonNegative(p.DailyRuns)
	p.StepsPerRun = ordered.Clamp(p.StepsPerRun, 1, MaxStepsPerRun)
	p.BaseTokensPerStep = nonNegative(p.BaseTokensPerStep)
	p.HistoryGrowthPercent = nonNegative(p.HistoryGrowthPercent)
	p.CacheHitPercent = ordered.Clamp(nonNegative(p.CacheHitPercent), 0, 100)
	return p
}

func nonNegative(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return f
}

// ContextTokens is the input size of the given step. It compounds from the
// step index rather than from the previous step.
func ContextTokens(p Params, step int) float64 {
	return p.BaseTokensPerStep * math.Pow(1+p.HistoryGrowthPercent/100, float64(step))
}

// StepCost is the dollar cost of a single execution of the given step.
func StepCost(p Params, m pricing.Entry, step int) float64 {
	context := ContextTokens(p, step)
	cached := context * (p.CacheHitPercent / 100)
	fresh := context - cached
	output := p.BaseTokensPerStep * OutputRatio

	return cached/tokensPerMillion*m.CachedInputPerMillion +
		fresh/tokensPerMillion*m.InputPerMillion +
		output/tokensPerMillion*m.OutputPerMillion
}

// MonthlyStep is the monthly contribution of the given step.
func MonthlyStep(p Params, m pricing.Entry, step int) float64 {
	return StepCost(p, m, step) * p.DailyRuns * DaysPerMonth
}

// Monthly is the projected monthly cost of a model.
func Monthly(p Params, m pricing.Entry) float64 {
	var total float64
	for s := 1; s <= p.StepsPerRun; s++ {
		total += MonthlyStep(p, m, s)
	}
	return total
}
