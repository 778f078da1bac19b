package cost

import (
	"math"
	"testing"

	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, id string) pricing.Entry {
	t.Helper()
	e, ok := pricing.Lookup(id)
	require.True(t, ok, id)
	return e
}

func TestMonthlyBaseline(t *testing.T) {
	p := DefaultParams()
	for id, want := range map[string]float64{
		"gpt4":     137.74187647912504,
		"deepseek": 11.879399182228203,
		"gemini":   31.177927695244506,
		"claude":   221.77927695244503,
		"custom":   46.92642565081501,
		"local":    0,
	} {
		t.Run(id, func(t *testing.T) {
			require.InDelta(t, want, Monthly(p, entry(t, id)), 1e-9)
		})
	}
}

func TestContextTokens(t *testing.T) {
	p := DefaultParams()
	require.InDelta(t, 2200.0, ContextTokens(p, 1), 1e-9)
	require.InDelta(t, 2000*math.Pow(1.1, 10), ContextTokens(p, 10), 1e-9)

	p.HistoryGrowthPercent = 0
	require.InDelta(t, 2000.0, ContextTokens(p, 7), 1e-9)
}

func TestMonthlyMonotonic(t *testing.T) {
	m := entry(t, "gpt4")
	base := DefaultParams()

	t.Run("steps", func(t *testing.T) {
		prev := 0.0
		for s := 1; s <= MaxStepsPerRun; s++ {
			p := base
			p.StepsPerRun = s
			got := Monthly(p, m)
			require.Greater(t, got, prev)
			prev = got
		}
	})

	t.Run("daily runs", func(t *testing.T) {
		lo, hi := base, base
		hi.DailyRuns = lo.DailyRuns * 2
		require.InDelta(t, 2*Monthly(lo, m), Monthly(hi, m), 1e-9)
	})

	t.Run("cache hits lower the cost", func(t *testing.T) {
		prev := math.Inf(1)
		for c := 0.0; c <= 100; c += 10 {
			p := base
			p.CacheHitPercent = c
			got := Monthly(p, m)
			require.Less(t, got, prev)
			prev = got
		}
	})
}

func TestMonthlyFullCache(t *testing.T) {
	p := DefaultParams()
	p.CacheHitPercent = 100
	p.StepsPerRun = 1
	m := entry(t, "gpt4")

	// 2200 cached input tokens plus 600 output tokens, 1500 times a month
	want := (2200*0.5 + 600*8.0) / 1e6 * 1500
	require.InDelta(t, want, Monthly(p, m), 1e-9)
}

func TestMonthlyZero(t *testing.T) {
	m := entry(t, "claude")

	t.Run("no runs", func(t *testing.T) {
		p := DefaultParams()
		p.DailyRuns = 0
		require.Zero(t, Monthly(p, m))
	})

	t.Run("no tokens", func(t *testing.T) {
		p := DefaultParams()
		p.BaseTokensPerStep = 0
		require.Zero(t, Monthly(p, m))
	})

	t.Run("free model", func(t *testing.T) {
		require.Zero(t, Monthly(DefaultParams(), entry(t, "local")))
	})
}

func TestClamp(t *testing.T) {
	p := Params{
		DailyRuns:            -4,
		StepsPerRun:          90,
		BaseTokensPerStep:    math.NaN(),
		HistoryGrowthPercent: -1,
		CacheHitPercent:      140,
	}.Clamp()
	require.Equal(t, Params{StepsPerRun: MaxStepsPerRun, CacheHitPercent: 100}, p)

	p = Params{StepsPerRun: 0, CacheHitPercent: 42}.Clamp()
	require.Equal(t, 1, p.StepsPerRun)
	require.InDelta(t, 42.0, p.CacheHitPercent, 1e-12)

	require.Equal(t, DefaultParams(), DefaultParams().Clamp())
}
