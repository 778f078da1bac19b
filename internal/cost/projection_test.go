package cost

import (
	"testing"

	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	p := DefaultParams()
	models := pricing.Estimator()
	proj := Project(p, models)

	require.Len(t, proj.Totals, len(models))
	require.Len(t, proj.Series, p.StepsPerRun)
	for i, m := range models {
		require.Equal(t, m.ID, proj.Totals[i].Model.ID)
	}

	gpt, ok := proj.Total("gpt4")
	require.True(t, ok)
	require.InDelta(t, 137.74187647912504, gpt, 1e-9)

	last := proj.Series[len(proj.Series)-1]
	require.Equal(t, p.StepsPerRun, last.Step)
	for _, tot := range proj.Totals {
		require.InDelta(t, tot.Monthly, last.Cumulative[tot.Model.ID], 1e-9)
	}

	// the per step contribution grows with the context
	for i := 1; i < len(proj.Series); i++ {
		require.Greater(t, proj.Series[i].Values["claude"], proj.Series[i-1].Values["claude"])
		require.Greater(t, proj.Series[i].Context, proj.Series[i-1].Context)
	}
}

func TestProjectNoModels(t *testing.T) {
	proj := Project(DefaultParams(), nil)
	require.Empty(t, proj.Totals)
	require.Len(t, proj.Series, 10)

	_, ok := proj.Cheapest()
	require.False(t, ok)
}

func TestCheapest(t *testing.T) {
	proj := Project(DefaultParams(), pricing.Estimator())
	best, ok := proj.Cheapest()
	require.True(t, ok)
	require.Equal(t, "deepseek", best.Model.ID)

	onlyFree := Project(DefaultParams(), []pricing.Entry{entry(t, "local")})
	_, ok = onlyFree.Cheapest()
	require.False(t, ok)
}

func TestSavings(t *testing.T) {
	proj := Project(DefaultParams(), pricing.Estimator())

	saved, pct, ok := proj.Savings("claude", "deepseek")
	require.True(t, ok)
	require.InDelta(t, 221.77927695244503-11.879399182228203, saved, 1e-9)
	require.Equal(t, 95, pct)

	_, _, ok = proj.Savings("claude", "nope")
	require.False(t, ok)

	saved, pct, ok = proj.Savings("local", "gpt4")
	require.True(t, ok)
	require.Less(t, saved, 0.0)
	require.Zero(t, pct)
}
