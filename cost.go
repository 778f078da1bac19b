package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/getclawkit/clawkit/internal/cost"
	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	costBarWidth = 30
	costBaseline = "gpt4"
)

func newCostCmd() *cobra.Command {
	var (
		params = config.Cost
		ids    []string
		prices map[string]pricing.Override
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Project the monthly API bill of an agent",
		Long: "Simulates the context growth of an agent run step by step and projects the\n" +
			"monthly cost of every model in the line-up.",
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			models, err := costModels(config.models(), ids, prices)
			if err != nil {
				return clawError{err, "Could not build the model line-up."}
			}
			proj := cost.Project(params.Clamp(), models)
			if asJSON {
				return printJSON(os.Stdout, proj)
			}
			renderCost(os.Stdout, stdoutStyles(), proj)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&params.DailyRuns, "daily-runs", params.DailyRuns, stdoutStyles().FlagDesc.Render("Agent runs per day."))
	flags.IntVar(&params.StepsPerRun, "steps", params.StepsPerRun, stdoutStyles().FlagDesc.Render(fmt.Sprintf("Steps per run (1-%d).", cost.MaxStepsPerRun)))
	flags.Float64Var(&params.BaseTokensPerStep, "base-tokens", params.BaseTokensPerStep, stdoutStyles().FlagDesc.Render("Tokens of the first step."))
	flags.Float64Var(&params.HistoryGrowthPercent, "growth", params.HistoryGrowthPercent, stdoutStyles().FlagDesc.Render("Context growth per step, in percent."))
	flags.Float64Var(&params.CacheHitPercent, "cache-hit", params.CacheHitPercent, stdoutStyles().FlagDesc.Render("Share of the context served from the prompt cache, in percent."))
	flags.StringSliceVarP(&ids, "model", "m", nil, stdoutStyles().FlagDesc.Render("Models to compare. Defaults to the whole line-up."))
	flags.Var(newPriceFlag(&prices), "price", stdoutStyles().FlagDesc.Render("Override rates of a model, as id=input:output per million tokens."))
	flags.BoolVar(&asJSON, "json", false, stdoutStyles().FlagDesc.Render(help["json"]))
	return cmd
}

// costModels picks the compared models. Without ids the whole line-up is
// used; other ids are looked up in the provider table.
func costModels(lineup []pricing.Entry, ids []string, overrides map[string]pricing.Override) ([]pricing.Entry, error) {
	if len(ids) == 0 {
		return pricing.Apply(lineup, overrides), nil
	}
	models := make([]pricing.Entry, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		i := slices.IndexFunc(lineup, func(e pricing.Entry) bool { return e.ID == id })
		if i >= 0 {
			models = append(models, lineup[i])
			continue
		}
		e, ok := pricing.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown model %q", id)
		}
		models = append(models, e)
	}
	return pricing.Apply(models, overrides), nil
}

func renderCost(w io.Writer, s styles, proj cost.Projection) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "\n  %s\n", s.Title.Render("Monthly cost projection"))
	p.Fprintf(w, "  %s\n\n", s.Comment.Render(p.Sprintf(
		"%.0f runs a day, %d steps, %.0f tokens growing %.0f%% a step, %.0f%% cache hits",
		proj.Params.DailyRuns,
		proj.Params.StepsPerRun,
		proj.Params.BaseTokensPerStep,
		proj.Params.HistoryGrowthPercent,
		proj.Params.CacheHitPercent,
	)))

	var top float64
	nameWidth := 0
	for _, t := range proj.Totals {
		top = max(top, t.Monthly)
		nameWidth = max(nameWidth, lipgloss.Width(t.Model.Name))
	}
	for _, t := range proj.Totals {
		bar := 0
		if top > 0 {
			bar = int(t.Monthly / top * costBarWidth)
		}
		if t.Monthly > 0 {
			bar = max(bar, 1)
		}
		color := s.Renderer.NewStyle()
		if t.Model.Color != "" {
			color = color.Foreground(lipgloss.Color(t.Model.Color))
		}
		fmt.Fprintf(
			w,
			"  %s %s %s %s\n",
			s.Renderer.NewStyle().Width(nameWidth).Render(t.Model.Name),
			s.Price.Render(p.Sprintf("%10s", p.Sprintf("$%.2f", t.Monthly))),
			color.Render(strings.Repeat("█", bar)+strings.Repeat(" ", costBarWidth-bar)),
			s.Badge.Render(t.Model.Badge),
		)
	}

	if n := len(proj.Series); n > 0 {
		last := proj.Series[n-1]
		fmt.Fprintf(w, "\n  %s\n", s.Comment.Render(p.Sprintf(
			"The last step sends %.0f tokens of context.", last.Context,
		)))
	}

	if best, ok := proj.Cheapest(); ok && best.Model.ID != costBaseline {
		if saved, pct, ok := proj.Savings(costBaseline, best.Model.ID); ok && saved > 0 {
			base, _ := proj.Total(costBaseline)
			fmt.Fprintf(w, "\n  %s\n", s.Success.Render(p.Sprintf(
				"Switch to %s and save $%.2f a month (%d%% of $%.2f).",
				best.Model.Name, saved, pct, base,
			)))
		}
	}
	fmt.Fprintf(w, "\n  %s\n\n", s.Comment.Render("Prices last checked "+pricing.LastUpdated+"."))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return clawError{err, "Could not encode JSON."}
	}
	return nil
}
