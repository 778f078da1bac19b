package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/getclawkit/clawkit/internal/agentconfig"
	"github.com/getclawkit/clawkit/internal/cost"
	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the cost, skills and config tools over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			tools := &mcpTools{
				index:    sync.OnceValues(func() (*skills.Index, error) { return store.Index(cmd.Context()) }),
				models:   config.models(),
				defaults: config.Cost,
				targetOS: config.TargetOS,
			}
			stdio := server.NewStdioServer(tools.server(Version))
			stdio.SetErrorLogger(logger.StandardLog())
			logger.Info("mcp server listening on stdio")
			if err := stdio.Listen(cmd.Context(), os.Stdin, os.Stdout); err != nil && cmd.Context().Err() == nil {
				return clawError{err, "The MCP server stopped."}
			}
			return nil
		},
	}
}

// mcpTools holds what the tool handlers need.
type mcpTools struct {
	index    func() (*skills.Index, error)
	models   []pricing.Entry
	defaults cost.Params
	targetOS string
}

func (t *mcpTools) server(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"clawkit",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(mcp.NewTool(
		"estimate_cost",
		mcp.WithDescription("Project the monthly API cost of an agent whose context grows every step."),
		mcp.WithNumber("daily_runs", mcp.Description("Agent runs per day."), mcp.Min(0), mcp.DefaultNumber(t.defaults.DailyRuns)),
		mcp.WithNumber("steps_per_run", mcp.Description("Steps per run."), mcp.Min(1), mcp.Max(cost.MaxStepsPerRun), mcp.DefaultNumber(float64(t.defaults.StepsPerRun))),
		mcp.WithNumber("base_tokens_per_step", mcp.Description("Tokens of the first step."), mcp.Min(0), mcp.DefaultNumber(t.defaults.BaseTokensPerStep)),
		mcp.WithNumber("history_growth_percent", mcp.Description("Context growth per step, in percent."), mcp.Min(0), mcp.DefaultNumber(t.defaults.HistoryGrowthPercent)),
		mcp.WithNumber("cache_hit_percent", mcp.Description("Share of the context served from cache, in percent."), mcp.Min(0), mcp.Max(100), mcp.DefaultNumber(t.defaults.CacheHitPercent)), //nolint:mnd
		mcp.WithArray("models", mcp.Description("Model IDs to compare. Defaults to the whole line-up."), mcp.WithStringItems()),
	), t.estimateCost)
	s.AddTool(mcp.NewTool(
		"search_skills",
		mcp.WithDescription("Search the OpenClaw skill catalog."),
		mcp.WithString("query", mcp.Description("What the skill should do. Empty lists the most starred skills.")),
		mcp.WithNumber("page", mcp.Description("Page, starting at 1."), mcp.Min(1), mcp.DefaultNumber(1)),
		mcp.WithNumber("page_size", mcp.Description("Results per page."), mcp.Min(1), mcp.Max(skills.MaxPageSize), mcp.DefaultNumber(10)), //nolint:mnd
	), t.searchSkills)
	s.AddTool(mcp.NewTool(
		"render_config",
		mcp.WithDescription("Render the configuration file of an OpenClaw agent."),
		mcp.WithString("provider", mcp.Description("Provider preset."), mcp.Enum(agentconfig.PresetIDs()...), mcp.DefaultString("openai")),
		mcp.WithString("model", mcp.Description("Model name. Defaults to the preset's.")),
		mcp.WithString("base_url", mcp.Description("API base URL. Defaults to the preset's.")),
		mcp.WithString("api_key", mcp.Description("API key.")),
		mcp.WithString("log_level", mcp.Description("Agent log level."), mcp.DefaultString(agentconfig.DefaultLogLevel)),
		mcp.WithString("data_path", mcp.Description("Agent data directory."), mcp.DefaultString(agentconfig.DefaultDataPath)),
		mcp.WithString("os", mcp.Description("Target system."), mcp.Enum(string(agentconfig.Unix), string(agentconfig.Windows))),
		mcp.WithString("format", mcp.Description("Output format."), mcp.Enum(string(agentconfig.JSON), string(agentconfig.YAML)), mcp.DefaultString(string(agentconfig.JSON))),
	), t.renderConfig)
	return s
}

type costEstimate struct {
	Params   cost.Params  `json:"params"`
	Totals   []cost.Total `json:"totals"`
	Cheapest *cost.Total  `json:"cheapest,omitempty"`
}

func (t *mcpTools) estimateCost(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := cost.Params{
		DailyRuns:            req.GetFloat("daily_runs", t.defaults.DailyRuns),
		StepsPerRun:          req.GetInt("steps_per_run", t.defaults.StepsPerRun),
		BaseTokensPerStep:    req.GetFloat("base_tokens_per_step", t.defaults.BaseTokensPerStep),
		HistoryGrowthPercent: req.GetFloat("history_growth_percent", t.defaults.HistoryGrowthPercent),
		CacheHitPercent:      req.GetFloat("cache_hit_percent", t.defaults.CacheHitPercent),
	}
	models, err := costModels(t.models, req.GetStringSlice("models", nil), nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	proj := cost.Project(p.Clamp(), models)
	out := costEstimate{Params: proj.Params, Totals: proj.Totals}
	if best, ok := proj.Cheapest(); ok {
		out.Cheapest = &best
	}
	return mcp.NewToolResultJSON(out) //nolint:wrapcheck
}

func (t *mcpTools) searchSkills(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := t.index()
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not load the skill catalog", err), nil
	}
	pg := idx.Page(req.GetString("query", ""), req.GetInt("page", 1), req.GetInt("page_size", 10)) //nolint:mnd
	return mcp.NewToolResultJSON(pg) //nolint:wrapcheck
}

func (t *mcpTools) renderConfig(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec := agentconfig.New()
	if provider := req.GetString("provider", ""); provider != "" && !rec.ApplyPreset(provider) {
		return mcp.NewToolResultErrorf("unknown provider %q", provider), nil
	}
	for key, field := range map[string]agentconfig.Field{
		"model":     agentconfig.FieldModel,
		"base_url":  agentconfig.FieldBaseURL,
		"api_key":   agentconfig.FieldAPIKey,
		"log_level": agentconfig.FieldLogLevel,
		"data_path": agentconfig.FieldDataPath,
	} {
		if v := req.GetString(key, ""); v != "" {
			rec.Set(field, v)
		}
	}

	target, err := agentconfig.ParseOS(req.GetString("os", t.targetOS))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := agentconfig.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := rec.Render(target, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := mcp.NewToolResultText(content)
	if errs := rec.Validate(); len(errs) > 0 {
		lines := make([]string, 0, len(errs))
		for _, f := range errs.Fields() {
			lines = append(lines, fmt.Sprintf("%s: %s", f, errs[f]))
		}
		res.Content = append(res.Content, mcp.NewTextContent(
			"Save as "+format.FileName()+" once these are fixed:\n"+strings.Join(lines, "\n"),
		))
	}
	return res, nil
}
