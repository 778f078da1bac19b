// Package pricing holds the model price table shared by the cost projector
// and the provider presets.
package pricing

import (
	"slices"
	"strings"
)

// LastUpdated is the date the price table was last checked against the
// providers' pricing pages.
const LastUpdated = "2026-02-06"

// Entry is the price of a single model, in dollars per million tokens.
type Entry struct {
	ID                    string  `json:"id" yaml:"id"`
	Name                  string  `json:"name" yaml:"name"`
	Provider              string  `json:"provider" yaml:"provider"`
	InputPerMillion       float64 `json:"inputPricePerMillion" yaml:"input"`
	OutputPerMillion      float64 `json:"outputPricePerMillion" yaml:"output"`
	CachedInputPerMillion float64 `json:"cachedInputPricePerMillion" yaml:"cache"`

	// display only
	Color    string `json:"color,omitempty" yaml:"-"`
	Badge    string `json:"badge,omitempty" yaml:"-"`
	Editable bool   `json:"editable" yaml:"-"`
}

// Free reports whether every rate of the entry is zero.
func (e Entry) Free() bool {
	return e.InputPerMillion == 0 && e.OutputPerMillion == 0 && e.CachedInputPerMillion == 0
}

// WithRates returns a copy of the entry with the input and output rates
// replaced. Non-editable entries are returned unchanged.
func (e Entry) WithRates(input, output float64) Entry {
	if !e.Editable {
		return e
	}
	e.InputPerMillion = max(input, 0)
	e.OutputPerMillion = max(output, 0)
	return e
}

// Provider is an LLM API provider and the models it serves.
type Provider struct {
	ID           string
	Name         string
	BaseURL      string
	DefaultModel string
	Models       []Entry
}

var providers = []Provider{
	{
		ID:           "openai",
		Name:         "OpenAI",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4.1",
		Models: []Entry{
			{ID: "gpt-4.1", Name: "GPT-4.1", Provider: "OpenAI", InputPerMillion: 2.00, OutputPerMillion: 8.00, CachedInputPerMillion: 0.50},
			{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", Provider: "OpenAI", InputPerMillion: 0.40, OutputPerMillion: 1.60, CachedInputPerMillion: 0.10},
		},
	},
	{
		ID:           "deepseek",
		Name:         "DeepSeek",
		BaseURL:      "https://api.deepseek.com",
		DefaultModel: "deepseek-chat",
		Models: []Entry{
			{ID: "deepseek-chat", Name: "DeepSeek V3.2 (Chat)", Provider: "DeepSeek", InputPerMillion: 0.28, OutputPerMillion: 0.42, CachedInputPerMillion: 0.028},
			{ID: "deepseek-reasoner", Name: "DeepSeek V3.2 (Reasoner)", Provider: "DeepSeek", InputPerMillion: 0.28, OutputPerMillion: 0.42, CachedInputPerMillion: 0.028},
		},
	},
	{
		ID:           "anthropic",
		Name:         "Anthropic",
		BaseURL:      "https://api.anthropic.com",
		DefaultModel: "claude-sonnet-4-5-20250929",
		Models: []Entry{
			{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", Provider: "Anthropic", InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedInputPerMillion: 0.30},
			{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5", Provider: "Anthropic", InputPerMillion: 1.00, OutputPerMillion: 5.00, CachedInputPerMillion: 0.10},
		},
	},
	{
		ID:           "google",
		Name:         "Google Gemini",
		BaseURL:      "https://generativelanguage.googleapis.com/v1beta/openai",
		DefaultModel: "gemini-2.5-flash",
		Models: []Entry{
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: "Google", InputPerMillion: 0.30, OutputPerMillion: 2.50, CachedInputPerMillion: 0.03},
			{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: "Google", InputPerMillion: 1.25, OutputPerMillion: 10.00, CachedInputPerMillion: 0.125},
		},
	},
	{
		ID:           "ollama",
		Name:         "Ollama (Local)",
		BaseURL:      "http://localhost:11434/v1",
		DefaultModel: "llama3.3",
		Models: []Entry{
			{ID: "local", Name: "Local Model", Provider: "Ollama"},
		},
	},
}

// estimator is the line-up compared by the cost projector.
var estimator = []Entry{
	{ID: "local", Name: "Local (Ollama)", Provider: "Ollama", Color: "#4ade80", Badge: "Free"},
	{ID: "deepseek", Name: "DeepSeek V3.2", Provider: "DeepSeek", InputPerMillion: 0.28, OutputPerMillion: 0.42, CachedInputPerMillion: 0.028, Color: "#60a5fa", Badge: "Budget King", Editable: true},
	{ID: "gemini", Name: "Gemini 2.5 Flash", Provider: "Google", InputPerMillion: 0.30, OutputPerMillion: 2.50, CachedInputPerMillion: 0.03, Color: "#f472b6", Badge: "Google Fast", Editable: true},
	{ID: "gpt4", Name: "GPT-4.1", Provider: "OpenAI", InputPerMillion: 2.00, OutputPerMillion: 8.00, CachedInputPerMillion: 0.50, Color: "#c084fc", Badge: "Standard", Editable: true},
	{ID: "claude", Name: "Claude Sonnet 4.5", Provider: "Anthropic", InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedInputPerMillion: 0.30, Color: "#fb923c", Badge: "Anthropic", Editable: true},
	{ID: "custom", Name: "Custom / Other", Provider: "User Defined", InputPerMillion: 1.00, OutputPerMillion: 2.00, CachedInputPerMillion: 0.10, Color: "#94a3b8", Badge: "Custom", Editable: true},
}

// Estimator returns a copy of the models compared by the cost projector.
func Estimator() []Entry {
	return slices.Clone(estimator)
}

// Lookup finds an estimator entry by ID, falling back to the provider model
// table. Lookups are case insensitive.
func Lookup(id string) (Entry, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, e := range estimator {
		if e.ID == id {
			return e, true
		}
	}
	for _, p := range providers {
		for _, m := range p.Models {
			if m.ID == id {
				m.Editable = true
				return m, true
			}
		}
	}
	return Entry{}, false
}

// Providers returns a copy of the provider table.
func Providers() []Provider {
	out := make([]Provider, len(providers))
	for i, p := range providers {
		p.Models = slices.Clone(p.Models)
		out[i] = p
	}
	return out
}

// ProviderByID finds a provider by its identifier.
func ProviderByID(id string) (Provider, bool) {
	for _, p := range Providers() {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// Override is a user supplied replacement for an entry's rates.
type Override struct {
	Input  float64 `yaml:"input" json:"input"`
	Output float64 `yaml:"output" json:"output"`
}

// Apply returns entries with the overrides for their IDs applied.
func Apply(entries []Entry, overrides map[string]Override) []Entry {
	out := slices.Clone(entries)
	for i, e := range out {
		if o, ok := overrides[e.ID]; ok {
			out[i] = e.WithRates(o.Input, o.Output)
		}
	}
	return out
}
