// Package agentconfig builds the configuration file read by an OpenClaw
// agent.
package agentconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/getclawkit/clawkit/internal/pricing"
)

// LLM is the model provider section of the configuration.
type LLM struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"baseUrl" yaml:"base_url"`
	APIKey   string `json:"apiKey" yaml:"api_key"`
}

// System holds the agent runtime settings.
type System struct {
	LogLevel string `json:"logLevel" yaml:"log_level"`
	DataPath string `json:"dataPath" yaml:"data_path"`
}

// Record is a complete agent configuration.
type Record struct {
	LLM    LLM    `json:"llm" yaml:"llm"`
	System System `json:"system" yaml:"system"`
}

// Defaults for the system section.
const (
	DefaultLogLevel = "info"
	DefaultDataPath = "~/.openclaw/data"
)

// ollamaKey is a placeholder, Ollama ignores the key but the agent requires
// one.
const ollamaKey = "ollama"

// New returns a record holding the OpenAI preset and the default system
// settings.
func New() Record {
	r := Record{
		System: System{
			LogLevel: DefaultLogLevel,
			DataPath: DefaultDataPath,
		},
	}
	r.ApplyPreset("openai")
	return r
}

// Preset returns the llm section for a known provider.
func Preset(providerID string) (LLM, bool) {
	p, ok := pricing.ProviderByID(providerID)
	if !ok {
		return LLM{}, false
	}
	llm := LLM{
		Provider: p.ID,
		Model:    p.DefaultModel,
		BaseURL:  p.BaseURL,
	}
	if p.ID == "ollama" {
		llm.APIKey = ollamaKey
	}
	return llm, true
}

// PresetIDs lists the providers ApplyPreset accepts.
func PresetIDs() []string {
	providers := pricing.Providers()
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID)
	}
	return ids
}

// ApplyPreset replaces the llm section with the preset of the given
// provider. Unknown providers leave the record untouched and return false.
func (r *Record) ApplyPreset(providerID string) bool {
	llm, ok := Preset(providerID)
	if !ok {
		return false
	}
	r.LLM = llm
	return true
}

// Field names a single configurable value.
type Field string

// Fields of a record, named by their path in the rendered file.
const (
	FieldProvider Field = "llm.provider"
	FieldModel    Field = "llm.model"
	FieldBaseURL  Field = "llm.baseUrl"
	FieldAPIKey   Field = "llm.apiKey"
	FieldLogLevel Field = "system.logLevel"
	FieldDataPath Field = "system.dataPath"
)

var fields = []Field{
	FieldProvider,
	FieldModel,
	FieldBaseURL,
	FieldAPIKey,
	FieldLogLevel,
	FieldDataPath,
}

// Fields returns every field in file order.
func Fields() []Field {
	return slices.Clone(fields)
}

// ParseField maps user input like "llm.model" or "base-url" onto a field.
// Matching ignores case, dashes and underscores, and the section may be
// omitted.
func ParseField(s string) (Field, error) {
	want := normalizeField(s)
	for _, f := range fields {
		full := normalizeField(string(f))
		_, key, _ := strings.Cut(full, ".")
		if want == full || want == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

func normalizeField(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

// Get returns the value of a field.
func (r Record) Get(f Field) string {
	switch f {
	case FieldProvider:
		return r.LLM.Provider
	case FieldModel:
		return r.LLM.Model
	case FieldBaseURL:
		return r.LLM.BaseURL
	case FieldAPIKey:
		return r.LLM.APIKey
	case FieldLogLevel:
		return r.System.LogLevel
	case FieldDataPath:
		return r.System.DataPath
	}
	return ""
}

// Set overwrites a single field. No validation happens here, see Validate.
func (r *Record) Set(f Field, value string) {
	switch f {
	case FieldProvider:
		r.LLM.Provider = value
	case FieldModel:
		r.LLM.Model = value
	case FieldBaseURL:
		r.LLM.BaseURL = value
	case FieldAPIKey:
		r.LLM.APIKey = value
	case FieldLogLevel:
		r.System.LogLevel = value
	case FieldDataPath:
		r.System.DataPath = value
	}
}
