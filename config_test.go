package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfig(t *testing.T) {
	t.Run("template decodes to the defaults", func(t *testing.T) {
		var sb strings.Builder
		tmpl := template.Must(template.New("config").Parse(configTemplate))
		require.NoError(t, tmpl.Execute(&sb, struct {
			Config Config
			Help   map[string]string
		}{defaultConfig(), help}))

		var cfg Config
		require.NoError(t, yaml.Unmarshal([]byte(sb.String()), &cfg))
		require.Equal(t, defaultConfig(), cfg)
		require.NotContains(t, sb.String(), "<no value>")
	})

	t.Run("prices", func(t *testing.T) {
		var cfg Config
		require.NoError(t, yaml.Unmarshal([]byte("prices:\n  custom:\n    input: 4\n    output: 8\n  local:\n    input: 9\n"), &cfg))
		models := cfg.models()
		custom, _ := find(models, "custom")
		require.Equal(t, 4.0, custom.InputPerMillion)
		require.Equal(t, 8.0, custom.OutputPerMillion)
		local, _ := find(models, "local")
		require.True(t, local.Free(), "local is not editable")
	})

	t.Run("ensure", func(t *testing.T) {
		dir := t.TempDir()
		t.Cleanup(xdg.Reload)
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
		t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
		t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
		t.Setenv("CLAWKIT_PROBE_TIMEOUT", "9s")
		t.Setenv("CLAWKIT_COST_DAILY_RUNS", "7")
		xdg.Reload()

		cfg, err := ensureConfig()
		require.NoError(t, err)
		require.FileExists(t, cfg.SettingsPath)
		require.Equal(t, 9*time.Second, cfg.ProbeTimeout)
		require.Equal(t, 7.0, cfg.Cost.DailyRuns)
		require.Equal(t, 10, cfg.Cost.StepsPerRun)
		require.Equal(t, filepath.Join(dir, "data", "clawkit", "skills.db"), cfg.Database)
		require.DirExists(t, cfg.CachePath)

		require.NoError(t, os.WriteFile(cfg.SettingsPath, []byte("log-level: debug\n"), 0o600))
		cfg, err = ensureConfig()
		require.NoError(t, err)
		require.Equal(t, "debug", cfg.LogLevel)
		require.Equal(t, 10, cfg.Cost.StepsPerRun, "missing keys keep their defaults")
	})
}

func find(models []pricing.Entry, id string) (pricing.Entry, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return pricing.Entry{}, false
}
