package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"github.com/getclawkit/clawkit/internal/cost"
	"github.com/getclawkit/clawkit/internal/doctor"
	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/getclawkit/clawkit/internal/probe"
	"github.com/getclawkit/clawkit/internal/status"
	"github.com/joho/godotenv"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var help = map[string]string{
	"database":       "Skill catalog database: a SQLite file path or a postgres:// URL.",
	"cache-path":     "Directory for cached status snapshots.",
	"feed":           "Default skills feed for sync: a file path, file:// or http(s):// URL.",
	"listen-addr":    "Address the API server listens on.",
	"sync-api-key":   "Bearer key accepted by the sync endpoint. Sync is disabled when empty.",
	"agent-url":      "Local agent address checked by the doctor.",
	"probe-timeout":  "Timeout of the connection test.",
	"status-ttl":     "How long a status snapshot is reused.",
	"target-os":      "Default target system of generated configs (unix, windows).",
	"log-level":      "Log level of long running commands (debug, info, warn, error).",
	"cost":           "Default inputs of the cost projector.",
	"prices":         "Override the per-million token rates of editable models.",
	"json":           "Print machine readable JSON.",
	"reset-settings": "Backup your old settings file and reset everything to the defaults.",
	"version":        "Show version and exit.",
	"help":           "Show help and exit.",
}

// Config holds the main configuration and is mapped to the YAML settings file.
type Config struct {
	Database     string                      `yaml:"database" env:"DATABASE"`
	CachePath    string                      `yaml:"cache-path" env:"CACHE_PATH"`
	Feed         string                      `yaml:"feed" env:"FEED"`
	ListenAddr   string                      `yaml:"listen-addr" env:"LISTEN_ADDR"`
	SyncAPIKey   string                      `yaml:"sync-api-key" env:"SYNC_API_KEY"`
	AgentURL     string                      `yaml:"agent-url" env:"AGENT_URL"`
	ProbeTimeout time.Duration               `yaml:"probe-timeout" env:"PROBE_TIMEOUT"`
	StatusTTL    time.Duration               `yaml:"status-ttl" env:"STATUS_TTL"`
	TargetOS     string                      `yaml:"target-os" env:"TARGET_OS"`
	LogLevel     string                      `yaml:"log-level" env:"LOG_LEVEL"`
	Cost         cost.Params                 `yaml:"cost" envPrefix:"COST_"`
	Prices       map[string]pricing.Override `yaml:"prices"`

	SettingsPath  string `yaml:"-"`
	ResetSettings bool   `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Feed:         filepath.Join("data", "skills.json"),
		ListenAddr:   ":8080",
		AgentURL:     doctor.DefaultAgentURL,
		ProbeTimeout: probe.DefaultTimeout,
		StatusTTL:    status.DefaultTTL,
		TargetOS:     "unix",
		LogLevel:     "info",
		Cost:         cost.DefaultParams(),
	}
}

// models returns the cost projector line-up with the price overrides of the
// settings applied.
func (c Config) models() []pricing.Entry {
	return pricing.Apply(pricing.Estimator(), c.Prices)
}

func ensureConfig() (Config, error) {
	c := defaultConfig()
	sp, err := xdg.ConfigFile(filepath.Join("clawkit", "clawkit.yml"))
	if err != nil {
		return c, clawError{err, "Could not find settings path."}
	}
	c.SettingsPath = sp

	dir := filepath.Dir(sp)
	if dirErr := os.MkdirAll(dir, 0o700); dirErr != nil { //nolint:mnd
		return c, clawError{dirErr, "Could not create cache directory."}
	}

	if dirErr := writeConfigFile(sp); dirErr != nil {
		return c, dirErr
	}
	content, err := os.ReadFile(sp)
	if err != nil {
		return c, clawError{err, "Could not read settings file."}
	}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return c, clawError{err, "Could not parse settings file."}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, clawError{err, "Could not load .env file."}
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: "CLAWKIT_"}); err != nil {
		return c, clawError{err, "Could not parse environment into settings file."}
	}

	if c.Database == "" {
		c.Database = filepath.Join(xdg.DataHome, "clawkit", "skills.db")
	}
	if c.CachePath == "" {
		c.CachePath = filepath.Join(xdg.CacheHome, "clawkit")
	}
	if err := os.MkdirAll(c.CachePath, 0o700); err != nil { //nolint:mnd
		return c, clawError{err, "Could not create cache directory."}
	}

	return c, nil
}

func writeConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return clawError{err, "Could not stat path."}
	}
	return nil
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.Create(path)
	if err != nil {
		return clawError{err, "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct {
		Config Config
		Help   map[string]string
	}{
		Config: defaultConfig(),
		Help:   help,
	}
	if err := tmpl.Execute(f, m); err != nil {
		return clawError{err, "Could not render template."}
	}
	return nil
}

func resetSettings() error {
	_, err := os.Stat(config.SettingsPath)
	if err != nil {
		return clawError{err, "Couldn't read config file."}
	}
	inputFile, err := os.Open(config.SettingsPath)
	if err != nil {
		return clawError{err, "Couldn't open config file."}
	}
	defer inputFile.Close() //nolint:errcheck
	outputFile, err := os.Create(config.SettingsPath + ".bak")
	if err != nil {
		return clawError{err, "Couldn't backup config file."}
	}
	defer outputFile.Close() //nolint:errcheck
	if _, err := outputFile.ReadFrom(inputFile); err != nil {
		return clawError{err, "Couldn't write config file."}
	}
	// The copy was successful, so now delete the original file
	if err := os.Remove(config.SettingsPath); err != nil {
		return clawError{err, "Couldn't remove config file."}
	}
	if err := writeConfigFile(config.SettingsPath); err != nil {
		return clawError{err, "Couldn't write new config file."}
	}
	fmt.Fprintln(os.Stderr, "\n  Settings restored to defaults!")
	fmt.Fprintf(os.Stderr,
		"\n  %s %s\n\n",
		stderrStyles().Comment.Render("Your old settings have been saved to:"),
		stderrStyles().Link.Render(config.SettingsPath+".bak"),
	)
	return nil
}

func useLine() string {
	appName := filepath.Base(os.Args[0])

	if stdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = makeGradientText(stdoutStyles().AppName, appName)
	}

	return fmt.Sprintf(
		"%s %s",
		appName,
		stdoutStyles().CliArgs.Render("[COMMAND] [OPTIONS]"),
	)
}

func usageFunc(cmd *cobra.Command) error {
	fmt.Printf("%s\n\n", cmd.Short)
	fmt.Printf(
		"Usage:\n  %s\n\n",
		useLine(),
	)
	if cmd.HasAvailableSubCommands() {
		fmt.Println("Commands:")
		for _, c := range cmd.Commands() {
			if !c.IsAvailableCommand() {
				continue
			}
			fmt.Printf(
				"  %-22s %s\n",
				stdoutStyles().Flag.Render(c.Name()),
				stdoutStyles().FlagDesc.Render(c.Short),
			)
		}
		fmt.Println()
	}
	fmt.Println("Options:")
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Printf(
				"  %-44s %s\n",
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		} else {
			fmt.Printf(
				"  %s%s %-40s %s\n",
				stdoutStyles().Flag.Render("-"+f.Shorthand),
				stdoutStyles().FlagComma,
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		}
	})
	desc, example := randomExample()
	fmt.Printf(
		"\nExample:\n  %s\n  %s\n",
		stdoutStyles().Comment.Render("# "+desc),
		cheapHighlighting(stdoutStyles(), example),
	)

	return nil
}
