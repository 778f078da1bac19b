package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"
	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/getclawkit/clawkit/internal/agentconfig"
	"github.com/getclawkit/clawkit/internal/probe"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type configOptions struct {
	provider    string
	model       string
	baseURL     string
	apiKey      string
	logLevel    string
	dataPath    string
	targetOS    string
	format      string
	set         []string
	interactive bool
	copy        bool
	test        bool
	write       bool
	timeout     time.Duration
}

func newConfigCmd() *cobra.Command {
	opts := configOptions{targetOS: config.TargetOS, format: string(agentconfig.JSON)}
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate the configuration file of an OpenClaw agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := buildRecord(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			if opts.interactive {
				if err := runConfigForm(&rec); err != nil {
					return clawError{err, "Could not run the config form."}
				}
			}
			var tested *probe.Result
			if opts.test {
				res, err := testConfig(cmd.Context(), &rec, opts, newConnTester(opts.timeout))
				if err != nil {
					return err
				}
				tested = &res
			}
			if err := emitConfig(rec, opts); err != nil {
				return err
			}
			if tested != nil && !tested.OK() && !tested.Warning() {
				return clawError{newUserErrorf("%s", tested.Message), "The connection test failed."}
			}
			return nil
		},
	}

	opts.bind(cmd.Flags())
	return cmd
}

func (o *configOptions) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&o.provider, "provider", "p", "", stdoutStyles().FlagDesc.Render("Provider preset: "+xstrings.EnglishJoin(agentconfig.PresetIDs(), true)+"."))
	flags.StringVar(&o.model, "model", "", stdoutStyles().FlagDesc.Render("Model name."))
	flags.StringVar(&o.baseURL, "base-url", "", stdoutStyles().FlagDesc.Render("API base URL."))
	flags.StringVar(&o.apiKey, "api-key", "", stdoutStyles().FlagDesc.Render("API key."))
	flags.StringVar(&o.logLevel, "log-level", "", stdoutStyles().FlagDesc.Render("Agent log level."))
	flags.StringVar(&o.dataPath, "data-path", "", stdoutStyles().FlagDesc.Render("Agent data directory."))
	flags.StringVar(&o.targetOS, "os", o.targetOS, stdoutStyles().FlagDesc.Render("Target system: unix or windows."))
	flags.StringVarP(&o.format, "format", "f", o.format, stdoutStyles().FlagDesc.Render("Output format: json or yaml."))
	flags.StringArrayVar(&o.set, "set", nil, stdoutStyles().FlagDesc.Render("Set any field, as field=value."))
	flags.BoolVarP(&o.interactive, "interactive", "i", false, stdoutStyles().FlagDesc.Render("Fill the config in a form."))
	flags.BoolVarP(&o.copy, "copy", "c", false, stdoutStyles().FlagDesc.Render("Copy the result to the clipboard."))
	flags.BoolVarP(&o.test, "test", "t", false, stdoutStyles().FlagDesc.Render("Test the connection to the provider."))
	flags.BoolVarP(&o.write, "write", "w", false, stdoutStyles().FlagDesc.Render("Write the result to ~/.openclaw."))
	flags.Var(newDurationFlag(config.ProbeTimeout, &o.timeout), "timeout", stdoutStyles().FlagDesc.Render(help["probe-timeout"]))
}

// buildRecord applies the preset, then the individual flags, then --set.
func buildRecord(flags *pflag.FlagSet, opts configOptions) (agentconfig.Record, error) {
	rec := agentconfig.New()
	if opts.provider != "" && !rec.ApplyPreset(strings.ToLower(opts.provider)) {
		return rec, clawError{
			newUserErrorf("unknown provider %q", opts.provider),
			"Pick one of " + xstrings.EnglishJoin(agentconfig.PresetIDs(), true) + ".",
		}
	}

	for flag, field := range map[string]agentconfig.Field{
		"model":     agentconfig.FieldModel,
		"base-url":  agentconfig.FieldBaseURL,
		"api-key":   agentconfig.FieldAPIKey,
		"log-level": agentconfig.FieldLogLevel,
		"data-path": agentconfig.FieldDataPath,
	} {
		if flags.Changed(flag) {
			v, _ := flags.GetString(flag)
			rec.Set(field, v)
		}
	}

	for _, kv := range opts.set {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return rec, clawError{newUserErrorf("invalid --set %q", kv), "Use field=value."}
		}
		f, err := agentconfig.ParseField(k)
		if err != nil {
			return rec, clawError{err, "Unknown config field."}
		}
		rec.Set(f, v)
	}
	return rec, nil
}

func runConfigForm(rec *agentconfig.Record) error {
	provider := rec.LLM.Provider
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Provider").
			Options(huh.NewOptions(agentconfig.PresetIDs()...)...).
			Value(&provider),
	)).Run(); err != nil {
		return err //nolint:wrapcheck
	}
	if provider != rec.LLM.Provider {
		rec.ApplyPreset(provider)
	}

	return huh.NewForm(huh.NewGroup( //nolint:wrapcheck
		huh.NewInput().Title("Model").Value(&rec.LLM.Model),
		huh.NewInput().Title("Base URL").Value(&rec.LLM.BaseURL),
		huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(&rec.LLM.APIKey),
		huh.NewSelect[string]().
			Title("Log level").
			Options(huh.NewOptions("debug", "info", "warn", "error")...).
			Value(&rec.System.LogLevel),
		huh.NewInput().Title("Data path").Value(&rec.System.DataPath),
	)).Run()
}

func emitConfig(rec agentconfig.Record, opts configOptions) error {
	target, err := agentconfig.ParseOS(opts.targetOS)
	if err != nil {
		return clawError{err, "Invalid target system."}
	}
	format, err := agentconfig.ParseFormat(opts.format)
	if err != nil {
		return clawError{err, "Invalid output format."}
	}
	content, err := rec.Render(target, format)
	if err != nil {
		return clawError{err, "Could not render the config."}
	}

	fmt.Print(content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Println()
	}
	printValidation(os.Stderr, stderrStyles(), rec.Validate())

	if opts.copy {
		if err := clipboard.WriteAll(content); err != nil {
			return clawError{err, "Could not copy to the clipboard."}
		}
		fmt.Fprintln(os.Stderr, stderrStyles().Success.Render("Copied to clipboard."))
	}

	if opts.write {
		path, err := writeAgentConfig(content, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Wrote config file to:", stderrStyles().Link.Render(path))
	}
	return nil
}

// connTester runs connection tests and only reports the one matching the
// config as last edited.
type connTester struct {
	tracker probe.Tracker
	prober  *probe.Prober
}

func newConnTester(timeout time.Duration) *connTester {
	p := probe.New()
	p.Timeout = timeout
	return &connTester{prober: p}
}

// test reports false when an edit or a newer test superseded the result.
func (c *connTester) test(ctx context.Context, llm agentconfig.LLM) (probe.Result, bool, error) {
	res, err := waitFor(ctx, " Testing connection", func(ctx context.Context) probe.Result {
		res, _ := c.tracker.Run(ctx, c.prober, llm)
		return res
	})
	if err != nil {
		c.tracker.Reset()
		return res, false, err
	}
	latest, ok := c.tracker.Latest()
	return res, ok && latest.Seq == res.Seq, nil
}

// edited drops whatever result belonged to the previous values.
func (c *connTester) edited() { c.tracker.Reset() }

// testConfig tests the connection. With --interactive a failed test offers
// to edit the provider fields and test again.
func testConfig(ctx context.Context, rec *agentconfig.Record, opts configOptions, c *connTester) (probe.Result, error) {
	for {
		res, latest, err := c.test(ctx, rec.LLM)
		if err != nil {
			return res, err
		}
		if latest {
			fmt.Fprintln(os.Stderr, probeLine(stderrStyles(), res))
		}
		if res.OK() || !opts.interactive {
			return res, nil
		}

		again := true
		if err := huh.NewConfirm().
			Title("Edit the provider settings and test again?").
			Value(&again).
			Run(); err != nil {
			return res, clawError{err, "Could not run the config form."}
		}
		if !again {
			return res, nil
		}
		c.edited()
		if err := runConfigForm(rec); err != nil {
			return res, clawError{err, "Could not run the config form."}
		}
	}
}

func printValidation(w io.Writer, s styles, errs agentconfig.Errors) {
	for _, f := range errs.Fields() {
		fmt.Fprintf(w, "%s %s %s\n", s.Warning.Render("!"), s.Flag.Render(string(f)), s.Comment.Render(errs[f]))
	}
}

func probeLine(s styles, res probe.Result) string {
	switch {
	case res.OK():
		return s.Success.Render("✓ " + res.Message)
	case res.Warning():
		return s.Warning.Render("! " + res.Message)
	default:
		return s.Failure.Render("✗ " + res.Message)
	}
}

func writeAgentConfig(content string, format agentconfig.Format) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", clawError{err, "Could not find your home directory."}
	}
	dir := filepath.Join(home, ".openclaw")
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd
		return "", clawError{err, "Could not create " + dir + "."}
	}
	path := filepath.Join(dir, format.FileName())
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil { //nolint:mnd
		return "", clawError{err, "Could not write the config file."}
	}
	return path, nil
}
