package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/getclawkit/clawkit/internal/agentconfig"
	"github.com/getclawkit/clawkit/internal/probe"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func parseConfigFlags(t *testing.T, args ...string) (*pflag.FlagSet, configOptions) {
	t.Helper()
	opts := configOptions{targetOS: "unix", format: "json"}
	flags := pflag.NewFlagSet("config", pflag.ContinueOnError)
	opts.bind(flags)
	require.NoError(t, flags.Parse(args))
	return flags, opts
}

func TestBuildRecord(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rec, err := buildRecord(parseConfigFlags(t))
		require.NoError(t, err)
		require.Equal(t, agentconfig.New(), rec)
	})

	t.Run("preset and flags", func(t *testing.T) {
		rec, err := buildRecord(parseConfigFlags(t,
			"--provider", "DeepSeek",
			"--api-key", "sk-123",
			"--model", "deepseek-reasoner",
		))
		require.NoError(t, err)
		require.Equal(t, "deepseek", rec.LLM.Provider)
		require.Equal(t, "https://api.deepseek.com", rec.LLM.BaseURL)
		require.Equal(t, "deepseek-reasoner", rec.LLM.Model)
		require.Equal(t, "sk-123", rec.LLM.APIKey)
		require.True(t, rec.Complete())
	})

	t.Run("set wins over flags", func(t *testing.T) {
		rec, err := buildRecord(parseConfigFlags(t,
			"--data-path", "/srv/agent",
			"--set", "data-path=/opt/agent",
			"--set", "system.log_level=debug",
		))
		require.NoError(t, err)
		require.Equal(t, "/opt/agent", rec.System.DataPath)
		require.Equal(t, "debug", rec.System.LogLevel)
	})

	t.Run("empty flag clears the field", func(t *testing.T) {
		rec, err := buildRecord(parseConfigFlags(t, "--base-url", ""))
		require.NoError(t, err)
		require.Empty(t, rec.LLM.BaseURL)
		require.Contains(t, rec.Validate(), agentconfig.FieldBaseURL)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := buildRecord(parseConfigFlags(t, "--provider", "cohere"))
		var cerr clawError
		require.ErrorAs(t, err, &cerr)
		require.Contains(t, cerr.Reason(), "openai")
	})

	t.Run("bad set", func(t *testing.T) {
		_, err := buildRecord(parseConfigFlags(t, "--set", "model"))
		require.Error(t, err)
		_, err = buildRecord(parseConfigFlags(t, "--set", "llm.temperature=1"))
		require.Error(t, err)
	})
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	s := makeStyles(lipgloss.NewRenderer(&buf))
	rec := agentconfig.New()
	printValidation(&buf, s, rec.Validate())
	require.Equal(t, "! llm.apiKey "+agentconfig.MsgAPIKeyRequired+"\n", buf.String())
}

func TestProbeLine(t *testing.T) {
	s := makeStyles(lipgloss.NewRenderer(&bytes.Buffer{}))
	require.Equal(t, "✓ ok", probeLine(s, probe.Result{Status: probe.StatusOK, Message: "ok"}))
	require.Equal(t, "! down", probeLine(s, probe.Result{Status: probe.StatusUnreachable, Message: "down"}))
	require.Equal(t, "✗ nope", probeLine(s, probe.Result{Status: probe.StatusAuthFailed, Message: "nope"}))
}

func TestWriteAgentConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := writeAgentConfig("{}\n", agentconfig.YAML)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".openclaw", "config.yaml"), path)
	bts, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(bts))
}

func TestConfigTimeoutFlag(t *testing.T) {
	_, opts := parseConfigFlags(t)
	require.Equal(t, config.ProbeTimeout, opts.timeout)

	_, opts = parseConfigFlags(t, "--timeout", "90s")
	require.Equal(t, 90*time.Second, opts.timeout)
}

func TestConnTester(t *testing.T) {
	var code atomic.Int32
	code.Store(http.StatusUnauthorized)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(code.Load()))
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	t.Cleanup(srv.Close)

	rec := agentconfig.New()
	rec.ApplyPreset("deepseek")
	rec.LLM.BaseURL = srv.URL + "/v1"
	rec.LLM.APIKey = "sk-test"

	c := newConnTester(time.Second)
	first, err := testConfig(context.Background(), &rec, configOptions{}, c)
	require.NoError(t, err)
	require.Equal(t, probe.StatusAuthFailed, first.Status)
	latest, ok := c.tracker.Latest()
	require.True(t, ok)
	require.Equal(t, first.Seq, latest.Seq)

	c.edited()
	_, ok = c.tracker.Latest()
	require.False(t, ok, "editing drops the previous result")

	code.Store(http.StatusOK)
	res, current, err := c.test(context.Background(), rec.LLM)
	require.NoError(t, err)
	require.True(t, current)
	require.True(t, res.OK())
	require.Greater(t, res.Seq, first.Seq)
}
