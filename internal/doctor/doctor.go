// Package doctor diagnoses a machine running an OpenClaw agent.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
)

// Level is the severity of a check result.
type Level int

// Result levels.
const (
	Pass Level = iota
	Warn
	Fail
	Info
)

func (l Level) String() string {
	switch l {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "fail"
	default:
		return "info"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Result is the outcome of a single check.
type Result struct {
	Check   string `json:"check"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Check is one diagnostic step. Expected problems are reported as a
// Result; an error means the check itself could not run.
type Check struct {
	Name string
	Run  func(ctx context.Context, env Env) (Result, error)
}

// Env is what the checks look at.
type Env struct {
	Home         string
	AgentURL     string
	AgentTimeout time.Duration
	HTTPClient   *http.Client

	// NodeVersion returns the output of `node --version`.
	NodeVersion func(ctx context.Context) (string, error)
}

// Defaults for the environment.
const (
	DefaultAgentURL     = "http://localhost:3000"
	DefaultAgentTimeout = 2 * time.Second
	MinNodeMajor        = 18
)

// DefaultEnv inspects the current user and machine.
func DefaultEnv() (Env, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("could not find home directory: %w", err)
	}
	return Env{
		Home:         home,
		AgentURL:     DefaultAgentURL,
		AgentTimeout: DefaultAgentTimeout,
		NodeVersion:  nodeVersion,
	}, nil
}

func nodeVersion(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "node", "--version").Output()
	if err != nil {
		return "", fmt.Errorf("could not run node: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ConfigDir is the agent home directory.
func (e Env) ConfigDir() string {
	return filepath.Join(e.Home, ".openclaw")
}

// ConfigFile is the agent configuration file.
func (e Env) ConfigFile() string {
	return filepath.Join(e.ConfigDir(), "clawhub.json")
}

// Checks returns the diagnostic steps in the order they run.
func Checks() []Check {
	return []Check{
		{Name: "node", Run: checkNode},
		{Name: "config-dir", Run: checkConfigDir},
		{Name: "config-file", Run: checkConfigFile},
		{Name: "permissions", Run: checkPermissions},
		{Name: "agent", Run: checkAgent},
	}
}

// Run runs every check in order. Each result is handed to report as soon
// as it is known. Failing checks do not stop the run; only an unexpected
// error or panic in a check does, and it is returned.
func Run(ctx context.Context, env Env, checks []Check, report func(Result)) ([]Result, error) {
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		res, err := runCheck(ctx, env, c)
		if err != nil {
			return results, fmt.Errorf("%s: %w", c.Name, err)
		}
		res.Check = c.Name
		results = append(results, res)
		if report != nil {
			report(res)
		}
	}
	return results, nil
}

func runCheck(ctx context.Context, env Env, c Check) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return c.Run(ctx, env)
}
