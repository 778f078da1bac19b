package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"syscall"
)

func checkNode(ctx context.Context, env Env) (Result, error) {
	if env.NodeVersion == nil {
		return Result{}, errors.New("no way to look up the node version")
	}
	version, err := env.NodeVersion(ctx)
	if err != nil {
		return Result{
			Level:   Fail,
			Message: fmt.Sprintf("Node.js not found. Please install Node.js v%d+.", MinNodeMajor),
		}, nil
	}
	major, ok := parseMajor(version)
	switch {
	case !ok:
		return Result{Level: Fail, Message: fmt.Sprintf("Could not read the Node.js version %q.", version)}, nil
	case major < MinNodeMajor:
		return Result{
			Level:   Fail,
			Message: fmt.Sprintf("Node.js %s is too old. Please install Node.js v%d+.", version, MinNodeMajor),
		}, nil
	}
	return Result{Level: Pass, Message: "Node.js found: " + version}, nil
}

// parseMajor reads the major version out of strings like "v20.11.1".
func parseMajor(version string) (int, bool) {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	major, _, _ := strings.Cut(v, ".")
	n, err := strconv.Atoi(major)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func checkConfigDir(_ context.Context, env Env) (Result, error) {
	dir := env.ConfigDir()
	if !exists(dir) {
		return Result{
			Level:   Fail,
			Message: fmt.Sprintf("Config directory missing at %s. Run 'clawhub init' first.", dir),
		}, nil
	}
	return Result{Level: Pass, Message: "Config directory exists at: " + dir}, nil
}

func checkConfigFile(_ context.Context, env Env) (Result, error) {
	if !exists(env.ConfigFile()) {
		return Result{
			Level:   Warn,
			Message: "Config file missing (clawhub.json). Use Config Generator to create one.",
		}, nil
	}
	return Result{Level: Pass, Message: "Config file found (clawhub.json)."}, nil
}

func checkPermissions(_ context.Context, env Env) (Result, error) {
	dir := env.ConfigDir()
	if !exists(dir) {
		return Result{Level: Info, Message: "Skipping permission check (directory missing)."}, nil
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return Result{
			Level:   Fail,
			Message: "No write permission for ~/.openclaw. Fix ownership with: sudo chown -R $(whoami) ~/.openclaw",
		}, nil
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return Result{Level: Pass, Message: "Write permission OK for ~/.openclaw"}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist) && err == nil
}

// agentPort is the port a request to rawURL goes to.
func agentPort(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "?"
	}
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return "?"
}

func checkAgent(ctx context.Context, env Env) (Result, error) {
	port := agentPort(env.AgentURL)

	timeout := env.AgentTimeout
	if timeout <= 0 {
		timeout = DefaultAgentTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.AgentURL, nil)
	if err != nil {
		return Result{Level: Info, Message: "Network check skipped: " + err.Error()}, nil
	}
	client := env.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return Result{Level: Pass, Message: fmt.Sprintf("Local Agent Port (%s) is OPEN.", port)}, nil
	}

	var nerr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return Result{Level: Info, Message: fmt.Sprintf("Port %s is free (Agent not running).", port)}, nil
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &nerr) && nerr.Timeout():
		return Result{Level: Info, Message: "Network check timed out."}, nil
	}
	return Result{Level: Info, Message: "Network check skipped: " + err.Error()}, nil
}
