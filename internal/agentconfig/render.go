package agentconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OS is the operating system the rendered file is meant for.
type OS string

// Supported target systems.
const (
	Unix    OS = "unix"
	Windows OS = "windows"
)

// ParseOS maps user input onto a target system.
func ParseOS(s string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unix", "linux", "darwin", "macos", "mac", "":
		return Unix, nil
	case "windows", "win":
		return Windows, nil
	}
	return "", fmt.Errorf("unknown target OS %q: use unix or windows", s)
}

// Format is the encoding of the rendered file.
type Format string

// Supported formats. JSON is what current agents read, YAML is the legacy
// config.yaml layout.
const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat maps user input onto a format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown format %q: use json or yaml", s)
}

// FileName is the name the agent looks for in its home directory.
func (f Format) FileName() string {
	if f == YAML {
		return "config.yaml"
	}
	return "clawhub.json"
}

const (
	home        = "~"
	userProfile = "%USERPROFILE%"
)

// NormalizePath rewrites a data path for the target system. On Windows the
// home shorthand becomes %USERPROFILE% and slashes become backslashes; on
// Unix the inverse is applied to paths using %USERPROFILE%.
func NormalizePath(path string, target OS) string {
	if target == Windows {
		if rest, ok := strings.CutPrefix(path, home); ok {
			path = userProfile + rest
		}
		return strings.ReplaceAll(path, "/", `\`)
	}
	if rest, ok := strings.CutPrefix(path, userProfile); ok {
		return home + strings.ReplaceAll(rest, `\`, "/")
	}
	return path
}

// Render encodes the record for the target system. Invalid records render
// too; callers decide whether to warn about Validate errors.
func (r Record) Render(target OS, format Format) (string, error) {
	r.System.DataPath = NormalizePath(r.System.DataPath, target)

	switch format {
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("could not encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("could not encode yaml: %w", err)
		}
		return buf.String(), nil
	case JSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("could not encode json: %w", err)
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}
