// Package settings provides configuration loading for the devlog tooling.
// Settings are optional: a repository without a settings file gets defaults.
// This package is separate from cli so leaf packages can import it without
// creating an import cycle.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/paths"
)

// Settings represents _rules/_devlog/settings.json.
type Settings struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error).
	// Can be overridden by the DEVLOG_LOG_LEVEL environment variable.
	// Defaults to "info".
	LogLevel string `json:"log_level,omitempty"`

	// LocalDev makes the installed hooks invoke the tool via "go run" instead
	// of the devlog binary. Used during development of the tool itself.
	LocalDev bool `json:"local_dev,omitempty"`

	// HookCommand overrides the command the hooks invoke. Defaults to
	// "devlog" (or the go run form when LocalDev is set).
	HookCommand string `json:"hook_command,omitempty"`
}

// HookCommandPrefix returns the command prefix the installed hooks should use.
func (s *Settings) HookCommandPrefix() string {
	if s.HookCommand != "" {
		return s.HookCommand
	}
	if s.LocalDev {
		return "go run ./cmd/devlog/main.go"
	}
	return "devlog"
}

// Load reads the settings file under root, returning defaults when the file
// does not exist.
func Load(root string) (*Settings, error) {
	s := &Settings{LogLevel: "info"}

	data, err := os.ReadFile(paths.In(root, paths.SettingsFile)) //nolint:gosec // path is from constants
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}

	return s, nil
}
