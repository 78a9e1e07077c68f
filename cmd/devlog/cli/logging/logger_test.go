package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesJSONToLogFile(t *testing.T) {
	logsDir := t.TempDir()

	if err := Init(logsDir, "info"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Info("hello", "key", "value")
	Close()

	data, err := os.ReadFile(filepath.Join(logsDir, LogFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"msg":"hello"`) {
		t.Errorf("log line missing message: %s", content)
	}
	if !strings.Contains(content, `"key":"value"`) {
		t.Errorf("log line missing attribute: %s", content)
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	logsDir := t.TempDir()

	if err := Init(logsDir, "warn"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Info("too quiet")
	Warn("loud enough")
	Close()

	data, err := os.ReadFile(filepath.Join(logsDir, LogFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "too quiet") {
		t.Error("info line logged at warn level")
	}
	if !strings.Contains(content, "loud enough") {
		t.Error("warn line missing")
	}
}

func TestInit_EnvVarOverridesLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	logsDir := t.TempDir()

	if err := Init(logsDir, "error"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Debug("env wins")
	Close()

	data, err := os.ReadFile(filepath.Join(logsDir, LogFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "env wins") {
		t.Error("DEVLOG_LOG_LEVEL did not override the configured level")
	}
}

func TestClose_SafeWithoutInit(t *testing.T) {
	Close()
	Close()
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"Warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
