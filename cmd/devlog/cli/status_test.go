package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunStatus_NotARepository(t *testing.T) {
	setupTestDir(t)

	var stdout bytes.Buffer
	if err := runStatus(&stdout, false); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "not a git repository") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunStatus_NotSetUp(t *testing.T) {
	setupTestRepo(t)

	var stdout bytes.Buffer
	if err := runStatus(&stdout, false); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "not set up") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunStatus_Onboarded(t *testing.T) {
	setupTestRepo(t)

	var onboardOut bytes.Buffer
	if err := runOnboard(&onboardOut, true, false); err != nil {
		t.Fatalf("runOnboard() error = %v", err)
	}

	var stdout bytes.Buffer
	if err := runStatus(&stdout, false); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "devlog onboarded") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunStatus_Detailed(t *testing.T) {
	setupTestRepo(t)

	var onboardOut bytes.Buffer
	if err := runOnboard(&onboardOut, true, false); err != nil {
		t.Fatalf("runOnboard() error = %v", err)
	}

	var stdout bytes.Buffer
	if err := runStatus(&stdout, true); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"devlog directory", "work index", "prompt template", "post-commit hook", "post-merge hook", "AGENTS.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("detailed output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "✗") {
		t.Errorf("detailed output reports a missing component after onboarding:\n%s", out)
	}
}
