// Package hooks installs and upgrades the git lifecycle hooks that keep
// devlogs synced. Ownership of an existing hook file is inferred from a
// signature comment in the script body; files without the signature belong to
// someone else and are never rewritten.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Signature identifies hook scripts installed by this tool. It is checked via
// substring match, not file equality, so upgraded hook bodies still count as
// ours.
const Signature = "# Auto-sync devlogs to beads database"

// HookNames are the git hooks managed by the devlog tooling.
var HookNames = []string{"post-commit", "post-merge"}

// Outcome reports what Install did for a single hook.
type Outcome int

const (
	// Installed means no prior hook file existed and ours was written.
	Installed Outcome = iota
	// Upgraded means a prior hook carried our signature and its body was
	// refreshed (a no-op write still reports Upgraded-with-unchanged, see
	// Changed).
	Upgraded
	// SkippedForeign means a prior hook without our signature was left
	// untouched. This is a warning for the caller, not a failure.
	SkippedForeign
)

func (o Outcome) String() string {
	switch o {
	case Installed:
		return "installed"
	case Upgraded:
		return "upgraded"
	case SkippedForeign:
		return "skipped (foreign hook)"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of installing one hook.
type Result struct {
	Hook    string
	Outcome Outcome
	// Changed is false when the file already had the exact content, so the
	// run was a byte-level no-op.
	Changed bool
}

// Ownership classifies an existing hook file.
type Ownership int

const (
	OwnershipAbsent Ownership = iota
	OwnershipOurs
	OwnershipForeign
)

func (o Ownership) String() string {
	switch o {
	case OwnershipAbsent:
		return "absent"
	case OwnershipOurs:
		return "ours"
	case OwnershipForeign:
		return "foreign"
	default:
		return fmt.Sprintf("ownership(%d)", int(o))
	}
}

// OwnsContent reports whether a hook script body carries our signature.
func OwnsContent(content []byte) bool {
	return strings.Contains(string(content), Signature)
}

// OwnershipOf classifies the hook file at path.
func OwnershipOf(path string) Ownership {
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed from constants
	if err != nil {
		return OwnershipAbsent
	}
	if OwnsContent(data) {
		return OwnershipOurs
	}
	return OwnershipForeign
}

// ScriptBody returns the hook script for a managed hook. cmdPrefix is the
// command used to invoke the devlog binary ("devlog" normally, a go run
// invocation in local dev). The sync runs in the background so the hook never
// delays the commit.
func ScriptBody(cmdPrefix string) string {
	return fmt.Sprintf(`#!/bin/sh
%s
if command -v %s >/dev/null 2>&1; then
    %s sync >/dev/null 2>&1 &
fi
`, Signature, firstWord(cmdPrefix), cmdPrefix)
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// Install writes the hook script for hookName into hooksDir.
//
// Outcomes: Installed (no prior file), Upgraded (prior file is ours; content
// refreshed, byte-identical rewrites are skipped), SkippedForeign (prior file
// lacks the signature and is left untouched).
//
// The write is atomic (temp file then rename) so a hook firing on a
// concurrent commit never observes a half-written, non-executable script.
func Install(hooksDir, hookName, scriptBody string) (Result, error) {
	res := Result{Hook: hookName}

	if err := os.MkdirAll(hooksDir, 0o755); err != nil { //nolint:gosec // hooks dir needs standard permissions
		return res, fmt.Errorf("failed to create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hooksDir, hookName)

	existing, err := os.ReadFile(hookPath) //nolint:gosec // path is constructed from constants
	switch {
	case err == nil && !OwnsContent(existing):
		res.Outcome = SkippedForeign
		return res, nil
	case err == nil:
		res.Outcome = Upgraded
		if string(existing) == scriptBody {
			return res, nil
		}
	case os.IsNotExist(err):
		res.Outcome = Installed
	default:
		return res, fmt.Errorf("failed to read hook %s: %w", hookName, err)
	}

	if err := writeExecutableAtomic(hookPath, scriptBody); err != nil {
		return res, fmt.Errorf("failed to install %s hook: %w", hookName, err)
	}
	res.Changed = true
	return res, nil
}

// writeExecutableAtomic writes content to path with mode 0755 via a temp file
// in the same directory followed by a rename.
func writeExecutableAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup on the error paths

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o755); err != nil { //nolint:gosec // git hooks require executable permissions
		tmp.Close() //nolint:errcheck,gosec // chmod error takes precedence
		return fmt.Errorf("setting executable bit: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
