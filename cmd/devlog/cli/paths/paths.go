// Package paths defines the repository layout the devlog tooling operates on
// and resolves repository-relative paths to absolute ones.
package paths

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Repository-relative locations owned or checked by the devlog tooling.
const (
	DevlogDir       = "_rules/_devlog"
	IndexFile       = "_rules/_devlog/_index.md"
	PromptFile      = "_rules/_devlog/_generate-devlog.md"
	LogsDir         = "_rules/_devlog/.logs"
	SettingsFile    = "_rules/_devlog/settings.json"
	BeadsDir        = ".beads"
	IssuesSidecar   = ".beads/issues.jsonl"
	AgentsFile      = "AGENTS.md"
	CursorrulesFile = ".cursorrules"
)

// Agent instruction files in precedence order: the first one that exists is
// the host file for the protocol block.
var AgentFileCandidates = []string{AgentsFile, CursorrulesFile}

// repoRootCache caches the repository root to avoid repeated git commands.
// The cache is keyed by the current working directory to handle directory changes.
var (
	repoRootMu       sync.RWMutex
	repoRootCache    string
	repoRootCacheDir string
)

// RepoRoot returns the git repository root directory.
// Uses 'git rev-parse --show-toplevel' which works from any subdirectory.
// The result is cached per working directory.
// Returns an error if not inside a git repository.
func RepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	repoRootMu.RLock()
	if repoRootCache != "" && repoRootCacheDir == cwd {
		cached := repoRootCache
		repoRootMu.RUnlock()
		return cached, nil
	}
	repoRootMu.RUnlock()

	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", errors.New("not a git repository")
	}

	root := strings.TrimSpace(string(output))

	repoRootMu.Lock()
	repoRootCache = root
	repoRootCacheDir = cwd
	repoRootMu.Unlock()

	return root, nil
}

// ClearRepoRootCache clears the cached repository root.
// This is primarily useful for testing when changing directories.
func ClearRepoRootCache() {
	repoRootMu.Lock()
	repoRootCache = ""
	repoRootCacheDir = ""
	repoRootMu.Unlock()
}

// GitDir returns the git directory for the repository at root by delegating to
// git itself. This handles both regular repositories and worktrees, and
// inherits git's security validation for gitdir references.
func GitDir(root string) (string, error) {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--git-dir")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return "", errors.New("not a git repository")
	}

	gitDir := strings.TrimSpace(string(output))

	// git rev-parse --git-dir returns paths relative to the working directory,
	// so make it absolute if it isn't already.
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}

	return filepath.Clean(gitDir), nil
}

// HooksDir returns the hooks directory for the repository at root.
func HooksDir(root string) (string, error) {
	gitDir, err := GitDir(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "hooks"), nil
}

// In returns the absolute path of a repository-relative path under root.
func In(root, relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(root, filepath.FromSlash(relPath))
}
