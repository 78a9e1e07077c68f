package paths

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
)

func TestRepoRoot(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := git.PlainInit(tmpDir, false); err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	t.Chdir(tmpDir)
	ClearRepoRootCache()

	root, err := RepoRoot()
	if err != nil {
		t.Fatalf("RepoRoot() error = %v", err)
	}
	// Compare resolved paths: t.TempDir may sit behind a symlink while
	// git reports the physical path.
	wantResolved, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	gotResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}
	if gotResolved != wantResolved {
		t.Errorf("RepoRoot() = %q, want %q", gotResolved, wantResolved)
	}
}

func TestRepoRoot_NotARepository(t *testing.T) {
	t.Chdir(t.TempDir())
	ClearRepoRootCache()

	if _, err := RepoRoot(); err == nil {
		t.Error("expected error outside a git repository")
	}
}

func TestHooksDir(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := git.PlainInit(tmpDir, false); err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	hooksDir, err := HooksDir(tmpDir)
	if err != nil {
		t.Fatalf("HooksDir() error = %v", err)
	}
	if filepath.Base(hooksDir) != "hooks" {
		t.Errorf("HooksDir() = %q, want a .../hooks path", hooksDir)
	}
	if !strings.Contains(hooksDir, ".git") {
		t.Errorf("HooksDir() = %q, expected it under the git dir", hooksDir)
	}
}

func TestIn(t *testing.T) {
	got := In("/repo", IndexFile)
	want := filepath.Join("/repo", "_rules", "_devlog", "_index.md")
	if got != want {
		t.Errorf("In() = %q, want %q", got, want)
	}

	// Absolute paths pass through untouched.
	if got := In("/repo", "/abs/path"); got != "/abs/path" {
		t.Errorf("In() = %q, want /abs/path", got)
	}
}
