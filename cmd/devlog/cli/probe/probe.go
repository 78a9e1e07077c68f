// Package probe inspects a working tree and reports how much of the devlog
// structure is already in place. Probing is read-only; it never mutates the
// tree and never fails just because something is missing.
package probe

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/hooks"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/paths"
)

// ErrNotARepository is returned by operations that require version control
// when the working tree has no git metadata. Probing itself never returns it;
// it simply reports HasVcs=false.
var ErrNotARepository = errors.New("not a git repository")

// AgentFileKind identifies which agent instruction file hosts the protocol
// block.
type AgentFileKind int

const (
	AgentFileNone AgentFileKind = iota
	AgentFileAgentsMD
	AgentFileCursorrules
)

func (k AgentFileKind) String() string {
	switch k {
	case AgentFileAgentsMD:
		return paths.AgentsFile
	case AgentFileCursorrules:
		return paths.CursorrulesFile
	default:
		return "none"
	}
}

// RepositoryState is an immutable snapshot of one probe. It is built fresh per
// invocation and superseded by re-probing after a mutation, never updated in
// place.
type RepositoryState struct {
	Root string

	HasVcs              bool
	DevlogDirExists     bool
	IndexExists         bool
	PromptExists        bool
	IssuesSidecarExists bool

	AgentFileKind AgentFileKind
	// AgentFilePath is the repository-relative path of the detected agent
	// file, empty when AgentFileKind is AgentFileNone.
	AgentFilePath string

	// HookOwnership maps each managed hook name to its ownership state.
	HookOwnership map[string]hooks.Ownership
}

// HooksPresent lists the managed hooks that exist on disk, in managed order.
func (s RepositoryState) HooksPresent() []string {
	var present []string
	for _, name := range hooks.HookNames {
		if s.HookOwnership[name] != hooks.OwnershipAbsent {
			present = append(present, name)
		}
	}
	return present
}

// Probe inspects the working tree at root and returns its state.
//
// AGENTS.md is checked before .cursorrules; when both exist the first match
// wins and all later mutations target it.
func Probe(root string) RepositoryState {
	state := RepositoryState{
		Root:          root,
		HookOwnership: make(map[string]hooks.Ownership, len(hooks.HookNames)),
	}

	// go-git validates the repository shape rather than just stat'ing .git,
	// so a stray empty .git directory does not count as version control.
	if _, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{}); err == nil {
		state.HasVcs = true
	}

	state.DevlogDirExists = dirExists(paths.In(root, paths.DevlogDir))
	state.IndexExists = fileExists(paths.In(root, paths.IndexFile))
	state.PromptExists = fileExists(paths.In(root, paths.PromptFile))
	state.IssuesSidecarExists = fileExists(paths.In(root, paths.IssuesSidecar))

	for _, candidate := range paths.AgentFileCandidates {
		if fileExists(paths.In(root, candidate)) {
			state.AgentFilePath = candidate
			switch candidate {
			case paths.AgentsFile:
				state.AgentFileKind = AgentFileAgentsMD
			case paths.CursorrulesFile:
				state.AgentFileKind = AgentFileCursorrules
			}
			break
		}
	}

	if state.HasVcs {
		if hooksDir, err := paths.HooksDir(root); err == nil {
			for _, name := range hooks.HookNames {
				state.HookOwnership[name] = hooks.OwnershipOf(filepath.Join(hooksDir, name))
			}
		}
	} else {
		for _, name := range hooks.HookNames {
			state.HookOwnership[name] = hooks.OwnershipAbsent
		}
	}

	return state
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
