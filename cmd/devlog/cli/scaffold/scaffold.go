// Package scaffold holds the file templates written during onboarding and the
// helpers that lay them down without clobbering anything that already exists.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/paths"
)

// IndexTemplate is the initial devlog index: instruction header plus an empty
// table. The table must stay the very last element of the file; the header
// tells agents so in as many words.
const IndexTemplate = `# Development Log Index

> [!IMPORTANT]
> **AI AGENT INSTRUCTIONS:**
> 1. **APPEND ONLY:** Always add new session rows to the **existing table** at the bottom of this file.
> 2. **NO DUPLICATES:** Never create a new "Work Index" header or a second table.
> 3. **STAY AT BOTTOM:** Ensure the table remains the very last element in this file.

This index provides a concise record of all development work for easy scanning and pattern recognition across sessions.

## Nomenclature Rules:
- **[init]** - Initial setup and scaffolding
- **[feat]** - New features and capabilities
- **[fix]** - Bug fixes and error resolution
- **[refactor]** - Restructuring without behavior change

## Work Index

| Subject | Problems | Date | Devlog |
|---------|----------|------|---------|
`

// PromptTemplate is the prompt used to author a new devlog entry. Onboarding
// refuses to run against a devlog directory that lost it.
const PromptTemplate = `# Generate Devlog Entry

Write a comprehensive development log for this session as
` + "`_rules/_devlog/YYYY-MM-DD_<slug>.md`" + `.

For each problem worked on, record:
- The assumption or plan, stated before acting
- The action taken
- The result, including errors verbatim
- The analysis or correction that followed

Close with a short list of key learnings. Then append exactly one row for the
session to the table at the bottom of ` + "`_rules/_devlog/_index.md`" + `
(Subject, Problems, Date, Devlog link). Never add content below the table.
`

// ProtocolBlockContent is the tool-owned instruction content placed between
// the protocol markers in the agent instructions file.
const ProtocolBlockContent = `## Devlog Protocol

This project keeps a chronological development log in ` + "`_rules/_devlog/`" + `.

- **Before starting work:** scan ` + "`_rules/_devlog/_index.md`" + ` for prior
  sessions touching the same area.
- **At session end:** write a devlog entry using the prompt in
  ` + "`_rules/_devlog/_generate-devlog.md`" + `, then append one row to the
  index table. The table must remain the last element of the index file.
- Issues are tracked in the beads sidecar (` + "`.beads/issues.jsonl`" + `).
- ` + "`devlog sync`" + ` runs automatically from git hooks; run
  ` + "`devlog doctor`" + ` if the index is reported corrupt.`

// AgentsFileHeader is the minimal scaffold written above the protocol block
// when AGENTS.md has to be created from scratch.
const AgentsFileHeader = `# Agent Instructions

`

// EnsureDevlogDir creates the devlog directory.
func EnsureDevlogDir(root string) error {
	if err := os.MkdirAll(paths.In(root, paths.DevlogDir), 0o755); err != nil { //nolint:gosec // project directory needs standard permissions for git
		return fmt.Errorf("failed to create devlog directory: %w", err)
	}
	return nil
}

// EnsureIssuesSidecar creates an empty .beads/issues.jsonl if it is missing.
// The sidecar's contents are owned by the issue tracker; only existence is
// this tool's concern.
func EnsureIssuesSidecar(root string) (bool, error) {
	return ensureFile(paths.In(root, paths.IssuesSidecar), "")
}

// EnsureIndex writes the index template if no index exists.
func EnsureIndex(root string) (bool, error) {
	return ensureFile(paths.In(root, paths.IndexFile), IndexTemplate)
}

// EnsurePrompt writes the prompt template if no prompt file exists.
func EnsurePrompt(root string) (bool, error) {
	return ensureFile(paths.In(root, paths.PromptFile), PromptTemplate)
}

// ensureFile writes content to path unless the file already exists.
// Returns true if the file was created.
func ensureFile(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // project directory needs standard permissions for git
		return false, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // scaffolded files are committed project files
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
