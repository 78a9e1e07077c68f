package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/devindex"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/hooks"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/paths"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/probe"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/protocol"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/scaffold"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/settings"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the devlog setup",
		Long: `Inspect the devlog setup and report problems without changing anything.

Checks the devlog directory, validates the work index table, verifies the
agent protocol block, and reports the ownership of the managed git hooks.
Exits non-zero when a problem is found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.OutOrStdout())
		},
	}
}

func runDoctor(w io.Writer) error {
	root, err := paths.RepoRoot()
	if err != nil {
		fmt.Fprintln(w, "✕ not a git repository")
		return &SilentError{Err: probe.ErrNotARepository}
	}

	state := probe.Probe(root)
	problems := 0

	fmt.Fprintf(w, "Repository: %s\n\n", root)

	if state.DevlogDirExists {
		fmt.Fprintf(w, "✓ devlog directory (%s)\n", paths.DevlogDir)
	} else {
		fmt.Fprintf(w, "✗ devlog directory missing (%s)\n", paths.DevlogDir)
		problems++
	}

	problems += doctorIndex(w, root, state)
	problems += doctorPrompt(w, state)

	if state.IssuesSidecarExists {
		fmt.Fprintf(w, "✓ issues sidecar (%s)\n", paths.IssuesSidecar)
	} else {
		fmt.Fprintf(w, "✗ issues sidecar missing (%s)\n", paths.IssuesSidecar)
		problems++
	}

	problems += doctorAgentFile(w, root, state)
	problems += doctorHooks(w, root, state)

	if problems == 0 {
		fmt.Fprintln(w, "\nNo problems found.")
		return nil
	}
	fmt.Fprintf(w, "\nFound %d problem(s). Run `devlog onboard` to repair what it can.\n", problems)
	return &SilentError{Err: fmt.Errorf("%d problem(s) found", problems)}
}

func doctorIndex(w io.Writer, root string, state probe.RepositoryState) int {
	if !state.IndexExists {
		fmt.Fprintf(w, "✗ work index missing (%s)\n", paths.IndexFile)
		return 1
	}
	data, err := os.ReadFile(paths.In(root, paths.IndexFile))
	if err != nil {
		fmt.Fprintf(w, "✗ work index unreadable: %v\n", err)
		return 1
	}
	idx, err := devindex.Parse(string(data))
	if err != nil {
		var trailing *devindex.TrailingContentError
		var malformed *devindex.MalformedRowError
		switch {
		case errors.As(err, &trailing):
			fmt.Fprintf(w, "✗ work index corrupt: content after the table at line %d\n", trailing.Line)
		case errors.As(err, &malformed):
			fmt.Fprintf(w, "✗ work index corrupt: row at line %d has %d column(s), want 4\n", malformed.Line, malformed.Columns)
		default:
			fmt.Fprintf(w, "✗ work index corrupt: %v\n", err)
		}
		return 1
	}
	fmt.Fprintf(w, "✓ work index (%d entries)\n", len(idx.Rows))

	// Entry files the index links to must exist.
	missing := 0
	for _, target := range idx.LinkTargets() {
		if _, err := os.Stat(paths.In(root, filepath.Join(paths.DevlogDir, target))); err != nil {
			fmt.Fprintf(w, "✗ indexed devlog missing on disk: %s\n", target)
			missing++
		}
	}
	return missing
}

func doctorPrompt(w io.Writer, state probe.RepositoryState) int {
	if state.PromptExists {
		fmt.Fprintf(w, "✓ prompt template (%s)\n", paths.PromptFile)
		return 0
	}
	fmt.Fprintf(w, "✗ prompt template missing (%s)\n", paths.PromptFile)
	return 1
}

func doctorAgentFile(w io.Writer, root string, state probe.RepositoryState) int {
	if state.AgentFileKind == probe.AgentFileNone {
		fmt.Fprintln(w, "✗ no agent instruction file (AGENTS.md or .cursorrules)")
		return 1
	}

	data, err := os.ReadFile(paths.In(root, state.AgentFilePath))
	if err != nil {
		fmt.Fprintf(w, "✗ %s unreadable: %v\n", state.AgentFilePath, err)
		return 1
	}

	text := string(data)
	switch protocol.Detect(text, scaffold.ProtocolBlockContent) {
	case protocol.Current:
		fmt.Fprintf(w, "✓ protocol block current (%s)\n", state.AgentFilePath)
		return 0
	case protocol.Absent:
		fmt.Fprintf(w, "✗ protocol block missing from %s\n", state.AgentFilePath)
		return 1
	case protocol.Outdated:
		fmt.Fprintf(w, "✗ protocol block outdated (%s)\n", state.AgentFilePath)
		if current, ok := protocol.Content(text); ok {
			fmt.Fprintln(w, protocol.Diff(current, scaffold.ProtocolBlockContent))
		}
		return 1
	default:
		_, err := protocol.Upsert(text, scaffold.ProtocolBlockContent)
		fmt.Fprintf(w, "✗ protocol block malformed in %s: %v\n", state.AgentFilePath, err)
		return 1
	}
}

func doctorHooks(w io.Writer, root string, state probe.RepositoryState) int {
	cfg, err := settings.Load(root)
	if err != nil {
		cfg = &settings.Settings{}
	}
	desired := hooks.ScriptBody(cfg.HookCommandPrefix())
	hooksDir, err := paths.HooksDir(root)
	if err != nil {
		fmt.Fprintf(w, "✗ hooks directory: %v\n", err)
		return 1
	}

	problems := 0
	for _, name := range hooks.HookNames {
		switch state.HookOwnership[name] {
		case hooks.OwnershipAbsent:
			fmt.Fprintf(w, "✗ %s hook not installed\n", name)
			problems++
		case hooks.OwnershipForeign:
			fmt.Fprintf(w, "! %s hook exists but is not managed by devlog\n", name)
		case hooks.OwnershipOurs:
			data, err := os.ReadFile(filepath.Join(hooksDir, name))
			if err == nil && string(data) != desired {
				fmt.Fprintf(w, "✗ %s hook installed but stale\n", name)
				problems++
			} else {
				fmt.Fprintf(w, "✓ %s hook\n", name)
			}
		}
	}
	return problems
}
