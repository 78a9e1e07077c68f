package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/devindex"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/hooks"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/logging"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/paths"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/probe"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/protocol"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/scaffold"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/settings"
)

func newOnboardCmd() *cobra.Command {
	var yes bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Set up the devlog workflow in this repository",
		Long: `Set up the devlog workflow in the current repository.

Creates the _rules/_devlog directory with its work index and prompt
template, installs post-commit and post-merge hooks that sync devlogs
in the background, and adds the devlog protocol block to the agent
instruction file (AGENTS.md or .cursorrules).

Safe to run repeatedly: existing content is verified, never clobbered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnboard(cmd.OutOrStdout(), yes, dryRun)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing anything")
	return cmd
}

func runOnboard(w io.Writer, yes, dryRun bool) error {
	root, err := paths.RepoRoot()
	if err != nil {
		return fmt.Errorf("%w: devlog onboarding requires a git repository", probe.ErrNotARepository)
	}

	state := probe.Probe(root)
	if !state.HasVcs {
		return fmt.Errorf("%w: devlog onboarding requires a git repository", probe.ErrNotARepository)
	}

	if dryRun {
		return printOnboardPlan(w, root, state)
	}

	if !yes {
		confirmed, err := confirmOnboard(root)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(w, "Onboarding cancelled")
			return nil
		}
	}

	// Errors in one area do not stop independent areas; the first fatal
	// error becomes the command result after everything else ran.
	var fatal error
	fail := func(err error) {
		if fatal == nil {
			fatal = err
		}
	}

	if err := applyScaffolding(w, root, state); err != nil {
		fail(err)
	}

	// Structured logging only becomes possible once the devlog directory
	// exists; failure to set it up never blocks onboarding.
	cfg, err := settings.Load(root)
	if err != nil {
		// Unparseable settings fall back to defaults
		cfg = &settings.Settings{LogLevel: "info"}
	}
	if dirExists(paths.In(root, paths.DevlogDir)) {
		if err := logging.Init(paths.In(root, paths.LogsDir), cfg.LogLevel); err == nil {
			defer logging.Close()
		}
	}

	if err := applyAgentFile(w, root, state); err != nil {
		fail(err)
	}

	if dirExists(paths.In(root, paths.DevlogDir)) {
		if err := applyGitHooks(w, root, cfg); err != nil {
			fail(err)
		}
	}

	if fatal != nil {
		return fatal
	}

	// Re-probe so the summary reflects what is on disk, not what we
	// think we just did.
	final := probe.Probe(root)
	if final.DevlogDirExists && final.IndexExists && final.PromptExists && final.AgentFileKind != probe.AgentFileNone && len(final.HooksPresent()) == len(hooks.HookNames) {
		fmt.Fprintln(w, "\n✓ repository ready")
		logging.Info("onboarding complete", "root", root)
	}
	return nil
}

func confirmOnboard(root string) (bool, error) {
	var confirmed bool
	form := NewAccessibleForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Set up the devlog workflow in %s?", filepath.Base(root))).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return confirmed, nil
}

// applyScaffolding brings the devlog directory, index, prompt template, and
// issues sidecar into existence. A missing prompt inside an existing devlog
// directory is an error: we never regenerate a prompt someone deleted.
func applyScaffolding(w io.Writer, root string, state probe.RepositoryState) error {
	if !state.DevlogDirExists {
		if err := scaffold.EnsureDevlogDir(root); err != nil {
			return fmt.Errorf("failed to create devlog directory: %w", err)
		}
		if _, err := scaffold.EnsureIndex(root); err != nil {
			return fmt.Errorf("failed to create devlog index: %w", err)
		}
		if _, err := scaffold.EnsurePrompt(root); err != nil {
			return fmt.Errorf("failed to create prompt template: %w", err)
		}
		if _, err := scaffold.EnsureIssuesSidecar(root); err != nil {
			return fmt.Errorf("failed to create issues sidecar: %w", err)
		}
		fmt.Fprintf(w, "✓ devlog directory scaffolded (%s)\n", paths.DevlogDir)
		return nil
	}

	var firstErr error

	if !state.IssuesSidecarExists {
		if _, err := scaffold.EnsureIssuesSidecar(root); err != nil {
			firstErr = fmt.Errorf("failed to create issues sidecar: %w", err)
		} else {
			fmt.Fprintf(w, "✓ issues sidecar created (%s)\n", paths.IssuesSidecar)
		}
	}

	if state.IndexExists {
		data, err := os.ReadFile(paths.In(root, paths.IndexFile))
		if err != nil {
			return fmt.Errorf("failed to read devlog index: %w", err)
		}
		if _, err := devindex.Parse(string(data)); err != nil {
			fmt.Fprintf(w, "✗ devlog index is corrupt (%s): %v\n", paths.IndexFile, err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			fmt.Fprintf(w, "✓ devlog index verified (%s)\n", paths.IndexFile)
		}
	} else {
		if _, err := scaffold.EnsureIndex(root); err != nil {
			return fmt.Errorf("failed to create devlog index: %w", err)
		}
		fmt.Fprintf(w, "✓ devlog index created (%s)\n", paths.IndexFile)
	}

	if !state.PromptExists {
		fmt.Fprintf(w, "✗ prompt template missing (%s)\n", paths.PromptFile)
		if firstErr == nil {
			firstErr = ErrMissingPromptTemplate
		}
	}

	return firstErr
}

// applyAgentFile ensures exactly one agent instruction file carries the
// current protocol block. Only the marker span is ever rewritten; the rest
// of the file stays byte for byte as the user left it.
func applyAgentFile(w io.Writer, root string, state probe.RepositoryState) error {
	content := scaffold.ProtocolBlockContent

	if state.AgentFileKind == probe.AgentFileNone {
		text, err := protocol.Upsert(scaffold.AgentsFileHeader, content)
		if err != nil {
			return err
		}
		if err := os.WriteFile(paths.In(root, paths.AgentsFile), []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to create %s: %w", paths.AgentsFile, err)
		}
		fmt.Fprintf(w, "✓ %s created with devlog protocol block\n", paths.AgentsFile)
		logging.Info("agent file created", "path", paths.AgentsFile)
		return nil
	}

	target := paths.In(root, state.AgentFilePath)
	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", state.AgentFilePath, err)
	}

	current := string(data)
	switch protocol.Detect(current, content) {
	case protocol.Current:
		fmt.Fprintf(w, "✓ devlog protocol block current (%s)\n", state.AgentFilePath)
		return nil
	case protocol.Malformed:
		_, err := protocol.Upsert(current, content)
		fmt.Fprintf(w, "✗ malformed protocol block in %s: %v\n", state.AgentFilePath, err)
		return err
	}

	updated, err := protocol.Upsert(current, content)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to update %s: %w", state.AgentFilePath, err)
	}
	fmt.Fprintf(w, "✓ devlog protocol block installed (%s)\n", state.AgentFilePath)
	logging.Info("protocol block written", "path", state.AgentFilePath)
	return nil
}

// applyGitHooks installs the sync hooks, refusing to touch hook files we do
// not own.
func applyGitHooks(w io.Writer, root string, cfg *settings.Settings) error {
	hooksDir, err := paths.HooksDir(root)
	if err != nil {
		return fmt.Errorf("failed to locate hooks directory: %w", err)
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	body := hooks.ScriptBody(cfg.HookCommandPrefix())
	var firstErr error
	for _, name := range hooks.HookNames {
		res, err := hooks.Install(hooksDir, name, body)
		if err != nil {
			fmt.Fprintf(w, "✗ failed to install %s hook: %v\n", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		switch {
		case res.Outcome == hooks.SkippedForeign:
			fmt.Fprintf(w, "! %s hook skipped (existing hook not managed by devlog)\n", name)
			logging.Warn("foreign hook left untouched", "hook", name)
		case res.Outcome == hooks.Upgraded && res.Changed:
			fmt.Fprintf(w, "✓ %s hook upgraded\n", name)
		case res.Changed:
			fmt.Fprintf(w, "✓ %s hook installed\n", name)
		default:
			fmt.Fprintf(w, "✓ %s hook verified\n", name)
		}
	}
	return firstErr
}

// printOnboardPlan reports what onboarding would do without writing.
func printOnboardPlan(w io.Writer, root string, state probe.RepositoryState) error {
	fmt.Fprintf(w, "Dry run: no files will be written (%s)\n\n", root)

	if !state.DevlogDirExists {
		fmt.Fprintf(w, "  + scaffold %s (index, prompt template)\n", paths.DevlogDir)
		fmt.Fprintf(w, "  + create %s\n", paths.IssuesSidecar)
	} else {
		if !state.IndexExists {
			fmt.Fprintf(w, "  + create %s\n", paths.IndexFile)
		}
		if !state.IssuesSidecarExists {
			fmt.Fprintf(w, "  + create %s\n", paths.IssuesSidecar)
		}
		if !state.PromptExists {
			fmt.Fprintf(w, "  ! prompt template missing (%s): onboarding would fail\n", paths.PromptFile)
		}
	}

	if state.AgentFileKind == probe.AgentFileNone {
		fmt.Fprintf(w, "  + create %s with devlog protocol block\n", paths.AgentsFile)
	} else {
		fmt.Fprintf(w, "  ~ ensure devlog protocol block in %s\n", state.AgentFilePath)
	}

	for _, name := range hooks.HookNames {
		switch state.HookOwnership[name] {
		case hooks.OwnershipAbsent:
			fmt.Fprintf(w, "  + install %s hook\n", name)
		case hooks.OwnershipOurs:
			fmt.Fprintf(w, "  ~ verify %s hook\n", name)
		case hooks.OwnershipForeign:
			fmt.Fprintf(w, "  ! skip %s hook (not managed by devlog)\n", name)
		}
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
