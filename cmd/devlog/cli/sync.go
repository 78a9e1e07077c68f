package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/devindex"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/logging"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/paths"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/settings"
	"github.com/untoldecay/devlog-cli/redact"
)

func newSyncCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync devlog entries with the work index",
		Long: `Validate the work index and report devlog entries it does not cover.

This is the command the post-commit and post-merge hooks run in the
background. When the repository has no devlog setup it exits quietly so
hooks stay silent in repositories that never onboarded.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.OutOrStdout(), check, setFlagNames(cmd.Flags()))
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Scan devlog entries for secret-like content")

	return cmd
}

// setFlagNames returns the names of the flags the user explicitly set,
// for the structured log of each run.
func setFlagNames(fs *pflag.FlagSet) []string {
	var names []string
	fs.Visit(func(f *pflag.Flag) {
		names = append(names, f.Name)
	})
	return names
}

func runSync(w io.Writer, check bool, setFlags []string) error {
	root, err := paths.RepoRoot()
	if err != nil {
		// Hooks can fire in odd states (rebases, worktrees being torn
		// down). Stay quiet rather than fail the hook.
		return nil //nolint:nilerr
	}

	cfg, err := settings.Load(root)
	if err != nil {
		cfg = &settings.Settings{LogLevel: "info"}
	}
	devlogDir := paths.In(root, paths.DevlogDir)
	if info, err := os.Stat(devlogDir); err != nil || !info.IsDir() {
		return nil
	}

	if err := logging.Init(paths.In(root, paths.LogsDir), cfg.LogLevel); err == nil {
		defer logging.Close()
	}
	logging.Debug("sync started", "root", root, "check", check, "flags", setFlags)

	data, err := os.ReadFile(paths.In(root, paths.IndexFile))
	if err != nil {
		fmt.Fprintf(w, "✗ work index unreadable (%s): %v\n", paths.IndexFile, err)
		logging.Error("index unreadable", "error", err)
		return &SilentError{Err: err}
	}

	idx, err := devindex.Parse(string(data))
	if err != nil {
		fmt.Fprintf(w, "✗ work index corrupt (%s): %v\n", paths.IndexFile, err)
		logging.Error("index corrupt", "error", err)
		return &SilentError{Err: err}
	}

	entries, err := listEntryFiles(devlogDir)
	if err != nil {
		return fmt.Errorf("failed to list devlog entries: %w", err)
	}

	indexed := make(map[string]bool, len(idx.Rows))
	for _, target := range idx.LinkTargets() {
		indexed[target] = true
	}

	var unindexed []string
	for _, name := range entries {
		if !indexed[name] {
			unindexed = append(unindexed, name)
		}
	}

	if len(unindexed) == 0 {
		fmt.Fprintf(w, "✓ work index covers all %d devlog entries\n", len(entries))
	} else {
		fmt.Fprintf(w, "! %d devlog entries missing from the work index:\n", len(unindexed))
		for _, name := range unindexed {
			fmt.Fprintf(w, "  - %s\n", name)
		}
		logging.Warn("unindexed entries found", "count", len(unindexed))
	}

	if check {
		if err := scanEntries(w, devlogDir, entries); err != nil {
			return err
		}
	}

	logging.Debug("sync finished", "entries", len(entries), "unindexed", len(unindexed))
	return nil
}

// listEntryFiles returns the markdown entry files in the devlog directory,
// sorted by name. The index, prompt template, and other underscore-prefixed
// files are infrastructure, not entries.
func listEntryFiles(devlogDir string) ([]string, error) {
	items, err := os.ReadDir(devlogDir)
	if err != nil {
		return nil, err
	}
	var entries []string
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, "_") {
			continue
		}
		entries = append(entries, name)
	}
	sort.Strings(entries)
	return entries, nil
}

// scanEntries runs the secret scanner over each entry file and reports
// findings. Devlogs quote terminal output, which is exactly where keys leak.
func scanEntries(w io.Writer, devlogDir string, entries []string) error {
	total := 0
	for _, name := range entries {
		data, err := os.ReadFile(filepath.Join(devlogDir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		for _, finding := range redact.Scan(string(data)) {
			fmt.Fprintf(w, "! possible secret in %s line %d (%s)\n", name, finding.Line, finding.Rule)
			total++
		}
	}
	if total == 0 {
		fmt.Fprintln(w, "✓ no secret-like content found")
	} else {
		logging.Warn("secret scan findings", "count", total)
	}
	return nil
}
