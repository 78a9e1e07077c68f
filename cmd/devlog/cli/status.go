package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/hooks"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/paths"
	"github.com/untoldecay/devlog-cli/cmd/devlog/cli/probe"
)

func newStatusCmd() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show devlog onboarding status",
		Long:  "Show whether the devlog workflow is set up in this repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.OutOrStdout(), detailed)
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show the state of each onboarded component")

	return cmd
}

func runStatus(w io.Writer, detailed bool) error {
	root, err := paths.RepoRoot()
	if err != nil {
		fmt.Fprintln(w, "✕ not a git repository")
		return nil //nolint:nilerr // Not being in a git repo is a valid status, not an error
	}

	state := probe.Probe(root)

	onboarded := state.DevlogDirExists && state.IndexExists && state.PromptExists

	if !detailed {
		if onboarded {
			fmt.Fprintln(w, "● devlog onboarded")
		} else {
			fmt.Fprintln(w, "○ not set up (run `devlog onboard` to get started)")
		}
		return nil
	}

	fmt.Fprintf(w, "Repository: %s\n\n", root)
	printCheck(w, state.DevlogDirExists, fmt.Sprintf("devlog directory (%s)", paths.DevlogDir))
	printCheck(w, state.IndexExists, fmt.Sprintf("work index (%s)", paths.IndexFile))
	printCheck(w, state.PromptExists, fmt.Sprintf("prompt template (%s)", paths.PromptFile))
	printCheck(w, state.IssuesSidecarExists, fmt.Sprintf("issues sidecar (%s)", paths.IssuesSidecar))

	if state.AgentFileKind == probe.AgentFileNone {
		printCheck(w, false, "agent instruction file")
	} else {
		printCheck(w, true, fmt.Sprintf("agent instruction file (%s)", state.AgentFilePath))
	}

	for _, name := range hooks.HookNames {
		switch state.HookOwnership[name] {
		case hooks.OwnershipOurs:
			printCheck(w, true, fmt.Sprintf("%s hook", name))
		case hooks.OwnershipForeign:
			fmt.Fprintf(w, "! %s hook (not managed by devlog)\n", name)
		default:
			printCheck(w, false, fmt.Sprintf("%s hook", name))
		}
	}

	return nil
}

func printCheck(w io.Writer, ok bool, label string) {
	if ok {
		fmt.Fprintf(w, "✓ %s\n", label)
	} else {
		fmt.Fprintf(w, "✗ %s\n", label)
	}
}
