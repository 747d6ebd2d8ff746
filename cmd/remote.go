package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitrun/internal/git"
	"github.com/thiagokokada/gitrun/internal/git/parse"
	"github.com/thiagokokada/gitrun/internal/git/progress"
)

// progressPrinter redraws one progress line in place, as git does on a
// terminal.
func progressPrinter(w io.Writer) func(progress.Progress) {
	return func(p progress.Progress) {
		if p.Indeterminate {
			fmt.Fprintf(w, "\r%s\n", p.Action)
			return
		}
		fmt.Fprintf(w, "\r%s: %3d%% (%d/%d)", p.Action, p.Percent, p.Current, p.Total)
		if p.Done {
			fmt.Fprintln(w, ", done.")
		}
	}
}

func newPushCmd(opts *rootOptions) *cobra.Command {
	var (
		force bool
		quiet bool
	)
	cmd := &cobra.Command{
		Use:   "push <remote> [refspec...]",
		Short: "Push refs and report the outcome of each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			pushOpts := git.PushOptions{Force: force}
			if !quiet {
				pushOpts.Progress = progressPrinter(cmd.ErrOrStderr())
			}
			results, err := svc.Push(cmd.Context(), args[0], args[1:], pushOpts)
			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintln(out, formatPushResult(r))
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force updates")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	return cmd
}

func formatPushResult(r parse.ReferencePushResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %s -> %s", r.Outcome, r.Source.Short(), r.Destination.Short())
	if r.OldHash != "" || r.NewHash != "" {
		fmt.Fprintf(&b, " %s..%s", r.OldHash, r.NewHash)
	}
	if r.Reason != "" {
		fmt.Fprintf(&b, " (%s)", r.Reason)
	}
	return b.String()
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "fetch [remote]",
		Short: "Fetch from a remote and prune deleted branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			remote := ""
			if len(args) == 1 {
				remote = args[0]
			}
			var report func(progress.Progress)
			if !quiet {
				report = progressPrinter(cmd.ErrOrStderr())
			}
			return svc.Fetch(cmd.Context(), remote, report)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	return cmd
}

func newCloneCmd(opts *rootOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "clone <url> <directory>",
		Short: "Clone a repository into a new directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			execOpts, err := opts.executorOptions()
			if err != nil {
				return err
			}
			var report func(progress.Progress)
			if !quiet {
				report = progressPrinter(cmd.ErrOrStderr())
			}
			svc, err := git.Clone(cmd.Context(), args[0], args[1], report, execOpts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloned into %s\n", svc.RepoPath())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	return cmd
}
