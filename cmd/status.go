package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitrun/internal/git"
	"github.com/thiagokokada/gitrun/internal/git/parse"
	"github.com/thiagokokada/gitrun/internal/watch"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printStatus(cmd.Context(), svc, out); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return watchStatus(cmd.Context(), svc, out)
		},
	}
	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "print the status again whenever the repository changes")
	return cmd
}

// watchStatus reprints the status after each settled burst of repository
// changes until ctx is cancelled.
func watchStatus(ctx context.Context, svc *git.Service, out io.Writer) error {
	var mu sync.Mutex
	return watch.Run(ctx, svc.RepoPath(), watch.DefaultDelay, func() {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out)
		if err := printStatus(ctx, svc, out); err != nil && ctx.Err() == nil {
			slog.Error("status refresh", slog.Any("error", err))
		}
	})
}

func printStatus(ctx context.Context, svc *git.Service, out io.Writer) error {
	st, err := svc.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatBranch(st.Branch))
	for _, e := range st.Entries {
		fmt.Fprintln(out, formatStatusEntry(e))
	}
	return nil
}

func formatBranch(b parse.BranchStatus) string {
	head := b.Head
	if head == "" || head == "(detached)" {
		head = "HEAD (no branch)"
	}
	line := "## " + head
	if b.Upstream != "" {
		line += "..." + b.Upstream
	}
	switch {
	case b.Ahead > 0 && b.Behind > 0:
		line += fmt.Sprintf(" [ahead %d, behind %d]", b.Ahead, b.Behind)
	case b.Ahead > 0:
		line += fmt.Sprintf(" [ahead %d]", b.Ahead)
	case b.Behind > 0:
		line += fmt.Sprintf(" [behind %d]", b.Behind)
	}
	return line
}

func formatStatusEntry(e parse.StatusEntry) string {
	switch e.Kind {
	case parse.StatusUntracked:
		return "?? " + e.Path
	case parse.StatusIgnored:
		return "!! " + e.Path
	case parse.StatusRenamed:
		return fmt.Sprintf("%c%c %s -> %s", e.Staged, e.Worktree, e.OrigPath, e.Path)
	default:
		return fmt.Sprintf("%c%c %s", e.Staged, e.Worktree, e.Path)
	}
}
