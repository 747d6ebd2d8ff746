package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitrun/internal/git/parse"
)

func newRefsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refs",
		Short: "List branches, remote branches and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			refs, err := svc.ListRefs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range refs {
				fmt.Fprintf(out, "%s %-6s %s\n", r.Hash, r.Kind, r.Name)
			}
			return nil
		},
	}
}

func newSymrefCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symref [name]",
		Short: "Resolve a ref pointer file such as HEAD or ORIG_HEAD",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "HEAD"
			if len(args) == 1 {
				name = args[0]
			}
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ref, err := svc.SymbolicRef(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatSymbolicRef(ref))
			return nil
		},
	}
}

func formatSymbolicRef(ref parse.SymbolicReference) string {
	switch ref.Kind {
	case parse.SymbolicRefLocalBranch:
		return "branch " + ref.Target
	case parse.SymbolicRefRevision:
		return "revision " + ref.Target
	case parse.SymbolicRefReference:
		return "ref " + ref.Target
	default:
		return "none"
	}
}

func newBranchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List, create or delete local branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			branches, head, err := svc.LocalBranchNames(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range branches {
				marker := " "
				if b == head {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, b)
			}
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create <name> [start]",
		Short: "Create a branch at start (HEAD by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			start := ""
			if len(args) == 2 {
				start = args[1]
			}
			return svc.CreateBranch(cmd.Context(), args[0], start)
		},
	}

	var force bool
	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return svc.DeleteBranch(cmd.Context(), args[0], force)
		},
	}
	del.Flags().BoolVarP(&force, "force", "f", false, "delete even if not fully merged")

	cmd.AddCommand(create, del)
	return cmd
}

func newSwitchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <branch>",
		Short: "Switch to a local branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return svc.SwitchBranch(cmd.Context(), args[0])
		},
	}
}

func newMergeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <revision>",
		Short: "Merge a revision into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return svc.Merge(cmd.Context(), args[0])
		},
	}
}
