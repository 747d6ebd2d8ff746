package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitrun/internal/git"
	"github.com/thiagokokada/gitrun/internal/git/graph"
)

func newLogCmd(opts *rootOptions) *cobra.Command {
	var (
		maxCount  int
		drawGraph bool
		decorate  bool
		full      bool
	)
	cmd := &cobra.Command{
		Use:   "log [revision...]",
		Short: "List commits reachable from the given revisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			nodes, err := svc.LogLimit(cmd.Context(), graph.NewCache(), maxCount, args...)
			if err != nil {
				return err
			}
			var labels map[string][]string
			if decorate {
				if labels, err = svc.BranchLabels(cmd.Context()); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if full {
				for i, n := range nodes {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprint(out, git.FormatCommitHeader(n))
				}
				return nil
			}
			builder := git.NewGraphBuilder()
			for _, n := range nodes {
				line := git.FormatSummary(n)
				if refs := labels[n.Hash]; len(refs) > 0 {
					line += " (" + strings.Join(refs, ", ") + ")"
				}
				if drawGraph {
					line = builder.Line(n) + " " + line
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&maxCount, "max-count", "n", 0, "limit the number of commits")
	cmd.Flags().BoolVar(&drawGraph, "graph", false, "draw the commit graph")
	cmd.Flags().BoolVar(&decorate, "decorate", false, "show branch and tag names")
	cmd.Flags().BoolVar(&full, "full", false, "print full commit headers and messages")
	return cmd
}

func newReflogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reflog [ref]",
		Short: "List reflog entries of a ref (HEAD by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "HEAD"
			if len(args) == 1 {
				ref = args[0]
			}
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			records, err := svc.Reflog(cmd.Context(), graph.NewCache(), ref)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(out, "%s %s: %s\n", shortHash(r.Revision), r.Selector, r.Message)
			}
			return nil
		},
	}
}

func newStashCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stash",
		Short: "List stashed states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.open(cmd)
			if err != nil {
				return err
			}
			stashes, err := svc.Stashes(cmd.Context(), graph.NewCache())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range stashes {
				fmt.Fprintf(out, "stash@{%d} %s %s\n", s.Index, shortHash(s.Revision), s.Message)
			}
			return nil
		},
	}
}

func shortHash(n *graph.Node) string {
	if n == nil {
		return "-------"
	}
	if len(n.Hash) > 7 {
		return n.Hash[:7]
	}
	return n.Hash
}
