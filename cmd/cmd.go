// Package cmd implements the gitrun command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitrun/internal/buildinfo"
	"github.com/thiagokokada/gitrun/internal/config"
	"github.com/thiagokokada/gitrun/internal/git"
	"github.com/thiagokokada/gitrun/internal/git/backend"
)

// Run executes the command line in os.Args until it finishes or the process
// is interrupted.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

type rootOptions struct {
	repo       string
	configPath string
	gitPath    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "gitrun",
		Short:         "Run git operations and print their parsed results",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if opts.verbose {
				handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
				slog.SetDefault(slog.New(handler))
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.repo, "repo", "C", ".", "repository to operate on")
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (default: $XDG_CONFIG_HOME/gitrun/config.yaml)")
	flags.StringVar(&opts.gitPath, "git", "", "git executable to run")
	flags.BoolVar(&opts.verbose, "verbose", false, "enable verbose logging")

	cmd.AddGroup(
		&cobra.Group{ID: "query", Title: "Query Commands:"},
		&cobra.Group{ID: "remote", Title: "Remote Commands:"},
		&cobra.Group{ID: "branch", Title: "Branch Commands:"},
	)
	addGrouped(cmd, "query",
		newLogCmd(opts),
		newReflogCmd(opts),
		newStashCmd(opts),
		newStatusCmd(opts),
		newRefsCmd(opts),
		newSymrefCmd(opts),
	)
	addGrouped(cmd, "remote",
		newPushCmd(opts),
		newFetchCmd(opts),
		newCloneCmd(opts),
	)
	addGrouped(cmd, "branch",
		newBranchCmd(opts),
		newSwitchCmd(opts),
		newMergeCmd(opts),
	)
	cmd.AddCommand(newVersionCmd(opts), newConfigCmd(opts))
	return cmd
}

func addGrouped(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}

// executorOptions merges the config file with the command line flags.
func (o *rootOptions) executorOptions() ([]backend.Option, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return cfg.Options(), nil
}

func (o *rootOptions) config() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.gitPath != "" {
		cfg.GitPath = o.gitPath
	}
	return cfg, nil
}

func (o *rootOptions) open(cmd *cobra.Command) (*git.Service, error) {
	execOpts, err := o.executorOptions()
	if err != nil {
		return nil, err
	}
	return git.Open(cmd.Context(), o.repo, execOpts...)
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print gitrun and git versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gitrun %s\n", buildinfo.String())
			execOpts, err := opts.executorOptions()
			if err != nil {
				return err
			}
			exec := backend.NewExecutor(execOpts...)
			version, err := exec.GitVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, version)
			return exec.EnsureMinVersion(cmd.Context())
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
