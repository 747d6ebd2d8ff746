package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/action"
	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/parse"
	"github.com/thiagokokada/gitrun/internal/git/progress"
)

type PushOptions struct {
	Force    bool
	Progress func(progress.Progress)
}

// Push pushes refspecs to remote. git exits non-zero when any ref is
// rejected; the per-ref results are still returned next to the error so the
// caller can tell which refs made it.
func (s *Service) Push(ctx context.Context, remote string, refspecs []string, opts PushOptions) ([]parse.ReferencePushResult, error) {
	if err := rejectOption(backend.KindGeneric, "remote", "push", remote); err != nil {
		return nil, err
	}
	for _, spec := range refspecs {
		if err := rejectOption(backend.KindInvalidRefName, "refspec", "push", spec); err != nil {
			return nil, err
		}
	}
	cmd := s.command(parse.PushArgs(remote, refspecs, parse.PushOptions{Force: opts.Force})...)
	out, err := s.runner.Capture(ctx, cmd, action.Options{Network: true, Progress: opts.Progress})
	if err != nil {
		if _, failed := backend.KindOf(err); !failed {
			return nil, err
		}
	}
	results, parseErr := parse.ParsePush(out.Stdout)
	if parseErr != nil {
		return nil, errors.Join(err, fmt.Errorf("git push: parse output: %w", parseErr))
	}
	return results, err
}

// Fetch downloads objects and refs from remote, pruning deleted branches.
func (s *Service) Fetch(ctx context.Context, remote string, progressFn func(progress.Progress)) error {
	cmd := s.command("fetch", "--progress", "--prune")
	if remote = strings.TrimSpace(remote); remote != "" {
		if err := rejectOption(backend.KindGeneric, "remote", "fetch", remote); err != nil {
			return err
		}
		cmd = cmd.WithArgs(remote)
	}
	return s.runner.Run(ctx, cmd, action.Options{Network: true, Progress: progressFn})
}

// Clone clones url into dir and opens the result.
func Clone(ctx context.Context, url, dir string, progressFn func(progress.Progress), opts ...backend.Option) (*Service, error) {
	exec := backend.NewExecutor(opts...)
	if err := exec.EnsureMinVersion(ctx); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	runner := action.Runner{Exec: exec}
	cmd := backend.NewCommand(filepath.Dir(abs), "clone", "--progress", "--", url, abs)
	if err := runner.Run(ctx, cmd, action.Options{Network: true, Progress: progressFn}); err != nil {
		return nil, err
	}
	return OpenWithExecutor(ctx, abs, exec)
}
