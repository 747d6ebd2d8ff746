package git

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/action"
	"github.com/thiagokokada/gitrun/internal/git/backend"
)

// Service runs typed operations against one repository.
type Service struct {
	path   string
	runner action.Runner
}

// Open resolves the top-level directory containing repoPath and checks that
// the configured git is recent enough.
func Open(ctx context.Context, repoPath string, opts ...backend.Option) (*Service, error) {
	return OpenWithExecutor(ctx, repoPath, backend.NewExecutor(opts...))
}

func OpenWithExecutor(ctx context.Context, repoPath string, exec *backend.Executor) (*Service, error) {
	if err := exec.EnsureMinVersion(ctx); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	runner := action.Runner{Exec: exec}
	root, err := action.Function(ctx, runner,
		backend.NewCommand(abs, "rev-parse", "--show-toplevel"),
		trimmed, action.Options{})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	if root == "" {
		return nil, fmt.Errorf("open repository: git rev-parse returned empty root")
	}
	slog.Debug("repository opened", slog.String("path", root))
	return &Service{path: root, runner: runner}, nil
}

func (s *Service) RepoPath() string {
	return s.path
}

// GitVersion returns the output of "git --version".
func (s *Service) GitVersion(ctx context.Context) (string, error) {
	return s.runner.Exec.GitVersion(ctx)
}

func MinGitVersion() string {
	return backend.MinGitVersion()
}

func (s *Service) command(args ...string) backend.Command {
	return backend.NewCommand(s.path, args...)
}

func trimmed(out string) (string, error) {
	return strings.TrimSpace(out), nil
}
