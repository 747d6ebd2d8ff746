package git

import (
	"context"
	"log/slog"

	"github.com/thiagokokada/gitrun/internal/git/action"
	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/graph"
	"github.com/thiagokokada/gitrun/internal/git/parse"
)

// Log lists the commits reachable from revs (HEAD when empty), newest first.
// Nodes are filled in cache, so commits already known to the caller keep
// their identity.
func (s *Service) Log(ctx context.Context, cache *graph.Cache, revs ...string) ([]*graph.Node, error) {
	return s.LogLimit(ctx, cache, 0, revs...)
}

// LogLimit is Log returning at most maxCount commits; zero means no limit.
// A revision starting with "-" is rejected rather than passed to git as an
// option.
func (s *Service) LogLimit(ctx context.Context, cache *graph.Cache, maxCount int, revs ...string) ([]*graph.Node, error) {
	for _, rev := range revs {
		if err := rejectOption(backend.KindUnknownRevision, "revision", "log", rev); err != nil {
			return nil, err
		}
	}
	args := parse.LogArgs(revs...)
	if maxCount > 0 {
		args = parse.LimitLog(args, maxCount)
	}
	nodes, err := action.Function(ctx, s.runner, s.command(args...),
		func(out string) ([]*graph.Node, error) {
			return parse.ParseLog(out, cache)
		}, action.Options{})
	if err != nil {
		return nil, err
	}
	slog.Debug("Log done", slog.Int("commits", len(nodes)), slog.Int("cached", cache.Len()))
	return nodes, nil
}
