package git

import (
	"context"

	"github.com/thiagokokada/gitrun/internal/git/action"
	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/graph"
	"github.com/thiagokokada/gitrun/internal/git/parse"
)

// Reflog lists the history of ref. The entry query and the query for the
// commits' parent links run concurrently against the same cache; either one
// failing or being cancelled fails the whole call.
func (s *Service) Reflog(ctx context.Context, cache *graph.Cache, ref string) ([]parse.ReflogRecord, error) {
	if err := rejectOption(backend.KindUnknownRevision, "ref", "log", ref); err != nil {
		return nil, err
	}
	entries, err := s.reflogEntries(ctx, cache, ref)
	if err != nil {
		return nil, err
	}
	return parse.ResolveReflog(entries, cache), nil
}

// Stashes lists stash entries, newest first. A repository without stashes
// yields an empty list.
func (s *Service) Stashes(ctx context.Context, cache *graph.Cache) ([]parse.StashedState, error) {
	exists, err := s.refExists(ctx, parse.StashRef)
	if err != nil || !exists {
		return nil, err
	}
	entries, err := s.reflogEntries(ctx, cache, parse.StashRef)
	if err != nil {
		return nil, err
	}
	return parse.ResolveStash(entries, cache), nil
}

func (s *Service) reflogEntries(ctx context.Context, cache *graph.Cache, ref string) ([]parse.ReflogEntry, error) {
	entries, _, err := action.Join(ctx,
		func(ctx context.Context) ([]parse.ReflogEntry, error) {
			return action.Function(ctx, s.runner, s.command(parse.ReflogArgs(ref)...), parse.ParseReflog, action.Options{})
		},
		func(ctx context.Context) ([]*graph.Node, error) {
			return action.Function(ctx, s.runner, s.command(parse.ReflogGraphArgs(ref)...),
				func(out string) ([]*graph.Node, error) {
					return parse.ParseLog(out, cache)
				}, action.Options{})
		},
	)
	return entries, err
}

func (s *Service) refExists(ctx context.Context, ref string) (bool, error) {
	out, err := s.runner.Capture(ctx, s.command("show-ref", "--verify", "--quiet", ref), action.Options{})
	if err != nil {
		if _, failed := backend.KindOf(err); failed && out.ExitCode == 1 && out.Stderr == "" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
