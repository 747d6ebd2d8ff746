package git

import (
	"context"
	"log/slog"

	"github.com/thiagokokada/gitrun/internal/git/action"
	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/parse"
)

// Status queries the working tree. git may refresh the index while computing
// status, so the process is never killed: cancelling ctx makes Status return
// ctx.Err() once git has exited on its own.
func (s *Service) Status(ctx context.Context) (parse.Status, error) {
	st, err := action.Stream(ctx, s.runner, s.command(parse.StatusArgs()...), parse.NewStatusParser(),
		action.Options{Flags: backend.DoNotKillProcess})
	if err != nil {
		return parse.Status{}, err
	}
	slog.Debug("Status done",
		slog.String("head", st.Branch.Head),
		slog.Int("entries", len(st.Entries)),
	)
	return st, nil
}

type LocalChanges struct {
	HasWorktree bool
	HasStaged   bool
}

func (s *Service) LocalChanges(ctx context.Context) (LocalChanges, error) {
	st, err := s.Status(ctx)
	if err != nil {
		return LocalChanges{}, err
	}
	return LocalChanges{HasWorktree: st.HasWorktree(), HasStaged: st.HasStaged()}, nil
}
