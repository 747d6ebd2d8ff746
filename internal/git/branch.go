package git

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/action"
	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/parse"
)

// LocalBranchNames returns a sorted list of local branch names and the current
// HEAD name when available.
func (s *Service) LocalBranchNames(ctx context.Context) (branches []string, headName string, err error) {
	refs, err := s.ListRefs(ctx)
	if err != nil {
		return nil, "", err
	}
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref.Kind != parse.RefKindBranch {
			continue
		}
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		branches = append(branches, name)
	}
	slices.Sort(branches)

	head, err := s.SymbolicRef(ctx, "HEAD")
	if err != nil {
		return nil, "", err
	}
	headName = "HEAD"
	if head.Kind == parse.SymbolicRefLocalBranch && head.Target != "" {
		headName = head.Target
	}
	return branches, headName, nil
}

// CreateBranch creates name at start (HEAD when empty) without checking it
// out. An existing branch fails with backend.KindRefExists.
func (s *Service) CreateBranch(ctx context.Context, name, start string) error {
	name, err := branchArg(name)
	if err != nil {
		return err
	}
	args := []string{"branch", name}
	if start = strings.TrimSpace(start); start != "" {
		if err := rejectOption(backend.KindUnknownRevision, "revision", "branch", start); err != nil {
			return err
		}
		args = append(args, start)
	}
	return s.runner.Run(ctx, s.command(args...), action.Options{})
}

// DeleteBranch deletes name. Without force an unmerged branch fails with
// backend.KindNotFullyMerged.
func (s *Service) DeleteBranch(ctx context.Context, name string, force bool) error {
	name, err := branchArg(name)
	if err != nil {
		return err
	}
	flag := "-d"
	if force {
		flag = "-D"
	}
	return s.runner.Run(ctx, s.command("branch", flag, name), action.Options{})
}

func (s *Service) SwitchBranch(ctx context.Context, branch string) error {
	branch, err := branchArg(branch)
	if err != nil {
		return err
	}
	return s.runner.Run(ctx, s.command("switch", branch), action.Options{})
}

// Merge merges rev into the current branch. A merge that stops on conflicts
// returns backend.KindAutomaticMergeFailed and leaves the working tree for
// the user to resolve.
func (s *Service) Merge(ctx context.Context, rev string) error {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return fmt.Errorf("merge: revision not specified")
	}
	if err := rejectOption(backend.KindUnknownRevision, "revision", "merge", rev); err != nil {
		return err
	}
	return s.runner.Run(ctx, s.command("merge", "--no-edit", rev), action.Options{})
}

// branchArg rejects empty names and names git would parse as options.
func branchArg(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("branch not specified")
	}
	if err := rejectOption(backend.KindInvalidRefName, "branch name", "branch", name); err != nil {
		return "", err
	}
	return name, nil
}

// rejectOption fails for a caller-supplied argument that git would parse as
// an option because it starts with "-".
func rejectOption(kind backend.Kind, what, subcommand, value string) error {
	if !strings.HasPrefix(value, "-") {
		return nil
	}
	return &backend.Error{
		Kind:    kind,
		Command: backend.NewCommand("", subcommand, value),
		Message: fmt.Sprintf("'%s' is not a valid %s", value, what),
	}
}
