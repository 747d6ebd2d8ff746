package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/action"
	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/parse"
)

// ListRefs returns local branches, remote branches and tags. Annotated tags
// resolve to the commit they point at.
func (s *Service) ListRefs(ctx context.Context) ([]parse.Ref, error) {
	// show-ref exits 1 without output when there are no refs at all.
	out, err := s.runner.Capture(ctx, s.command(parse.ShowRefArgs()...), action.Options{})
	if err != nil {
		if _, failed := backend.KindOf(err); failed && out.ExitCode == 1 && out.Stderr == "" {
			return nil, nil
		}
		return nil, err
	}
	refs, err := parse.ParseShowRef(out.Stdout)
	if err != nil {
		return nil, fmt.Errorf("git show-ref: %w", err)
	}
	return refs, nil
}

// SymbolicRef reads the pointer file for name (HEAD, ORIG_HEAD, FETCH_HEAD,
// a loose ref) from the git directory. A missing file is SymbolicRefNone.
func (s *Service) SymbolicRef(ctx context.Context, name string) (parse.SymbolicReference, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return parse.SymbolicReference{}, fmt.Errorf("symbolic ref not specified")
	}
	path, err := action.Function(ctx, s.runner, s.command("rev-parse", "--git-path", name), trimmed, action.Options{})
	if err != nil {
		return parse.SymbolicReference{}, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.path, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return parse.SymbolicReference{}, nil
		}
		return parse.SymbolicReference{}, fmt.Errorf("read %s: %w", name, err)
	}
	return parse.ParseSymbolicRef(string(content)), nil
}

// Head returns the commit HEAD points at and the checked out branch, if any.
// ok is false in a repository without commits.
func (s *Service) Head(ctx context.Context) (hash string, branch string, ok bool, err error) {
	out, err := s.runner.Capture(ctx, s.command("rev-parse", "--verify", "--quiet", "HEAD"), action.Options{})
	if err != nil {
		if _, failed := backend.KindOf(err); failed && out.ExitCode == 1 {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	ref, err := s.SymbolicRef(ctx, "HEAD")
	if err != nil {
		return "", "", false, err
	}
	if ref.Kind == parse.SymbolicRefLocalBranch {
		branch = ref.Target
	}
	return strings.TrimSpace(out.Stdout), branch, true, nil
}

// BranchLabels maps commit ids to decoration labels: "HEAD -> main" first,
// then branches, remote branches (without origin/HEAD) and "tag: v1".
func (s *Service) BranchLabels(ctx context.Context) (map[string][]string, error) {
	labels := map[string][]string{}
	refs, err := s.ListRefs(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Hash == "" || ref.Name == "" {
			continue
		}
		if ref.Kind == parse.RefKindRemoteBranch && strings.HasSuffix(ref.Name, "/HEAD") {
			continue
		}
		label := ref.Name
		if ref.Kind == parse.RefKindTag {
			label = fmt.Sprintf("tag: %s", ref.Name)
		}
		labels[ref.Hash] = append(labels[ref.Hash], label)
	}

	headHash, headName, ok, err := s.Head(ctx)
	if err != nil {
		return nil, err
	}
	if ok && headHash != "" {
		label := "HEAD"
		rest := labels[headHash]
		if headName != "" {
			label = fmt.Sprintf("HEAD -> %s", headName)
			rest = slices.DeleteFunc(slices.Clone(rest), func(l string) bool { return l == headName })
		}
		labels[headHash] = append([]string{label}, rest...)
	}
	return labels, nil
}
