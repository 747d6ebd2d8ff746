package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/graph"
	"github.com/thiagokokada/gitrun/internal/git/parse"
)

func TestOpenResolvesTopLevel(t *testing.T) {
	t.Parallel()

	dir, _ := createTestRepo(t, 1)
	writeFile(t, dir, "sub/dir/file.txt", "x\n")

	svc := openTestService(t, filepath.Join(dir, "sub", "dir"))
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(svc.RepoPath())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpenNotARepository(t *testing.T) {
	t.Parallel()
	requireGit(t)

	_, err := Open(testContext(t), t.TempDir(), backend.WithEnv(testEnv...))
	require.Error(t, err)
}

func TestLog(t *testing.T) {
	t.Parallel()

	dir, hashes := createTestRepo(t, 3)
	svc := openTestService(t, dir)
	cache := graph.NewCache()

	nodes, err := svc.Log(testContext(t), cache)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	for i, n := range nodes {
		assert.Equal(t, hashes[len(hashes)-1-i], n.Hash)
		assert.True(t, n.Loaded)
	}
	assert.Same(t, nodes[1], nodes[0].Parents[0])
	assert.Same(t, nodes[2], nodes[1].Parents[0])
	assert.Empty(t, nodes[2].Parents)
	assert.Equal(t, "commit 2", nodes[0].Summary())
	assert.Equal(t, "commit 2\n\nbody 2", nodes[0].Message)
	assert.Equal(t, "test@example.com", nodes[0].Author.Email)

	again, err := svc.Log(testContext(t), cache, hashes[1])
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Same(t, nodes[1], again[0], "same cache must yield the same node")
}

func TestLogUnknownRevision(t *testing.T) {
	t.Parallel()

	dir, _ := createTestRepo(t, 1)
	svc := openTestService(t, dir)

	_, err := svc.Log(testContext(t), graph.NewCache(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)
}

func TestLogLimit(t *testing.T) {
	t.Parallel()

	dir, hashes := createTestRepo(t, 3)
	svc := openTestService(t, dir)

	nodes, err := svc.LogLimit(testContext(t), graph.NewCache(), 2)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, hashes[2], nodes[0].Hash)

	nodes, err = svc.LogLimit(testContext(t), graph.NewCache(), 1, hashes[1])
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, hashes[1], nodes[0].Hash)
}

func TestOptionLikeArgumentsRejected(t *testing.T) {
	t.Parallel()

	dir, _ := createTestRepo(t, 1)
	svc := openTestService(t, dir)
	ctx := testContext(t)
	target := filepath.Join(t.TempDir(), "written-by-git")

	_, err := svc.Log(ctx, graph.NewCache(), "--output="+target)
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)
	_, err = svc.LogLimit(ctx, graph.NewCache(), 1, "main", "--output="+target)
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)
	_, err = svc.Reflog(ctx, graph.NewCache(), "--output="+target)
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)

	err = svc.Merge(ctx, "--strategy=ours")
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)
	err = svc.CreateBranch(ctx, "topic", "--orphan")
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)

	_, err = svc.Push(ctx, "origin", []string{"--mirror"}, PushOptions{})
	assert.True(t, backend.IsKind(err, backend.KindInvalidRefName), "got %v", err)
	_, err = svc.Push(ctx, "--receive-pack=/bin/false", nil, PushOptions{})
	assert.True(t, backend.IsKind(err, backend.KindGeneric), "got %v", err)
	err = svc.Fetch(ctx, "--upload-pack=/bin/false", nil)
	assert.True(t, backend.IsKind(err, backend.KindGeneric), "got %v", err)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "git must not have run with the option")
	branches, _, err := svc.LocalBranchNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, branches)
}

func TestSHA256Repository(t *testing.T) {
	t.Parallel()
	requireGit(t)

	dir := t.TempDir()
	if err := exec.Command("git", "init", "--quiet", "--object-format=sha256", dir).Run(); err != nil {
		t.Skipf("git cannot create sha256 repositories: %v", err)
	}
	runGit(t, dir, nil, "commit", "--allow-empty", "-m", "first")
	runGit(t, dir, nil, "commit", "--allow-empty", "-m", "second")
	first := runGit(t, dir, nil, "rev-parse", "HEAD~1")
	second := runGit(t, dir, nil, "rev-parse", "HEAD")
	require.Len(t, second, 64)

	svc := openTestService(t, dir)
	ctx := testContext(t)
	cache := graph.NewCache()

	nodes, err := svc.Log(ctx, cache)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, second, nodes[0].Hash)
	require.Len(t, nodes[0].Parents, 1)
	assert.Same(t, nodes[1], nodes[0].Parents[0])
	assert.Equal(t, first, nodes[1].Hash)

	records, err := svc.Reflog(ctx, cache, "HEAD")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Same(t, nodes[0], records[0].Revision)

	runGit(t, dir, nil, "switch", "--quiet", "--detach", "HEAD~1")
	ref, err := svc.SymbolicRef(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, parse.SymbolicReference{Kind: parse.SymbolicRefRevision, Target: first}, ref)
}

func TestReflog(t *testing.T) {
	t.Parallel()
	requireGit(t)

	dir := t.TempDir()
	initRepo(t, dir, false)
	runGit(t, dir, nil, "commit", "--allow-empty", "-m", "first")
	runGit(t, dir, nil, "commit", "--allow-empty", "-m", "second")
	first := runGit(t, dir, nil, "rev-parse", "HEAD~1")
	second := runGit(t, dir, nil, "rev-parse", "HEAD")

	svc := openTestService(t, dir)
	cache := graph.NewCache()
	records, err := svc.Reflog(testContext(t), cache, "HEAD")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, "commit: second", records[0].Message)
	assert.Equal(t, second, records[0].Revision.Hash)
	assert.Equal(t, 1, records[1].Index)
	assert.Equal(t, first, records[1].Revision.Hash)

	// Parent links are filled by the concurrent graph query on the same cache.
	require.True(t, records[0].Revision.Loaded)
	require.Len(t, records[0].Revision.Parents, 1)
	assert.Same(t, records[1].Revision, records[0].Revision.Parents[0])
}

func TestReflogUnknownRef(t *testing.T) {
	t.Parallel()

	dir, _ := createTestRepo(t, 1)
	svc := openTestService(t, dir)

	_, err := svc.Reflog(testContext(t), graph.NewCache(), "refs/heads/nope")
	require.Error(t, err)
}

func TestStashes(t *testing.T) {
	t.Parallel()

	dir, hashes := createTestRepo(t, 1)
	svc := openTestService(t, dir)
	cache := graph.NewCache()

	stashes, err := svc.Stashes(testContext(t), cache)
	require.NoError(t, err)
	assert.Empty(t, stashes)

	writeFile(t, dir, "file0.txt", "changed\n")
	runGit(t, dir, nil, "stash", "push", "-m", "wip change")

	stashes, err = svc.Stashes(testContext(t), cache)
	require.NoError(t, err)
	require.Len(t, stashes, 1)
	assert.Equal(t, 0, stashes[0].Index)
	assert.Contains(t, stashes[0].Message, "wip change")
	rev := stashes[0].Revision
	require.True(t, rev.Loaded)
	require.GreaterOrEqual(t, len(rev.Parents), 2)
	assert.Equal(t, hashes[0], rev.Parents[0].Hash)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	dir, _ := createTestRepo(t, 2)
	writeFile(t, dir, "file0.txt", "modified\n")
	writeFile(t, dir, "staged.txt", "new\n")
	runGit(t, dir, nil, "add", "staged.txt")
	writeFile(t, dir, "untracked dir/new file.txt", "u\n")
	runGit(t, dir, nil, "mv", "file1.txt", "renamed.txt")

	svc := openTestService(t, dir)
	st, err := svc.Status(testContext(t))
	require.NoError(t, err)

	assert.Equal(t, "main", st.Branch.Head)
	assert.Len(t, st.Branch.OID, 40)
	assert.True(t, st.HasStaged())
	assert.True(t, st.HasWorktree())

	byPath := map[string]parse.StatusEntry{}
	for _, e := range st.Entries {
		byPath[e.Path] = e
	}
	assert.Equal(t, byte('M'), byPath["file0.txt"].Worktree)
	assert.Equal(t, byte('A'), byPath["staged.txt"].Staged)
	assert.Equal(t, parse.StatusUntracked, byPath["untracked dir/new file.txt"].Kind)
	renamed := byPath["renamed.txt"]
	assert.Equal(t, parse.StatusRenamed, renamed.Kind)
	assert.Equal(t, "file1.txt", renamed.OrigPath)

	changes, err := svc.LocalChanges(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, LocalChanges{HasWorktree: true, HasStaged: true}, changes)
}

func TestStatusCleanUnbornBranch(t *testing.T) {
	t.Parallel()
	requireGit(t)

	dir := t.TempDir()
	initRepo(t, dir, false)
	svc := openTestService(t, dir)

	st, err := svc.Status(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, st.Branch.OID)
	assert.Equal(t, "main", st.Branch.Head)
	assert.Empty(t, st.Entries)
}

func TestSymbolicRef(t *testing.T) {
	t.Parallel()

	dir, hashes := createTestRepo(t, 2)
	svc := openTestService(t, dir)

	ref, err := svc.SymbolicRef(testContext(t), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, parse.SymbolicReference{Kind: parse.SymbolicRefLocalBranch, Target: "main"}, ref)

	runGit(t, dir, nil, "checkout", "--quiet", "--detach", hashes[0])
	ref, err = svc.SymbolicRef(testContext(t), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, parse.SymbolicReference{Kind: parse.SymbolicRefRevision, Target: hashes[0]}, ref)

	ref, err = svc.SymbolicRef(testContext(t), "ORIG_HEAD_MISSING")
	require.NoError(t, err)
	assert.Equal(t, parse.SymbolicRefNone, ref.Kind)
}

func TestListRefs(t *testing.T) {
	t.Parallel()
	requireGit(t)

	empty := t.TempDir()
	initRepo(t, empty, false)
	refs, err := openTestService(t, empty).ListRefs(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, refs)

	dir, hashes := createTestRepo(t, 2)
	setBranch(t, dir, "feature", hashes[0])
	runGit(t, dir, nil, "tag", "-a", "v1.0", "-m", "release", hashes[1])

	refs, err = openTestService(t, dir).ListRefs(testContext(t))
	require.NoError(t, err)
	assert.Contains(t, refs, parse.Ref{Hash: hashes[1], Kind: parse.RefKindBranch, Name: "main"})
	assert.Contains(t, refs, parse.Ref{Hash: hashes[0], Kind: parse.RefKindBranch, Name: "feature"})
	assert.Contains(t, refs, parse.Ref{Hash: hashes[1], Kind: parse.RefKindTag, Name: "v1.0"})
}

func TestBranchLabels_IncludesHEADAndBranch(t *testing.T) {
	t.Parallel()

	dir, hashes := createTestRepo(t, 1)
	svc := openTestService(t, dir)

	labels, err := svc.BranchLabels(testContext(t))
	require.NoError(t, err)

	vals := labels[hashes[0]]
	if len(vals) == 0 {
		t.Fatalf("expected labels for %s", hashes[0])
	}
	if vals[0] != "HEAD -> main" {
		t.Fatalf("expected first label %q, got %q (all=%+v)", "HEAD -> main", vals[0], vals)
	}
	if contains(vals, "main") {
		t.Fatalf("branch named by HEAD should not repeat: %+v", vals)
	}

	setBranch(t, dir, "other", hashes[0])
	labels, err = svc.BranchLabels(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"HEAD -> main", "other"}, labels[hashes[0]])
}

func TestLocalBranchNames_SortsAndReturnsHead(t *testing.T) {
	t.Parallel()

	dir, hashes := createTestRepo(t, 1)
	setBranch(t, dir, "z", hashes[0])
	setBranch(t, dir, "a", hashes[0])
	svc := openTestService(t, dir)

	branches, head, err := svc.LocalBranchNames(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "main", head)
	assert.True(t, slices.Equal(branches, []string{"a", "main", "z"}), "branches = %v", branches)

	runGit(t, dir, nil, "checkout", "--quiet", "--detach")
	_, head, err = svc.LocalBranchNames(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "HEAD", head)
}

func TestBranchLifecycle(t *testing.T) {
	t.Parallel()

	dir, hashes := createTestRepo(t, 2)
	svc := openTestService(t, dir)
	ctx := testContext(t)

	require.NoError(t, svc.CreateBranch(ctx, "topic", hashes[0]))

	err := svc.CreateBranch(ctx, "topic", "")
	assert.True(t, backend.IsKind(err, backend.KindRefExists), "got %v", err)

	err = svc.CreateBranch(ctx, "bad..name", "")
	assert.True(t, backend.IsKind(err, backend.KindInvalidRefName), "got %v", err)

	err = svc.CreateBranch(ctx, "-x", "")
	assert.True(t, backend.IsKind(err, backend.KindInvalidRefName), "got %v", err)

	err = svc.CreateBranch(ctx, "other", "no-such-rev")
	require.Error(t, err)

	// topic is an ancestor of main, so a plain delete succeeds.
	require.NoError(t, svc.DeleteBranch(ctx, "topic", false))

	require.NoError(t, svc.SwitchBranch(ctx, "main"))
	runGit(t, dir, nil, "switch", "--quiet", "-c", "unmerged")
	runGit(t, dir, nil, "commit", "--allow-empty", "-m", "only here")
	require.NoError(t, svc.SwitchBranch(ctx, "main"))

	err = svc.DeleteBranch(ctx, "unmerged", false)
	assert.True(t, backend.IsKind(err, backend.KindNotFullyMerged), "got %v", err)
	require.NoError(t, svc.DeleteBranch(ctx, "unmerged", true))
}

func TestMerge(t *testing.T) {
	t.Parallel()

	dir, _ := createTestRepo(t, 1)
	svc := openTestService(t, dir)
	ctx := testContext(t)

	runGit(t, dir, nil, "switch", "--quiet", "-c", "topic")
	writeFile(t, dir, "file0.txt", "topic side\n")
	runGit(t, dir, nil, "commit", "-am", "topic change")
	runGit(t, dir, nil, "switch", "--quiet", "main")
	writeFile(t, dir, "file0.txt", "main side\n")
	runGit(t, dir, nil, "commit", "-am", "main change")

	err := svc.Merge(ctx, "no-such-branch")
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)

	err = svc.Merge(ctx, "topic")
	require.Error(t, err)
	assert.True(t, backend.IsKind(err, backend.KindAutomaticMergeFailed), "got %v", err)

	st, err := svc.Status(ctx)
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, parse.StatusUnmerged, st.Entries[0].Kind)

	err = svc.Merge(ctx, "topic")
	require.Error(t, err)
	assert.True(t, backend.IsKind(err, backend.KindConflicts), "got %v", err)
}

func TestMinGitVersion(t *testing.T) {
	t.Parallel()

	if MinGitVersion() == "" {
		t.Fatal("MinGitVersion() should not be empty")
	}
}
