package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitrun/internal/git/backend"
)

// testEnv isolates git from the user's configuration and gives it an
// identity for commits made through the Service.
var testEnv = []string{
	"GIT_CONFIG_NOSYSTEM=1",
	"GIT_CONFIG_GLOBAL=" + os.DevNull,
	"GIT_AUTHOR_NAME=Test",
	"GIT_AUTHOR_EMAIL=test@example.com",
	"GIT_COMMITTER_NAME=Test",
	"GIT_COMMITTER_EMAIL=test@example.com",
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func openTestService(t *testing.T, dir string) *Service {
	t.Helper()
	svc, err := Open(testContext(t), dir, backend.WithEnv(testEnv...))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return svc
}

// initRepo creates an empty repository whose HEAD points at main.
func initRepo(t *testing.T, dir string, bare bool) *gogit.Repository {
	t.Helper()
	repo, err := gogit.PlainInit(dir, bare)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("set HEAD: %v", err)
	}
	return repo
}

// createTestRepo makes a repository with the given number of commits on main
// and returns its directory and the commit ids, oldest first.
func createTestRepo(t *testing.T, commits int) (string, []string) {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	repo := initRepo(t, dir, false)
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	var hashes []string
	for i := range commits {
		name := fmt.Sprintf("file%d.txt", i)
		writeFile(t, dir, name, fmt.Sprintf("content %d\n", i))
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("Add: %v", err)
		}
		sig := &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Unix(1700000000+int64(i)*60, 0).UTC(),
		}
		h, err := wt.Commit(fmt.Sprintf("commit %d\n\nbody %d", i, i), &gogit.CommitOptions{Author: sig, Committer: sig})
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		hashes = append(hashes, h.String())
	}
	return dir, hashes
}

func setBranch(t *testing.T, dir, name, hash string) {
	t.Helper()
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		t.Fatalf("PlainOpen: %v", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), plumbing.NewHash(hash))
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("SetReference: %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// runGit runs git in dir for fixture steps go-git does not cover (reflogs,
// stash, merges) and returns trimmed stdout.
func runGit(t *testing.T, dir string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-c", "commit.gpgsign=false"}, args...)...)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), testEnv...), env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %s: %v: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out))
}

func contains(vals []string, want string) bool {
	for _, v := range vals {
		if v == want {
			return true
		}
	}
	return false
}
