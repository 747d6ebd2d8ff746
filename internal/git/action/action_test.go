package action

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/progress"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func shCommand(script string) backend.Command {
	return backend.Command{Program: "sh", Args: []string{"-c", script}}
}

func newRunner() Runner {
	return Runner{Exec: backend.NewExecutor()}
}

func TestFunctionReturnsParsedResult(t *testing.T) {
	t.Parallel()
	requireShell(t)

	got, err := Function(context.Background(), newRunner(), shCommand(`printf 'a\nb\n'`),
		func(s string) ([]string, error) { return strings.Fields(s), nil }, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFunctionClassifiesUnknownRevision(t *testing.T) {
	t.Parallel()
	requireShell(t)

	const stderr = "fatal: ambiguous argument 'foo': unknown revision or path not in the working tree."
	parsed := false
	_, err := Function(context.Background(), newRunner(),
		shCommand(`echo "`+stderr+`" >&2; exit 128`),
		func(s string) (string, error) { parsed = true; return s, nil }, Options{})
	require.Error(t, err)
	assert.False(t, parsed, "parser must not run on failure")

	var gitErr *backend.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, backend.KindUnknownRevision, gitErr.Kind)
	assert.Equal(t, 128, gitErr.ExitCode)
	assert.Equal(t, stderr, gitErr.Message)
}

func TestFunctionParseError(t *testing.T) {
	t.Parallel()
	requireShell(t)

	boom := errors.New("boom")
	_, err := Function(context.Background(), newRunner(), shCommand(`echo hi`),
		func(string) (int, error) { return 0, boom }, Options{})
	require.ErrorIs(t, err, boom)
	_, isGitErr := backend.KindOf(err)
	assert.False(t, isGitErr, "parse failures are not execution failures")
}

func TestRunNoExecutor(t *testing.T) {
	t.Parallel()

	err := Runner{}.Run(context.Background(), backend.NewCommand("", "status"), Options{})
	require.Error(t, err)
}

func TestCaptureReturnsOutputWithFailure(t *testing.T) {
	t.Parallel()
	requireShell(t)

	out, err := newRunner().Capture(context.Background(), shCommand(`echo partial; echo "error: failed to push some refs" >&2; exit 1`), Options{})
	require.Error(t, err)
	assert.Equal(t, "partial\n", out.Stdout)
	assert.Equal(t, 1, out.ExitCode)
	assert.True(t, backend.IsKind(err, backend.KindGeneric), "got %v", err)
}

func TestNetworkFailureUsesCandidateText(t *testing.T) {
	t.Parallel()
	requireShell(t)

	tests := []struct {
		name    string
		script  string
		wantMsg string
	}{
		{
			name:    "candidate_after_progress",
			script:  `printf 'Receiving objects:  50%% (1/2)\r' >&2; printf 'Receiving objects: 100%% (2/2), done.\n' >&2; echo "fatal: early EOF" >&2; exit 128`,
			wantMsg: "fatal: early EOF",
		},
		{
			name:    "no_progress_keeps_all_lines",
			script:  `echo "remote: Repository not found." >&2; echo "fatal: repository not found" >&2; exit 128`,
			wantMsg: "remote: Repository not found.\nfatal: repository not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var updates []progress.Progress
			err := newRunner().Run(context.Background(), shCommand(tt.script), Options{
				Network:  true,
				Progress: func(p progress.Progress) { updates = append(updates, p) },
			})
			var gitErr *backend.Error
			require.ErrorAs(t, err, &gitErr)
			assert.Equal(t, tt.wantMsg, gitErr.Message)
			assert.NotEmpty(t, updates)
		})
	}
}

func TestNetworkFailureWithoutCandidateFallsBackToStderr(t *testing.T) {
	t.Parallel()
	requireShell(t)

	err := newRunner().Run(context.Background(),
		shCommand(`printf 'Writing objects: 100%% (3/3), done.\n' >&2; exit 1`),
		Options{Network: true})
	var gitErr *backend.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, "Writing objects: 100% (3/3), done.", gitErr.Message)

	err = newRunner().Run(context.Background(), shCommand(`exit 7`), Options{Network: true})
	require.ErrorAs(t, err, &gitErr)
	assert.Empty(t, gitErr.Message)
	assert.Contains(t, gitErr.Error(), "exited with code 7")
}

type linesParser struct {
	chunks   int
	text     strings.Builder
	finished bool
}

func (p *linesParser) Consume(chunk string) {
	p.chunks++
	p.text.WriteString(chunk)
}

func (p *linesParser) Finish() { p.finished = true }

func (p *linesParser) Result() ([]string, error) {
	if !p.finished {
		return nil, errors.New("not finished")
	}
	return strings.Split(strings.TrimSpace(p.text.String()), "\n"), nil
}

func TestStreamFeedsIncrementalParser(t *testing.T) {
	t.Parallel()
	requireShell(t)

	p := &linesParser{}
	got, err := Stream(context.Background(), newRunner(), shCommand(`echo one; sleep 0.05; echo two`), p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
	assert.True(t, p.finished)
	assert.GreaterOrEqual(t, p.chunks, 1)
}

func TestStreamFailureDiscardsResult(t *testing.T) {
	t.Parallel()
	requireShell(t)

	got, err := Stream(context.Background(), newRunner(), shCommand(`echo one; echo "fatal: bad revision 'x'" >&2; exit 128`), &linesParser{}, Options{})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, backend.IsKind(err, backend.KindUnknownRevision), "got %v", err)
}
