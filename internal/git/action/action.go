// Package action glues commands, the executor and parsers into typed
// operations.
//
// An action runs a command for its side effect and turns a non-zero exit into
// a classified *backend.Error. A function additionally parses stdout into a
// value, either in one batch after exit or incrementally while the process is
// still writing.
package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/thiagokokada/gitrun/internal/git/backend"
	"github.com/thiagokokada/gitrun/internal/git/progress"
)

var errNoExecutor = errors.New("action: executor not set")

// Runner executes commands on behalf of the templates in this package.
type Runner struct {
	Exec *backend.Executor
}

// Options tune one execution.
type Options struct {
	Flags backend.Flags
	// Progress receives updates parsed from stderr. Setting it implies
	// Network.
	Progress func(progress.Progress)
	// Network routes stderr through a progress.Tracker whose candidate text
	// becomes the failure message.
	Network bool
}

func (o Options) tracks() bool {
	return o.Network || o.Progress != nil
}

// IncrementalParser is a backend.IncrementalParser that yields a value once
// the stream has ended.
type IncrementalParser[T any] interface {
	backend.IncrementalParser
	Result() (T, error)
}

// Run executes cmd for its side effect.
func (r Runner) Run(ctx context.Context, cmd backend.Command, opts Options) error {
	_, err := r.Capture(ctx, cmd, opts)
	return err
}

// Capture executes cmd and returns everything it printed. On a non-zero exit
// the output is returned together with the classified error, for callers that
// can still use stdout (push reports per-ref results and exits 1 when any ref
// was rejected).
func (r Runner) Capture(ctx context.Context, cmd backend.Command, opts Options) (backend.Output, error) {
	return r.execute(ctx, cmd, nil, opts)
}

// Function executes cmd and parses its stdout after a successful exit.
func Function[T any](ctx context.Context, r Runner, cmd backend.Command, parse func(string) (T, error), opts Options) (T, error) {
	var zero T
	out, err := r.Capture(ctx, cmd, opts)
	if err != nil {
		return zero, err
	}
	v, err := parse(out.Stdout)
	if err != nil {
		return zero, fmt.Errorf("git %s: parse output: %w", cmd.Subcommand(), err)
	}
	return v, nil
}

// Stream executes cmd feeding stdout into p as it arrives. The parser's
// result is returned only if the command succeeds.
func Stream[T any](ctx context.Context, r Runner, cmd backend.Command, p IncrementalParser[T], opts Options) (T, error) {
	var zero T
	if _, err := r.execute(ctx, cmd, backend.NewParserSink(p), opts); err != nil {
		return zero, err
	}
	v, err := p.Result()
	if err != nil {
		return zero, fmt.Errorf("git %s: parse output: %w", cmd.Subcommand(), err)
	}
	return v, nil
}

// execute buffers stdout unless a sink is given, in which case Output.Stdout
// stays empty.
func (r Runner) execute(ctx context.Context, cmd backend.Command, stdout backend.Sink, opts Options) (backend.Output, error) {
	if r.Exec == nil {
		return backend.Output{}, errNoExecutor
	}
	var stdoutBuf *backend.BufferSink
	if stdout == nil {
		stdoutBuf = backend.NewBufferSink()
		stdout = stdoutBuf
	}
	stderrBuf := backend.NewBufferSink()
	stderr := backend.Sink(stderrBuf)
	var tracker *progress.Tracker
	if opts.tracks() {
		tracker = progress.NewTracker(opts.Progress)
		stderr = backend.MultiSink(stderrBuf, backend.NewLineSink(tracker.Line))
	}

	code, err := r.Exec.Stream(ctx, cmd, stdout, stderr, opts.Flags)
	out := backend.Output{ExitCode: code, Stderr: stderrBuf.String()}
	if stdoutBuf != nil {
		out.Stdout = stdoutBuf.String()
	}
	if err != nil {
		return out, err
	}
	if code == 0 {
		return out, nil
	}
	failure := Classify(cmd, code, out.Stdout, out.Stderr)
	if tracker != nil {
		if text := tracker.ErrorText(); text != "" {
			failure.Message = text
		}
	}
	return out, failure
}
