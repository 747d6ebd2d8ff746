package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// DefaultKillGrace bounds how long a cancelled execution waits for output
// pipes to drain after the child has been killed.
const DefaultKillGrace = 2 * time.Second

// baseEnv keeps git's diagnostics untranslated (the failure classifier matches
// English markers) and stops it from blocking on credential prompts.
var baseEnv = []string{"LC_ALL=C", "LANGUAGE=C", "GIT_TERMINAL_PROMPT=0"}

// Executor spawns external processes and streams their output into sinks.
// It is safe for concurrent use; every call owns its own process and sinks.
type Executor struct {
	gitPath   string
	killGrace time.Duration
	env       []string
	logger    *slog.Logger

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tel            *telemetry

	minVersion gitVersion

	versionMu   sync.Mutex
	versionInfo *gitVersionInfo
}

type Option func(*Executor)

// WithGitPath overrides the git executable (default: "git" from PATH).
func WithGitPath(path string) Option {
	return func(e *Executor) {
		if path != "" {
			e.gitPath = path
		}
	}
}

func WithKillGrace(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.killGrace = d
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the child environment.
func WithEnv(env ...string) Option {
	return func(e *Executor) {
		e.env = append(e.env, env...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracerProvider reports execution spans to tp instead of the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) {
		if tp != nil {
			e.tracerProvider = tp
		}
	}
}

// WithMeterProvider records execution metrics on mp instead of the global
// provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Executor) {
		if mp != nil {
			e.meterProvider = mp
		}
	}
}

// WithMinGitVersion changes the version EnsureMinVersion checks against, in
// "major.minor[.patch]" form. Invalid input is ignored.
func WithMinGitVersion(v string) Option {
	return func(e *Executor) {
		if parsed, ok := parseGitVersionOutput(v); ok {
			e.minVersion = parsed
		}
	}
}

func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		gitPath:    DefaultProgram,
		killGrace:  DefaultKillGrace,
		minVersion: minGitVersion,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracerProvider == nil {
		e.tracerProvider = otel.GetTracerProvider()
	}
	if e.meterProvider == nil {
		e.meterProvider = otel.GetMeterProvider()
	}
	tel, err := newTelemetry(e.tracerProvider, e.meterProvider)
	if err != nil {
		e.log().Warn("git exec metrics disabled", slog.Any("error", err))
		tel, _ = newTelemetry(e.tracerProvider, noop.NewMeterProvider())
	}
	e.tel = tel
	return e
}

func (e *Executor) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// Execute runs cmd to completion and captures both streams. A non-zero exit
// is not an error here; it is reported through Output.ExitCode.
func (e *Executor) Execute(ctx context.Context, cmd Command, flags Flags) (Output, error) {
	stdout := NewBufferSink()
	stderr := NewBufferSink()
	code, err := e.Stream(ctx, cmd, stdout, stderr, flags)
	if err != nil {
		return Output{ExitCode: code}, err
	}
	return Output{ExitCode: code, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// Stream runs cmd and feeds decoded stdout/stderr text into the given sinks
// while the process runs. It returns the exit code once the process has exited
// and both streams are drained.
//
// Without DoNotKillProcess, cancelling ctx kills the child and Stream returns
// ctx.Err() within the kill grace period. With DoNotKillProcess, the child is
// left alone; Stream still waits for it, delivers all of its output to the
// sinks, and then returns the natural exit code together with ctx.Err().
func (e *Executor) Stream(ctx context.Context, cmd Command, stdout, stderr Sink, flags Flags) (int, error) {
	if stdout == nil {
		stdout = Discard
	}
	if stderr == nil {
		stderr = Discard
	}
	if err := ctx.Err(); err != nil {
		stdout.Close()
		stderr.Close()
		return -1, err
	}

	id := uuid.NewString()
	sub := cmd.Subcommand()
	ctx, span := e.tel.startSpan(ctx, cmd, id)
	defer span.End()

	program := cmd.Program
	if program == "" || program == DefaultProgram {
		program = e.gitPath
	}
	var c *exec.Cmd
	if flags.Has(DoNotKillProcess) {
		c = exec.Command(program, cmd.Args...)
	} else {
		c = exec.CommandContext(ctx, program, cmd.Args...)
		c.WaitDelay = e.killGrace
	}
	c.Dir = cmd.Dir
	c.Env = append(append(os.Environ(), baseEnv...), e.env...)
	outW := &sinkWriter{sink: stdout}
	errW := &sinkWriter{sink: stderr}
	c.Stdout = outW
	c.Stderr = errW

	logger := e.log().With(slog.String("invocation", id))
	logger.Debug("git exec start",
		slog.String("cmd", cmd.String()),
		slog.String("dir", cmd.Dir),
		slog.Bool("no_kill", flags.Has(DoNotKillProcess)),
	)
	start := time.Now()
	if err := c.Start(); err != nil {
		outW.close()
		errW.close()
		e.tel.record(ctx, sub, time.Since(start), -1, outcomeTransport)
		setSpanResult(span, -1, outcomeTransport)
		return -1, &Error{Kind: KindTransport, Command: cmd, ExitCode: -1, Err: fmt.Errorf("start: %w", err)}
	}

	var advisory chan struct{}
	if flags.Has(DoNotKillProcess) {
		advisory = make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				logger.Debug("git exec cancellation requested; process left running",
					slog.Int("pid", c.Process.Pid))
			case <-advisory:
			}
		}()
	}
	waitErr := c.Wait()
	if advisory != nil {
		close(advisory)
	}
	outW.close()
	errW.close()

	code, err := e.exitResult(ctx, cmd, c, waitErr)
	duration := time.Since(start)
	outcome := outcomeFor(code, err)
	e.tel.record(ctx, sub, duration, code, outcome)
	setSpanResult(span, code, outcome)
	logger.Debug("git exec done",
		slog.String("subcommand", sub),
		slog.Int("exit_code", code),
		slog.Duration("duration", duration),
		slog.String("outcome", outcome),
	)
	return code, err
}

func (e *Executor) exitResult(ctx context.Context, cmd Command, c *exec.Cmd, waitErr error) (int, error) {
	code := -1
	if c.ProcessState != nil {
		code = c.ProcessState.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		// A killed child reports -1; an unkilled one keeps its natural code.
		return code, ctxErr
	}
	if waitErr == nil || errors.Is(waitErr, exec.ErrWaitDelay) {
		return code, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if exitErr.ExitCode() < 0 {
			return -1, &Error{
				Kind:     KindTransport,
				Command:  cmd,
				ExitCode: -1,
				Err:      fmt.Errorf("terminated abnormally: %w", waitErr),
			}
		}
		return exitErr.ExitCode(), nil
	}
	return code, &Error{Kind: KindTransport, Command: cmd, ExitCode: code, Err: waitErr}
}

// sinkWriter adapts a Sink to the io.Writer os/exec copies into. os/exec uses
// one goroutine per stream, so Write calls on a single writer never overlap.
type sinkWriter struct {
	sink   Sink
	dec    decoder
	closed bool
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	if text := w.dec.decode(p); text != "" {
		w.sink.Write(text)
	}
	return len(p), nil
}

func (w *sinkWriter) close() {
	if w.closed {
		return
	}
	w.closed = true
	if rest := w.dec.flush(); rest != "" {
		w.sink.Write(rest)
	}
	w.sink.Close()
}
