package backend

import (
	"slices"
	"strings"
)

// DefaultProgram is the executable used by NewCommand.
const DefaultProgram = "git"

// Command describes a single invocation of an external program. It is a value
// type: the argument slice is copied on construction and never mutated.
type Command struct {
	Program string
	Args    []string
	Dir     string
}

// NewCommand returns a git invocation running in dir.
func NewCommand(dir string, args ...string) Command {
	return Command{Program: DefaultProgram, Args: slices.Clone(args), Dir: dir}
}

// WithArgs returns a copy of c with extra arguments appended.
func (c Command) WithArgs(args ...string) Command {
	out := c
	out.Args = append(slices.Clone(c.Args), args...)
	return out
}

// Subcommand returns the first argument that does not look like a global
// option, e.g. "log" for "git --no-pager log". Used for log and metric labels.
func (c Command) Subcommand() string {
	skipNext := false
	for _, arg := range c.Args {
		if skipNext {
			skipNext = false
			continue
		}
		switch {
		case arg == "-C" || arg == "-c":
			skipNext = true
		case strings.HasPrefix(arg, "-"):
		default:
			return arg
		}
	}
	return ""
}

func (c Command) String() string {
	var b strings.Builder
	program := c.Program
	if program == "" {
		program = DefaultProgram
	}
	b.WriteString(program)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'\x00") {
			b.WriteString(quoteArg(arg))
			continue
		}
		b.WriteString(arg)
	}
	return b.String()
}

func quoteArg(arg string) string {
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n", "\x00", "\\0")
	return "\"" + r.Replace(arg) + "\""
}

// Flags controls execution policy.
type Flags uint8

const (
	FlagsNone Flags = 0
	// DoNotKillProcess makes cancellation advisory: the child keeps running
	// until it exits on its own. Commands that hold repository locks (status
	// refreshing the index, for instance) must not be killed mid-flight.
	DoNotKillProcess Flags = 1 << iota
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// Output is the fully captured result of a synchronous execution.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}
