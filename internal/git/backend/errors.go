package backend

import (
	"errors"
	"fmt"
)

// Kind tags a failure so callers can switch on it instead of matching
// messages.
type Kind uint8

const (
	// KindGeneric is a non-zero exit that matched no known marker.
	KindGeneric Kind = iota
	// KindTransport means the process could not be started or died without
	// producing an exit code.
	KindTransport
	KindUnknownRevision
	KindRefExists
	KindInvalidRefName
	KindNotFullyMerged
	KindConflicts
	// KindAutomaticMergeFailed is a recoverable merge outcome: the merge
	// stopped with conflicts left in the working tree for the user.
	KindAutomaticMergeFailed
)

var kindNames = [...]string{
	KindGeneric:              "generic",
	KindTransport:            "transport",
	KindUnknownRevision:      "unknown revision",
	KindRefExists:            "ref exists",
	KindInvalidRefName:       "invalid ref name",
	KindNotFullyMerged:       "not fully merged",
	KindConflicts:            "conflicts",
	KindAutomaticMergeFailed: "automatic merge failed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is the failure type surfaced by the execution layer. Cancellation is
// never reported through Error; callers see context.Canceled instead.
type Error struct {
	Kind     Kind
	Command  Command
	ExitCode int
	// Message is the diagnostic derived from the process output.
	Message string
	// Err is the underlying cause, if any (typically from os/exec).
	Err error
}

func (e *Error) Error() string {
	sub := e.Command.Subcommand()
	if sub == "" {
		sub = e.Command.Program
	} else {
		sub = "git " + sub
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %s", sub, e.Err, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", sub, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", sub, e.Err)
	default:
		return fmt.Sprintf("%s: exited with code %d", sub, e.ExitCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the kind of the *Error wrapped by err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindGeneric, false
}
