package action

import (
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/backend"
)

type marker struct {
	kind backend.Kind
	text string
	// subcommand restricts the marker to one git subcommand when set.
	subcommand string
}

// markers are matched case-insensitively against stdout and stderr, in order.
// Merge reports "Automatic merge failed" next to its CONFLICT lines, so it
// comes first.
var markers = []marker{
	{kind: backend.KindAutomaticMergeFailed, text: "automatic merge failed"},
	{kind: backend.KindConflicts, text: "conflict ("},
	{kind: backend.KindConflicts, text: "you need to resolve your current index first"},
	{kind: backend.KindConflicts, text: "needs merge"},
	{kind: backend.KindConflicts, text: "unmerged files"},
	{kind: backend.KindConflicts, text: "you have not concluded your merge"},
	{kind: backend.KindNotFullyMerged, text: "is not fully merged"},
	{kind: backend.KindInvalidRefName, text: "is not a valid branch name"},
	{kind: backend.KindInvalidRefName, text: "is not a valid tag name"},
	{kind: backend.KindInvalidRefName, text: "not a valid ref name"},
	{kind: backend.KindInvalidRefName, text: "invalid refspec"},
	{kind: backend.KindRefExists, text: "already exists", subcommand: "branch"},
	{kind: backend.KindRefExists, text: "already exists", subcommand: "tag"},
	{kind: backend.KindRefExists, text: "already exists", subcommand: "switch"},
	{kind: backend.KindRefExists, text: "already exists", subcommand: "checkout"},
	{kind: backend.KindUnknownRevision, text: "unknown revision"},
	{kind: backend.KindUnknownRevision, text: "bad revision"},
	{kind: backend.KindUnknownRevision, text: "not a valid object name"},
	{kind: backend.KindUnknownRevision, text: "needed a single revision"},
	{kind: backend.KindUnknownRevision, text: "not something we can merge"},
	{kind: backend.KindUnknownRevision, text: "couldn't find remote ref"},
}

// Classify builds the failure for a non-zero exit. The message is the trimmed
// stderr; the kind comes from the first marker found in either stream.
func Classify(cmd backend.Command, exitCode int, stdout, stderr string) *backend.Error {
	return &backend.Error{
		Kind:     classifyKind(cmd.Subcommand(), stdout, stderr),
		Command:  cmd,
		ExitCode: exitCode,
		Message:  strings.TrimSpace(stderr),
	}
}

func classifyKind(subcommand, stdout, stderr string) backend.Kind {
	haystack := strings.ToLower(stderr + "\n" + stdout)
	for _, m := range markers {
		if m.subcommand != "" && m.subcommand != subcommand {
			continue
		}
		if strings.Contains(haystack, m.text) {
			return m.kind
		}
	}
	return backend.KindGeneric
}
