package parse

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/thiagokokada/gitrun/internal/git/cursor"
)

type PushOutcome uint8

const (
	PushError PushOutcome = iota
	PushNew
	PushFastForward
	PushForced
	PushRejected
	PushUpToDate
	PushDeleted
)

func (o PushOutcome) String() string {
	switch o {
	case PushNew:
		return "new"
	case PushFastForward:
		return "fast-forward"
	case PushForced:
		return "forced"
	case PushRejected:
		return "rejected"
	case PushUpToDate:
		return "up-to-date"
	case PushDeleted:
		return "deleted"
	default:
		return "error"
	}
}

// ReferencePushResult is the outcome for one ref of a push. OldHash and
// NewHash are the abbreviated ids git prints for updates, empty otherwise.
type ReferencePushResult struct {
	Source      plumbing.ReferenceName
	Destination plumbing.ReferenceName
	OldHash     string
	NewHash     string
	Outcome     PushOutcome
	Reason      string
}

type PushOptions struct {
	Force bool
}

// PushArgs builds "git push --porcelain --progress".
func PushArgs(remote string, refspecs []string, opts PushOptions) []string {
	args := []string{"push", "--porcelain", "--progress"}
	if opts.Force {
		args = append(args, "--force")
	}
	if remote != "" {
		args = append(args, remote)
	}
	return append(args, refspecs...)
}

// ParsePush reads the stdout of "git push --porcelain": a "To <url>" line,
// one tab-separated line per ref and a final "Done". Lines that do not match
// the ref format are skipped.
func ParsePush(text string) ([]ReferencePushResult, error) {
	c := cursor.New(text)
	var results []ReferencePushResult
	for !c.IsAtEnd() {
		line := c.ReadLine()
		if line == "" || line == "Done" || strings.HasPrefix(line, "To ") {
			continue
		}
		if res, ok := parsePushLine(line); ok {
			results = append(results, res)
		}
	}
	return results, nil
}

func parsePushLine(line string) (ReferencePushResult, bool) {
	c := cursor.New(line)
	flag := c.Peek()
	if !c.Skip(1) || !c.SkipByte('\t') {
		return ReferencePushResult{}, false
	}
	from, to, ok := strings.Cut(c.ReadUntil('\t'), ":")
	if !ok {
		return ReferencePushResult{}, false
	}
	summary, reason := splitReason(c.Rest())
	res := ReferencePushResult{
		Source:      plumbing.ReferenceName(from),
		Destination: plumbing.ReferenceName(to),
		Reason:      reason,
	}
	switch flag {
	case ' ':
		res.Outcome = PushFastForward
		res.OldHash, res.NewHash = splitRange(summary, "..")
	case '+':
		res.Outcome = PushForced
		res.OldHash, res.NewHash = splitRange(summary, "...")
	case '-':
		res.Outcome = PushDeleted
	case '*':
		res.Outcome = PushNew
	case '=':
		res.Outcome = PushUpToDate
	case '!':
		if summary == "[rejected]" {
			res.Outcome = PushRejected
		} else {
			res.Outcome = PushError
			if res.Reason == "" {
				res.Reason = strings.Trim(summary, "[]")
			}
		}
	default:
		return ReferencePushResult{}, false
	}
	return res, true
}

// splitReason separates "summary (reason)".
func splitReason(s string) (string, string) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ")") {
		return s, ""
	}
	open := strings.Index(s, " (")
	if open < 0 {
		return s, ""
	}
	return s[:open], s[open+2 : len(s)-1]
}

func splitRange(summary, sep string) (string, string) {
	c := cursor.New(summary)
	old := c.ReadHex()
	if old == "" || !c.SkipValue(sep) {
		return "", ""
	}
	next := c.ReadHex()
	if next == "" {
		return "", ""
	}
	return old, next
}
