package parse

import (
	"errors"
	"strconv"
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/cursor"
)

// StatusArgs requests the NUL-terminated porcelain v2 format StatusParser reads.
func StatusArgs() []string {
	return []string{"--no-pager", "status", "--porcelain=v2", "--branch", "-z", "--untracked-files=all"}
}

type StatusKind uint8

const (
	StatusOrdinary StatusKind = iota
	StatusRenamed
	StatusUnmerged
	StatusUntracked
	StatusIgnored
)

type StatusEntry struct {
	Kind StatusKind
	// Staged and Worktree are the X and Y letters; '.' means unchanged.
	Staged   byte
	Worktree byte
	// Submodule is the 4-letter submodule state ("N..." for non-submodules).
	Submodule string
	Path      string
	// OrigPath and Score are set for renames and copies only.
	OrigPath string
	Score    string
}

type BranchStatus struct {
	OID      string
	Head     string
	Upstream string
	Ahead    int
	Behind   int
}

type Status struct {
	Branch  BranchStatus
	Entries []StatusEntry
}

// HasStaged reports whether any tracked entry differs between HEAD and index.
func (s Status) HasStaged() bool {
	for _, e := range s.Entries {
		if e.tracked() && e.Staged != '.' {
			return true
		}
	}
	return false
}

// HasWorktree reports whether any tracked entry differs between index and
// working tree.
func (s Status) HasWorktree() bool {
	for _, e := range s.Entries {
		if e.tracked() && e.Worktree != '.' && e.Worktree != '?' {
			return true
		}
	}
	return false
}

func (e StatusEntry) tracked() bool {
	return e.Kind == StatusOrdinary || e.Kind == StatusRenamed || e.Kind == StatusUnmerged
}

var errStatusIncomplete = errors.New("status: result requested before end of output")

// StatusParser is a resumable parser for "git status --porcelain=v2 -z". Feed
// it chunks with Consume as they arrive; records may be split anywhere. Result
// is valid only after Finish.
type StatusParser struct {
	c        *cursor.Cursor
	status   Status
	finished bool
	// origFor points at the rename entry whose original path is the next
	// NUL-terminated field.
	origFor int
}

func NewStatusParser() *StatusParser {
	return &StatusParser{c: cursor.New(""), origFor: -1}
}

func (p *StatusParser) Consume(chunk string) {
	if p.finished || chunk == "" {
		return
	}
	p.c.Reset(p.c.Rest() + chunk)
	for strings.IndexByte(p.c.Rest(), 0) >= 0 {
		p.record(p.c.ReadUntil(0))
	}
}

// Finish treats any unterminated tail as a final record.
func (p *StatusParser) Finish() {
	if p.finished {
		return
	}
	if rest := p.c.Rest(); rest != "" {
		p.record(strings.TrimRight(rest, "\n"))
	}
	p.c.Reset("")
	p.finished = true
}

func (p *StatusParser) Result() (Status, error) {
	if !p.finished {
		return Status{}, errStatusIncomplete
	}
	return p.status, nil
}

func (p *StatusParser) record(rec string) {
	if p.origFor >= 0 {
		p.status.Entries[p.origFor].OrigPath = rec
		p.origFor = -1
		return
	}
	if rec == "" {
		return
	}
	c := cursor.New(rec)
	switch {
	case c.SkipValue("# "):
		p.header(c)
	case c.SkipValue("1 "):
		if e, ok := readChangedEntry(c, StatusOrdinary, 5); ok {
			p.status.Entries = append(p.status.Entries, e)
		}
	case c.SkipValue("2 "):
		if e, ok := readChangedEntry(c, StatusRenamed, 5); ok {
			e.Score = c.ReadUntil(' ')
			e.Path = c.Rest()
			p.status.Entries = append(p.status.Entries, e)
			p.origFor = len(p.status.Entries) - 1
		}
	case c.SkipValue("u "):
		if e, ok := readChangedEntry(c, StatusUnmerged, 7); ok {
			p.status.Entries = append(p.status.Entries, e)
		}
	case c.SkipValue("? "):
		p.status.Entries = append(p.status.Entries, StatusEntry{Kind: StatusUntracked, Staged: '?', Worktree: '?', Path: c.Rest()})
	case c.SkipValue("! "):
		p.status.Entries = append(p.status.Entries, StatusEntry{Kind: StatusIgnored, Staged: '!', Worktree: '!', Path: c.Rest()})
	}
}

// readChangedEntry reads "<XY> <sub>" and then skips the given number of
// space-separated mode and object fields. For ordinary and unmerged entries
// the rest of the record is the path.
func readChangedEntry(c *cursor.Cursor, kind StatusKind, skip int) (StatusEntry, bool) {
	xy := c.ReadUntil(' ')
	if len(xy) != 2 {
		return StatusEntry{}, false
	}
	e := StatusEntry{Kind: kind, Staged: xy[0], Worktree: xy[1]}
	e.Submodule = c.ReadUntil(' ')
	for range skip {
		if c.IsAtEnd() {
			return StatusEntry{}, false
		}
		c.ReadUntil(' ')
	}
	if c.IsAtEnd() {
		return StatusEntry{}, false
	}
	if kind != StatusRenamed {
		e.Path = c.Rest()
	}
	return e, true
}

func (p *StatusParser) header(c *cursor.Cursor) {
	b := &p.status.Branch
	switch {
	case c.SkipValue("branch.oid "):
		if oid := c.Rest(); oid != "(initial)" {
			b.OID = oid
		}
	case c.SkipValue("branch.head "):
		b.Head = c.Rest()
	case c.SkipValue("branch.upstream "):
		b.Upstream = c.Rest()
	case c.SkipValue("branch.ab "):
		for _, field := range strings.Fields(c.Rest()) {
			n, err := strconv.Atoi(field[1:])
			if err != nil {
				continue
			}
			switch field[0] {
			case '+':
				b.Ahead = n
			case '-':
				b.Behind = n
			}
		}
	}
}
