package parse

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/thiagokokada/gitrun/internal/git/cursor"
)

type SymbolicRefKind uint8

const (
	SymbolicRefNone SymbolicRefKind = iota
	SymbolicRefLocalBranch
	SymbolicRefRevision
	// SymbolicRefReference points at a ref outside refs/heads, e.g. a
	// detached remote HEAD.
	SymbolicRefReference
)

type SymbolicReference struct {
	Kind SymbolicRefKind
	// Target is the short branch name, the full ref name or the lowercase
	// object id, depending on Kind.
	Target string
}

// ParseSymbolicRef classifies the content of a ref pointer file such as
// .git/HEAD: "ref: refs/heads/<name>", an object id or anything else.
func ParseSymbolicRef(text string) SymbolicReference {
	c := cursor.New(text)
	c.SkipSpaces()
	if c.SkipValue("ref:") {
		c.SkipSpaces()
		name := plumbing.ReferenceName(strings.TrimSpace(c.ReadLine()))
		switch {
		case name == "":
			return SymbolicReference{}
		case name.IsBranch():
			return SymbolicReference{Kind: SymbolicRefLocalBranch, Target: name.Short()}
		default:
			return SymbolicReference{Kind: SymbolicRefReference, Target: name.String()}
		}
	}
	// FETCH_HEAD-style files carry a description after the id.
	hash, ok := c.ReadHash()
	if !ok {
		return SymbolicReference{}
	}
	switch c.Peek() {
	case 0, ' ', '\t', '\r', '\n':
		return SymbolicReference{Kind: SymbolicRefRevision, Target: hash}
	}
	return SymbolicReference{}
}
