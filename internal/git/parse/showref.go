package parse

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/thiagokokada/gitrun/internal/git/cursor"
)

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

func (k RefKind) String() string {
	switch k {
	case RefKindRemoteBranch:
		return "remote"
	case RefKindTag:
		return "tag"
	default:
		return "branch"
	}
}

type Ref struct {
	Hash string
	Kind RefKind
	Name string
}

// ShowRefArgs lists refs with peeled tags.
func ShowRefArgs() []string {
	return []string{"--no-pager", "show-ref", "--dereference"}
}

// ParseShowRef reads "git show-ref --dereference" output. Annotated tags
// resolve to the peeled commit; refs outside heads, remotes and tags are
// skipped.
func ParseShowRef(text string) ([]Ref, error) {
	type refEntry struct {
		hash string
		name plumbing.ReferenceName
	}

	peeledByTagRef := map[plumbing.ReferenceName]string{}
	var entries []refEntry

	c := cursor.New(text)
	for !c.IsAtEnd() {
		line := c.ReadLine()
		if line == "" {
			continue
		}
		lc := cursor.New(line)
		hash, ok := lc.ReadHash()
		if !ok || !lc.SkipByte(' ') || lc.IsAtEnd() {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", line)
		}
		name := lc.Rest()
		if base, peeled := strings.CutSuffix(name, "^{}"); peeled {
			if base != "" {
				peeledByTagRef[plumbing.ReferenceName(base)] = hash
			}
			continue
		}
		entries = append(entries, refEntry{hash: hash, name: plumbing.ReferenceName(name)})
	}

	var refs []Ref
	for _, entry := range entries {
		short := entry.name.Short()
		switch {
		case entry.name.IsTag():
			hash := entry.hash
			if peeled, ok := peeledByTagRef[entry.name]; ok {
				hash = peeled
			}
			refs = append(refs, Ref{Hash: hash, Kind: RefKindTag, Name: short})
		case entry.name.IsBranch():
			refs = append(refs, Ref{Hash: entry.hash, Kind: RefKindBranch, Name: short})
		case entry.name.IsRemote():
			refs = append(refs, Ref{Hash: entry.hash, Kind: RefKindRemoteBranch, Name: short})
		}
	}
	return refs, nil
}
