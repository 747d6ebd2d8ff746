package parse

import (
	"strconv"
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/cursor"
	"github.com/thiagokokada/gitrun/internal/git/graph"
)

// StashRef is the reference holding the stash reflog.
const StashRef = "refs/stash"

// ReflogEntry is one record from the first phase of a reflog query: the
// commit is known only by id.
type ReflogEntry struct {
	Index    int
	Selector string
	Message  string
	Hash     string
}

// ReflogRecord is a reflog entry bound to its commit node.
type ReflogRecord struct {
	Index    int
	Selector string
	Message  string
	Revision *graph.Node
}

// StashedState is one stash entry.
type StashedState struct {
	Index    int
	Message  string
	Revision *graph.Node
}

// ReflogArgs lists hash/selector/subject triples, NUL-terminated.
func ReflogArgs(ref string) []string {
	return []string{"--no-pager", "log", "--walk-reflogs", "-z", "--no-color", "--format=%H%x00%gd%x00%gs", ref, "--"}
}

// ReflogGraphArgs is the second phase of a reflog query: the same walk in raw
// format so the parents of exactly those commits can be filled in.
func ReflogGraphArgs(ref string) []string {
	return []string{"--no-pager", "log", "--walk-reflogs", "-z", "--format=raw", "--no-color", "--no-decorate", "--no-abbrev", ref, "--"}
}

// StashArgs lists the stash reflog in the ReflogArgs format.
func StashArgs() []string {
	return ReflogArgs(StashRef)
}

// ParseStash reads the output of a StashArgs query.
func ParseStash(text string) ([]ReflogEntry, error) {
	return ParseReflog(text)
}

// ParseReflog reads the output of a ReflogArgs query. Triples with an invalid
// id are dropped. The index comes from the "@{N}" selector, falling back to the
// record position for date-based selectors.
func ParseReflog(text string) ([]ReflogEntry, error) {
	c := cursor.New(text)
	var entries []ReflogEntry
	for pos := 0; ; pos++ {
		skipRecordSeparators(c)
		if c.IsAtEnd() {
			break
		}
		hashField := strings.TrimSpace(c.ReadUntil(0))
		selector := c.ReadUntil(0)
		message := c.ReadUntil(0)

		hc := cursor.New(hashField)
		hash, ok := hc.ReadHash()
		if !ok || !hc.IsAtEnd() {
			continue
		}
		entries = append(entries, ReflogEntry{
			Index:    selectorIndex(selector, pos),
			Selector: selector,
			Message:  message,
			Hash:     hash,
		})
	}
	return entries, nil
}

func selectorIndex(selector string, fallback int) int {
	open := strings.LastIndex(selector, "@{")
	if open < 0 || !strings.HasSuffix(selector, "}") {
		return fallback
	}
	n, err := strconv.Atoi(selector[open+2 : len(selector)-1])
	if err != nil {
		return fallback
	}
	return n
}

// ResolveReflog binds entries to nodes of cache.
func ResolveReflog(entries []ReflogEntry, cache *graph.Cache) []ReflogRecord {
	out := make([]ReflogRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReflogRecord{
			Index:    e.Index,
			Selector: e.Selector,
			Message:  e.Message,
			Revision: cache.GetOrCreate(e.Hash),
		})
	}
	return out
}

// ResolveStash binds stash reflog entries to nodes of cache.
func ResolveStash(entries []ReflogEntry, cache *graph.Cache) []StashedState {
	out := make([]StashedState, 0, len(entries))
	for _, e := range entries {
		out = append(out, StashedState{
			Index:    e.Index,
			Message:  e.Message,
			Revision: cache.GetOrCreate(e.Hash),
		})
	}
	return out
}
