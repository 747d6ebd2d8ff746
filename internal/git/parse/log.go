// Package parse turns git's machine-readable output into typed records.
//
// Batch parsers take the complete output of a command; StatusParser is fed
// incrementally while the process is still running. All of them are built on
// cursor.Cursor and degrade to partial results on malformed input.
package parse

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/thiagokokada/gitrun/internal/git/cursor"
	"github.com/thiagokokada/gitrun/internal/git/graph"
)

// LogArgs are the arguments for a log query understood by ParseLog.
func LogArgs(revs ...string) []string {
	args := []string{"--no-pager", "log", "-z", "--format=raw", "--no-color", "--no-decorate", "--no-abbrev"}
	if len(revs) == 0 {
		revs = []string{"HEAD"}
	}
	args = append(args, revs...)
	return append(args, "--")
}

// LimitLog inserts "--max-count=n" into args built by LogArgs, ahead of the
// revisions.
func LimitLog(args []string, n int) []string {
	i := slices.Index(args, "--no-abbrev") + 1
	return slices.Insert(slices.Clone(args), i, "--max-count="+strconv.Itoa(n))
}

// ParseLog reads "git log --format=raw" output, NUL- or newline-separated,
// and fills one node per record in cache. Parents are resolved through the
// cache as each record is read; unseen parents become placeholders.
func ParseLog(text string, cache *graph.Cache) ([]*graph.Node, error) {
	c := cursor.New(text)
	var nodes []*graph.Node
	for {
		skipRecordSeparators(c)
		if c.IsAtEnd() {
			break
		}
		if !c.SkipValue("commit ") {
			c.SkipLine()
			continue
		}
		hash, ok := c.ReadHash()
		if !ok {
			c.SkipLine()
			continue
		}
		// Anything after the id (" (from <hash>)", decorations) is ignored.
		c.SkipLine()

		rec := graph.Record{Hash: hash}
		readRawHeaders(c, &rec)
		rec.Message = readRawMessage(c)
		nodes = append(nodes, cache.Fill(rec))
	}
	return nodes, nil
}

func skipRecordSeparators(c *cursor.Cursor) {
	for !c.IsAtEnd() {
		switch c.Peek() {
		case '\n', '\x00', '\r':
			c.Skip(1)
		default:
			return
		}
	}
}

func readRawHeaders(c *cursor.Cursor, rec *graph.Record) {
	for !c.IsAtEnd() {
		switch {
		case c.Peek() == '\x00':
			return
		case c.CheckValue("\n"), c.CheckValue("\r\n"):
			c.SkipLine()
			return
		case c.CheckValue("commit "):
			// Next record started without a message body.
			return
		case c.SkipValue("tree "):
			if hash, ok := c.ReadHash(); ok {
				rec.Tree = hash
			}
			c.SkipLine()
		case c.SkipValue("parent "):
			if hash, ok := c.ReadHash(); ok {
				rec.Parents = append(rec.Parents, hash)
			}
			c.SkipLine()
		case c.SkipValue("author "):
			rec.Author = parseSignature(c.ReadLine())
		case c.SkipValue("committer "):
			rec.Committer = parseSignature(c.ReadLine())
		default:
			// encoding, mergetag, gpgsig and its space-indented continuation
			// lines, "Reflog:" lines under --walk-reflogs.
			c.SkipLine()
		}
	}
}

func readRawMessage(c *cursor.Cursor) string {
	var lines []string
	for !c.IsAtEnd() {
		if c.Peek() == '\x00' || c.CheckValue("commit ") {
			break
		}
		line := c.ReadLine()
		lines = append(lines, strings.TrimPrefix(line, "    "))
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// parseSignature parses "Name <email> 1700000000 +0100".
func parseSignature(s string) graph.Signature {
	var sig graph.Signature
	open := strings.IndexByte(s, '<')
	closing := strings.LastIndexByte(s, '>')
	if open < 0 || closing < open {
		sig.Name = strings.TrimSpace(s)
		return sig
	}
	sig.Name = strings.TrimSpace(s[:open])
	sig.Email = s[open+1 : closing]
	fields := strings.Fields(s[closing+1:])
	if len(fields) == 0 {
		return sig
	}
	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return sig
	}
	loc := time.UTC
	if len(fields) > 1 {
		if tz, ok := parseTZ(fields[1]); ok {
			loc = tz
		}
	}
	sig.When = time.Unix(secs, 0).In(loc)
	return sig
}

func parseTZ(s string) (*time.Location, bool) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil, false
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil {
		return nil, false
	}
	minutes, err := strconv.Atoi(s[3:5])
	if err != nil {
		return nil, false
	}
	offset := hours*3600 + minutes*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(s, offset), true
}
