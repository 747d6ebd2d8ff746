package git

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/gitrun/internal/git/graph"
)

// FormatCommitHeader renders n like "git show --no-patch" does.
func FormatCommitHeader(n *graph.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", n.Hash)
	if len(n.Parents) > 1 {
		parents := n.ParentHashes()
		for i, p := range parents {
			parents[i] = shortID(p)
		}
		fmt.Fprintf(&b, "Merge: %s\n", strings.Join(parents, " "))
	}
	appendSignatureLine(&b, "Author", n.Author)
	committer := n.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = n.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(n.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String()
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

func appendSignatureLine(b *strings.Builder, label string, sig graph.Signature) {
	fmt.Fprintf(b, "%s: %s <%s>", label, sig.Name, sig.Email)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}

// FormatSummary is the one-line form used by "gitrun log".
func FormatSummary(n *graph.Node) string {
	firstLine := n.Summary()
	if len(firstLine) > 80 {
		firstLine = firstLine[:77] + "..."
	}
	timestamp := n.Committer.When.Format("2006-01-02 15:04")
	return fmt.Sprintf("%s  %s  %s", shortID(n.Hash), timestamp, firstLine)
}

func shortID(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// GraphBuilder draws one lane line per commit for a list in topological
// order, newest first.
type GraphBuilder struct {
	columns []*graph.Node
}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{}
}

func (g *GraphBuilder) Line(n *graph.Node) string {
	if n == nil {
		return ""
	}
	idx := g.columnIndex(n)
	if idx == -1 {
		g.columns = append([]*graph.Node{n}, g.columns...)
		idx = 0
	}
	var b strings.Builder
	for i := range g.columns {
		if i == idx {
			b.WriteString("*")
		} else {
			b.WriteString("|")
		}
		if i != len(g.columns)-1 {
			b.WriteString(" ")
		}
	}
	g.advance(idx, n.Parents)
	return b.String()
}

// Nodes from one cache are compared by identity.
func (g *GraphBuilder) columnIndex(n *graph.Node) int {
	for i, c := range g.columns {
		if c == n {
			return i
		}
	}
	return -1
}

func (g *GraphBuilder) advance(idx int, parents []*graph.Node) {
	if len(parents) == 0 {
		g.columns = append(g.columns[:idx], g.columns[idx+1:]...)
		return
	}
	g.columns[idx] = parents[0]
	for i := 1; i < len(parents); i++ {
		parent := parents[i]
		g.removeColumn(parent)
		pos := idx + i
		if pos > len(g.columns) {
			pos = len(g.columns)
		}
		g.columns = append(g.columns[:pos], append([]*graph.Node{parent}, g.columns[pos:]...)...)
	}
}

func (g *GraphBuilder) removeColumn(n *graph.Node) {
	for i, c := range g.columns {
		if c == n {
			g.columns = append(g.columns[:i], g.columns[i+1:]...)
			return
		}
	}
}
