// Package graph holds commit nodes shared by identity across parses.
//
// A Cache is an arena keyed by object id: parsers never allocate nodes
// themselves, they ask the cache to get-or-create one and then fill it in.
// A node is never replaced once created, so a pointer obtained from one parse
// stays valid and observes what later parses learn about the same commit.
package graph

import (
	"strings"
	"sync"
	"time"
)

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Node is one commit. Fields are written only through Cache.Fill, under the
// cache lock; read them after the parse that fills them has completed.
type Node struct {
	Hash      string
	Tree      string
	Parents   []*Node
	Author    Signature
	Committer Signature
	Message   string
	// Loaded is false for placeholders created from a parent reference whose
	// own record has not been parsed yet.
	Loaded bool
}

// ParentHashes returns the ids of the node's parents.
func (n *Node) ParentHashes() []string {
	out := make([]string, len(n.Parents))
	for i, p := range n.Parents {
		out[i] = p.Hash
	}
	return out
}

// Summary returns the first line of the message.
func (n *Node) Summary() string {
	first, _, _ := strings.Cut(strings.TrimSpace(n.Message), "\n")
	return first
}

// Record is what a parser knows about one commit.
type Record struct {
	Hash      string
	Tree      string
	Parents   []string
	Author    Signature
	Committer Signature
	Message   string
}

// Cache maps object ids to nodes. It is safe for concurrent use; one mutex
// guards both the map and node mutation.
type Cache struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

func NewCache() *Cache {
	return &Cache{nodes: make(map[string]*Node)}
}

// GetOrCreate returns the node for hash, creating an unloaded placeholder on
// first reference.
func (c *Cache) GetOrCreate(hash string) *Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getOrCreateLocked(hash)
}

func (c *Cache) getOrCreateLocked(hash string) *Node {
	key := normalize(hash)
	if n, ok := c.nodes[key]; ok {
		return n
	}
	n := &Node{Hash: key}
	c.nodes[key] = n
	return n
}

// Fill gets or creates the node for rec.Hash and overwrites its contents in
// place, resolving parents through the cache.
func (c *Cache) Fill(rec Record) *Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.getOrCreateLocked(rec.Hash)
	parents := make([]*Node, 0, len(rec.Parents))
	for _, p := range rec.Parents {
		parents = append(parents, c.getOrCreateLocked(p))
	}
	n.Tree = normalize(rec.Tree)
	n.Parents = parents
	n.Author = rec.Author
	n.Committer = rec.Committer
	n.Message = rec.Message
	n.Loaded = true
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes)
}

func normalize(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
