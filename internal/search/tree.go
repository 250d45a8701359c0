package search

import (
	"slices"

	"github.com/Paintersrp/rgpanel/internal/ripgrep"
)

// Match is a single matching line inside a file.
type Match struct {
	File       string
	LineNumber int
	LineText   string
	Submatches []ripgrep.Submatch
}

// FileNode groups the matches reported for one file. A node is created when
// rg announces the file and is kept even if no match follows.
type FileNode struct {
	File    string
	Matches []Match
}

// Tree is the append-only result tree of a single run.
type Tree struct {
	files []*FileNode
	count int
}

func (t *Tree) reset() {
	t.files = nil
	t.count = 0
}

func (t *Tree) begin(file string) *FileNode {
	node := &FileNode{File: file}
	t.files = append(t.files, node)
	return node
}

// current returns the most recently begun file node, or nil.
func (t *Tree) current() *FileNode {
	if len(t.files) == 0 {
		return nil
	}
	return t.files[len(t.files)-1]
}

func (t *Tree) add(m Match) bool {
	node := t.current()
	if node == nil {
		return false
	}
	node.Matches = append(node.Matches, m)
	t.count++
	return true
}

// Len returns the number of file nodes.
func (t *Tree) Len() int {
	return len(t.files)
}

// MatchCount returns the number of matches appended to the tree.
func (t *Tree) MatchCount() int {
	return t.count
}

// Snapshot returns a deep copy of the tree that callers may keep.
func (t *Tree) Snapshot() []FileNode {
	if len(t.files) == 0 {
		return nil
	}
	out := make([]FileNode, 0, len(t.files))
	for _, node := range t.files {
		copied := FileNode{File: node.File}
		if len(node.Matches) > 0 {
			copied.Matches = make([]Match, len(node.Matches))
			for i, m := range node.Matches {
				m.Submatches = slices.Clone(m.Submatches)
				copied.Matches[i] = m
			}
		}
		out = append(out, copied)
	}
	return out
}

// Prune drops file nodes without matches. The session never prunes; this is
// for presentation code that prefers not to show empty files.
func Prune(nodes []FileNode) []FileNode {
	out := nodes[:0:0]
	for _, n := range nodes {
		if len(n.Matches) == 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}
