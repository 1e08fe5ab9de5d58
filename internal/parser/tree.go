// Package parser drives per-language tree-sitter grammars and exposes a
// uniform tree + byte-source view: find nodes by type, read a node's text,
// and read a node's declared name and docstring. It never suspends once a
// Tree exists; all I/O happens in Parser.ParseFile.
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Node is a thin, source-aware wrapper around a tree-sitter node.
type Node struct {
	n      *sitter.Node
	source []byte
	lang   *languageSpec
}

// Raw returns the underlying tree-sitter node, for callers that need
// grammar-specific traversal the generic helpers don't cover.
func (n *Node) Raw() *sitter.Node { return n.n }

// Kind returns the grammar's node type name (e.g. "function_declaration").
func (n *Node) Kind() string {
	if n == nil || n.n == nil {
		return ""
	}
	return n.n.Kind()
}

// Text returns the node's exact byte-range text.
func (n *Node) Text() string {
	if n == nil || n.n == nil {
		return ""
	}
	return string(n.source[n.n.StartByte():n.n.EndByte()])
}

// StartLine is the 1-based inclusive start line.
func (n *Node) StartLine() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.StartPosition().Row) + 1
}

// EndLine is the 1-based inclusive end line.
func (n *Node) EndLine() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.EndPosition().Row) + 1
}

// Parent returns the wrapped parent node, or nil at the root.
func (n *Node) Parent() *Node {
	if n == nil || n.n == nil {
		return nil
	}
	p := n.n.Parent()
	if p == nil {
		return nil
	}
	return &Node{n: p, source: n.source, lang: n.lang}
}

// Children returns all direct children, wrapped.
func (n *Node) Children() []*Node {
	if n == nil || n.n == nil {
		return nil
	}
	count := int(n.n.ChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.n.Child(uint(i))
		if c == nil {
			continue
		}
		out = append(out, &Node{n: c, source: n.source, lang: n.lang})
	}
	return out
}

// ChildByField returns the child bound to the given grammar field name
// (e.g. "name", "body", "parameters"), or nil.
func (n *Node) ChildByField(field string) *Node {
	if n == nil || n.n == nil {
		return nil
	}
	c := n.n.ChildByFieldName(field)
	if c == nil {
		return nil
	}
	return &Node{n: c, source: n.source, lang: n.lang}
}

// DeclaredName returns the node's name, following the language's
// "name" field, with a fallback search over the language's
// identifierNodeTypes for grammars that expose the identifier as a plain child instead of a
// named field (e.g. Ruby method names).
func (n *Node) DeclaredName() string {
	if n == nil || n.n == nil || n.lang == nil {
		return ""
	}
	if nameNode := n.ChildByField("name"); nameNode != nil {
		return nameNode.Text()
	}
	for _, t := range n.lang.identifierNodeTypes {
		for _, c := range n.Children() {
			if c.Kind() == t {
				return c.Text()
			}
		}
	}
	return ""
}

// IsAnyKind reports whether the node's kind is present in types.
func (n *Node) IsAnyKind(types map[string]bool) bool {
	if n == nil {
		return false
	}
	return types[n.Kind()]
}

// Tree is a parsed file: its root node plus the original source bytes,
// retained for provenance even when display strings use lossy decoding.
type Tree struct {
	root     *Node
	source   []byte
	lines    []string
	Language string
	FilePath string
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Source returns the original file bytes.
func (t *Tree) Source() []byte { return t.source }

// LineCount returns the number of lines in the source (split on '\n').
func (t *Tree) LineCount() int { return len(t.lines) }

// Lines returns the source split into lines, 0-indexed.
func (t *Tree) Lines() []string { return t.lines }

// LinesRange extracts source lines [start,end] (1-based, inclusive),
// clamping end to the file's line count.
func (t *Tree) LinesRange(start, end int) string {
	if start < 1 || end < start || start > len(t.lines) {
		return ""
	}
	if end > len(t.lines) {
		end = len(t.lines)
	}
	return strings.Join(t.lines[start-1:end], "\n")
}

// FindAll returns every descendant node (including root) whose kind is in
// types, in pre-order. It never descends past the first match, mirroring
// the chunker's need to avoid recursing into a matched class body when
// looking for top-level classes.
func (t *Tree) FindAll(types map[string]bool) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.IsAnyKind(types) {
			out = append(out, n)
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// FindAllRecursive is like FindAll but always descends into children of a
// match too (used when nested matches of the same kind are meaningful,
// e.g. functions nested in functions).
func (t *Tree) FindAllRecursive(types map[string]bool) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.IsAnyKind(types) {
			out = append(out, n)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// IsNestedIn reports whether node has an ancestor whose kind is in types.
func IsNestedIn(n *Node, types map[string]bool) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.IsAnyKind(types) {
			return true
		}
	}
	return false
}
