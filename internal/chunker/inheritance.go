package chunker

import (
	"strings"

	"github.com/deepwiki-go/deepwiki/internal/parser"
)

// parentClasses extracts the base-class / interface names a class node
// declares, by scanning the grammar fields its language spec marks as
// inheritance-bearing (spec.BaseFields) for identifier-shaped child text.
// Grammars vary too much (Python's bare argument_list, Java's separate
// superclass/interfaces fields, C++'s base_class_clause list) to parse
// precisely without one hand-written extractor per language, so this walks
// every named descendant of the field and keeps short, identifier-like
// tokens — a best-effort analogue, not a type checker.
func parentClasses(cn *parser.Node, spec parser.Fields) []string {
	var names []string
	seen := make(map[string]bool)
	for _, field := range spec.BaseFields {
		fieldNode := cn.ChildByField(field)
		if fieldNode == nil {
			continue
		}
		for _, name := range identifierLikeDescendants(fieldNode) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func identifierLikeDescendants(n *parser.Node) []string {
	var out []string
	var walk func(*parser.Node)
	walk = func(node *parser.Node) {
		children := node.Children()
		if len(children) == 0 {
			if looksLikeIdentifier(node.Text()) {
				out = append(out, node.Text())
			}
			return
		}
		for _, c := range children {
			walk(c)
		}
	}
	walk(n)
	return out
}

func looksLikeIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}
