package wiki

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

// buildInheritanceGraph constructs a directed graph over every class and
// interface chunk, with an edge from a class to each base class or
// interface named in its parent_classes metadata (grounded on
// internal/graph/searcher.go's call-graph construction: vertices added
// first, then edges, tolerating edges to names with no vertex of their
// own since a base class may live outside the indexed set).
func buildInheritanceGraph(classChunks []parsetree.Chunk) graph.Graph[string, string] {
	g := graph.New(graph.StringHash, graph.Directed())
	for _, c := range classChunks {
		_ = g.AddVertex(c.Name)
	}
	for _, c := range classChunks {
		for _, parent := range parentClassNames(c) {
			_ = g.AddVertex(parent) // no-op if already present
			_ = g.AddEdge(c.Name, parent)
		}
	}
	return g
}

func parentClassNames(c parsetree.Chunk) []string {
	raw, ok := c.Metadata["parent_classes"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// renderInheritanceMermaid renders g as a Mermaid flowchart block.
func renderInheritanceMermaid(g graph.Graph[string, string]) (string, error) {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return "", err
	}
	nodes := make([]string, 0, len(adjacency))
	for n := range adjacency {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	var b strings.Builder
	b.WriteString("```mermaid\nflowchart TD\n")
	for _, n := range nodes {
		edges := adjacency[n]
		targets := make([]string, 0, len(edges))
		for t := range edges {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			fmt.Fprintf(&b, "    %s --> %s\n", mermaidID(n), mermaidID(t))
		}
		if len(targets) == 0 {
			fmt.Fprintf(&b, "    %s\n", mermaidID(n))
		}
	}
	b.WriteString("```\n")
	return b.String(), nil
}

// mermaidID sanitizes a class name into a bare Mermaid node id.
func mermaidID(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(name)
}
