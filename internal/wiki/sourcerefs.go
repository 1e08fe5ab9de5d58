package wiki

import (
	"fmt"
	"strings"

	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

// appendSourceRefs appends a "Relevant Source Files" section listing exact
// line ranges for every chunk that contributed to the page, grouped by
// file and ordered by start line.
func appendSourceRefs(markdown string, chunks []parsetree.Chunk) string {
	if len(chunks) == 0 {
		return markdown
	}
	byFile := make(map[string][]parsetree.Chunk)
	var order []string
	for _, c := range chunks {
		if _, ok := byFile[c.FilePath]; !ok {
			order = append(order, c.FilePath)
		}
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}

	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n\n## Relevant Source Files\n\n")
	for _, path := range order {
		b.WriteString(fmt.Sprintf("- `%s`\n", path))
		for _, c := range byFile[path] {
			b.WriteString(fmt.Sprintf("  - %s %s\n", entityLabel(c), formatLineRange(c.StartLine, c.EndLine)))
		}
	}
	return b.String()
}

func entityLabel(c parsetree.Chunk) string {
	if c.Name == "" {
		return string(c.Kind)
	}
	return c.Name
}

// formatLineRange formats a chunk's line span as a human-readable range.
func formatLineRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("(line %d)", start)
	}
	return fmt.Sprintf("(lines %d-%d)", start, end)
}
