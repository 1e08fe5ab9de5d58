package wiki

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// tocSection is one entry in the hierarchical, dotted-number table of
// contents written to toc.json.
type tocSection struct {
	Number   string        `json:"number"`
	Title    string        `json:"title"`
	Path     string        `json:"path,omitempty"`
	Children []*tocSection `json:"children,omitempty"`
}

type tocDocument struct {
	Version  int           `json:"version"`
	Sections []*tocSection `json:"sections"`
}

// fixedPageOrder fixes the top-level numbering; inheritance.md is not part
// of fixedPages() because it is generated from the class graph rather than
// search, but it still gets a numbered top-level slot.
var fixedPageOrder = []string{
	"index.md", "architecture.md", "dependencies.md", "inheritance.md",
	"coverage.md", "changelog.md", "glossary.md", "freshness.md",
}

func writeTOC(wikiDir string, tasks []pageTask) error {
	titleFor := make(map[string]string, len(tasks))
	for _, t := range tasks {
		titleFor[t.path] = t.title
	}

	doc := tocDocument{Version: 1}
	for i, path := range fixedPageOrder {
		doc.Sections = append(doc.Sections, &tocSection{
			Number: fmt.Sprintf("%d", i+1),
			Title:  titleFor[path],
			Path:   path,
		})
	}

	var filePaths []string
	for path := range titleFor {
		if strings.HasPrefix(path, "files/") {
			filePaths = append(filePaths, strings.TrimSuffix(strings.TrimPrefix(path, "files/"), ".md"))
		}
	}
	sort.Strings(filePaths)
	if len(filePaths) > 0 {
		filesNumber := fmt.Sprintf("%d", len(fixedPageOrder)+1)
		doc.Sections = append(doc.Sections, &tocSection{
			Number:   filesNumber,
			Title:    "Files",
			Children: buildFileTree(filePaths, filesNumber),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal toc: %v", deepwikierr.ErrStore, err)
	}
	if err := os.WriteFile(filepath.Join(wikiDir, "toc.json"), data, 0o644); err != nil {
		return fmt.Errorf("%w: write toc.json: %v", deepwikierr.ErrStore, err)
	}
	return nil
}

// buildFileTree groups slash-separated source paths into a directory tree
// of tocSections, numbered "<prefix>.1", "<prefix>.2", ... at each level.
func buildFileTree(paths []string, prefix string) []*tocSection {
	type node struct {
		name     string
		filePath string // set on leaves
		children map[string]*node
		order    []string
	}
	root := &node{children: make(map[string]*node)}

	for _, p := range paths {
		parts := strings.Split(p, "/")
		cur := root
		for i, part := range parts {
			child, ok := cur.children[part]
			if !ok {
				child = &node{name: part, children: make(map[string]*node)}
				cur.children[part] = child
				cur.order = append(cur.order, part)
			}
			if i == len(parts)-1 {
				child.filePath = p
			}
			cur = child
		}
	}

	var render func(n *node, number string) []*tocSection
	render = func(n *node, number string) []*tocSection {
		var out []*tocSection
		for i, name := range n.order {
			child := n.children[name]
			childNumber := fmt.Sprintf("%s.%d", number, i+1)
			sec := &tocSection{Number: childNumber, Title: name}
			if child.filePath != "" {
				sec.Path = filePageLink(child.filePath)
			}
			sec.Children = render(child, childNumber)
			out = append(out, sec)
		}
		return out
	}
	return render(root, prefix)
}
