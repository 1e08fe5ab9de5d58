package wiki

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// searchEntry is one row of the plain search.json data file described in
// spec.md §6.
type searchEntry struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Headings []string `json:"headings"`
	Snippets []string `json:"snippets"`
}

var headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.*)$`)

// writeSearchIndex builds an in-memory bleve index over every page's
// rendered content purely to obtain representative snippets from its
// highlighter, then discards the index: the persisted artifact is the
// plain search.json data file, not the bleve index itself.
func writeSearchIndex(wikiDir string, pages map[string]*PageStatus, tasks []pageTask) error {
	titleFor := make(map[string]string, len(tasks))
	for _, t := range tasks {
		titleFor[t.path] = t.title
	}

	content := make(map[string]string, len(tasks))
	for path := range pages {
		data, err := os.ReadFile(filepath.Join(wikiDir, path))
		if err != nil {
			continue // page failed this run; omit it from search rather than abort the whole wiki
		}
		content[path] = string(data)
	}

	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("%w: create search index: %v", deepwikierr.ErrStore, err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for path, body := range content {
		if err := batch.Index(path, map[string]string{"text": body}); err != nil {
			return fmt.Errorf("%w: index page %s: %v", deepwikierr.ErrStore, path, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return fmt.Errorf("%w: commit search batch: %v", deepwikierr.ErrStore, err)
	}

	var entries []searchEntry
	for path, body := range content {
		entries = append(entries, searchEntry{
			Path:     path,
			Title:    titleFor[path],
			Headings: extractHeadings(body),
			Snippets: snippetsFor(index, path, body),
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal search.json: %v", deepwikierr.ErrStore, err)
	}
	if err := os.WriteFile(filepath.Join(wikiDir, "search.json"), data, 0o644); err != nil {
		return fmt.Errorf("%w: write search.json: %v", deepwikierr.ErrStore, err)
	}
	return nil
}

func extractHeadings(body string) []string {
	matches := headingPattern.FindAllStringSubmatch(body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// snippetsFor runs a match query built from the page's first eight words,
// takes the single best hit, and, when that hit is this page, returns up
// to three of bleve's highlighted fragments of its text field.
func snippetsFor(index bleve.Index, path, body string) []string {
	words := strings.Fields(body)
	if len(words) == 0 {
		return nil
	}
	sample := words
	if len(sample) > 8 {
		sample = sample[:8]
	}
	q := bleve.NewMatchQuery(strings.Join(sample, " "))
	q.SetField("text")
	req := bleve.NewSearchRequestOptions(q, 1, 0, false)
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Fields = []string{"text"}

	result, err := index.Search(req)
	if err != nil || len(result.Hits) == 0 {
		return nil
	}
	var snippets []string
	for _, hit := range result.Hits {
		if hit.ID != path {
			continue
		}
		for _, frag := range hit.Fragments {
			snippets = append(snippets, frag...)
		}
	}
	if len(snippets) > 3 {
		snippets = snippets[:3]
	}
	return snippets
}
