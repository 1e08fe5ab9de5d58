package wiki

import "sort"

// seeAlsoLink is one ranked cross-reference to another page.
type seeAlsoLink struct {
	Path    string
	Overlap int
}

// computeSeeAlso ranks every other page by the Jaccard-style overlap
// (shared contributing file count) against this page's own contributing
// file set, returning up to maxLinks entries, highest overlap first, ties
// broken by path for determinism.
func computeSeeAlso(pagePath string, pageSources map[string]bool, allSources map[string]map[string]bool, maxLinks int) []seeAlsoLink {
	var links []seeAlsoLink
	for other, sources := range allSources {
		if other == pagePath {
			continue
		}
		overlap := 0
		for f := range pageSources {
			if sources[f] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		links = append(links, seeAlsoLink{Path: other, Overlap: overlap})
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Overlap != links[j].Overlap {
			return links[i].Overlap > links[j].Overlap
		}
		return links[i].Path < links[j].Path
	})
	if len(links) > maxLinks {
		links = links[:maxLinks]
	}
	return links
}

// appendSeeAlso appends a "See Also" section for the given ranked links.
func appendSeeAlso(markdown string, links []seeAlsoLink) string {
	if len(links) == 0 {
		return markdown
	}
	out := markdown + "\n\n## See Also\n\n"
	for _, l := range links {
		out += "- [" + l.Path + "](" + l.Path + ")\n"
	}
	return out
}
