// Package wiki generates the fixed documentation catalog (index,
// architecture, dependencies, inheritance, coverage, changelog, glossary,
// freshness, plus one page per source file) from the chunks held in a
// vectorstore.Store, and keeps it incrementally fresh across runs.
package wiki

import "time"

// Page is one generated markdown document.
type Page struct {
	Path    string // relative to the wiki root, e.g. "architecture.md" or "files/a/b.go.md"
	Title   string
	Content string
}

// SourceRef declares one chunk-bearing input a page depends on: either an
// entire file (FilePath set, Chunks nil) or a pre-selected set of chunks
// gathered by a query (Chunks set, FilePath describing their origin for
// display only).
type SourceRef struct {
	FilePath string
	Chunks   []string // chunk ids, when pre-selected by a query rather than a whole file
}

// PageStatus is the persisted freshness record for one generated page.
type PageStatus struct {
	Path          string            `json:"path"`
	Sources       []string          `json:"sources"` // contributing file paths, sorted
	SourceHashes  map[string]string `json:"source_hashes"`
	ContentHash   string            `json:"content_hash"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// GenerationStatus is the aggregate persisted at
// <repo>/.deepwiki/wiki_status.json.
type GenerationStatus struct {
	SchemaVersion int                    `json:"schema_version"`
	IndexHash     string                 `json:"index_hash"` // hash of the sorted chunk ids this wiki was built from
	GeneratedAt   time.Time              `json:"generated_at"`
	Pages         map[string]*PageStatus `json:"pages"`
}

// CurrentSchemaVersion is the GenerationStatus schema version this build writes.
const CurrentSchemaVersion = 1

// RunResult summarizes one Generator.Run invocation.
type RunResult struct {
	Status       *GenerationStatus
	Regenerated  []string // page paths that were (re)generated this run
	Reused       []string // page paths reused unchanged
	Failed       map[string]string
	Duration     time.Duration
}
