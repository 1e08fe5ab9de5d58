// Package parsetree holds the data model shared by the parser, chunker,
// indexer, and vector store: Chunk, FileInfo, and IndexStatus, plus the
// id scheme that makes chunk identity a pure function of file content.
package parsetree

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Kind enumerates the semantic unit a Chunk represents.
type Kind string

const (
	KindModule      Kind = "module"
	KindImport      Kind = "import"
	KindClass       Kind = "class"
	KindClassSumm   Kind = "class_summary"
	KindMethod      Kind = "method"
	KindFunction    Kind = "function"
	KindComment     Kind = "comment"
	KindOther       Kind = "other"
)

// ValidKinds is the closed enum VectorStore filters are validated against.
var ValidKinds = map[Kind]bool{
	KindModule:    true,
	KindImport:    true,
	KindClass:     true,
	KindClassSumm: true,
	KindMethod:    true,
	KindFunction:  true,
	KindComment:   true,
	KindOther:     true,
}

// Chunk is a byte-range extract from one source file carrying everything
// needed for retrieval and provenance.
type Chunk struct {
	ID         string
	FilePath   string
	Language   string
	Kind       Kind
	Name       string // optional entity name
	Docstring  string // optional
	ParentName string // optional; a class chunk's Name, for methods
	Content    string
	StartLine  int // 1-based, inclusive
	EndLine    int // 1-based, inclusive
	Metadata   map[string]any
}

// NewID computes the stable 16-hex-char chunk id: a truncated SHA-256 of
// "file_path:name:start_line". Two chunks with identical (path, name,
// startLine) collide by construction, which is why the chunker never
// emits two chunks with the same triple from one file.
func NewID(filePath, name string, startLine int) string {
	sum := sha256.Sum256([]byte(filePath + ":" + name + ":" + strconv.Itoa(startLine)))
	return hex.EncodeToString(sum[:])[:16]
}

// FileInfo records per-file bookkeeping used by the incremental indexer.
type FileInfo struct {
	Path         string
	Language     string // empty when unknown
	SizeBytes    int64
	LastModified time.Time
	ContentHash  string // sha256 hex of file bytes
	ChunkCount   int
}

// CurrentSchemaVersion is the IndexStatus schema version this build writes.
const CurrentSchemaVersion = 1

// IndexStatus is persisted once per indexing run at
// <repo>/.deepwiki/index_status.json.
type IndexStatus struct {
	SchemaVersion   int                `json:"schema_version"`
	RepoPath        string             `json:"repo_path"`
	IndexedAt       time.Time          `json:"indexed_at"`
	TotalFiles      int                `json:"total_files"`
	TotalChunks     int                `json:"total_chunks"`
	FilesByLanguage map[string]int     `json:"files_by_language"`
	Files           []FileInfo         `json:"files"`
	FailedFiles     map[string]string  `json:"failed_files,omitempty"` // path -> error
}

// ByPath indexes Files by path for O(1) diffing.
func (s *IndexStatus) ByPath() map[string]FileInfo {
	m := make(map[string]FileInfo, len(s.Files))
	for _, f := range s.Files {
		m[f.Path] = f
	}
	return m
}
