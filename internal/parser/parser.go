package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// Parser drives one sitter.Parser per language, reused across files, and
// turns raw source bytes into a Tree.
type Parser struct {
	maxFileSize int64 // bytes; files larger than this are skipped

	sitterParsers map[string]*sitter.Parser // keyed by languageSpec.name
}

// New constructs a Parser. maxFileSize <= 0 disables the size skip.
func New(maxFileSize int64) *Parser {
	return &Parser{
		maxFileSize:   maxFileSize,
		sitterParsers: make(map[string]*sitter.Parser),
	}
}

// LanguageForPath returns the canonical language name for a file path based
// on its extension, and whether the extension is recognized.
func LanguageForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	spec, ok := languagesByExt[ext]
	if !ok {
		return "", false
	}
	return spec.name, true
}

func (p *Parser) sitterFor(spec *languageSpec) *sitter.Parser {
	if sp, ok := p.sitterParsers[spec.name]; ok {
		return sp
	}
	sp := sitter.NewParser()
	sp.SetLanguage(spec.factory())
	p.sitterParsers[spec.name] = sp
	return sp
}

// ParseFile reads path, skipping it (with ErrSourceRead) if its extension is
// unrecognized or it exceeds maxFileSize, and returns a parsed Tree.
// Malformed UTF-8 never fails parsing: tree-sitter and byte-range extraction
// both operate on the raw bytes regardless of encoding validity.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	langName, ok := LanguageForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized extension for %s", deepwikierr.ErrSourceRead, path)
	}
	spec := specByName(langName)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", deepwikierr.ErrSourceRead, path, err)
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds max_file_size (%d > %d)", deepwikierr.ErrSourceRead, path, info.Size(), p.maxFileSize)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", deepwikierr.ErrSourceRead, path, err)
	}

	sp := p.sitterFor(spec)
	tree := sp.Parse(source, nil)
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("%w: tree-sitter produced no tree for %s", deepwikierr.ErrParse, path)
	}

	root := &Node{n: tree.RootNode(), source: source, lang: spec}
	return &Tree{
		root:     root,
		source:   source,
		lines:    strings.Split(string(source), "\n"),
		Language: spec.name,
		FilePath: path,
	}, nil
}

// DisplayText lossy-decodes b for use anywhere text must be valid UTF-8
// (logs, generated markdown, JSON). Byte-range extraction from Tree.Source
// never goes through this path, so provenance is unaffected by invalid
// encodings in the original file.
func DisplayText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
