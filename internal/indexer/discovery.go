package indexer

import (
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/deepwiki-go/deepwiki/internal/parser"
)

// discovery walks a repository tree, skipping paths matched by any
// exclude pattern, and reports every remaining file with a recognized
// source extension.
type discovery struct {
	rootDir  string
	excludes []glob.Glob
}

func newDiscovery(rootDir string, excludePatterns []string) (*discovery, error) {
	d := &discovery{rootDir: rootDir}
	for _, pattern := range excludePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.excludes = append(d.excludes, g)
	}
	return d, nil
}

// walk returns every non-ignored, non-directory path under rootDir whose
// extension maps to a supported language, as absolute paths, in lexical
// order (filepath.Walk's natural order).
func (d *discovery) walk() ([]string, error) {
	var out []string
	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if d.ignored(path) && path != d.rootDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.ignored(path) {
			return nil
		}
		if _, ok := parser.LanguageForPath(path); !ok {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

func (d *discovery) ignored(path string) bool {
	rel, err := filepath.Rel(d.rootDir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range d.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// DefaultExcludePatterns covers the directories essentially every repo
// wants skipped regardless of language.
var DefaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/.deepwiki/**",
	"**/dist/**",
	"**/build/**",
	"**/__pycache__/**",
	"**/*.min.js",
}
