package facade

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// resolveRepoRoot cleans and absolutizes a repo_path/wiki_path argument.
func resolveRepoRoot(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path must not be empty", deepwikierr.ErrInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", deepwikierr.ErrInput, err)
	}
	return filepath.Clean(abs), nil
}

// resolveWikiPage resolves page under <wikiRoot>/.deepwiki, rejecting any
// input that escapes that directory (a ".." traversal, an absolute path
// pointing elsewhere, or a symlink-free lexical escape) as an InputError
// before the caller ever opens the file.
func resolveWikiPage(wikiRoot, page string) (string, error) {
	if page == "" {
		return "", fmt.Errorf("%w: page must not be empty", deepwikierr.ErrInput)
	}
	base := filepath.Join(wikiRoot, ".deepwiki")
	full := filepath.Clean(filepath.Join(base, page))
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: page %q escapes wiki root", deepwikierr.ErrInput, page)
	}
	return full, nil
}
