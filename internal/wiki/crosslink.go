package wiki

import (
	"fmt"
	"regexp"
	"strings"
)

var backtickIdentifier = regexp.MustCompile("`([A-Za-z_][A-Za-z0-9_.]*)`")

// crossLink rewrites backticked identifiers in markdown that resolve
// unambiguously in reg to links targeting the file page where they are
// defined. sourceFiles are the page's own contributing files, used to
// break definition-site ambiguity in favor of a same-file declaration.
// A qualified name ("pkg.Foo") resolves against its final segment.
func crossLink(markdown string, reg *EntityRegistry, sourceFiles []string) string {
	preferFiles := make(map[string]bool, len(sourceFiles))
	for _, f := range sourceFiles {
		preferFiles[f] = true
	}
	return backtickIdentifier.ReplaceAllStringFunc(markdown, func(match string) string {
		token := strings.Trim(match, "`")
		name := token
		if i := strings.LastIndex(token, "."); i >= 0 {
			name = token[i+1:]
		}
		def, ok := reg.Resolve(name, preferFiles)
		if !ok {
			return match
		}
		return fmt.Sprintf("[`%s`](%s)", token, filePageLink(def.FilePath))
	})
}

// filePageLink is the wiki-root-relative path of the per-file page for
// path, e.g. "internal/a/b.go" -> "files/internal/a/b.go.md".
func filePageLink(path string) string {
	return "files/" + path + ".md"
}
