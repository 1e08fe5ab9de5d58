package wiki

import (
	"sort"

	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

// Definition is one place an entity name is declared.
type Definition struct {
	Name     string
	FilePath string
	Kind     parsetree.Kind
}

// EntityRegistry maps class/function/method names to every place they are
// declared, built once per generation run from the chunks the indexer
// produced. The cross-linker consults it to turn backticked identifiers in
// generated markdown into links.
type EntityRegistry struct {
	byName map[string][]Definition
}

var linkableKinds = map[parsetree.Kind]bool{
	parsetree.KindClass:     true,
	parsetree.KindClassSumm: true,
	parsetree.KindFunction:  true,
	parsetree.KindMethod:    true,
}

// BuildEntityRegistry scans every chunk for a linkable kind and records its
// name and declaring file.
func BuildEntityRegistry(chunks []parsetree.Chunk) *EntityRegistry {
	reg := &EntityRegistry{byName: make(map[string][]Definition)}
	seen := make(map[string]bool)
	for _, c := range chunks {
		if c.Name == "" || !linkableKinds[c.Kind] {
			continue
		}
		key := c.Name + "\x00" + c.FilePath
		if seen[key] {
			continue
		}
		seen[key] = true
		reg.byName[c.Name] = append(reg.byName[c.Name], Definition{Name: c.Name, FilePath: c.FilePath, Kind: c.Kind})
	}
	for name := range reg.byName {
		defs := reg.byName[name]
		sort.Slice(defs, func(i, j int) bool { return defs[i].FilePath < defs[j].FilePath })
		reg.byName[name] = defs
	}
	return reg
}

// Resolve looks up name and, if exactly one definition is unambiguous after
// preferring a definition declared in one of preferFiles (the page's own
// contributing sources) over any other, returns it. Resolution fails
// (ok=false) for unknown names and for ties that survive the same-file
// preference.
func (r *EntityRegistry) Resolve(name string, preferFiles map[string]bool) (Definition, bool) {
	defs := r.byName[name]
	if len(defs) == 0 {
		return Definition{}, false
	}
	if len(defs) == 1 {
		return defs[0], true
	}
	var local []Definition
	for _, d := range defs {
		if preferFiles[d.FilePath] {
			local = append(local, d)
		}
	}
	if len(local) == 1 {
		return local[0], true
	}
	return Definition{}, false
}
