// Package chunker turns a parsed source file into the semantic Chunks the
// vector store indexes: one module chunk, one imports chunk, one chunk per
// top-level class (or a class-summary plus one chunk per method for large
// classes), and one chunk per top-level function.
package chunker

import (
	"strings"

	"github.com/deepwiki-go/deepwiki/internal/parser"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

// DefaultClassSplitThreshold is the raw source-line count above which a
// class is split into a class-summary chunk plus one chunk per method,
// rather than emitted whole. Counted in raw lines (start to end of the
// class node), matching the teacher's extraction-size check rather than a
// method-count heuristic.
const DefaultClassSplitThreshold = 100

// Chunk walks tree and emits every semantic chunk for one file.
func Chunk(tree *parser.Tree, path, lang string, classSplitThreshold int) []parsetree.Chunk {
	if classSplitThreshold <= 0 {
		classSplitThreshold = DefaultClassSplitThreshold
	}
	spec := parser.FieldsFor(lang)

	var out []parsetree.Chunk
	out = append(out, moduleChunk(tree, path, lang, spec))
	if ic := importsChunk(tree, path, lang, spec); ic != nil {
		out = append(out, *ic)
	}

	classNodes := tree.FindAll(spec.ClassTypes)
	for _, cn := range classNodes {
		out = append(out, classChunks(tree, cn, path, lang, spec, classSplitThreshold)...)
	}

	funcNodes := tree.FindAll(spec.FunctionTypes)
	for _, fn := range funcNodes {
		if parser.IsNestedIn(fn, spec.ClassTypes) {
			continue // already covered as a method inside classChunks
		}
		out = append(out, functionChunk(tree, fn, path, lang, spec))
	}

	return out
}

func moduleChunk(tree *parser.Tree, path, lang string, spec parser.Fields) parsetree.Chunk {
	root := tree.Root()

	imports := tree.FindAll(spec.ImportTypes)
	importTexts := make([]string, 0, len(imports))
	for i, n := range imports {
		if i >= 10 {
			break
		}
		importTexts = append(importTexts, strings.TrimSpace(n.Text()))
	}

	var names []string
	for _, n := range tree.FindAll(spec.ClassTypes) {
		if name := n.DeclaredName(); name != "" {
			names = append(names, name)
		}
	}
	for _, n := range tree.FindAll(spec.FunctionTypes) {
		if parser.IsNestedIn(n, spec.ClassTypes) {
			continue
		}
		if name := n.DeclaredName(); name != "" {
			names = append(names, name)
		}
	}

	content := strings.TrimSpace(strings.Join(importTexts, "\n") + "\n\n" + strings.Join(names, ", "))
	return parsetree.Chunk{
		ID:        parsetree.NewID(path, "__module__", 1),
		FilePath:  path,
		Language:  lang,
		Kind:      parsetree.KindModule,
		Name:      path,
		Content:   content,
		StartLine: root.StartLine(),
		EndLine:   root.EndLine(),
	}
}

func importsChunk(tree *parser.Tree, path, lang string, spec parser.Fields) *parsetree.Chunk {
	imports := tree.FindAll(spec.ImportTypes)
	if len(imports) == 0 {
		return nil
	}
	texts := make([]string, 0, len(imports))
	start, end := imports[0].StartLine(), imports[0].EndLine()
	for _, n := range imports {
		texts = append(texts, strings.TrimSpace(n.Text()))
		if n.StartLine() < start {
			start = n.StartLine()
		}
		if n.EndLine() > end {
			end = n.EndLine()
		}
	}
	return &parsetree.Chunk{
		ID:        parsetree.NewID(path, "__imports__", start),
		FilePath:  path,
		Language:  lang,
		Kind:      parsetree.KindImport,
		Name:      "imports",
		Content:   strings.Join(texts, "\n"),
		StartLine: start,
		EndLine:   end,
		Metadata:  map[string]any{"import_count": len(imports)},
	}
}

func classChunks(tree *parser.Tree, cn *parser.Node, path, lang string, spec parser.Fields, threshold int) []parsetree.Chunk {
	name := cn.DeclaredName()
	rawLines := cn.EndLine() - cn.StartLine() + 1
	parents := parentClasses(cn, spec)
	doc := parser.DocString(tree, cn)

	if rawLines <= threshold {
		return []parsetree.Chunk{{
			ID:         parsetree.NewID(path, name, cn.StartLine()),
			FilePath:   path,
			Language:   lang,
			Kind:       parsetree.KindClass,
			Name:       name,
			Docstring:  doc,
			Content:    cn.Text(),
			StartLine:  cn.StartLine(),
			EndLine:    cn.EndLine(),
			Metadata:   map[string]any{"parent_classes": parents},
		}}
	}

	methods := methodNodesOf(cn, spec)
	methodNames := make([]string, 0, len(methods))
	for _, m := range methods {
		methodNames = append(methodNames, m.DeclaredName())
	}

	summary := parsetree.Chunk{
		ID:        parsetree.NewID(path, name, cn.StartLine()),
		FilePath:  path,
		Language:  lang,
		Kind:      parsetree.KindClassSumm,
		Name:      name,
		Docstring: doc,
		Content:   classSignatureLine(cn) + "\n# Methods: " + strings.Join(methodNames, ", "),
		StartLine: cn.StartLine(),
		EndLine:   cn.EndLine(),
		Metadata:  map[string]any{"parent_classes": parents, "method_count": len(methods)},
	}

	out := make([]parsetree.Chunk, 0, len(methods)+1)
	out = append(out, summary)
	for _, m := range methods {
		out = append(out, parsetree.Chunk{
			ID:         parsetree.NewID(path, m.DeclaredName(), m.StartLine()),
			FilePath:   path,
			Language:   lang,
			Kind:       parsetree.KindMethod,
			Name:       m.DeclaredName(),
			Docstring:  parser.DocString(tree, m),
			ParentName: name,
			Content:    m.Text(),
			StartLine:  m.StartLine(),
			EndLine:    m.EndLine(),
		})
	}
	return out
}

func functionChunk(tree *parser.Tree, fn *parser.Node, path, lang string, spec parser.Fields) parsetree.Chunk {
	name := fn.DeclaredName()
	return parsetree.Chunk{
		ID:        parsetree.NewID(path, name, fn.StartLine()),
		FilePath:  path,
		Language:  lang,
		Kind:      parsetree.KindFunction,
		Name:      name,
		Docstring: parser.DocString(tree, fn),
		Content:   fn.Text(),
		StartLine: fn.StartLine(),
		EndLine:   fn.EndLine(),
	}
}

// classSignatureLine returns the class node's text up to (but not
// including) its body, for use in a class-summary chunk.
func classSignatureLine(cn *parser.Node) string {
	body := cn.ChildByField("body")
	if body == nil {
		lines := strings.SplitN(cn.Text(), "\n", 2)
		return lines[0]
	}
	full := cn.Text()
	bodyText := body.Text()
	if idx := strings.Index(full, bodyText); idx > 0 {
		return strings.TrimSpace(full[:idx])
	}
	return strings.SplitN(full, "\n", 2)[0]
}

// methodNodesOf returns the function-kind nodes whose nearest class-kind
// ancestor is cn itself, in source order.
func methodNodesOf(cn *parser.Node, spec parser.Fields) []*parser.Node {
	var out []*parser.Node
	var walk func(n *parser.Node)
	walk = func(n *parser.Node) {
		for _, child := range n.Children() {
			if spec.FunctionTypes[child.Kind()] {
				out = append(out, child)
				continue // don't descend into nested functions twice
			}
			if spec.ClassTypes[child.Kind()] {
				continue // nested class has its own top-level chunk pass
			}
			walk(child)
		}
	}
	walk(cn)
	return out
}
