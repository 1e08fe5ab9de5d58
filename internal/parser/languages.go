package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	swift "github.com/tree-sitter-grammars/tree-sitter-swift/bindings/go"
)

// docStyle selects how DocString locates a node's preceding doc
// comment; see SPEC_FULL.md §4.1.
type docStyle int

const (
	docStylePythonExpr docStyle = iota // first string expr in body
	docStyleJSDoc                      // preceding /** ... */ comment
	docStyleLineBlock                  // contiguous preceding line/block comments
	docStyleBlockOnly                  // single preceding /* ... */ block comment
)

// languageSpec is a data-driven description of one supported language's
// grammar: which node kinds count as classes/functions/imports, where
// inheritance lives, and how doc comments are recognized. Keeping this as
// configuration (rather than one hand-written file per language) avoids
// fourteen near-duplicate tree-walkers for what is mechanically the same
// walk with a different node-type vocabulary.
type languageSpec struct {
	name       string
	extensions []string
	factory    func() *sitter.Language

	classNodeTypes      map[string]bool
	methodContainerKind string // node kind inside a class body that marks a method
	functionNodeTypes   map[string]bool
	importNodeTypes     map[string]bool
	commentNodeTypes    map[string]bool
	identifierNodeTypes []string // fallback DeclaredName search order

	// baseFields are grammar field names that may hold an inheritance or
	// interface-implementation list; parentClasses scans them for
	// identifier-shaped child text.
	baseFields []string

	docStyle docStyle
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

var languageSpecs = []*languageSpec{
	{
		name:                "python",
		extensions:          []string{".py"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(python.Language()) },
		classNodeTypes:      set("class_definition"),
		methodContainerKind: "function_definition",
		functionNodeTypes:   set("function_definition"),
		importNodeTypes:     set("import_statement", "import_from_statement"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"identifier"},
		baseFields:          []string{"superclasses"},
		docStyle:            docStylePythonExpr,
	},
	{
		name:                "go",
		extensions:          []string{".go"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(golang.Language()) },
		classNodeTypes:      set("type_spec"),
		methodContainerKind: "method_declaration",
		functionNodeTypes:   set("function_declaration", "method_declaration"),
		importNodeTypes:     set("import_declaration"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"type_identifier", "identifier"},
		baseFields:          []string{"type"},
		docStyle:            docStyleLineBlock,
	},
	{
		name:                "javascript",
		extensions:          []string{".js", ".jsx", ".mjs", ".cjs"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(javascript.Language()) },
		classNodeTypes:      set("class_declaration"),
		methodContainerKind: "method_definition",
		functionNodeTypes:   set("function_declaration"),
		importNodeTypes:     set("import_statement"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"identifier"},
		baseFields:          []string{"heritage", "superclass"},
		docStyle:            docStyleJSDoc,
	},
	{
		name:                "typescript",
		extensions:          []string{".ts"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(typescript.LanguageTypescript()) },
		classNodeTypes:      set("class_declaration"),
		methodContainerKind: "method_definition",
		functionNodeTypes:   set("function_declaration"),
		importNodeTypes:     set("import_statement"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"type_identifier", "identifier"},
		baseFields:          []string{"heritage", "superclass", "interfaces"},
		docStyle:            docStyleJSDoc,
	},
	{
		name:                "tsx",
		extensions:          []string{".tsx"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(typescript.LanguageTSX()) },
		classNodeTypes:      set("class_declaration"),
		methodContainerKind: "method_definition",
		functionNodeTypes:   set("function_declaration"),
		importNodeTypes:     set("import_statement"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"type_identifier", "identifier"},
		baseFields:          []string{"heritage", "superclass", "interfaces"},
		docStyle:            docStyleJSDoc,
	},
	{
		name:                "rust",
		extensions:          []string{".rs"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(rust.Language()) },
		classNodeTypes:      set("struct_item", "enum_item", "trait_item"),
		methodContainerKind: "function_item",
		functionNodeTypes:   set("function_item"),
		importNodeTypes:     set("use_declaration"),
		commentNodeTypes:    set("line_comment", "block_comment"),
		identifierNodeTypes: []string{"type_identifier", "identifier"},
		baseFields:          []string{"trait", "bounds"},
		docStyle:            docStyleLineBlock,
	},
	{
		name:                "java",
		extensions:          []string{".java"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(java.Language()) },
		classNodeTypes:      set("class_declaration", "interface_declaration", "enum_declaration"),
		methodContainerKind: "method_declaration",
		functionNodeTypes:   set("method_declaration"),
		importNodeTypes:     set("import_declaration"),
		commentNodeTypes:    set("line_comment", "block_comment"),
		identifierNodeTypes: []string{"identifier"},
		baseFields:          []string{"superclass", "interfaces"},
		docStyle:            docStyleLineBlock,
	},
	{
		name:                "c",
		extensions:          []string{".c", ".h"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(c.Language()) },
		classNodeTypes:      set("struct_specifier", "enum_specifier"),
		methodContainerKind: "",
		functionNodeTypes:   set("function_definition"),
		importNodeTypes:     set("preproc_include"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"type_identifier", "identifier"},
		docStyle:            docStyleBlockOnly,
	},
	{
		name:                "cpp",
		extensions:          []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(cpp.Language()) },
		classNodeTypes:      set("class_specifier", "struct_specifier"),
		methodContainerKind: "function_definition",
		functionNodeTypes:   set("function_definition"),
		importNodeTypes:     set("preproc_include"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"type_identifier", "identifier"},
		baseFields:          []string{"base_class_clause"},
		docStyle:            docStyleBlockOnly,
	},
	{
		name:                "swift",
		extensions:          []string{".swift"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(swift.Language()) },
		classNodeTypes:      set("class_declaration"),
		methodContainerKind: "function_declaration",
		functionNodeTypes:   set("function_declaration"),
		importNodeTypes:     set("import_declaration"),
		commentNodeTypes:    set("comment", "multiline_comment"),
		identifierNodeTypes: []string{"type_identifier", "simple_identifier"},
		baseFields:          []string{"inheritance_specifier"},
		docStyle:            docStyleLineBlock,
	},
	{
		name:                "ruby",
		extensions:          []string{".rb"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(ruby.Language()) },
		classNodeTypes:      set("class"),
		methodContainerKind: "method",
		functionNodeTypes:   set("method"),
		importNodeTypes:     set("call"), // require/require_relative are `call` nodes; filtered by text
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"constant", "identifier"},
		baseFields:          []string{"superclass"},
		docStyle:            docStyleLineBlock,
	},
	{
		name:                "php",
		extensions:          []string{".php"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(php.LanguagePHP()) },
		classNodeTypes:      set("class_declaration", "interface_declaration"),
		methodContainerKind: "method_declaration",
		functionNodeTypes:   set("function_definition"),
		importNodeTypes:     set("namespace_use_declaration"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"name"},
		baseFields:          []string{"base_clause", "class_interface_clause"},
		docStyle:            docStyleLineBlock,
	},
	{
		name:                "kotlin",
		extensions:          []string{".kt", ".kts"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(kotlin.Language()) },
		classNodeTypes:      set("class_declaration"),
		methodContainerKind: "function_declaration",
		functionNodeTypes:   set("function_declaration"),
		importNodeTypes:     set("import_header"),
		commentNodeTypes:    set("line_comment", "multiline_comment"),
		identifierNodeTypes: []string{"type_identifier", "simple_identifier"},
		baseFields:          []string{"delegation_specifier"},
		docStyle:            docStyleLineBlock,
	},
	{
		name:                "csharp",
		extensions:          []string{".cs"},
		factory:             func() *sitter.Language { return sitter.NewLanguage(csharp.Language()) },
		classNodeTypes:      set("class_declaration", "interface_declaration", "struct_declaration"),
		methodContainerKind: "method_declaration",
		functionNodeTypes:   set("method_declaration"),
		importNodeTypes:     set("using_directive"),
		commentNodeTypes:    set("comment"),
		identifierNodeTypes: []string{"identifier"},
		baseFields:          []string{"bases"},
		docStyle:            docStyleLineBlock,
	},
}

// languagesByExt maps a lowercase file extension (with leading dot) to its
// spec, built once at package init.
var languagesByExt = func() map[string]*languageSpec {
	m := make(map[string]*languageSpec)
	for _, spec := range languageSpecs {
		for _, ext := range spec.extensions {
			m[ext] = spec
		}
	}
	return m
}()

// specByName looks up a language spec by its canonical name (as stored on
// Chunk.Language), for callers that already know the language tag.
func specByName(name string) *languageSpec {
	for _, s := range languageSpecs {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Fields exposes the node-type vocabulary of one language to packages
// outside parser (the chunker) without leaking the sitter-level languageSpec.
type Fields struct {
	ClassTypes    map[string]bool
	FunctionTypes map[string]bool
	ImportTypes   map[string]bool
	BaseFields    []string
}

// FieldsFor returns the node-type vocabulary for a language name previously
// returned by LanguageForPath, or the zero Fields for an unknown name.
func FieldsFor(lang string) Fields {
	spec := specByName(lang)
	if spec == nil {
		return Fields{}
	}
	return Fields{
		ClassTypes:    spec.classNodeTypes,
		FunctionTypes: spec.functionNodeTypes,
		ImportTypes:   spec.importNodeTypes,
		BaseFields:    spec.baseFields,
	}
}
