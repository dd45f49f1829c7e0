//go:build cgo

package extract

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeSitter extracts candidates by walking a real parse tree and
// collecting name-bearing nodes at declaration sites. It is the most
// precise strategy for the languages it covers; for everything else the
// composite falls back to the structural and lexer strategies.
type TreeSitter struct {
	mu      sync.Mutex
	parsers map[string]*sitter.Parser
}

// grammars maps language keys to tree-sitter grammar constructors.
// Swift, C and C++ stay regex-only: their grammars proved flaky on the
// partial files the scanner feeds us.
var grammars = map[string]func() *sitter.Language{
	"go":         golang.GetLanguage,
	"python":     python.GetLanguage,
	"javascript": javascript.GetLanguage,
	"typescript": typescript.GetLanguage,
	"java":       java.GetLanguage,
	"csharp":     csharp.GetLanguage,
	"ruby":       ruby.GetLanguage,
	"php":        php.GetLanguage,
	"kotlin":     kotlin.GetLanguage,
}

// declSites lists node types that introduce names, per language. An
// identifier node is collected when its parent is one of these.
var declSites = map[string]map[string]bool{
	"go": declSet(
		"function_declaration", "method_declaration", "type_spec",
		"const_spec", "var_spec", "short_var_declaration",
		"field_declaration", "parameter_declaration", "type_parameter_declaration",
	),
	"python": declSet(
		"function_definition", "class_definition", "parameters",
		"typed_parameter", "default_parameter", "typed_default_parameter",
		"assignment", "for_statement", "decorator", "type",
	),
	"javascript": declSet(
		"function_declaration", "generator_function_declaration",
		"class_declaration", "method_definition", "variable_declarator",
		"formal_parameters", "pair",
	),
	"typescript": declSet(
		"function_declaration", "generator_function_declaration",
		"class_declaration", "method_definition", "variable_declarator",
		"formal_parameters", "pair", "interface_declaration",
		"type_alias_declaration", "enum_declaration", "enum_assignment",
		"enum_body", "public_field_definition", "required_parameter",
		"optional_parameter", "property_signature",
	),
	"java": declSet(
		"class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "method_declaration", "constructor_declaration",
		"variable_declarator", "formal_parameter", "enum_constant",
		"annotation", "marker_annotation",
	),
	"csharp": declSet(
		"class_declaration", "interface_declaration", "struct_declaration",
		"enum_declaration", "record_declaration", "method_declaration",
		"property_declaration", "variable_declarator", "parameter",
		"enum_member_declaration",
	),
	"ruby": declSet(
		"method", "singleton_method", "class", "module", "assignment",
	),
	"php": declSet(
		"function_definition", "method_declaration", "class_declaration",
		"interface_declaration", "trait_declaration", "enum_declaration",
		"property_element", "assignment_expression", "const_element",
	),
	"kotlin": declSet(
		"class_declaration", "object_declaration", "function_declaration",
		"property_declaration", "parameter", "class_parameter",
		"variable_declaration", "enum_entry",
	),
}

// identNodes lists node types whose text is an identifier, per language.
var identNodes = map[string]map[string]bool{
	"go":         declSet("identifier", "type_identifier", "field_identifier"),
	"python":     declSet("identifier"),
	"javascript": declSet("identifier", "property_identifier", "shorthand_property_identifier"),
	"typescript": declSet("identifier", "property_identifier", "shorthand_property_identifier", "type_identifier"),
	"java":       declSet("identifier", "type_identifier"),
	"csharp":     declSet("identifier"),
	"ruby":       declSet("identifier", "constant", "instance_variable"),
	"php":        declSet("name", "variable_name"),
	"kotlin":     declSet("simple_identifier", "type_identifier"),
}

func declSet(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// NewTreeSitter returns the syntax-tree strategy.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{parsers: make(map[string]*sitter.Parser)}
}

// Supports reports whether a grammar is wired for the language.
func (t *TreeSitter) Supports(langKey string) bool {
	_, ok := grammars[langKey]
	return ok
}

// getParser lazily builds one parser per language. Parsers are not safe
// for concurrent use, so Extract holds the lock across the parse.
func (t *TreeSitter) getParser(langKey string) *sitter.Parser {
	get, ok := grammars[langKey]
	if !ok {
		return nil
	}
	if p, ok := t.parsers[langKey]; ok {
		return p
	}
	p := sitter.NewParser()
	p.SetLanguage(get())
	t.parsers[langKey] = p
	return p
}

// Extract parses code and collects identifier nodes whose parent is a
// declaration site. Any parse failure returns nil; the composite still
// has the regex strategies' output.
func (t *TreeSitter) Extract(code []byte, langKey string) []Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	parser := t.getParser(langKey)
	if parser == nil {
		return nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, code)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil
	}

	idents := identNodes[langKey]
	sites := declSites[langKey]

	var out []Candidate
	type frame struct {
		node   *sitter.Node
		parent string
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nodeType := f.node.Type()
		if idents[nodeType] && sites[f.parent] {
			text := strings.TrimLeft(f.node.Content(code), "@$")
			if text != "" {
				out = append(out, Candidate{Text: text, Language: langKey})
			}
		}

		for i := int(f.node.ChildCount()) - 1; i >= 0; i-- {
			child := f.node.Child(i)
			if child != nil {
				stack = append(stack, frame{node: child, parent: nodeType})
			}
		}
	}
	return out
}
