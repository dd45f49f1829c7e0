package lang

import "regexp"

// Shared strip patterns. Block comments run before line comments, and
// comments before plain string literals, so a comment marker inside an
// already-stripped span cannot resurface.
var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`//[^\n]*`)
	reHashComment  = regexp.MustCompile(`#[^\n]*`)
	reDoubleQuote  = regexp.MustCompile(`"(?:[^"\\\n]|\\.)*"`)
	reSingleQuote  = regexp.MustCompile(`'(?:[^'\\\n]|\\.)*'`)
	reBacktickRaw  = regexp.MustCompile("`[^`]*`")
	reJSTemplate   = regexp.MustCompile("(?s)`(?:[^`\\\\]|\\\\.)*`")
	reTripleDouble = regexp.MustCompile(`(?s)""".*?"""`)
	reTripleSingle = regexp.MustCompile(`(?s)'''.*?'''`)
)

func patterns(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// profiles is the full language table. Extensions must be unique across
// profiles; buildExtensionIndex panics at startup otherwise.
var profiles = []*Profile{
	{
		Key:         "python",
		DisplayName: "Python",
		Color:       "#3572A5",
		Extensions:  []string{".py"},
		StripPatterns: []*regexp.Regexp{
			reTripleDouble, reTripleSingle, reHashComment,
			reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`\bclass\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\bclass\s+[A-Za-z_][A-Za-z0-9_]*\s*\(\s*([A-Za-z_][A-Za-z0-9_]*)`,
			`\bdef\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`(?m)^[ \t]*([A-Za-z_][A-Za-z0-9_]*)\s*(?::[^=\n]+)?=[^=]`,
			`\bself\.([A-Za-z_][A-Za-z0-9_]*)\s*(?::[^=\n]+)?=[^=]`,
			`@([A-Za-z_][A-Za-z0-9_]*)`,
			`->\s*([A-Za-z_][A-Za-z0-9_]*)`,
			`[(,:]\s*([A-Z][A-Za-z0-9_]*)\s*[\[\])=,]`,
			`\b([A-Z][A-Za-z0-9_]*)\s*\[`,
			`\bfor\s+([A-Za-z_][A-Za-z0-9_]*)[\s,]`,
			`(?m)^[ \t]*([A-Z][A-Z0-9_]{2,})\s*=`,
		),
		Keywords: keywordSet(
			"and", "as", "assert", "async", "await", "break", "class",
			"continue", "def", "del", "elif", "else", "except", "finally",
			"for", "from", "global", "if", "import", "in", "is", "lambda",
			"nonlocal", "not", "or", "pass", "raise", "return", "try",
			"while", "with", "yield", "none", "true", "false", "match",
			"case",
		),
	},
	{
		Key:         "javascript",
		DisplayName: "JavaScript",
		Color:       "#f1e05a",
		Extensions:  []string{".js", ".jsx", ".mjs", ".cjs"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reJSTemplate,
			reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: jsDeclPatterns,
		Keywords:     jsKeywords,
	},
	{
		Key:         "typescript",
		DisplayName: "TypeScript",
		Color:       "#2b7489",
		Extensions:  []string{".ts", ".tsx", ".mts", ".cts"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reJSTemplate,
			reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: append(patterns(
			`\b(?:interface|enum|namespace)\s+([A-Za-z_$][A-Za-z0-9_$]*)`,
			`\btype\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*[<=]`,
			`\bimplements\s+([A-Z][A-Za-z0-9_$]*)`,
			`(?m)^\s*(?:public|private|protected|readonly)\s+([A-Za-z_$][A-Za-z0-9_$]*)`,
			`\b([A-Z][A-Za-z0-9_]*)\s*<`,
			`:\s*([A-Z][A-Za-z0-9_]*)\s*[;,)=\s]`,
		), jsDeclPatterns...),
		Keywords: tsKeywords,
	},
	{
		Key:         "java",
		DisplayName: "Java",
		Color:       "#b07219",
		Extensions:  []string{".java"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`\b(?:class|interface|enum|record)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\b(?:extends|implements)\s+([A-Z][A-Za-z0-9_]*)`,
			`(?m)^\s*(?:(?:public|private|protected|static|final|abstract|synchronized|native)\s+)+[\w<>,.\[\]? ]+?\s([A-Za-z_][A-Za-z0-9_]*)\s*[(=;]`,
			`@([A-Za-z_][A-Za-z0-9_]*)`,
			`\b([A-Z][A-Za-z0-9_]*)\s*<`,
			`\bnew\s+([A-Z][A-Za-z0-9_]*)`,
			`(?m)^\s*([A-Z][A-Z0-9_]{2,})\s*[,;(]`,
			`\b[A-Z][A-Za-z0-9_<>\[\]]*\s+([a-z][A-Za-z0-9_]*)\s*[=;]`,
		),
		Keywords: keywordSet(
			"abstract", "assert", "boolean", "break", "byte", "case",
			"catch", "char", "class", "const", "continue", "default", "do",
			"double", "else", "enum", "extends", "final", "finally",
			"float", "for", "goto", "if", "implements", "import",
			"instanceof", "int", "interface", "long", "native", "new",
			"package", "private", "protected", "public", "record",
			"return", "short", "static", "strictfp", "super", "switch",
			"synchronized", "this", "throw", "throws", "transient", "try",
			"var", "void", "volatile", "while", "null", "true", "false",
		),
	},
	{
		Key:         "kotlin",
		DisplayName: "Kotlin",
		Color:       "#A97BFF",
		Extensions:  []string{".kt", ".kts"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`\b(?:class|interface|object)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\bfun\s+(?:<[^>\n]*>\s*)?([A-Za-z_][A-Za-z0-9_]*)`,
			`\b(?:val|var)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`@([A-Za-z_][A-Za-z0-9_]*)`,
			`:\s*([A-Z][A-Za-z0-9_]*)`,
			`\b([A-Z][A-Za-z0-9_]*)\s*<`,
		),
		Keywords: keywordSet(
			"as", "break", "class", "continue", "do", "else", "false",
			"for", "fun", "if", "in", "interface", "is", "null", "object",
			"package", "return", "super", "this", "throw", "true", "try",
			"typealias", "typeof", "val", "var", "when", "while", "by",
			"catch", "constructor", "delegate", "dynamic", "field", "file",
			"finally", "get", "import", "init", "param", "property",
			"receiver", "set", "setparam", "where", "unit",
		),
	},
	{
		Key:         "csharp",
		DisplayName: "C#",
		Color:       "#178600",
		Extensions:  []string{".cs"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`\b(?:class|interface|struct|enum|record)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`(?:public|private|protected|internal)\s+[\w<>,.\[\]? ]+?\s([A-Z][A-Za-z0-9_]*)\s*[({]`,
			`\bvar\s+([a-z_][A-Za-z0-9_]*)\s*=`,
			`\[\s*([A-Z][A-Za-z0-9_]*)`,
			`\b([A-Z][A-Za-z0-9_]*)\s*<`,
			`\bnew\s+([A-Z][A-Za-z0-9_]*)`,
			`:\s*([A-Z][A-Za-z0-9_]*)`,
		),
		Keywords: keywordSet(
			"abstract", "as", "base", "bool", "break", "byte", "case",
			"catch", "char", "checked", "class", "const", "continue",
			"decimal", "default", "delegate", "do", "double", "else",
			"enum", "event", "explicit", "extern", "false", "finally",
			"fixed", "float", "for", "foreach", "goto", "if", "implicit",
			"in", "int", "interface", "internal", "is", "lock", "long",
			"namespace", "new", "null", "object", "operator", "out",
			"override", "params", "private", "protected", "public",
			"readonly", "record", "ref", "return", "sbyte", "sealed",
			"short", "sizeof", "stackalloc", "static", "string", "struct",
			"switch", "this", "throw", "true", "try", "typeof", "uint",
			"ulong", "unchecked", "unsafe", "ushort", "using", "virtual",
			"void", "volatile", "while", "async", "await", "var",
		),
	},
	{
		Key:         "go",
		DisplayName: "Go",
		Color:       "#00ADD8",
		Extensions:  []string{".go"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reBacktickRaw,
			reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`\bfunc\s+([A-Za-z_][A-Za-z0-9_]*)\s*[(\[]`,
			`\bfunc\s*\([^)\n]+\)\s*([A-Za-z_][A-Za-z0-9_]*)\s*[(\[]`,
			`\btype\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\b(?:var|const)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\b([A-Za-z_][A-Za-z0-9_]*)\s*:=`,
			"(?m)^\t+([A-Z][A-Za-z0-9_]*)\\s+[\\[\\]*A-Za-z]",
		),
		Keywords: keywordSet(
			"break", "case", "chan", "const", "continue", "default",
			"defer", "else", "fallthrough", "for", "func", "go", "goto",
			"if", "import", "interface", "map", "package", "range",
			"return", "select", "struct", "switch", "type", "var", "nil",
			"true", "false", "iota", "int", "string", "bool", "byte",
			"rune", "error", "any",
		),
	},
	{
		Key:         "ruby",
		DisplayName: "Ruby",
		Color:       "#701516",
		Extensions:  []string{".rb", ".rake"},
		StripPatterns: []*regexp.Regexp{
			reHashComment, reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`\b(?:def|class|module)\s+([A-Za-z_][A-Za-z0-9_?!]*)`,
			`attr_(?:reader|writer|accessor)\s+:([a-z_][a-z0-9_]*)`,
			`@([a-z_][a-z0-9_]*)`,
			`(?m)^\s*([A-Z][A-Za-z0-9_]*)\s*=`,
			`(?m)^\s*([a-z_][a-z0-9_]*)\s*=[^=~>]`,
		),
		Keywords: keywordSet(
			"alias", "and", "begin", "break", "case", "class", "def",
			"defined", "do", "else", "elsif", "end", "ensure", "false",
			"for", "if", "in", "module", "next", "nil", "not", "or",
			"redo", "rescue", "retry", "return", "self", "super", "then",
			"true", "undef", "unless", "until", "when", "while", "yield",
			"require", "puts", "print", "lambda", "proc",
		),
	},
	{
		Key:         "php",
		DisplayName: "PHP",
		Color:       "#4F5D95",
		Extensions:  []string{".php"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reHashComment,
			reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`\bfunction\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`,
			`\b(?:class|interface|trait|enum)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\b(?:extends|implements)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\$([A-Za-z_][A-Za-z0-9_]*)\s*=[^=>]`,
			`\bconst\s+([A-Z_][A-Z0-9_]*)`,
			`\bnew\s+([A-Z][A-Za-z0-9_]*)`,
		),
		Keywords: keywordSet(
			"abstract", "and", "array", "as", "break", "callable", "case",
			"catch", "class", "clone", "const", "continue", "declare",
			"default", "do", "echo", "else", "elseif", "empty",
			"enddeclare", "endfor", "endforeach", "endif", "endswitch",
			"endwhile", "enum", "extends", "final", "finally", "fn",
			"for", "foreach", "function", "global", "goto", "if",
			"implements", "include", "instanceof", "insteadof",
			"interface", "isset", "list", "match", "namespace", "new",
			"or", "print", "private", "protected", "public", "readonly",
			"require", "return", "static", "switch", "throw", "trait",
			"try", "unset", "use", "var", "while", "xor", "yield",
			"true", "false", "null", "this", "self", "parent",
		),
	},
	{
		Key:         "swift",
		DisplayName: "Swift",
		Color:       "#F05138",
		Extensions:  []string{".swift"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reDoubleQuote,
		},
		DeclPatterns: patterns(
			`\bfunc\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\b(?:class|struct|protocol|enum|extension|actor)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\b(?:let|var)\s+([A-Za-z_][A-Za-z0-9_]*)`,
			`\bcase\s+([a-z][A-Za-z0-9_]*)`,
			`:\s*([A-Z][A-Za-z0-9_]*)`,
			`@([A-Za-z_][A-Za-z0-9_]*)`,
		),
		Keywords: keywordSet(
			"associatedtype", "class", "deinit", "enum", "extension",
			"fileprivate", "func", "import", "init", "inout", "internal",
			"let", "open", "operator", "private", "protocol", "public",
			"rethrows", "static", "struct", "subscript", "typealias",
			"var", "break", "case", "continue", "default", "defer", "do",
			"else", "fallthrough", "for", "guard", "if", "in", "repeat",
			"return", "switch", "where", "while", "as", "catch", "false",
			"is", "nil", "super", "self", "throw", "throws", "true",
			"try", "actor", "async", "await", "any", "some", "optional",
		),
	},
	{
		Key:         "c",
		DisplayName: "C",
		Color:       "#555555",
		Extensions:  []string{".c", ".h"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`(?m)^(?:\w+\s+)+\*?(\w+)\s*\([^)]*\)\s*\{`,
			`\bstruct\s+(\w+)`,
			`\bunion\s+(\w+)`,
			`\benum\s+(\w+)`,
			`\btypedef\s+(?:struct\s+)?(?:\w+\s+)+(\w+)\s*;`,
			`#define\s+(\w+)`,
		),
		Keywords: keywordSet(
			"auto", "break", "case", "char", "const", "continue",
			"default", "do", "double", "else", "enum", "extern", "float",
			"for", "goto", "if", "inline", "int", "long", "register",
			"restrict", "return", "short", "signed", "sizeof", "static",
			"struct", "switch", "typedef", "union", "unsigned", "void",
			"volatile", "while", "include", "define", "ifdef", "ifndef",
			"endif", "pragma", "null",
		),
	},
	{
		Key:         "cpp",
		DisplayName: "C++",
		Color:       "#f34b7d",
		Extensions:  []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		StripPatterns: []*regexp.Regexp{
			reBlockComment, reLineComment, reDoubleQuote, reSingleQuote,
		},
		DeclPatterns: patterns(
			`(?m)^(?:[\w:<>]+\s+)+\*?(\w+)\s*\([^)]*\)\s*(?:const\s*)?\{`,
			`\b(?:class|struct)\s+(\w+)`,
			`\bnamespace\s+(\w+)`,
			`\benum\s+(?:class\s+)?(\w+)`,
			`\btemplate\s*<[^>]*>\s*class\s+(\w+)`,
			`\busing\s+(\w+)\s*=`,
			`#define\s+(\w+)`,
			`\bnew\s+([A-Z]\w*)`,
		),
		Keywords: keywordSet(
			"alignas", "alignof", "auto", "bool", "break", "case",
			"catch", "char", "class", "concept", "const", "consteval",
			"constexpr", "constinit", "continue", "decltype", "default",
			"delete", "do", "double", "dynamic_cast", "else", "enum",
			"explicit", "export", "extern", "float", "for", "friend",
			"goto", "if", "inline", "int", "long", "mutable", "namespace",
			"new", "noexcept", "nullptr", "operator", "private",
			"protected", "public", "register", "requires", "return",
			"short", "signed", "sizeof", "static", "struct", "switch",
			"template", "this", "throw", "true", "false", "try",
			"typedef", "typeid", "typename", "union", "unsigned", "using",
			"virtual", "void", "volatile", "while", "include", "define",
			"ifdef", "ifndef", "endif", "pragma",
		),
	},
}

// jsDeclPatterns is shared by javascript and typescript; the typescript
// profile prepends its own structural forms.
var jsDeclPatterns = patterns(
	`\bclass\s+([A-Za-z_$][A-Za-z0-9_$]*)`,
	`\bextends\s+([A-Za-z_$][A-Za-z0-9_$]*)`,
	`\bfunction\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`,
	`\b(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`,
	`\b([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s*)?\(`,
	`\b([A-Za-z_$][A-Za-z0-9_$]*)\s*=>`,
	`\b(?:get|set)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`,
	`(?m)^\s*(?:async\s+)?([A-Za-z_$][A-Za-z0-9_$]*)\s*\([^)\n]*\)\s*\{`,
	`\bnew\s+([A-Z][A-Za-z0-9_$]*)`,
)

var jsKeywords = keywordSet(
	"break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "export", "extends", "finally",
	"for", "function", "if", "import", "in", "instanceof", "new",
	"return", "super", "switch", "this", "throw", "try", "typeof", "var",
	"void", "while", "with", "yield", "let", "static", "async", "await",
	"of", "get", "set", "true", "false", "null", "undefined",
)

var tsKeywords = mergeKeywords(jsKeywords, keywordSet(
	"abstract", "any", "as", "asserts", "declare", "enum", "implements",
	"interface", "is", "keyof", "module", "namespace", "never",
	"readonly", "require", "number", "object", "string", "symbol",
	"type", "unique", "unknown", "boolean", "bigint",
))

func mergeKeywords(sets ...map[string]bool) map[string]bool {
	merged := make(map[string]bool)
	for _, set := range sets {
		for w := range set {
			merged[w] = true
		}
	}
	return merged
}
