package extract

import (
	"path"
	"regexp"
	"strings"
)

// Import filtering drops names that only ever appear in import
// declarations. A name introduced by an import (including both sides of
// an alias) is kept only when it reappears as a whole word outside the
// import statements; otherwise it was "just imported, never used" and is
// treated as noise.
//
// Each language's import grammar differs, so the filter is wired per
// language. Languages without an entry pass candidates through unchanged.

type importSyntax struct {
	// names collects every name introduced purely by import statements.
	names func(code string) map[string]bool

	// strip remove import statements from a working copy of the source
	// before the reuse check.
	strip []*regexp.Regexp
}

var importSyntaxes = map[string]*importSyntax{
	"python":     pythonImports,
	"javascript": jsImports,
	"typescript": jsImports,
	"go":         goImports,
	"java":       javaImports,
}

// FilterImports removes import-only candidates for languages with a
// wired import grammar; other languages pass through unchanged.
func FilterImports(code string, candidates []Candidate, langKey string) []Candidate {
	syntax, ok := importSyntaxes[langKey]
	if !ok {
		return candidates
	}

	imported := syntax.names(code)
	if len(imported) == 0 {
		return candidates
	}

	working := code
	for _, re := range syntax.strip {
		working = re.ReplaceAllString(working, " ")
	}

	used := make(map[string]bool, len(imported))
	for name := range imported {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(working) {
			used[name] = true
		}
	}

	kept := candidates[:0]
	for _, cand := range candidates {
		if imported[cand.Text] && !used[cand.Text] {
			continue
		}
		kept = append(kept, cand)
	}
	return kept
}

// --- Python ---

var (
	rePyFromImport = regexp.MustCompile(`(?m)^[ \t]*from\s+([\w.]+)\s+import\s+(.+)$`)
	rePyImport     = regexp.MustCompile(`(?m)^[ \t]*import\s+(.+)$`)
	rePyImportLine = regexp.MustCompile(`(?m)^[ \t]*(?:from|import)\s+[^\n]*$`)
)

var pythonImports = &importSyntax{
	names: func(code string) map[string]bool {
		names := make(map[string]bool)

		for _, m := range rePyFromImport.FindAllStringSubmatch(code, -1) {
			for _, part := range strings.Split(m[1], ".") {
				addImportName(names, part)
			}
			for _, item := range strings.Split(m[2], ",") {
				for _, side := range strings.Split(item, " as ") {
					addImportName(names, side)
				}
			}
		}

		for _, m := range rePyImport.FindAllStringSubmatch(code, -1) {
			for _, item := range strings.Split(m[1], ",") {
				sides := strings.Split(item, " as ")
				for _, side := range sides {
					// "import a.b" introduces "a"; an alias
					// introduces both the module and the alias.
					addImportName(names, strings.Split(strings.TrimSpace(side), ".")[0])
				}
			}
		}
		return names
	},
	strip: []*regexp.Regexp{rePyImportLine},
}

// --- JavaScript / TypeScript ---

var (
	reJSImportClause = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?([^'"]+?)\s+from\s+['"]`)
	reJSRequire      = regexp.MustCompile(`(?m)^\s*(?:const|let|var)\s+(\{[^}]*\}|[\w$]+)\s*=\s*require\s*\(`)
	// The full-statement form spans multi-line brace lists; the
	// line form catches side-effect imports with no binding clause.
	reJSImportStmt  = regexp.MustCompile(`(?s)\bimport\s+(?:type\s+)?[^'";]*?\bfrom\s+['"][^'"]+['"]`)
	reJSImportLine  = regexp.MustCompile(`(?m)^\s*import\s+[^\n]*$`)
	reJSRequireLine = regexp.MustCompile(`(?m)^\s*(?:const|let|var)\s+(?:\{[^}]*\}|[\w$]+)\s*=\s*require\s*\([^)]*\)[^\n]*$`)
)

var jsImports = &importSyntax{
	names: func(code string) map[string]bool {
		names := make(map[string]bool)
		for _, m := range reJSImportClause.FindAllStringSubmatch(code, -1) {
			addImportClause(names, m[1])
		}
		for _, m := range reJSRequire.FindAllStringSubmatch(code, -1) {
			addImportClause(names, m[1])
		}
		return names
	},
	strip: []*regexp.Regexp{reJSImportStmt, reJSImportLine, reJSRequireLine},
}

// addImportClause parses the binding part of an import statement:
// default imports, namespace imports and brace lists with aliases.
func addImportClause(names map[string]bool, clause string) {
	clause = strings.NewReplacer("{", ",", "}", ",", "* as ", "").Replace(clause)
	for _, item := range strings.Split(clause, ",") {
		for _, side := range strings.Split(item, " as ") {
			addImportName(names, side)
		}
	}
}

// --- Go ---

var (
	reGoImportSingle = regexp.MustCompile(`(?m)^import\s+(?:(\w+)\s+)?"([^"]+)"`)
	reGoImportBlock  = regexp.MustCompile(`(?s)import\s*\(([^)]*)\)`)
	reGoImportSpec   = regexp.MustCompile(`(?m)^\s*(?:(\w+)\s+)?"([^"]+)"`)
	reGoImportLine   = regexp.MustCompile(`(?m)^import\s+[^\n]*$`)
)

var goImports = &importSyntax{
	names: func(code string) map[string]bool {
		names := make(map[string]bool)
		add := func(alias, importPath string) {
			if alias != "" && alias != "_" {
				addImportName(names, alias)
			}
			addImportName(names, path.Base(importPath))
		}
		for _, m := range reGoImportSingle.FindAllStringSubmatch(code, -1) {
			add(m[1], m[2])
		}
		for _, block := range reGoImportBlock.FindAllStringSubmatch(code, -1) {
			for _, m := range reGoImportSpec.FindAllStringSubmatch(block[1], -1) {
				add(m[1], m[2])
			}
		}
		return names
	},
	strip: []*regexp.Regexp{reGoImportBlock, reGoImportLine},
}

// --- Java ---

var (
	reJavaImport     = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+)\s*;`)
	reJavaImportLine = regexp.MustCompile(`(?m)^\s*import\s+[^\n]*$`)
)

var javaImports = &importSyntax{
	names: func(code string) map[string]bool {
		names := make(map[string]bool)
		for _, m := range reJavaImport.FindAllStringSubmatch(code, -1) {
			parts := strings.Split(m[1], ".")
			// The last segment is the imported type; for static member
			// imports the class is the segment before it.
			addImportName(names, parts[len(parts)-1])
			if len(parts) > 1 {
				addImportName(names, parts[len(parts)-2])
			}
		}
		return names
	},
	strip: []*regexp.Regexp{reJavaImportLine},
}

func addImportName(names map[string]bool, raw string) {
	name := strings.TrimSpace(raw)
	if name == "" || name == "*" {
		return
	}
	names[name] = true
}
