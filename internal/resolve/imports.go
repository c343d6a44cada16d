// Package resolve builds the import table of a Python file and answers
// which local names denote which fully-qualified names. It implements the
// layered name-resolution rules the rewriter depends on: absolute imports,
// from-imports, aliasing, implicit submodule access through a shallower
// import, late (function-local) imports, and self-references to symbols
// defined in the file itself.
package resolve

import (
	"strings"

	"github.com/Sumatoshi-tech/pymove/pkg/dotted"
	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

// Style records how an import statement spells its binding. The AUTO
// alias policy keys off this.
type Style int

// Import statement styles.
const (
	// StylePlain is "import a.b.c".
	StylePlain Style = iota
	// StyleAliased is "import a.b.c as x".
	StyleAliased
	// StyleFrom is "from a.b import c".
	StyleFrom
	// StyleFromAliased is "from a.b import c as x".
	StyleFromAliased
)

// IsFromStyle reports whether the style binds only the final component.
func (s Style) IsFromStyle() bool {
	return s == StyleFrom || s == StyleFromAliased
}

// Import is one binding introduced by one import statement. A statement
// with several alias clauses yields one Import per clause, sharing no
// state. Immutable once built.
type Import struct {
	// Name is the fully-qualified name the binding provides ("a.b.c").
	Name string
	// Alias is the local binding. For an unaliased plain import it is
	// the full dotted path: "import a.b.c" binds only the root "a", but
	// the whole dotted chain is textually valid, which is what the
	// rewriter cares about.
	Alias string
	// Start and End span the statement, or just this alias clause when
	// the statement binds several names.
	Start int
	End   int
	// Style records the statement shape for alias-policy inference.
	Style Style

	// Node is the whole import statement.
	Node pytree.Node
	// Clause is the dotted_name or aliased_import node for this binding.
	Clause pytree.Node
	// Scope is the innermost enclosing scope node; imports inside a
	// function are invisible outside it.
	Scope pytree.Node
}

// BindsRoot returns the name actually bound in the namespace: the root
// segment for an unaliased plain import, the alias otherwise.
func (imp Import) BindsRoot() string {
	if imp.Style == StylePlain {
		return dotted.First(imp.Alias)
	}

	return imp.Alias
}

// Options restricts which imports ComputeAllImports collects.
type Options struct {
	// Within restricts the search to imports declared under this node.
	Within *pytree.Node
	// ToplevelOnly skips imports nested inside function or class bodies.
	ToplevelOnly bool
}

// ComputeAllImports enumerates every import binding in the file, in
// source order. Comments, strings, and future-import pragmas are never
// imports. Relative and wildcard imports are skipped: the resolver cannot
// name what they bind.
func ComputeAllImports(file *pytree.File, opts Options) []Import {
	root := file.Root()
	if opts.Within != nil {
		root = *opts.Within
	}

	var imports []Import

	collectImports(root, root, opts.ToplevelOnly, &imports)

	return imports
}

// collectImports walks the subtree tracking the innermost scope node.
func collectImports(node, scope pytree.Node, toplevelOnly bool, out *[]Import) {
	switch node.Kind() {
	case pytree.KindImport:
		*out = append(*out, parsePlainImport(node, scope)...)

		return
	case pytree.KindImportFrom:
		*out = append(*out, parseFromImport(node, scope)...)

		return
	case pytree.KindFutureImport, pytree.KindString, pytree.KindComment:
		return
	case pytree.KindFunctionDef, pytree.KindClassDef:
		if toplevelOnly {
			return
		}

		scope = node
	}

	for _, child := range node.NamedChildren() {
		collectImports(child, scope, toplevelOnly, out)
	}
}

// parsePlainImport expands "import a.b.c, d as e" into one Import per
// alias clause.
func parsePlainImport(stmt, scope pytree.Node) []Import {
	var imports []Import

	clauses := importClauses(stmt)
	for _, clause := range clauses {
		imp, ok := parseImportClause(stmt, clause, scope, "")
		if !ok {
			continue
		}

		imports = append(imports, imp)
	}

	return spanImports(stmt, imports)
}

// parseFromImport expands "from a.b import c, d as e" into one Import
// per imported name. Wildcard and relative imports yield nothing.
func parseFromImport(stmt, scope pytree.Node) []Import {
	moduleName, ok := stmt.Field("module_name")
	if !ok || moduleName.Kind() == pytree.KindRelativeImport {
		return nil
	}

	module := moduleName.DottedText()
	if module == "" {
		return nil
	}

	var imports []Import

	for _, clause := range importClauses(stmt) {
		if clause.Start() == moduleName.Start() {
			continue
		}

		imp, ok := parseImportClause(stmt, clause, scope, module)
		if !ok {
			continue
		}

		imports = append(imports, imp)
	}

	return spanImports(stmt, imports)
}

// importClauses returns the dotted_name and aliased_import children of
// an import statement, in source order.
func importClauses(stmt pytree.Node) []pytree.Node {
	var clauses []pytree.Node

	for _, child := range stmt.NamedChildren() {
		switch child.Kind() {
		case pytree.KindDottedName, pytree.KindAliasedImport, pytree.KindIdentifier:
			clauses = append(clauses, child)
		}
	}

	return clauses
}

// parseImportClause builds the Import for one alias clause. module is ""
// for plain imports and the from-module for from-imports.
func parseImportClause(stmt, clause, scope pytree.Node, module string) (Import, bool) {
	fromStyle := module != ""

	switch clause.Kind() {
	case pytree.KindDottedName, pytree.KindIdentifier:
		name := clause.DottedText()
		if name == "" {
			return Import{}, false
		}

		imp := Import{
			Name:   dotted.Join(module, name),
			Alias:  name,
			Style:  StylePlain,
			Node:   stmt,
			Clause: clause,
			Scope:  scope,
		}
		if fromStyle {
			imp.Style = StyleFrom
		}

		return imp, true
	case pytree.KindAliasedImport:
		nameNode, ok := clause.Field("name")
		if !ok {
			return Import{}, false
		}

		aliasNode, ok := clause.Field("alias")
		if !ok {
			return Import{}, false
		}

		name := nameNode.DottedText()
		if name == "" {
			return Import{}, false
		}

		imp := Import{
			Name:   dotted.Join(module, name),
			Alias:  aliasNode.Text(),
			Style:  StyleAliased,
			Node:   stmt,
			Clause: clause,
			Scope:  scope,
		}
		if fromStyle {
			imp.Style = StyleFromAliased
		}

		return imp, true
	default:
		return Import{}, false
	}
}

// spanImports assigns byte spans: the whole statement when it binds one
// name, the individual alias clause when it binds several.
func spanImports(stmt pytree.Node, imports []Import) []Import {
	for i := range imports {
		if len(imports) == 1 {
			imports[i].Start = stmt.Start()
			imports[i].End = stmt.End()
		} else {
			imports[i].Start = imports[i].Clause.Start()
			imports[i].End = imports[i].Clause.End()
		}
	}

	return imports
}

// ModuleNameForPath converts a project-relative file path into the
// module's fully-qualified name: "a/b.py" and "a/b/__init__.py" both
// name the module "a.b".
func ModuleNameForPath(path string) string {
	name := strings.TrimSuffix(path, ".py")
	name = strings.TrimSuffix(name, "/__init__")
	name = strings.TrimSuffix(name, "__init__")
	name = strings.Trim(name, "/")

	return strings.ReplaceAll(name, "/", ".")
}
