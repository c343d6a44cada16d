package rewrite

import (
	"strings"

	"github.com/Sumatoshi-tech/pymove/internal/resolve"
	"github.com/Sumatoshi-tech/pymove/pkg/dotted"
	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

// importPlan describes how the new name will be spelled in one file:
// the local expression replacing old references, the import statement
// to insert (empty when an existing import or the file's own module
// already provides the name), and the import the new alias would
// collide with, if any.
type importPlan struct {
	localExpr string
	stmt      string
	conflict  *resolve.Import
}

func planNewImport(re Rename, selfModule string, imports []resolve.Import,
	lns []resolve.LocalName, opts Options,
) importPlan {
	target := re.New

	if re.Symbol && selfModule != "" && re.NewModule() == selfModule {
		return importPlan{localExpr: dotted.TrimPrefix(target, selfModule)}
	}

	// Reuse an import that already names the new module directly,
	// preferring the most specific one.
	var best *resolve.Import

	for i := range imports {
		imp := &imports[i]
		if !dotted.StartsWith(target, imp.Name) {
			continue
		}

		if imp.Name != target && imp.Name != re.NewModule() {
			continue
		}

		if best == nil || dotted.NumSegments(imp.Name) > dotted.NumSegments(best.Name) {
			best = imp
		}
	}

	if best != nil {
		return importPlan{
			localExpr: dotted.Join(best.Alias, dotted.TrimPrefix(target, best.Name)),
		}
	}

	fromStyle, alias := chooseSpelling(re, lns, opts)

	// A from-style import names the full new name; a plain import names
	// the new module and references stay qualified.
	name := re.NewModule()
	if fromStyle {
		name = target
	}

	plan := importPlan{
		localExpr: dotted.Join(alias, dotted.TrimPrefix(target, name)),
		stmt:      spellImport(name, fromStyle, alias),
		conflict:  findConflict(imports, name, alias, fromStyle),
	}

	return plan
}

// chooseSpelling picks between a from-style and a plain import for the
// new name, returning the style and the local alias it binds.
func chooseSpelling(re Rename, lns []resolve.LocalName, opts Options) (bool, string) {
	leaf := dotted.Last(re.New)
	module := re.NewModule()
	canFrom := dotted.NumSegments(re.New) > 1

	if opts.Alias != "" {
		switch {
		case opts.Alias == module:
			return false, module
		case opts.Alias == leaf && canFrom:
			return true, leaf
		default:
			return false, opts.Alias
		}
	}

	switch opts.Policy {
	case PolicyFrom:
		if canFrom {
			return true, leaf
		}

		return false, module
	case PolicyNone:
		return false, module
	default:
	}

	if !canFrom {
		return false, module
	}

	// Infer from how the old name was imported: a from-style import, or
	// an alias matching the final component, carries over.
	for _, ln := range lns {
		if ln.Import == nil {
			continue
		}

		imp := ln.Import
		if imp.Style.IsFromStyle() ||
			(imp.Style == resolve.StyleAliased && imp.Alias == dotted.Last(imp.Name)) {
			return true, leaf
		}
	}

	return false, module
}

func spellImport(importName string, fromStyle bool, alias string) string {
	if fromStyle {
		return "from " + dotted.Parent(importName) + " import " + dotted.Last(importName)
	}

	if alias != importName {
		return "import " + importName + " as " + alias
	}

	return "import " + importName
}

// findConflict reports the first existing import whose bound root name
// would denote a different module than the one the new alias binds.
func findConflict(imports []resolve.Import, importName, alias string, fromStyle bool) *resolve.Import {
	plainUnaliased := !fromStyle && alias == importName

	newRoot := dotted.First(alias)

	newDenotes := importName
	if plainUnaliased {
		newDenotes = dotted.First(importName)
	}

	for i := range imports {
		imp := &imports[i]
		if dotted.First(imp.BindsRoot()) != newRoot {
			continue
		}

		existingDenotes := imp.Name
		if imp.Style == resolve.StylePlain {
			existingDenotes = dotted.First(imp.Name)
		}

		if existingDenotes != newDenotes {
			return imp
		}
	}

	return nil
}

// respellImport rewrites an import of a moved module in place,
// preserving the statement's style and any alias. ok is false when the
// clause cannot be respelled inside its statement (a from-list clause
// whose module part changed); the caller falls back to
// remove-and-insert.
func respellImport(file *pytree.File, imp *resolve.Import, newName string) (string, string, bool) {
	slice := file.Slice(imp.Start, imp.End)
	whole := strings.HasPrefix(slice, "import ") || strings.HasPrefix(slice, "from ")

	switch imp.Style {
	case resolve.StylePlain:
		if whole {
			return "import " + newName, newName, true
		}

		return newName, newName, true

	case resolve.StyleAliased:
		if whole {
			return "import " + newName + " as " + imp.Alias, imp.Alias, true
		}

		return newName + " as " + imp.Alias, imp.Alias, true

	default:
		return respellFromImport(imp, newName, whole)
	}
}

func respellFromImport(imp *resolve.Import, newName string, whole bool) (string, string, bool) {
	aliased := imp.Style == resolve.StyleFromAliased

	if dotted.NumSegments(newName) == 1 {
		// A root module cannot be spelled from-style.
		if !whole {
			return "", "", false
		}

		if aliased {
			return "import " + newName + " as " + imp.Alias, imp.Alias, true
		}

		return "import " + newName, newName, true
	}

	leaf := dotted.Last(newName)

	if whole {
		stmt := "from " + dotted.Parent(newName) + " import " + leaf
		if aliased {
			return stmt + " as " + imp.Alias, imp.Alias, true
		}

		return stmt, leaf, true
	}

	if dotted.Parent(newName) != dotted.Parent(imp.Name) {
		return "", "", false
	}

	if aliased {
		return leaf + " as " + imp.Alias, imp.Alias, true
	}

	return leaf, leaf, true
}

// insertOffset picks where a fresh import statement goes: on the line
// of the first top-level import that provided the old name, else after
// the last top-level import, else after the module's leading docstring
// and future-import block.
func insertOffset(file *pytree.File, lns []resolve.LocalName, imports []resolve.Import) int {
	first := -1

	for _, ln := range lns {
		if ln.Import == nil || ln.Import.Scope.Kind() != pytree.KindModule {
			continue
		}

		start := ln.Import.Node.Start()
		if first < 0 || start < first {
			first = start
		}
	}

	if first >= 0 {
		return lineStart(file.Source, first)
	}

	last := -1

	for i := range imports {
		if imports[i].Scope.Kind() != pytree.KindModule {
			continue
		}

		if end := imports[i].Node.End(); end > last {
			last = end
		}
	}

	if last >= 0 {
		return lineEnd(file.Source, last)
	}

	for _, stmt := range file.Root().NamedChildren() {
		if isPreamble(stmt) {
			continue
		}

		return lineStart(file.Source, stmt.Start())
	}

	return len(file.Source)
}

// isPreamble reports whether a top-level statement belongs to the block
// a fresh import must not precede.
func isPreamble(stmt pytree.Node) bool {
	switch stmt.Kind() {
	case pytree.KindComment, pytree.KindFutureImport:
		return true
	case pytree.KindExprStatement:
		children := stmt.NamedChildren()

		return len(children) == 1 && children[0].Kind() == pytree.KindString
	default:
		return false
	}
}

// removalSpan widens an import's span for deletion: a whole statement
// takes its full line including the newline, a clause inside a
// multi-name statement takes an adjacent comma.
func removalSpan(file *pytree.File, imp resolve.Import) (int, int) {
	src := file.Source

	slice := file.Slice(imp.Start, imp.End)
	if strings.HasPrefix(slice, "import ") || strings.HasPrefix(slice, "from ") {
		return lineStart(src, imp.Start), lineEnd(src, imp.End)
	}

	end := imp.End
	for end < len(src) && src[end] == ' ' {
		end++
	}

	if end < len(src) && src[end] == ',' {
		end++
		for end < len(src) && src[end] == ' ' {
			end++
		}

		return imp.Start, end
	}

	start := imp.Start
	for start > 0 && src[start-1] == ' ' {
		start--
	}

	if start > 0 && src[start-1] == ',' {
		start--
	}

	return start, imp.End
}

// lineIndent returns the leading whitespace of the line containing
// offset.
func lineIndent(src []byte, offset int) string {
	start := lineStart(src, offset)

	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}

	return string(src[start:end])
}

func lineStart(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}

	return offset
}

func lineEnd(src []byte, offset int) int {
	for offset < len(src) && src[offset] != '\n' {
		offset++
	}

	if offset < len(src) {
		offset++
	}

	return offset
}

// ImportRemovalSpan is the byte range that deletes imp cleanly: the
// whole line when the statement binds one name, the clause plus an
// adjacent comma when it binds several.
func ImportRemovalSpan(file *pytree.File, imp resolve.Import) (int, int) {
	return removalSpan(file, imp)
}

// CanonicalImport spells a standalone statement introducing the same
// binding as imp, regardless of how the original statement grouped its
// clauses.
func CanonicalImport(imp resolve.Import) string {
	switch imp.Style {
	case resolve.StyleAliased:
		return "import " + imp.Name + " as " + imp.Alias
	case resolve.StyleFrom:
		return "from " + dotted.Parent(imp.Name) + " import " + dotted.Last(imp.Name)
	case resolve.StyleFromAliased:
		return "from " + dotted.Parent(imp.Name) + " import " + dotted.Last(imp.Name) +
			" as " + imp.Alias
	default:
		return "import " + imp.Name
	}
}
