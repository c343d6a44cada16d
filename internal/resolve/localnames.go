package resolve

import (
	"github.com/Sumatoshi-tech/pymove/pkg/dotted"
	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

// LocalName records that, within a file, the dotted text LocalExpr
// denotes the fully-qualified name FullName, made available by Import
// (nil when the symbol is defined in the file itself and reachable
// unqualified).
type LocalName struct {
	FullName  string
	LocalExpr string
	Import    *Import
}

// ImplicitFor reports whether the binding reaches the symbol's module
// through attribute access on a shallower import rather than naming it
// directly. module is the moved symbol's containing module (the full
// name itself when a whole module is moved). Such rewrites cannot be
// proven safe and are surfaced as warnings.
func (ln LocalName) ImplicitFor(module string) bool {
	return ln.Import != nil &&
		ln.Import.Name != ln.FullName &&
		ln.Import.Name != module
}

// LocalNamesFromFullNames finds every LocalName in the file that denotes
// one of the requested fully-qualified names. Only imports whose
// qualified name is a segment-wise prefix of (or equal to) the target
// qualify; a deeper import never provides a shallower name. All
// prefix-matching imports contribute: a reference could be written in
// terms of any of their aliases and the rewriter handles each spelling
// independently. When no import provides a prefix but the target lives
// in this very file, an import-free LocalName is produced.
func LocalNamesFromFullNames(file *pytree.File, fullnames []string, imports []Import) []LocalName {
	if imports == nil {
		imports = ComputeAllImports(file, Options{})
	}

	selfModule := ModuleNameForPath(file.Path)

	var names []LocalName

	for _, fullname := range fullnames {
		matched := false

		for i := range imports {
			imp := &imports[i]
			if !dotted.StartsWith(fullname, imp.Name) {
				continue
			}

			suffix := dotted.TrimPrefix(fullname, imp.Name)
			names = append(names, LocalName{
				FullName:  fullname,
				LocalExpr: dotted.Join(imp.Alias, suffix),
				Import:    imp,
			})
			matched = true
		}

		if !matched && selfModule != "" && fullname != selfModule &&
			dotted.StartsWith(fullname, selfModule) {
			names = append(names, LocalName{
				FullName:  fullname,
				LocalExpr: dotted.TrimPrefix(fullname, selfModule),
			})
		}
	}

	return names
}

// LocalNamesFromLocalNames is the inverse direction: given local dotted
// names of interest (as found in the destination file of a move), report
// which fully-qualified names they denote. An import provides a local
// name when its bound alias is a segment-wise prefix of it; the
// fully-qualified name is the import's name plus the remaining suffix.
// A local name neither bound by an import nor defined at the file's top
// level denotes nothing.
func LocalNamesFromLocalNames(file *pytree.File, localNames []string, imports []Import) []LocalName {
	if imports == nil {
		imports = ComputeAllImports(file, Options{})
	}

	selfModule := ModuleNameForPath(file.Path)

	var names []LocalName

	for _, local := range localNames {
		matched := false

		for i := range imports {
			imp := &imports[i]
			if !dotted.StartsWith(local, imp.Alias) {
				continue
			}

			suffix := dotted.TrimPrefix(local, imp.Alias)
			names = append(names, LocalName{
				FullName:  dotted.Join(imp.Name, suffix),
				LocalExpr: local,
				Import:    imp,
			})
			matched = true
		}

		if !matched && selfModule != "" &&
			definesAtTopLevel(file, dotted.First(local)) {
			names = append(names, LocalName{
				FullName:  dotted.Join(selfModule, local),
				LocalExpr: local,
			})
		}
	}

	return names
}

// definesAtTopLevel reports whether the module body binds name via a
// def, class, or assignment.
func definesAtTopLevel(file *pytree.File, name string) bool {
	for _, stmt := range file.Root().NamedChildren() {
		if topLevelBinding(stmt, name) {
			return true
		}
	}

	return false
}

func topLevelBinding(stmt pytree.Node, name string) bool {
	switch stmt.Kind() {
	case pytree.KindFunctionDef, pytree.KindClassDef:
		defName, ok := stmt.Field("name")

		return ok && defName.Text() == name
	case pytree.KindDecoratedDef:
		inner, ok := stmt.Field("definition")

		return ok && topLevelBinding(inner, name)
	case pytree.KindExprStatement:
		for _, child := range stmt.NamedChildren() {
			if child.Kind() != pytree.KindAssignment {
				continue
			}

			left, ok := child.Field("left")
			if ok && left.Kind() == pytree.KindIdentifier && left.Text() == name {
				return true
			}
		}

		return false
	default:
		return false
	}
}
