package rewrite

import (
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/pymove/internal/diag"
	"github.com/Sumatoshi-tech/pymove/internal/edit"
	"github.com/Sumatoshi-tech/pymove/internal/resolve"
	"github.com/Sumatoshi-tech/pymove/pkg/dotted"
	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

// AliasPolicy controls how a freshly inserted import is spelled.
type AliasPolicy int

const (
	// PolicyAuto infers the spelling from how the old import was
	// written.
	PolicyAuto AliasPolicy = iota
	// PolicyFrom always emits a from-style import.
	PolicyFrom
	// PolicyNone always emits a plain dotted import.
	PolicyNone
)

// A Rename maps one old fully-qualified name to its new one. Symbol
// distinguishes moving a function/class/constant from moving a whole
// module: for a symbol, the name to import is the new parent module.
type Rename struct {
	Old    string
	New    string
	Symbol bool
}

// OldModule returns the module the old name lives in.
func (r Rename) OldModule() string {
	if r.Symbol {
		return dotted.Parent(r.Old)
	}

	return r.Old
}

// NewModule returns the module the new name lives in.
func (r Rename) NewModule() string {
	if r.Symbol {
		return dotted.Parent(r.New)
	}

	return r.New
}

// Options configure one rewrite pass.
type Options struct {
	Policy AliasPolicy
	// Alias, when non-empty, overrides the derived local alias for the
	// inserted import.
	Alias string
	// UnusedMarkers overrides the comment markers that keep a dead
	// import in place; nil means DefaultUnusedMarkers.
	UnusedMarkers []string
}

// DefaultUnusedMarkers are the comment markers that protect an
// otherwise dead import from removal.
var DefaultUnusedMarkers = []string{"@Nolint", "@UnusedImport"}

// MarkedUnused reports whether an import's line carries one of the
// protection markers.
func MarkedUnused(line string, markers []string) bool {
	if len(markers) == 0 {
		markers = DefaultUnusedMarkers
	}

	for _, m := range markers {
		if strings.Contains(line, m) {
			return true
		}
	}

	return false
}

// Diagnostic messages shared with the move orchestrator, which applies
// the same import-liveness rules when it relocates a region.
const (
	MsgAliasConflict = "Your alias will conflict with imports in this file."
	MsgImplicitUse   = "This import may be used implicitly."
	MsgNolintKept    = "Not removing import with @Nolint."
)

// File computes the rewritten source of one file under the given
// renames. It returns the new content and whether anything changed; on
// an alias conflict it reports an Error diagnostic and returns the
// original content unchanged. Warnings never stop the rewrite.
func File(file *pytree.File, renames []Rename, opts Options, sink diag.Sink) ([]byte, bool, error) {
	imports := resolve.ComputeAllImports(file, resolve.Options{})
	selfModule := resolve.ModuleNameForPath(file.Path)
	root := file.Root()

	buf := edit.NewBuffer(file.Source)
	occ := make(map[[2]int]string)
	usedOld := make(map[int]bool)
	implicitOld := make(map[int]bool)
	respelled := make(map[int]bool)
	inserts := make(map[int]map[string]bool)
	topInserted := make(map[string]bool)

	for _, re := range renames {
		lns := resolve.LocalNamesFromFullNames(file, []string{re.Old}, imports)
		if len(lns) == 0 {
			continue
		}

		plan := planNewImport(re, selfModule, imports, lns, opts)

		changed, lateUses, topUse := collectOccurrences(file, root, re, lns, imports,
			plan, occ, usedOld, implicitOld, respelled, buf)
		if !changed {
			continue
		}

		if plan.conflict != nil {
			sink.Report(diag.Diagnostic{
				Level:    diag.Error,
				Path:     file.Path,
				Line:     file.Line(plan.conflict.Start),
				LineText: file.LineText(plan.conflict.Start),
				Message:  MsgAliasConflict,
			})

			return file.Source, false, nil
		}

		if plan.stmt == "" {
			continue
		}

		// A late import stays late: the replacement lands on the line the
		// old import occupied, at the same indentation.
		for _, imp := range lateUses {
			offset := lineStart(file.Source, imp.Start)
			addInsert(inserts, offset, lineIndent(file.Source, imp.Start)+plan.stmt)
		}

		if topUse && !topInserted[plan.stmt] {
			topInserted[plan.stmt] = true
			addInsert(inserts, insertOffset(file, lns, imports), plan.stmt)
		}
	}

	if buf.Len() == 0 && len(occ) == 0 && len(inserts) == 0 {
		return file.Source, false, nil
	}

	for span, text := range occ {
		buf.Replace(span[0], span[1], text)
	}

	// One insert per offset: several statements landing on the same line
	// go in as a single sorted block.
	for offset, stmts := range inserts {
		block := make([]string, 0, len(stmts))
		for stmt := range stmts {
			block = append(block, stmt)
		}

		sort.Strings(block)
		buf.Insert(offset, strings.Join(block, "\n")+"\n")
	}

	fixOldImports(file, root, imports, usedOld, implicitOld, occ, buf,
		opts.UnusedMarkers, sink)

	out, err := buf.Apply()
	if err != nil {
		return file.Source, false, err
	}

	return out, true, nil
}

func addInsert(inserts map[int]map[string]bool, offset int, stmt string) {
	if inserts[offset] == nil {
		inserts[offset] = make(map[string]bool)
	}

	inserts[offset][stmt] = true
}

// collectOccurrences records the reference edits one rename needs. It
// reports whether the rename touches this file at all, which
// function-scoped imports had references spelled through the planned
// new import, and whether any module-scoped reference did.
func collectOccurrences(file *pytree.File, root pytree.Node, re Rename,
	lns []resolve.LocalName, imports []resolve.Import, plan importPlan,
	occ map[[2]int]string, usedOld, implicitOld, respelled map[int]bool,
	buf *edit.Buffer,
) (bool, []*resolve.Import, bool) {
	changed := false

	var lateUses []*resolve.Import

	topUse := false
	oldModule := re.OldModule()

	for _, ln := range lns {
		newLocal := plan.localExpr
		usingPlan := true
		mustSwap := false
		idx := importIndex(imports, ln.Import)

		switch {
		case ln.Import != nil && !re.Symbol && dotted.StartsWith(ln.Import.Name, re.Old):
			// Direct import of the moved module: respell the import
			// statement in place, keeping its style and alias.
			newImpName := dotted.Join(re.New, dotted.TrimPrefix(ln.Import.Name, re.Old))

			stmtText, newAlias, ok := respellImport(file, ln.Import, newImpName)
			if ok {
				if idx >= 0 && !respelled[idx] {
					respelled[idx] = true

					buf.Replace(ln.Import.Start, ln.Import.End, stmtText)

					changed = true
				}

				newLocal = dotted.Join(newAlias, dotted.TrimPrefix(re.Old, ln.Import.Name))
				usingPlan = false
			} else if idx >= 0 {
				// Clause cannot be respelled in place; remove it and
				// reach the module through the planned import.
				usedOld[idx] = true
				mustSwap = true
			}

		case ln.Import != nil && idx >= 0:
			usedOld[idx] = true

			// A from-import of the symbol itself names something that no
			// longer exists after the move; swap it even when the
			// reference text is unchanged.
			if re.Symbol && ln.Import.Name == re.Old {
				mustSwap = true
			}

			if ln.ImplicitFor(oldModule) {
				implicitOld[idx] = true
			}
		}

		scoped := ln.Import != nil && ln.Import.Scope.Kind() != pytree.KindModule

		scope := root
		if scoped {
			scope = ln.Import.Scope
		}

		lnUsed := false

		for n := range NamesStartingWith(scope, ln.LocalExpr) {
			text := chainText(n)

			repl := dotted.Join(newLocal, dotted.TrimPrefix(text, ln.LocalExpr))
			if repl == text && !mustSwap {
				continue
			}

			span := [2]int{n.Start(), n.End()}
			if _, dup := occ[span]; !dup {
				occ[span] = repl
			}

			changed = true

			if usingPlan {
				lnUsed = true
			}
		}

		if lnUsed {
			if scoped {
				lateUses = append(lateUses, ln.Import)
			} else {
				topUse = true
			}
		}
	}

	return changed, lateUses, topUse
}

func importIndex(imports []resolve.Import, imp *resolve.Import) int {
	if imp == nil {
		return -1
	}

	for i := range imports {
		if &imports[i] == imp {
			return i
		}
	}

	return -1
}

func chainText(n pytree.Node) string {
	if text := n.DottedText(); text != "" {
		return text
	}

	return n.Text()
}

// fixOldImports decides, for every import that provided a rewritten
// reference, whether it is now dead. Dead imports are removed unless a
// remaining reference still reaches through their bound root or a
// do-not-remove marker protects them.
func fixOldImports(file *pytree.File, root pytree.Node, imports []resolve.Import,
	usedOld, implicitOld map[int]bool, occ map[[2]int]string, buf *edit.Buffer,
	markers []string, sink diag.Sink,
) {
	warned := make(map[int]bool)

	warn := func(idx int, msg string) {
		if warned[idx] {
			return
		}

		warned[idx] = true

		imp := imports[idx]
		sink.Report(diag.Diagnostic{
			Level:    diag.Warning,
			Path:     file.Path,
			Line:     file.Line(imp.Start),
			LineText: file.LineText(imp.Start),
			Message:  msg,
		})
	}

	for idx := range imports {
		if !usedOld[idx] {
			continue
		}

		imp := imports[idx]

		scope := root
		if imp.Scope.Kind() != pytree.KindModule {
			scope = imp.Scope
		}

		if hasRemainingUse(scope, imp.Alias, occ) {
			if implicitOld[idx] {
				warn(idx, MsgImplicitUse)
			}

			continue
		}

		bindRoot := dotted.First(imp.BindsRoot())
		if bindRoot != imp.Alias && hasRemainingUse(scope, bindRoot, occ) {
			warn(idx, MsgImplicitUse)

			continue
		}

		if MarkedUnused(file.LineText(imp.Start), markers) {
			warn(idx, MsgNolintKept)

			continue
		}

		start, end := removalSpan(file, imp)
		buf.Delete(start, end)
	}
}

func hasRemainingUse(scope pytree.Node, prefix string, occ map[[2]int]string) bool {
	for n := range NamesStartingWith(scope, prefix) {
		if _, rewritten := occ[[2]int{n.Start(), n.End()}]; !rewritten {
			return true
		}
	}

	return false
}
