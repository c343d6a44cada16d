package move

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/pymove/internal/diag"
	"github.com/Sumatoshi-tech/pymove/internal/edit"
	"github.com/Sumatoshi-tech/pymove/internal/resolve"
	"github.com/Sumatoshi-tech/pymove/internal/rewrite"
	"github.com/Sumatoshi-tech/pymove/pkg/dotted"
	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

const (
	futureStmt     = "from __future__ import absolute_import"
	futurePreamble = futureStmt + "\n\n"
)

// A region is one top-level definition slated to move: the statement
// node, its line-extended span, and the deletion start widened back
// over preceding blank lines.
type region struct {
	node     pytree.Node
	start    int
	end      int
	delStart int
}

// A carriedImport travels with the moved region to its destination
// module.
type carriedImport struct {
	name     string
	stmt     string
	implicit bool
}

// moveSymbol extracts one definition from its module, repairs the
// references inside it for the destination's namespace, and stages both
// files. It returns the source file's relative path so the caller can
// apply the emptied-file heuristic once per module.
func (m *Mover) moveSymbol(ctx context.Context, re rewrite.Rename,
	renames []rewrite.Rename,
) (string, error) {
	srcRel := m.pathForModule(re.OldModule())

	src, err := m.read(srcRel)
	if err != nil {
		return "", err
	}

	srcFile, err := m.parse(ctx, srcRel, src)
	if err != nil {
		return "", fmt.Errorf("%s: %w", srcRel, err)
	}

	reg, ok := findRegion(srcFile, dotted.Last(re.Old))
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSymbolNotFound, re.Old)
	}

	destRel := m.pathForModule(re.NewModule())

	var destFile *pytree.File

	destSrc, err := m.read(destRel)
	if err == nil {
		destFile, err = m.parse(ctx, destRel, destSrc)
		if err != nil {
			return "", fmt.Errorf("%s: %w", destRel, err)
		}
	} else {
		destSrc = nil
	}

	regionText, carried, err := fixupRegion(srcFile, reg, re, renames, destFile)
	if err != nil {
		return "", err
	}

	content, err := assembleDestination(destSrc, destFile, regionText, carried)
	if err != nil {
		return "", err
	}

	m.staged[destRel] = content
	m.warnImplicitCarried(destRel, content, carried)

	remnant, err := sourceRemnant(srcFile, reg, srcRel, m.markers, m.sink)
	if err != nil {
		return "", err
	}

	m.staged[srcRel] = remnant

	return srcRel, nil
}

func (m *Mover) warnImplicitCarried(destRel string, content []byte, carried []carriedImport) {
	for _, c := range carried {
		if !c.implicit {
			continue
		}

		line, text := findStatementLine(content, c.stmt)
		m.sink.Report(diag.Diagnostic{
			Level:    diag.Warning,
			Path:     destRel,
			Line:     line,
			LineText: text,
			Message:  rewrite.MsgImplicitUse,
		})
	}
}

// findRegion locates the top-level statement defining symbol: a def, a
// class (possibly decorated), or a simple assignment.
func findRegion(file *pytree.File, symbol string) (region, bool) {
	for _, stmt := range file.Root().NamedChildren() {
		if !definesSymbol(stmt, symbol) {
			continue
		}

		src := file.Source
		start := lineStart(src, stmt.Start())
		end := lineEnd(src, stmt.End())

		return region{
			node:     stmt,
			start:    start,
			end:      end,
			delStart: blankRunStart(src, start),
		}, true
	}

	return region{}, false
}

func definesSymbol(stmt pytree.Node, symbol string) bool {
	switch stmt.Kind() {
	case pytree.KindFunctionDef, pytree.KindClassDef:
		name, ok := stmt.Field("name")

		return ok && name.Text() == symbol
	case pytree.KindDecoratedDef:
		def, ok := stmt.Field("definition")

		return ok && definesSymbol(def, symbol)
	case pytree.KindExprStatement:
		children := stmt.NamedChildren()
		if len(children) != 1 || children[0].Kind() != pytree.KindAssignment {
			return false
		}

		left, ok := children[0].Field("left")

		return ok && left.Kind() == pytree.KindIdentifier && left.Text() == symbol
	}

	return false
}

// blankRunStart walks back from offset over whole blank lines.
func blankRunStart(src []byte, offset int) int {
	for offset > 0 {
		ls := lineStart(src, offset-1)
		if len(bytes.TrimSpace(src[ls:offset])) > 0 {
			break
		}

		offset = ls
	}

	return offset
}

// regionFixer accumulates the reference edits a moved region needs and
// the imports it must take along.
type regionFixer struct {
	src         []byte
	reg         region
	oldModule   string
	destModule  string
	renames     []rewrite.Rename
	destImports []resolve.Import

	buf     *edit.Buffer
	seen    map[[2]int]bool
	carried map[string]carriedImport
	// alive tracks imports declared inside the region that a remaining
	// reference still reaches through.
	alive map[int]bool
}

// fixupRegion rewrites the references inside the moved region for the
// destination namespace: co-moved names become their new bare names,
// destination-module attributes lose their qualifier, names staying
// behind in the old module gain one, and everything else keeps its
// spelling with the providing import carried along.
func fixupRegion(srcFile *pytree.File, reg region, re rewrite.Rename,
	renames []rewrite.Rename, destFile *pytree.File,
) (string, []carriedImport, error) {
	var destImports []resolve.Import
	if destFile != nil {
		destImports = resolve.ComputeAllImports(destFile, resolve.Options{ToplevelOnly: true})
	}

	f := &regionFixer{
		src:         srcFile.Source,
		reg:         reg,
		oldModule:   re.OldModule(),
		destModule:  re.NewModule(),
		renames:     renames,
		destImports: destImports,
		buf:         edit.NewBuffer(srcFile.Source[reg.start:reg.end]),
		seen:        make(map[[2]int]bool),
		carried:     make(map[string]carriedImport),
		alive:       make(map[int]bool),
	}

	imports := resolve.ComputeAllImports(srcFile, resolve.Options{})

	var visible []resolve.Import

	for _, imp := range imports {
		if imp.Scope.Kind() == pytree.KindModule || f.inRegion(imp.Start) {
			visible = append(visible, imp)
		}
	}

	f.fixImportedNames(visible)
	f.renameCoMoved()
	f.qualifyOldNames(srcFile)
	f.dropDeadLateImports(srcFile, visible)

	out, err := f.buf.Apply()
	if err != nil {
		return "", nil, err
	}

	carried := make([]carriedImport, 0, len(f.carried))
	for _, c := range f.carried {
		carried = append(carried, c)
	}

	sort.Slice(carried, func(i, j int) bool { return carried[i].name < carried[j].name })

	return string(out), carried, nil
}

func (f *regionFixer) inRegion(offset int) bool {
	return offset >= f.reg.start && offset < f.reg.end
}

func (f *regionFixer) edit(n pytree.Node, repl string) {
	if repl == chainText(n) || repl == "" {
		return
	}

	f.buf.Replace(n.Start()-f.reg.start, n.End()-f.reg.start, repl)
}

func (f *regionFixer) claim(n pytree.Node) bool {
	span := [2]int{n.Start(), n.End()}
	if f.seen[span] {
		return false
	}

	f.seen[span] = true

	return true
}

// fixImportedNames handles every reference the region reaches through
// an import, explicit or implicit.
func (f *regionFixer) fixImportedNames(visible []resolve.Import) {
	for i := range visible {
		imp := &visible[i]
		internal := f.inRegion(imp.Start)

		for n := range rewrite.NamesStartingWith(f.reg.node, imp.Alias) {
			text := chainText(n)
			full := dotted.Join(imp.Name, dotted.TrimPrefix(text, imp.Alias))
			f.fixOne(i, imp, internal, n, text, full, false)
		}

		root := imp.BindsRoot()
		if imp.Style != resolve.StylePlain || root == imp.Alias {
			continue
		}

		for n := range rewrite.NamesStartingWith(f.reg.node, root) {
			text := chainText(n)
			if dotted.StartsWith(text, imp.Alias) {
				continue
			}

			// A plain import binds its root as an absolute path, so the
			// chain text is already the full name.
			f.fixOne(i, imp, internal, n, text, text, true)
		}
	}
}

func (f *regionFixer) fixOne(idx int, imp *resolve.Import, internal bool,
	n pytree.Node, text, full string, implicit bool,
) {
	if !f.claim(n) {
		return
	}

	for _, re := range f.renames {
		if re.Symbol && re.NewModule() == f.destModule && dotted.StartsWith(full, re.Old) {
			f.edit(n, dotted.Join(dotted.Last(re.New), dotted.TrimPrefix(full, re.Old)))

			return
		}
	}

	if dotted.StartsWith(full, f.destModule) {
		f.edit(n, dotted.TrimPrefix(full, f.destModule))

		return
	}

	if dest := importByName(f.destImports, imp.Name); dest != nil {
		if dotted.StartsWith(full, imp.Name) {
			// The destination's own import takes over the binding.
			f.edit(n, dotted.Join(dest.Alias, dotted.TrimPrefix(full, imp.Name)))
		} else if internal {
			f.alive[idx] = true
		}

		return
	}

	if internal {
		f.alive[idx] = true

		return
	}

	f.carry(*imp, implicit && dotted.StartsWith(full, f.oldModule))
}

func (f *regionFixer) carry(imp resolve.Import, implicit bool) {
	stmt := rewrite.CanonicalImport(imp)

	c, ok := f.carried[stmt]
	if !ok {
		c = carriedImport{name: imp.Name, stmt: stmt}
	}

	c.implicit = c.implicit || implicit
	f.carried[stmt] = c
}

// renameCoMoved renames bare references to symbols moving in the same
// batch, including the region's own definition and its recursion.
func (f *regionFixer) renameCoMoved() {
	for _, re := range f.renames {
		if !re.Symbol || re.OldModule() != f.oldModule {
			continue
		}

		oldLeaf := dotted.Last(re.Old)
		newLeaf := dotted.Last(re.New)

		for n := range rewrite.NamesStartingWith(f.reg.node, oldLeaf) {
			if !f.claim(n) {
				continue
			}

			f.edit(n, dotted.Join(newLeaf, dotted.TrimPrefix(chainText(n), oldLeaf)))
		}
	}
}

// qualifyOldNames rewrites bare references to names staying behind in
// the old module so they reach back through an import of it.
func (f *regionFixer) qualifyOldNames(srcFile *pytree.File) {
	moved := make(map[string]bool)

	for _, re := range f.renames {
		if re.Symbol && re.OldModule() == f.oldModule {
			moved[dotted.Last(re.Old)] = true
		}
	}

	alias := f.oldModule
	haveDest := false

	if dest := importByName(f.destImports, f.oldModule); dest != nil {
		alias = dest.Alias
		haveDest = true
	}

	qualified := false

	for _, name := range topLevelNames(srcFile) {
		if moved[name] {
			continue
		}

		for n := range rewrite.NamesStartingWith(f.reg.node, name) {
			if !f.claim(n) {
				continue
			}

			f.edit(n, dotted.Join(alias, chainText(n)))

			qualified = true
		}
	}

	if qualified && !haveDest {
		f.carry(resolve.Import{Name: f.oldModule, Alias: f.oldModule}, false)
	}
}

// dropDeadLateImports deletes import statements inside the region whose
// every reference was rewritten away.
func (f *regionFixer) dropDeadLateImports(srcFile *pytree.File, visible []resolve.Import) {
	for i := range visible {
		imp := &visible[i]
		if !f.inRegion(imp.Start) || f.alive[i] {
			continue
		}

		start := lineStart(srcFile.Source, imp.Start) - f.reg.start
		end := lineEnd(srcFile.Source, imp.End) - f.reg.start
		f.buf.Delete(start, end)
	}
}

// topLevelNames lists the names the module body binds outside of
// imports.
func topLevelNames(file *pytree.File) []string {
	var names []string

	for _, stmt := range file.Root().NamedChildren() {
		switch stmt.Kind() {
		case pytree.KindFunctionDef, pytree.KindClassDef:
			if name, ok := stmt.Field("name"); ok {
				names = append(names, name.Text())
			}
		case pytree.KindDecoratedDef:
			if def, ok := stmt.Field("definition"); ok {
				if name, nameOK := def.Field("name"); nameOK {
					names = append(names, name.Text())
				}
			}
		case pytree.KindExprStatement:
			children := stmt.NamedChildren()
			if len(children) != 1 || children[0].Kind() != pytree.KindAssignment {
				continue
			}

			if left, ok := children[0].Field("left"); ok &&
				left.Kind() == pytree.KindIdentifier {
				names = append(names, left.Text())
			}
		}
	}

	return names
}

func importByName(imports []resolve.Import, name string) *resolve.Import {
	for i := range imports {
		if imports[i].Name == name {
			return &imports[i]
		}
	}

	return nil
}

// assembleDestination builds the destination file: carried imports slot
// into the existing import block (or open a new one above the first
// code statement), the region lands at the bottom separated by two
// blank lines, and a missing absolute-import pragma is added whenever
// imports were carried. In an existing file the pragma goes below the
// module docstring and leading comments, never above them.
func assembleDestination(destSrc []byte, destFile *pytree.File,
	regionText string, carried []carriedImport,
) ([]byte, error) {
	var content []byte

	switch {
	case len(bytes.TrimSpace(destSrc)) == 0:
		if len(carried) > 0 {
			stmts := make([]string, 0, len(carried))
			for _, c := range carried {
				stmts = append(stmts, c.stmt)
			}

			content = []byte(futurePreamble + strings.Join(stmts, "\n") + "\n\n\n" + regionText)
		} else {
			content = []byte(regionText)
		}
	default:
		withPreamble := len(carried) > 0 && !hasFutureImport(destSrc)

		withImports, err := insertImports(destSrc, destFile, carried, withPreamble)
		if err != nil {
			return nil, err
		}

		trimmed := bytes.TrimRight(withImports, "\n")
		content = make([]byte, 0, len(trimmed)+len(regionText)+3)
		content = append(content, trimmed...)
		content = append(content, "\n\n\n"...)
		content = append(content, regionText...)
	}

	return content, nil
}

// insertImports places each carried import into the destination's
// import block in name order, opening a block before the first code
// statement when none exists. withPreamble additionally slots the
// absolute-import pragma at the head of the import block.
func insertImports(destSrc []byte, destFile *pytree.File,
	carried []carriedImport, withPreamble bool,
) ([]byte, error) {
	if len(carried) == 0 {
		return destSrc, nil
	}

	var (
		imports []resolve.Import
		stmts   []pytree.Node
	)

	if destFile != nil {
		imports = resolve.ComputeAllImports(destFile, resolve.Options{ToplevelOnly: true})
		stmts = destFile.Root().NamedChildren()
	}

	if len(imports) == 0 {
		offset := len(destSrc)

		for _, stmt := range stmts {
			if !isTrivia(stmt) {
				offset = lineStart(destSrc, stmt.Start())

				break
			}
		}

		var block []string
		if withPreamble {
			block = append(block, futureStmt+"\n")
		}

		for _, c := range carried {
			block = append(block, c.stmt)
		}

		buf := edit.NewBuffer(destSrc)
		buf.Insert(offset, strings.Join(block, "\n")+"\n\n\n")

		return buf.Apply()
	}

	// Group by insertion offset: two inserts at one offset would be
	// ambiguous for the edit buffer.
	inserts := make(map[int][]string)

	if withPreamble {
		offset := preambleOffset(destSrc, stmts)
		inserts[offset] = append(inserts[offset], futureStmt+"\n")
	}

	for _, c := range carried {
		offset := lineEnd(destSrc, imports[len(imports)-1].End)

		for _, imp := range imports {
			if imp.Name > c.name {
				offset = lineStart(destSrc, imp.Start)

				break
			}
		}

		inserts[offset] = append(inserts[offset], c.stmt)
	}

	buf := edit.NewBuffer(destSrc)
	for offset, block := range inserts {
		buf.Insert(offset, strings.Join(block, "\n")+"\n")
	}

	return buf.Apply()
}

// preambleOffset is where the absolute-import pragma belongs: after the
// module docstring and leading comments, before everything else.
func preambleOffset(destSrc []byte, stmts []pytree.Node) int {
	for _, stmt := range stmts {
		if stmt.Kind() == pytree.KindComment || isDocstring(stmt) {
			continue
		}

		return lineStart(destSrc, stmt.Start())
	}

	return len(destSrc)
}

// isTrivia reports whether a top-level statement belongs to the file
// preamble: comments, future-import pragmas, and the module docstring.
func isTrivia(stmt pytree.Node) bool {
	switch stmt.Kind() {
	case pytree.KindComment, pytree.KindFutureImport:
		return true
	}

	return isDocstring(stmt)
}

func isDocstring(stmt pytree.Node) bool {
	if stmt.Kind() != pytree.KindExprStatement {
		return false
	}

	children := stmt.NamedChildren()

	return len(children) == 1 && children[0].Kind() == pytree.KindString
}

func hasFutureImport(content []byte) bool {
	for line := range bytes.Lines(content) {
		if bytes.HasPrefix(line, []byte("from __future__ import")) {
			return true
		}
	}

	return false
}

// sourceRemnant deletes the moved region from its module and removes
// every import left without a use, keeping marked or implicitly-used
// ones with a warning.
func sourceRemnant(srcFile *pytree.File, reg region, srcRel string,
	markers []string, sink diag.Sink,
) ([]byte, error) {
	src := srcFile.Source
	buf := edit.NewBuffer(src)
	buf.Delete(reg.delStart, reg.end)

	root := srcFile.Root()

	for _, imp := range resolve.ComputeAllImports(srcFile, resolve.Options{}) {
		if imp.Start >= reg.start && imp.Start < reg.end {
			continue
		}

		scope := root
		if imp.Scope.Kind() != pytree.KindModule {
			scope = imp.Scope
		}

		if usedOutsideRegion(scope, imp.Alias, reg) {
			continue
		}

		bindRoot := dotted.First(imp.BindsRoot())
		if bindRoot != imp.Alias && usedOutsideRegion(scope, bindRoot, reg) {
			warnImport(srcFile, imp, srcRel, rewrite.MsgImplicitUse, sink)

			continue
		}

		if rewrite.MarkedUnused(srcFile.LineText(imp.Start), markers) {
			warnImport(srcFile, imp, srcRel, rewrite.MsgNolintKept, sink)

			continue
		}

		start, end := rewrite.ImportRemovalSpan(srcFile, imp)
		buf.Delete(start, end)
	}

	out, err := buf.Apply()
	if err != nil {
		return nil, err
	}

	return trimLeadingBlankLines(out), nil
}

func usedOutsideRegion(scope pytree.Node, prefix string, reg region) bool {
	for n := range rewrite.NamesStartingWith(scope, prefix) {
		if n.Start() < reg.start || n.Start() >= reg.end {
			return true
		}
	}

	return false
}

func warnImport(file *pytree.File, imp resolve.Import, rel, msg string, sink diag.Sink) {
	sink.Report(diag.Diagnostic{
		Level:    diag.Warning,
		Path:     rel,
		Line:     file.Line(imp.Start),
		LineText: file.LineText(imp.Start),
		Message:  msg,
	})
}

func trimLeadingBlankLines(data []byte) []byte {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}

		if len(bytes.TrimSpace(data[:i])) > 0 {
			break
		}

		data = data[i+1:]
	}

	return data
}

// findStatementLine locates the line in content matching stmt exactly.
func findStatementLine(content []byte, stmt string) (int, string) {
	line := 1

	for text := range bytes.Lines(content) {
		trimmed := strings.TrimRight(string(text), "\n")
		if trimmed == stmt {
			return line, trimmed
		}

		line++
	}

	return 1, stmt
}

func chainText(n pytree.Node) string {
	if text := n.DottedText(); text != "" {
		return text
	}

	return n.Text()
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
