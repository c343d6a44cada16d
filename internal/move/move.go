// Package move orchestrates one move: it decides whether each requested
// name is a module or a symbol, physically relocates definitions when
// automove is on, and then rewrites every reference in the project. A
// failure in one file never aborts the run; the file is reported and
// skipped.
package move

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/pymove/internal/diag"
	"github.com/Sumatoshi-tech/pymove/internal/edit"
	"github.com/Sumatoshi-tech/pymove/internal/project"
	"github.com/Sumatoshi-tech/pymove/internal/resolve"
	"github.com/Sumatoshi-tech/pymove/internal/rewrite"
	"github.com/Sumatoshi-tech/pymove/internal/textrename"
	"github.com/Sumatoshi-tech/pymove/pkg/dotted"
	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

var (
	// ErrNoNames means the request listed nothing to move.
	ErrNoNames = errors.New("no names to move")
	// ErrUnknownName means a requested name is neither a module on disk
	// nor a symbol of one.
	ErrUnknownName = errors.New("not found in project")
	// ErrSameName means a rename resolves to itself.
	ErrSameName = errors.New("old and new name are the same")
	// ErrTargetExists means a module move would overwrite a file.
	ErrTargetExists = errors.New("target module already exists")
	// ErrPackageMove means the old name is a package directory, which
	// cannot be relocated as a single file.
	ErrPackageMove = errors.New("cannot move a package")
	// ErrSymbolNotFound means the symbol's definition is missing from
	// its module.
	ErrSymbolNotFound = errors.New("definition not found")
)

const msgEmptyFile = "This file looks mostly empty; consider removing it."

// A Request describes one move: every old fullname lands in or under
// NewFullName. When NewFullName denotes an existing module, each moved
// symbol keeps its leaf name under it.
type Request struct {
	OldFullNames []string
	NewFullName  string
	Policy       rewrite.AliasPolicy
	// Alias overrides the spelling of inserted imports.
	Alias string
	// Automove relocates definitions as well as references.
	Automove bool
	// UnusedMarkers overrides the comment markers that keep a dead
	// import in place; nil means rewrite.DefaultUnusedMarkers.
	UnusedMarkers []string
	// DryRun computes everything but writes nothing; diffs land in the
	// Result instead.
	DryRun bool
}

// A Result summarizes one finished run.
type Result struct {
	FilesScanned int
	FilesChanged int
	BytesRead    int64
	// Diffs maps changed paths to unified-style previews; only filled
	// on a dry run. A deleted file maps to a diff against empty.
	Diffs map[string]string
}

// A Mover runs moves against one project tree. Pending file content is
// staged in memory so later steps of the same run observe earlier ones;
// nothing touches disk until the end, which is what makes dry runs
// exact.
type Mover struct {
	tree  *project.Tree
	cache *project.ParseCache
	sink  diag.Sink

	staged  map[string][]byte
	removed map[string]bool
	markers []string
}

// New returns a Mover over tree, parsing through cache and reporting
// through sink.
func New(tree *project.Tree, cache *project.ParseCache, sink diag.Sink) *Mover {
	return &Mover{
		tree:    tree,
		cache:   cache,
		sink:    sink,
		staged:  make(map[string][]byte),
		removed: make(map[string]bool),
	}
}

// Run executes one request end to end: expand the renames, relocate
// definitions when automove is on, rewrite references in every project
// file, then flush.
func (m *Mover) Run(ctx context.Context, req Request) (*Result, error) {
	renames, err := m.expandRenames(req)
	if err != nil {
		return nil, err
	}

	m.markers = req.UnusedMarkers

	if req.Automove {
		if err = m.relocate(ctx, renames); err != nil {
			return nil, err
		}
	}

	res := &Result{Diffs: make(map[string]string)}

	opts := rewrite.Options{
		Policy:        req.Policy,
		Alias:         req.Alias,
		UnusedMarkers: req.UnusedMarkers,
	}

	files, err := m.pyFiles()
	if err != nil {
		return nil, err
	}

	for _, rel := range files {
		src, err := m.read(rel)
		if err != nil {
			continue
		}

		res.FilesScanned++
		res.BytesRead += int64(len(src))

		out, ok := m.rewriteFile(ctx, rel, src, renames, opts)
		if ok && !bytes.Equal(out, src) {
			m.staged[rel] = out
		}
	}

	if err = m.flush(req, res); err != nil {
		return nil, err
	}

	return res, nil
}

// rewriteFile runs the reference rewriter and then the string/comment
// rename over one file. Any failure is reported and leaves the file
// untouched.
func (m *Mover) rewriteFile(ctx context.Context, rel string, src []byte,
	renames []rewrite.Rename, opts rewrite.Options,
) ([]byte, bool) {
	file, err := m.parse(ctx, rel, src)
	if err != nil {
		m.reportFileFailure(rel, src, fmt.Sprintf("Couldn't parse this file: %v", err))

		return nil, false
	}

	out, _, err := rewrite.File(file, renames, opts, m.sink)
	if err != nil {
		m.reportFileFailure(rel, src, fmt.Sprintf("Couldn't rewrite this file: %v", err))

		return nil, false
	}

	locals := stringLocals(file, renames)

	out, err = m.renameInStrings(ctx, rel, out, renames, locals)
	if err != nil {
		m.reportFileFailure(rel, src, fmt.Sprintf("Couldn't rewrite this file: %v", err))

		return nil, false
	}

	return out, true
}

func (m *Mover) reportFileFailure(rel string, src []byte, msg string) {
	text := src
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}

	m.sink.Report(diag.Diagnostic{
		Level:    diag.Error,
		Path:     rel,
		Line:     1,
		LineText: string(text),
		Message:  msg,
	})
}

// stringLocals collects, per rename, the local spellings of the old
// name in this file; mentions of those spellings inside strings and
// comments are renamed along with the code.
func stringLocals(file *pytree.File, renames []rewrite.Rename) map[string][]string {
	imports := resolve.ComputeAllImports(file, resolve.Options{})
	locals := make(map[string][]string, len(renames))

	for _, re := range renames {
		var exprs []string

		for _, ln := range resolve.LocalNamesFromFullNames(file, []string{re.Old}, imports) {
			if ln.LocalExpr != re.Old {
				exprs = append(exprs, ln.LocalExpr)
			}
		}

		locals[re.Old] = exprs
	}

	return locals
}

// renameInStrings applies the textual rename to every string and
// comment node of the already-rewritten source.
func (m *Mover) renameInStrings(ctx context.Context, rel string, src []byte,
	renames []rewrite.Rename, locals map[string][]string,
) ([]byte, error) {
	file, err := m.parse(ctx, rel, src)
	if err != nil {
		return nil, err
	}

	buf := edit.NewBuffer(src)

	for n := range file.Root().Walk() {
		kind := n.Kind()
		if kind != pytree.KindString && kind != pytree.KindComment {
			continue
		}

		text := n.Text()
		out := text

		for _, re := range renames {
			out = textrename.Replace(out, re.Old, re.New, locals[re.Old])
		}

		if out != text {
			buf.Replace(n.Start(), n.End(), out)
		}
	}

	if buf.Len() == 0 {
		return src, nil
	}

	return buf.Apply()
}

// relocate performs the physical side of the move, then decides the
// fate of each emptied source file.
func (m *Mover) relocate(ctx context.Context, renames []rewrite.Rename) error {
	sources := make(map[string]bool)

	for _, re := range renames {
		if re.OldModule() == re.NewModule() {
			continue
		}

		if !re.Symbol {
			if err := m.moveModule(re); err != nil {
				return err
			}

			continue
		}

		srcRel, err := m.moveSymbol(ctx, re, renames)
		if err != nil {
			return err
		}

		sources[srcRel] = true
	}

	rels := make([]string, 0, len(sources))
	for rel := range sources {
		rels = append(rels, rel)
	}

	sort.Strings(rels)

	for _, rel := range rels {
		if err := m.pruneSource(ctx, rel); err != nil {
			return err
		}
	}

	return nil
}

// moveModule relocates a whole module file; reference fixing is left to
// the rewrite pass, which also runs over the new location.
func (m *Mover) moveModule(re rewrite.Rename) error {
	oldRel := m.pathForModule(re.Old)
	if strings.HasSuffix(oldRel, "/__init__.py") {
		return fmt.Errorf("%w: %s", ErrPackageMove, re.Old)
	}

	data, err := m.read(oldRel)
	if err != nil {
		return err
	}

	newRel := strings.ReplaceAll(re.New, ".", "/") + ".py"
	if m.exists(newRel) {
		return fmt.Errorf("%w: %s", ErrTargetExists, re.New)
	}

	m.staged[newRel] = data
	m.remove(oldRel)

	return nil
}

// pruneSource applies the emptied-file heuristic to a module that lost
// definitions: delete it when nothing meaningful remains, warn when
// only comments or imports do.
func (m *Mover) pruneSource(ctx context.Context, rel string) error {
	data, err := m.read(rel)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		m.remove(rel)

		return nil
	}

	file, err := m.parse(ctx, rel, data)
	if err != nil {
		return nil
	}

	hasCode := false
	hasTrivia := false

	for _, stmt := range file.Root().NamedChildren() {
		switch stmt.Kind() {
		case pytree.KindFutureImport:
		case pytree.KindComment, pytree.KindImport, pytree.KindImportFrom:
			hasTrivia = true
		case pytree.KindExprStatement:
			if children := stmt.NamedChildren(); len(children) == 1 &&
				children[0].Kind() == pytree.KindString {
				hasTrivia = true
			} else {
				hasCode = true
			}
		default:
			hasCode = true
		}
	}

	switch {
	case hasCode:
	case !hasTrivia:
		// Only future-import pragmas left.
		m.remove(rel)
	default:
		line, text := firstContentLine(data)
		m.sink.Report(diag.Diagnostic{
			Level:    diag.Warning,
			Path:     rel,
			Line:     line,
			LineText: text,
			Message:  msgEmptyFile,
		})
	}

	return nil
}

// expandRenames turns the request into concrete renames, deciding per
// name whether a module or a symbol moves and whether the new fullname
// already includes the leaf.
func (m *Mover) expandRenames(req Request) ([]rewrite.Rename, error) {
	if len(req.OldFullNames) == 0 {
		return nil, ErrNoNames
	}

	// When the destination denotes an existing module, symbols land
	// inside it under their own leaf; same when several names move at
	// once or the destination is a bare module name to be created.
	intoModule := m.exists(m.pathForModule(req.NewFullName)) || len(req.OldFullNames) > 1

	renames := make([]rewrite.Rename, 0, len(req.OldFullNames))

	for _, old := range req.OldFullNames {
		re := rewrite.Rename{Old: old, New: req.NewFullName}

		switch {
		case m.exists(m.pathForModule(old)):
			if intoModule {
				re.New = dotted.Join(req.NewFullName, dotted.Last(old))
			}
		case m.exists(m.pathForModule(dotted.Parent(old))):
			re.Symbol = true
			if intoModule || dotted.NumSegments(req.NewFullName) == 1 {
				re.New = dotted.Join(req.NewFullName, dotted.Last(old))
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownName, old)
		}

		if re.Old == re.New {
			return nil, fmt.Errorf("%w: %s", ErrSameName, old)
		}

		renames = append(renames, re)
	}

	return renames, nil
}

// flush either writes the staged changes or, on a dry run, renders them
// as diffs.
func (m *Mover) flush(req Request, res *Result) error {
	rels := make([]string, 0, len(m.staged)+len(m.removed))
	for rel := range m.staged {
		rels = append(rels, rel)
	}

	for rel := range m.removed {
		rels = append(rels, rel)
	}

	sort.Strings(rels)

	for _, rel := range rels {
		orig, _ := m.tree.Read(rel)

		data := m.staged[rel]
		if m.removed[rel] {
			data = nil
		}

		if bytes.Equal(orig, data) {
			continue
		}

		res.FilesChanged++

		if req.DryRun {
			res.Diffs[rel] = renderDiff(rel, orig, data)

			continue
		}

		if m.removed[rel] {
			if err := m.tree.Remove(rel); err != nil {
				return err
			}

			continue
		}

		if err := m.tree.Write(rel, data); err != nil {
			return err
		}
	}

	return nil
}

// read returns a file's current content, observing staged changes.
func (m *Mover) read(rel string) ([]byte, error) {
	if m.removed[rel] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownName, rel)
	}

	if data, ok := m.staged[rel]; ok {
		return data, nil
	}

	return m.tree.Read(rel)
}

func (m *Mover) exists(rel string) bool {
	if m.removed[rel] {
		return false
	}

	if _, ok := m.staged[rel]; ok {
		return true
	}

	return m.tree.Exists(rel)
}

func (m *Mover) remove(rel string) {
	delete(m.staged, rel)

	if m.tree.Exists(rel) {
		m.removed[rel] = true
	}
}

// pathForModule mirrors the tree's mapping but observes staged files.
func (m *Mover) pathForModule(module string) string {
	base := strings.ReplaceAll(module, ".", "/")

	if pkg := base + "/__init__.py"; m.exists(pkg) {
		return pkg
	}

	return base + ".py"
}

func (m *Mover) parse(ctx context.Context, rel string, src []byte) (*pytree.File, error) {
	return m.cache.Parse(ctx, rel, src)
}

// pyFiles lists every Python file the rewrite pass should visit,
// including staged new files and excluding staged removals.
func (m *Mover) pyFiles() ([]string, error) {
	files, err := m.tree.PyFiles()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(files))
	out := files[:0]

	for _, rel := range files {
		if m.removed[rel] {
			continue
		}

		seen[rel] = true
		out = append(out, rel)
	}

	for rel := range m.staged {
		if !seen[rel] {
			out = append(out, rel)
		}
	}

	sort.Strings(out)

	return out, nil
}

// firstContentLine returns the 1-based number and text of the first
// non-blank line.
func firstContentLine(data []byte) (int, string) {
	line := 1

	for len(data) > 0 {
		text := data
		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}

		if len(bytes.TrimSpace(text)) > 0 {
			return line, string(text)
		}

		data = data[len(text):]
		if len(data) > 0 {
			data = data[1:]
		}

		line++
	}

	return 1, ""
}
