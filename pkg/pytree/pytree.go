// Package pytree parses Python source into a byte-offset-annotated syntax
// tree using the tree-sitter Python grammar. It is the only package that
// touches tree-sitter directly; everything above works with Node values.
package pytree

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/pymove/pkg/textutil"
)

// Sentinel errors for parser operations.
var (
	ErrSyntax     = errors.New("couldn't parse this file")
	errNoRootNode = errors.New("pytree: no root node")
	errPoolType   = errors.New("pytree: pool returned unexpected type")
)

var (
	pythonLanguage *sitter.Language
	languageOnce   sync.Once
)

func language() *sitter.Language {
	languageOnce.Do(func() {
		pythonLanguage = sitter.NewLanguage(python.GetLanguage())
	})

	return pythonLanguage
}

// Parser parses Python files. It pools tree-sitter parsers and is safe
// for concurrent use.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a Parser for Python sources.
func NewParser() *Parser {
	lang := language()

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// File is one parsed Python source file: its project-relative path, its
// raw text, and the syntax tree over that text. Close releases the tree.
type File struct {
	Path   string
	Source []byte

	tree *sitter.Tree
}

// Parse parses src and returns the File. A file whose tree contains
// syntax errors is rejected with an error wrapping ErrSyntax; the caller
// records it and leaves the file untouched.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*File, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("pytree: parse %s: %w", path, err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, errNoRootNode
	}

	file := &File{Path: path, Source: src, tree: tree}

	if bad, found := file.firstError(); found {
		line := bad.Line()
		tree.Close()
		file.tree = nil

		return nil, fmt.Errorf("%w: invalid syntax (line %d)", ErrSyntax, line)
	}

	return file, nil
}

// Close releases the underlying tree. The File must not be used after.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Root returns the module node of the file.
func (f *File) Root() Node {
	return Node{ts: f.tree.RootNode(), src: f.Source}
}

// Line returns the 1-based line number of the byte at offset.
func (f *File) Line(offset int) int {
	return textutil.LineNumber(f.Source, offset)
}

// LineText returns the text of the line containing offset, without its
// trailing newline.
func (f *File) LineText(offset int) string {
	return textutil.LineAt(f.Source, offset)
}

// Slice returns the source bytes in [start, end) as a string.
func (f *File) Slice(start, end int) string {
	return string(f.Source[start:end])
}

// firstError finds the shallowest ERROR node, if any.
func (f *File) firstError() (Node, bool) {
	for n := range f.Root().Walk() {
		if n.Kind() == KindError {
			return n, true
		}
	}

	return Node{}, false
}
