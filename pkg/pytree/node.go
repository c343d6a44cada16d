package pytree

import (
	"iter"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/pymove/pkg/safeconv"
)

// Kind identifies a syntax node variant. The grammar produces many more
// node types than these; the rewriter only ever dispatches on this closed
// set, and everything else is traversed generically.
type Kind string

// Node kinds the resolution and rewriting engines dispatch on.
const (
	KindModule         Kind = "module"
	KindImport         Kind = "import_statement"
	KindImportFrom     Kind = "import_from_statement"
	KindFutureImport   Kind = "future_import_statement"
	KindAliasedImport  Kind = "aliased_import"
	KindDottedName     Kind = "dotted_name"
	KindRelativeImport Kind = "relative_import"
	KindWildcardImport Kind = "wildcard_import"
	KindAttribute      Kind = "attribute"
	KindIdentifier     Kind = "identifier"
	KindString         Kind = "string"
	KindComment        Kind = "comment"
	KindCall           Kind = "call"
	KindFunctionDef    Kind = "function_definition"
	KindClassDef       Kind = "class_definition"
	KindDecoratedDef   Kind = "decorated_definition"
	KindBlock          Kind = "block"
	KindExprStatement  Kind = "expression_statement"
	KindAssignment     Kind = "assignment"
	KindKeywordArg     Kind = "keyword_argument"
	KindError          Kind = "ERROR"
)

// Node is one syntax node of a parsed file, annotated with the file's
// source so byte spans and text are directly available.
type Node struct {
	ts  sitter.Node
	src []byte
}

// Kind returns the node's grammar type.
func (n Node) Kind() Kind {
	return Kind(n.ts.Type())
}

// Start returns the byte offset at which the node begins.
func (n Node) Start() int {
	return safeconv.MustUintToInt(uint(n.ts.StartByte()))
}

// End returns the byte offset one past the node's last byte.
func (n Node) End() int {
	return safeconv.MustUintToInt(uint(n.ts.EndByte()))
}

// Line returns the node's 1-based starting line.
func (n Node) Line() int {
	return int(n.ts.StartPoint().Row) + 1
}

// Text returns the source text the node spans.
func (n Node) Text() string {
	return n.ts.Content(n.src)
}

// IsNull reports whether the node is absent (e.g. a missing field).
func (n Node) IsNull() bool {
	return n.ts.IsNull()
}

// Field returns the named grammar field of the node, if present.
func (n Node) Field(name string) (Node, bool) {
	child := n.ts.ChildByFieldName(name)
	if child.IsNull() {
		return Node{}, false
	}

	return Node{ts: child, src: n.src}, true
}

// NamedChildren returns the node's named children in source order.
func (n Node) NamedChildren() []Node {
	count := n.ts.NamedChildCount()
	children := make([]Node, 0, count)

	for idx := range count {
		children = append(children, Node{ts: n.ts.NamedChild(idx), src: n.src})
	}

	return children
}

// Walk returns a deterministic pre-order traversal over the node and all
// of its named descendants. The sequence is finite and restartable:
// re-ranging walks the same tree again.
func (n Node) Walk() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walkNode(n, yield)
	}
}

func walkNode(n Node, yield func(Node) bool) bool {
	if !yield(n) {
		return false
	}

	count := n.ts.NamedChildCount()
	for idx := range count {
		child := Node{ts: n.ts.NamedChild(idx), src: n.src}
		if !walkNode(child, yield) {
			return false
		}
	}

	return true
}

// Contains reports whether other's span lies within n's span.
func (n Node) Contains(other Node) bool {
	return n.Start() <= other.Start() && other.End() <= n.End()
}

// ContainsOffset reports whether the byte offset lies within n's span.
func (n Node) ContainsOffset(offset int) bool {
	return n.Start() <= offset && offset < n.End()
}

// IsScope reports whether the node bounds visibility of late imports:
// module bodies, function bodies, and class bodies.
func (n Node) IsScope() bool {
	switch n.Kind() {
	case KindModule, KindFunctionDef, KindClassDef:
		return true
	default:
		return false
	}
}

// DottedText returns the dotted-name text of a pure attribute chain or
// dotted_name node, rebuilt segment-wise so formatting inside the chain
// (line continuations, spaces around dots) does not leak into the name.
// It returns "" when the node is not a pure chain of identifiers.
func (n Node) DottedText() string {
	segments, ok := n.dottedSegments()
	if !ok {
		return ""
	}

	return strings.Join(segments, ".")
}

func (n Node) dottedSegments() ([]string, bool) {
	switch n.Kind() {
	case KindIdentifier:
		return []string{n.Text()}, true
	case KindDottedName:
		children := n.NamedChildren()
		segments := make([]string, 0, len(children))

		for _, child := range children {
			if child.Kind() != KindIdentifier {
				return nil, false
			}

			segments = append(segments, child.Text())
		}

		return segments, len(segments) > 0
	case KindAttribute:
		object, ok := n.Field("object")
		if !ok {
			return nil, false
		}

		base, ok := object.dottedSegments()
		if !ok {
			return nil, false
		}

		attr, ok := n.Field("attribute")
		if !ok || attr.Kind() != KindIdentifier {
			return nil, false
		}

		return append(base, attr.Text()), true
	default:
		return nil, false
	}
}
