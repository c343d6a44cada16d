// Package rewrite turns resolved bindings into concrete byte edits: it
// finds every reference to a moved symbol in a file, rewrites each to
// the new spelling, fixes the file's imports, and reports what it could
// not prove safe.
package rewrite

import (
	"iter"

	"github.com/Sumatoshi-tech/pymove/pkg/dotted"
	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

// NamesStartingWith yields, in pre-order, every maximal dotted
// reference under root whose leading segments equal prefix
// segment-wise. Occurrences inside string literals, comments, import
// statements, attribute-name position, and keyword-argument names are
// never yielded, and an identifier that merely contains the prefix as
// a substring does not match. The sequence is finite and restartable.
func NamesStartingWith(root pytree.Node, prefix string) iter.Seq[pytree.Node] {
	return func(yield func(pytree.Node) bool) {
		visitNames(root, prefix, yield)
	}
}

func visitNames(n pytree.Node, prefix string, yield func(pytree.Node) bool) bool {
	switch n.Kind() {
	case pytree.KindImport, pytree.KindImportFrom, pytree.KindFutureImport,
		pytree.KindString, pytree.KindComment:
		return true

	case pytree.KindAttribute:
		if text := n.DottedText(); text != "" {
			if dotted.StartsWith(text, prefix) {
				return yield(n)
			}
			// A pure chain that does not start with the prefix cannot
			// contain a bare reference to it: inner segments are
			// attribute names, not names.
			return true
		}

		// Impure chain, e.g. f().b: only the object side can hold
		// references.
		if obj, ok := n.Field("object"); ok {
			return visitNames(obj, prefix, yield)
		}

		return true

	case pytree.KindIdentifier:
		if dotted.StartsWith(n.Text(), prefix) {
			return yield(n)
		}

		return true

	case pytree.KindKeywordArg:
		if value, ok := n.Field("value"); ok {
			return visitNames(value, prefix, yield)
		}

		return true

	default:
		for _, child := range n.NamedChildren() {
			if !visitNames(child, prefix, yield) {
				return false
			}
		}

		return true
	}
}
