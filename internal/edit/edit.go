// Package edit accumulates byte-range replacements against a single
// file and applies them in one pass. Ranges come straight from
// tree-sitter nodes, so all coordinates are byte offsets into the
// original source.
package edit

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is returned when two queued edits cover intersecting byte
// ranges.
var ErrOverlap = errors.New("overlapping edits")

// ErrRange is returned when an edit's range does not fit the source.
var ErrRange = errors.New("edit out of range")

// An Edit replaces source bytes [Start, End) with New. Start == End
// inserts; New == "" deletes.
type Edit struct {
	Start int
	End   int
	New   string
}

// A Buffer queues edits against one file's source.
type Buffer struct {
	src   []byte
	edits []Edit
}

// NewBuffer returns an empty edit queue over src. The buffer does not
// copy src; callers must not mutate it until after Apply.
func NewBuffer(src []byte) *Buffer {
	return &Buffer{src: src}
}

// Replace queues replacement of [start, end) with new text.
func (b *Buffer) Replace(start, end int, newText string) {
	b.edits = append(b.edits, Edit{Start: start, End: end, New: newText})
}

// Insert queues insertion of text at offset.
func (b *Buffer) Insert(offset int, text string) {
	b.Replace(offset, offset, text)
}

// Delete queues removal of [start, end).
func (b *Buffer) Delete(start, end int) {
	b.Replace(start, end, "")
}

// Len reports how many edits are queued.
func (b *Buffer) Len() int { return len(b.edits) }

// Apply validates the queued edits and returns the rewritten source.
// The original slice is left untouched. Two insertions at the same
// offset are an overlap: their order would be ambiguous.
func (b *Buffer) Apply() ([]byte, error) {
	edits := make([]Edit, len(b.edits))
	copy(edits, b.edits)

	sort.Slice(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}

		return edits[i].End < edits[j].End
	})

	for i, e := range edits {
		if e.Start < 0 || e.End < e.Start || e.End > len(b.src) {
			return nil, fmt.Errorf("%w: [%d, %d) in %d bytes",
				ErrRange, e.Start, e.End, len(b.src))
		}

		if i > 0 {
			prev := edits[i-1]
			if e.Start < prev.End || (e.Start == prev.Start && e.End == prev.End) {
				return nil, fmt.Errorf("%w: [%d, %d) and [%d, %d)",
					ErrOverlap, prev.Start, prev.End, e.Start, e.End)
			}
		}
	}

	var out []byte

	last := 0

	for _, e := range edits {
		out = append(out, b.src[last:e.Start]...)
		out = append(out, e.New...)
		last = e.End
	}

	out = append(out, b.src[last:]...)

	return out, nil
}
