package move

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// renderDiff produces a compact line diff for a dry run. A nil side
// stands for the file being absent.
func renderDiff(rel string, oldData, newData []byte) string {
	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToRunes(string(oldData), string(newData))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var b strings.Builder

	fmt.Fprintf(&b, "--- %s\n+++ %s\n", rel, rel)

	for _, d := range diffs {
		if d.Text == "" {
			continue
		}

		prefix := " "

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}
