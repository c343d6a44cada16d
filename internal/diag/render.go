package diag

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Stats summarizes one run for the closing report line.
type Stats struct {
	FilesScanned int
	FilesChanged int
	BytesRead    uint64
}

// Render writes every collected diagnostic to w, grouped by file, then
// a summary. Errors are printed red, warnings yellow; colors follow the
// global color.NoColor switch.
func Render(w io.Writer, diags []Diagnostic, stats Stats) {
	sorted := make([]Diagnostic, len(diags))
	copy(sorted, diags)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}

		return sorted[i].Line < sorted[j].Line
	})

	for _, d := range sorted {
		c := color.New(color.FgYellow)
		if d.Level == Error {
			c = color.New(color.FgRed)
		}

		c.Fprintf(w, "%s:%s\n", d.Level, d.Message)
		fmt.Fprintf(w, "    on %s:%d --> %s\n", d.Path, d.Line, d.LineText)
	}

	if len(sorted) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%d files scanned (%s), %d changed, %d warnings, %d errors\n",
		stats.FilesScanned, humanize.Bytes(stats.BytesRead), stats.FilesChanged,
		countLevel(sorted, Warning), countLevel(sorted, Error))
}

// RenderTable writes a per-file diagnostic count table. Used by the
// batch command where one run touches many files.
func RenderTable(w io.Writer, diags []Diagnostic) {
	type row struct {
		warnings int
		errors   int
	}

	byFile := make(map[string]*row)

	for _, d := range diags {
		r := byFile[d.Path]
		if r == nil {
			r = &row{}
			byFile[d.Path] = r
		}

		if d.Level == Error {
			r.errors++
		} else {
			r.warnings++
		}
	}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"File", "Warnings", "Errors"})

	for _, p := range paths {
		r := byFile[p]
		tbl.AppendRow(table.Row{p, r.warnings, r.errors})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files", len(paths)), "", ""})
	tbl.Render()
}

func countLevel(diags []Diagnostic, level Level) int {
	n := 0

	for _, d := range diags {
		if d.Level == level {
			n++
		}
	}

	return n
}
