// Package diag collects the warnings and errors a move produces and
// renders them for the terminal. Messages are tied to a source line so
// the user can inspect the site the tool refused to rewrite.
package diag

import (
	"fmt"
	"sync"
)

// Level separates advisory messages from ones that abort a file.
type Level int

const (
	// Warning marks a site the tool handled conservatively; the file is
	// still written.
	Warning Level = iota
	// Error marks a site the tool could not rewrite safely; the file is
	// left unchanged.
	Error
)

func (l Level) String() string {
	if l == Error {
		return "ERROR"
	}

	return "WARNING"
}

// A Diagnostic is one message anchored to a source line.
type Diagnostic struct {
	Level    Level
	Path     string
	Line     int
	LineText string
	Message  string
}

// String renders the two-line terminal form:
//
//	WARNING:<message>
//	    on <file>:<line> --> <line text>
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s\n    on %s:%d --> %s",
		d.Level, d.Message, d.Path, d.Line, d.LineText)
}

// A Sink receives diagnostics as they are produced. Implementations
// must be safe for concurrent use; files are processed in parallel.
type Sink interface {
	Report(Diagnostic)
}

// A Collector is a Sink that accumulates diagnostics in order of
// arrival.
type Collector struct {
	mu   sync.Mutex
	all  []Diagnostic
	errs int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.all = append(c.all, d)

	if d.Level == Error {
		c.errs++
	}
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.all))
	copy(out, c.all)

	return out
}

// HasErrors reports whether any Error-level diagnostic arrived.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.errs > 0
}

// Discard is a Sink that drops everything. Useful in tests and dry
// probing passes.
type Discard struct{}

// Report implements Sink.
func (Discard) Report(Diagnostic) {}
