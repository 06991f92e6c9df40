// Package diag reports problems found while extracting documentation:
// malformed tags, rejected class members, unparsable files.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phobologic/docextract/internal/syntax"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	File    string
	Line    int
	Reason  string
	Excerpt string
	Err     error
}

// Reporter receives diagnostics. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// AtNode builds a diagnostic for n. The excerpt runs from n's first leading
// comment (or ten lines above n) down to n's first line.
func AtNode(file, source string, n syntax.Node, reason string) Diagnostic {
	d := Diagnostic{File: file, Reason: reason}
	if syntax.IsNil(n) {
		return d
	}
	b := n.Common()
	if b.Loc.Line == 0 {
		return d
	}
	end := b.Loc.Line
	start := max(1, end-10)
	if len(b.Leading) > 0 && b.Leading[0].Loc.Line > 0 {
		start = b.Leading[0].Loc.Line
	}
	d.Line = end
	d.Excerpt = Excerpt(source, start, end)
	return d
}

// AtError builds a diagnostic for a file-level error. When err carries a
// ParseError, the excerpt shows three lines either side of the failure.
func AtError(file, source string, err error) Diagnostic {
	d := Diagnostic{File: file, Reason: err.Error(), Err: err}
	var perr *ParseError
	if errors.As(err, &perr) && perr.Line > 0 {
		d.Line = perr.Line
		d.Excerpt = Excerpt(source, perr.Line-3, perr.Line+3)
	}
	return d
}

// Excerpt returns the lines start..end of source (1-based, inclusive, clamped),
// each prefixed with its line number.
func Excerpt(source string, start, end int) string {
	lines := strings.Split(source, "\n")
	start = max(start, 1)
	end = min(end, len(lines))
	var b strings.Builder
	for i := start; i <= end; i++ {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d| %s", i, lines[i-1])
	}
	return b.String()
}

// Logger reports diagnostics as warnings on a slog.Logger.
type Logger struct {
	log *slog.Logger
}

// NewLogger returns a Reporter that writes to log.
func NewLogger(log *slog.Logger) *Logger {
	return &Logger{log: log}
}

// Report implements Reporter.
func (l *Logger) Report(d Diagnostic) {
	attrs := []any{"file", d.File}
	if d.Line > 0 {
		attrs = append(attrs, "line", d.Line)
	}
	if d.Excerpt != "" {
		attrs = append(attrs, "excerpt", d.Excerpt)
	}
	l.log.Warn(d.Reason, attrs...)
}

// Collector keeps diagnostics in memory.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report implements Reporter.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.items...)
}

// Len returns the number of diagnostics reported so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type tee []Reporter

func (t tee) Report(d Diagnostic) {
	for _, r := range t {
		r.Report(d)
	}
}

// Tee returns a Reporter that forwards to every reporter in rs.
func Tee(rs ...Reporter) Reporter {
	return tee(rs)
}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Discard drops every diagnostic.
var Discard Reporter = discard{}
