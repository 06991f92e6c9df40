// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of a record summary.
package toon

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/phobologic/docextract/internal/graph"
	"github.com/phobologic/docextract/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Summary is what Encode renders. Graph and Ranks may be nil.
type Summary struct {
	Project string
	Records []*model.Record
	Graph   *graph.Graph
	Ranks   map[string]float64
}

// Encode converts a Summary into TOON format.
func Encode(s *Summary) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("project: %s", encodeValue(s.Project)))

	var recordRows [][]any
	var classes []string
	for _, r := range s.Records {
		var export any
		if r.Export != nil {
			export = *r.Export
		}
		recordRows = append(recordRows, []any{
			string(r.Kind),
			r.Longname,
			r.Access,
			export,
			r.LineNumber,
		})
		if r.Kind == model.Class {
			classes = append(classes, r.Longname)
		}
	}
	parts = append(parts, formatTabular("records", []string{"kind", "longname", "access", "export", "line"}, recordRows))

	if s.Graph == nil {
		return strings.Join(parts, "\n")
	}

	sort.SliceStable(classes, func(i, j int) bool {
		return s.Ranks[classes[i]] > s.Ranks[classes[j]]
	})
	var classRows [][]any
	for _, c := range classes {
		classRows = append(classRows, []any{
			c,
			s.Ranks[c],
			strings.Join(s.Graph.ExtendsChain(c), " "),
			strings.Join(s.Graph.DirectSubclasses(c), " "),
			strings.Join(s.Graph.IndirectSubclasses(c), " "),
		})
	}
	parts = append(parts, formatTabular("classes", []string{"longname", "rank", "ancestors", "subclasses", "descendants"}, classRows))

	var edgeRows [][]any
	for _, e := range s.Graph.Edges {
		edgeRows = append(edgeRows, []any{e.Subclass, e.Superclass})
	}
	parts = append(parts, formatTabular("extends", []string{"subclass", "superclass"}, edgeRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeCell(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return fmt.Sprintf("%.4f", v)
	case string:
		return encodeValue(v)
	}
	return encodeValue(fmt.Sprint(cell))
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
