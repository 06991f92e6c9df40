// Package comment splits doc comments into tags.
package comment

import (
	"regexp"
	"strings"

	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/syntax"
)

// Undocumented is the comment value used for nodes without a doc comment.
const Undocumented = "* @undocument"

const (
	escapedAt = `\ESCAPED_AT\`
	bareValue = `\TRUE`
	separator = `\Z`
)

var (
	indentRe    = regexp.MustCompile(`(?m)^[\t ]*`)
	firstStarRe = regexp.MustCompile(`^\*[\t ]?`)
	lastSpaceRe = regexp.MustCompile(`[\t ]$`)
	lineStarRe  = regexp.MustCompile(`(?m)^\*[\t ]?`)
	tailSpaceRe = regexp.MustCompile(`[\t ]*$`)
	fenceRe     = regexp.MustCompile("(?s)```.*?```")
	bareTagRe   = regexp.MustCompile(`(?m)^[\t ]*(@\w+)$`)
	tagLineRe   = regexp.MustCompile(`(?m)^[\t ]*(@\w+)[\t ](.*)`)
	leadingNL   = regexp.MustCompile(`^\n`)
	trailingNL  = regexp.MustCompile(`\n*$`)
)

// IsDoc reports whether c is a doc comment: a block comment whose value
// starts with `*`.
func IsDoc(c *syntax.Comment) bool {
	return c != nil && c.Block && strings.HasPrefix(c.Value, "*")
}

// Parse splits a doc comment value (the text between `/*` and `*/`) into
// tags in source order. Leading text without a tag becomes @desc. A tag with
// nothing after it on its line gets an empty value.
func Parse(value string) []model.Tag {
	if !strings.HasPrefix(value, "*") {
		return nil
	}

	s := strings.ReplaceAll(value, "\r\n", "\n")
	s = indentRe.ReplaceAllString(s, "")
	s = firstStarRe.ReplaceAllString(s, "")
	s = lastSpaceRe.ReplaceAllString(s, "")
	s = lineStarRe.ReplaceAllString(s, "")
	if !strings.HasPrefix(s, "@") {
		s = "@desc " + s
	}
	s = tailSpaceRe.ReplaceAllString(s, "")
	s = fenceRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, "@", escapedAt)
	})
	s = bareTagRe.ReplaceAllString(s, "${1} "+bareValue)
	s = tagLineRe.ReplaceAllString(s, separator+"${1}"+separator+"${2}")

	chunks := strings.Split(s, separator)
	var tags []model.Tag
	for i := 0; i < len(chunks); i++ {
		if !strings.HasPrefix(chunks[i], "@") {
			continue
		}
		name := chunks[i]
		var v string
		if i+1 < len(chunks) && !strings.HasPrefix(chunks[i+1], "@") {
			v = chunks[i+1]
			i++
		}
		v = strings.Replace(v, bareValue, "", 1)
		v = strings.ReplaceAll(v, escapedAt, "@")
		v = leadingNL.ReplaceAllString(v, "")
		v = trailingNL.ReplaceAllString(v, "")
		tags = append(tags, model.Tag{Name: name, Value: v})
	}
	return tags
}

// Build renders tags back into a doc comment value that Parse reads as the
// same tags.
func Build(tags []model.Tag) string {
	var b strings.Builder
	b.WriteString("*")
	for i, t := range tags {
		if i > 0 {
			b.WriteString(" *")
		}
		b.WriteString(" ")
		b.WriteString(t.Name)
		if t.Value != "" {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(t.Value, "\n", "\n * "))
		}
		b.WriteString("\n")
	}
	b.WriteString(" ")
	return b.String()
}
