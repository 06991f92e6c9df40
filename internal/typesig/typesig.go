// Package typesig parses `{type} name - description` tag values.
package typesig

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/docextract/internal/diag"
	"github.com/phobologic/docextract/internal/model"
)

// Segments selects which parts a tag value is expected to carry.
type Segments struct {
	Type bool
	Name bool
	Desc bool
}

// Segment presets for the tags that carry type signatures.
var (
	// Param is used by @param and @property.
	Param = Segments{Type: true, Name: true, Desc: true}
	// Return is used by @return, @throws, @emits, @listens and @external.
	Return = Segments{Type: true, Desc: true}
	// TypeOnly is used by @type.
	TypeOnly = Segments{Type: true}
	// Typedef is used by @typedef.
	Typedef = Segments{Type: true, Name: true}
)

// Parts is a tag value split into its segments. Unexpected or absent
// segments are empty, except Type which defaults to "*" when expected.
type Parts struct {
	Type string
	Name string
	Desc string
}

var (
	typeRe         = regexp.MustCompile(`^\{([^@]*?)\}(\s+|$)`)
	nameRe         = regexp.MustCompile(`^\S+`)
	nameSkipRe     = regexp.MustCompile(`^\S+\s*`)
	descRe         = regexp.MustCompile(`(?s)^-?\s*(.*)$`)
	genericUnionRe = regexp.MustCompile(`<.*?\|.*?>`)
	spreadUnionRe  = regexp.MustCompile(`^\.\.\.\(.*?\)`)
)

// Split separates value into the segments selected by seg.
// It returns diag.ErrMalformedParam when every segment comes out empty.
func Split(value string, seg Segments) (Parts, error) {
	rest := strings.TrimSpace(value)
	var p Parts

	if seg.Type {
		if m := typeRe.FindStringSubmatch(rest); m != nil {
			p.Type = m[1]
			rest = rest[len(m[0]):]
		} else {
			p.Type = "*"
		}
	}

	if seg.Name {
		if strings.HasPrefix(rest, "[") {
			depth := 0
			end := len(rest)
			for i := 0; i < len(rest); i++ {
				switch rest[i] {
				case '[':
					depth++
				case ']':
					depth--
				}
				if depth == 0 {
					end = i + 1
					break
				}
			}
			p.Name = rest[:end]
			rest = strings.TrimSpace(rest[end:])
		} else if m := nameRe.FindString(rest); m != "" {
			p.Name = m
			rest = nameSkipRe.ReplaceAllString(rest, "")
		}
	}

	if seg.Desc {
		if m := descRe.FindStringSubmatch(rest); m != nil {
			p.Desc = m[1]
		}
	}

	if p.Type == "" && p.Name == "" && p.Desc == "" {
		return p, fmt.Errorf("%w: %q", diag.ErrMalformedParam, value)
	}
	return p, nil
}

// Parse normalizes split parts into a TypeDescriptor.
func Parse(p Parts) (*model.TypeDescriptor, error) {
	d := &model.TypeDescriptor{}

	if p.Type != "" {
		t := p.Type
		switch t[0] {
		case '?':
			d.Nullable = boolPtr(true)
			t = t[1:]
		case '!':
			d.Nullable = boolPtr(false)
			t = t[1:]
		}

		switch {
		case strings.HasPrefix(t, "{"):
			d.Types = []string{t}
		case strings.HasPrefix(t, "("):
			t = strings.TrimSuffix(strings.TrimPrefix(t, "("), ")")
			d.Types = strings.Split(t, "|")
		case strings.Contains(t, "|"):
			// Unions nested in generics or spreads stay opaque.
			if genericUnionRe.MatchString(t) || spreadUnionRe.MatchString(t) {
				d.Types = []string{t}
			} else {
				d.Types = strings.Split(t, "|")
			}
		default:
			d.Types = []string{t}
		}
		d.Spread = strings.HasPrefix(t, "...")
	} else {
		d.Types = []string{""}
	}

	for _, t := range d.Types {
		if t == "" {
			return nil, fmt.Errorf("%w: name=%q desc=%q", diag.ErrEmptyType, p.Name, p.Desc)
		}
	}

	if p.Name != "" {
		name := p.Name
		if strings.HasPrefix(name, "[") {
			d.Optional = true
			name = strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
		}
		key, def, ok := strings.Cut(name, "=")
		if ok {
			d.DefaultValue = &def
			var raw any
			if err := json.Unmarshal([]byte(def), &raw); err == nil {
				d.DefaultRaw = raw
			} else {
				d.DefaultRaw = def
			}
		}
		d.Name = strings.TrimSpace(key)
	}

	d.Description = p.Desc
	return d, nil
}

// ParseValue splits value by seg and parses the result.
func ParseValue(value string, seg Segments) (*model.TypeDescriptor, error) {
	p, err := Split(value, seg)
	if err != nil {
		return nil, err
	}
	return Parse(p)
}

func boolPtr(b bool) *bool {
	return &b
}
