// Package model defines the documentation records produced by docextract.
package model

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the syntactic or synthetic kind of a documented entity.
type Kind string

const (
	Class       Kind = "class"
	Constructor Kind = "constructor"
	Method      Kind = "method"
	Get         Kind = "get"
	Set         Kind = "set"
	Member      Kind = "member"
	Function    Kind = "function"
	Variable    Kind = "variable"
	Assignment  Kind = "assignment"
	Typedef     Kind = "typedef"
	External    Kind = "external"
	File        Kind = "file"
	Index       Kind = "index"
	PackageJSON Kind = "packageJSON"
)

// IsMethod reports whether k is one of the method sub-kinds.
func (k Kind) IsMethod() bool {
	switch k {
	case Constructor, Method, Get, Set:
		return true
	}
	return false
}

// Access levels recognised by the access tags.
const (
	Public    = "public"
	Protected = "protected"
	Private   = "private"
	Package   = "package"
)

// Tag is one `@name value` unit taken from a doc comment.
type Tag struct {
	Name  string `json:"tagName"`
	Value string `json:"tagValue"`
}

// TypeDescriptor is the normalized form of a `{type} name - description` tag value.
// Types is never empty; an absent type is recorded as "*".
type TypeDescriptor struct {
	Types        []string `json:"types"`
	Nullable     *bool    `json:"nullable,omitempty"`
	Optional     bool     `json:"optional,omitempty"`
	Spread       bool     `json:"spread,omitempty"`
	Name         string   `json:"name,omitempty"`
	DefaultValue *string  `json:"defaultValue,omitempty"`
	DefaultRaw   any      `json:"defaultRaw,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// SignalRef describes a @throws, @emits or @listens entry.
type SignalRef struct {
	Types       []string `json:"types"`
	Description string   `json:"description,omitempty"`
}

// Decorator is a decorator applied to a class or class member.
// Arguments holds the raw argument source, parentheses included, for call decorators.
type Decorator struct {
	Name      string  `json:"name"`
	Arguments *string `json:"arguments"`
}

// Marker is the value of a tag that may or may not carry text, such as
// @deprecated. A bare tag marshals as true.
type Marker string

// MarshalJSON implements json.Marshaler.
func (m Marker) MarshalJSON() ([]byte, error) {
	if m == "" {
		return []byte("true"), nil
	}
	return json.Marshal(string(m))
}

// UnmarshalJSON implements json.Unmarshaler. true reads as a bare marker.
func (m *Marker) UnmarshalJSON(data []byte) error {
	var bare bool
	if err := json.Unmarshal(data, &bare); err == nil {
		if !bare {
			return fmt.Errorf("marker: unexpected false")
		}
		*m = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	*m = Marker(text)
	return nil
}

// Record is a single documentation record. Which fields are populated depends on Kind.
type Record struct {
	ID       int64  `json:"__docId__"`
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	MemberOf string `json:"memberof,omitempty"`
	Longname string `json:"longname"`
	Static   bool   `json:"static"`
	Access   string `json:"access,omitempty"`
	Content  string `json:"content,omitempty"`

	Export      *bool  `json:"export,omitempty"`
	ImportPath  string `json:"importPath,omitempty"`
	ImportStyle string `json:"importStyle,omitempty"`

	Generator bool `json:"generator,omitempty"`
	Async     bool `json:"async,omitempty"`

	Description  string   `json:"description,omitempty"`
	Examples     []string `json:"examples,omitempty"`
	See          []string `json:"see,omitempty"`
	LineNumber   int      `json:"lineNumber,omitempty"`
	Deprecated   *Marker  `json:"deprecated,omitempty"`
	Experimental *Marker  `json:"experimental,omitempty"`
	Since        string   `json:"since,omitempty"`
	Version      string   `json:"version,omitempty"`
	Todo         []string `json:"todo,omitempty"`

	Ignore       bool `json:"ignore,omitempty"`
	PseudoExport bool `json:"pseudoExport,omitempty"`
	Undocument   bool `json:"undocument,omitempty"`
	Abstract     bool `json:"abstract,omitempty"`
	Override     bool `json:"override,omitempty"`

	Unknown    []Tag            `json:"unknown,omitempty"`
	Params     []TypeDescriptor `json:"params,omitempty"`
	Properties []TypeDescriptor `json:"properties,omitempty"`
	Return     *TypeDescriptor  `json:"return,omitempty"`
	Type       *TypeDescriptor  `json:"type,omitempty"`
	Throws     []SignalRef      `json:"throws,omitempty"`
	Emits      []SignalRef      `json:"emits,omitempty"`
	Listens    []SignalRef      `json:"listens,omitempty"`
	Decorators []Decorator      `json:"decorators,omitempty"`

	// Class only.
	Interface         bool     `json:"interface,omitempty"`
	Extends           []string `json:"extends,omitempty"`
	Implements        []string `json:"implements,omitempty"`
	ExpressionExtends string   `json:"expressionExtends,omitempty"`

	// External only.
	ExternalLink string `json:"externalLink,omitempty"`
}

// Exported reports whether the record carries a true export flag.
func (r *Record) Exported() bool {
	return r.Export != nil && *r.Export
}

// HasTag reports whether tags contains a tag with the given name.
func HasTag(tags []Tag, name string) bool {
	for _, t := range tags {
		if t.Name == name {
			return true
		}
	}
	return false
}
