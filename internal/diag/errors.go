package diag

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure categories of an extraction run.
var (
	// ErrParseFailed indicates a file could not be parsed at all.
	ErrParseFailed = errors.New("parse failed")

	// ErrUnsupportedSyntax indicates a construct the engine refuses to
	// interpret, such as an unknown decorator expression. It aborts the file.
	ErrUnsupportedSyntax = errors.New("unsupported syntax")

	// ErrMalformedParam indicates a tag value with no usable type, name or
	// description. Only the tag is skipped.
	ErrMalformedParam = errors.New("malformed parameter")

	// ErrEmptyType indicates a type union with an empty member, such as `{A||B}`.
	ErrEmptyType = errors.New("empty type")
)

// ParseError describes where in a file parsing failed.
//
// Example:
//
//	var perr *ParseError
//	if errors.As(err, &perr) {
//	    fmt.Printf("%s:%d:%d\n", perr.FilePath, perr.Line, perr.Column)
//	}
type ParseError struct {
	// FilePath is the path of the file that failed to parse.
	FilePath string

	// Line is the 1-indexed line of the first syntax error, or 0.
	Line int

	// Column is the 0-indexed column of the first syntax error.
	Column int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns "file:line:column: message", omitting missing location parts.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause, or ErrParseFailed when there is none.
func (e *ParseError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrParseFailed
}
