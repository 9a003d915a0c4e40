package models

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Pipeline errors are marked with exactly one of these and can
// be tested with errors.Is.
var (
	ErrDirectoryAccess = errors.New("directory access error")
	ErrParse           = errors.New("parse error")
	ErrSerialization   = errors.New("serialization error")
	ErrWrite           = errors.New("write error")
	ErrRead            = errors.New("read error")
)

// ErrorKind names the kind of a pipeline error for reports.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindDirectoryAccess ErrorKind = "DirectoryAccessError"
	KindParse           ErrorKind = "ParseError"
	KindSerialization   ErrorKind = "SerializationError"
	KindWrite           ErrorKind = "WriteError"
	KindRead            ErrorKind = "ReadError"
	KindOther           ErrorKind = "Error"
)

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrDirectoryAccess):
		return KindDirectoryAccess
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrSerialization):
		return KindSerialization
	case errors.Is(err, ErrWrite):
		return KindWrite
	case errors.Is(err, ErrRead):
		return KindRead
	default:
		return KindOther
	}
}

// IsFatal reports whether err must abort the whole run regardless of the
// per-file error policy.
func IsFatal(err error) bool {
	return errors.IsAny(err, ErrDirectoryAccess, ErrSerialization) || errors.HasAssertionFailure(err)
}

// ParseError locates the first syntax error of a file. Line and Column are 1-based.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Snippet string
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("%s:%d:%d: invalid syntax", e.Path, e.Line, e.Column)
	}
	return fmt.Sprintf("%s:%d:%d: invalid syntax near %q", e.Path, e.Line, e.Column, e.Snippet)
}

// NewParseError returns a ParseError marked with ErrParse.
func NewParseError(path string, line, column int, snippet string) error {
	return errors.Mark(&ParseError{Path: path, Line: line, Column: column, Snippet: snippet}, ErrParse)
}
