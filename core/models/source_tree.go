package models

import "strings"

// Stmt is one statement of a parsed source file. The concrete variants are
// *FunctionDef, *ClassDef, *DocComment, *Opaque and *Pass.
type Stmt interface {
	stmt()
}

// Module is the root of a SourceTree: the ordered top-level statements of one file.
type Module struct {
	Path string
	Body []Stmt
}

// FunctionDef covers both `def` and `async def`, optionally decorated.
type FunctionDef struct {
	Name   string
	Async  bool
	Params string
	// Header spans the first decorator (or the def keyword) through the colon
	// that opens the body.
	Header Text
	Body   []Stmt
}

// ClassDef is a class declaration, optionally decorated.
type ClassDef struct {
	Name   string
	Header Text
	Body   []Stmt
}

// DocComment is a statement consisting solely of a plain string literal.
type DocComment struct {
	Text Text
}

// Opaque is any other statement, kept verbatim.
type Opaque struct {
	Text Text
}

// Pass is the no-op statement substituted for stubbed bodies.
type Pass struct{}

func (*FunctionDef) stmt() {}
func (*ClassDef) stmt()    {}
func (*DocComment) stmt()  {}
func (*Opaque) stmt()      {}
func (*Pass) stmt()        {}

// Line is one physical source line of a statement.
type Line struct {
	Text string
	// Verbatim lines begin inside a multi-line string literal, so their
	// leading whitespace is content.
	Verbatim bool
	// OpenString lines end inside a multi-line string literal, so their
	// trailing whitespace is content.
	OpenString bool
}

// Text is the verbatim source of a statement or declaration header. The
// first line has its leading indentation removed; Indent records it so that
// continuation lines can be re-based onto a new indentation.
type Text struct {
	Indent string
	Lines  []Line
}

// NewText builds a single-line Text with no string-literal spans.
func NewText(lines ...string) Text {
	t := Text{}
	for _, l := range lines {
		t.Lines = append(t.Lines, Line{Text: l})
	}
	return t
}

func (t Text) String() string {
	parts := make([]string, len(t.Lines))
	for i, l := range t.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}
