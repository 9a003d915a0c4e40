package codegen

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tristendillon/doppelganger/core/models"
)

// IndentUnit is the canonical indentation of one nesting level.
const IndentUnit = "    "

// Block is one serialized statement or declaration header.
type Block struct {
	Depth int
	// Def marks a function or class header.
	Def bool
	// First marks the first statement of its suite.
	First bool
	Lines []models.Line
}

// Listing is a serialized module, one block per statement, in source order.
type Listing struct {
	Blocks []Block
}

// Generate serializes mod. Errors are internal invariant violations marked
// with models.ErrSerialization.
func Generate(mod *models.Module) (*Listing, error) {
	l := &Listing{}
	if err := l.emit(mod.Body, 0); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot serialize %s", mod.Path), models.ErrSerialization)
	}
	return l, nil
}

func (l *Listing) emit(stmts []models.Stmt, depth int) error {
	for i, s := range stmts {
		first := i == 0
		switch s := s.(type) {
		case *models.FunctionDef:
			if err := l.declaration(s.Name, s.Header, s.Body, depth, first); err != nil {
				return err
			}
		case *models.ClassDef:
			if err := l.declaration(s.Name, s.Header, s.Body, depth, first); err != nil {
				return err
			}
		case *models.DocComment:
			if err := l.add(s.Text, depth, false, first); err != nil {
				return err
			}
		case *models.Opaque:
			if err := l.add(s.Text, depth, false, first); err != nil {
				return err
			}
		case *models.Pass:
			if err := l.add(models.NewText("pass"), depth, false, first); err != nil {
				return err
			}
		default:
			return errors.AssertionFailedf("unexpected statement %T at depth %d", s, depth)
		}
	}
	return nil
}

func (l *Listing) declaration(name string, header models.Text, body []models.Stmt, depth int, first bool) error {
	if len(body) == 0 {
		return errors.AssertionFailedf("declaration %q has an empty body", name)
	}
	if err := l.add(header, depth, true, first); err != nil {
		return err
	}
	return l.emit(body, depth+1)
}

func (l *Listing) add(t models.Text, depth int, def, first bool) error {
	if len(t.Lines) == 0 || strings.TrimSpace(t.Lines[0].Text) == "" {
		return errors.AssertionFailedf("empty statement text at depth %d", depth)
	}
	l.Blocks = append(l.Blocks, Block{
		Depth: depth,
		Def:   def,
		First: first,
		Lines: reindent(t, strings.Repeat(IndentUnit, depth)),
	})
	return nil
}

// reindent moves t onto indent. Continuation lines keep their offset from the
// statement's original indentation; lines starting inside a string literal
// and lines indented less than the statement are left alone.
func reindent(t models.Text, indent string) []models.Line {
	out := make([]models.Line, len(t.Lines))
	for i, line := range t.Lines {
		switch {
		case i == 0:
			line.Text = indent + line.Text
		case line.Verbatim:
		case strings.HasPrefix(line.Text, t.Indent):
			line.Text = indent + line.Text[len(t.Indent):]
		}
		out[i] = line
	}
	return out
}
