package ast

import (
	"bytes"
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.uber.org/zap"

	"github.com/tristendillon/doppelganger/core/logger"
	"github.com/tristendillon/doppelganger/core/models"
)

const snippetLimit = 40

// Parser turns Python source into a models.Module using tree-sitter. A
// tree-sitter parser is not safe for concurrent use, so each Parse call owns
// its own.
type Parser struct {
	log *zap.SugaredLogger
}

func NewParser(log *zap.SugaredLogger) *Parser {
	return &Parser{log: logger.OrDefault(log, "parser")}
}

// Parse builds the SourceTree of one file. Any syntax error yields an error
// marked with models.ErrParse that wraps a *models.ParseError.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*models.Module, error) {
	src := normalizeNewlines(content)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Mark(errors.Wrapf(err, "failed to parse %s", path), models.ErrParse)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root, src)
	}

	b := newBuilder(src, root)
	mod := &models.Module{Path: path, Body: b.suite(root)}
	p.log.Debugf("Parsed %s: %d top-level statements", path, len(mod.Body))
	return mod, nil
}

func normalizeNewlines(content []byte) []byte {
	if !bytes.ContainsRune(content, '\r') {
		return content
	}
	out := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

func syntaxError(path string, root *sitter.Node, src []byte) error {
	n := firstError(root)
	if n == nil {
		n = root
	}
	pos := n.StartPoint()
	snippet := n.Content(src)
	if i := strings.IndexByte(snippet, '\n'); i >= 0 {
		snippet = snippet[:i]
	}
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return models.NewParseError(path, int(pos.Row)+1, int(pos.Column)+1, strings.TrimSpace(snippet))
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !(c.HasError() || c.IsMissing()) {
			continue
		}
		if e := firstError(c); e != nil {
			return e
		}
	}
	return nil
}

// builder converts tree-sitter nodes to statements. Rows that fall inside a
// multi-line string literal are flagged so later passes leave their
// whitespace alone.
type builder struct {
	src      []byte
	lines    []string
	verbatim map[uint32]bool
	open     map[uint32]bool
}

func newBuilder(src []byte, root *sitter.Node) *builder {
	b := &builder{
		src:      src,
		lines:    strings.Split(string(src), "\n"),
		verbatim: make(map[uint32]bool),
		open:     make(map[uint32]bool),
	}
	b.collectStrings(root)
	return b
}

func (b *builder) collectStrings(n *sitter.Node) {
	if n.Type() == "string" {
		start, end := n.StartPoint().Row, n.EndPoint().Row
		for r := start; r < end; r++ {
			b.open[r] = true
			b.verbatim[r+1] = true
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil {
			b.collectStrings(c)
		}
	}
}

func (b *builder) content(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(b.src)
}

func (b *builder) suite(n *sitter.Node) []models.Stmt {
	if n == nil {
		return nil
	}
	var stmts []models.Stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "comment":
			continue
		case "function_definition":
			stmts = append(stmts, b.function(c, c))
		case "class_definition":
			stmts = append(stmts, b.class(c, c))
		case "decorated_definition":
			stmts = append(stmts, b.decorated(c))
		case "expression_statement":
			if b.isDocString(c) {
				stmts = append(stmts, &models.DocComment{Text: b.nodeText(c)})
			} else {
				stmts = append(stmts, &models.Opaque{Text: b.nodeText(c)})
			}
		default:
			stmts = append(stmts, &models.Opaque{Text: b.nodeText(c)})
		}
	}
	return stmts
}

func (b *builder) decorated(n *sitter.Node) models.Stmt {
	def := n.ChildByFieldName("definition")
	if def == nil {
		return &models.Opaque{Text: b.nodeText(n)}
	}
	switch def.Type() {
	case "function_definition":
		return b.function(def, n)
	case "class_definition":
		return b.class(def, n)
	default:
		return &models.Opaque{Text: b.nodeText(n)}
	}
}

// function builds a FunctionDef; outer is the decorated_definition when
// decorators are present, otherwise def itself.
func (b *builder) function(def, outer *sitter.Node) *models.FunctionDef {
	first := def.Child(0)
	return &models.FunctionDef{
		Name:   b.content(def.ChildByFieldName("name")),
		Async:  first != nil && first.Type() == "async",
		Params: b.content(def.ChildByFieldName("parameters")),
		Header: b.header(def, outer),
		Body:   b.suite(def.ChildByFieldName("body")),
	}
}

func (b *builder) class(def, outer *sitter.Node) *models.ClassDef {
	return &models.ClassDef{
		Name:   b.content(def.ChildByFieldName("name")),
		Header: b.header(def, outer),
		Body:   b.suite(def.ChildByFieldName("body")),
	}
}

// header spans outer's start through the colon that opens def's body.
func (b *builder) header(def, outer *sitter.Node) models.Text {
	end := def.EndPoint()
	if body := def.ChildByFieldName("body"); body != nil {
		end = body.StartPoint()
	}
	for i := 0; i < int(def.ChildCount()); i++ {
		if c := def.Child(i); c != nil && c.Type() == ":" {
			end = c.EndPoint()
			break
		}
	}
	return b.text(outer.StartPoint(), end)
}

func (b *builder) nodeText(n *sitter.Node) models.Text {
	return b.text(n.StartPoint(), n.EndPoint())
}

func (b *builder) text(start, end sitter.Point) models.Text {
	first := b.lines[start.Row]
	t := models.Text{Indent: first[:len(first)-len(strings.TrimLeft(first, " \t\f"))]}
	last := end.Row
	if int(last) >= len(b.lines) {
		last = uint32(len(b.lines) - 1)
	}
	for r := start.Row; r <= last; r++ {
		line := b.lines[r]
		lo, hi := 0, len(line)
		if r == end.Row && int(end.Column) < hi {
			hi = int(end.Column)
		}
		if r == start.Row {
			lo = int(start.Column)
		}
		if lo > hi {
			lo = hi
		}
		t.Lines = append(t.Lines, models.Line{
			Text:       line[lo:hi],
			Verbatim:   r != start.Row && b.verbatim[r],
			OpenString: r != last && b.open[r],
		})
	}
	for len(t.Lines) > 1 {
		tail := t.Lines[len(t.Lines)-1]
		if tail.Verbatim || strings.TrimSpace(tail.Text) != "" {
			break
		}
		t.Lines = t.Lines[:len(t.Lines)-1]
		t.Lines[len(t.Lines)-1].OpenString = false
	}
	return t
}

// isDocString reports whether an expression statement is nothing but a plain
// string literal. f-strings and bytes literals are expressions, not docs.
func (b *builder) isDocString(stmt *sitter.Node) bool {
	if stmt.NamedChildCount() != 1 {
		return false
	}
	e := stmt.NamedChild(0)
	for e != nil && e.Type() == "parenthesized_expression" && e.NamedChildCount() == 1 {
		e = e.NamedChild(0)
	}
	if e == nil {
		return false
	}
	switch e.Type() {
	case "string":
		return plainString(b.content(e))
	case "concatenated_string":
		for i := 0; i < int(e.NamedChildCount()); i++ {
			c := e.NamedChild(i)
			if c == nil || c.Type() != "string" || !plainString(b.content(c)) {
				return false
			}
		}
		return e.NamedChildCount() > 0
	}
	return false
}

func plainString(literal string) bool {
	i := strings.IndexAny(literal, `'"`)
	if i < 0 {
		return false
	}
	return !strings.ContainsAny(strings.ToLower(literal[:i]), "fbt")
}
