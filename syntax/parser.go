package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/report"
)

// Parser is the parser for a gold source unit.  It is a recursive descent
// parser: all parsing functions assume that they begin with the parser
// centered on the first token of their production and must consume all tokens
// of their production, leaving the parser on the next token.
//
// Parse errors raised while parsing a top-level statement are caught at the
// statement boundary, recorded, and the parser resynchronizes on the next
// statement leader, so that several errors can surface from a single pass.
type Parser struct {
	// The name of the unit being parsed.
	unitName string

	// The source path of the unit, recorded on the produced AST.
	path string

	// lexer is the Lexer this parser is using to lex the source text.
	lexer *Lexer

	// tok is the current token the parser is positioned on.
	tok *Token

	// errs accumulates the parse errors encountered so far.
	errs []*report.CompileError
}

// ParseUnit parses the given source text as the named unit.  It returns the
// root unit node and the accumulated parse errors; the node is nil only when
// the error list is nonempty.
func ParseUnit(unitName, path, src string) (*ast.Unit, []*report.CompileError) {
	p := &Parser{
		unitName: unitName,
		path:     path,
		lexer:    NewLexer(src),
	}

	unit := p.parseUnit()
	if len(p.errs) > 0 {
		return nil, p.errs
	}

	return unit, nil
}

// parseUnit parses the ordered top-level statement list of a unit.
func (p *Parser) parseUnit() *ast.Unit {
	p.next()

	start := p.tok.Span
	var stmts []ast.Statement

	for !p.got(TOK_EOF) {
		if stmt := p.parseTopLevel(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	return &ast.Unit{
		NodeBase: ast.NewNodeBaseOver(start, p.tok.Span),
		Name:     p.unitName,
		Path:     p.path,
		Stmts:    stmts,
	}
}

// parseTopLevel parses one top-level statement, catching any parse error and
// resynchronizing on the next statement leader.
func (p *Parser) parseTopLevel() (stmt ast.Statement) {
	defer func() {
		if x := recover(); x != nil {
			cerr, ok := x.(*report.CompileError)
			if !ok {
				panic(x)
			}

			cerr.Path = p.path
			p.errs = append(p.errs, cerr)
			p.resync()
			stmt = nil
		}
	}()

	return p.parseStatement()
}

// resync advances the parser to the next token which may begin a top-level
// statement.
func (p *Parser) resync() {
	for {
		switch p.tok.Kind {
		case TOK_EOF, TOK_USE, TOK_CONSTANT, TOK_LET, TOK_FUN, TOK_ISR:
			return
		}

		p.next()
	}
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.
func (p *Parser) next() {
	tok, err := p.lexer.NextToken()
	if err != nil {
		panic(err)
	}

	p.tok = tok
}

// got returns true if the parser is on a token of the given kind.
func (p *Parser) got(kind int) bool {
	return p.tok.Kind == kind
}

// assert rejects the current token if it is not of the given kind.
func (p *Parser) assert(kind int) {
	if !p.got(kind) {
		p.reject()
	}
}

// assertAndNext performs an assert operation and moves the parser forward,
// returning the asserted token.
func (p *Parser) assertAndNext(kind int) *Token {
	p.assert(kind)
	tok := p.tok
	p.next()
	return tok
}

// reject raises an unexpected token error on the current token.
func (p *Parser) reject() {
	if p.got(TOK_EOF) {
		panic(report.Raise(p.tok.Span, "unexpected end of file"))
	}

	panic(report.Raise(p.tok.Span, "unexpected token: `%s`", p.tok.Value))
}

// rejectWithMsg raises an error on the current token with a specific message.
func (p *Parser) rejectWithMsg(msg string, args ...interface{}) {
	panic(report.Raise(p.tok.Span, msg, args...))
}

// -----------------------------------------------------------------------------

// parseNumberValue converts a numeric literal token to its value.  The lexer
// leaves the `$` and `%` base prefixes in the token value.
func parseNumberValue(tok *Token) (int64, error) {
	text := tok.Value
	base := 10

	switch {
	case strings.HasPrefix(text, "$"):
		base = 16
		text = text[1:]
	case strings.HasPrefix(text, "%"):
		base = 2
		text = text[1:]
	}

	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed numeric literal `%s`", tok.Value)
	}

	return v, nil
}
