package syntax

import (
	"strings"
	"unicode"

	"github.com/jdpage/jeff65/report"
)

// Lexer is responsible for tokenizing a gold source file.  Identifiers may
// contain `-` (eg. `conv-tbl`), so binary minus must be surrounded by
// whitespace; the lexer needs two runes of lookahead to decide, and therefore
// works over the full source text.
type Lexer struct {
	src     []rune
	pos     int
	tokBuff *strings.Builder

	line, col           int
	startLine, startCol int
}

// NewLexer creates a new lexer for the given source text.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:     []rune(src),
		tokBuff: &strings.Builder{},
	}
}

// NextToken retrieves the next token from the source text.  If the text has
// ended, this will be an EOF token.  The returned error is always a
// *report.CompileError describing malformed input.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		c := l.peek()
		if c == -1 {
			break
		}

		switch c {
		case '\n', '\t', ' ', '\r', '\v', '\f':
			l.skip()
		case '-':
			if tok, err := l.lexDashes(); tok != nil || err != nil {
				return tok, err
			}
		case '/':
			if tok, err := l.lexCommentOrDiv(); tok != nil || err != nil {
				return tok, err
			}
		case '"':
			return l.lexStringLit()
		case '$', '%':
			return l.lexPrefixedNumeric()
		default:
			if isDecimalDigit(c) {
				return l.lexNumericLit()
			} else if isFirstIdentChar(c) {
				return l.lexIdentOrKeyword()
			} else {
				return l.lexPunctOrOper()
			}
		}
	}

	l.mark()
	return l.makeToken(TOK_EOF), nil
}

// -----------------------------------------------------------------------------

// lexPunctOrOper lexes a punctuation or operator symbol.
func (l *Lexer) lexPunctOrOper() (*Token, error) {
	l.mark()
	l.eat()

	// Some multi-character operators have prefixes which are not themselves
	// tokens (`!` on the way to `!=`), so extend first and only reject once
	// no longer entry matches.
	kind, ok := symbolPatterns[l.tokBuff.String()]

	for {
		c := l.peek()
		if c == -1 {
			break
		}

		_kind, _ok := symbolPatterns[l.tokBuff.String()+string(c)]
		if !_ok {
			break
		}

		l.eat()
		kind, ok = _kind, true
	}

	if !ok {
		return nil, report.Raise(l.getSpan(), "unknown character `%s`", l.tokBuff.String())
	}

	return l.makeToken(kind), nil
}

// lexIdentOrKeyword lexes an identifier or a keyword.  A `-` continues the
// identifier only when the rune after it could also continue it, so that
// `conv-tbl` is one name but `a -b` is not.
func (l *Lexer) lexIdentOrKeyword() (*Token, error) {
	l.mark()
	l.eat()

	for {
		c := l.peek()
		if isFirstIdentChar(c) || isDecimalDigit(c) {
			l.eat()
		} else if c == '-' && (isFirstIdentChar(l.peekAt(1)) || isDecimalDigit(l.peekAt(1))) {
			l.eat()
		} else {
			break
		}
	}

	var kind int
	if _kind, ok := keywordPatterns[l.tokBuff.String()]; ok {
		kind = _kind
	} else {
		kind = TOK_IDENT
	}

	return l.makeToken(kind), nil
}

// -----------------------------------------------------------------------------

// lexNumericLit lexes a decimal numeric literal.
func (l *Lexer) lexNumericLit() (*Token, error) {
	l.mark()
	l.eat()

	for {
		c := l.peek()
		if c == '_' {
			l.skip()
		} else if isDecimalDigit(c) {
			l.eat()
		} else {
			break
		}
	}

	return l.makeToken(TOK_NUMLIT), nil
}

// lexPrefixedNumeric lexes a `$` hexadecimal or `%` binary numeric literal.
func (l *Lexer) lexPrefixedNumeric() (*Token, error) {
	l.mark()
	c, _ := l.eat()

	isDigit := isHexDigit
	if c == '%' {
		isDigit = isBinaryDigit
	}

	gotDigit := false
	for {
		c := l.peek()
		if c == '_' {
			l.skip()
		} else if isDigit(c) {
			l.eat()
			gotDigit = true
		} else {
			break
		}
	}

	if !gotDigit {
		return nil, report.Raise(l.getSpan(), "incomplete numeric literal")
	}

	return l.makeToken(TOK_NUMLIT), nil
}

// -----------------------------------------------------------------------------

// lexStringLit lexes a double-quoted string literal.
func (l *Lexer) lexStringLit() (*Token, error) {
	l.mark()
	l.skip()

	for {
		switch c := l.peek(); c {
		case -1:
			return nil, report.Raise(l.getSpan(), "unclosed string literal")
		case '"':
			l.skip()
			return l.makeToken(TOK_STRINGLIT), nil
		case '\n':
			return nil, report.Raise(l.getSpan(), "string cannot contain a newline")
		case '\\':
			l.skip()

			switch c := l.peek(); c {
			case -1:
				return nil, report.Raise(l.getSpan(), "unclosed string literal")
			case 'n':
				l.skip()
				l.tokBuff.WriteRune('\n')
			case '0':
				l.skip()
				l.tokBuff.WriteRune(0)
			case '"', '\\':
				l.eat()
			default:
				return nil, report.Raise(l.getSpan(), "unknown escape sequence: `\\%c`", c)
			}
		default:
			l.eat()
		}
	}
}

// -----------------------------------------------------------------------------

// lexDashes lexes a `--` line comment, a `->` arrow, or a minus token.
func (l *Lexer) lexDashes() (*Token, error) {
	l.mark()

	switch l.peekAt(1) {
	case '-':
		for c := l.peek(); c != '\n' && c != -1; c = l.peek() {
			l.skip()
		}

		return nil, nil
	case '>':
		l.eat()
		l.eat()
		return l.makeToken(TOK_ARROW), nil
	default:
		l.eat()
		return l.makeToken(TOK_MINUS), nil
	}
}

// lexCommentOrDiv lexes a `/* ... */` block comment or a division token.
func (l *Lexer) lexCommentOrDiv() (*Token, error) {
	l.mark()

	if l.peekAt(1) != '*' {
		l.eat()
		return l.makeToken(TOK_DIV), nil
	}

	l.skip()
	l.skip()

	for {
		c := l.skip()
		if c == -1 {
			return nil, report.Raise(l.getSpan(), "unclosed block comment")
		}

		if c == '*' && l.peek() == '/' {
			l.skip()
			return nil, nil
		}
	}
}

// -----------------------------------------------------------------------------

// mark sets the lexer's stored start line and column to its current position.
func (l *Lexer) mark() {
	l.startLine = l.line
	l.startCol = l.col
}

// makeToken produces a new token of the given kind from the lexer's state and
// resets the lexer to begin building the next token.
func (l *Lexer) makeToken(kind int) *Token {
	value := l.tokBuff.String()
	l.tokBuff.Reset()

	return &Token{
		Kind:  kind,
		Value: value,
		Span:  l.getSpan(),
	}
}

// getSpan calculates a text span based on the lexer's current state.
func (l *Lexer) getSpan() *report.TextSpan {
	return &report.TextSpan{
		StartLine: l.startLine,
		StartCol:  l.startCol,
		EndLine:   l.line,
		EndCol:    l.col,
	}
}

// -----------------------------------------------------------------------------

// eat moves the lexer forward one rune and writes the rune to the token
// buffer.  At the end of the source, -1 is returned as the rune value.
func (l *Lexer) eat() (rune, error) {
	c := l.peek()
	if c == -1 {
		return -1, nil
	}

	l.pos++
	l.updatePos(c)
	l.tokBuff.WriteRune(c)

	return c, nil
}

// skip moves the lexer forward one rune but does not write the rune to the
// token buffer.
func (l *Lexer) skip() rune {
	c := l.peek()
	if c == -1 {
		return -1
	}

	l.pos++
	l.updatePos(c)

	return c
}

// peek returns the next rune without moving the lexer forward.  At the end of
// the source, -1 is returned.
func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n positions ahead of the current one without moving
// the lexer forward.
func (l *Lexer) peekAt(n int) rune {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}

	return -1
}

// updatePos updates the lexer's position based on the input character.
func (l *Lexer) updatePos(c rune) {
	switch c {
	case '\n':
		l.line++
		l.col = 0
	case '\t':
		l.col += 4
	default:
		l.col++
	}
}

// -----------------------------------------------------------------------------

// isDecimalDigit returns whether c is a decimal digit.
func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isBinaryDigit returns whether c is a binary digit.
func isBinaryDigit(c rune) bool {
	return c == '0' || c == '1'
}

// isHexDigit returns whether c is a hexadecimal digit.
func isHexDigit(c rune) bool {
	return isDecimalDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// isFirstIdentChar returns whether c could be the first rune of an
// identifier.
func isFirstIdentChar(c rune) bool {
	return c == '_' || (c > 0 && unicode.IsLetter(c))
}
