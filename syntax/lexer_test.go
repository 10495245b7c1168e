package syntax

import (
	"testing"

	"github.com/nalgeon/be"
)

// lexAll tokenizes the whole source, failing the test on any lex error.  The
// trailing EOF token is not returned.
func lexAll(t *testing.T, src string) []*Token {
	t.Helper()

	l := NewLexer(src)
	var toks []*Token

	for {
		tok, err := l.NextToken()
		be.Err(t, err, nil)

		if tok.Kind == TOK_EOF {
			return toks
		}

		toks = append(toks, tok)
	}
}

// kinds extracts the token kinds of a token list.
func kinds(toks []*Token) []int {
	ks := make([]int, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestLexDashedIdentifiers(t *testing.T) {
	// A `-` continues an identifier only when the rune after it could; binary
	// minus therefore requires surrounding whitespace.
	toks := lexAll(t, "conv-tbl x-1 a - b a -b")

	be.Equal(t, kinds(toks), []int{
		TOK_IDENT, TOK_IDENT,
		TOK_IDENT, TOK_MINUS, TOK_IDENT,
		TOK_IDENT, TOK_MINUS, TOK_IDENT,
	})
	be.Equal(t, toks[0].Value, "conv-tbl")
	be.Equal(t, toks[1].Value, "x-1")
}

func TestLexNumericLiterals(t *testing.T) {
	toks := lexAll(t, "255 $d020 %1010 1_000")

	be.Equal(t, kinds(toks), []int{TOK_NUMLIT, TOK_NUMLIT, TOK_NUMLIT, TOK_NUMLIT})
	be.Equal(t, toks[0].Value, "255")
	be.Equal(t, toks[1].Value, "$d020")
	be.Equal(t, toks[2].Value, "%1010")

	// Underscore separators are dropped from the token value.
	be.Equal(t, toks[3].Value, "1000")
}

func TestLexComments(t *testing.T) {
	toks := lexAll(t, "a -- the rest is gone\nb /* so is\nthis */ c")

	be.Equal(t, kinds(toks), []int{TOK_IDENT, TOK_IDENT, TOK_IDENT})
	be.Equal(t, toks[1].Value, "b")
	be.Equal(t, toks[2].Value, "c")
}

func TestLexKeywordsAndOperators(t *testing.T) {
	toks := lexAll(t, "fun endfun -> << >= == != bitand @ &")

	be.Equal(t, kinds(toks), []int{
		TOK_FUN, TOK_ENDFUN, TOK_ARROW, TOK_LSHIFT, TOK_GTEQ,
		TOK_EQ, TOK_NEQ, TOK_BITAND, TOK_ATSIGN, TOK_AMP,
	})
}

func TestLexNotEqual(t *testing.T) {
	// `!` is not a token on its own, only as the start of `!=`.
	toks := lexAll(t, "a != b")

	be.Equal(t, kinds(toks), []int{TOK_IDENT, TOK_NEQ, TOK_IDENT})
}

func TestLexStringLit(t *testing.T) {
	toks := lexAll(t, `"hello" "a\nb" "nul\0" "q\"q"`)

	be.Equal(t, kinds(toks), []int{TOK_STRINGLIT, TOK_STRINGLIT, TOK_STRINGLIT, TOK_STRINGLIT})
	be.Equal(t, toks[0].Value, "hello")
	be.Equal(t, toks[1].Value, "a\nb")
	be.Equal(t, toks[2].Value, "nul\x00")
	be.Equal(t, toks[3].Value, `q"q`)
}

func TestLexErrors(t *testing.T) {
	bad := []string{
		`"unclosed`,
		"\"line\nbreak\"",
		`"\q"`,
		"/* unclosed",
		"$",
		"%xyz",
		"#",
		"!",
	}

	for _, src := range bad {
		l := NewLexer(src)

		var err error
		for err == nil {
			var tok *Token
			tok, err = l.NextToken()
			if err == nil && tok.Kind == TOK_EOF {
				break
			}
		}

		if err == nil {
			t.Errorf("lexing %q: expected an error", src)
		}
	}
}

func TestLexSpans(t *testing.T) {
	toks := lexAll(t, "ab\n  cd")

	be.Equal(t, toks[0].Span.StartLine, 0)
	be.Equal(t, toks[0].Span.StartCol, 0)
	be.Equal(t, toks[0].Span.EndCol, 2)

	be.Equal(t, toks[1].Span.StartLine, 1)
	be.Equal(t, toks[1].Span.StartCol, 2)
}
