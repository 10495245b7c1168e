package syntax

import "github.com/jdpage/jeff65/report"

// Token represents a single lexical token of gold source.
type Token struct {
	// The token kind.  Must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.
	Value string

	// The span over which the token occurs.
	Span *report.TextSpan
}

// Enumeration of the different token kinds.
const (
	TOK_EOF = iota

	TOK_IDENT
	TOK_NUMLIT
	TOK_STRINGLIT

	// Statement leaders.
	TOK_USE
	TOK_CONSTANT
	TOK_LET
	TOK_FUN
	TOK_ISR
	TOK_WHILE
	TOK_FOR
	TOK_IF
	TOK_RETURN

	// Storage classes.
	TOK_MUT
	TOK_STASH

	// Assorted keywords.
	TOK_ENDFUN
	TOK_ENDISR
	TOK_ELSEIF
	TOK_ELSE
	TOK_THEN
	TOK_DO
	TOK_END
	TOK_IN
	TOK_TO
	TOK_VOID

	// Word operators.
	TOK_AND
	TOK_OR
	TOK_NOT
	TOK_BITAND
	TOK_BITOR
	TOK_BITXOR
	TOK_BITNOT

	// Symbol operators.
	TOK_PLUS
	TOK_MINUS
	TOK_STAR
	TOK_DIV
	TOK_LSHIFT
	TOK_RSHIFT
	TOK_EQ
	TOK_NEQ
	TOK_LT
	TOK_LTEQ
	TOK_GT
	TOK_GTEQ
	TOK_ASSIGN
	TOK_AMP
	TOK_ATSIGN
	TOK_ARROW

	// Punctuation.
	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACKET
	TOK_RBRACKET
	TOK_COLON
	TOK_COMMA
	TOK_DOT
)

// keywordPatterns maps keyword strings (patterns) to their keyword token kind.
var keywordPatterns = map[string]int{
	"use":      TOK_USE,
	"constant": TOK_CONSTANT,
	"let":      TOK_LET,
	"fun":      TOK_FUN,
	"isr":      TOK_ISR,
	"while":    TOK_WHILE,
	"for":      TOK_FOR,
	"if":       TOK_IF,
	"return":   TOK_RETURN,

	"mut":   TOK_MUT,
	"stash": TOK_STASH,

	"endfun": TOK_ENDFUN,
	"endisr": TOK_ENDISR,
	"elseif": TOK_ELSEIF,
	"else":   TOK_ELSE,
	"then":   TOK_THEN,
	"do":     TOK_DO,
	"end":    TOK_END,
	"in":     TOK_IN,
	"to":     TOK_TO,
	"void":   TOK_VOID,

	"and":    TOK_AND,
	"or":     TOK_OR,
	"not":    TOK_NOT,
	"bitand": TOK_BITAND,
	"bitor":  TOK_BITOR,
	"bitxor": TOK_BITXOR,
	"bitnot": TOK_BITNOT,
}

// symbolPatterns maps symbol strings (patterns) to their punctuation/operator
// token kind.
var symbolPatterns = map[string]int{
	"+": TOK_PLUS,
	// `-` and `--` are handled with comment logic.
	"*": TOK_STAR,
	// `/` and `/*` are handled with comment logic.
	"<<": TOK_LSHIFT,
	">>": TOK_RSHIFT,

	"==": TOK_EQ,
	"!=": TOK_NEQ,
	"<":  TOK_LT,
	"<=": TOK_LTEQ,
	">":  TOK_GT,
	">=": TOK_GTEQ,

	"=":  TOK_ASSIGN,
	"&":  TOK_AMP,
	"@":  TOK_ATSIGN,
	"->": TOK_ARROW,

	"(": TOK_LPAREN,
	")": TOK_RPAREN,
	"[": TOK_LBRACKET,
	"]": TOK_RBRACKET,
	":": TOK_COLON,
	",": TOK_COMMA,
	".": TOK_DOT,
}
