package syntax

import (
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/types"
)

// parseTypeLabel parses a type label.
//
//	type_label := 'void'
//	            | IDENT                                  (primitive)
//	            | '&' [storage] type_label               (reference)
//	            | '[' [storage] type_label [':' range] ']'
//	                                                     (slice or array)
//	range      := number | number 'to' number
func (p *Parser) parseTypeLabel() types.Type {
	switch p.tok.Kind {
	case TOK_VOID:
		p.next()
		return types.VoidType{}

	case TOK_AMP:
		p.next()
		storage := p.parseStorageClass()
		elem := p.parseTypeLabel()
		return types.RefType{Elem: elem, Storage: storage}

	case TOK_LBRACKET:
		p.next()
		storage := p.parseStorageClass()
		elem := p.parseTypeLabel()

		if p.got(TOK_RBRACKET) {
			p.next()
			return types.SliceType{Elem: elem, Storage: storage}
		}

		p.assertAndNext(TOK_COLON)
		lo := p.parseTypeRangeBound()

		// `[T: n]` is shorthand for `[T: 0 to n-1]`.
		hi := lo - 1
		lo = 0
		if p.got(TOK_TO) {
			p.next()
			lo = hi + 1
			hi = p.parseTypeRangeBound()
		}

		end := p.assertAndNext(TOK_RBRACKET)
		if hi < lo {
			panic(report.Raise(end.Span, "array range is empty"))
		}

		return types.ArrayType{Elem: elem, Storage: storage, Lo: int(lo), Hi: int(hi)}

	case TOK_IDENT:
		tok := p.assertAndNext(TOK_IDENT)
		if prim, ok := types.Primitives[tok.Value]; ok {
			return prim
		}

		panic(report.Raise(tok.Span, "unknown type `%s`", tok.Value))

	default:
		p.reject()
		return nil
	}
}

// parseStorageClass parses an optional storage class keyword inside a type
// label, defaulting to auto.
func (p *Parser) parseStorageClass() types.Storage {
	switch p.tok.Kind {
	case TOK_MUT:
		p.next()
		return types.Mut
	case TOK_STASH:
		p.next()
		return types.Stash
	default:
		return types.Auto
	}
}

// parseTypeRangeBound parses one integer bound of an array range.  Bounds
// must be literal numbers, optionally negated.
func (p *Parser) parseTypeRangeBound() int64 {
	neg := false
	if p.got(TOK_MINUS) {
		neg = true
		p.next()
	}

	tok := p.assertAndNext(TOK_NUMLIT)
	v, err := parseNumberValue(tok)
	if err != nil {
		panic(report.Raise(tok.Span, "%s", err.Error()))
	}

	if neg {
		v = -v
	}

	return v
}
