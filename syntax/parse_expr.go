package syntax

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/report"
)

// binaryPrecedence lists the binary operator token kinds by precedence level,
// lowest binding first.  Every level is left-associative except comparisons,
// which do not chain.
var binaryPrecedence = [][]int{
	{TOK_OR},
	{TOK_AND},
	{TOK_EQ, TOK_NEQ, TOK_LT, TOK_LTEQ, TOK_GT, TOK_GTEQ},
	{TOK_BITOR},
	{TOK_BITXOR},
	{TOK_BITAND},
	{TOK_LSHIFT, TOK_RSHIFT},
	{TOK_PLUS, TOK_MINUS},
	{TOK_STAR, TOK_DIV},
}

// comparisonLevel is the index of the comparison level in binaryPrecedence.
const comparisonLevel = 2

// parseExpr parses an expression.
//
//	expr := binary_expr
func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr parses binary operator applications at the given
// precedence level and above.
func (p *Parser) parseBinaryExpr(level int) ast.Expr {
	if level == len(binaryPrecedence) {
		return p.parseUnaryExpr()
	}

	lhs := p.parseBinaryExpr(level + 1)

	for {
		if !p.gotOneOf(binaryPrecedence[level]) {
			return lhs
		}

		op := p.tok.Value
		p.next()

		rhs := p.parseBinaryExpr(level + 1)
		lhs = &ast.BinaryOp{
			ExprBase: ast.NewExprBaseOver(lhs.Span(), rhs.Span()),
			Op:       op,
			Lhs:      lhs,
			Rhs:      rhs,
		}

		// Comparisons do not chain: `a < b < c` is rejected.
		if level == comparisonLevel {
			if p.gotOneOf(binaryPrecedence[level]) {
				p.rejectWithMsg("comparison operators cannot be chained")
			}

			return lhs
		}
	}
}

// gotOneOf returns whether the parser's current token kind is one of the
// given kinds.
func (p *Parser) gotOneOf(kinds []int) bool {
	for _, kind := range kinds {
		if p.tok.Kind == kind {
			return true
		}
	}

	return false
}

// parseUnaryExpr parses prefix operator applications.
//
//	unary_expr := ('-' | 'not' | 'bitnot' | '&' | '@') unary_expr
//	            | postfix_expr
func (p *Parser) parseUnaryExpr() ast.Expr {
	switch p.tok.Kind {
	case TOK_MINUS, TOK_NOT, TOK_BITNOT, TOK_AMP, TOK_ATSIGN:
		start := p.tok.Span
		op := p.tok.Value
		p.next()

		operand := p.parseUnaryExpr()
		return &ast.UnaryOp{
			ExprBase: ast.NewExprBaseOver(start, operand.Span()),
			Op:       op,
			Operand:  operand,
		}
	default:
		return p.parsePostfixExpr()
	}
}

// parsePostfixExpr parses call, subscript, and member access suffixes.
//
//	postfix_expr := atom {'(' [expr {',' expr}] ')' | '[' expr ']'
//	              | '.' IDENT}
func (p *Parser) parsePostfixExpr() ast.Expr {
	expr := p.parseAtom()

	for {
		switch p.tok.Kind {
		case TOK_LPAREN:
			p.next()

			var args []ast.Expr
			if !p.got(TOK_RPAREN) {
				for {
					args = append(args, p.parseExpr())
					if !p.got(TOK_COMMA) {
						break
					}
					p.next()
				}
			}
			end := p.assertAndNext(TOK_RPAREN)

			expr = &ast.Call{
				ExprBase: ast.NewExprBaseOver(expr.Span(), end.Span),
				Func:     expr,
				Args:     args,
			}

		case TOK_LBRACKET:
			p.next()
			index := p.parseExpr()
			end := p.assertAndNext(TOK_RBRACKET)

			expr = &ast.Subscript{
				ExprBase: ast.NewExprBaseOver(expr.Span(), end.Span),
				Target:   expr,
				Index:    index,
			}

		case TOK_DOT:
			p.next()
			field := p.assertAndNext(TOK_IDENT)

			expr = &ast.Member{
				ExprBase: ast.NewExprBaseOver(expr.Span(), field.Span),
				Root:     expr,
				Field:    field.Value,
				FieldPos: field.Span,
			}

		default:
			return expr
		}
	}
}

// parseAtom parses an atomic expression.
//
//	atom := IDENT | NUMLIT | STRINGLIT | array_lit | '(' expr ')'
func (p *Parser) parseAtom() ast.Expr {
	switch p.tok.Kind {
	case TOK_IDENT:
		tok := p.tok
		p.next()

		return &ast.Identifier{
			ExprBase: ast.NewExprBaseOn(tok.Span),
			Name:     tok.Value,
		}

	case TOK_NUMLIT:
		tok := p.tok
		p.next()

		value, err := parseNumberValue(tok)
		if err != nil {
			panic(report.Raise(tok.Span, "%s", err.Error()))
		}

		return &ast.NumberLit{
			ExprBase: ast.NewExprBaseOn(tok.Span),
			Value:    value,
		}

	case TOK_STRINGLIT:
		tok := p.tok
		p.next()

		return &ast.StringLit{
			ExprBase: ast.NewExprBaseOn(tok.Span),
			Value:    tok.Value,
		}

	case TOK_LBRACKET:
		return p.parseArrayLit()

	case TOK_LPAREN:
		p.next()
		expr := p.parseExpr()
		p.assertAndNext(TOK_RPAREN)
		return expr

	default:
		p.reject()
		return nil
	}
}

// array_lit := '[' expr {',' expr} ']'
func (p *Parser) parseArrayLit() ast.Expr {
	start := p.assertAndNext(TOK_LBRACKET)

	var elems []ast.Expr
	if !p.got(TOK_RBRACKET) {
		for {
			elems = append(elems, p.parseExpr())
			if !p.got(TOK_COMMA) {
				break
			}
			p.next()
		}
	}
	end := p.assertAndNext(TOK_RBRACKET)

	return &ast.ArrayLit{
		ExprBase: ast.NewExprBaseOver(start.Span, end.Span),
		Elems:    elems,
	}
}
