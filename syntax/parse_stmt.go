package syntax

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/types"
)

// parseStatement parses a single statement.
//
//	statement := use_stmt | constant_stmt | let_stmt | fun_def | isr_def
//	           | while_loop | for_loop | if_chain | return_stmt
//	           | assign_or_expr_stmt
func (p *Parser) parseStatement() ast.Statement {
	switch p.tok.Kind {
	case TOK_USE:
		return p.parseUse()
	case TOK_CONSTANT:
		return p.parseConstant()
	case TOK_LET:
		return p.parseLet()
	case TOK_FUN:
		return p.parseFun()
	case TOK_ISR:
		return p.parseIsr()
	case TOK_WHILE:
		return p.parseWhile()
	case TOK_FOR:
		return p.parseFor()
	case TOK_IF:
		return p.parseIf()
	case TOK_RETURN:
		return p.parseReturn()
	default:
		return p.parseAssignOrExprStmt()
	}
}

// parseBlock parses statements until one of the stop token kinds is reached.
// The stop token is not consumed.
func (p *Parser) parseBlock(stops ...int) []ast.Statement {
	var stmts []ast.Statement

	for {
		if p.got(TOK_EOF) {
			p.reject()
		}

		for _, stop := range stops {
			if p.got(stop) {
				return stmts
			}
		}

		stmts = append(stmts, p.parseStatement())
	}
}

// -----------------------------------------------------------------------------

// use_stmt := 'use' IDENT
func (p *Parser) parseUse() ast.Statement {
	start := p.tok.Span
	p.next()

	name := p.assertAndNext(TOK_IDENT)

	return &ast.UseStmt{
		StmtBase: stmtBaseOver(start, name.Span),
		Unit:     name.Value,
	}
}

// constant_stmt := 'constant' decl '=' expr
func (p *Parser) parseConstant() ast.Statement {
	start := p.tok.Span
	p.next()

	decl := p.parseDecl()
	p.assertAndNext(TOK_ASSIGN)
	init := p.parseExpr()

	return &ast.ConstStmt{
		StmtBase: stmtBaseOver(start, init.Span()),
		Decl:     decl,
		Init:     init,
	}
}

// let_stmt := 'let' ['mut' | 'stash'] decl ['=' expr]
func (p *Parser) parseLet() ast.Statement {
	start := p.tok.Span
	p.next()

	storage := types.Auto
	switch p.tok.Kind {
	case TOK_MUT:
		storage = types.Mut
		p.next()
	case TOK_STASH:
		storage = types.Stash
		p.next()
	}

	decl := p.parseDecl()
	end := decl.NamePos

	var init ast.Expr
	if p.got(TOK_ASSIGN) {
		p.next()
		init = p.parseExpr()
		end = init.Span()
	}

	return &ast.LetStmt{
		StmtBase: stmtBaseOver(start, end),
		Decl:     decl,
		Storage:  storage,
		Init:     init,
	}
}

// decl := IDENT ':' type_label
func (p *Parser) parseDecl() ast.Decl {
	name := p.assertAndNext(TOK_IDENT)
	p.assertAndNext(TOK_COLON)
	typ := p.parseTypeLabel()

	return ast.Decl{Name: name.Value, Type: typ, NamePos: name.Span}
}

// -----------------------------------------------------------------------------

// fun_def := 'fun' IDENT '(' [decl {',' decl}] ')' ['->' type_label]
//            block 'endfun'
func (p *Parser) parseFun() ast.Statement {
	start := p.tok.Span
	p.next()

	name := p.assertAndNext(TOK_IDENT)
	p.assertAndNext(TOK_LPAREN)

	var params []ast.Decl
	if !p.got(TOK_RPAREN) {
		for {
			params = append(params, p.parseDecl())
			if !p.got(TOK_COMMA) {
				break
			}
			p.next()
		}
	}
	p.assertAndNext(TOK_RPAREN)

	ret := types.Type(types.VoidType{})
	if p.got(TOK_ARROW) {
		p.next()
		ret = p.parseTypeLabel()
	}

	body := p.parseBlock(TOK_ENDFUN)
	end := p.assertAndNext(TOK_ENDFUN)

	return &ast.FunStmt{
		StmtBase: stmtBaseOver(start, end.Span),
		Name:     name.Value,
		Params:   params,
		Return:   ret,
		Body:     body,
	}
}

// isr_def := 'isr' IDENT block 'endisr'
func (p *Parser) parseIsr() ast.Statement {
	start := p.tok.Span
	p.next()

	name := p.assertAndNext(TOK_IDENT)
	body := p.parseBlock(TOK_ENDISR)
	end := p.assertAndNext(TOK_ENDISR)

	return &ast.IsrStmt{
		StmtBase: stmtBaseOver(start, end.Span),
		Name:     name.Value,
		Body:     body,
	}
}

// -----------------------------------------------------------------------------

// while_loop := 'while' expr 'do' block 'end'
func (p *Parser) parseWhile() ast.Statement {
	start := p.tok.Span
	p.next()

	cond := p.parseExpr()
	p.assertAndNext(TOK_DO)
	body := p.parseBlock(TOK_END)
	end := p.assertAndNext(TOK_END)

	return &ast.WhileStmt{
		StmtBase: stmtBaseOver(start, end.Span),
		Cond:     cond,
		Body:     body,
	}
}

// for_loop := 'for' decl 'in' (expr 'to' expr | expr) 'do' block 'end'
//
// The iterator form requires the expression to be a `.range` member access;
// that restriction is enforced here since the two loop forms parse
// identically up to it.
func (p *Parser) parseFor() ast.Statement {
	start := p.tok.Span
	p.next()

	loopVar := p.parseDecl()
	p.assertAndNext(TOK_IN)

	first := p.parseExpr()

	var lo, hi, rangeExpr ast.Expr
	if p.got(TOK_TO) {
		p.next()
		lo = first
		hi = p.parseExpr()
	} else {
		member, ok := first.(*ast.Member)
		if !ok || member.Field != "range" {
			panic(report.Raise(first.Span(), "for loop requires `a to b` or `expr.range`"))
		}
		rangeExpr = member.Root
	}

	p.assertAndNext(TOK_DO)
	body := p.parseBlock(TOK_END)
	end := p.assertAndNext(TOK_END)

	return &ast.ForStmt{
		StmtBase: stmtBaseOver(start, end.Span),
		Var:      loopVar,
		Lo:       lo,
		Hi:       hi,
		Range:    rangeExpr,
		Body:     body,
	}
}

// if_chain := 'if' expr 'then' block {'elseif' expr 'then' block}
//             ['else' block] 'end'
func (p *Parser) parseIf() ast.Statement {
	start := p.tok.Span
	p.next()

	var branches []ast.CondBody
	var elseBody []ast.Statement

	cond := p.parseExpr()
	p.assertAndNext(TOK_THEN)
	body := p.parseBlock(TOK_ELSEIF, TOK_ELSE, TOK_END)
	branches = append(branches, ast.CondBody{Cond: cond, Body: body})

	for p.got(TOK_ELSEIF) {
		p.next()
		cond := p.parseExpr()
		p.assertAndNext(TOK_THEN)
		body := p.parseBlock(TOK_ELSEIF, TOK_ELSE, TOK_END)
		branches = append(branches, ast.CondBody{Cond: cond, Body: body})
	}

	if p.got(TOK_ELSE) {
		p.next()
		elseBody = p.parseBlock(TOK_END)
	}

	end := p.assertAndNext(TOK_END)

	return &ast.IfStmt{
		StmtBase: stmtBaseOver(start, end.Span),
		Branches: branches,
		Else:     elseBody,
	}
}

// -----------------------------------------------------------------------------

// return_stmt := 'return' [expr]
func (p *Parser) parseReturn() ast.Statement {
	start := p.tok.Span
	end := start
	p.next()

	var value ast.Expr
	if p.beginsExpr() {
		value = p.parseExpr()
		end = value.Span()
	}

	return &ast.ReturnStmt{
		StmtBase: stmtBaseOver(start, end),
		Value:    value,
	}
}

// beginsExpr returns whether the current token may begin an expression.
func (p *Parser) beginsExpr() bool {
	switch p.tok.Kind {
	case TOK_IDENT, TOK_NUMLIT, TOK_STRINGLIT, TOK_LPAREN, TOK_LBRACKET,
		TOK_MINUS, TOK_NOT, TOK_BITNOT, TOK_AMP, TOK_ATSIGN:
		return true
	default:
		return false
	}
}

// assign_or_expr_stmt := place '=' expr | expr
func (p *Parser) parseAssignOrExprStmt() ast.Statement {
	expr := p.parseExpr()

	if p.got(TOK_ASSIGN) {
		if !isPlace(expr) {
			p.rejectWithMsg("cannot assign to this expression")
		}

		p.next()
		rhs := p.parseExpr()

		return &ast.AssignStmt{
			StmtBase: stmtBaseOver(expr.Span(), rhs.Span()),
			Lhs:      expr,
			Rhs:      rhs,
		}
	}

	return &ast.ExprStmt{
		StmtBase: stmtBaseOver(expr.Span(), expr.Span()),
		Expr:     expr,
	}
}

// isPlace returns whether an expression form may appear on the left side of
// an assignment: an identifier, a subscript, or a dereference.
func isPlace(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Identifier, *ast.Subscript:
		return true
	case *ast.UnaryOp:
		return e.Op == "@"
	default:
		return false
	}
}

// -----------------------------------------------------------------------------

// stmtBaseOver builds a statement base spanning from start to end.
func stmtBaseOver(start, end *report.TextSpan) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NewNodeBaseOver(start, end)}
}
