package parser

import (
	"fmt"
	"rill/internal/ast"
	"rill/internal/lexer"
	"rill/internal/token"
	"strconv"
	"unicode"
	"unicode/utf8"
)

const (
	_           int = iota
	LOWEST          // entry precedence
	ASSIGN          // =
	SEND            // ! and ? message operators
	RANGE           // a..b
	LOGICAL_OR      // ||
	LOGICAL_AND     // &&
	EQUALS          // == !=
	COMPARISON      // < <= > >=
	SUM             // + -
	PRODUCT         // * / %
	PREFIX          // -x or !x
	CALL            // f(x), obj.m
	INDEX           // array[index]
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:          ASSIGN,
	token.BANG:            SEND,
	token.QUESTION:        SEND,
	token.RANGE:           RANGE,
	token.RANGE_INCLUSIVE: RANGE,
	token.LOGICAL_OR:      LOGICAL_OR,
	token.LOGICAL_AND:     LOGICAL_AND,
	token.EQ:              EQUALS,
	token.NOT_EQ:          EQUALS,
	token.LT:              COMPARISON,
	token.LT_EQ:           COMPARISON,
	token.GT:              COMPARISON,
	token.GT_EQ:           COMPARISON,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.SLASH:           PRODUCT,
	token.ASTERISK:        PRODUCT,
	token.PERCENT:         PRODUCT,
	token.PERIOD:          CALL,
	token.LPAREN:          CALL,
	token.LBRACKET:        INDEX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	errors []string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []string{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.CHAR, p.parseCharLiteral)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseMapLiteral)
	p.registerPrefix(token.IF, p.parseIfExpression)
	p.registerPrefix(token.MATCH, p.parseMatchExpression)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.FOR, p.parseForExpression)
	p.registerPrefix(token.WHILE, p.parseWhileExpression)
	p.registerPrefix(token.LOOP, p.parseLoopExpression)
	p.registerPrefix(token.LABEL, p.parseLabelledLoop)
	p.registerPrefix(token.TRY, p.parseTryCatchExpression)
	p.registerPrefix(token.SPAWN, p.parseSpawnExpression)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	p.registerInfix(token.PLUS, p.parseInfixExpression)
	p.registerInfix(token.MINUS, p.parseInfixExpression)
	p.registerInfix(token.SLASH, p.parseInfixExpression)
	p.registerInfix(token.ASTERISK, p.parseInfixExpression)
	p.registerInfix(token.PERCENT, p.parseInfixExpression)
	p.registerInfix(token.EQ, p.parseInfixExpression)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpression)
	p.registerInfix(token.LT, p.parseInfixExpression)
	p.registerInfix(token.LT_EQ, p.parseInfixExpression)
	p.registerInfix(token.GT, p.parseInfixExpression)
	p.registerInfix(token.GT_EQ, p.parseInfixExpression)
	p.registerInfix(token.LOGICAL_AND, p.parseInfixExpression)
	p.registerInfix(token.LOGICAL_OR, p.parseInfixExpression)
	p.registerInfix(token.RANGE, p.parseRangeLiteral)
	p.registerInfix(token.RANGE_INCLUSIVE, p.parseRangeLiteral)
	p.registerInfix(token.ASSIGN, p.parseAssignExpression)
	p.registerInfix(token.BANG, p.parseSendExpression)
	p.registerInfix(token.QUESTION, p.parseAskExpression)
	p.registerInfix(token.PERIOD, p.parseFieldAccess)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) addError(message string, args ...interface{}) {
	msg := fmt.Sprintf(message, args...)
	p.errors = append(p.errors, fmt.Sprintf("%s (at offset %d)", msg, p.curToken.Position))
}

func (p *Parser) peekError(t token.TokenType) {
	p.addError("expected next token to be %s, got %s instead", t, p.peekToken.Type)
}

func (p *Parser) noPrefixParseFnError(t token.TokenType) {
	p.addError("no prefix parse function for %s found", t)
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.ACTOR:
		return p.parseActorDeclaration()
	case token.ENUM:
		return p.parseEnumDeclaration()
	case token.FUNCTION:
		if p.peekTokenIs(token.IDENT) {
			return p.parseFunctionDeclaration()
		}
		return p.parseExpressionStatement()
	case token.SEMICOLON:
		return nil
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLetStatement() *ast.LetStatement {
	stmt := &ast.LetStatement{Token: p.curToken}

	if p.peekTokenIs(token.MUT) {
		p.nextToken()
		stmt.Mutable = true
	}

	p.nextToken()
	stmt.Pattern = p.parseMatchPattern()
	if stmt.Pattern == nil {
		return nil
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return stmt
	}

	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

func (p *Parser) parseBreakStatement() *ast.BreakStatement {
	stmt := &ast.BreakStatement{Token: p.curToken}

	if p.peekTokenIs(token.LABEL) {
		p.nextToken()
		stmt.Label = p.curToken.Literal
	}

	if !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
	}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

func (p *Parser) parseContinueStatement() *ast.ContinueStatement {
	stmt := &ast.ContinueStatement{Token: p.curToken}

	if p.peekTokenIs(token.LABEL) {
		p.nextToken()
		stmt.Label = p.curToken.Literal
	}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

func (p *Parser) parseThrowStatement() *ast.ThrowStatement {
	stmt := &ast.ThrowStatement{Token: p.curToken}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	decl := &ast.FunctionDeclaration{Token: p.curToken}

	p.nextToken()
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	fn := &ast.FunctionLiteral{Token: decl.Token}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn.Parameters = p.parseFunctionParameters()

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	fn.Body = p.parseBlockStatement()

	decl.Function = fn
	return decl
}

func (p *Parser) parseClassDeclaration() *ast.ClassDeclaration {
	decl := &ast.ClassDeclaration{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	init, methods, _ := p.parseMemberList(false)
	decl.Init = init
	decl.Methods = methods
	return decl
}

func (p *Parser) parseActorDeclaration() *ast.ActorDeclaration {
	decl := &ast.ActorDeclaration{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	init, methods, receive := p.parseMemberList(true)
	decl.Init = init
	decl.Methods = methods
	decl.Receive = receive
	return decl
}

// parseMemberList consumes the body of a class or actor declaration up to
// its closing brace: an optional `init`, `fn` methods, and (for actors) a
// `receive { ... }` block.
func (p *Parser) parseMemberList(allowReceive bool) (*ast.FunctionLiteral, []*ast.FunctionDeclaration, []*ast.MatchArm) {
	var init *ast.FunctionLiteral
	var methods []*ast.FunctionDeclaration
	var receive []*ast.MatchArm

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()

		switch {
		case p.curTokenIs(token.IDENT) && p.curToken.Literal == "init":
			fn := &ast.FunctionLiteral{Token: p.curToken}
			if !p.expectPeek(token.LPAREN) {
				return init, methods, receive
			}
			fn.Parameters = p.parseFunctionParameters()
			if !p.expectPeek(token.LBRACE) {
				return init, methods, receive
			}
			fn.Body = p.parseBlockStatement()
			if init != nil {
				p.addError("duplicate init constructor")
			}
			init = fn

		case p.curTokenIs(token.FUNCTION):
			m := p.parseFunctionDeclaration()
			if m == nil {
				return init, methods, receive
			}
			methods = append(methods, m)

		case allowReceive && p.curTokenIs(token.RECEIVE):
			if !p.expectPeek(token.LBRACE) {
				return init, methods, receive
			}
			receive = append(receive, p.parseMatchArms()...)

		default:
			p.addError("unexpected token %s in declaration body", p.curToken.Type)
			return init, methods, receive
		}
	}

	p.nextToken() // consume the closing brace
	return init, methods, receive
}

func (p *Parser) parseEnumDeclaration() *ast.EnumDeclaration {
	decl := &ast.EnumDeclaration{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		variant := &ast.EnumVariant{
			Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
		}
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			for !p.peekTokenIs(token.RPAREN) {
				if !p.expectPeek(token.IDENT) {
					return nil
				}
				variant.Params = append(variant.Params,
					&ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
				if p.peekTokenIs(token.COMMA) {
					p.nextToken()
				}
			}
			p.nextToken() // consume )
		}
		decl.Variants = append(decl.Variants, variant)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}

	p.nextToken() // consume the closing brace
	return decl
}

func (p *Parser) parseExpressionStatement() *ast.ExpressionStatement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	leftExp := prefix()

	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}

	value, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
	if err != nil {
		p.addError("could not parse %q as integer", p.curToken.Literal)
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("could not parse %q as float", p.curToken.Literal)
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseCharLiteral() ast.Expression {
	r, _ := utf8.DecodeRuneInString(p.curToken.Literal)
	return &ast.CharLiteral{Token: p.curToken, Value: r}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.Boolean{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)

	return expression
}

func (p *Parser) parseRangeLiteral(left ast.Expression) ast.Expression {
	expression := &ast.RangeLiteral{
		Token:     p.curToken,
		Start:     left,
		Inclusive: p.curTokenIs(token.RANGE_INCLUSIVE),
	}

	p.nextToken()
	expression.End = p.parseExpression(RANGE)

	return expression
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	switch left.(type) {
	case *ast.Identifier, *ast.IndexExpression, *ast.FieldAccess:
	default:
		p.addError("invalid assignment target: %s", left.String())
		return nil
	}

	expression := &ast.AssignExpression{Token: p.curToken, Target: left}

	p.nextToken()
	// right-associative: a = b = c assigns c to b, then to a
	expression.Value = p.parseExpression(ASSIGN - 1)

	return expression
}

func (p *Parser) parseSendExpression(left ast.Expression) ast.Expression {
	expression := &ast.SendExpression{Token: p.curToken, Target: left}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Message = p.parseExpression(precedence)

	return expression
}

func (p *Parser) parseAskExpression(left ast.Expression) ast.Expression {
	expression := &ast.AskExpression{Token: p.curToken, Target: left}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Message = p.parseExpression(precedence)

	return expression
}

func (p *Parser) parseFieldAccess(left ast.Expression) ast.Expression {
	fa := &ast.FieldAccess{Token: p.curToken, Object: left}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fa.Field = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	return fa
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	tok := p.curToken

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.UnitLiteral{Token: tok}
	}

	p.nextToken()
	exp := p.parseExpression(LOWEST)

	// `(a, b, ...)` is a tuple literal
	if p.peekTokenIs(token.COMMA) {
		tuple := &ast.TupleLiteral{Token: tok, Elements: []ast.Expression{exp}}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			tuple.Elements = append(tuple.Elements, p.parseExpression(LOWEST))
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return tuple
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseIfExpression() ast.Expression {
	expression := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	expression.Consequence = p.parseBlockStatement()

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()

		if p.peekTokenIs(token.IF) {
			p.nextToken()
			expression.Alternative = p.parseIfExpression()
			return expression
		}

		if !p.expectPeek(token.LBRACE) {
			return nil
		}

		expression.Alternative = p.parseBlockStatement()
	}

	return expression
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	p.nextToken()

	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	if !p.curTokenIs(token.RBRACE) {
		p.addError("expected closing brace, got %s", p.curToken.Type)
	}

	return block
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	lit.Parameters = p.parseFunctionParameters()

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	lit.Body = p.parseBlockStatement()

	return lit
}

func (p *Parser) parseFunctionParameters() []*ast.Identifier {
	identifiers := []*ast.Identifier{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return identifiers
	}

	p.nextToken()
	identifiers = append(identifiers, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		identifiers = append(identifiers, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return identifiers
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	exp.Arguments = p.parseExpressionList(token.RPAREN)
	return exp
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(end) {
		return nil
	}

	return list
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	array := &ast.ArrayLiteral{Token: p.curToken}
	array.Elements = p.parseExpressionList(token.RBRACKET)
	return array
}

func (p *Parser) parseMapLiteral() ast.Expression {
	m := &ast.MapLiteral{Token: p.curToken}

	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		key := p.parseExpression(LOWEST)

		if !p.expectPeek(token.COLON) {
			return nil
		}

		p.nextToken()
		value := p.parseExpression(LOWEST)

		m.Keys = append(m.Keys, key)
		m.Vals = append(m.Vals, value)

		if !p.peekTokenIs(token.RBRACE) && !p.expectPeek(token.COMMA) {
			return nil
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return m
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}

	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}

	return exp
}

func (p *Parser) parseForExpression() ast.Expression {
	expression := &ast.ForExpression{Token: p.curToken}

	p.nextToken()
	expression.Binding = p.parseMatchPattern()
	if expression.Binding == nil {
		return nil
	}

	if !p.expectPeek(token.IN) {
		return nil
	}

	p.nextToken()
	expression.Iterable = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockStatement()

	return expression
}

func (p *Parser) parseWhileExpression() ast.Expression {
	expression := &ast.WhileExpression{Token: p.curToken}

	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockStatement()

	return expression
}

func (p *Parser) parseLoopExpression() ast.Expression {
	expression := &ast.LoopExpression{Token: p.curToken}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockStatement()

	return expression
}

// parseLabelledLoop handles `'name: loop { ... }` (and labelled for/while).
func (p *Parser) parseLabelledLoop() ast.Expression {
	label := p.curToken.Literal

	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()

	switch p.curToken.Type {
	case token.FOR:
		exp := p.parseForExpression()
		if fe, ok := exp.(*ast.ForExpression); ok {
			fe.Label = label
		}
		return exp
	case token.WHILE:
		exp := p.parseWhileExpression()
		if we, ok := exp.(*ast.WhileExpression); ok {
			we.Label = label
		}
		return exp
	case token.LOOP:
		exp := p.parseLoopExpression()
		if le, ok := exp.(*ast.LoopExpression); ok {
			le.Label = label
		}
		return exp
	default:
		p.addError("label must be followed by a loop, got %s", p.curToken.Type)
		return nil
	}
}

func (p *Parser) parseTryCatchExpression() ast.Expression {
	expression := &ast.TryCatchExpression{Token: p.curToken}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.TryBlock = p.parseBlockStatement()

	if !p.expectPeek(token.CATCH) {
		return nil
	}

	p.nextToken()
	expression.CatchPattern = p.parseMatchPattern()
	if expression.CatchPattern == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.CatchBlock = p.parseBlockStatement()

	return expression
}

func (p *Parser) parseSpawnExpression() ast.Expression {
	expression := &ast.SpawnExpression{Token: p.curToken}

	p.nextToken()
	call := p.parseExpression(LOWEST)

	callExp, ok := call.(*ast.CallExpression)
	if !ok {
		p.addError("spawn expects a constructor call, got %s", call.String())
		return nil
	}
	expression.Call = callExp

	return expression
}

func (p *Parser) parseMatchExpression() ast.Expression {
	expression := &ast.MatchExpression{Token: p.curToken}

	p.nextToken()
	expression.Subject = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	expression.Arms = p.parseMatchArms()
	return expression
}

// parseMatchArms consumes `pattern [if guard] => body` arms up to and
// including the closing brace. The opening brace is the current token.
func (p *Parser) parseMatchArms() []*ast.MatchArm {
	arms := []*ast.MatchArm{}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()

		arm := &ast.MatchArm{}
		arm.Pattern = p.parseMatchPattern()
		if arm.Pattern == nil {
			return arms
		}

		if p.peekTokenIs(token.IF) {
			p.nextToken()
			p.nextToken()
			arm.Guard = p.parseExpression(LOWEST)
		}

		if !p.expectPeek(token.ROCKET) {
			return arms
		}

		if p.peekTokenIs(token.LBRACE) {
			p.nextToken()
			arm.Body = p.parseBlockStatement()
		} else {
			p.nextToken()
			arm.Body = p.parseExpression(LOWEST)
		}

		arms = append(arms, arm)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}

	p.nextToken() // consume the closing brace
	return arms
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (p *Parser) parseMatchPattern() ast.MatchPattern {
	switch p.curToken.Type {
	case token.UNDERSCORE:
		return &ast.WildcardPattern{Token: p.curToken}

	case token.INT, token.FLOAT, token.MINUS:
		return p.parseNumericPattern()

	case token.STRING:
		return &ast.LiteralPattern{
			Token: p.curToken,
			Value: &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal},
		}

	case token.CHAR:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseCharLiteral()}

	case token.TRUE, token.FALSE:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseBoolean()}

	case token.IDENT:
		return p.parseNamedPattern()

	case token.LPAREN:
		return p.parseTuplePattern()

	case token.LBRACKET:
		return p.parseArrayPattern()

	case token.LBRACE:
		return p.parseStructPattern(nil)

	default:
		p.addError("unexpected token %s in pattern", p.curToken.Type)
		return nil
	}
}

// parseNumericPattern handles int/float literals, negated literals, and
// inclusive/exclusive range patterns such as 1..=5.
func (p *Parser) parseNumericPattern() ast.MatchPattern {
	tok := p.curToken

	start := p.parseNumericLiteral()
	if start == nil {
		return nil
	}

	if p.peekTokenIs(token.RANGE) || p.peekTokenIs(token.RANGE_INCLUSIVE) {
		p.nextToken()
		inclusive := p.curTokenIs(token.RANGE_INCLUSIVE)
		p.nextToken()
		end := p.parseNumericLiteral()
		if end == nil {
			return nil
		}
		return &ast.RangePattern{Token: tok, Start: start, End: end, Inclusive: inclusive}
	}

	return &ast.LiteralPattern{Token: tok, Value: start}
}

func (p *Parser) parseNumericLiteral() ast.Expression {
	if p.curTokenIs(token.MINUS) {
		tok := p.curToken
		p.nextToken()
		right := p.parseNumericLiteral()
		if right == nil {
			return nil
		}
		return &ast.PrefixExpression{Token: tok, Operator: "-", Right: right}
	}
	switch p.curToken.Type {
	case token.INT:
		return p.parseIntegerLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	default:
		p.addError("expected a numeric literal in pattern, got %s", p.curToken.Type)
		return nil
	}
}

// parseNamedPattern disambiguates bindings from variant/struct patterns by
// capitalization: `x` binds, `Some(x)` and `Point { x, y }` destructure.
func (p *Parser) parseNamedPattern() ast.MatchPattern {
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !isCapitalized(name.Value) {
		return &ast.IdentifierPattern{Token: p.curToken, Value: name}
	}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		vp := &ast.VariantPattern{Token: name.Token, Name: name}
		for !p.peekTokenIs(token.RPAREN) {
			p.nextToken()
			sub := p.parseMatchPattern()
			if sub == nil {
				return nil
			}
			vp.Elements = append(vp.Elements, sub)
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.nextToken() // consume )
		return vp
	}

	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		return p.parseStructPattern(name)
	}

	return &ast.VariantPattern{Token: name.Token, Name: name}
}

func (p *Parser) parseTuplePattern() ast.MatchPattern {
	tp := &ast.TuplePattern{Token: p.curToken}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.LiteralPattern{
			Token: tp.Token,
			Value: &ast.UnitLiteral{Token: tp.Token},
		}
	}

	for !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		sub := p.parseMatchPattern()
		if sub == nil {
			return nil
		}
		tp.Elements = append(tp.Elements, sub)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken() // consume )

	// a single parenthesized pattern is grouping, not a tuple
	if len(tp.Elements) == 1 {
		return tp.Elements[0]
	}

	return tp
}

func (p *Parser) parseArrayPattern() ast.MatchPattern {
	ap := &ast.ArrayPattern{Token: p.curToken}

	for !p.peekTokenIs(token.RBRACKET) {
		p.nextToken()

		if p.curTokenIs(token.RANGE) {
			rest := &ast.RestPattern{Token: p.curToken}
			if p.peekTokenIs(token.IDENT) {
				p.nextToken()
				rest.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			}
			ap.Elements = append(ap.Elements, rest)
		} else {
			sub := p.parseMatchPattern()
			if sub == nil {
				return nil
			}
			ap.Elements = append(ap.Elements, sub)
		}

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken() // consume ]

	return ap
}

// parseStructPattern parses `{ field, other: pat }` with the opening brace
// as the current token; name is the optional class/type name.
func (p *Parser) parseStructPattern(name *ast.Identifier) ast.MatchPattern {
	sp := &ast.StructPattern{Token: p.curToken, Name: name}

	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		field := &ast.FieldPattern{
			Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
		}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			field.Pattern = p.parseMatchPattern()
			if field.Pattern == nil {
				return nil
			}
		}
		sp.Fields = append(sp.Fields, field)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken() // consume }

	return sp
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
