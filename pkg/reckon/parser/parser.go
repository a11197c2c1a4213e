package parser

import (
	"fmt"
	"strconv"
)

const (
	_ int = iota
	LOWEST
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	EQUALS      // == !=
	LESSGREATER // > or <
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -X or !X
	POWER       // X ^ Y
	CALL        // myFunction(X)
)

// DefaultMaxDepth bounds expression nesting when no explicit limit is set.
const DefaultMaxDepth = 128

var precedences = map[TokenType]int{
	OR:       LOGICAL_OR,
	AND:      LOGICAL_AND,
	EQ:       EQUALS,
	NOT_EQ:   EQUALS,
	LT:       LESSGREATER,
	GT:       LESSGREATER,
	LTE:      LESSGREATER,
	GTE:      LESSGREATER,
	PLUS:     SUM,
	MINUS:    SUM,
	ASTERISK: PRODUCT,
	SLASH:    PRODUCT,
	PERCENT:  PRODUCT,
	CARET:    POWER,
	LPAREN:   CALL,
}

// ErrorKind classifies parse errors so callers can map them onto their own
// error taxonomy.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindDepth
)

// Error is a single parse failure anchored at the offending token.
type Error struct {
	Kind     ErrorKind
	Position int
	Literal  string
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at position %d", e.Message, e.Position)
}

type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression
)

type Parser struct {
	l *Lexer

	curToken  Token
	peekToken Token

	errors []*Error

	depth    int
	maxDepth int

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

func New(l *Lexer) *Parser {
	p := &Parser{
		l:        l,
		errors:   []*Error{},
		maxDepth: DefaultMaxDepth,
	}

	p.prefixParseFns = make(map[TokenType]prefixParseFn)
	p.registerPrefix(IDENT, p.parseIdentifier)
	p.registerPrefix(INT, p.parseNumberLiteral)
	p.registerPrefix(FLOAT, p.parseNumberLiteral)
	p.registerPrefix(MINUS, p.parsePrefixExpression)
	p.registerPrefix(PLUS, p.parsePrefixExpression)
	p.registerPrefix(NOT, p.parsePrefixExpression)
	p.registerPrefix(LPAREN, p.parseGroupedExpression)

	p.infixParseFns = make(map[TokenType]infixParseFn)
	for _, t := range []TokenType{PLUS, MINUS, ASTERISK, SLASH, PERCENT, EQ, NOT_EQ, LT, GT, LTE, GTE, AND, OR} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(CARET, p.parsePowerExpression)
	p.registerInfix(LPAREN, p.parseCallExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// SetMaxDepth limits how deeply expressions may nest. Values below one fall
// back to DefaultMaxDepth.
func (p *Parser) SetMaxDepth(depth int) {
	if depth < 1 {
		depth = DefaultMaxDepth
	}
	p.maxDepth = depth
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseFormula parses the whole input as a single expression. The returned
// expression must not be used when Errors is non-empty.
func (p *Parser) ParseFormula() Expression {
	if p.curTokenIs(EOF) {
		p.addError(KindSyntax, p.curToken, "unexpected end of formula")
		return nil
	}

	exp := p.parseExpression(LOWEST)
	if len(p.errors) > 0 {
		return exp
	}

	if !p.peekTokenIs(EOF) {
		p.nextToken()
		switch p.curToken.Type {
		case RPAREN:
			p.addError(KindSyntax, p.curToken, "unbalanced parenthesis")
		default:
			p.noPrefixParseFnError(p.curToken)
		}
	}

	return exp
}

func (p *Parser) parseExpression(precedence int) Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > p.maxDepth {
		p.addError(KindDepth, p.curToken, fmt.Sprintf("expression nesting exceeds limit (%d)", p.maxDepth))
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for len(p.errors) == 0 && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) parseIdentifier() Expression {
	return &Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() Expression {
	lit := &NumberLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError(KindSyntax, p.curToken, fmt.Sprintf("could not parse %q as number", p.curToken.Literal))
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parsePrefixExpression() Expression {
	expression := &PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseInfixExpression(left Expression) Expression {
	expression := &InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

// parsePowerExpression binds right-to-left, so 2^3^2 is 2^(3^2).
func (p *Parser) parsePowerExpression(left Expression) Expression {
	expression := &InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	p.nextToken()
	expression.Right = p.parseExpression(POWER - 1)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseGroupedExpression() Expression {
	open := p.curToken
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.peekTokenIs(RPAREN) {
		if p.peekTokenIs(EOF) {
			p.addError(KindSyntax, open, "unbalanced parenthesis")
		} else {
			p.peekError(RPAREN)
		}
		return nil
	}
	p.nextToken()

	return exp
}

func (p *Parser) parseCallExpression(fn Expression) Expression {
	ident, ok := fn.(*Identifier)
	if !ok {
		p.addError(KindSyntax, p.curToken, fmt.Sprintf("%s is not callable", fn))
		return nil
	}

	exp := &CallExpression{Token: p.curToken, Function: ident}
	args, ok := p.parseExpressionList(RPAREN)
	if !ok {
		return nil
	}
	exp.Arguments = args
	return exp
}

func (p *Parser) parseExpressionList(end TokenType) ([]Expression, bool) {
	var args []Expression
	open := p.curToken

	if p.peekTokenIs(end) {
		p.nextToken()
		return args, true
	}

	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil, false
	}
	args = append(args, arg)

	for p.peekTokenIs(COMMA) {
		p.nextToken()
		p.nextToken()
		arg = p.parseExpression(LOWEST)
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
	}

	if !p.peekTokenIs(end) {
		if p.peekTokenIs(EOF) {
			p.addError(KindSyntax, open, "unbalanced parenthesis")
		} else {
			p.peekError(end)
		}
		return nil, false
	}
	p.nextToken()

	return args, true
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) Errors() []*Error {
	return p.errors
}

func (p *Parser) addError(kind ErrorKind, tok Token, msg string) {
	p.errors = append(p.errors, &Error{
		Kind:     kind,
		Position: tok.Position,
		Literal:  tok.Literal,
		Message:  msg,
	})
}

func (p *Parser) peekError(t TokenType) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead",
		t, p.peekToken.Type)
	p.addError(KindSyntax, p.peekToken, msg)
}

func (p *Parser) noPrefixParseFnError(tok Token) {
	switch tok.Type {
	case EOF:
		p.addError(KindSyntax, tok, "unexpected end of formula")
	case ILLEGAL:
		p.addError(KindSyntax, tok, fmt.Sprintf("unknown token %q", tok.Literal))
	default:
		p.addError(KindSyntax, tok, fmt.Sprintf("unexpected token %q", tok.Literal))
	}
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) registerPrefix(tokenType TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
