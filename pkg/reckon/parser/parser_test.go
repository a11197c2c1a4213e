package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) (Expression, []*Error) {
	t.Helper()
	p := New(NewLexer(input))
	exp := p.ParseFormula()
	return exp, p.Errors()
}

func TestLexerTokens(t *testing.T) {
	input := `rate.annual * (2.5e-3 + .5) ^ -x >= 10 && !y || z != 1 % 3 == 4 <= 5 < 6 > 7`

	expected := []struct {
		typ     TokenType
		literal string
	}{
		{IDENT, "rate.annual"},
		{ASTERISK, "*"},
		{LPAREN, "("},
		{FLOAT, "2.5e-3"},
		{PLUS, "+"},
		{FLOAT, ".5"},
		{RPAREN, ")"},
		{CARET, "^"},
		{MINUS, "-"},
		{IDENT, "x"},
		{GTE, ">="},
		{INT, "10"},
		{AND, "&&"},
		{NOT, "!"},
		{IDENT, "y"},
		{OR, "||"},
		{IDENT, "z"},
		{NOT_EQ, "!="},
		{INT, "1"},
		{PERCENT, "%"},
		{INT, "3"},
		{EQ, "=="},
		{INT, "4"},
		{LTE, "<="},
		{INT, "5"},
		{LT, "<"},
		{INT, "6"},
		{GT, ">"},
		{INT, "7"},
		{EOF, ""},
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		require.Equal(t, want.typ, tok.Type, "token %d (%q)", i, tok.Literal)
		require.Equal(t, want.literal, tok.Literal, "token %d", i)
	}

	// EOF is sticky
	assert.Equal(t, EOF, l.NextToken().Type)
}

func TestLexerPositions(t *testing.T) {
	l := NewLexer("ab  +\n 12")

	tok := l.NextToken()
	assert.Equal(t, 0, tok.Position)
	assert.Equal(t, 1, tok.Line)

	tok = l.NextToken()
	assert.Equal(t, PLUS, tok.Type)
	assert.Equal(t, 4, tok.Position)

	tok = l.NextToken()
	assert.Equal(t, INT, tok.Type)
	assert.Equal(t, 7, tok.Position)
	assert.Equal(t, 2, tok.Line)
}

func TestLexerIllegal(t *testing.T) {
	for _, input := range []string{"$", "=", "&", "|", "#"} {
		tok := NewLexer(input).NextToken()
		assert.Equal(t, ILLEGAL, tok.Type, input)
		assert.Equal(t, input, tok.Literal)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"(2 + 3) * 4", "((2 + 3) * 4)"},
		{"a - b - c", "((a - b) - c)"},
		{"a / b * c", "((a / b) * c)"},
		{"a % b + c", "((a % b) + c)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-2 ^ 2", "(-(2 ^ 2))"},
		{"2 ^ -1", "(2 ^ (-1))"},
		{"-a * b", "((-a) * b)"},
		{"+a", "(+a)"},
		{"!a && b", "((!a) && b)"},
		{"a || b && c", "(a || (b && c))"},
		{"a + 1 > b * 2 == c", "(((a + 1) > (b * 2)) == c)"},
		{"a <= b != c >= d", "((a <= b) != (c >= d))"},
		{"max(a, b + 1) * 2", "(max(a, (b + 1)) * 2)"},
		{"f()", "f()"},
		{"sqrt(sqrt(16))", "sqrt(sqrt(16))"},
		{"  x\t*\n y ", "(x * y)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			exp, errs := parse(t, tt.input)
			require.Empty(t, errs)
			require.NotNil(t, exp)
			assert.Equal(t, tt.expected, exp.String())
		})
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := map[string]float64{
		"0":      0,
		"42":     42,
		"3.25":   3.25,
		".5":     0.5,
		"1e3":    1000,
		"2.5E-2": 0.025,
		"7e+1":   70,
	}

	for input, want := range tests {
		exp, errs := parse(t, input)
		require.Empty(t, errs, input)
		lit, ok := exp.(*NumberLiteral)
		require.True(t, ok, input)
		assert.Equal(t, want, lit.Value, input)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		position int
		contains string
	}{
		{"", 0, "unexpected end of formula"},
		{"2 +", 3, "unexpected end of formula"},
		{"(2 + 3", 0, "unbalanced parenthesis"},
		{"2 + 3)", 5, "unbalanced parenthesis"},
		{"max(1, 2", 3, "unbalanced parenthesis"},
		{"2 $ 3", 2, "unknown token"},
		{"2 3", 2, "unexpected token"},
		{"* 2", 0, "unexpected token"},
		{"(1)(2)", 3, "not callable"},
		{"max(1,)", 6, "unexpected token"},
		{"a = 1", 2, "unknown token"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, errs := parse(t, tt.input)
			require.NotEmpty(t, errs)
			assert.Equal(t, KindSyntax, errs[0].Kind)
			assert.Equal(t, tt.position, errs[0].Position)
			assert.Contains(t, errs[0].Message, tt.contains)
		})
	}
}

func TestNestingDepthLimit(t *testing.T) {
	input := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)

	p := New(NewLexer(input))
	p.SetMaxDepth(20)
	p.ParseFormula()
	require.NotEmpty(t, p.Errors())
	assert.Equal(t, KindDepth, p.Errors()[0].Kind)

	p = New(NewLexer(input))
	p.SetMaxDepth(100)
	exp := p.ParseFormula()
	require.Empty(t, p.Errors())
	assert.Equal(t, "1", exp.String())
}

func TestCountNodes(t *testing.T) {
	exp, errs := parse(t, "max(a, -b) + 2 * c")
	require.Empty(t, errs)
	// +, max, a, -, b, *, 2, c
	assert.Equal(t, 8, CountNodes(exp))
	assert.Equal(t, 0, CountNodes(nil))
}

func TestWalkSkipsChildren(t *testing.T) {
	exp, errs := parse(t, "f(a, b) + c")
	require.Empty(t, errs)

	var idents []string
	Walk(exp, func(e Expression) bool {
		if id, ok := e.(*Identifier); ok {
			idents = append(idents, id.Value)
		}
		_, isCall := e.(*CallExpression)
		return !isCall
	})
	assert.Equal(t, []string{"c"}, idents)
}
