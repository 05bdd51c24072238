package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeSimpleRule(t *testing.T) {
	l := New("foo: INT_ADD(a, b) => a")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())

	assert.Equal(t, []Kind{
		Ident, Colon, Ident, LParen, Ident, Comma, Ident, RParen, Arrow, Ident, EOF,
	}, kinds(toks))
}

func TestTokenizeConstraintBlock(t *testing.T) {
	l := New("r: OP(x) :- { x < 5 } => x")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())

	assert.Equal(t, []Kind{
		Ident, Colon, Ident, LParen, Ident, RParen,
		ColonDash, LBrace, Ident, Lt, Number, RBrace,
		Arrow, Ident, EOF,
	}, kinds(toks))
}

func TestNegativeNumberAdjacency(t *testing.T) {
	l := New("-5")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	require.Len(t, toks, 2)
	assert.Equal(t, Number, toks[0].Kind)
	assert.Equal(t, "-5", toks[0].Lexeme)
}

func TestMinusWithSpaceIsNotANegativeNumber(t *testing.T) {
	l := New("a - 5")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	require.Len(t, toks, 4)
	assert.Equal(t, []Kind{Ident, Minus, Number, EOF}, kinds(toks))
	assert.Equal(t, "5", toks[2].Lexeme)
}

func TestHexNumberLiteral(t *testing.T) {
	l := New("0xFF")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Equal(t, "0xFF", toks[0].Lexeme)
}

func TestNegativeHexNumberLiteral(t *testing.T) {
	l := New("-0x10")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Equal(t, Number, toks[0].Kind)
	assert.Equal(t, "-0x10", toks[0].Lexeme)
}

func TestCommentsAreSkipped(t *testing.T) {
	l := New("a # this is a comment\n: b")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Equal(t, []Kind{Ident, Colon, Ident, EOF}, kinds(toks))
}

func TestArrowVersusSingleEquals(t *testing.T) {
	l := New("= =>")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Equal(t, []Kind{Eq, Arrow, EOF}, kinds(toks))
}

func TestShiftVersusComparison(t *testing.T) {
	l := New("<< >> < >")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Equal(t, []Kind{LShift, RShift, Lt, Gt, EOF}, kinds(toks))
}

func TestIllegalCharacterReportsErrorAndContinues(t *testing.T) {
	l := New("a @ b")
	toks := l.Tokenize()
	require.Len(t, l.Errors(), 1)
	assert.Equal(t, []Kind{Ident, Illegal, Ident, EOF}, kinds(toks))
}

func TestPositionsTrackLinesAndColumns(t *testing.T) {
	l := NewWithFilename("a\nb", "rule.rl")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, 2, toks[1].Pos.Line)
	assert.Equal(t, "rule.rl", toks[0].Pos.Filename)
}
