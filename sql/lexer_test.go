package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexerOp(t *testing.T) {
	assert := assert.New(t)
	l := newLexer("+-*/%^||")
	assert.Equal(TkAdd, l.Next())
	assert.Equal(TkSub, l.Next())
	assert.Equal(TkMul, l.Next())
	assert.Equal(TkDiv, l.Next())
	assert.Equal(TkMod, l.Next())
	assert.Equal(TkCaret, l.Next())
	assert.Equal(TkConcat, l.Next())
	assert.Equal(TkEof, l.Next())
}

func TestLexerComparison(t *testing.T) {
	assert := assert.New(t)
	l := newLexer(">>=<<=!====!~~")
	assert.Equal(TkGt, l.Next())
	assert.Equal(TkGe, l.Next())
	assert.Equal(TkLt, l.Next())
	assert.Equal(TkLe, l.Next())
	assert.Equal(TkNe, l.Next())
	assert.Equal(TkEq, l.Next())
	assert.Equal(TkEq, l.Next())
	assert.Equal(TkNotMatch, l.Next())
	assert.Equal(TkMatch, l.Next())
	assert.Equal(TkEof, l.Next())
}

func TestLexerId(t *testing.T) {
	assert := assert.New(t)
	l := newLexer("abc AbC_1")
	assert.Equal(TkId, l.Next())
	assert.Equal("abc", l.Lexeme.Text)
	assert.Equal(TkId, l.Next())
	assert.Equal("AbC_1", l.Lexeme.Text, "identifiers keep their case")
}

func TestLexerNumber(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("123")
		assert.Equal(TkInt, l.Next())
		assert.Equal("123", l.Lexeme.Text)
	}
	{
		l := newLexer("1.23")
		assert.Equal(TkReal, l.Next())
		assert.Equal("1.23", l.Lexeme.Text)
	}
	{
		l := newLexer(".5")
		assert.Equal(TkReal, l.Next())
		assert.Equal(".5", l.Lexeme.Text)
	}
	{
		l := newLexer("1.0e2")
		assert.Equal(TkReal, l.Next())
		assert.Equal("1.0e2", l.Lexeme.Text)
	}
	{
		l := newLexer("1e-2")
		assert.Equal(TkReal, l.Next())
		assert.Equal("1e-2", l.Lexeme.Text)
	}
}

func TestLexerKeywords(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("select SELECT sELEct")
		assert.Equal(TkSelect, l.Next())
		assert.Equal(TkSelect, l.Next())
		assert.Equal(TkSelect, l.Next())
	}
	{
		l := newLexer("distinct DISTINCT")
		assert.Equal(TkDistinct, l.Next())
		assert.Equal(TkDistinct, l.Next())
	}
	{
		l := newLexer("where WHERE")
		assert.Equal(TkWhere, l.Next())
		assert.Equal(TkWhere, l.Next())
	}
	{
		l := newLexer("limit LIMIT")
		assert.Equal(TkLimit, l.Next())
		assert.Equal(TkLimit, l.Next())
	}
	{
		l := newLexer("and AND or OR")
		assert.Equal(TkAnd, l.Next())
		assert.Equal(TkAnd, l.Next())
		assert.Equal(TkOr, l.Next())
		assert.Equal(TkOr, l.Next())
	}
	{
		// Logical negation is spelled '!', not the keyword "not": only the
		// two-word "NOT LIKE" is reserved (§4.1).
		l := newLexer("!a")
		assert.Equal(TkNot, l.Next())
		assert.Equal(TkId, l.Next())
		assert.Equal("a", l.Lexeme.Text)
	}
	{
		l := newLexer("like LIKE not like NOT LIKE")
		assert.Equal(TkLike, l.Next())
		assert.Equal(TkLike, l.Next())
		assert.Equal(TkNotLike, l.Next())
		assert.Equal(TkNotLike, l.Next())
	}
	{
		// Bare "not" is an ordinary identifier now.
		l := newLexer("not")
		assert.Equal(TkId, l.Next())
		assert.Equal("not", l.Lexeme.Text)
	}
	{
		l := newLexer("as AS")
		assert.Equal(TkAs, l.Next())
		assert.Equal(TkAs, l.Next())
	}
	{
		// "nothing" must not be mis-lexed as a partial match of "not like"
		l := newLexer("nothing")
		assert.Equal(TkId, l.Next())
		assert.Equal("nothing", l.Lexeme.Text)
	}
}

func TestLexerString(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("''")
		assert.Equal(TkStr, l.Next())
		assert.Equal("", l.Lexeme.Text)
	}
	{
		l := newLexer("'hello'")
		assert.Equal(TkStr, l.Next())
		assert.Equal("hello", l.Lexeme.Text)
	}
	{
		l := newLexer(`"double"`)
		assert.Equal(TkStr, l.Next())
		assert.Equal("double", l.Lexeme.Text)
	}
}

func TestLexerRescanRegex(t *testing.T) {
	assert := assert.New(t)
	l := newLexer("/ab\\/c/")
	tok := l.Next()
	assert.Equal(TkDiv, tok)
	tok = l.RescanRegex()
	assert.Equal(TkRegex, tok)
	assert.Equal(`ab\/c`, l.Lexeme.Text)
	assert.Equal(TkEof, l.Next())
}

func TestLexerWhitespace(t *testing.T) {
	assert := assert.New(t)
	l := newLexer("  \t\n  id  \n")
	assert.Equal(TkId, l.Next())
	assert.Equal("id", l.Lexeme.Text)
	assert.Equal(TkEof, l.Next())
}
