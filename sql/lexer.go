package sql

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

const (
	// Literal
	TkInt = iota
	TkReal
	TkStr
	TkRegex
	TkId

	// Keywords
	TkSelect
	TkDistinct
	TkAs
	TkWhere
	TkLimit
	TkAnd
	TkOr
	TkNot
	TkLike
	TkNotLike

	// Punctuation
	TkComma
	TkLPar
	TkRPar

	TkAdd
	TkSub
	TkMul
	TkDiv
	TkMod
	TkCaret
	TkConcat // ||

	TkLt
	TkLe
	TkGt
	TkGe
	TkEq
	TkNe

	TkMatch    // ~
	TkNotMatch // !~

	TkError
	TkEof
)

// Lexeme carries the decoded payload of whatever token was just produced.
type Lexeme struct {
	Text string
	Int  int64
	Real float64
}

// Lexer is a hand rolled, rune-at-a-time scanner. Re-lexing is supported via
// TokenStart so the parser can reinterpret a leading '/' as a regex literal
// instead of the division operator once it knows which production it wants.
type Lexer struct {
	Source     string
	Cursor     int
	TokenStart int
	Token      int
	Lexeme     Lexeme
}

func newLexer(source string) *Lexer {
	return &Lexer{
		Source: source,
		Cursor: 0,
		Token:  TkError,
	}
}

func (self *Lexer) nextRune() (rune, int) {
	if self.Cursor == len(self.Source) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(self.Source[self.Cursor:])
}

func (self *Lexer) nextRune2() rune {
	r, _ := utf8.DecodeRuneInString(self.Source[self.Cursor+1:])
	return r
}

func (self *Lexer) yield(tk int, sz int) int {
	self.Token = tk
	self.Cursor += sz
	return tk
}

func (self *Lexer) eof() int {
	self.Token = TkEof
	return TkEof
}

// pos converts a byte offset into a 1-based line/column for diagnostics.
func (self *Lexer) pos(where int) (int, int) {
	line := 1
	col := 1
	idx := 0
	for idx < where && idx < len(self.Source) {
		r, sz := utf8.DecodeRuneInString(self.Source[idx:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		idx += sz
	}
	return line, col
}

func (self *Lexer) dinfo(off int) string {
	line, col := self.pos(off)
	return fmt.Sprintf("line %d, column %d", line, col)
}

func (self *Lexer) err(msg string) int {
	self.Lexeme.Text = fmt.Sprintf("%s: %s", self.dinfo(self.Cursor), msg)
	self.Token = TkError
	return TkError
}

func (self *Lexer) errE(err error) int {
	self.Lexeme.Text = fmt.Sprintf("%s: %s", self.dinfo(self.Cursor), err)
	self.Token = TkError
	return TkError
}

func (self *Lexer) isWS(r rune) bool {
	switch r {
	case ' ', '\r', '\t', '\n', '\b', '\v':
		return true
	default:
		return false
	}
}

func (self *Lexer) isIdChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (self *Lexer) isIdLeadingChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// matchkeyword checks whether the ASCII keyword str (lowercase) matches the
// source at self.Cursor+offset, case-insensitively, and is not itself a
// prefix of a longer identifier.
func (self *Lexer) matchkeyword(str string, offset int) bool {
	c := self.Cursor + offset
	tar := []rune(str)

	for idx := 0; idx < len(tar); idx++ {
		r, sz := utf8.DecodeRuneInString(self.Source[c:])
		if unicode.ToLower(r) != tar[idx] {
			return false
		}
		c += sz
	}

	r, _ := utf8.DecodeRuneInString(self.Source[c:])
	return !self.isIdChar(r)
}

func (self *Lexer) matchKeyword(w string) bool {
	return self.matchkeyword(w, 1)
}

// matchKeyword2 recognizes a two-word keyword like "NOT LIKE", allowing any
// run of whitespace between the words.
func (self *Lexer) matchKeyword2(w1, w2 string) (bool, int) {
	if !self.matchKeyword(w1) {
		return false, -1
	}
	off := 1 + len(w1)

	for {
		r, sz := utf8.DecodeRuneInString(self.Source[self.Cursor+off:])
		if self.isWS(r) {
			off += sz
		} else {
			break
		}
	}

	if self.Cursor+off >= len(self.Source) {
		return false, -1
	}
	if self.matchkeyword(w2, off) {
		return true, off + len(w2)
	}
	return false, -1
}

func (self *Lexer) tryKeyword(c rune) (bool, int) {
	switch c {
	case 'a', 'A':
		if self.matchKeyword("nd") {
			return true, self.yield(TkAnd, 3)
		}
		if self.matchKeyword("s") {
			return true, self.yield(TkAs, 2)
		}
	case 'd', 'D':
		if self.matchKeyword("istinct") {
			return true, self.yield(TkDistinct, 8)
		}
	case 'l', 'L':
		if self.matchKeyword("imit") {
			return true, self.yield(TkLimit, 5)
		}
		if self.matchKeyword("ike") {
			return true, self.yield(TkLike, 4)
		}
	case 'n', 'N':
		// Only the two-word "NOT LIKE" is reserved (§4.1's identifier rule);
		// bare "not" is an ordinary identifier. Logical negation is spelled
		// "!", produced by the '!' case in next() below.
		if yes, l := self.matchKeyword2("ot", "like"); yes {
			return true, self.yield(TkNotLike, l)
		}
	case 'o', 'O':
		if self.matchKeyword("r") {
			return true, self.yield(TkOr, 2)
		}
	case 's', 'S':
		if self.matchKeyword("elect") {
			return true, self.yield(TkSelect, 6)
		}
	case 'w', 'W':
		if self.matchKeyword("here") {
			return true, self.yield(TkWhere, 5)
		}
	}
	return false, 0
}

func (self *Lexer) lexId(c rune) int {
	buf := &bytes.Buffer{}
	buf.WriteRune(c)
	self.Cursor++

	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError || !self.isIdChar(c) {
			break
		}
		self.Cursor += sz
		buf.WriteRune(c)
	}

	self.Lexeme.Text = buf.String()
	self.Token = TkId
	return TkId
}

func (self *Lexer) lexKeywordOrId(c rune) int {
	if yes, tk := self.tryKeyword(c); yes {
		return tk
	}
	if !self.isIdLeadingChar(c) {
		return self.err("invalid leading character of identifier")
	}
	return self.lexId(c)
}

// lexNum scans digits [ "." digits ] [ E[+-]digits ] or "." digits [ ... ].
// The presence of '.' (or the exponent) marks the literal real; it is
// re-emitted verbatim so the generated awk program carries the same text.
func (self *Lexer) lexNum(c rune) int {
	hasDot := c == '.'
	hasE := false
	buf := &bytes.Buffer{}
	buf.WriteRune(c)
	self.Cursor++

loop:
	for {
		r, sz := self.nextRune()
		if r == utf8.RuneError {
			break
		}
		switch {
		case r == '.' && !hasDot && !hasE:
			buf.WriteRune('.')
			hasDot = true
		case (r == 'e' || r == 'E') && !hasE:
			buf.WriteRune(r)
			hasE = true
			self.Cursor += sz
			// optional sign right after the exponent marker
			if sr, ssz := self.nextRune(); sr == '+' || sr == '-' {
				buf.WriteRune(sr)
				self.Cursor += ssz
			}
			continue
		case r >= '0' && r <= '9':
			buf.WriteRune(r)
		default:
			break loop
		}
		self.Cursor += sz
	}

	text := buf.String()
	if hasDot || hasE {
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return self.errE(err)
		}
		self.Lexeme.Text = text
		self.Token = TkReal
	} else {
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			return self.errE(err)
		}
		self.Lexeme.Text = text
		self.Token = TkInt
	}
	return self.Token
}

// lexStr scans a single- or double-quoted string literal. Per the spec's
// Non-goal on escape-sequence negotiation, no backslash escapes are
// recognized: the payload runs verbatim until the matching quote, and the
// quote character itself cannot appear inside the literal.
func (self *Lexer) lexStr(quote rune) int {
	self.Cursor++
	start := self.Cursor

	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError {
			if sz == 0 {
				return self.err("string literal is not closed by a matching quote")
			}
			return self.err("invalid utf8 inside string literal")
		}
		if c == quote {
			self.Lexeme.Text = self.Source[start:self.Cursor]
			self.Cursor += sz
			self.Token = TkStr
			return TkStr
		}
		self.Cursor += sz
	}
}

// RescanRegex reinterprets the '/' token the parser just saw as the start
// of a slash-delimited regex literal, rewinding to where that token began.
// Called only when the parser is in expr_term position and the grammar
// cannot mean division there (§4.1: regex literals are only ever an
// expr_term, never the RHS of '/').
func (self *Lexer) RescanRegex() int {
	self.Cursor = self.TokenStart + 1 // skip the leading '/'
	start := self.Cursor

	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError {
			if sz == 0 {
				return self.err("regex literal is not closed by a trailing '/'")
			}
			return self.err("invalid utf8 inside regex literal")
		}
		if c == '/' {
			self.Lexeme.Text = self.Source[start:self.Cursor]
			self.Cursor += sz
			self.Token = TkRegex
			return TkRegex
		}
		if c == '\\' {
			// allow an escaped '/' to pass through untouched into the pattern
			self.Cursor += sz
			if nc, nsz := self.nextRune(); nc != utf8.RuneError {
				self.Cursor += nsz
			}
			continue
		}
		self.Cursor += sz
	}
}

func (self *Lexer) Next() int {
	if self.Token == TkEof {
		return TkEof
	}
	if self.Cursor == len(self.Source) {
		self.Token = TkEof
		return TkEof
	}
	return self.next()
}

func (self *Lexer) next() int {
	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError {
			if sz == 0 {
				return self.eof()
			}
			return self.err("invalid utf8 character")
		}

		self.TokenStart = self.Cursor

		switch c {
		case ',':
			return self.yield(TkComma, 1)
		case '(':
			return self.yield(TkLPar, 1)
		case ')':
			return self.yield(TkRPar, 1)
		case '+':
			return self.yield(TkAdd, 1)
		case '-':
			return self.yield(TkSub, 1)
		case '*':
			return self.yield(TkMul, 1)
		case '^':
			return self.yield(TkCaret, 1)
		case '/':
			return self.yield(TkDiv, 1)
		case '%':
			return self.yield(TkMod, 1)
		case '|':
			if self.nextRune2() == '|' {
				return self.yield(TkConcat, 2)
			}
			return self.err("unexpected '|', did you mean '||' for concatenation?")
		case '~':
			return self.yield(TkMatch, 1)
		case '=':
			if self.nextRune2() == '=' {
				return self.yield(TkEq, 2)
			}
			return self.yield(TkEq, 1)
		case '>':
			if self.nextRune2() == '=' {
				return self.yield(TkGe, 2)
			}
			return self.yield(TkGt, 1)
		case '<':
			if self.nextRune2() == '=' {
				return self.yield(TkLe, 2)
			}
			return self.yield(TkLt, 1)
		case '!':
			if self.nextRune2() == '=' {
				return self.yield(TkNe, 2)
			}
			if self.nextRune2() == '~' {
				return self.yield(TkNotMatch, 2)
			}
			return self.yield(TkNot, 1)
		case ' ', '\r', '\t', '\n', '\b', '\v':
			self.Cursor++
			continue
		case '\'', '"':
			return self.lexStr(c)
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return self.lexNum(c)
		case '.':
			if nr := self.nextRune2(); nr >= '0' && nr <= '9' {
				return self.lexNum(c)
			}
			return self.err("unexpected '.'")
		default:
			return self.lexKeywordOrId(c)
		}
	}
}
