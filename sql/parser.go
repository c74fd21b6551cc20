package sql

// Parser for the restricted SELECT grammar in spec §4.1, implemented as a
// precedence-climbing recursive-descent parser in the style of the teacher
// repository's sql/parser.go (same doParseBin/doParseBinRest shape), but
// generalized to this spec's twelve-level operator table and its LIKE/regex/
// aggregate productions, which the teacher grammar does not have.
//
// query      := [SELECT] [DISTINCT] projections [where] [limit]
// projections:= projection ("," projection)*
// projection := "*" | expr [AS identifier]
// where      := WHERE expr
// limit      := LIMIT integer
// expr       := operator-precedence over expr_term
// expr_term  := aggregate_call | function_call | literal | column | "(" expr ")"

import (
	"fmt"
	"strconv"
	"strings"
)

type Parser struct {
	L *Lexer
}

func newParser(source string) *Parser {
	return &Parser{L: newLexer(source)}
}

// NewParser constructs a parser over the given query text.
func NewParser(source string) *Parser {
	return newParser(source)
}

func (self *Parser) fail(msg, expected string) error {
	off := self.L.Cursor
	if self.L.Token == TkError {
		off = self.L.Cursor
		msg = self.L.Lexeme.Text
	}
	line, col := self.L.pos(off)
	return &SyntaxError{
		Offset:   off,
		Line:     line,
		Column:   col,
		Message:  msg,
		Expected: expected,
	}
}

func (self *Parser) expect(tk int, expected string) error {
	if self.L.Token != tk {
		return self.fail("unexpected token", expected)
	}
	self.L.Next()
	return nil
}

// Parse parses the whole query text into a *Query. Per §4.1's implicit
// prefix rule, a query that opens directly on WHERE or LIMIT (no SELECT, no
// projection list at all) is treated as "SELECT * ..." so a bare filter or
// limit still projects every column.
func (self *Parser) Parse() (*Query, error) {
	self.L.Next()

	if self.L.Token == TkSelect {
		self.L.Next()
	}

	q := &Query{}
	if self.L.Token == TkDistinct {
		q.Distinct = true
		self.L.Next()
	}

	if self.L.Token == TkWhere || self.L.Token == TkLimit || self.L.Token == TkEof {
		q.Projections = []*Projection{{Star: true, Offset: self.L.Cursor}}
	} else {
		projs, err := self.parseProjections()
		if err != nil {
			return nil, err
		}
		q.Projections = projs
	}

	if self.L.Token == TkWhere {
		self.L.Next()
		cond, err := self.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Where = &Where{Condition: cond}
	}

	if self.L.Token == TkLimit {
		self.L.Next()
		if self.L.Token != TkInt {
			return nil, self.fail("LIMIT requires an integer literal", "integer literal")
		}
		n, err := strconv.ParseInt(self.L.Lexeme.Text, 10, 64)
		if err != nil {
			return nil, self.fail("LIMIT value out of range", "integer literal")
		}
		// Whether n is actually positive is a semantic check (BadLimit),
		// not a grammar one: the resolver enforces it.
		q.Limit = n
		q.HasLimit = true
		self.L.Next()
	}

	if self.L.Token != TkEof {
		return nil, self.fail("dangling input after a complete query", "end of input")
	}

	if err := assignDisplayNames(q); err != nil {
		return nil, err
	}

	return q, nil
}

// assignDisplayNames fills in each projection's DisplayName. Uniqueness is
// not checked here: the resolver reports duplicates (DuplicateProjectionName)
// once "*" has been expanded against the schema.
func assignDisplayNames(q *Query) error {
	for _, p := range q.Projections {
		if p.Alias != "" {
			p.DisplayName = p.Alias
		} else if p.Star {
			p.DisplayName = "*"
		} else {
			p.DisplayName = defaultDisplayName(p.Expr)
		}
	}
	return nil
}

// defaultDisplayName implements §3's Projection naming rule: the column
// name if it wraps a bare column, the function name if it wraps a
// (possibly aggregate) function call, otherwise the literal "expr".
func defaultDisplayName(e *Expr) string {
	switch e.Kind {
	case ExprColumn:
		return e.Column
	case ExprFunc:
		return e.FuncName
	case ExprAgg:
		return e.AggName
	default:
		return "expr"
	}
}

func (self *Parser) parseProjections() ([]*Projection, error) {
	var out []*Projection
	for {
		p, err := self.parseProjection()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		if self.L.Token == TkComma {
			self.L.Next()
			continue
		}
		break
	}
	return out, nil
}

func (self *Parser) parseProjection() (*Projection, error) {
	start := self.L.Cursor

	if self.L.Token == TkMul {
		self.L.Next()
		return &Projection{Star: true, Offset: start}, nil
	}

	e, err := self.parseExpr()
	if err != nil {
		return nil, err
	}

	p := &Projection{Expr: e, Offset: start}

	if self.L.Token == TkAs {
		self.L.Next()
		if self.L.Token != TkId {
			return nil, self.fail("AS must be followed by an identifier", "identifier")
		}
		p.Alias = self.L.Lexeme.Text
		self.L.Next()
	}

	return p, nil
}

func (self *Parser) parseExpr() (*Expr, error) {
	return self.parseBin(0)
}

// binPrec mirrors the teacher's binPrec table but extends it to the
// twelve-level table in spec §4.1: OR(0) < AND(1) < LIKE(2) < NOT LIKE(3) <
// ~/!~(4) < =/==/!=(5) < comparisons(6) < +/-(7) < * // %(8) < ||(9).
// Unary prefix and '^' sit below expr_term, outside this table entirely
// (handled by parseUnary/parseExponent), since the spec ranks them tighter
// than every binary operator here except concatenation binds looser than
// them, so they are parsed as part of the atom, not climbed over.
func (self *Parser) binPrec(tk int) int {
	switch tk {
	case TkOr:
		return 0
	case TkAnd:
		return 1
	case TkLike:
		return 2
	case TkNotLike:
		return 3
	case TkMatch, TkNotMatch:
		return 4
	case TkEq, TkNe:
		return 5
	case TkLt, TkLe, TkGt, TkGe:
		return 6
	case TkAdd, TkSub:
		return 7
	case TkMul, TkDiv, TkMod:
		return 8
	case TkConcat:
		return 9
	default:
		return -1
	}
}

func (self *Parser) parseBin(prec int) (*Expr, error) {
	start := self.L.Cursor
	lhs, err := self.parseUnary()
	if err != nil {
		return nil, err
	}
	return self.parseBinRest(lhs, prec, start)
}

func (self *Parser) parseBinRest(lhs *Expr, prec int, start int) (*Expr, error) {
	for {
		tk := self.L.Token
		p := self.binPrec(tk)
		if p == -1 || p < prec {
			break
		}

		self.L.Next()

		switch tk {
		case TkLike, TkNotLike:
			rhs, err := self.parseBin(p + 1)
			if err != nil {
				return nil, err
			}
			op := TkMatch
			if tk == TkNotLike {
				op = TkNotMatch
			}
			wrapped := &Expr{
				Kind:     ExprFunc,
				Offset:   start,
				FuncName: "like2regex",
				Args:     []*Expr{rhs},
			}
			lhs = &Expr{
				Kind:   ExprBinary,
				Offset: start,
				Left:   lhs,
				Terms:  []BinaryTerm{{Op: op, Operand: wrapped}},
			}

		default:
			rhs, err := self.parseBin(p + 1)
			if err != nil {
				return nil, err
			}
			lhs = &Expr{
				Kind:   ExprBinary,
				Offset: start,
				Left:   lhs,
				Terms:  []BinaryTerm{{Op: tk, Operand: rhs}},
			}
		}

		start = self.L.Cursor
	}
	return lhs, nil
}

// parseUnary implements the right-binding unary prefix group (+, -, !),
// recursing so that "- - x" and "!!x" both nest correctly.
func (self *Parser) parseUnary() (*Expr, error) {
	if self.L.Token == TkAdd || self.L.Token == TkSub || self.L.Token == TkNot {
		op := self.L.Token
		start := self.L.Cursor
		self.L.Next()
		operand, err := self.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnary, Offset: start, UnaryOp: op, Operand: operand}, nil
	}
	return self.parseExponent()
}

// parseExponent implements '^', the tightest-binding operator, right
// associative.
func (self *Parser) parseExponent() (*Expr, error) {
	start := self.L.Cursor
	base, err := self.parsePrimary()
	if err != nil {
		return nil, err
	}
	if self.L.Token == TkCaret {
		self.L.Next()
		rhs, err := self.parseExponent()
		if err != nil {
			return nil, err
		}
		return &Expr{
			Kind:   ExprBinary,
			Offset: start,
			Left:   base,
			Terms:  []BinaryTerm{{Op: TkCaret, Operand: rhs}},
		}, nil
	}
	return base, nil
}

// parsePrimary parses expr_term: aggregate_call | function_call | literal |
// column | "(" expr ")".
func (self *Parser) parsePrimary() (*Expr, error) {
	start := self.L.Cursor

	switch self.L.Token {
	case TkLPar:
		self.L.Next()
		e, err := self.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := self.expect(TkRPar, "')'"); err != nil {
			return nil, err
		}
		return e, nil

	case TkInt:
		text := self.L.Lexeme.Text
		self.L.Next()
		return &Expr{Kind: ExprNumber, Offset: start, NumText: text, IsReal: false}, nil

	case TkReal:
		text := self.L.Lexeme.Text
		self.L.Next()
		return &Expr{Kind: ExprNumber, Offset: start, NumText: text, IsReal: true}, nil

	case TkStr:
		text := self.L.Lexeme.Text
		self.L.Next()
		return &Expr{Kind: ExprString, Offset: start, Str: text}, nil

	case TkDiv:
		self.L.RescanRegex()
		if self.L.Token == TkError {
			return nil, self.fail(self.L.Lexeme.Text, "regex literal")
		}
		text := self.L.Lexeme.Text
		self.L.Next()
		return &Expr{Kind: ExprRegex, Offset: start, Pattern: text}, nil

	case TkMul:
		self.L.Next()
		return &Expr{Kind: ExprColumn, Offset: start, Column: "*"}, nil

	case TkId:
		name := self.L.Lexeme.Text
		self.L.Next()
		if self.L.Token == TkLPar {
			return self.parseCall(name, start)
		}
		return &Expr{Kind: ExprColumn, Offset: start, Column: name}, nil
	}

	return nil, self.fail("expected a literal, column, function call, or parenthesized expression", "expression")
}

// parseCall parses the shared "(" arg-list ")" suffix for both aggregate and
// scalar function calls and then classifies the result.
func (self *Parser) parseCall(name string, start int) (*Expr, error) {
	lower := strings.ToLower(name)
	self.L.Next() // consume '('

	distinct := false
	if self.L.Token == TkDistinct {
		distinct = true
		self.L.Next()
	}

	if lower == "count" && self.L.Token == TkMul {
		self.L.Next()
		if err := self.expect(TkRPar, "')'"); err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprAgg, Offset: start, AggName: "count", Distinct: distinct, AggStar: true}, nil
	}

	var args []*Expr
	if self.L.Token != TkRPar {
		for {
			a, err := self.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if self.L.Token == TkComma {
				self.L.Next()
				continue
			}
			break
		}
	}
	if err := self.expect(TkRPar, "')'"); err != nil {
		return nil, err
	}

	e, err := classifyCall(lower, distinct, args, start)
	if err != nil {
		return nil, self.fail(err.Error(), "")
	}
	return e, nil
}

func isAggregateName(name string) bool {
	switch name {
	case "count", "avg", "sum", "total", "min", "max":
		return true
	default:
		return false
	}
}

// classifyCall disambiguates "min"/"max" (which name both an aggregate and
// an n-ary scalar function, per §4.2/§4.3) by arity and DISTINCT: an
// aggregate call takes exactly one argument; min/max given two or more
// arguments is always the scalar, pairwise form, nested per §4.3's n-ary
// rule ("min(a,b,c,d) is emitted as min(min(min(a,b),c),d)").
func classifyCall(name string, distinct bool, args []*Expr, start int) (*Expr, error) {
	if !isAggregateName(name) {
		if distinct {
			return nil, fmt.Errorf("DISTINCT is only valid on an aggregate function, not %q", name)
		}
		if len(args) == 0 && name != "rand" {
			return nil, fmt.Errorf("function %q requires at least one argument", name)
		}
		return &Expr{Kind: ExprFunc, Offset: start, FuncName: name, Args: args}, nil
	}

	switch name {
	case "count", "avg", "sum", "total":
		if len(args) != 1 {
			return nil, fmt.Errorf("aggregate %q takes exactly one argument", name)
		}
		return &Expr{Kind: ExprAgg, Offset: start, AggName: name, Distinct: distinct, AggArg: args[0]}, nil

	case "min", "max":
		if distinct || len(args) == 1 {
			if len(args) != 1 {
				return nil, fmt.Errorf("aggregate %q takes exactly one argument", name)
			}
			return &Expr{Kind: ExprAgg, Offset: start, AggName: name, Distinct: distinct, AggArg: args[0]}, nil
		}
		if len(args) < 2 {
			return nil, fmt.Errorf("%q requires at least two arguments in its scalar form", name)
		}
		return nestedMinMax(name, args, start), nil
	}

	return nil, fmt.Errorf("unreachable: unknown aggregate-classified name %q", name)
}

// nestedMinMax folds an n-ary scalar min/max call into the pairwise nesting
// the runtime library's binary min/max functions require (§4.3).
func nestedMinMax(name string, args []*Expr, start int) *Expr {
	acc := args[0]
	for _, a := range args[1:] {
		acc = &Expr{
			Kind:     ExprFunc,
			Offset:   start,
			FuncName: name,
			Args:     []*Expr{acc, a},
		}
	}
	return acc
}
