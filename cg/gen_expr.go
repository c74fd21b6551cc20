package cg

import (
	"fmt"
	"strconv"
	"strings"

	"sql2awk/plan"
	"sql2awk/sql"
)

// exprMode selects which of §4.3's three code-generation modes applies to
// an expression tree: scalar evaluates a row directly; final evaluates a
// completed aggregate's value when emitting a partition's output row. There
// is no separate "update" mode here because aggregate state mutation is
// not an expression-shaped thing (see genAggUpdate in gen_agg.go); scalar
// and final share this one generator and diverge only at ExprAgg nodes.
type exprMode int

const (
	modeScalar exprMode = iota
	modeFinal
)

// exprGen renders one sql.Expr into awk source text, in the style of the
// teacher's cg/gen_expr.go: a strings.Builder accumulator with an
// exhaustive switch over the node kind.
type exprGen struct {
	cg   *codeGen
	res  *plan.Resolved
	o    strings.Builder
	mode exprMode
}

func (g *codeGen) genExpr(e *sql.Expr, mode exprMode) string {
	gen := &exprGen{cg: g, res: g.resolved, mode: mode}
	gen.gen(e)
	return gen.o.String()
}

func (self *exprGen) gen(e *sql.Expr) {
	switch e.Kind {
	case sql.ExprNumber:
		self.genNumber(e)
	case sql.ExprString:
		self.o.WriteString(strconv.Quote(e.Str))
	case sql.ExprRegex:
		self.o.WriteString("/" + e.Pattern + "/")
	case sql.ExprColumn:
		self.genColumn(e)
	case sql.ExprUnary:
		self.genUnary(e)
	case sql.ExprBinary:
		self.genBinary(e)
	case sql.ExprFunc:
		self.genFunc(e)
	case sql.ExprAgg:
		self.genAggRef(e)
	}
}

func (self *exprGen) genSub(e *sql.Expr) {
	self.o.WriteString("(")
	self.gen(e)
	self.o.WriteString(")")
}

func (self *exprGen) genNumber(e *sql.Expr) {
	self.o.WriteString(e.NumText)
}

func (self *exprGen) genColumn(e *sql.Expr) {
	if e.Column == "*" {
		self.o.WriteString("$0")
		return
	}
	idx, _, ok := self.res.Schema.Lookup(e.Column)
	if !ok {
		panic("unresolved column reached codegen: " + e.Column)
	}
	self.o.WriteString(fmt.Sprintf("$%d", idx))
}

func (self *exprGen) genUnary(e *sql.Expr) {
	switch e.UnaryOp {
	case sql.TkAdd:
		self.o.WriteString("+")
	case sql.TkSub:
		self.o.WriteString("-")
	case sql.TkNot:
		self.o.WriteString("!")
	}
	self.genSub(e.Operand)
}

var binOpText = map[int]string{
	sql.TkAdd: "+", sql.TkSub: "-", sql.TkMul: "*", sql.TkDiv: "/", sql.TkMod: "%",
	sql.TkCaret: "^", sql.TkConcat: " ", // string concat in awk is juxtaposition
	sql.TkAnd: "&&", sql.TkOr: "||",
	sql.TkLt: "<", sql.TkLe: "<=", sql.TkGt: ">", sql.TkGe: ">=",
	sql.TkEq: "==", sql.TkNe: "!=",
	sql.TkMatch: "~", sql.TkNotMatch: "!~",
}

func (self *exprGen) genBinary(e *sql.Expr) {
	self.o.WriteString("(")
	self.gen(e.Left)
	for _, t := range e.Terms {
		op, ok := binOpText[t.Op]
		if !ok {
			panic("unknown binary operator in codegen")
		}
		self.o.WriteString(op)
		self.gen(t.Operand)
	}
	self.o.WriteString(")")
}

// nativeFuncName maps SQL scalar function names onto the awk builtin that
// actually implements them, for the handful that don't share a name with
// their awk equivalent.
var nativeFuncName = map[string]string{
	"lower": "tolower",
	"upper": "toupper",
}

func (self *exprGen) genFunc(e *sql.Expr) {
	name := strings.ToLower(e.FuncName)
	if native, ok := nativeFuncName[name]; ok {
		name = native
	}
	self.o.WriteString(name)
	self.o.WriteString("(")
	for i, a := range e.Args {
		if i > 0 {
			self.o.WriteString(", ")
		}
		self.gen(a)
	}
	self.o.WriteString(")")
}

// genAggRef implements §9's Open Question #3 decision: an aggregate
// reached while generating a projection always substitutes its completed
// state-array read (final mode). It must never be reached in scalar mode,
// since the resolver rejects an aggregate nested inside another aggregate's
// own argument, and a bare aggregate-containing expression is only ever
// walked once its enclosing projection is being emitted per partition.
func (self *exprGen) genAggRef(e *sql.Expr) {
	if self.mode == modeScalar {
		panic("aggregate node reached in scalar codegen mode")
	}
	self.o.WriteString(self.cg.aggFinalExpr(e))
}
