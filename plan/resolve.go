package plan

import (
	"strconv"
	"strings"

	"sql2awk/sql"
)

// Resolved carries everything the code generator needs beyond the bare
// AST: each node's datatype and, for AggregateFunction nodes, a
// process-unique id. The AST (sql.Query) stays immutable per its lifecycle
// (§3); results live here, keyed by node pointer, rather than mutating the
// tree in place the way the teacher's CanName.Set does.
type Resolved struct {
	Query        *sql.Query
	Schema       *Schema
	Dialect      Dialect
	OutputSchema []OutputColumn

	types   map[*sql.Expr]Datatype
	aggID   map[*sql.Expr]string
	nextAgg int
}

// OutputColumn names one column of the translator's output_schema (§6).
type OutputColumn struct {
	Name string
	Type Datatype
}

// TypeOf returns the datatype previously computed for e by Resolve.
func (r *Resolved) TypeOf(e *sql.Expr) Datatype { return r.types[e] }

// AggID returns the process-unique id minted for an ExprAgg node.
func (r *Resolved) AggID(e *sql.Expr) string { return r.aggID[e] }

// resolver performs the single semantic-analysis walk described in §9: it
// resolves column references against the schema, computes a datatype for
// every node, mints aggregate ids via a monotonic counter (never by Go
// pointer identity), and enforces the §7 semantic error kinds.
type resolver struct {
	schema  *Schema
	dialect Dialect
	types   map[*sql.Expr]Datatype
	aggID   map[*sql.Expr]string
	nextAgg int
	inWhere bool
}

// Resolve runs semantic analysis over a parsed query against a schema and
// dialect, and returns the Resolved bundle or a *SemanticError.
func Resolve(q *sql.Query, schema *Schema, dialect Dialect) (*Resolved, error) {
	r := &resolver{
		schema:  schema,
		dialect: dialect,
		types:   make(map[*sql.Expr]Datatype),
		aggID:   make(map[*sql.Expr]string),
	}

	seen := make(map[string]bool)
	var out []OutputColumn

	for _, p := range q.Projections {
		if p.Star {
			for _, c := range schema.Columns() {
				if seen[c.Name] {
					return nil, semErr(DuplicateProjectionName, p.Offset, "column %q introduced twice by '*'", c.Name)
				}
				seen[c.Name] = true
				out = append(out, OutputColumn{Name: c.Name, Type: c.Type})
			}
			continue
		}

		dt, err := r.walk(p.Expr)
		if err != nil {
			return nil, err
		}
		if seen[p.DisplayName] {
			return nil, semErr(DuplicateProjectionName, p.Offset, "duplicate projection name %q", p.DisplayName)
		}
		seen[p.DisplayName] = true
		out = append(out, OutputColumn{Name: p.DisplayName, Type: dt})
	}

	if q.Where != nil {
		r.inWhere = true
		wdt, err := r.walk(q.Where.Condition)
		if err != nil {
			return nil, err
		}
		_ = wdt // the filter's own type is not surfaced; only its truthiness matters
		r.inWhere = false
	}

	if q.HasLimit && q.Limit <= 0 {
		return nil, semErr(BadLimit, 0, "LIMIT must be a positive integer, got %d", q.Limit)
	}

	return &Resolved{
		Query:        q,
		Schema:       schema,
		Dialect:      dialect,
		OutputSchema: out,
		types:        r.types,
		aggID:        r.aggID,
	}, nil
}

// walk resolves and types one expression node, recording the result keyed
// by node pointer, and recurses into children. The AST is never mutated.
func (r *resolver) walk(e *sql.Expr) (Datatype, error) {
	var dt Datatype
	var err error

	switch e.Kind {
	case sql.ExprNumber:
		if e.IsReal {
			dt = TypeReal
		} else {
			dt = TypeInt
		}

	case sql.ExprString, sql.ExprRegex:
		dt = TypeStr

	case sql.ExprColumn:
		if e.Column == "*" {
			dt = TypeInt
		} else {
			_, ct, ok := r.schema.Lookup(e.Column)
			if !ok {
				return 0, semErr(UnknownColumn, e.Offset, "unknown column %q", e.Column)
			}
			dt = ct
		}

	case sql.ExprUnary:
		odt, werr := r.walk(e.Operand)
		if werr != nil {
			return 0, werr
		}
		if e.UnaryOp == sql.TkNot {
			dt = TypeInt
		} else {
			// §7: TypeError is reserved; current rules are permissive, so a
			// non-numeric operand here is not rejected at resolve time (awk
			// coerces at runtime).
			dt = odt
		}

	case sql.ExprBinary:
		dt, err = r.walkBinary(e)
		if err != nil {
			return 0, err
		}

	case sql.ExprFunc:
		dt, err = r.walkFunc(e)
		if err != nil {
			return 0, err
		}

	case sql.ExprAgg:
		dt, err = r.walkAgg(e)
		if err != nil {
			return 0, err
		}
	}

	r.types[e] = dt
	return dt, nil
}

func (r *resolver) walkBinary(e *sql.Expr) (Datatype, error) {
	ldt, err := r.walk(e.Left)
	if err != nil {
		return 0, err
	}
	cur := ldt
	for _, t := range e.Terms {
		rdt, err := r.walk(t.Operand)
		if err != nil {
			return 0, err
		}
		cur, err = binOpType(t.Op, cur, rdt, e.Offset)
		if err != nil {
			return 0, err
		}
	}
	return cur, nil
}

// binOpType implements §3's operator typing: string concat (||) accepts
// anything and yields str; match/not-match (~ / !~) yield int (truthy);
// comparisons and and/or yield int; arithmetic promotes per the int<:real
// lattice. Per §7, TypeError is reserved and current rules are permissive:
// a non-numeric operand in an arithmetic position is not rejected here —
// it simply does not contribute "real" to the promotion, the same way awk
// itself coerces a non-numeric string to 0 at runtime.
func binOpType(op int, l, r Datatype, offset int) (Datatype, error) {
	switch op {
	case sql.TkConcat:
		return TypeStr, nil
	case sql.TkMatch, sql.TkNotMatch, sql.TkAnd, sql.TkOr,
		sql.TkEq, sql.TkNe, sql.TkLt, sql.TkLe, sql.TkGt, sql.TkGe:
		return TypeInt, nil
	case sql.TkAdd, sql.TkSub, sql.TkMul, sql.TkDiv, sql.TkMod, sql.TkCaret:
		return promote(l, r), nil
	default:
		return 0, semErr(TypeError, offset, "unknown binary operator")
	}
}

func (r *resolver) walkFunc(e *sql.Expr) (Datatype, error) {
	lower := strings.ToLower(e.FuncName)
	sig, err := lookupFunc(lower, r.dialect)
	if err != nil {
		return 0, semErr(UnknownFunction, e.Offset, "%s", err)
	}
	if err := checkArity(lower, sig, len(e.Args)); err != nil {
		return 0, semErr(TypeError, e.Offset, "%s", err)
	}

	argTypes := make([]Datatype, len(e.Args))
	for i, a := range e.Args {
		at, err := r.walk(a)
		if err != nil {
			return 0, err
		}
		argTypes[i] = at
	}

	dt, err := sig.result(argTypes)
	if err != nil {
		return 0, semErr(TypeError, e.Offset, "%s: %s", lower, err)
	}
	return dt, nil
}

func (r *resolver) walkAgg(e *sql.Expr) (Datatype, error) {
	if r.inWhere {
		return 0, semErr(AggregateInWhere, e.Offset, "aggregate %s() is not allowed in WHERE", e.AggName)
	}

	var argType Datatype
	if e.AggStar {
		argType = TypeInt
	} else {
		at, err := r.walkNonAggregate(e.AggArg)
		if err != nil {
			return 0, err
		}
		argType = at
	}

	r.nextAgg++
	id := aggIDName(r.nextAgg)
	r.aggID[e] = id

	return aggResultType(e.AggName, argType), nil
}

// walkNonAggregate walks an aggregate's own argument, which per §4.3's
// NestedAggregate rule can never itself contain another aggregate call.
func (r *resolver) walkNonAggregate(e *sql.Expr) (Datatype, error) {
	if e.IsAggregate() {
		return 0, semErr(NestedAggregate, e.Offset, "aggregate functions cannot be nested")
	}
	return r.walk(e)
}

func aggIDName(n int) string {
	return "agg" + strconv.Itoa(n)
}
