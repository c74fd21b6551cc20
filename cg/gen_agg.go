package cg

import (
	"fmt"

	"sql2awk/sql"
)

// Aggregate state lives in one associative array, state, keyed by
// (partition key, aggregate id, field). This is the partition-keyed model
// §4.3 requires, since there is no separate GROUP BY pipeline stage here:
// partitioning and aggregation happen inline, once per input row, in the
// same main block. It replaces the teacher's global-array-per-query-slot
// model (agg_val_N globals updated once per already-grouped row), which
// only worked because the teacher's grouping was a prior, already
// materialized pipeline stage.
//
// Per-kind fields:
//   count        state[pk, id, "cnt"]
//   sum, total   state[pk, id, "sum"]
//   avg          state[pk, id, "sum"], state[pk, id, "cnt"]
//   min, max     state[pk, id, "val"], state[pk, id, "set"]
//   DISTINCT adds dset[pk, id, value] for any of the above
//
// sum and total share one update/final path: §4.3's aggregate contract
// table gives them an identical entry, so the codegen does too.

func stateKey(id, field string) string {
	return fmt.Sprintf("state[pk, %q, %q]", id, field)
}

// genAggUpdate emits the awk statements that fold one input row into
// aggregate e's running state. It generates e's argument in scalar mode
// (count(*) has no argument and uses the constant 1).
func (g *codeGen) genAggUpdate(e *sql.Expr) []string {
	id := g.resolved.AggID(e)
	var value string
	if !e.AggStar {
		value = g.genExpr(e.AggArg, modeScalar)
	} else {
		value = "1"
	}

	if e.Distinct {
		var body []string
		body = append(body, fmt.Sprintf("dval = %s", value))
		body = append(body, fmt.Sprintf("if (!((pk, %q, dval) in dset)) {", id))
		body = append(body, fmt.Sprintf("  dset[pk, %q, dval] = 1", id))
		body = append(body, indentAll(genAggUpdateBody(e.AggName, id, "dval"))...)
		body = append(body, "}")
		return body
	}

	return genAggUpdateBody(e.AggName, id, value)
}

func indentAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "  " + l
	}
	return out
}

func genAggUpdateBody(name, id, value string) []string {
	switch name {
	case "count":
		return []string{fmt.Sprintf("%s++", stateKey(id, "cnt"))}

	case "sum", "total":
		return []string{fmt.Sprintf("%s += (%s)", stateKey(id, "sum"), value)}

	case "avg":
		return []string{
			fmt.Sprintf("%s += (%s)", stateKey(id, "sum"), value),
			fmt.Sprintf("%s++", stateKey(id, "cnt")),
		}

	case "min":
		return []string{
			fmt.Sprintf("if (!%s || (%s) < %s) {", stateKey(id, "set"), value, stateKey(id, "val")),
			fmt.Sprintf("  %s = %s", stateKey(id, "val"), value),
			fmt.Sprintf("  %s = 1", stateKey(id, "set")),
			"}",
		}

	case "max":
		return []string{
			fmt.Sprintf("if (!%s || (%s) > %s) {", stateKey(id, "set"), value, stateKey(id, "val")),
			fmt.Sprintf("  %s = %s", stateKey(id, "val"), value),
			fmt.Sprintf("  %s = 1", stateKey(id, "set")),
			"}",
		}

	default:
		panic("unknown aggregate name in codegen: " + name)
	}
}

// aggFinalExpr returns the awk expression text that reads an aggregate's
// completed value for the current partition (pk), per §4.3's update/final
// contract. count always reads back a value even for an empty partition
// (0); sum/total/avg/min/max read back the empty string for an empty
// partition, per Open Question #2 ("emit an empty string rather than SQL
// NULL").
func (g *codeGen) aggFinalExpr(e *sql.Expr) string {
	id := g.resolved.AggID(e)
	switch e.AggName {
	case "count":
		return stateKey(id, "cnt") + " + 0"
	case "sum", "total":
		return stateKey(id, "sum")
	case "avg":
		return fmt.Sprintf("(%s ? (%s / %s) : \"\")", stateKey(id, "cnt"), stateKey(id, "sum"), stateKey(id, "cnt"))
	case "min", "max":
		return stateKey(id, "val")
	default:
		panic("unknown aggregate name in codegen: " + e.AggName)
	}
}

// collectAggs appends every ExprAgg node reachable from e, left to right.
// Used to build the per-row update block: every aggregate a projection
// references needs exactly one update statement per input row.
func collectAggs(e *sql.Expr, out *[]*sql.Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case sql.ExprAgg:
		*out = append(*out, e)
	case sql.ExprUnary:
		collectAggs(e.Operand, out)
	case sql.ExprBinary:
		collectAggs(e.Left, out)
		for _, t := range e.Terms {
			collectAggs(t.Operand, out)
		}
	case sql.ExprFunc:
		for _, a := range e.Args {
			collectAggs(a, out)
		}
	}
}
