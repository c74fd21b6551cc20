package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql2awk/sql"
)

func mustResolve(t *testing.T, query string, dialect Dialect) (*Resolved, error) {
	t.Helper()
	s, err := ParseSchema("src:str,dst:str,bytes:int,dur:real")
	require.NoError(t, err)
	q, err := sql.Parse(query)
	require.NoError(t, err)
	return Resolve(q, s, dialect)
}

func semErrKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	se, ok := err.(*SemanticError)
	require.True(t, ok, "expected *SemanticError, got %T: %v", err, err)
	return se.Kind
}

func TestResolveUnknownColumn(t *testing.T) {
	_, err := mustResolve(t, "nope", DialectPortable)
	require.Error(t, err)
	assert.Equal(t, UnknownColumn, semErrKind(t, err))
}

func TestResolveUnknownFunction(t *testing.T) {
	_, err := mustResolve(t, "nope(src)", DialectPortable)
	require.Error(t, err)
	assert.Equal(t, UnknownFunction, semErrKind(t, err))
}

func TestResolveGawkOnlyFunctionRejectedUnderPortable(t *testing.T) {
	_, err := mustResolve(t, "sqrt(bytes)", DialectPortable)
	require.Error(t, err)
	assert.Equal(t, UnknownFunction, semErrKind(t, err))
}

func TestResolveGawkOnlyFunctionAcceptedUnderGawk(t *testing.T) {
	r, err := mustResolve(t, "sqrt(bytes)", DialectGawk)
	require.NoError(t, err)
	assert.Equal(t, TypeReal, r.OutputSchema[0].Type)
}

func TestResolveBadLimit(t *testing.T) {
	_, err := mustResolve(t, "src LIMIT 0", DialectPortable)
	require.Error(t, err)
	assert.Equal(t, BadLimit, semErrKind(t, err))
}

func TestResolveDuplicateProjectionName(t *testing.T) {
	_, err := mustResolve(t, "src AS x, dst AS x", DialectPortable)
	require.Error(t, err)
	assert.Equal(t, DuplicateProjectionName, semErrKind(t, err))
}

func TestResolveAggregateInWhere(t *testing.T) {
	_, err := mustResolve(t, "src WHERE count(*) > 0", DialectPortable)
	require.Error(t, err)
	assert.Equal(t, AggregateInWhere, semErrKind(t, err))
}

func TestResolveNestedAggregate(t *testing.T) {
	_, err := mustResolve(t, "sum(count(*))", DialectPortable)
	require.Error(t, err)
	assert.Equal(t, NestedAggregate, semErrKind(t, err))
}

func TestResolveArithmeticOnStringIsPermissive(t *testing.T) {
	// §7: TypeError is reserved; current rules don't reject a non-numeric
	// arithmetic operand, matching awk's own runtime coercion.
	r, err := mustResolve(t, "src + 1", DialectPortable)
	require.NoError(t, err)
	assert.Equal(t, TypeInt, r.OutputSchema[0].Type)
}

func TestResolveArithmeticPromotion(t *testing.T) {
	r, err := mustResolve(t, "bytes + dur", DialectPortable)
	require.NoError(t, err)
	assert.Equal(t, TypeReal, r.OutputSchema[0].Type)
}

func TestResolveConcatYieldsString(t *testing.T) {
	r, err := mustResolve(t, "src || dst", DialectPortable)
	require.NoError(t, err)
	assert.Equal(t, TypeStr, r.OutputSchema[0].Type)
}

func TestResolveComparisonYieldsInt(t *testing.T) {
	r, err := mustResolve(t, "bytes > 10", DialectPortable)
	require.NoError(t, err)
	assert.Equal(t, TypeInt, r.OutputSchema[0].Type)
}

func TestResolveAggregateResultTypes(t *testing.T) {
	// §3: count is always int; every other aggregate inherits its
	// argument's own declared type (avg(bytes:int) stays int, not real).
	r, err := mustResolve(t, "count(*), avg(bytes), sum(bytes), min(dur)", DialectPortable)
	require.NoError(t, err)
	assert.Equal(t, TypeInt, r.OutputSchema[0].Type)
	assert.Equal(t, TypeInt, r.OutputSchema[1].Type)
	assert.Equal(t, TypeInt, r.OutputSchema[2].Type)
	assert.Equal(t, TypeReal, r.OutputSchema[3].Type)
}

func TestResolveStarExpandsToSchemaColumns(t *testing.T) {
	r, err := mustResolve(t, "*", DialectPortable)
	require.NoError(t, err)
	require.Len(t, r.OutputSchema, 4)
	assert.Equal(t, "src", r.OutputSchema[0].Name)
	assert.Equal(t, "dur", r.OutputSchema[3].Name)
}

func TestResolveMintsDistinctAggregateIDs(t *testing.T) {
	q, err := sql.Parse("sum(bytes), count(*)")
	require.NoError(t, err)
	s, err := ParseSchema("src:str,dst:str,bytes:int,dur:real")
	require.NoError(t, err)
	r, err := Resolve(q, s, DialectPortable)
	require.NoError(t, err)

	id1 := r.AggID(q.Projections[0].Expr)
	id2 := r.AggID(q.Projections[1].Expr)
	assert.NotEqual(t, "", id1)
	assert.NotEqual(t, "", id2)
	assert.NotEqual(t, id1, id2)
}
