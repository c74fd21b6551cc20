package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema("src:str,dst:str,bytes:int,dur:real")
	require.NoError(t, err)

	idx, dt, ok := s.Lookup("src")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, TypeStr, dt)

	idx, dt, ok = s.Lookup("bytes")
	require.True(t, ok)
	assert.Equal(t, 3, idx)
	assert.Equal(t, TypeInt, dt)

	_, _, ok = s.Lookup("nope")
	assert.False(t, ok)
}

func TestParseSchemaRejectsMalformed(t *testing.T) {
	_, err := ParseSchema("src")
	assert.Error(t, err)

	_, err = ParseSchema("src:nope")
	assert.Error(t, err)

	_, err = ParseSchema("")
	assert.Error(t, err)
}

func TestNewSchemaRejectsDuplicateNames(t *testing.T) {
	_, err := NewSchema([]string{"a", "a"}, []Datatype{TypeInt, TypeInt})
	assert.Error(t, err)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectPortable, d)

	d, err = ParseDialect("gawk")
	require.NoError(t, err)
	assert.Equal(t, DialectGawk, d)

	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}
