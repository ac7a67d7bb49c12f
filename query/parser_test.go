package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluidinfo/query"
)

func TestParseComparison(t *testing.T) {
	node, err := query.Parse(`alice/books/rating > 3`)
	require.NoError(t, err)
	cmp, ok := node.(query.Cmp)
	require.True(t, ok)
	assert.Equal(t, "alice/books/rating", cmp.Path)
	assert.Equal(t, query.GT, cmp.Op)
	assert.Equal(t, query.LiteralNumber, cmp.Literal.Kind)
	assert.Equal(t, 3.0, cmp.Literal.Number)
}

func TestParseBooleanPrecedence(t *testing.T) {
	// except binds loosest, so this parses as (A and B) except C.
	node, err := query.Parse(`has alice/a and has alice/b except has alice/c`)
	require.NoError(t, err)
	except, ok := node.(query.Except)
	require.True(t, ok)
	and, ok := except.Left.(query.And)
	require.True(t, ok)
	assert.Equal(t, query.Has{Path: "alice/a"}, and.Left)
	assert.Equal(t, query.Has{Path: "alice/b"}, and.Right)
	assert.Equal(t, query.Has{Path: "alice/c"}, except.Right)
}

func TestParseMatchesAndContains(t *testing.T) {
	node, err := query.Parse(`alice/books/title matches "moon river"`)
	require.NoError(t, err)
	m, ok := node.(query.Matches)
	require.True(t, ok)
	assert.Equal(t, "moon river", m.Text)

	node, err = query.Parse(`alice/books/tags contains "scifi"`)
	require.NoError(t, err)
	c, ok := node.(query.Contains)
	require.True(t, ok)
	assert.Equal(t, "scifi", c.Text)
}

func TestParseParens(t *testing.T) {
	node, err := query.Parse(`(has alice/a or has alice/b) and has alice/c`)
	require.NoError(t, err)
	and, ok := node.(query.And)
	require.True(t, ok)
	_, ok = and.Left.(query.Or)
	require.True(t, ok)
	assert.Equal(t, query.Has{Path: "alice/c"}, and.Right)
}

func TestParseErrorOnMalformedInput(t *testing.T) {
	_, err := query.Parse(`alice/books/rating >`)
	require.Error(t, err)
}

func TestValidateRejectsHasAboutAndID(t *testing.T) {
	node, err := query.Parse(`has fluiddb/about`)
	require.NoError(t, err)
	assert.Error(t, query.Validate(node))

	node, err = query.Parse(`has fluiddb/id`)
	require.NoError(t, err)
	assert.Error(t, query.Validate(node))

	node, err = query.Parse(`has alice/books/rating`)
	require.NoError(t, err)
	assert.NoError(t, query.Validate(node))
}
