package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluidinfo/index"
	"fluidinfo/models"
	"fluidinfo/query"
)

func TestFieldsForEachKind(t *testing.T) {
	assert.Equal(t, map[string]any{"p_tag_null": false}, index.FieldsFor("p", models.NullValue()))
	assert.Equal(t, map[string]any{"p_tag_bool": true}, index.FieldsFor("p", models.BoolValue(true)))
	assert.Equal(t, map[string]any{"p_tag_number": int64(5)}, index.FieldsFor("p", models.IntValue(5)))
	assert.Equal(t, map[string]any{
		"p_tag_raw_str": "hi",
		"p_tag_fts":     "hi",
	}, index.FieldsFor("p", models.StringValue("hi")))
}

func TestTranslateOperatorEquality(t *testing.T) {
	node, err := query.Parse(`alice/books/title = "moon river"`)
	require.NoError(t, err)
	clause, err := index.TranslateOperator(node, func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Contains(t, clause, "alice/books/title_tag_raw_str")
}

func TestTranslateOperatorNullMatchesIndexedValue(t *testing.T) {
	node, err := query.Parse(`alice/books/loaned = null`)
	require.NoError(t, err)
	clause, err := index.TranslateOperator(node, func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	// Null values are indexed as `<path>_tag_null = false`; the equality
	// clause must query the same term.
	assert.Equal(t, `alice/books/loaned_tag_null:false`, clause)
}

func TestTranslateOperatorRejectsNonNumericRange(t *testing.T) {
	node, err := query.Parse(`alice/books/title > 3`)
	require.NoError(t, err)
	_, err = index.TranslateOperator(node, func(string) (bool, error) { return false, nil })
	require.Error(t, err)
	kind, ok := models.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, models.KindSearchError, kind)
}

func TestTranslateOperatorAllowsNumericRange(t *testing.T) {
	node, err := query.Parse(`alice/books/rating > 3`)
	require.NoError(t, err)
	clause, err := index.TranslateOperator(node, func(string) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.Contains(t, clause, "alice/books/rating_tag_number")
}
