package facade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluidinfo/models"
	"fluidinfo/permission"
)

func TestMapErrorPassesTaxonomyThrough(t *testing.T) {
	in := models.NewPathError(models.KindUnknownNamespace, "alice/missing", "namespace %q does not exist", "alice/missing")
	out := mapError(in)
	assert.Same(t, in, out)
}

func TestMapErrorWrapsUntypedAsFeatureError(t *testing.T) {
	out := mapError(errors.New("pgx: broken pipe"))
	kind, ok := models.KindOf(out)
	require.True(t, ok)
	assert.Equal(t, models.KindFeatureError, kind)
}

func TestNormalizePaths(t *testing.T) {
	out, err := normalizePaths([]string{"alice/books"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/books"}, out)

	_, err = normalizePaths(nil)
	require.Error(t, err)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindFeatureError, kind)

	_, err = normalizePaths([]string{"Alice/bad path!"})
	assert.Error(t, err)
}

func TestParseOperation(t *testing.T) {
	op, err := parseOperation("READ_TAG_VALUE")
	require.NoError(t, err)
	assert.Equal(t, permission.ReadTagValue, op)

	_, err = parseOperation("EAT_TAG_VALUE")
	require.Error(t, err)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindBadRequest, kind)
}
