package search

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluidinfo/models"
)

// fakeResolver answers the fast paths from maps, and records whether
// CreateObject ran.
type fakeResolver struct {
	byAbout map[string]uuid.UUID
	byPath  map[string][]uuid.UUID
	numeric map[string]bool
	created []string
}

func (f *fakeResolver) ObjectByAbout(_ context.Context, about string) (uuid.UUID, bool, error) {
	id, ok := f.byAbout[about]
	return id, ok, nil
}

func (f *fakeResolver) CreateObject(_ context.Context, about string) (uuid.UUID, error) {
	id := uuid.New()
	f.created = append(f.created, about)
	f.byAbout[about] = id
	return id, nil
}

func (f *fakeResolver) ObjectIDsWithPath(_ context.Context, path string, limit int) ([]uuid.UUID, bool, error) {
	ids, ok := f.byPath[path]
	if !ok {
		return nil, false, models.NewPathError(models.KindUnknownTag, path, "tag %q does not exist", path)
	}
	if len(ids) > limit {
		return ids[:limit], true, nil
	}
	return ids, false, nil
}

func (f *fakeResolver) PathIsNumeric(_ context.Context, path string) (bool, error) {
	return f.numeric[path], nil
}

// fakeIndex records queries and returns a fixed result set.
type fakeIndex struct {
	queries []string
	results []uuid.UUID
}

func (f *fakeIndex) Query(_ context.Context, luceneQuery string) ([]uuid.UUID, error) {
	f.queries = append(f.queries, luceneQuery)
	return f.results, nil
}

func TestAboutFastPathSkipsIndex(t *testing.T) {
	id := uuid.New()
	resolver := &fakeResolver{byAbout: map[string]uuid.UUID{"éric serra": id}}
	idx := &fakeIndex{}
	engine := New(resolver, idx, 100)

	out, err := engine.Search(context.Background(), []string{`fluiddb/about = "éric serra"`}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, out[`fluiddb/about = "éric serra"`])
	assert.Empty(t, idx.queries, "about queries must not touch the index")
}

func TestAboutFastPathUnmatchedReturnsEmpty(t *testing.T) {
	resolver := &fakeResolver{byAbout: map[string]uuid.UUID{}}
	engine := New(resolver, &fakeIndex{}, 100)

	out, err := engine.Search(context.Background(), []string{`fluiddb/about = "nobody"`}, Options{})
	require.NoError(t, err)
	assert.Empty(t, out[`fluiddb/about = "nobody"`])
	assert.Empty(t, resolver.created)
}

func TestAboutFastPathCreatesWhenAsked(t *testing.T) {
	resolver := &fakeResolver{byAbout: map[string]uuid.UUID{}}
	engine := New(resolver, &fakeIndex{}, 100)

	out, err := engine.Search(context.Background(), []string{`fluiddb/about = "new thing"`}, Options{CreateMissingAbout: true})
	require.NoError(t, err)
	require.Len(t, out[`fluiddb/about = "new thing"`], 1)
	assert.Equal(t, []string{"new thing"}, resolver.created)
}

func TestIDFastPath(t *testing.T) {
	id := uuid.New()
	engine := New(&fakeResolver{}, &fakeIndex{}, 100)

	query := `fluiddb/id = "` + id.String() + `"`
	out, err := engine.Search(context.Background(), []string{query}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, out[query])
}

func TestIDFastPathMalformedRaisesSearchError(t *testing.T) {
	engine := New(&fakeResolver{}, &fakeIndex{}, 100)

	_, err := engine.Search(context.Background(), []string{`fluiddb/id = "not-a-uuid"`}, Options{})
	require.Error(t, err)
	kind, ok := models.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, models.KindSearchError, kind)
}

func TestHasFastPathCapped(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	resolver := &fakeResolver{byPath: map[string][]uuid.UUID{"alice/books/rating": ids}}
	idx := &fakeIndex{}
	engine := New(resolver, idx, 2)

	out, err := engine.Search(context.Background(), []string{"has alice/books/rating"}, Options{})
	require.NoError(t, err)
	assert.Len(t, out["has alice/books/rating"], 2)
	assert.Empty(t, idx.queries)
}

func TestHasUnknownTag(t *testing.T) {
	engine := New(&fakeResolver{byPath: map[string][]uuid.UUID{}}, &fakeIndex{}, 100)

	_, err := engine.Search(context.Background(), []string{"has alice/missing"}, Options{})
	require.Error(t, err)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindUnknownTag, kind)
}

func TestHasAboutIsIllegal(t *testing.T) {
	engine := New(&fakeResolver{}, &fakeIndex{}, 100)

	_, err := engine.Search(context.Background(), []string{"has fluiddb/about"}, Options{})
	require.Error(t, err)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindBadRequest, kind)
}

func TestBooleanQueryGoesToIndex(t *testing.T) {
	hits := []uuid.UUID{uuid.New()}
	resolver := &fakeResolver{numeric: map[string]bool{"alice/books/rating": true}}
	idx := &fakeIndex{results: hits}
	engine := New(resolver, idx, 100)

	query := `alice/books/rating > 3 and alice/books/genre = "scifi"`
	out, err := engine.Search(context.Background(), []string{query}, Options{})
	require.NoError(t, err)
	assert.Equal(t, hits, out[query])
	require.Len(t, idx.queries, 1)
	assert.Contains(t, idx.queries[0], "alice/books/rating_tag_number")
	assert.Contains(t, idx.queries[0], "alice/books/genre_tag_raw_str")
}

func TestEmptyBatchIsFeatureError(t *testing.T) {
	engine := New(&fakeResolver{}, &fakeIndex{}, 100)

	_, err := engine.Search(context.Background(), nil, Options{})
	require.Error(t, err)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindFeatureError, kind)
}
