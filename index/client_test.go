package index

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluidinfo/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, 0)
}

func TestQueryReturnsObjectIDs(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"docs":[{"fluiddb/id":"` + id.String() + `"}]}`))
	}))

	out, err := c.Query(context.Background(), `paths:"alice\/books\/rating"`)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, out)
}

func TestQueryErrorStatusIsSearchError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := c.Query(context.Background(), "broken")
	require.Error(t, err)
	kind, ok := models.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, models.KindSearchError, kind)
}

func TestFailedCommitSurfacesOnNextQuery(t *testing.T) {
	var mode http.HandlerFunc
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { mode(w, r) }))

	// Commit fails after retries; the Commit call itself stays quiet
	// (fire-and-forget), the failure is remembered.
	mode = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }
	require.NoError(t, c.Commit(context.Background()))

	mode = func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"docs":[]}`)) }
	_, err := c.Query(context.Background(), "anything")
	require.Error(t, err)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindSearchError, kind)

	// A recovered commit clears the remembered failure.
	mode = func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) }
	require.NoError(t, c.Commit(context.Background()))
	_, err = c.Query(context.Background(), "anything")
	assert.NoError(t, err)
}

func TestImportStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"busy","message":"importing"}`))
	}))

	busy, message, err := c.ImportStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, busy)
	assert.Equal(t, "importing", message)
}
