package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier answers the single QueryRow the about lookup issues from a
// canned row, standing in for the main store.
type fakeQuerier struct {
	aboutID uuid.UUID
	found   bool
	calls   int
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not used by this test")
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.calls++
	return fakeRow{id: f.aboutID, found: f.found}
}

type fakeRow struct {
	id    uuid.UUID
	found bool
}

func (r fakeRow) Scan(dest ...any) error {
	if !r.found {
		return pgx.ErrNoRows
	}
	*(dest[0].(*uuid.UUID)) = r.id
	return nil
}

// brokenCache builds a Cache whose Redis endpoint is unreachable: every
// cache RPC errors, and per the outage contract those errors must be
// logged and swallowed, never surfaced to the caller.
func brokenCache() *Cache {
	return New("127.0.0.1:1", 1, time.Minute, nil, nil, nil)
}

func TestResolveAboutSurvivesCacheOutage(t *testing.T) {
	c := brokenCache()
	defer c.Close()

	id := uuid.New()
	q := &fakeQuerier{aboutID: id, found: true}

	got, ok, err := c.ResolveAbout(context.Background(), q, "object for the namespace alice/books")
	require.NoError(t, err, "a cache outage must not fail the request")
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, 1, q.calls, "the miss must fall through to the store")
}

func TestResolveAboutMissingValue(t *testing.T) {
	c := brokenCache()
	defer c.Close()

	q := &fakeQuerier{found: false}
	_, ok, err := c.ResolveAbout(context.Background(), q, "never used")
	require.NoError(t, err)
	assert.False(t, ok)
}
