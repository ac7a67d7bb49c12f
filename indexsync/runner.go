// Package indexsync is the out-of-band job that keeps the external
// full-text index eventually consistent with the main store:
// a clean full import that rebuilds every document, a delta import that
// re-materializes only dirty objects, and a batch helper that re-touches
// explicit object ID sets.
package indexsync

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"fluidinfo/index"
	"fluidinfo/logger"
	"fluidinfo/models"
	"fluidinfo/store"
)

// Indexer is the write side of the index client the runner drives,
// satisfied by *index.Client.
type Indexer interface {
	Update(ctx context.Context, docs []index.Document) error
	Commit(ctx context.Context) error
	DeleteAll(ctx context.Context) error
}

// Runner executes full and delta imports against one store/index pair.
type Runner struct {
	store   *store.Store
	index   Indexer
	batch   int
	dirtyCap int
}

// New builds a Runner. batch bounds how many documents go into one
// index update call; dirtyCap bounds how many dirty objects one Delta
// pass consumes.
func New(s *store.Store, idx Indexer, batch, dirtyCap int) *Runner {
	if batch <= 0 {
		batch = 500
	}
	if dirtyCap <= 0 {
		dirtyCap = 10000
	}
	return &Runner{store: s, index: idx, batch: batch, dirtyCap: dirtyCap}
}

// Full performs a clean rebuild: every existing document is
// deleted, then every object's fields are re-imported from the main
// store via get_objects(clean=true).
func (r *Runner) Full(ctx context.Context) error {
	logger.Info("indexsync: starting full import")
	if err := r.index.DeleteAll(ctx); err != nil {
		return err
	}
	rows, err := store.GetObjects(ctx, r.store.Pool, true)
	if err != nil {
		return err
	}
	ids := store.DistinctObjectIDs(rows)
	if err := r.reindex(ctx, ids); err != nil {
		return err
	}
	logger.Info("indexsync: full import done, %d object(s)", len(ids))
	return nil
}

// Delta re-imports only objects with unindexed dirty-log rows, then
// marks those rows indexed, never deleted, so the log can be replayed.
func (r *Runner) Delta(ctx context.Context) error {
	ids, err := store.GetDirty(ctx, r.store.Pool, r.dirtyCap)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	logger.Debug("indexsync: delta import of %d object(s)", len(ids))
	if err := r.reindex(ctx, ids); err != nil {
		return err
	}
	return store.MarkIndexed(ctx, r.store.Pool, ids)
}

// Run loops Delta on interval until ctx is cancelled. Errors are logged
// and retried on the next tick: index writes are fire-and-forget from
// the request path's point of view, so the loop never gives up.
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Delta(ctx); err != nil {
				logger.Error("indexsync: delta import failed: %v", err)
			}
		}
	}
}

// reindex loads each object's current tag values and replaces its index
// document, in bounded update batches followed by one commit.
func (r *Runner) reindex(ctx context.Context, ids []uuid.UUID) error {
	for _, chunk := range chunkIDs(ids, r.batch) {
		values, err := store.GetTagValues(ctx, r.store.Pool, chunk, nil)
		if err != nil {
			return err
		}
		docs := make([]index.Document, 0, len(chunk))
		for _, id := range chunk {
			byPath := make(map[string]models.Value, len(values[id]))
			for path, tv := range values[id] {
				byPath[path] = tv.Value
			}
			docs = append(docs, index.DocumentFor(id.String(), byPath))
		}
		if err := r.index.Update(ctx, docs); err != nil {
			return err
		}
	}
	return r.index.Commit(ctx)
}

// BatchIndex re-touches the given object IDs by appending them to the
// dirty log in bounded batches separated by sleep, forcing the next
// delta imports to re-materialize them.
func (r *Runner) BatchIndex(ctx context.Context, ids []uuid.UUID, batch int, sleep time.Duration) error {
	if batch <= 0 {
		batch = r.batch
	}
	chunks := chunkIDs(ids, batch)
	for i, chunk := range chunks {
		if err := store.AppendDirty(ctx, r.store.Pool, chunk); err != nil {
			return err
		}
		logger.Debug("indexsync: batch-touched %d/%d chunk(s)", i+1, len(chunks))
		if i < len(chunks)-1 && sleep > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}
	}
	return nil
}

// BatchIndexFile reads one object UUID per line from path and feeds them
// through BatchIndex, used to
// force reindexing of known subsets.
func (r *Runner) BatchIndexFile(ctx context.Context, path string, batch int, sleep time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var ids []uuid.UUID
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		id, err := uuid.Parse(line)
		if err != nil {
			logger.Warn("indexsync: skipping malformed object id %q", line)
			continue
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return r.BatchIndex(ctx, ids, batch, sleep)
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	if size <= 0 || len(ids) == 0 {
		if len(ids) == 0 {
			return nil
		}
		return [][]uuid.UUID{ids}
	}
	var out [][]uuid.UUID
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
