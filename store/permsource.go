package store

import (
	"context"

	"fluidinfo/models"
	"fluidinfo/permission"
)

// TxSource adapts a single Querier (typically the pgx.Tx a Facade call
// opened for the current request) to permission.Source, so a
// permission.Checker built from it sees the same consistent database
// snapshot as every other store call in that request. *Store
// itself also implements permission.Source (bound to the pool) for
// callers running outside a request transaction, such as indexsync.
type TxSource struct {
	Q Querier
}

func (t TxSource) NamespacePermissions(ctx context.Context, paths []string) (map[string]permission.Set, error) {
	return NamespacePermissions(ctx, t.Q, paths)
}

func (t TxSource) TagPermissions(ctx context.Context, paths []string) (map[string]permission.Set, error) {
	return TagPermissions(ctx, t.Q, paths)
}

func (t TxSource) NamespaceExists(ctx context.Context, path string) (bool, error) {
	return NamespaceExists(ctx, t.Q, path)
}

func (t TxSource) TagExists(ctx context.Context, path string) (bool, error) {
	return TagExists(ctx, t.Q, path)
}

func (t TxSource) UsersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	return UsersByID(ctx, t.Q, ids)
}
