package security

import (
	"context"

	"fluidinfo/cache"
	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// cacheSource adapts the caching layer into a permission.Source, so the
// Checker's permission loads are served from the `permission:*` cache
// categories while existence checks and user loads still hit the
// request's own transaction snapshot.
type cacheSource struct {
	cache cache.Interface
	tx    store.TxSource
}

func (s cacheSource) NamespacePermissions(ctx context.Context, paths []string) (map[string]permission.Set, error) {
	out := make(map[string]permission.Set, len(paths))
	for _, p := range paths {
		set, err := s.cache.NamespacePermissions(ctx, s.tx.Q, p)
		if err != nil {
			if kind, ok := models.KindOf(err); ok && kind == models.KindUnknownNamespace {
				continue
			}
			return nil, err
		}
		if set != nil {
			out[p] = set
		}
	}
	return out, nil
}

func (s cacheSource) TagPermissions(ctx context.Context, paths []string) (map[string]permission.Set, error) {
	out := make(map[string]permission.Set, len(paths))
	for _, p := range paths {
		set, err := s.cache.TagPermissions(ctx, s.tx.Q, p)
		if err != nil {
			if kind, ok := models.KindOf(err); ok && kind == models.KindUnknownTag {
				continue
			}
			return nil, err
		}
		if set != nil {
			out[p] = set
		}
	}
	return out, nil
}

func (s cacheSource) NamespaceExists(ctx context.Context, path string) (bool, error) {
	return s.tx.NamespaceExists(ctx, path)
}

func (s cacheSource) TagExists(ctx context.Context, path string) (bool, error) {
	return s.tx.TagExists(ctx, path)
}

func (s cacheSource) UsersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	return s.tx.UsersByID(ctx, ids)
}
