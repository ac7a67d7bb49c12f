package cache

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/permission"
	"fluidinfo/store"
)

// Interface is the subset of Cache the security layer depends on,
// extracted so tests can substitute a broken-cache double without a live Redis.
type Interface interface {
	ResolveAbout(ctx context.Context, q store.Querier, about string) (uuid.UUID, bool, error)
	NamespacePermissions(ctx context.Context, q store.Querier, path string) (permission.Set, error)
	TagPermissions(ctx context.Context, q store.Querier, path string) (permission.Set, error)
	InvalidateNamespacePermission(ctx context.Context, path string)
	InvalidateTagPermission(ctx context.Context, path string)
	RecentActivityForObject(ctx context.Context, q store.Querier, objectID uuid.UUID) ([]store.Activity, error)
	RecentActivityForUser(ctx context.Context, q store.Querier, username string) ([]store.Activity, error)
	InvalidateRecentActivityForObject(ctx context.Context, objectID uuid.UUID)
	InvalidateRecentActivityForUser(ctx context.Context, username string)
}

var _ Interface = (*Cache)(nil)
