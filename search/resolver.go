package search

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/modelapi"
	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/store"
)

// StoreResolver is the production Resolver: main-store lookups scoped to
// one request's Querier, with object creation delegated to the
// ObjectAPI. Built per request so every lookup shares the request's
// transaction snapshot.
type StoreResolver struct {
	Q       store.Querier
	Objects *modelapi.ObjectAPI

	// Creator is the acting user, used only when CreateMissingAbout asks
	// an unmatched about-query to allocate the object.
	Creator models.User
}

func (r StoreResolver) ObjectByAbout(ctx context.Context, about string) (uuid.UUID, bool, error) {
	return store.GetObjectByAbout(ctx, r.Q, fpath.NormalizeAbout(about))
}

func (r StoreResolver) CreateObject(ctx context.Context, about string) (uuid.UUID, error) {
	return r.Objects.Create(ctx, r.Q, r.Creator, &about)
}

func (r StoreResolver) ObjectIDsWithPath(ctx context.Context, path string, limit int) ([]uuid.UUID, bool, error) {
	tags, err := store.GetTagsByPath(ctx, r.Q, []string{path})
	if err != nil {
		return nil, false, err
	}
	tag, ok := tags[path]
	if !ok {
		return nil, false, models.NewPathError(models.KindUnknownTag, path, "tag %q does not exist", path)
	}
	return store.ObjectIDsWithPath(ctx, r.Q, tag.ID, limit)
}

func (r StoreResolver) PathIsNumeric(ctx context.Context, path string) (bool, error) {
	return store.PathIsNumeric(ctx, r.Q, path)
}
