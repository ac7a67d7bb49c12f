package security

import (
	"context"

	"github.com/google/uuid"

	fpath "fluidinfo/path"
	"fluidinfo/modelapi"
	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// TagCreate authorizes and delegates TagAPI.create: creating a tag
// requires CREATE_NAMESPACE on its containing namespace.
func (s *Security) TagCreate(ctx context.Context, q store.Querier, user models.User, entries []modelapi.TagCreate) (map[string]uuid.UUID, error) {
	checks := make([]permission.Check, 0, len(entries))
	for _, e := range entries {
		p, err := fpath.Parse(e.Path)
		if err != nil {
			return nil, err
		}
		parent, ok := p.Parent()
		if !ok {
			return nil, models.NewPathError(models.KindInvalidPath, e.Path, "tag path %q must have a containing namespace", e.Path)
		}
		checks = append(checks, permission.Check{Path: parent.String(), Op: permission.CreateNamespace})
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return nil, err
	}
	return s.tags.Create(ctx, q, user, entries)
}

// TagDelete authorizes and delegates TagAPI.delete: each path needs
// DELETE_TAG. On success the deleted tags' permission entries and their
// objects' recent-activity entries are dropped from the cache.
func (s *Security) TagDelete(ctx context.Context, q store.Querier, user models.User, paths []string) error {
	checks := make([]permission.Check, len(paths))
	for i, p := range paths {
		checks[i] = permission.Check{Path: p, Op: permission.DeleteTag}
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	rows, err := store.GetTagsByPath(ctx, q, paths)
	if err != nil {
		return err
	}
	if err := s.tags.Delete(ctx, q, paths); err != nil {
		return err
	}
	for _, p := range paths {
		s.cache.InvalidateTagPermission(ctx, p)
		if tag, ok := rows[p]; ok {
			s.cache.InvalidateRecentActivityForObject(ctx, tag.ObjectID)
		}
	}
	return nil
}

// TagSet authorizes and delegates TagAPI.set: each path needs UPDATE_TAG.
func (s *Security) TagSet(ctx context.Context, q store.Querier, user models.User, descriptions map[string]string) error {
	checks := make([]permission.Check, 0, len(descriptions))
	for p := range descriptions {
		checks = append(checks, permission.Check{Path: p, Op: permission.UpdateTag})
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	return s.tags.Set(ctx, q, user, descriptions)
}

// TagGet delegates TagAPI.get unchecked: a tag's own path and existence
// are public metadata, the same as a namespace's path. Reading the tag's description still goes
// through tagValues.Get internally, which does its own checking when
// called via TagValueGet.
func (s *Security) TagGet(ctx context.Context, q store.Querier, paths []string, withDescriptions bool) (map[string]modelapi.TagEntry, error) {
	return s.tags.Get(ctx, q, paths, withDescriptions)
}
