package security

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/modelapi"
	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// NamespaceCreate authorizes and delegates NamespaceAPI.create: each
// requested path needs CREATE_NAMESPACE, which the Checker itself
// resolves against the implicit-creation walk for paths that don't yet
// exist.
func (s *Security) NamespaceCreate(ctx context.Context, q store.Querier, user models.User, entries []modelapi.NamespaceCreate) (map[string]uuid.UUID, error) {
	checks := make([]permission.Check, len(entries))
	for i, e := range entries {
		checks[i] = permission.Check{Path: e.Path, Op: permission.CreateNamespace}
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return nil, err
	}
	return s.namespaces.Create(ctx, q, user, entries)
}

// NamespaceDelete authorizes and delegates NamespaceAPI.delete: each
// path needs DELETE_NAMESPACE. On success the deleted namespaces'
// permission entries and their objects' recent-activity entries are
// dropped from the cache.
func (s *Security) NamespaceDelete(ctx context.Context, q store.Querier, user models.User, paths []string) error {
	checks := make([]permission.Check, len(paths))
	for i, p := range paths {
		checks[i] = permission.Check{Path: p, Op: permission.DeleteNamespace}
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	rows, err := store.GetNamespacesByPath(ctx, q, paths)
	if err != nil {
		return err
	}
	if err := s.namespaces.Delete(ctx, q, paths); err != nil {
		return err
	}
	for _, p := range paths {
		s.cache.InvalidateNamespacePermission(ctx, p)
		if ns, ok := rows[p]; ok {
			s.cache.InvalidateRecentActivityForObject(ctx, ns.ObjectID)
		}
	}
	return nil
}

// NamespaceSet authorizes and delegates NamespaceAPI.set: each path
// needs UPDATE_NAMESPACE.
func (s *Security) NamespaceSet(ctx context.Context, q store.Querier, user models.User, descriptions map[string]string) error {
	checks := make([]permission.Check, 0, len(descriptions))
	for p := range descriptions {
		checks = append(checks, permission.Check{Path: p, Op: permission.UpdateNamespace})
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	return s.namespaces.Set(ctx, q, user, descriptions)
}

// NamespaceGet authorizes and delegates NamespaceAPI.get: each path
// needs LIST_NAMESPACE.
func (s *Security) NamespaceGet(ctx context.Context, q store.Querier, user models.User, paths []string, withDescriptions, withNamespaces, withTags bool) (map[string]modelapi.NamespaceEntry, error) {
	checks := make([]permission.Check, len(paths))
	for i, p := range paths {
		checks[i] = permission.Check{Path: p, Op: permission.ListNamespace}
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return nil, err
	}
	return s.namespaces.Get(ctx, q, paths, withDescriptions, withNamespaces, withTags)
}
