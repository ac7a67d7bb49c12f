package security

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// ObjectCreate authorizes and delegates ObjectAPI.create: allocating an
// object requires the global CREATE_OBJECT operation, denied for
// ANONYMOUS and granted for any real user.
func (s *Security) ObjectCreate(ctx context.Context, q store.Querier, user models.User, about *string) (uuid.UUID, error) {
	if err := s.authorize(ctx, user, []permission.Check{{Op: permission.CreateObject}}); err != nil {
		return uuid.UUID{}, err
	}
	if about != nil {
		// The cache may already know this about value, saving both the
		// store lookup and the create path entirely.
		if id, ok, err := s.cache.ResolveAbout(ctx, q, fpath.NormalizeAbout(*about)); err == nil && ok {
			return id, nil
		}
	}
	return s.objects.Create(ctx, q, user, about)
}

// ObjectGet resolves about-values to object IDs, serving single-value
// lookups through the `about:<value>` cache category. Resolution
// needs no permission: about values are public identifiers.
func (s *Security) ObjectGet(ctx context.Context, q store.Querier, aboutValues []string) (map[string]uuid.UUID, error) {
	if len(aboutValues) == 1 {
		normalized := fpath.NormalizeAbout(aboutValues[0])
		id, ok, err := s.cache.ResolveAbout(ctx, q, normalized)
		if err != nil {
			return nil, err
		}
		out := map[string]uuid.UUID{}
		if ok {
			out[normalized] = id
		}
		return out, nil
	}
	return s.objects.Get(ctx, q, aboutValues)
}

// ObjectTagPaths authorizes and delegates ObjectAPI.getTagsForObjects:
// the returned path lists are filtered down to paths the user may read,
// the same READ_TAG_VALUE filter TagValueGet applies.
func (s *Security) ObjectTagPaths(ctx context.Context, q store.Querier, user models.User, objectIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	raw, err := s.objects.GetTagsForObjects(ctx, q, objectIDs)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var checks []permission.Check
	for _, paths := range raw {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				checks = append(checks, permission.Check{Path: p, Op: permission.ReadTagValue})
			}
		}
	}
	if len(checks) == 0 {
		return raw, nil
	}
	denied, err := s.checker.Check(ctx, user, checks)
	if err != nil {
		return nil, err
	}
	deniedSet := map[string]bool{}
	for _, d := range denied {
		deniedSet[d.Path] = true
	}
	out := make(map[uuid.UUID][]string, len(raw))
	for id, paths := range raw {
		var readable []string
		for _, p := range paths {
			if !deniedSet[p] {
				readable = append(readable, p)
			}
		}
		out[id] = readable
	}
	return out, nil
}
