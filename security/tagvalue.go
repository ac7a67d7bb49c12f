package security

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/modelapi"
	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// TagValueSet authorizes and delegates TagValueAPI.set: every distinct
// tag path referenced across the batch needs WRITE_TAG_VALUE.
func (s *Security) TagValueSet(ctx context.Context, q store.Querier, user models.User, values map[uuid.UUID]modelapi.ObjectValues) error {
	paths := distinctObjectValuePaths(values)
	checks := make([]permission.Check, len(paths))
	for i, p := range paths {
		checks[i] = permission.Check{Path: p, Op: permission.WriteTagValue}
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	if err := s.tagValues.Set(ctx, q, user, values); err != nil {
		return err
	}
	for objectID := range values {
		s.cache.InvalidateRecentActivityForObject(ctx, objectID)
	}
	s.cache.InvalidateRecentActivityForUser(ctx, user.Username)
	return nil
}

// TagValueDelete authorizes and delegates TagValueAPI.delete: every
// distinct path needs DELETE_TAG_VALUE.
func (s *Security) TagValueDelete(ctx context.Context, q store.Querier, user models.User, keys []modelapi.TagValueKey) error {
	seen := map[string]bool{}
	var checks []permission.Check
	for _, k := range keys {
		if seen[k.Path] {
			continue
		}
		seen[k.Path] = true
		checks = append(checks, permission.Check{Path: k.Path, Op: permission.DeleteTagValue})
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	if err := s.tagValues.Delete(ctx, q, keys); err != nil {
		return err
	}
	for _, k := range keys {
		s.cache.InvalidateRecentActivityForObject(ctx, k.ObjectID)
	}
	s.cache.InvalidateRecentActivityForUser(ctx, user.Username)
	return nil
}

// TagValueGet authorizes and delegates TagValueAPI.get. The two request
// shapes are checked differently: explicitly requested paths each need
// READ_TAG_VALUE up front, and any denial is a PermissionDenied error;
// when paths is omitted the full path set present on the objects is
// fetched first, then quietly filtered down to what the user may read.
// fluiddb/id always passes: the Checker special-cases it.
func (s *Security) TagValueGet(ctx context.Context, q store.Querier, user models.User, objectIDs []uuid.UUID, paths []string) (map[uuid.UUID]map[string]models.Value, error) {
	if paths != nil {
		seen := map[string]bool{}
		var checks []permission.Check
		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true
			checks = append(checks, permission.Check{Path: p, Op: permission.ReadTagValue})
		}
		if err := s.authorize(ctx, user, checks); err != nil {
			return nil, err
		}
		return s.tagValues.Get(ctx, q, objectIDs, paths)
	}

	raw, err := s.tagValues.Get(ctx, q, objectIDs, nil)
	if err != nil {
		return nil, err
	}
	readable := map[string]bool{}
	seen := map[string]bool{}
	var checks []permission.Check
	for _, byPath := range raw {
		for p := range byPath {
			if seen[p] {
				continue
			}
			seen[p] = true
			checks = append(checks, permission.Check{Path: p, Op: permission.ReadTagValue})
		}
	}
	if len(checks) > 0 {
		denied, err := s.checker.Check(ctx, user, checks)
		if err != nil {
			return nil, err
		}
		deniedSet := map[string]bool{}
		for _, d := range denied {
			deniedSet[d.Path] = true
		}
		for p := range seen {
			readable[p] = !deniedSet[p]
		}
	}

	out := make(map[uuid.UUID]map[string]models.Value, len(raw))
	for objID, byPath := range raw {
		filtered := map[string]models.Value{}
		for p, v := range byPath {
			if readable[p] {
				filtered[p] = v
			}
		}
		out[objID] = filtered
	}
	return out, nil
}

func distinctObjectValuePaths(values map[uuid.UUID]modelapi.ObjectValues) []string {
	seen := map[string]bool{}
	var out []string
	for _, ov := range values {
		for p := range ov {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
