package security

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/store"
)

// RecentActivityForObjects lists recent tag-value activity per object.
// The single-key case is served through the `recentactivity:object:`
// cache category; a multi-key call bypasses the cache entirely.
func (s *Security) RecentActivityForObjects(ctx context.Context, q store.Querier, objectIDs []uuid.UUID) (map[uuid.UUID][]store.Activity, error) {
	if len(objectIDs) == 1 {
		activity, err := s.cache.RecentActivityForObject(ctx, q, objectIDs[0])
		if err != nil {
			return nil, err
		}
		return map[uuid.UUID][]store.Activity{objectIDs[0]: activity}, nil
	}
	return s.activity.GetForObjects(ctx, q, objectIDs)
}

// RecentActivityForUsers lists recent tag-value activity per username,
// cached only for the single-key case.
func (s *Security) RecentActivityForUsers(ctx context.Context, q store.Querier, usernames []string) (map[string][]store.Activity, error) {
	if len(usernames) == 1 {
		activity, err := s.cache.RecentActivityForUser(ctx, q, usernames[0])
		if err != nil {
			return nil, err
		}
		return map[string][]store.Activity{usernames[0]: activity}, nil
	}
	return s.activity.GetForUsers(ctx, q, usernames)
}
