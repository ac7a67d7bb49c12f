package modelapi

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
	"fluidinfo/store"
)

// RecentActivityAPI implements the recent-activity
// feature:
// listing the most recently set tag values for an object or a user.
type RecentActivityAPI struct {
	store *store.Store
}

// NewRecentActivityAPI builds a RecentActivityAPI.
func NewRecentActivityAPI(s *store.Store) *RecentActivityAPI {
	return &RecentActivityAPI{store: s}
}

// defaultActivityLimit bounds an unindexed, unpaginated listing query.
const defaultActivityLimit = 100

// GetForObjects returns the most recently set tag values for each
// objectID, newest first, keyed by object ID. The single-key case is
// what the `recentactivity:object:<uuid>` cache key fronts; a
// multi-key call bypasses that cache entirely and is answered
// directly from storage here.
func (a *RecentActivityAPI) GetForObjects(ctx context.Context, q store.Querier, objectIDs []uuid.UUID) (map[uuid.UUID][]store.Activity, error) {
	out := make(map[uuid.UUID][]store.Activity, len(objectIDs))
	for _, id := range objectIDs {
		activity, err := store.RecentActivityForObject(ctx, q, id, defaultActivityLimit)
		if err != nil {
			return nil, err
		}
		out[id] = activity
	}
	return out, nil
}

// GetForUsers returns the most recently set tag values created by each
// username, newest first, keyed by username.
func (a *RecentActivityAPI) GetForUsers(ctx context.Context, q store.Querier, usernames []string) (map[string][]store.Activity, error) {
	out := make(map[string][]store.Activity, len(usernames))
	for _, username := range usernames {
		exists, err := store.UserExists(ctx, q, username)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NewError(models.KindUnknownUser, "unknown user %q", username)
		}
		activity, err := store.RecentActivityForUser(ctx, q, username, defaultActivityLimit)
		if err != nil {
			return nil, err
		}
		out[username] = activity
	}
	return out, nil
}
