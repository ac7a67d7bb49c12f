package security

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/modelapi"
	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// UserCreate authorizes and delegates UserAPI.create: CREATE_USER is a
// pure role shortcut, granted only to USER_MANAGER and
// SUPERUSER.
func (s *Security) UserCreate(ctx context.Context, q store.Querier, user models.User, entries []modelapi.UserCreate) (map[string]uuid.UUID, error) {
	checks := []permission.Check{{Op: permission.CreateUser}}
	if err := s.authorize(ctx, user, checks); err != nil {
		return nil, err
	}
	return s.users.Create(ctx, q, entries)
}

// UserSet authorizes and delegates UserAPI.set: UPDATE_USER on each
// target username. A plain USER may update only their own account.
func (s *Security) UserSet(ctx context.Context, q store.Querier, user models.User, updates map[string]modelapi.UserUpdate) error {
	checks := make([]permission.Check, 0, len(updates))
	for username := range updates {
		checks = append(checks, permission.Check{Path: username, Op: permission.UpdateUser})
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	return s.users.Set(ctx, q, updates)
}

// UserDelete authorizes and delegates UserAPI.delete: DELETE_USER on
// each target.
func (s *Security) UserDelete(ctx context.Context, q store.Querier, user models.User, usernames []string) error {
	checks := make([]permission.Check, len(usernames))
	for i, username := range usernames {
		checks[i] = permission.Check{Path: username, Op: permission.DeleteUser}
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, q, usernames); err != nil {
		return err
	}
	for _, username := range usernames {
		s.cache.InvalidateRecentActivityForUser(ctx, username)
	}
	return nil
}

// UserGet delegates UserAPI.get unchecked: username, full name and role
// are public metadata, the same as a namespace's path.
func (s *Security) UserGet(ctx context.Context, q store.Querier, usernames []string) (map[string]models.User, error) {
	return s.users.Get(ctx, q, usernames)
}
