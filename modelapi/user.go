package modelapi

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fluidinfo/logger"
	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/store"
)

// UserAPI is the user lifecycle: every user owns a
// root Namespace whose path equals the username, and is itself a
// Fluidinfo object whose fluiddb/about value is "@<username>".
type UserAPI struct {
	store      *store.Store
	namespaces *NamespaceAPI
	tagValues  *TagValueAPI
}

// NewUserAPI builds a UserAPI.
func NewUserAPI(s *store.Store, namespaces *NamespaceAPI, tagValues *TagValueAPI) *UserAPI {
	return &UserAPI{store: s, namespaces: namespaces, tagValues: tagValues}
}

// UserCreate is one entry of a batched Create call.
type UserCreate struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     models.Role
}

// Create creates each user: the user row, the "@<username>" about value
// on a fresh object, and the user's root namespace (created as the new
// user, so its default permissions name them as creator). Returns each
// new user's object ID keyed by username.
func (a *UserAPI) Create(ctx context.Context, q store.Querier, entries []UserCreate) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID, len(entries))
	for _, e := range entries {
		if err := fpath.ValidateUsername(e.Username); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(e.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.Wrap(models.KindFeatureError, err, "hashing password for %q", e.Username)
		}
		u := models.User{
			ID:           uuid.New(),
			Username:     e.Username,
			PasswordHash: string(hash),
			FullName:     e.FullName,
			Email:        e.Email,
			Role:         e.Role,
			ObjectID:     uuid.New(),
		}

		// The user's object may already exist if the username was used
		// and deleted before: re-use the object behind "@<username>".
		about := fpath.AboutForUser(e.Username)
		objID, err := ensureObjectForAbout(ctx, q, about)
		if err != nil {
			return nil, err
		}
		u.ObjectID = objID

		if err := store.CreateUser(ctx, q, u); err != nil {
			return nil, err
		}
		values := ObjectValues{TagAbout: models.StringValue(about)}
		if err := a.tagValues.Set(ctx, q, u, map[uuid.UUID]ObjectValues{u.ObjectID: values}); err != nil {
			return nil, err
		}
		if _, err := a.namespaces.Create(ctx, q, u, []NamespaceCreate{
			{Path: e.Username, Description: "Namespace for user " + e.Username},
		}); err != nil {
			return nil, err
		}
		out[e.Username] = u.ObjectID
		logger.Info("modelapi: created user %q", e.Username)
	}
	return out, nil
}

// UserUpdate is one entry of a batched Set call. Zero-value fields are
// left unchanged; Password, when non-empty, is re-hashed.
type UserUpdate struct {
	Password string
	FullName string
	Email    string
	Role     *models.Role
}

// Set updates each named user's mutable fields.
func (a *UserAPI) Set(ctx context.Context, q store.Querier, updates map[string]UserUpdate) error {
	for username, upd := range updates {
		u, ok, err := store.GetUserByUsername(ctx, q, username)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewError(models.KindUnknownUser, "unknown user %q", username)
		}
		if upd.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.DefaultCost)
			if err != nil {
				return models.Wrap(models.KindFeatureError, err, "hashing password for %q", username)
			}
			u.PasswordHash = string(hash)
		}
		if upd.FullName != "" {
			u.FullName = upd.FullName
		}
		if upd.Email != "" {
			u.Email = upd.Email
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if err := store.UpdateUser(ctx, q, u); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes each named user and their root namespace. The root
// namespace delete refuses while it still has children
// (NamespaceNotEmpty), which in turn protects the user row: a user with
// live namespaces or tags cannot be removed. The "@<username>" about
// value stays on the object, so re-creating the username re-uses it.
func (a *UserAPI) Delete(ctx context.Context, q store.Querier, usernames []string) error {
	for _, username := range usernames {
		_, ok, err := store.GetUserByUsername(ctx, q, username)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewError(models.KindUnknownUser, "unknown user %q", username)
		}
		exists, err := store.NamespaceExists(ctx, q, username)
		if err != nil {
			return err
		}
		if exists {
			if err := a.namespaces.Delete(ctx, q, []string{username}); err != nil {
				return err
			}
		}
		if err := store.DeleteUser(ctx, q, username); err != nil {
			return err
		}
		logger.Info("modelapi: deleted user %q", username)
	}
	return nil
}

// Get loads each named user. Missing usernames are absent from the
// result, not an error.
func (a *UserAPI) Get(ctx context.Context, q store.Querier, usernames []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(usernames))
	for _, username := range usernames {
		u, ok, err := store.GetUserByUsername(ctx, q, username)
		if err != nil {
			return nil, err
		}
		if ok {
			out[username] = u
		}
	}
	return out, nil
}

// VerifyPassword checks a plaintext password against a user's stored
// hash, for the (out-of-scope) HTTP frontend's authentication step.
func VerifyPassword(u models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
