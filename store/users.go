package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fluidinfo/models"
)

// CreateUser inserts a new User row.
func CreateUser(ctx context.Context, q Querier, u models.User) error {
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, full_name, email, role, object_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.PasswordHash, u.FullName, u.Email, int16(u.Role), u.ObjectID)
	return dupOrWrap(err, models.KindDuplicatePath, "username %q already exists", u.Username)
}

// GetUserByUsername loads a single user, returning ok=false if absent.
func GetUserByUsername(ctx context.Context, q Querier, username string) (models.User, bool, error) {
	var u models.User
	var role int16
	err := q.QueryRow(ctx, `
		SELECT id, username, password_hash, full_name, email, role, object_id, created_at
		FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &role, &u.ObjectID, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return models.User{}, false, nil
		}
		return models.User{}, false, wrapQuery(err, "loading user")
	}
	u.Role = models.Role(role)
	return u, true, nil
}

// UsersByID implements permission.Source: loads users for exception-list
// validation, keyed by ID string (so the permission package can stay
// storage-agnostic about ID representation).
func (s *Store) UsersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	return UsersByID(ctx, s.Pool, ids)
}

// UsersByID loads users for exception-membership validation, keyed by ID
// string, against any Querier (pool or in-flight transaction).
func UsersByID(ctx context.Context, q Querier, ids []string) (map[string]models.User, error) {
	out := map[string]models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			parsed = append(parsed, u)
		}
	}
	if len(parsed) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT id, username, password_hash, full_name, email, role, object_id, created_at
		FROM users WHERE id = ANY($1)`, parsed)
	if err != nil {
		return nil, wrapQuery(err, "loading users by id")
	}
	defer rows.Close()
	for rows.Next() {
		var u models.User
		var role int16
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &role, &u.ObjectID, &u.CreatedAt); err != nil {
			return nil, wrapQuery(err, "scanning user")
		}
		u.Role = models.Role(role)
		out[u.ID.String()] = u
	}
	return out, rows.Err()
}

// UserExists reports whether username names an existing user.
func UserExists(ctx context.Context, q Querier, username string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, wrapQuery(err, "checking user existence")
	}
	return exists, nil
}

// UpdateUser overwrites the mutable fields of an existing user row.
// Username and object linkage are immutable once created.
func UpdateUser(ctx context.Context, q Querier, u models.User) error {
	tag, err := q.Exec(ctx, `
		UPDATE users SET password_hash = $2, full_name = $3, email = $4, role = $5
		WHERE username = $1`,
		u.Username, u.PasswordHash, u.FullName, u.Email, int16(u.Role))
	if err != nil {
		return wrapQuery(err, "updating user")
	}
	if tag.RowsAffected() == 0 {
		return models.NewError(models.KindUnknownUser, "unknown user %q", u.Username)
	}
	return nil
}

// DeleteUser removes a user row.
func DeleteUser(ctx context.Context, q Querier, username string) error {
	_, err := q.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	return wrapQuery(err, "deleting user")
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
