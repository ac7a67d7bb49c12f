package store

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
	"fluidinfo/permission"
)

// TagRow is the insert payload for a new Tag row.
type TagRow struct {
	ID          uuid.UUID
	Path        string
	Name        string
	NamespaceID uuid.UUID
	CreatorID   uuid.UUID
	ObjectID    uuid.UUID
}

// CreateTags inserts each row in one round trip each.
func CreateTags(ctx context.Context, q Querier, rows []TagRow) error {
	for _, r := range rows {
		if _, err := q.Exec(ctx, `
			INSERT INTO tags (id, path, name, namespace_id, creator_id, object_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.Path, r.Name, r.NamespaceID, r.CreatorID, r.ObjectID); err != nil {
			return dupOrWrap(err, models.KindDuplicatePath, "tag %q already exists", r.Path)
		}
	}
	return nil
}

// GetTagsByPath loads Tag rows for the given paths, keyed by path.
func GetTagsByPath(ctx context.Context, q Querier, paths []string) (map[string]models.Tag, error) {
	out := map[string]models.Tag{}
	if len(paths) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT id, path, name, namespace_id, creator_id, object_id, created_at
		FROM tags WHERE path = ANY($1)`, paths)
	if err != nil {
		return nil, wrapQuery(err, "loading tags")
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Path, &t.Name, &t.NamespaceID, &t.CreatorID, &t.ObjectID, &t.CreatedAt); err != nil {
			return nil, wrapQuery(err, "scanning tag")
		}
		out[t.Path] = t
	}
	return out, rows.Err()
}

// TagExists reports whether a tag exists at path, against the pool.
// Implements permission.Source for callers outside a request
// transaction; request-scoped checks should use TxSource instead.
func (s *Store) TagExists(ctx context.Context, path string) (bool, error) {
	return TagExists(ctx, s.Pool, path)
}

// TagExists reports whether a tag exists at path.
func TagExists(ctx context.Context, q Querier, path string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tags WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, wrapQuery(err, "checking tag existence")
	}
	return exists, nil
}

// DeleteTags removes the tag rows for paths; tag_permissions, tag_values
// and opaque_value_links cascade via FK per schema.
func DeleteTags(ctx context.Context, q Querier, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `DELETE FROM tags WHERE path = ANY($1)`, paths)
	if err != nil {
		return wrapQuery(err, "deleting tags")
	}
	return nil
}

// TagPermissions implements permission.Source: loads the full permission
// Set for each existing tag path, one round trip.
func (s *Store) TagPermissions(ctx context.Context, paths []string) (map[string]permission.Set, error) {
	return TagPermissions(ctx, s.Pool, paths)
}

// TagPermissions loads the full permission Set for each existing tag
// path, one round trip, against any Querier (pool or in-flight
// transaction).
func TagPermissions(ctx context.Context, q Querier, paths []string) (map[string]permission.Set, error) {
	out := map[string]permission.Set{}
	if len(paths) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT t.path, p.operation, p.policy, p.exceptions
		FROM tag_permissions p
		JOIN tags t ON t.id = p.tag_id
		WHERE t.path = ANY($1)`, paths)
	if err != nil {
		return nil, wrapQuery(err, "loading tag permissions")
	}
	defer rows.Close()
	for rows.Next() {
		var path, op string
		var policy int16
		var exceptions []uuid.UUID
		if err := rows.Scan(&path, &op, &policy, &exceptions); err != nil {
			return nil, wrapQuery(err, "scanning tag permission")
		}
		set, ok := out[path]
		if !ok {
			set = permission.Set{}
			out[path] = set
		}
		set[permission.Operation(op)] = permission.Entry{
			Policy:     models.Policy(policy),
			Exceptions: uuidsToStrings(exceptions),
		}
	}
	return out, rows.Err()
}

// PutTagPermissions writes a complete permission Set for a tag, replacing
// any existing rows.
func PutTagPermissions(ctx context.Context, q Querier, tagID uuid.UUID, set permission.Set) error {
	for op, entry := range set {
		if _, err := q.Exec(ctx, `
			INSERT INTO tag_permissions (tag_id, operation, policy, exceptions)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tag_id, operation) DO UPDATE SET policy = $3, exceptions = $4`,
			tagID, string(op), int16(entry.Policy), stringsToUUIDs(entry.Exceptions)); err != nil {
			return wrapQuery(err, "writing tag permission")
		}
	}
	return nil
}

// PutOneNamespacePermission / PutOneTagPermission update a single
// (path, operation) entry, used by PermissionAPI.set which
// operates on one operation at a time rather than a whole Set.
func PutOneNamespacePermission(ctx context.Context, q Querier, namespaceID uuid.UUID, op permission.Operation, entry permission.Entry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO namespace_permissions (namespace_id, operation, policy, exceptions)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace_id, operation) DO UPDATE SET policy = $3, exceptions = $4`,
		namespaceID, string(op), int16(entry.Policy), stringsToUUIDs(entry.Exceptions))
	return wrapQuery(err, "writing namespace permission")
}

func PutOneTagPermission(ctx context.Context, q Querier, tagID uuid.UUID, op permission.Operation, entry permission.Entry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO tag_permissions (tag_id, operation, policy, exceptions)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tag_id, operation) DO UPDATE SET policy = $3, exceptions = $4`,
		tagID, string(op), int16(entry.Policy), stringsToUUIDs(entry.Exceptions))
	return wrapQuery(err, "writing tag permission")
}
