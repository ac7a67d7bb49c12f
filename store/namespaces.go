package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"fluidinfo/models"
	"fluidinfo/permission"
)

// NamespaceRow is the insert payload for a new Namespace row.
type NamespaceRow struct {
	ID        uuid.UUID
	Path      string
	Name      string
	CreatorID uuid.UUID
	ParentID  *uuid.UUID
	ObjectID  uuid.UUID
}

// CreateNamespaces inserts each namespace row, one statement per row. It
// writes no permission rows; PutNamespacePermissions does that.
func CreateNamespaces(ctx context.Context, q Querier, rows []NamespaceRow) error {
	for _, r := range rows {
		if _, err := q.Exec(ctx, `
			INSERT INTO namespaces (id, path, name, creator_id, parent_id, object_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.Path, r.Name, r.CreatorID, r.ParentID, r.ObjectID); err != nil {
			return dupOrWrap(err, models.KindDuplicatePath, "namespace %q already exists", r.Path)
		}
	}
	return nil
}

// GetNamespacesByPath loads Namespace rows for the given paths, keyed by
// path. Missing paths are simply absent from the result.
func GetNamespacesByPath(ctx context.Context, q Querier, paths []string) (map[string]models.Namespace, error) {
	out := map[string]models.Namespace{}
	if len(paths) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT id, path, name, creator_id, parent_id, object_id, created_at
		FROM namespaces WHERE path = ANY($1)`, paths)
	if err != nil {
		return nil, wrapQuery(err, "loading namespaces")
	}
	defer rows.Close()
	for rows.Next() {
		var n models.Namespace
		if err := rows.Scan(&n.ID, &n.Path, &n.Name, &n.CreatorID, &n.ParentID, &n.ObjectID, &n.CreatedAt); err != nil {
			return nil, wrapQuery(err, "scanning namespace")
		}
		out[n.Path] = n
	}
	return out, rows.Err()
}

// NamespaceExists reports whether a namespace exists at path, against the
// pool. Implements permission.Source for callers outside a request
// transaction (e.g. indexsync); request-scoped checks should use
// TxSource instead.
func (s *Store) NamespaceExists(ctx context.Context, path string) (bool, error) {
	return NamespaceExists(ctx, s.Pool, path)
}

// NamespaceExists reports whether a namespace exists at path.
func NamespaceExists(ctx context.Context, q Querier, path string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM namespaces WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, wrapQuery(err, "checking namespace existence")
	}
	return exists, nil
}

// ChildNamespacePaths lists the immediate child namespace paths of the
// namespace whose ID is namespaceID.
func ChildNamespacePaths(ctx context.Context, q Querier, namespaceID uuid.UUID) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT path FROM namespaces WHERE parent_id = $1`, namespaceID)
	if err != nil {
		return nil, wrapQuery(err, "listing child namespaces")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, wrapQuery(err, "scanning child namespace path")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ChildTagPaths lists the tag paths directly under namespaceID.
func ChildTagPaths(ctx context.Context, q Querier, namespaceID uuid.UUID) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT path FROM tags WHERE namespace_id = $1`, namespaceID)
	if err != nil {
		return nil, wrapQuery(err, "listing child tags")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, wrapQuery(err, "scanning child tag path")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteNamespaces removes the namespace rows for paths. Caller (modelapi)
// is responsible for the NamespaceNotEmpty check before calling
// this; NamespacePermissions rows cascade via the FK on delete.
func DeleteNamespaces(ctx context.Context, q Querier, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `DELETE FROM namespaces WHERE path = ANY($1)`, paths)
	if err != nil {
		return wrapQuery(err, "deleting namespaces")
	}
	return nil
}

// NamespacePermissions implements permission.Source: loads the full
// permission Set for each existing namespace path, one round trip.
func (s *Store) NamespacePermissions(ctx context.Context, paths []string) (map[string]permission.Set, error) {
	return NamespacePermissions(ctx, s.Pool, paths)
}

// NamespacePermissions loads the full permission Set for each existing
// namespace path, one round trip, against any Querier (pool or
// in-flight transaction).
func NamespacePermissions(ctx context.Context, q Querier, paths []string) (map[string]permission.Set, error) {
	out := map[string]permission.Set{}
	if len(paths) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT n.path, p.operation, p.policy, p.exceptions
		FROM namespace_permissions p
		JOIN namespaces n ON n.id = p.namespace_id
		WHERE n.path = ANY($1)`, paths)
	if err != nil {
		return nil, wrapQuery(err, "loading namespace permissions")
	}
	defer rows.Close()
	for rows.Next() {
		var path, op string
		var policy int16
		var exceptions []uuid.UUID
		if err := rows.Scan(&path, &op, &policy, &exceptions); err != nil {
			return nil, wrapQuery(err, "scanning namespace permission")
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

// PutNamespacePermissions writes a complete permission Set for a
// namespace, replacing any existing rows (used on create and on
// PermissionAPI.set).
func PutNamespacePermissions(ctx context.Context, q Querier, namespaceID uuid.UUID, set permission.Set) error {
	for op, entry := range set {
		if _, err := q.Exec(ctx, `
			INSERT INTO namespace_permissions (namespace_id, operation, policy, exceptions)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (namespace_id, operation) DO UPDATE SET policy = $3, exceptions = $4`,
			namespaceID, string(op), int16(entry.Policy), stringsToUUIDs(entry.Exceptions)); err != nil {
			return wrapQuery(err, "writing namespace permission")
		}
	}
	return nil
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToUUIDs(ids []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// dupOrWrap translates a unique-violation into kind, and anything else
// into a generic wrapped error.
func dupOrWrap(err error, kind models.Kind, format string, args ...any) error {
	if isUniqueViolation(err) {
		return models.NewError(kind, format, args...)
	}
	return wrapQuery(err, format)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func wrapQuery(err error, context string) error {
	if err == nil {
		return nil
	}
	return models.Wrap(models.KindFeatureError, err, "%s", context)
}
