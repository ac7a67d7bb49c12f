package store

import (
	"context"

	"github.com/google/uuid"
)

// AppendDirty appends one dirty_objects row per object ID. The log is append-only and never deduplicated here;
// the index-sync job collapses duplicates when it reads unindexed rows.
func AppendDirty(ctx context.Context, q Querier, objectIDs []uuid.UUID) error {
	for _, id := range objectIDs {
		if _, err := q.Exec(ctx, `INSERT INTO dirty_objects (object_id) VALUES ($1)`, id); err != nil {
			return wrapQuery(err, "appending dirty object")
		}
	}
	return nil
}

// GetDirty returns up to limit distinct object IDs with an unindexed
// dirty_objects row, for the index-sync job's delta import.
func GetDirty(ctx context.Context, q Querier, limit int) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, `
		SELECT DISTINCT object_id FROM dirty_objects WHERE NOT indexed LIMIT $1`, limit)
	if err != nil {
		return nil, wrapQuery(err, "loading dirty objects")
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapQuery(err, "scanning dirty object")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// MarkIndexed flags the dirty_objects rows for objectIDs as indexed
// without deleting them, so the log can be replayed.
func MarkIndexed(ctx context.Context, q Querier, objectIDs []uuid.UUID) error {
	if len(objectIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `UPDATE dirty_objects SET indexed = true WHERE object_id = ANY($1) AND NOT indexed`, objectIDs)
	return wrapQuery(err, "marking dirty objects indexed")
}

// ObjectPathValue is one row of the get_objects(clean) result.
type ObjectPathValue struct {
	ObjectID      uuid.UUID
	PathValuePair string
}

// GetObjects calls the get_objects(clean) server-side function: every
// object's (path, value) pairs for a clean rebuild, or only dirty
// objects' pairs for a delta. The index-sync job re-derives
// typed field values from store.GetTagValues for the returned object IDs
// rather than parsing PathValuePair, which only needs to group rows by
// object.
func GetObjects(ctx context.Context, q Querier, clean bool) ([]ObjectPathValue, error) {
	rows, err := q.Query(ctx, `SELECT object_id, path_value_pair FROM get_objects($1)`, clean)
	if err != nil {
		return nil, wrapQuery(err, "calling get_objects")
	}
	defer rows.Close()
	var out []ObjectPathValue
	for rows.Next() {
		var r ObjectPathValue
		if err := rows.Scan(&r.ObjectID, &r.PathValuePair); err != nil {
			return nil, wrapQuery(err, "scanning get_objects row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistinctObjectIDs collapses a GetObjects result into its distinct
// object IDs, the unit the index-sync job actually re-indexes.
func DistinctObjectIDs(rows []ObjectPathValue) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, r := range rows {
		if !seen[r.ObjectID] {
			seen[r.ObjectID] = true
			out = append(out, r.ObjectID)
		}
	}
	return out
}
