package store

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
)

// TagValueRow is the insert payload for TagValueAPI.set: a
// (objectID, tagID) pair plus its typed value and creator.
type TagValueRow struct {
	ObjectID  uuid.UUID
	TagID     uuid.UUID
	Value     models.Value
	CreatorID uuid.UUID
}

// TagValueKey names a single (objectID, tagID) pair, used by delete and
// by row addressing within get results.
type TagValueKey struct {
	ObjectID uuid.UUID
	TagID    uuid.UUID
}

// SetTagValues deletes any existing row for each (objectID, tagID) pair
// and inserts the replacement. Each row is one statement; callers batch by
// wrapping the call in a single transaction.
func SetTagValues(ctx context.Context, q Querier, rows []TagValueRow) error {
	for _, r := range rows {
		if _, err := q.Exec(ctx, `DELETE FROM tag_values WHERE object_id = $1 AND tag_id = $2`, r.ObjectID, r.TagID); err != nil {
			return wrapQuery(err, "clearing existing tag value")
		}
		var opSHA, opMime *string
		var opSize *int64
		if r.Value.Kind == models.KindOpaque {
			sha, mime, size := r.Value.Opaque.SHA256, r.Value.Opaque.MimeType, r.Value.Opaque.Size
			opSHA, opMime, opSize = &sha, &mime, &size
		}
		_, err := q.Exec(ctx, `
			INSERT INTO tag_values (object_id, tag_id, value_kind, value_bool, value_int, value_float,
				value_str, value_set, opaque_sha256, opaque_mimetype, opaque_size, creator_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			r.ObjectID, r.TagID, int16(r.Value.Kind),
			nullableBool(r.Value), nullableInt(r.Value), nullableFloat(r.Value),
			nullableStr(r.Value), nullableSet(r.Value), opSHA, opMime, opSize, r.CreatorID)
		if err != nil {
			return dupOrWrap(err, models.KindFeatureError, "writing tag value")
		}
	}
	return nil
}

func nullableBool(v models.Value) *bool {
	if v.Kind != models.KindBool {
		return nil
	}
	b := v.Bool
	return &b
}

func nullableInt(v models.Value) *int64 {
	if v.Kind != models.KindInt {
		return nil
	}
	i := v.Int
	return &i
}

func nullableFloat(v models.Value) *float64 {
	if v.Kind != models.KindFloat {
		return nil
	}
	f := v.Float
	return &f
}

func nullableStr(v models.Value) *string {
	if v.Kind != models.KindString {
		return nil
	}
	s := v.Str
	return &s
}

func nullableSet(v models.Value) []string {
	if v.Kind != models.KindSet {
		return nil
	}
	return v.Set
}

// GetTagValues loads rows for the given object IDs, optionally restricted
// to paths; result is keyed objectID -> path -> TagValue.
func GetTagValues(ctx context.Context, q Querier, objectIDs []uuid.UUID, paths []string) (map[uuid.UUID]map[string]models.TagValue, error) {
	out := map[uuid.UUID]map[string]models.TagValue{}
	if len(objectIDs) == 0 {
		return out, nil
	}
	var rows interface {
		Next() bool
		Scan(dest ...any) error
		Err() error
		Close()
	}
	var err error
	if len(paths) == 0 {
		rows, err = q.Query(ctx, `
			SELECT tv.object_id, t.path, tv.tag_id, tv.value_kind, tv.value_bool, tv.value_int,
				tv.value_float, tv.value_str, tv.value_set, tv.opaque_sha256, tv.opaque_mimetype,
				tv.opaque_size, tv.creator_id, tv.created_at
			FROM tag_values tv JOIN tags t ON t.id = tv.tag_id
			WHERE tv.object_id = ANY($1)`, objectIDs)
	} else {
		rows, err = q.Query(ctx, `
			SELECT tv.object_id, t.path, tv.tag_id, tv.value_kind, tv.value_bool, tv.value_int,
				tv.value_float, tv.value_str, tv.value_set, tv.opaque_sha256, tv.opaque_mimetype,
				tv.opaque_size, tv.creator_id, tv.created_at
			FROM tag_values tv JOIN tags t ON t.id = tv.tag_id
			WHERE tv.object_id = ANY($1) AND t.path = ANY($2)`, objectIDs, paths)
	}
	if err != nil {
		return nil, wrapQuery(err, "loading tag values")
	}
	defer rows.Close()
	for rows.Next() {
		var objID, tagID, creatorID uuid.UUID
		var path string
		var kind int16
		var vb *bool
		var vi *int64
		var vf *float64
		var vs *string
		var set []string
		var opSHA, opMime *string
		var opSize *int64
		var createdAt = models.TagValue{}.CreatedAt
		if err := rows.Scan(&objID, &path, &tagID, &kind, &vb, &vi, &vf, &vs, &set, &opSHA, &opMime, &opSize, &creatorID, &createdAt); err != nil {
			return nil, wrapQuery(err, "scanning tag value")
		}
		tv := models.TagValue{
			ObjectID:  objID,
			TagID:     tagID,
			CreatorID: creatorID,
			CreatedAt: createdAt,
			Value:     decodeValue(models.ValueKind(kind), vb, vi, vf, vs, set, opSHA, opMime, opSize),
		}
		if _, ok := out[objID]; !ok {
			out[objID] = map[string]models.TagValue{}
		}
		out[objID][path] = tv
	}
	return out, rows.Err()
}

func decodeValue(kind models.ValueKind, vb *bool, vi *int64, vf *float64, vs *string, set []string, opSHA, opMime *string, opSize *int64) models.Value {
	switch kind {
	case models.KindBool:
		return models.BoolValue(derefBool(vb))
	case models.KindInt:
		return models.IntValue(derefInt(vi))
	case models.KindFloat:
		return models.FloatValue(derefFloat(vf))
	case models.KindString:
		return models.StringValue(derefStr(vs))
	case models.KindSet:
		return models.SetValue(set)
	case models.KindOpaque:
		return models.OpaqueValueOf(models.Opaque{MimeType: derefStr(opMime), Size: derefInt(opSize), SHA256: derefStr(opSHA)})
	default:
		return models.NullValue()
	}
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
func derefInt(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// DeleteTagValues removes the named (objectID, tagID) rows; a no-op for
// pairs that do not exist.
func DeleteTagValues(ctx context.Context, q Querier, keys []TagValueKey) error {
	for _, k := range keys {
		if _, err := q.Exec(ctx, `DELETE FROM tag_values WHERE object_id = $1 AND tag_id = $2`, k.ObjectID, k.TagID); err != nil {
			return wrapQuery(err, "deleting tag value")
		}
	}
	return nil
}

// PathsForObjects returns, for each object ID, the set of tag paths
// present on it, used by TagValueAPI.Get when the caller omits paths.
func PathsForObjects(ctx context.Context, q Querier, objectIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := map[uuid.UUID][]string{}
	if len(objectIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT tv.object_id, t.path
		FROM tag_values tv JOIN tags t ON t.id = tv.tag_id
		WHERE tv.object_id = ANY($1)`, objectIDs)
	if err != nil {
		return nil, wrapQuery(err, "loading object paths")
	}
	defer rows.Close()
	for rows.Next() {
		var objID uuid.UUID
		var path string
		if err := rows.Scan(&objID, &path); err != nil {
			return nil, wrapQuery(err, "scanning object path")
		}
		out[objID] = append(out[objID], path)
	}
	return out, rows.Err()
}

// PathIsNumeric reports whether every stored value for the tag at path is
// an int or a float. Range queries (LT/LTE/GT/GTE) are only executable
// against uniformly numeric tags; the search layer raises SearchError
// otherwise.
func PathIsNumeric(ctx context.Context, q Querier, path string) (bool, error) {
	var numeric bool
	err := q.QueryRow(ctx, `
		SELECT COALESCE(bool_and(tv.value_kind IN ($2, $3)), true)
		FROM tag_values tv JOIN tags t ON t.id = tv.tag_id
		WHERE t.path = $1`, path, int16(models.KindInt), int16(models.KindFloat)).Scan(&numeric)
	if err != nil {
		return false, wrapQuery(err, "checking numeric path")
	}
	return numeric, nil
}

// ObjectIDsWithPath resolves `has <path>`: every object ID carrying
// any value for the tag at path, capped at limit.
func ObjectIDsWithPath(ctx context.Context, q Querier, tagID uuid.UUID, limit int) ([]uuid.UUID, bool, error) {
	rows, err := q.Query(ctx, `SELECT object_id FROM tag_values WHERE tag_id = $1 LIMIT $2`, tagID, limit+1)
	if err != nil {
		return nil, false, wrapQuery(err, "listing objects with path")
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, false, wrapQuery(err, "scanning object id")
		}
		out = append(out, id)
	}
	truncated := len(out) > limit
	if truncated {
		out = out[:limit]
	}
	return out, truncated, rows.Err()
}
