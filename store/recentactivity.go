package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fluidinfo/models"
)

// Activity is one entry in a recent-activity listing,
// backing the recent-activity
// model: the most-recently-set tag values for an object or user.
type Activity struct {
	ObjectID  uuid.UUID
	Path      string
	Value     models.Value
	CreatorID uuid.UUID
	CreatedAt time.Time
}

// RecentActivityForObject returns the limit most-recently-set tag values
// on objectID, newest first.
func RecentActivityForObject(ctx context.Context, q Querier, objectID uuid.UUID, limit int) ([]Activity, error) {
	rows, err := q.Query(ctx, `
		SELECT tv.object_id, t.path, tv.value_kind, tv.value_bool, tv.value_int, tv.value_float,
			tv.value_str, tv.value_set, tv.opaque_sha256, tv.opaque_mimetype, tv.opaque_size,
			tv.creator_id, tv.created_at
		FROM tag_values tv JOIN tags t ON t.id = tv.tag_id
		WHERE tv.object_id = $1
		ORDER BY tv.created_at DESC LIMIT $2`, objectID, limit)
	if err != nil {
		return nil, wrapQuery(err, "loading recent activity for object")
	}
	return scanActivity(rows)
}

// RecentActivityForUser returns the limit most-recently-set tag values
// created by username, newest first.
func RecentActivityForUser(ctx context.Context, q Querier, username string, limit int) ([]Activity, error) {
	rows, err := q.Query(ctx, `
		SELECT tv.object_id, t.path, tv.value_kind, tv.value_bool, tv.value_int, tv.value_float,
			tv.value_str, tv.value_set, tv.opaque_sha256, tv.opaque_mimetype, tv.opaque_size,
			tv.creator_id, tv.created_at
		FROM tag_values tv
		JOIN tags t ON t.id = tv.tag_id
		JOIN users u ON u.id = tv.creator_id
		WHERE u.username = $1
		ORDER BY tv.created_at DESC LIMIT $2`, username, limit)
	if err != nil {
		return nil, wrapQuery(err, "loading recent activity for user")
	}
	return scanActivity(rows)
}

func scanActivity(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]Activity, error) {
	defer rows.Close()
	var out []Activity
	for rows.Next() {
		var a Activity
		var objID uuid.UUID
		var path string
		var kind int16
		var vb *bool
		var vi *int64
		var vf *float64
		var vs *string
		var set []string
		var opSHA, opMime *string
		var opSize *int64
		var creatorID uuid.UUID
		var createdAt time.Time
		if err := rows.Scan(&objID, &path, &kind, &vb, &vi, &vf, &vs, &set, &opSHA, &opMime, &opSize, &creatorID, &createdAt); err != nil {
			return nil, wrapQuery(err, "scanning recent activity row")
		}
		a.ObjectID = objID
		a.Path = path
		a.CreatorID = creatorID
		a.CreatedAt = createdAt
		a.Value = decodeValue(models.ValueKind(kind), vb, vi, vf, vs, set, opSHA, opMime, opSize)
		out = append(out, a)
	}
	return out, rows.Err()
}
