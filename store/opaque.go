package store

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
)

// PutOpaque inserts the content-addressed opaque value row if it does not
// already exist. A second
// TagValue pointing at the same SHA-256 content is a no-op here; only the
// link row is per-TagValue.
func PutOpaque(ctx context.Context, q Querier, row models.OpaqueValueRow) error {
	_, err := q.Exec(ctx, `
		INSERT INTO opaque_values (sha256, mime_type, size, content)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sha256) DO NOTHING`,
		row.SHA256, row.MimeType, row.Size, row.Content)
	return wrapQuery(err, "writing opaque value")
}

// LinkOpaque records that (objectID, tagID)'s TagValue content lives in
// the opaque_values row named by sha256. The link's
// own lifetime is the TagValue row's (FK cascade, schema.sql); deleting a
// TagValue drops its link automatically.
func LinkOpaque(ctx context.Context, q Querier, objectID, tagID uuid.UUID, sha256 string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO opaque_value_links (object_id, tag_id, sha256)
		VALUES ($1, $2, $3)`, objectID, tagID, sha256)
	return wrapQuery(err, "linking opaque value")
}

// DeleteOrphanedOpaque removes the opaque_values row for sha256 if no
// opaque_value_links row references it: content lives as long as its
// longest living link. Called after a
// TagValue delete whose value was opaque.
func DeleteOrphanedOpaque(ctx context.Context, q Querier, sha256 string) error {
	_, err := q.Exec(ctx, `
		DELETE FROM opaque_values
		WHERE sha256 = $1 AND NOT EXISTS (
			SELECT 1 FROM opaque_value_links WHERE opaque_value_links.sha256 = opaque_values.sha256
		)`, sha256)
	return wrapQuery(err, "deleting orphaned opaque value")
}

// GetOpaqueContent loads the stored body for sha256.
func GetOpaqueContent(ctx context.Context, q Querier, sha256 string) ([]byte, bool, error) {
	var content []byte
	err := q.QueryRow(ctx, `SELECT content FROM opaque_values WHERE sha256 = $1`, sha256).Scan(&content)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, wrapQuery(err, "loading opaque content")
	}
	return content, true, nil
}
