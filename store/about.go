package store

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
)

// GetObjectByAbout resolves an about-value to its object ID, the
// `fluiddb/about = "x"` fast path.
func GetObjectByAbout(ctx context.Context, q Querier, about string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx, `SELECT object_id FROM about_tag_values WHERE value = $1`, about).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return uuid.UUID{}, false, nil
		}
		return uuid.UUID{}, false, wrapQuery(err, "resolving about value")
	}
	return id, true, nil
}

// CreateAbout inserts the AboutTagValue uniqueness row for a freshly
// allocated object.
func CreateAbout(ctx context.Context, q Querier, about string, objectID uuid.UUID) error {
	_, err := q.Exec(ctx, `INSERT INTO about_tag_values (value, object_id) VALUES ($1, $2)`, about, objectID)
	return dupOrWrap(err, models.KindDuplicatePath, "about value %q already in use", about)
}

// GetObjectsByAbout resolves a batch of about-values, per
// ObjectAPI.get([about,...]); values with no match are absent from the
// result.
func GetObjectsByAbout(ctx context.Context, q Querier, values []string) (map[string]uuid.UUID, error) {
	out := map[string]uuid.UUID{}
	if len(values) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `SELECT value, object_id FROM about_tag_values WHERE value = ANY($1)`, values)
	if err != nil {
		return nil, wrapQuery(err, "resolving about values")
	}
	defer rows.Close()
	for rows.Next() {
		var value string
		var id uuid.UUID
		if err := rows.Scan(&value, &id); err != nil {
			return nil, wrapQuery(err, "scanning about value")
		}
		out[value] = id
	}
	return out, rows.Err()
}
