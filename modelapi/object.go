package modelapi

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/store"
)

// ObjectAPI allocates objects: a new object
// (optionally with an about value) and resolve about values to object
// IDs.
type ObjectAPI struct {
	store     *store.Store
	tagValues *TagValueAPI
}

// NewObjectAPI builds an ObjectAPI.
func NewObjectAPI(s *store.Store, tagValues *TagValueAPI) *ObjectAPI {
	return &ObjectAPI{store: s, tagValues: tagValues}
}

// Create implements ObjectAPI.create(about?): if about names an
// existing object, returns it (idempotent create); otherwise allocates a
// UUID, claims the about value, and writes the fluiddb/about system tag.
// about == nil allocates an anonymous object with no about value.
func (a *ObjectAPI) Create(ctx context.Context, q store.Querier, creator models.User, about *string) (uuid.UUID, error) {
	if about == nil {
		return uuid.New(), nil
	}
	normalized := fpath.NormalizeAbout(*about)
	existing, ok, err := store.GetObjectByAbout(ctx, q, normalized)
	if err != nil {
		return uuid.UUID{}, err
	}
	if ok {
		return existing, nil
	}

	objID := uuid.New()
	if err := store.CreateAbout(ctx, q, normalized, objID); err != nil {
		return uuid.UUID{}, err
	}
	// The lookup key is case-folded, but the stored fluiddb/about value
	// keeps the caller's original form.
	values := ObjectValues{TagAbout: models.StringValue(*about)}
	if err := a.tagValues.Set(ctx, q, creator, map[uuid.UUID]ObjectValues{objID: values}); err != nil {
		return uuid.UUID{}, err
	}
	return objID, nil
}

// Get implements ObjectAPI.get([about,...]): resolves each about
// value to its object ID. A missing about value is simply absent from
// the result; it is not an error.
func (a *ObjectAPI) Get(ctx context.Context, q store.Querier, aboutValues []string) (map[string]uuid.UUID, error) {
	normalized := make([]string, len(aboutValues))
	for i, v := range aboutValues {
		normalized[i] = fpath.NormalizeAbout(v)
	}
	return store.GetObjectsByAbout(ctx, q, normalized)
}

// GetTagsForObjects implements ObjectAPI.getTagsByObjects /
// getTagsForObjects: the set of tag paths present on each object.
func (a *ObjectAPI) GetTagsForObjects(ctx context.Context, q store.Querier, objectIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	return store.PathsForObjects(ctx, q, objectIDs)
}
