package modelapi

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/logger"
	"fluidinfo/models"
	"fluidinfo/store"
)

// TagValueAPI is the tag-value business logic: set/get/delete typed
// values of tags on objects, including opaque-value splitting and
// dirty-object logging.
type TagValueAPI struct {
	store *store.Store
	tags  *TagAPI
}

// NewTagValueAPI builds a TagValueAPI. tags is used to implicitly create
// a tag path that does not yet exist; the permission check itself has
// already run in the security layer by the time Set is called.
func NewTagValueAPI(s *store.Store, tags *TagAPI) *TagValueAPI {
	return &TagValueAPI{store: s, tags: tags}
}

// ObjectValues is the per-object payload of a Set call: path -> Value.
type ObjectValues map[string]models.Value

// Set implements TagValueAPI.set: creates any missing tag implicitly,
// deletes any existing (objectID, tagID) row, inserts the replacement,
// splits opaque payloads into (metadata row, content-addressed row,
// link), and appends every affected object ID to the dirty-object log.
func (a *TagValueAPI) Set(ctx context.Context, q store.Querier, creator models.User, values map[uuid.UUID]ObjectValues) error {
	distinctPaths := map[string]bool{}
	for _, ov := range values {
		for path := range ov {
			distinctPaths[path] = true
		}
	}
	paths := make([]string, 0, len(distinctPaths))
	for p := range distinctPaths {
		paths = append(paths, p)
	}
	tagRows, err := store.GetTagsByPath(ctx, q, paths)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, ok := tagRows[p]; ok {
			continue
		}
		created, err := a.tags.createImplicit(ctx, q, creator, p)
		if err != nil {
			return err
		}
		tagRows[p] = created
	}

	var rows []store.TagValueRow
	var dirty []uuid.UUID
	for objectID, ov := range values {
		dirty = append(dirty, objectID)
		for path, v := range ov {
			if v.Kind == models.KindOpaque {
				if err := validateMimeType(v.Opaque.MimeType); err != nil {
					return err
				}
			}
			tag := tagRows[path]
			rows = append(rows, store.TagValueRow{ObjectID: objectID, TagID: tag.ID, Value: v, CreatorID: creator.ID})
		}
	}

	// Opaque content is written (content-addressed, shared) before the
	// TagValue row that links to it, so a concurrent reader never sees a
	// link without its content.
	for _, r := range rows {
		if r.Value.Kind == models.KindOpaque {
			if err := store.PutOpaque(ctx, q, models.OpaqueValueRow{
				SHA256:   r.Value.Opaque.SHA256,
				MimeType: r.Value.Opaque.MimeType,
				Size:     r.Value.Opaque.Size,
				Content:  r.Value.Opaque.Content,
			}); err != nil {
				return err
			}
		}
	}
	if err := store.SetTagValues(ctx, q, rows); err != nil {
		return err
	}
	for _, r := range rows {
		if r.Value.Kind == models.KindOpaque {
			if err := store.LinkOpaque(ctx, q, r.ObjectID, r.TagID, r.Value.Opaque.SHA256); err != nil {
				return err
			}
		}
	}
	if err := store.AppendDirty(ctx, q, dirty); err != nil {
		return err
	}
	logger.Debug("modelapi: set %d tag value(s) across %d object(s)", len(rows), len(values))
	return nil
}

// TagValueKey names one (objectID, path) pair for Delete.
type TagValueKey struct {
	ObjectID uuid.UUID
	Path     string
}

// Delete removes the named tag values; missing rows are a no-op.
// Any opaque content left without a remaining link is reclaimed.
func (a *TagValueAPI) Delete(ctx context.Context, q store.Querier, keys []TagValueKey) error {
	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		paths = append(paths, k.Path)
	}
	tagRows, err := store.GetTagsByPath(ctx, q, paths)
	if err != nil {
		return err
	}

	var storeKeys []store.TagValueKey
	var dirty []uuid.UUID
	var opaqueSHAs []string
	for _, k := range keys {
		tag, ok := tagRows[k.Path]
		if !ok {
			continue // unknown path: nothing to delete
		}
		existing, err := store.GetTagValues(ctx, q, []uuid.UUID{k.ObjectID}, []string{k.Path})
		if err != nil {
			return err
		}
		if tv, ok := existing[k.ObjectID][k.Path]; ok && tv.Value.Kind == models.KindOpaque {
			opaqueSHAs = append(opaqueSHAs, tv.Value.Opaque.SHA256)
		}
		storeKeys = append(storeKeys, store.TagValueKey{ObjectID: k.ObjectID, TagID: tag.ID})
		dirty = append(dirty, k.ObjectID)
	}
	if err := store.DeleteTagValues(ctx, q, storeKeys); err != nil {
		return err
	}
	for _, sha := range opaqueSHAs {
		if err := store.DeleteOrphanedOpaque(ctx, q, sha); err != nil {
			return err
		}
	}
	return store.AppendDirty(ctx, q, dirty)
}

// Get implements TagValueAPI.get. Reading fluiddb/id never touches
// storage: it returns the object UUID itself. When paths is nil, every
// stored path present on each object is returned, plus fluiddb/id
// (unfiltered by permission — the security layer applies READ_TAG_VALUE
// filtering on top of this).
func (a *TagValueAPI) Get(ctx context.Context, q store.Querier, objectIDs []uuid.UUID, paths []string) (map[uuid.UUID]map[string]models.Value, error) {
	out := map[uuid.UUID]map[string]models.Value{}
	for _, id := range objectIDs {
		out[id] = map[string]models.Value{}
	}

	omitted := paths == nil
	var storedPaths []string
	var wantsID bool
	if omitted {
		wantsID = true
	} else {
		for _, p := range paths {
			if p == VirtualTagID {
				wantsID = true
				continue
			}
			storedPaths = append(storedPaths, p)
		}
	}

	var rows map[uuid.UUID]map[string]models.TagValue
	var err error
	if omitted {
		rows, err = store.GetTagValues(ctx, q, objectIDs, nil)
	} else if len(storedPaths) > 0 {
		rows, err = store.GetTagValues(ctx, q, objectIDs, storedPaths)
	}
	if err != nil {
		return nil, err
	}
	for id, byPath := range rows {
		for path, tv := range byPath {
			out[id][path] = tv.Value
		}
	}
	if wantsID {
		for _, id := range objectIDs {
			out[id][VirtualTagID] = models.StringValue(id.String())
		}
	}
	return out, nil
}
