package modelapi

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// TagAPI is the tag business logic: batched create, delete, set
// (description) and get for Tags, mirroring NamespaceAPI.
type TagAPI struct {
	store      *store.Store
	namespaces *NamespaceAPI
	tagValues  *TagValueAPI // wired post-construction, see NamespaceAPI.SetTagValueAPI
}

// NewTagAPI builds a TagAPI. namespaces is used to create missing
// ancestor namespaces.
func NewTagAPI(s *store.Store, namespaces *NamespaceAPI) *TagAPI {
	return &TagAPI{store: s, namespaces: namespaces}
}

// SetTagValueAPI wires the TagValueAPI used to write a tag's system tag
// values, mirroring NamespaceAPI.SetTagValueAPI.
func (a *TagAPI) SetTagValueAPI(tv *TagValueAPI) { a.tagValues = tv }

// TagCreate is one entry of a create([(path, description)]) call.
type TagCreate struct {
	Path        string
	Description string
}

// Create implements TagAPI.create: creates missing ancestor
// namespaces, the tag row, its inherited permission set, its backing
// object, and its system tag values.
func (a *TagAPI) Create(ctx context.Context, q store.Querier, creator models.User, entries []TagCreate) (map[string]uuid.UUID, error) {
	out := map[string]uuid.UUID{}
	for _, e := range entries {
		p, err := fpath.Parse(e.Path)
		if err != nil {
			return nil, err
		}
		parent, ok := p.Parent()
		if !ok {
			return nil, models.NewPathError(models.KindInvalidPath, e.Path, "tag path %q must have a containing namespace", e.Path)
		}
		if err := a.namespaces.ensureAncestors(ctx, q, creator, p); err != nil {
			return nil, err
		}
		nsExists, err := store.NamespaceExists(ctx, q, parent.String())
		if err != nil {
			return nil, err
		}
		if !nsExists {
			if _, err := a.namespaces.createOne(ctx, q, creator, parent, genericAncestorDescription(parent)); err != nil {
				return nil, err
			}
		}
		objID, err := a.createOne(ctx, q, creator, p, parent, e.Description)
		if err != nil {
			return nil, err
		}
		out[e.Path] = objID
	}
	return out, nil
}

// createImplicit creates a single tag at pathStr with an empty
// description, first creating any missing ancestor namespaces below the
// (already permission-verified) nearest existing one: the
// implicit-creation rule as exercised from TagValueAPI.Set.
func (a *TagAPI) createImplicit(ctx context.Context, q store.Querier, creator models.User, pathStr string) (models.Tag, error) {
	p, err := fpath.Parse(pathStr)
	if err != nil {
		return models.Tag{}, err
	}
	parent, ok := p.Parent()
	if !ok {
		return models.Tag{}, models.NewPathError(models.KindInvalidPath, pathStr, "tag path %q must have a containing namespace", pathStr)
	}
	if err := a.namespaces.ensureAncestors(ctx, q, creator, p); err != nil {
		return models.Tag{}, err
	}
	objID, err := a.createOne(ctx, q, creator, p, parent, "")
	if err != nil {
		return models.Tag{}, err
	}
	rows, err := store.GetTagsByPath(ctx, q, []string{pathStr})
	if err != nil {
		return models.Tag{}, err
	}
	tag := rows[pathStr]
	tag.ObjectID = objID
	return tag, nil
}

func (a *TagAPI) createOne(ctx context.Context, q store.Querier, creator models.User, p, parent fpath.Path, description string) (uuid.UUID, error) {
	id := uuid.New()
	objID, err := ensureObjectForAbout(ctx, q, fpath.AboutForTag(p))
	if err != nil {
		return uuid.UUID{}, err
	}

	nsRows, err := store.GetNamespacesByPath(ctx, q, []string{parent.String()})
	if err != nil {
		return uuid.UUID{}, err
	}
	parentNS, ok := nsRows[parent.String()]
	if !ok {
		return uuid.UUID{}, models.NewPathError(models.KindUnknownNamespace, parent.String(), "namespace %q does not exist", parent.String())
	}
	parentPerms, err := store.NamespacePermissions(ctx, q, []string{parent.String()})
	if err != nil {
		return uuid.UUID{}, err
	}
	perms := permission.InheritTagSet(parentPerms[parent.String()], creator.ID.String())

	row := store.TagRow{ID: id, Path: p.String(), Name: p.Name(), NamespaceID: parentNS.ID, CreatorID: creator.ID, ObjectID: objID}
	if err := store.CreateTags(ctx, q, []store.TagRow{row}); err != nil {
		return uuid.UUID{}, err
	}
	if err := store.PutTagPermissions(ctx, q, id, perms); err != nil {
		return uuid.UUID{}, err
	}
	values := ObjectValues{
		TagAbout:     models.StringValue(fpath.AboutForTag(p)),
		TagTagsPath:  models.StringValue(p.String()),
		TagTagsDescr: models.StringValue(description),
	}
	if err := a.tagValues.Set(ctx, q, creator, map[uuid.UUID]ObjectValues{objID: values}); err != nil {
		return uuid.UUID{}, err
	}
	return objID, nil
}

// Delete implements TagAPI.delete: removes permissions (cascade),
// tag values (cascade), and the row; the affected object IDs (the tag's
// own backing objects) are dirtied via the TagValueAPI.Delete call for
// the tag's system tag values.
func (a *TagAPI) Delete(ctx context.Context, q store.Querier, paths []string) error {
	rows, err := store.GetTagsByPath(ctx, q, paths)
	if err != nil {
		return err
	}
	var keys []TagValueKey
	for _, path := range paths {
		tag, ok := rows[path]
		if !ok {
			return models.NewPathError(models.KindUnknownTag, path, "tag %q does not exist", path)
		}
		keys = append(keys,
			TagValueKey{ObjectID: tag.ObjectID, Path: TagTagsPath},
			TagValueKey{ObjectID: tag.ObjectID, Path: TagTagsDescr})
	}
	if err := a.tagValues.Delete(ctx, q, keys); err != nil {
		return err
	}
	return store.DeleteTags(ctx, q, paths)
}

// Set implements TagAPI.set: updates the tags/description tag
// value for each path.
func (a *TagAPI) Set(ctx context.Context, q store.Querier, creator models.User, descriptions map[string]string) error {
	paths := make([]string, 0, len(descriptions))
	for p := range descriptions {
		paths = append(paths, p)
	}
	rows, err := store.GetTagsByPath(ctx, q, paths)
	if err != nil {
		return err
	}
	values := map[uuid.UUID]ObjectValues{}
	for path, description := range descriptions {
		tag, ok := rows[path]
		if !ok {
			return models.NewPathError(models.KindUnknownTag, path, "tag %q does not exist", path)
		}
		values[tag.ObjectID] = ObjectValues{TagTagsDescr: models.StringValue(description)}
	}
	return a.tagValues.Set(ctx, q, creator, values)
}

// TagEntry is one Get result row.
type TagEntry struct {
	ObjectID    uuid.UUID
	Description *string
}

// Get implements TagAPI.get.
func (a *TagAPI) Get(ctx context.Context, q store.Querier, paths []string, withDescriptions bool) (map[string]TagEntry, error) {
	rows, err := store.GetTagsByPath(ctx, q, paths)
	if err != nil {
		return nil, err
	}
	out := map[string]TagEntry{}
	var objIDs []uuid.UUID
	for _, path := range paths {
		tag, ok := rows[path]
		if !ok {
			return nil, models.NewPathError(models.KindUnknownTag, path, "tag %q does not exist", path)
		}
		out[path] = TagEntry{ObjectID: tag.ObjectID}
		objIDs = append(objIDs, tag.ObjectID)
	}
	if withDescriptions && len(objIDs) > 0 {
		descValues, err := store.GetTagValues(ctx, q, objIDs, []string{TagTagsDescr})
		if err != nil {
			return nil, err
		}
		for path, e := range out {
			if tv, ok := descValues[rows[path].ObjectID][TagTagsDescr]; ok {
				d := tv.Value.Str
				e.Description = &d
				out[path] = e
			}
		}
	}
	return out, nil
}
