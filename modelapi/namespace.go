package modelapi

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// NamespaceAPI is the namespace business logic: batched create,
// delete, set (description) and get, plus implicit-ancestor creation.
type NamespaceAPI struct {
	store     *store.Store
	tagValues *TagValueAPI // set lazily via SetTagValueAPI to break the Namespace<->TagValue initialization cycle
}

// NewNamespaceAPI builds a NamespaceAPI.
func NewNamespaceAPI(s *store.Store) *NamespaceAPI {
	return &NamespaceAPI{store: s}
}

// SetTagValueAPI wires the TagValueAPI used to write system tag values on
// newly created namespaces. Called once during process wiring (main.go),
// after both APIs exist, to avoid a constructor cycle (TagValueAPI needs
// TagAPI, TagAPI needs NamespaceAPI for ancestor creation, NamespaceAPI
// needs TagValueAPI for system tags).
func (a *NamespaceAPI) SetTagValueAPI(tv *TagValueAPI) { a.tagValues = tv }

// NamespaceCreate is one entry of a create([(path, description)]) call.
type NamespaceCreate struct {
	Path        string
	Description string
}

// Create implements NamespaceAPI.create: creates missing ancestors
// with generic descriptions, creates each namespace, its inherited
// permission row, its backing object, and its three system tag values.
// Returns the object ID created for each requested path (not ancestors).
func (a *NamespaceAPI) Create(ctx context.Context, q store.Querier, creator models.User, entries []NamespaceCreate) (map[string]uuid.UUID, error) {
	out := map[string]uuid.UUID{}
	for _, e := range entries {
		p, err := fpath.Parse(e.Path)
		if err != nil {
			return nil, err
		}
		if err := a.ensureAncestors(ctx, q, creator, p); err != nil {
			return nil, err
		}
		objID, err := a.createOne(ctx, q, creator, p, e.Description)
		if err != nil {
			return nil, err
		}
		out[e.Path] = objID
	}
	return out, nil
}

// ensureAncestors walks p's ancestor chain root-first, creating any
// namespace that does not yet exist with a generic description.
func (a *NamespaceAPI) ensureAncestors(ctx context.Context, q store.Querier, creator models.User, p fpath.Path) error {
	for _, anc := range p.Ancestors() {
		exists, err := store.NamespaceExists(ctx, q, anc.String())
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := a.createOne(ctx, q, creator, anc, genericAncestorDescription(anc)); err != nil {
			return err
		}
	}
	return nil
}

// createOne creates a single Namespace row (assuming its parent, if any,
// already exists), its permission row (inherited from the parent, or the
// default set for a root namespace), its backing object, and its system
// tag values.
func (a *NamespaceAPI) createOne(ctx context.Context, q store.Querier, creator models.User, p fpath.Path, description string) (uuid.UUID, error) {
	id := uuid.New()
	objID, err := ensureObjectForAbout(ctx, q, fpath.AboutForNamespace(p))
	if err != nil {
		return uuid.UUID{}, err
	}
	var parentID *uuid.UUID
	var perms permission.Set

	if parent, ok := p.Parent(); ok {
		parentRows, err := store.GetNamespacesByPath(ctx, q, []string{parent.String()})
		if err != nil {
			return uuid.UUID{}, err
		}
		parentNS, ok := parentRows[parent.String()]
		if !ok {
			return uuid.UUID{}, models.NewPathError(models.KindUnknownNamespace, parent.String(), "parent namespace %q does not exist", parent.String())
		}
		parentID = &parentNS.ID
		parentPerms, err := store.NamespacePermissions(ctx, q, []string{parent.String()})
		if err != nil {
			return uuid.UUID{}, err
		}
		perms = permission.InheritNamespaceSet(parentPerms[parent.String()], creator.ID.String())
	} else {
		perms = permission.DefaultNamespaceSet(creator.ID.String())
	}

	row := store.NamespaceRow{ID: id, Path: p.String(), Name: p.Name(), CreatorID: creator.ID, ParentID: parentID, ObjectID: objID}
	if err := store.CreateNamespaces(ctx, q, []store.NamespaceRow{row}); err != nil {
		return uuid.UUID{}, err
	}
	if err := store.PutNamespacePermissions(ctx, q, id, perms); err != nil {
		return uuid.UUID{}, err
	}
	if err := a.writeSystemTags(ctx, q, creator, objID, p, description); err != nil {
		return uuid.UUID{}, err
	}
	return objID, nil
}

func (a *NamespaceAPI) writeSystemTags(ctx context.Context, q store.Querier, creator models.User, objID uuid.UUID, p fpath.Path, description string) error {
	values := ObjectValues{
		TagAbout:           models.StringValue(fpath.AboutForNamespace(p)),
		TagNamespacesPath:  models.StringValue(p.String()),
		TagNamespacesDescr: models.StringValue(description),
	}
	return a.tagValues.Set(ctx, q, creator, map[uuid.UUID]ObjectValues{objID: values})
}

// Delete implements NamespaceAPI.delete: refuses if children
// exist, removes the namespaces/path and namespaces/description values
//, then
// removes the row.
func (a *NamespaceAPI) Delete(ctx context.Context, q store.Querier, paths []string) error {
	rows, err := store.GetNamespacesByPath(ctx, q, paths)
	if err != nil {
		return err
	}
	var keys []TagValueKey
	for _, path := range paths {
		ns, ok := rows[path]
		if !ok {
			return models.NewPathError(models.KindUnknownNamespace, path, "namespace %q does not exist", path)
		}
		children, err := store.ChildNamespacePaths(ctx, q, ns.ID)
		if err != nil {
			return err
		}
		tags, err := store.ChildTagPaths(ctx, q, ns.ID)
		if err != nil {
			return err
		}
		if len(children) > 0 || len(tags) > 0 {
			return models.NewPathError(models.KindNamespaceNotEmpty, path, "namespace %q has children", path)
		}
		keys = append(keys,
			TagValueKey{ObjectID: ns.ObjectID, Path: TagNamespacesPath},
			TagValueKey{ObjectID: ns.ObjectID, Path: TagNamespacesDescr})
	}
	if err := a.tagValues.Delete(ctx, q, keys); err != nil {
		return err
	}
	return store.DeleteNamespaces(ctx, q, paths)
}

// Set implements NamespaceAPI.set: updates the namespaces/description
// tag value for each path.
func (a *NamespaceAPI) Set(ctx context.Context, q store.Querier, creator models.User, descriptions map[string]string) error {
	paths := make([]string, 0, len(descriptions))
	for p := range descriptions {
		paths = append(paths, p)
	}
	rows, err := store.GetNamespacesByPath(ctx, q, paths)
	if err != nil {
		return err
	}
	values := map[uuid.UUID]ObjectValues{}
	for path, description := range descriptions {
		ns, ok := rows[path]
		if !ok {
			return models.NewPathError(models.KindUnknownNamespace, path, "namespace %q does not exist", path)
		}
		values[ns.ObjectID] = ObjectValues{TagNamespacesDescr: models.StringValue(description)}
	}
	return a.tagValues.Set(ctx, q, creator, values)
}

// NamespaceEntry is one Get result row; optional fields are nil unless
// requested.
type NamespaceEntry struct {
	ObjectID     uuid.UUID
	Description  *string
	Namespaces   []string
	Tags         []string
}

// Get implements NamespaceAPI.get. Descriptions are loaded for all
// requested namespaces in one query; child namespaces and child tags
// are each loaded with one query per namespace.
func (a *NamespaceAPI) Get(ctx context.Context, q store.Querier, paths []string, withDescriptions, withNamespaces, withTags bool) (map[string]NamespaceEntry, error) {
	rows, err := store.GetNamespacesByPath(ctx, q, paths)
	if err != nil {
		return nil, err
	}
	out := map[string]NamespaceEntry{}
	var objIDs []uuid.UUID
	for _, path := range paths {
		ns, ok := rows[path]
		if !ok {
			return nil, models.NewPathError(models.KindUnknownNamespace, path, "namespace %q does not exist", path)
		}
		out[path] = NamespaceEntry{ObjectID: ns.ObjectID}
		if withDescriptions {
			objIDs = append(objIDs, ns.ObjectID)
		}
	}
	if withDescriptions && len(objIDs) > 0 {
		descValues, err := store.GetTagValues(ctx, q, objIDs, []string{TagNamespacesDescr})
		if err != nil {
			return nil, err
		}
		for path, e := range out {
			if tv, ok := descValues[rows[path].ObjectID][TagNamespacesDescr]; ok {
				d := tv.Value.Str
				e.Description = &d
				out[path] = e
			}
		}
	}
	for path, ns := range rows {
		e := out[path]
		if withNamespaces {
			children, err := store.ChildNamespacePaths(ctx, q, ns.ID)
			if err != nil {
				return nil, err
			}
			e.Namespaces = children
		}
		if withTags {
			tags, err := store.ChildTagPaths(ctx, q, ns.ID)
			if err != nil {
				return nil, err
			}
			e.Tags = tags
		}
		out[path] = e
	}
	return out, nil
}
