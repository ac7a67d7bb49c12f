package modelapi

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fluidinfo/logger"
	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// System account usernames. The fluiddb superuser owns every system
// namespace and tag; the anon user carries the ANONYMOUS role every
// unauthenticated request runs as.
const (
	SystemUsername    = "fluiddb"
	AnonymousUsername = "anon"
)

// Bootstrap ensures the system entities exist: the fluiddb superuser,
// its namespace skeleton (fluiddb, fluiddb/namespaces, fluiddb/tags),
// the five system tags, and the anon user. Everything above this
// skeleton is created through the normal APIs; the skeleton itself has
// to be laid down row by row because the system tags the APIs write
// on creation do not exist yet.
//
// Idempotent: a second call on a populated store is a no-op, so it runs
// unconditionally at process start.
func Bootstrap(ctx context.Context, q store.Querier, users *UserAPI, tagValues *TagValueAPI, systemPassword string) (system, anonymous models.User, err error) {
	existing, ok, err := store.GetUserByUsername(ctx, q, SystemUsername)
	if err != nil {
		return models.User{}, models.User{}, err
	}
	if ok {
		anon, _, err := store.GetUserByUsername(ctx, q, AnonymousUsername)
		return existing, anon, err
	}
	logger.Info("modelapi: bootstrapping system entities")

	hash, err := bcrypt.GenerateFromPassword([]byte(systemPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, models.User{}, models.Wrap(models.KindFeatureError, err, "hashing system password")
	}
	sysObj, err := ensureObjectForAbout(ctx, q, fpath.AboutForUser(SystemUsername))
	if err != nil {
		return models.User{}, models.User{}, err
	}
	system = models.User{
		ID:           uuid.New(),
		Username:     SystemUsername,
		PasswordHash: string(hash),
		FullName:     "Fluidinfo",
		Role:         models.RoleSuperuser,
		ObjectID:     sysObj,
	}
	if err := store.CreateUser(ctx, q, system); err != nil {
		return models.User{}, models.User{}, err
	}

	// Namespace skeleton, parent before child.
	nsIDs := map[string]uuid.UUID{}
	var parentOf = map[string]string{
		"fluiddb/namespaces": "fluiddb",
		"fluiddb/tags":       "fluiddb",
	}
	for _, nsPath := range []string{"fluiddb", "fluiddb/namespaces", "fluiddb/tags"} {
		p := fpath.MustParse(nsPath)
		objID, err := ensureObjectForAbout(ctx, q, fpath.AboutForNamespace(p))
		if err != nil {
			return models.User{}, models.User{}, err
		}
		id := uuid.New()
		nsIDs[nsPath] = id
		var parentID *uuid.UUID
		if parent, ok := parentOf[nsPath]; ok {
			pid := nsIDs[parent]
			parentID = &pid
		}
		row := store.NamespaceRow{ID: id, Path: nsPath, Name: p.Name(), CreatorID: system.ID, ParentID: parentID, ObjectID: objID}
		if err := store.CreateNamespaces(ctx, q, []store.NamespaceRow{row}); err != nil {
			return models.User{}, models.User{}, err
		}
		if err := store.PutNamespacePermissions(ctx, q, id, permission.DefaultNamespaceSet(system.ID.String())); err != nil {
			return models.User{}, models.User{}, err
		}
	}

	// System tags. READ_TAG_VALUE is open by default (DefaultTagSet), so
	// anyone can read about/path/description metadata; writes stay with
	// the system user.
	systemTags := map[string]string{
		TagAbout:           "fluiddb",
		TagNamespacesPath:  "fluiddb/namespaces",
		TagNamespacesDescr: "fluiddb/namespaces",
		TagTagsPath:        "fluiddb/tags",
		TagTagsDescr:       "fluiddb/tags",
	}
	for tagPath, nsPath := range systemTags {
		p := fpath.MustParse(tagPath)
		objID, err := ensureObjectForAbout(ctx, q, fpath.AboutForTag(p))
		if err != nil {
			return models.User{}, models.User{}, err
		}
		id := uuid.New()
		row := store.TagRow{ID: id, Path: tagPath, Name: p.Name(), NamespaceID: nsIDs[nsPath], CreatorID: system.ID, ObjectID: objID}
		if err := store.CreateTags(ctx, q, []store.TagRow{row}); err != nil {
			return models.User{}, models.User{}, err
		}
		if err := store.PutTagPermissions(ctx, q, id, permission.DefaultTagSet(system.ID.String())); err != nil {
			return models.User{}, models.User{}, err
		}
	}

	// With the skeleton in place the normal write path works; backfill
	// the system tag values every Namespace/Tag/User object carries.
	values := map[uuid.UUID]ObjectValues{
		system.ObjectID: {TagAbout: models.StringValue(fpath.AboutForUser(SystemUsername))},
	}
	for _, nsPath := range []string{"fluiddb", "fluiddb/namespaces", "fluiddb/tags"} {
		p := fpath.MustParse(nsPath)
		ns, err := store.GetNamespacesByPath(ctx, q, []string{nsPath})
		if err != nil {
			return models.User{}, models.User{}, err
		}
		values[ns[nsPath].ObjectID] = ObjectValues{
			TagAbout:           models.StringValue(fpath.AboutForNamespace(p)),
			TagNamespacesPath:  models.StringValue(nsPath),
			TagNamespacesDescr: models.StringValue(genericAncestorDescription(p)),
		}
	}
	for tagPath := range systemTags {
		p := fpath.MustParse(tagPath)
		tags, err := store.GetTagsByPath(ctx, q, []string{tagPath})
		if err != nil {
			return models.User{}, models.User{}, err
		}
		values[tags[tagPath].ObjectID] = ObjectValues{
			TagAbout:     models.StringValue(fpath.AboutForTag(p)),
			TagTagsPath:  models.StringValue(tagPath),
			TagTagsDescr: models.StringValue("System tag"),
		}
	}
	if err := tagValues.Set(ctx, q, system, values); err != nil {
		return models.User{}, models.User{}, err
	}

	// The anon user's row and object are created directly, and its root
	// namespace is created by the system user: an ANONYMOUS user must
	// never land in a CLOSED exception list, which the
	// normal creator-retains-use path would do.
	anonObj, err := ensureObjectForAbout(ctx, q, fpath.AboutForUser(AnonymousUsername))
	if err != nil {
		return models.User{}, models.User{}, err
	}
	anonHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, models.User{}, models.Wrap(models.KindFeatureError, err, "hashing anonymous password")
	}
	anonymous = models.User{
		ID:           uuid.New(),
		Username:     AnonymousUsername,
		PasswordHash: string(anonHash),
		FullName:     "Anonymous",
		Role:         models.RoleAnonymous,
		ObjectID:     anonObj,
	}
	if err := store.CreateUser(ctx, q, anonymous); err != nil {
		return models.User{}, models.User{}, err
	}
	if err := tagValues.Set(ctx, q, system, map[uuid.UUID]ObjectValues{
		anonObj: {TagAbout: models.StringValue(fpath.AboutForUser(AnonymousUsername))},
	}); err != nil {
		return models.User{}, models.User{}, err
	}
	if _, err := users.namespaces.Create(ctx, q, system, []NamespaceCreate{
		{Path: AnonymousUsername, Description: "Namespace for the anonymous user"},
	}); err != nil {
		return models.User{}, models.User{}, err
	}
	return system, anonymous, nil
}
