// Package facade implements Fluidinfo's API surface: the batched,
// exception-typed entry points the HTTP frontend consumes. Each call validates and normalizes its arguments,
// acquires a worker-pool slot, opens exactly one transaction on the main
// store, runs the security-checked model calls inside it, and commits on
// success or rolls back on any raised error.
package facade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fluidinfo/logger"
	"fluidinfo/modelapi"
	"fluidinfo/models"
	fpath "fluidinfo/path"
	"fluidinfo/permission"
	"fluidinfo/search"
	"fluidinfo/security"
	"fluidinfo/store"
)

// Facade is the process-wide entry point. Safe for concurrent use: all
// per-request state lives in the transaction each call opens.
type Facade struct {
	store          *store.Store
	deps           security.Deps
	index          search.Index
	pool           *workerPool
	requestTimeout time.Duration
	hasCap         int
}

// Config sizes a Facade.
type Config struct {
	WorkerPoolSize int
	RequestTimeout time.Duration
	HasCapLimit    int
}

// New builds a Facade over an already-wired store, security dependency
// set, and index client.
func New(s *store.Store, deps security.Deps, idx search.Index, cfg Config) *Facade {
	return &Facade{
		store:          s,
		deps:           deps,
		index:          idx,
		pool:           newWorkerPool(cfg.WorkerPoolSize),
		requestTimeout: cfg.RequestTimeout,
		hasCap:         cfg.HasCapLimit,
	}
}

// run is the per-request harness: pool slot, timeout, one transaction,
// commit-or-rollback, and error mapping into the wire taxonomy. fn sees a
// Security scoped to the request's transaction.
func (f *Facade) run(ctx context.Context, fn func(ctx context.Context, q store.Querier, sec *security.Security) error) error {
	if err := f.pool.acquire(ctx); err != nil {
		return err
	}
	defer f.pool.release()

	if f.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.requestTimeout)
		defer cancel()
	}

	tx, err := f.store.Begin(ctx)
	if err != nil {
		return models.Wrap(models.KindFeatureError, err, "opening transaction")
	}
	sec := security.New(f.deps, tx)
	if err := fn(ctx, tx, sec); err != nil {
		_ = tx.Rollback(ctx)
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Wrap(models.KindFeatureError, err, "committing transaction")
	}
	return nil
}

// mapError guarantees every error leaving the Facade is one of the
// closed wire taxonomy. A non-taxonomy error this deep is a genuine
// implementation fault, logged and wrapped as FeatureError.
func mapError(err error) error {
	if _, ok := models.KindOf(err); ok {
		return err
	}
	logger.Error("facade: untyped error escaped model layers: %v", err)
	return models.Wrap(models.KindFeatureError, err, "internal error")
}

// normalizePaths parses and re-serializes each path, rejecting malformed
// input before any model call. An empty batch is a caller invariant violation.
func normalizePaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty path batch")
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		parsed, err := fpath.Parse(p)
		if err != nil {
			return nil, err
		}
		out[i] = parsed.String()
	}
	return out, nil
}

// --- Namespaces ---

// NamespaceDef is one (path, description) pair for CreateNamespaces.
type NamespaceDef struct {
	Path        string
	Description string
}

// CreateNamespaces implements NamespaceAPI.create behind the
// security layer, returning each new namespace's object ID by path.
func (f *Facade) CreateNamespaces(ctx context.Context, user models.User, defs []NamespaceDef) (map[string]uuid.UUID, error) {
	if len(defs) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty namespace batch")
	}
	entries := make([]modelapi.NamespaceCreate, len(defs))
	for i, d := range defs {
		p, err := fpath.Parse(d.Path)
		if err != nil {
			return nil, err
		}
		entries[i] = modelapi.NamespaceCreate{Path: p.String(), Description: d.Description}
	}
	var out map[string]uuid.UUID
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.NamespaceCreate(ctx, q, user, entries)
		return err
	})
	return out, err
}

// DeleteNamespaces implements NamespaceAPI.delete.
func (f *Facade) DeleteNamespaces(ctx context.Context, user models.User, paths []string) error {
	normalized, err := normalizePaths(paths)
	if err != nil {
		return err
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.NamespaceDelete(ctx, q, user, normalized)
	})
}

// UpdateNamespaces implements NamespaceAPI.set.
func (f *Facade) UpdateNamespaces(ctx context.Context, user models.User, descriptions map[string]string) error {
	if len(descriptions) == 0 {
		return models.NewError(models.KindFeatureError, "empty namespace batch")
	}
	normalized := make(map[string]string, len(descriptions))
	for p, d := range descriptions {
		parsed, err := fpath.Parse(p)
		if err != nil {
			return err
		}
		normalized[parsed.String()] = d
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.NamespaceSet(ctx, q, user, normalized)
	})
}

// GetNamespaces implements NamespaceAPI.get; the optional joins
// are resolved in the same transaction.
func (f *Facade) GetNamespaces(ctx context.Context, user models.User, paths []string, withDescriptions, withNamespaces, withTags bool) (map[string]modelapi.NamespaceEntry, error) {
	normalized, err := normalizePaths(paths)
	if err != nil {
		return nil, err
	}
	var out map[string]modelapi.NamespaceEntry
	err = f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.NamespaceGet(ctx, q, user, normalized, withDescriptions, withNamespaces, withTags)
		return err
	})
	return out, err
}

// --- Tags ---

// TagDef is one (path, description) pair for CreateTags.
type TagDef struct {
	Path        string
	Description string
}

// CreateTags implements TagAPI.create.
func (f *Facade) CreateTags(ctx context.Context, user models.User, defs []TagDef) (map[string]uuid.UUID, error) {
	if len(defs) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty tag batch")
	}
	entries := make([]modelapi.TagCreate, len(defs))
	for i, d := range defs {
		p, err := fpath.Parse(d.Path)
		if err != nil {
			return nil, err
		}
		entries[i] = modelapi.TagCreate{Path: p.String(), Description: d.Description}
	}
	var out map[string]uuid.UUID
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.TagCreate(ctx, q, user, entries)
		return err
	})
	return out, err
}

// DeleteTags implements TagAPI.delete.
func (f *Facade) DeleteTags(ctx context.Context, user models.User, paths []string) error {
	normalized, err := normalizePaths(paths)
	if err != nil {
		return err
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.TagDelete(ctx, q, user, normalized)
	})
}

// UpdateTags implements TagAPI.set.
func (f *Facade) UpdateTags(ctx context.Context, user models.User, descriptions map[string]string) error {
	if len(descriptions) == 0 {
		return models.NewError(models.KindFeatureError, "empty tag batch")
	}
	normalized := make(map[string]string, len(descriptions))
	for p, d := range descriptions {
		parsed, err := fpath.Parse(p)
		if err != nil {
			return err
		}
		normalized[parsed.String()] = d
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.TagSet(ctx, q, user, normalized)
	})
}

// GetTags implements TagAPI.get.
func (f *Facade) GetTags(ctx context.Context, user models.User, paths []string, withDescriptions bool) (map[string]modelapi.TagEntry, error) {
	normalized, err := normalizePaths(paths)
	if err != nil {
		return nil, err
	}
	var out map[string]modelapi.TagEntry
	err = f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.TagGet(ctx, q, normalized, withDescriptions)
		return err
	})
	return out, err
}

// --- Tag values ---

// SetTagValues implements TagValueAPI.set.
func (f *Facade) SetTagValues(ctx context.Context, user models.User, values map[uuid.UUID]modelapi.ObjectValues) error {
	if len(values) == 0 {
		return models.NewError(models.KindFeatureError, "empty tag-value batch")
	}
	for _, ov := range values {
		for p := range ov {
			if _, err := fpath.Parse(p); err != nil {
				return err
			}
		}
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.TagValueSet(ctx, q, user, values)
	})
}

// DeleteTagValues implements TagValueAPI.delete.
func (f *Facade) DeleteTagValues(ctx context.Context, user models.User, keys []modelapi.TagValueKey) error {
	if len(keys) == 0 {
		return models.NewError(models.KindFeatureError, "empty tag-value batch")
	}
	for _, k := range keys {
		if _, err := fpath.Parse(k.Path); err != nil {
			return err
		}
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.TagValueDelete(ctx, q, user, keys)
	})
}

// GetTagValues implements TagValueAPI.get. paths == nil returns
// every path on each object the user may read.
func (f *Facade) GetTagValues(ctx context.Context, user models.User, objectIDs []uuid.UUID, paths []string) (map[uuid.UUID]map[string]models.Value, error) {
	if len(objectIDs) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty object batch")
	}
	var out map[uuid.UUID]map[string]models.Value
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.TagValueGet(ctx, q, user, objectIDs, paths)
		return err
	})
	return out, err
}

// --- Permissions ---

// GetPermission implements PermissionAPI.get. operation is the
// wire name of the Operation; an unknown name is a BadRequest.
func (f *Facade) GetPermission(ctx context.Context, user models.User, path, operation string) (permission.Entry, error) {
	op, err := parseOperation(operation)
	if err != nil {
		return permission.Entry{}, err
	}
	var out permission.Entry
	err = f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.PermissionGet(ctx, q, user, path, op)
		return err
	})
	return out, err
}

// SetPermission implements PermissionAPI.set. exceptions are
// usernames; each must name an existing user, and the exception-list
// role constraints are enforced below.
func (f *Facade) SetPermission(ctx context.Context, user models.User, path, operation, policy string, exceptions []string) error {
	op, err := parseOperation(operation)
	if err != nil {
		return err
	}
	pol, err := models.ParsePolicy(policy)
	if err != nil {
		return err
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		ids := make([]string, len(exceptions))
		for i, username := range exceptions {
			u, ok, err := store.GetUserByUsername(ctx, q, username)
			if err != nil {
				return err
			}
			if !ok {
				return models.NewError(models.KindUnknownUser, "unknown user %q in exception list", username)
			}
			ids[i] = u.ID.String()
		}
		return sec.PermissionSet(ctx, q, user, path, op, permission.Entry{Policy: pol, Exceptions: ids})
	})
}

func parseOperation(s string) (permission.Operation, error) {
	op := permission.Operation(s)
	switch op {
	case permission.CreateNamespace, permission.UpdateNamespace, permission.DeleteNamespace,
		permission.ListNamespace, permission.ControlNamespace,
		permission.UpdateTag, permission.DeleteTag, permission.ControlTag,
		permission.WriteTagValue, permission.ReadTagValue, permission.DeleteTagValue,
		permission.ControlTagValue,
		permission.CreateUser, permission.DeleteUser, permission.UpdateUser,
		permission.CreateObject:
		return op, nil
	}
	return "", models.NewError(models.KindBadRequest, "invalid operation %q", s)
}

// --- Objects ---

// CreateObject implements ObjectAPI.create.
func (f *Facade) CreateObject(ctx context.Context, user models.User, about *string) (uuid.UUID, error) {
	var out uuid.UUID
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.ObjectCreate(ctx, q, user, about)
		return err
	})
	return out, err
}

// GetObjects implements ObjectAPI.get: about values to object IDs.
func (f *Facade) GetObjects(ctx context.Context, user models.User, aboutValues []string) (map[string]uuid.UUID, error) {
	if len(aboutValues) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty about batch")
	}
	var out map[string]uuid.UUID
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.ObjectGet(ctx, q, aboutValues)
		return err
	})
	return out, err
}

// GetObjectTagPaths implements ObjectAPI.getTagsForObjects,
// filtered to the paths the user may read.
func (f *Facade) GetObjectTagPaths(ctx context.Context, user models.User, objectIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	if len(objectIDs) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty object batch")
	}
	var out map[uuid.UUID][]string
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.ObjectTagPaths(ctx, q, user, objectIDs)
		return err
	})
	return out, err
}

// --- Users ---

// CreateUsers creates each user, their "@username" object and their root
// namespace, returning object IDs by username.
func (f *Facade) CreateUsers(ctx context.Context, user models.User, entries []modelapi.UserCreate) (map[string]uuid.UUID, error) {
	if len(entries) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty user batch")
	}
	var out map[string]uuid.UUID
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.UserCreate(ctx, q, user, entries)
		return err
	})
	return out, err
}

// UpdateUsers updates each named user's mutable fields.
func (f *Facade) UpdateUsers(ctx context.Context, user models.User, updates map[string]modelapi.UserUpdate) error {
	if len(updates) == 0 {
		return models.NewError(models.KindFeatureError, "empty user batch")
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.UserSet(ctx, q, user, updates)
	})
}

// DeleteUsers removes each named user and their root namespace.
func (f *Facade) DeleteUsers(ctx context.Context, user models.User, usernames []string) error {
	if len(usernames) == 0 {
		return models.NewError(models.KindFeatureError, "empty user batch")
	}
	return f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		return sec.UserDelete(ctx, q, user, usernames)
	})
}

// GetUsers loads the named users.
func (f *Facade) GetUsers(ctx context.Context, user models.User, usernames []string) (map[string]models.User, error) {
	if len(usernames) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty user batch")
	}
	var out map[string]models.User
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.UserGet(ctx, q, usernames)
		return err
	})
	return out, err
}

// --- Queries ---

// ResolveQueries implements Object Search: parses, permission-
// checks and executes each query, returning the combined
// {query: set(objectID)} mapping.
func (f *Facade) ResolveQueries(ctx context.Context, user models.User, queries []string) (map[string][]uuid.UUID, error) {
	if len(queries) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty query batch")
	}
	var out map[string][]uuid.UUID
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		engine := search.New(search.StoreResolver{Q: q, Objects: f.deps.Objects, Creator: user}, f.index, f.hasCap)
		var err error
		out, err = sec.Search(ctx, q, user, engine, queries, search.Options{})
		return err
	})
	return out, err
}

// --- Recent activity ---

// RecentActivityForObjects lists recent tag-value activity per object.
func (f *Facade) RecentActivityForObjects(ctx context.Context, user models.User, objectIDs []uuid.UUID) (map[uuid.UUID][]store.Activity, error) {
	if len(objectIDs) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty object batch")
	}
	var out map[uuid.UUID][]store.Activity
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.RecentActivityForObjects(ctx, q, objectIDs)
		return err
	})
	return out, err
}

// RecentActivityForUsers lists recent tag-value activity per username.
func (f *Facade) RecentActivityForUsers(ctx context.Context, user models.User, usernames []string) (map[string][]store.Activity, error) {
	if len(usernames) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty user batch")
	}
	var out map[string][]store.Activity
	err := f.run(ctx, func(ctx context.Context, q store.Querier, sec *security.Security) error {
		var err error
		out, err = sec.RecentActivityForUsers(ctx, q, usernames)
		return err
	})
	return out, err
}
