// Package security is the authorization boundary: every write and read
// the Facade exposes is first resolved to one or more
// `(path, operation)` checks, evaluated by `permission.Checker`, before
// the call is allowed through to the cache-wrapped model layer.
package security

import (
	"context"

	"fluidinfo/cache"
	"fluidinfo/modelapi"
	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// Security is the authorization-checked façade over modelapi, used by
// facade/ to resolve every operation through a permission.Checker before
// delegating to the model. A Security is built once per request,
// scoped to that request's transaction via store.TxSource.
type Security struct {
	namespaces *modelapi.NamespaceAPI
	tags       *modelapi.TagAPI
	tagValues  *modelapi.TagValueAPI
	permsAPI   *modelapi.PermissionAPI
	objects    *modelapi.ObjectAPI
	users      *modelapi.UserAPI
	activity   *modelapi.RecentActivityAPI
	cache      cache.Interface
	checker    *permission.Checker
}

// Deps bundles the modelapi layer a Security wraps, built once at
// process wiring time and shared across requests (the modelapi structs
// themselves hold no per-request state; only the Querier/q argument of
// each call is request-scoped).
type Deps struct {
	Namespaces *modelapi.NamespaceAPI
	Tags       *modelapi.TagAPI
	TagValues  *modelapi.TagValueAPI
	Permission *modelapi.PermissionAPI
	Objects    *modelapi.ObjectAPI
	Users      *modelapi.UserAPI
	Activity   *modelapi.RecentActivityAPI
	Cache      cache.Interface
}

// New builds a Security scoped to q: checker is a permission.Checker
// whose permission loads go through the cache and whose
// existence/user loads go through store.TxSource{Q: q}, so every check
// made through this Security instance sees the same database snapshot
// as the model calls it guards.
func New(deps Deps, q store.Querier) *Security {
	return &Security{
		namespaces: deps.Namespaces,
		tags:       deps.Tags,
		tagValues:  deps.TagValues,
		permsAPI:   deps.Permission,
		objects:    deps.Objects,
		users:      deps.Users,
		activity:   deps.Activity,
		cache:      deps.Cache,
		checker:    permission.NewChecker(cacheSource{cache: deps.Cache, tx: store.TxSource{Q: q}}),
	}
}

// authorize runs checks through the Checker and translates a non-empty
// denied list into a PermissionDenied error.
func (s *Security) authorize(ctx context.Context, user models.User, checks []permission.Check) error {
	denied, err := s.checker.Check(ctx, user, checks)
	if err != nil {
		return err
	}
	if len(denied) > 0 {
		return models.NewPermissionDenied(user.Username, denied)
	}
	return nil
}
