package modelapi

import (
	"context"

	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// PermissionAPI gets and sets the
// (policy, exceptions) entry for a single (path, operation) pair, with
// the exception-list validation Set must perform before
// writing.
type PermissionAPI struct {
	store       *store.Store
	anonymousID string
}

// NewPermissionAPI builds a PermissionAPI. anonymousID is the ANONYMOUS
// user's ID, needed by ValidateExceptions.
func NewPermissionAPI(s *store.Store, anonymousID string) *PermissionAPI {
	return &PermissionAPI{store: s, anonymousID: anonymousID}
}

// Get implements PermissionAPI.get: loads the single (policy,
// exceptions) entry for (path, op).
func (a *PermissionAPI) Get(ctx context.Context, q store.Querier, path string, op permission.Operation) (permission.Entry, error) {
	if isNamespaceOperation(op) {
		perms, err := store.NamespacePermissions(ctx, q, []string{path})
		if err != nil {
			return permission.Entry{}, err
		}
		set, ok := perms[path]
		if !ok {
			return permission.Entry{}, models.NewPathError(models.KindUnknownNamespace, path, "namespace %q does not exist", path)
		}
		return set[op], nil
	}
	perms, err := store.TagPermissions(ctx, q, []string{path})
	if err != nil {
		return permission.Entry{}, err
	}
	set, ok := perms[path]
	if !ok {
		return permission.Entry{}, models.NewPathError(models.KindUnknownTag, path, "tag %q does not exist", path)
	}
	return set[op], nil
}

// Set implements PermissionAPI.set: validates the exception list
// via a TxSource-backed Checker bound to the same
// Querier as the caller's request, then writes the single entry.
func (a *PermissionAPI) Set(ctx context.Context, q store.Querier, path string, op permission.Operation, entry permission.Entry) error {
	checker := permission.NewChecker(store.TxSource{Q: q})
	if err := checker.ValidateExceptions(ctx, op, entry.Exceptions, a.anonymousID); err != nil {
		return err
	}
	if isNamespaceOperation(op) {
		rows, err := store.GetNamespacesByPath(ctx, q, []string{path})
		if err != nil {
			return err
		}
		ns, ok := rows[path]
		if !ok {
			return models.NewPathError(models.KindUnknownNamespace, path, "namespace %q does not exist", path)
		}
		return store.PutOneNamespacePermission(ctx, q, ns.ID, op, entry)
	}
	rows, err := store.GetTagsByPath(ctx, q, []string{path})
	if err != nil {
		return err
	}
	tag, ok := rows[path]
	if !ok {
		return models.NewPathError(models.KindUnknownTag, path, "tag %q does not exist", path)
	}
	return store.PutOneTagPermission(ctx, q, tag.ID, op, entry)
}

// isNamespaceOperation mirrors permission.isNamespaceOp, which is
// unexported: PermissionAPI needs to route a (path, op) pair to the
// namespace or tag permission table before ValidateExceptions/Checker
// involvement, so it keeps its own copy of the same closed switch.
func isNamespaceOperation(op permission.Operation) bool {
	switch op {
	case permission.CreateNamespace, permission.UpdateNamespace, permission.DeleteNamespace,
		permission.ListNamespace, permission.ControlNamespace:
		return true
	}
	return false
}
