package security

import (
	"context"

	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/store"
)

// controlOperation maps an operation to the CONTROL_* operation that
// governs reading or writing its permission entry.
func controlOperation(op permission.Operation) (permission.Operation, error) {
	switch op {
	case permission.CreateNamespace, permission.UpdateNamespace, permission.DeleteNamespace,
		permission.ListNamespace, permission.ControlNamespace:
		return permission.ControlNamespace, nil
	case permission.UpdateTag, permission.DeleteTag, permission.ControlTag:
		return permission.ControlTag, nil
	case permission.WriteTagValue, permission.ReadTagValue, permission.DeleteTagValue,
		permission.ControlTagValue:
		return permission.ControlTagValue, nil
	default:
		return "", models.NewError(models.KindBadRequest, "operation %q has no permission entry", op)
	}
}

// PermissionGet authorizes and delegates PermissionAPI.get: reading the
// (policy, exceptions) entry for (path, op) requires the corresponding
// CONTROL_* operation on path.
func (s *Security) PermissionGet(ctx context.Context, q store.Querier, user models.User, path string, op permission.Operation) (permission.Entry, error) {
	control, err := controlOperation(op)
	if err != nil {
		return permission.Entry{}, err
	}
	if err := s.authorize(ctx, user, []permission.Check{{Path: path, Op: control}}); err != nil {
		return permission.Entry{}, err
	}
	return s.permsAPI.Get(ctx, q, path, op)
}

// PermissionSet authorizes and delegates PermissionAPI.set, then drops
// the path's cached permission entry.
func (s *Security) PermissionSet(ctx context.Context, q store.Querier, user models.User, path string, op permission.Operation, entry permission.Entry) error {
	control, err := controlOperation(op)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, user, []permission.Check{{Path: path, Op: control}}); err != nil {
		return err
	}
	if err := s.permsAPI.Set(ctx, q, path, op, entry); err != nil {
		return err
	}
	if control == permission.ControlNamespace {
		s.cache.InvalidateNamespacePermission(ctx, path)
	} else {
		s.cache.InvalidateTagPermission(ctx, path)
	}
	return nil
}
