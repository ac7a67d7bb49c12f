package permission

import (
	"context"

	"fluidinfo/models"
	fpath "fluidinfo/path"
)

// Check names one (path, operation) pair to evaluate. Path is "" for the
// root namespace and for User/Global operations, which are not path-scoped.
type Check struct {
	Path string
	Op   Operation
}

// Source is the read side a Checker needs from the main store: loading
// permission rows and resolving path existence. store.Store satisfies
// this interface structurally; permission never imports store, keeping
// the dependency direction store -> permission -> modelapi.
type Source interface {
	// NamespacePermissions loads the permission Set for each existing
	// namespace path in paths. Missing paths are simply absent from the
	// result map.
	NamespacePermissions(ctx context.Context, paths []string) (map[string]Set, error)

	// TagPermissions loads the permission Set for each existing tag path
	// in paths, keyed by the Tag's own path.
	TagPermissions(ctx context.Context, paths []string) (map[string]Set, error)

	// NamespaceExists reports whether a namespace at path exists.
	NamespaceExists(ctx context.Context, path string) (bool, error)

	// TagExists reports whether a tag at path exists.
	TagExists(ctx context.Context, path string) (bool, error)

	// UsersByID loads users for exception-membership validation,
	// keyed by ID string. Missing IDs are simply absent from the result.
	UsersByID(ctx context.Context, ids []string) (map[string]models.User, error)
}

// Checker evaluates permission checks in a fixed order:
// role shortcuts first, then the implicit-creation walk, then stored
// policy+exceptions. Each Check loads permission rows with one Source
// call for namespace paths and one for tag paths; existence checks and
// the implicit-creation walk add Source calls per checked path, and
// Check loads no users.
type Checker struct {
	source Source
}

// NewChecker builds a Checker backed by source.
func NewChecker(source Source) *Checker {
	return &Checker{source: source}
}

// Check is the batch check interface:
// checkPermissions(user, [(path, op), ...]) -> [denied (path, op), ...].
// A returned error (as opposed to a non-empty denied list) means a
// referenced path does not exist and no implicit-creation rule covers it
// (UnknownPath/UnknownNamespace/UnknownTag).
func (c *Checker) Check(ctx context.Context, user models.User, checks []Check) ([]models.PermissionCheck, error) {
	nsPaths, tagPaths := c.partitionPaths(checks)

	nsPerms, err := c.source.NamespacePermissions(ctx, nsPaths)
	if err != nil {
		return nil, err
	}
	tagPerms, err := c.source.TagPermissions(ctx, tagPaths)
	if err != nil {
		return nil, err
	}

	var denied []models.PermissionCheck
	for _, chk := range checks {
		allowed, err := c.evaluate(ctx, user, chk, nsPerms, tagPerms)
		if err != nil {
			return nil, err
		}
		if !allowed {
			denied = append(denied, models.PermissionCheck{Path: chk.Path, Operation: string(chk.Op)})
		}
	}
	return denied, nil
}

// partitionPaths splits the distinct paths referenced by checks into the
// namespace-keyed and tag-keyed sets the Source loads separately.
func (c *Checker) partitionPaths(checks []Check) (nsPaths, tagPaths []string) {
	nsSeen := map[string]bool{}
	tagSeen := map[string]bool{}
	for _, chk := range checks {
		if chk.Path == "" {
			continue
		}
		if isNamespaceOp(chk.Op) {
			if !nsSeen[chk.Path] {
				nsSeen[chk.Path] = true
				nsPaths = append(nsPaths, chk.Path)
			}
		} else if isTagOp(chk.Op) {
			if !tagSeen[chk.Path] {
				tagSeen[chk.Path] = true
				tagPaths = append(tagPaths, chk.Path)
			}
		}
	}
	return nsPaths, tagPaths
}

func isNamespaceOp(op Operation) bool {
	switch op {
	case CreateNamespace, UpdateNamespace, DeleteNamespace, ListNamespace, ControlNamespace:
		return true
	}
	return false
}

func isTagOp(op Operation) bool {
	switch op {
	case UpdateTag, DeleteTag, ControlTag, WriteTagValue, ReadTagValue, DeleteTagValue, ControlTagValue:
		return true
	}
	return false
}

// evaluate applies role shortcuts, then the implicit-creation walk, then
// the stored permission set, in that order.
func (c *Checker) evaluate(ctx context.Context, user models.User, chk Check, nsPerms, tagPerms map[string]Set) (bool, error) {
	// fluiddb/id is a virtual tag: READ_TAG_VALUE on it always succeeds.
	if chk.Op == ReadTagValue && chk.Path == "fluiddb/id" {
		return true, nil
	}

	if allowed, handled := c.roleShortcut(user, chk); handled {
		return allowed, nil
	}

	if user.Role == models.RoleSuperuser {
		return c.superuserPathExists(ctx, chk)
	}

	switch chk.Op {
	case WriteTagValue:
		exists, err := c.source.TagExists(ctx, chk.Path)
		if err != nil {
			return false, err
		}
		if !exists {
			return c.checkImplicitCreate(ctx, user, chk.Path)
		}
	case CreateNamespace:
		if chk.Path == "" {
			return false, nil // root CREATE_NAMESPACE denied for non-superusers
		}
		exists, err := c.source.NamespaceExists(ctx, chk.Path)
		if err != nil {
			return false, err
		}
		if !exists {
			return c.checkImplicitCreate(ctx, user, chk.Path)
		}
	case DeleteNamespace:
		if chk.Path == "" {
			return false, nil
		}
	}

	if isNamespaceOp(chk.Op) {
		set, ok := nsPerms[chk.Path]
		if !ok {
			return false, models.NewPathError(models.KindUnknownNamespace, chk.Path, "namespace %q does not exist", chk.Path)
		}
		entry, ok := set[chk.Op]
		if !ok {
			return false, nil
		}
		return entry.Allow(user.ID.String()), nil
	}
	if isTagOp(chk.Op) {
		set, ok := tagPerms[chk.Path]
		if !ok {
			return false, models.NewPathError(models.KindUnknownTag, chk.Path, "tag %q does not exist", chk.Path)
		}
		entry, ok := set[chk.Op]
		if !ok {
			return false, nil
		}
		return entry.Allow(user.ID.String()), nil
	}

	// Non-path-scoped operation with no role shortcut applicable:
	// User/Global operations are all handled by roleShortcut above.
	return false, nil
}

// superuserPathExists implements "path must still exist except where
// implicit-creation would cover it" for SUPERUSER: a
// superuser bypasses stored policy entirely, but a reference to a
// genuinely nonexistent path with no viable ancestor still fails.
func (c *Checker) superuserPathExists(ctx context.Context, chk Check) (bool, error) {
	switch chk.Op {
	case WriteTagValue:
		exists, err := c.source.TagExists(ctx, chk.Path)
		if err != nil || exists {
			return true, err
		}
		return c.nearestAncestorExists(ctx, chk.Path)
	case CreateNamespace:
		if chk.Path == "" {
			return true, nil // SUPERUSER may create top-level namespaces
		}
		exists, err := c.source.NamespaceExists(ctx, chk.Path)
		if err != nil || exists {
			return true, err
		}
		return c.nearestAncestorExists(ctx, chk.Path)
	default:
		return true, nil
	}
}

func (c *Checker) nearestAncestorExists(ctx context.Context, pathStr string) (bool, error) {
	p, err := fpath.Parse(pathStr)
	if err != nil {
		return false, err
	}
	ancestors := p.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		exists, err := c.source.NamespaceExists(ctx, ancestors[i].String())
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, models.NewPathError(models.KindUnknownPath, pathStr, "no existing ancestor namespace for %q", pathStr)
}

// checkImplicitCreate implements the implicit-creation rule: walk
// up to the nearest existing ancestor namespace; allow if the user has
// CREATE_NAMESPACE there; raise UnknownPath if no ancestor exists.
func (c *Checker) checkImplicitCreate(ctx context.Context, user models.User, pathStr string) (bool, error) {
	p, err := fpath.Parse(pathStr)
	if err != nil {
		return false, err
	}
	ancestors := p.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		anc := ancestors[i]
		exists, err := c.source.NamespaceExists(ctx, anc.String())
		if err != nil {
			return false, err
		}
		if !exists {
			continue
		}
		denied, err := c.Check(ctx, user, []Check{{Path: anc.String(), Op: CreateNamespace}})
		if err != nil {
			return false, err
		}
		return len(denied) == 0, nil
	}
	// No existing ancestor at all: nothing can be implicitly created, so
	// the check fails with UnknownPath rather than a denial.
	return false, models.NewPathError(models.KindUnknownPath, pathStr, "no existing ancestor namespace for %q", pathStr)
}

// roleShortcut evaluates the role shortcuts, which are checked
// before any stored permission. handled is true when the role alone
// determines the outcome, without consulting stored policy.
func (c *Checker) roleShortcut(user models.User, chk Check) (allowed, handled bool) {
	switch chk.Op {
	case CreateUser:
		switch user.Role {
		case models.RoleUserManager, models.RoleSuperuser:
			return true, true
		default:
			return false, true
		}
	case UpdateUser:
		if user.Role == models.RoleUserManager || user.Role == models.RoleSuperuser {
			return true, true
		}
		if user.Role == models.RoleUser && chk.Path == user.Username {
			return true, true
		}
		if user.Role == models.RoleAnonymous {
			return false, true
		}
		return false, false // falls through to stored policy for non-owner USER
	case DeleteUser:
		if user.Role == models.RoleUserManager || user.Role == models.RoleSuperuser {
			return true, true
		}
		if user.Role == models.RoleAnonymous {
			return false, true
		}
		return false, false
	case CreateObject:
		if user.Role == models.RoleAnonymous {
			return false, true
		}
		return true, true
	}

	if user.Role == models.RoleAnonymous && !IsAnonymousAllowed(chk.Op) {
		return false, true
	}
	// SUPERUSER is deliberately NOT short-circuited here for ops other
	// than the User/Global ones above: evaluate() still needs to run
	// superuserPathExists for CREATE_NAMESPACE/WRITE_TAG_VALUE so that a
	// reference to a genuinely nonexistent path with no viable ancestor
	// still fails.
	return false, false
}
