package permission_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluidinfo/models"
	"fluidinfo/permission"
)

func TestEntryAllowPolicySemantics(t *testing.T) {
	me, other := uuid.NewString(), uuid.NewString()

	open := permission.Entry{Policy: models.PolicyOpen, Exceptions: []string{other}}
	assert.True(t, open.Allow(me))
	assert.False(t, open.Allow(other))

	closed := permission.Entry{Policy: models.PolicyClosed, Exceptions: []string{other}}
	assert.False(t, closed.Allow(me))
	assert.True(t, closed.Allow(other))
}

func TestDefaultTagSetReadOpen(t *testing.T) {
	creator := uuid.NewString()
	set := permission.DefaultTagSet(creator)

	assert.Equal(t, models.PolicyOpen, set[permission.ReadTagValue].Policy)
	assert.Empty(t, set[permission.ReadTagValue].Exceptions)
	for _, op := range []permission.Operation{
		permission.UpdateTag, permission.DeleteTag, permission.ControlTag,
		permission.WriteTagValue, permission.DeleteTagValue, permission.ControlTagValue,
	} {
		assert.Equal(t, models.PolicyClosed, set[op].Policy, "%s", op)
		assert.Equal(t, []string{creator}, set[op].Exceptions, "%s", op)
	}
}

func TestInheritTagSetMapsFromParentNamespace(t *testing.T) {
	owner, creator := uuid.NewString(), uuid.NewString()
	parent := permission.Set{
		permission.CreateNamespace:  {Policy: models.PolicyClosed, Exceptions: []string{owner}},
		permission.UpdateNamespace:  {Policy: models.PolicyClosed, Exceptions: []string{owner}},
		permission.DeleteNamespace:  {Policy: models.PolicyClosed, Exceptions: []string{owner}},
		permission.ListNamespace:    {Policy: models.PolicyOpen},
		permission.ControlNamespace: {Policy: models.PolicyClosed, Exceptions: []string{owner}},
	}

	set := permission.InheritTagSet(parent, creator)

	// WRITE_TAG_VALUE comes from the parent's CREATE_NAMESPACE, with the
	// creator appended to the closed exception list.
	assert.Equal(t, models.PolicyClosed, set[permission.WriteTagValue].Policy)
	assert.ElementsMatch(t, []string{owner, creator}, set[permission.WriteTagValue].Exceptions)

	// READ_TAG_VALUE comes from the parent's LIST_NAMESPACE; open, so the
	// creator must not sit in the exception list.
	assert.Equal(t, models.PolicyOpen, set[permission.ReadTagValue].Policy)
	assert.NotContains(t, set[permission.ReadTagValue].Exceptions, creator)

	assert.Equal(t, models.PolicyClosed, set[permission.ControlTagValue].Policy)
	assert.ElementsMatch(t, []string{owner, creator}, set[permission.ControlTagValue].Exceptions)
}

func TestInheritNamespaceSetCopiesParentVerbatim(t *testing.T) {
	owner, creator := uuid.NewString(), uuid.NewString()
	parent := permission.DefaultNamespaceSet(owner)

	set := permission.InheritNamespaceSet(parent, creator)

	assert.Equal(t, models.PolicyOpen, set[permission.ListNamespace].Policy)
	assert.ElementsMatch(t, []string{owner, creator}, set[permission.CreateNamespace].Exceptions)

	// The copy must be deep: mutating the child cannot leak upward.
	set[permission.CreateNamespace].Exceptions[0] = "mutated"
	assert.Equal(t, []string{owner}, parent[permission.CreateNamespace].Exceptions)
}

func TestImplicitCreateWalksToNearestAncestor(t *testing.T) {
	creator := models.User{ID: uuid.New(), Role: models.RoleUser, Username: "alice"}
	src := newFakeSource()
	src.namespaces["alice"] = permission.DefaultNamespaceSet(creator.ID.String())
	checker := permission.NewChecker(src)

	// alice/books/rating does not exist, nor does alice/books; alice does,
	// and the creator holds CREATE_NAMESPACE there.
	denied, err := checker.Check(context.Background(), creator, []permission.Check{
		{Path: "alice/books/rating", Op: permission.WriteTagValue},
	})
	require.NoError(t, err)
	assert.Empty(t, denied)

	// A stranger without CREATE_NAMESPACE on alice is denied, not errored.
	stranger := models.User{ID: uuid.New(), Role: models.RoleUser, Username: "bob"}
	denied, err = checker.Check(context.Background(), stranger, []permission.Check{
		{Path: "alice/books/rating", Op: permission.WriteTagValue},
	})
	require.NoError(t, err)
	assert.Len(t, denied, 1)
}

func TestImplicitCreateNoAncestorRaisesUnknownPath(t *testing.T) {
	checker := permission.NewChecker(newFakeSource())
	u := models.User{ID: uuid.New(), Role: models.RoleUser, Username: "alice"}

	_, err := checker.Check(context.Background(), u, []permission.Check{
		{Path: "ghost/tag", Op: permission.WriteTagValue},
	})
	require.Error(t, err)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindUnknownPath, kind)
}

func TestValidateExceptions(t *testing.T) {
	src := newFakeSource()
	su := models.User{ID: uuid.New(), Username: "fluiddb", Role: models.RoleSuperuser}
	regular := models.User{ID: uuid.New(), Username: "alice", Role: models.RoleUser}
	anonID := uuid.NewString()
	src.users[su.ID.String()] = su
	src.users[regular.ID.String()] = regular
	checker := permission.NewChecker(src)
	ctx := context.Background()

	assert.NoError(t, checker.ValidateExceptions(ctx, permission.WriteTagValue, []string{regular.ID.String()}, anonID))

	err := checker.ValidateExceptions(ctx, permission.WriteTagValue, []string{su.ID.String()}, anonID)
	kind, _ := models.KindOf(err)
	assert.Equal(t, models.KindUserNotAllowedInExcept, kind)

	// ANONYMOUS may appear only for the anonymous-allowed set.
	assert.NoError(t, checker.ValidateExceptions(ctx, permission.ReadTagValue, []string{anonID}, anonID))
	err = checker.ValidateExceptions(ctx, permission.WriteTagValue, []string{anonID}, anonID)
	kind, _ = models.KindOf(err)
	assert.Equal(t, models.KindUserNotAllowedInExcept, kind)

	err = checker.ValidateExceptions(ctx, permission.WriteTagValue, []string{uuid.NewString()}, anonID)
	kind, _ = models.KindOf(err)
	assert.Equal(t, models.KindUnknownUser, kind)
}
