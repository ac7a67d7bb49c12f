package permission_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"fluidinfo/models"
	"fluidinfo/permission"
)

// fakeSource is a minimal in-memory permission.Source for unit tests.
type fakeSource struct {
	namespaces map[string]permission.Set
	tags       map[string]permission.Set
	users      map[string]models.User
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		namespaces: map[string]permission.Set{},
		tags:       map[string]permission.Set{},
		users:      map[string]models.User{},
	}
}

func (f *fakeSource) NamespacePermissions(_ context.Context, paths []string) (map[string]permission.Set, error) {
	out := map[string]permission.Set{}
	for _, p := range paths {
		if s, ok := f.namespaces[p]; ok {
			out[p] = s
		}
	}
	return out, nil
}

func (f *fakeSource) TagPermissions(_ context.Context, paths []string) (map[string]permission.Set, error) {
	out := map[string]permission.Set{}
	for _, p := range paths {
		if s, ok := f.tags[p]; ok {
			out[p] = s
		}
	}
	return out, nil
}

func (f *fakeSource) NamespaceExists(_ context.Context, path string) (bool, error) {
	_, ok := f.namespaces[path]
	return ok, nil
}

func (f *fakeSource) TagExists(_ context.Context, path string) (bool, error) {
	_, ok := f.tags[path]
	return ok, nil
}

func (f *fakeSource) UsersByID(_ context.Context, ids []string) (map[string]models.User, error) {
	out := map[string]models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func TestAnonymousDeniedOutsideAllowedSet(t *testing.T) {
	src := newFakeSource()
	src.namespaces["alice/books"] = permission.DefaultNamespaceSet(uuid.NewString())
	checker := permission.NewChecker(src)

	anon := models.User{ID: uuid.New(), Role: models.RoleAnonymous}
	for _, op := range []permission.Operation{
		permission.CreateNamespace, permission.UpdateNamespace, permission.DeleteNamespace, permission.ControlNamespace,
	} {
		denied, err := checker.Check(context.Background(), anon, []permission.Check{{Path: "alice/books", Op: op}})
		require.NoError(t, err)
		require.Len(t, denied, 1, "op %s should be denied for ANONYMOUS", op)
	}

	denied, err := checker.Check(context.Background(), anon, []permission.Check{{Path: "alice/books", Op: permission.ListNamespace}})
	require.NoError(t, err)
	require.Empty(t, denied, "LIST_NAMESPACE is in the anonymous-allowed set")
}

func TestSuperuserAlwaysAllowed(t *testing.T) {
	src := newFakeSource()
	src.namespaces["alice/books"] = permission.DefaultNamespaceSet(uuid.NewString())
	checker := permission.NewChecker(src)

	su := models.User{ID: uuid.New(), Role: models.RoleSuperuser}
	denied, err := checker.Check(context.Background(), su, []permission.Check{{Path: "alice/books", Op: permission.DeleteNamespace}})
	require.NoError(t, err)
	require.Empty(t, denied)
}

func TestCreatorRetainsUseAfterDefaultCreate(t *testing.T) {
	creator := models.User{ID: uuid.New(), Role: models.RoleUser, Username: "alice"}
	src := newFakeSource()
	src.namespaces["alice/books"] = permission.DefaultNamespaceSet(creator.ID.String())
	checker := permission.NewChecker(src)

	denied, err := checker.Check(context.Background(), creator, []permission.Check{
		{Path: "alice/books", Op: permission.UpdateNamespace},
		{Path: "alice/books", Op: permission.DeleteNamespace},
	})
	require.NoError(t, err)
	require.Empty(t, denied, "creator must retain use of what they created")
}

func TestSetClosedEmptyExceptionsDeniesEveryone(t *testing.T) {
	src := newFakeSource()
	src.namespaces["alice/books"] = permission.Set{
		permission.UpdateNamespace: {Policy: models.PolicyClosed},
	}
	checker := permission.NewChecker(src)

	u := models.User{ID: uuid.New(), Role: models.RoleUser}
	denied, err := checker.Check(context.Background(), u, []permission.Check{{Path: "alice/books", Op: permission.UpdateNamespace}})
	require.NoError(t, err)
	require.Len(t, denied, 1)
}

func TestUnknownNamespaceRaisesError(t *testing.T) {
	src := newFakeSource()
	checker := permission.NewChecker(src)
	u := models.User{ID: uuid.New(), Role: models.RoleUser}

	_, err := checker.Check(context.Background(), u, []permission.Check{{Path: "bob/missing", Op: permission.ControlNamespace}})
	require.Error(t, err)
	kind, ok := models.KindOf(err)
	require.True(t, ok)
	require.Equal(t, models.KindUnknownNamespace, kind)
}
