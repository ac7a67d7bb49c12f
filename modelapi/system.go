// Package modelapi implements Fluidinfo's model APIs: the batched
// create/get/set/delete business logic for namespaces, tags,
// tag-values, permissions and objects, including
// implicit-parent creation and the system metadata every Namespace/Tag/
// User carries.
package modelapi

import (
	"context"

	"github.com/google/uuid"

	fpath "fluidinfo/path"
	"fluidinfo/store"
)

// System tag paths written automatically on every Namespace/Tag/User
// object.
const (
	TagAbout           = "fluiddb/about"
	TagNamespacesPath  = "fluiddb/namespaces/path"
	TagNamespacesDescr = "fluiddb/namespaces/description"
	TagTagsPath        = "fluiddb/tags/path"
	TagTagsDescr       = "fluiddb/tags/description"
	VirtualTagID       = "fluiddb/id"
)

// genericAncestorDescription is the description given to a Namespace
// created implicitly as a missing ancestor.
func genericAncestorDescription(path fpath.Path) string {
	return "The " + path.Name() + " namespace"
}

// ensureObjectForAbout resolves the object behind an about value,
// allocating it and claiming the AboutTagValue row if this is the first
// use. Deleting a path keeps its about value, so a
// re-created Namespace/Tag/User lands back on the same object ID.
func ensureObjectForAbout(ctx context.Context, q store.Querier, about string) (uuid.UUID, error) {
	normalized := fpath.NormalizeAbout(about)
	id, ok, err := store.GetObjectByAbout(ctx, q, normalized)
	if err != nil {
		return uuid.UUID{}, err
	}
	if ok {
		return id, nil
	}
	id = uuid.New()
	if err := store.CreateAbout(ctx, q, normalized, id); err != nil {
		return uuid.UUID{}, err
	}
	return id, nil
}
