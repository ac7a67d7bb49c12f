package security

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/models"
	"fluidinfo/permission"
	"fluidinfo/query"
	"fluidinfo/search"
	"fluidinfo/store"
)

// Search authorizes and delegates a batched query resolution: every tag
// path referenced by any of the queries needs READ_TAG_VALUE, then the whole batch
// runs through the search engine.
func (s *Security) Search(ctx context.Context, q store.Querier, user models.User, engine *search.Engine, queries []string, opts search.Options) (map[string][]uuid.UUID, error) {
	seen := map[string]bool{}
	var checks []permission.Check
	for _, text := range queries {
		node, err := query.Parse(text)
		if err != nil {
			return nil, err
		}
		if err := query.Validate(node); err != nil {
			return nil, err
		}
		for _, p := range query.Paths(node) {
			if !seen[p] {
				seen[p] = true
				checks = append(checks, permission.Check{Path: p, Op: permission.ReadTagValue})
			}
		}
	}
	if err := s.authorize(ctx, user, checks); err != nil {
		return nil, err
	}
	return engine.Search(ctx, queries, opts)
}
