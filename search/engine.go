// Package search implements Object Search:
// each query is parsed, validated, and classified onto one of three main
// store fast paths (`fluiddb/about` equality, `fluiddb/id` equality,
// `has <path>`) or translated into a Lucene-style boolean query executed
// against the external full-text index.
package search

import (
	"context"

	"github.com/google/uuid"

	"fluidinfo/index"
	"fluidinfo/logger"
	"fluidinfo/models"
	"fluidinfo/query"
)

// Resolver is the main-store read side the fast paths need. store-backed
// in production (StoreResolver); faked in tests.
type Resolver interface {
	// ObjectByAbout resolves a normalized about-value, ok=false if unused.
	ObjectByAbout(ctx context.Context, about string) (uuid.UUID, bool, error)

	// CreateObject allocates (or re-resolves) the object for an
	// about-value, used when the caller asked for implicit creation on an
	// unmatched `fluiddb/about = "x"` query.
	CreateObject(ctx context.Context, about string) (uuid.UUID, error)

	// ObjectIDsWithPath lists objects carrying any value for the tag at
	// path, truncated at limit; truncated reports whether the cap was hit.
	// A nonexistent path raises UnknownTag.
	ObjectIDsWithPath(ctx context.Context, path string, limit int) (ids []uuid.UUID, truncated bool, err error)

	// PathIsNumeric reports whether every stored value for path is
	// numeric, gating range-operator translation.
	PathIsNumeric(ctx context.Context, path string) (bool, error)
}

// Index is the full-text side of query execution, satisfied by
// *index.Client.
type Index interface {
	Query(ctx context.Context, luceneQuery string) ([]uuid.UUID, error)
}

const (
	aboutPath = "fluiddb/about"
	idPath    = "fluiddb/id"
)

// Engine classifies and executes a set of queries.
type Engine struct {
	resolver Resolver
	index    Index
	hasCap   int
}

// New builds an Engine. hasCap is the `has <path>` result cap.
func New(resolver Resolver, idx Index, hasCap int) *Engine {
	return &Engine{resolver: resolver, index: idx, hasCap: hasCap}
}

// Options tunes one Search call.
type Options struct {
	// CreateMissingAbout makes an unmatched `fluiddb/about = "x"` query
	// allocate the object instead of returning the empty set.
	CreateMissingAbout bool
}

// Search executes each query text and combines all results into the
// {query: set(objectID)} mapping. Fast-path queries never touch
// the index; everything else is translated and executed against it.
func (e *Engine) Search(ctx context.Context, queries []string, opts Options) (map[string][]uuid.UUID, error) {
	if len(queries) == 0 {
		return nil, models.NewError(models.KindFeatureError, "empty query batch")
	}
	out := make(map[string][]uuid.UUID, len(queries))
	for _, text := range queries {
		node, err := query.Parse(text)
		if err != nil {
			return nil, err
		}
		if err := query.Validate(node); err != nil {
			return nil, err
		}
		ids, err := e.execute(ctx, node, opts)
		if err != nil {
			return nil, err
		}
		out[text] = ids
	}
	return out, nil
}

func (e *Engine) execute(ctx context.Context, node query.Node, opts Options) ([]uuid.UUID, error) {
	switch n := node.(type) {
	case query.Cmp:
		if n.Op == query.EQ && n.Path == aboutPath {
			return e.aboutFastPath(ctx, n, opts)
		}
		if n.Op == query.EQ && n.Path == idPath {
			return idFastPath(n)
		}
	case query.Has:
		return e.hasFastPath(ctx, n)
	}
	return e.indexQuery(ctx, node)
}

// aboutFastPath resolves `fluiddb/about = "x"` from the AboutTagValue
// table, never the index: the result is {id(x)} or the empty set.
func (e *Engine) aboutFastPath(ctx context.Context, n query.Cmp, opts Options) ([]uuid.UUID, error) {
	if n.Literal.Kind != query.LiteralString {
		return nil, models.NewError(models.KindSearchError, "fluiddb/about comparisons require a string literal")
	}
	id, ok, err := e.resolver.ObjectByAbout(ctx, n.Literal.Str)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !opts.CreateMissingAbout {
			return nil, nil
		}
		id, err = e.resolver.CreateObject(ctx, n.Literal.Str)
		if err != nil {
			return nil, err
		}
	}
	return []uuid.UUID{id}, nil
}

// idFastPath resolves `fluiddb/id = "u"`: parse the UUID and return it,
// or SearchError on malformed input. No storage involved.
func idFastPath(n query.Cmp) ([]uuid.UUID, error) {
	if n.Literal.Kind != query.LiteralString {
		return nil, models.NewError(models.KindSearchError, "fluiddb/id comparisons require a string literal")
	}
	id, err := uuid.Parse(n.Literal.Str)
	if err != nil {
		return nil, models.Wrap(models.KindSearchError, err, "fluiddb/id = %q: not a valid object id", n.Literal.Str)
	}
	return []uuid.UUID{id}, nil
}

// hasFastPath resolves `has <path>` from the main store, capped at
// e.hasCap. A truncated result is logged, not an error.
func (e *Engine) hasFastPath(ctx context.Context, n query.Has) ([]uuid.UUID, error) {
	ids, truncated, err := e.resolver.ObjectIDsWithPath(ctx, n.Path, e.hasCap)
	if err != nil {
		return nil, err
	}
	if truncated {
		logger.Warn("search: has %s truncated at %d object(s)", n.Path, e.hasCap)
	}
	return ids, nil
}

func (e *Engine) indexQuery(ctx context.Context, node query.Node) ([]uuid.UUID, error) {
	lucene, err := index.TranslateOperator(node, func(path string) (bool, error) {
		return e.resolver.PathIsNumeric(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return e.index.Query(ctx, lucene)
}
