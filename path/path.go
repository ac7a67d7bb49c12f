// Package path provides path and identity utilities for Fluidinfo.
//
// Every Namespace and Tag lives under a slash-separated path whose first
// segment is an existing username; every About-value and username has its
// own small grammar. This package centralizes parsing and validation so
// every other layer (store, permission, modelapi, search) agrees on what a
// valid path, username, or about-string looks like.
package path

import (
	"strings"

	"fluidinfo/models"
)

// maxLength is the maximum encoded length of a path
// invariant 3.
const maxLength = 233

// Path is a parsed, validated slash-separated path such as
// "alice/books/rating". The zero value is not a valid Path; construct one
// with Parse.
type Path struct {
	segments []string
}

// Parse validates s against the path grammar:
//   - 1..233 characters total
//   - each '/'-separated segment matches [A-Za-z0-9_.:\-]+
//   - the first segment is lowercase
//
// It does not check that the first segment names an existing user — that
// requires a store lookup and is the caller's responsibility.
func Parse(s string) (Path, error) {
	if len(s) == 0 || len(s) > maxLength {
		return Path{}, models.NewPathError(models.KindMalformedPath, s,
			"path must be 1..%d characters, got %d", maxLength, len(s))
	}
	segments := strings.Split(s, "/")
	for _, seg := range segments {
		if !isValidSegment(seg) {
			return Path{}, models.NewPathError(models.KindMalformedPath, s,
				"invalid path segment %q", seg)
		}
	}
	if segments[0] != strings.ToLower(segments[0]) {
		return Path{}, models.NewPathError(models.KindInvalidPath, s,
			"first path segment %q must be lowercase", segments[0])
	}
	return Path{segments: segments}, nil
}

// MustParse is Parse for paths known to be valid, such as compile-time
// constants and system tag paths. It panics on invalid input.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func isValidSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}

// String returns the slash-joined path.
func (p Path) String() string { return strings.Join(p.segments, "/") }

// Name returns the final segment of the path (the entity's own name,
// distinct from its containing namespace).
func (p Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path's containing namespace and true, or the zero
// Path and false if p is already a root (single-segment) path.
func (p Path) Parent() (Path, bool) {
	if len(p.segments) <= 1 {
		return Path{}, false
	}
	return Path{segments: append([]string{}, p.segments[:len(p.segments)-1]...)}, true
}

// Depth returns the number of '/'-separated segments.
func (p Path) Depth() int { return len(p.segments) }

// Ancestors returns p's chain of ancestor paths, root-first, not
// including p itself. Used by the implicit-creation walk and by
// NamespaceAPI.create's "create missing ancestors" behavior.
func (p Path) Ancestors() []Path {
	var out []Path
	cur := p
	for {
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		out = append([]Path{parent}, out...)
		cur = parent
	}
	return out
}

// IsRoot reports whether p is a single-segment (root namespace) path.
func (p Path) IsRoot() bool { return len(p.segments) == 1 }

// ValidateUsername checks s against the same grammar as a single path
// segment, additionally requiring lowercase (a username
// "matches the same grammar as a path segment").
func ValidateUsername(s string) error {
	if !isValidSegment(s) {
		return models.NewError(models.KindInvalidUsername, "invalid username %q", s)
	}
	if s != strings.ToLower(s) {
		return models.NewError(models.KindInvalidUsername, "username %q must be lowercase", s)
	}
	return nil
}

// looksLikeURL reports whether s carries a "scheme://" prefix, the
// signal ObjectAPI.create uses to decide whether an about-value
// is kept byte-identical rather than case-folded.
func looksLikeURL(s string) bool {
	idx := strings.Index(s, "://")
	if idx <= 0 {
		return false
	}
	scheme := s[:idx]
	for _, r := range scheme {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '+' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}

// NormalizeAbout implements the about-value comparison rule:
// about-values are compared case-folded, except values that look like
// URLs, which are kept byte-identical. The returned string is the key
// used for AboutTagValue uniqueness and about:<value> cache lookups.
func NormalizeAbout(s string) string {
	if looksLikeURL(s) {
		return s
	}
	return strings.ToLower(s)
}

// AboutForNamespace returns the canonical fluiddb/about value for a
// Namespace's backing object.
func AboutForNamespace(p Path) string { return "Object for the namespace " + p.String() }

// AboutForTag returns the canonical fluiddb/about value for a Tag's
// backing object.
func AboutForTag(p Path) string { return "Object for the attribute " + p.String() }

// AboutForUser returns the canonical fluiddb/about value for a User's
// backing object.
func AboutForUser(username string) string { return "@" + username }
