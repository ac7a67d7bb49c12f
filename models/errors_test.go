package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsNesting(t *testing.T) {
	inner := NewError(KindUnknownTag, "tag %q does not exist", "alice/missing")
	wrapped := fmt.Errorf("request failed: %w", inner)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindUnknownTag, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorsIsMatchesOnKind(t *testing.T) {
	err := NewPathError(KindDuplicatePath, "alice/books", "namespace %q exists", "alice/books")
	assert.True(t, errors.Is(err, &Error{Kind: KindDuplicatePath}))
	assert.False(t, errors.Is(err, &Error{Kind: KindUnknownPath}))
}

func TestPermissionDeniedCarriesPayload(t *testing.T) {
	denied := []PermissionCheck{{Path: "alice/books/rating", Operation: "READ_TAG_VALUE"}}
	err := NewPermissionDenied("bob", denied)

	assert.Equal(t, KindPermissionDenied, err.Kind)
	assert.Equal(t, denied, err.Denied)
	assert.Contains(t, err.Error(), "bob")
}

func TestParsePolicy(t *testing.T) {
	open, err := ParsePolicy("OPEN")
	require.NoError(t, err)
	assert.Equal(t, PolicyOpen, open)

	closed, err := ParsePolicy("CLOSED")
	require.NoError(t, err)
	assert.Equal(t, PolicyClosed, closed)

	_, err = ParsePolicy("ajar")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidPolicy, kind)
}

func TestNewOpaqueValueDerivesIdentity(t *testing.T) {
	v := NewOpaqueValue("text/plain", []byte("hello"))
	require.Equal(t, KindOpaque, v.Kind)
	assert.Equal(t, int64(5), v.Opaque.Size)
	// sha256("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", v.Opaque.SHA256)
	assert.Equal(t, []byte("hello"), v.Opaque.Content)

	// Identical contents share one content-addressed identity.
	again := NewOpaqueValue("application/octet-stream", []byte("hello"))
	assert.Equal(t, v.Opaque.SHA256, again.Opaque.SHA256)
}
