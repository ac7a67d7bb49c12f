package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Role is a user's authority level, consulted by the permission engine
// before any stored policy.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleUserManager
	RoleSuperuser
)

func (r Role) String() string {
	switch r {
	case RoleAnonymous:
		return "ANONYMOUS"
	case RoleUser:
		return "USER"
	case RoleUserManager:
		return "USER_MANAGER"
	case RoleSuperuser:
		return "SUPERUSER"
	default:
		return "UNKNOWN"
	}
}

// User is an account, itself backed by a Fluidinfo object whose root
// Namespace path equals its username.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Role         Role
	ObjectID     uuid.UUID
	CreatedAt    time.Time
}

// Namespace is a container for child namespaces and tags, with its own
// permission row. Description is not a Namespace column: it is
// the value of the namespace's own fluiddb/namespaces/description
// TagValue, joined in by modelapi.NamespaceAPI.get when requested.
type Namespace struct {
	ID        uuid.UUID
	Path      string
	Name      string
	CreatorID uuid.UUID
	ParentID  *uuid.UUID
	ObjectID  uuid.UUID
	CreatedAt time.Time
}

// Tag is the schema/path of a typed attribute, independent of any
// particular value.
type Tag struct {
	ID          uuid.UUID
	Path        string
	Name        string
	NamespaceID uuid.UUID
	CreatorID   uuid.UUID
	ObjectID    uuid.UUID
	Description string
	CreatedAt   time.Time
}

// ValueKind discriminates the Value tagged union.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSet
	KindOpaque
)

// Opaque carries the metadata of an opaque (binary) value; the content
// itself lives in the OpaqueValue table, addressed by SHA256. Content is
// only populated on the write path (a set carrying a fresh payload) and
// on reads that explicitly fetch the body; plain value reads return
// metadata only.
type Opaque struct {
	MimeType string
	Size     int64
	SHA256   string
	Content  []byte
}

// Value is a typed TagValue payload. Exactly one of the Kind-selected
// fields is meaningful; Decode/Encode at the store and index boundaries
// switch on Kind rather than on Go's dynamic typing.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Set    []string
	Opaque Opaque
}

func NullValue() Value                { return Value{Kind: KindNull} }
func BoolValue(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value          { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value      { return Value{Kind: KindString, Str: s} }
func SetValue(s []string) Value       { return Value{Kind: KindSet, Set: s} }
func OpaqueValueOf(o Opaque) Value    { return Value{Kind: KindOpaque, Opaque: o} }

// NewOpaqueValue builds the write-path form of an opaque value from its
// raw payload: size and content hash are derived here, once, so every
// layer below works with the content-addressed identity.
func NewOpaqueValue(mimeType string, contents []byte) Value {
	sum := sha256.Sum256(contents)
	return Value{Kind: KindOpaque, Opaque: Opaque{
		MimeType: mimeType,
		Size:     int64(len(contents)),
		SHA256:   hex.EncodeToString(sum[:]),
		Content:  contents,
	}}
}

// IsNumeric reports whether v's kind supports ordering comparisons
// (LT/LTE/GT/GTE), used by query/index translation: comparisons against
// non-numeric values raise SearchError rather than silently mismatching.
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// TagValue is the typed value of a given tag on a given object.
type TagValue struct {
	ObjectID  uuid.UUID
	TagID     uuid.UUID
	Value     Value
	CreatorID uuid.UUID
	CreatedAt time.Time
}

// AboutTagValue enforces the global uniqueness of the distinguished
// fluiddb/about tag.
type AboutTagValue struct {
	Value    string
	ObjectID uuid.UUID
}

// OpaqueValueRow is the content-addressed, shared storage row for opaque
// value bodies.
type OpaqueValueRow struct {
	SHA256    string
	MimeType  string
	Size      int64
	Content   []byte
	CreatedAt time.Time
}

// OpaqueValueLink joins a TagValue to the OpaqueValueRow holding its
// content; an OpaqueValueRow cannot be deleted while a link references it.
type OpaqueValueLink struct {
	ObjectID uuid.UUID
	TagID    uuid.UUID
	SHA256   string
}

// DirtyObject is an append-only log entry naming an object whose tag
// values changed and have not yet been materialized in the full-text
// index.
type DirtyObject struct {
	ObjectID uuid.UUID
	Indexed  bool
	CreatedAt time.Time
}

// Policy is a permission policy: OPEN (allow by default, deny listed) or
// CLOSED (deny by default, allow listed).
type Policy int

const (
	PolicyOpen Policy = iota
	PolicyClosed
)

func (p Policy) String() string {
	if p == PolicyOpen {
		return "OPEN"
	}
	return "CLOSED"
}

// ParsePolicy parses the wire form of a Policy, raising InvalidPolicy for
// any value outside {OPEN, CLOSED}.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "OPEN":
		return PolicyOpen, nil
	case "CLOSED":
		return PolicyClosed, nil
	default:
		return 0, NewError(KindInvalidPolicy, "unknown policy %q", s)
	}
}
