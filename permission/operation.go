// Package permission implements Fluidinfo's permission engine:
// per-path policies with exception lists, anonymous/user/superuser roles,
// inheritance on create, and the two-tier check every read and write goes
// through.
package permission

import "fluidinfo/models"

// Operation enumerates every checkable action. Namespace and
// Tag operations are keyed by the Namespace/Tag's own path; TagValue
// operations are keyed by the owning Tag's path; User and Global
// operations are not path-scoped.
type Operation string

const (
	// Namespace operations.
	CreateNamespace  Operation = "CREATE_NAMESPACE"
	UpdateNamespace  Operation = "UPDATE_NAMESPACE"
	DeleteNamespace  Operation = "DELETE_NAMESPACE"
	ListNamespace    Operation = "LIST_NAMESPACE"
	ControlNamespace Operation = "CONTROL_NAMESPACE"

	// Tag operations.
	UpdateTag  Operation = "UPDATE_TAG"
	DeleteTag  Operation = "DELETE_TAG"
	ControlTag Operation = "CONTROL_TAG"

	// TagValue operations (keyed by the owning Tag's path).
	WriteTagValue   Operation = "WRITE_TAG_VALUE"
	ReadTagValue    Operation = "READ_TAG_VALUE"
	DeleteTagValue  Operation = "DELETE_TAG_VALUE"
	ControlTagValue Operation = "CONTROL_TAG_VALUE"

	// User operations (not path-scoped).
	CreateUser Operation = "CREATE_USER"
	DeleteUser Operation = "DELETE_USER"
	UpdateUser Operation = "UPDATE_USER"

	// Global operations.
	CreateObject Operation = "CREATE_OBJECT"
)

// namespaceOperations lists every operation defined on a Namespace; used
// to populate a complete permission row set on create.
var namespaceOperations = []Operation{
	CreateNamespace, UpdateNamespace, DeleteNamespace, ListNamespace, ControlNamespace,
}

// tagOperations lists every operation defined on a Tag.
var tagOperations = []Operation{
	UpdateTag, DeleteTag, ControlTag,
	WriteTagValue, ReadTagValue, DeleteTagValue, ControlTagValue,
}

// anonymousAllowed is the anonymous-allowed set: the only
// operations ANONYMOUS may appear in an exception list for, and the only
// operations ANONYMOUS may perform without a real account.
var anonymousAllowed = map[Operation]bool{
	ListNamespace: true,
	ReadTagValue:  true,
}

// IsAnonymousAllowed reports whether op is in the anonymous-allowed set.
func IsAnonymousAllowed(op Operation) bool { return anonymousAllowed[op] }

// Entry is one (policy, exceptions) permission row for a single
// operation.
type Entry struct {
	Policy     models.Policy
	Exceptions []string // user IDs, as strings to stay storage-agnostic
}

// Allow implements the policy semantics:
//
//	allow(user, operation) =
//	    (policy == OPEN   and user.id not in exceptions) or
//	    (policy == CLOSED and user.id in exceptions)
func (e Entry) Allow(userID string) bool {
	inExceptions := false
	for _, id := range e.Exceptions {
		if id == userID {
			inExceptions = true
			break
		}
	}
	if e.Policy == models.PolicyOpen {
		return !inExceptions
	}
	return inExceptions
}

// Set is the full permission row for one path: every operation defined
// for that entity type mapped to its Entry. Every existing Namespace and
// Tag has a complete Set: all operations defined for the entity type are
// populated.
type Set map[Operation]Entry

// DefaultNamespaceSet builds the default permission set for a newly
// created Namespace: every operation CLOSED with {creator}
// except LIST_NAMESPACE which is OPEN/[].
func DefaultNamespaceSet(creatorID string) Set {
	s := make(Set, len(namespaceOperations))
	for _, op := range namespaceOperations {
		if op == ListNamespace {
			s[op] = Entry{Policy: models.PolicyOpen}
			continue
		}
		s[op] = Entry{Policy: models.PolicyClosed, Exceptions: []string{creatorID}}
	}
	return s
}

// DefaultTagSet builds the default permission set for a newly created
// Tag not inheriting from a parent: UPDATE/DELETE/CONTROL/
// WRITE_VALUE/DELETE_VALUE/CONTROL_VALUE CLOSED with {creator};
// READ_TAG_VALUE OPEN/[].
func DefaultTagSet(creatorID string) Set {
	s := make(Set, len(tagOperations))
	for _, op := range tagOperations {
		if op == ReadTagValue {
			s[op] = Entry{Policy: models.PolicyOpen}
			continue
		}
		s[op] = Entry{Policy: models.PolicyClosed, Exceptions: []string{creatorID}}
	}
	return s
}

// InheritNamespaceSet implements namespace-creation inheritance: a
// new child Namespace copies its parent's permissions verbatim, then
// re-applies the creator-retains-use fixup (a creator of a namespace
// under a CLOSED-without-creator policy must still be able to use what
// they created).
func InheritNamespaceSet(parent Set, creatorID string) Set {
	s := make(Set, len(parent))
	for op, entry := range parent {
		s[op] = cloneEntry(entry)
	}
	applyCreatorRetainsUse(s, creatorID, namespaceOperations)
	return s
}

// tagInheritanceMap is the fixed parent-namespace operation
// mapping for tag creation.
var tagInheritanceMap = map[Operation]Operation{
	UpdateTag:       CreateNamespace,
	DeleteTag:       CreateNamespace,
	WriteTagValue:   CreateNamespace,
	DeleteTagValue:  CreateNamespace,
	ReadTagValue:    ListNamespace,
	ControlTag:      ControlNamespace,
	ControlTagValue: ControlNamespace,
}

// InheritTagSet implements tag-creation inheritance: each Tag
// operation is mapped from its parent namespace's corresponding
// operation, then the creator-retains-use fixup is applied.
func InheritTagSet(parentNamespacePerms Set, creatorID string) Set {
	s := make(Set, len(tagOperations))
	for _, tagOp := range tagOperations {
		nsOp := tagInheritanceMap[tagOp]
		s[tagOp] = cloneEntry(parentNamespacePerms[nsOp])
	}
	applyCreatorRetainsUse(s, creatorID, tagOperations)
	return s
}

func cloneEntry(e Entry) Entry {
	exceptions := make([]string, len(e.Exceptions))
	copy(exceptions, e.Exceptions)
	return Entry{Policy: e.Policy, Exceptions: exceptions}
}

// applyCreatorRetainsUse is the post-inheritance fixup: the creator is
// added to the exception list of any CLOSED operation and removed from
// the exception list of any OPEN operation, so a creator can always use
// what they created.
func applyCreatorRetainsUse(s Set, creatorID string, ops []Operation) {
	for _, op := range ops {
		entry := s[op]
		if entry.Policy == models.PolicyClosed {
			if !contains(entry.Exceptions, creatorID) {
				entry.Exceptions = append(entry.Exceptions, creatorID)
			}
		} else {
			entry.Exceptions = remove(entry.Exceptions, creatorID)
		}
		s[op] = entry
	}
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
