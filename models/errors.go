// Package models provides the shared entity and value types used across
// Fluidinfo's store, permission, model-api, cache, security and facade
// layers, plus the closed error taxonomy every layer propagates.
package models

import "fmt"

// Kind identifies one of the closed taxonomy of error kinds that can cross
// a layer boundary. Every error raised by the model/cache/security/facade
// layers is, or wraps, an *Error with one of these kinds — the wire name
// used by the (out-of-scope) HTTP frontend is the Kind's string value.
type Kind string

const (
	KindUnknownPath            Kind = "UnknownPath"
	KindUnknownTag             Kind = "UnknownTag"
	KindUnknownNamespace       Kind = "UnknownNamespace"
	KindDuplicatePath          Kind = "DuplicatePath"
	KindMalformedPath          Kind = "MalformedPath"
	KindInvalidPath            Kind = "InvalidPath"
	KindNamespaceNotEmpty      Kind = "NamespaceNotEmpty"
	KindUnknownUser            Kind = "UnknownUser"
	KindInvalidUsername        Kind = "InvalidUsername"
	KindUserNotAllowedInExcept Kind = "UserNotAllowedInException"
	KindInvalidPolicy          Kind = "InvalidPolicy"
	KindPermissionDenied       Kind = "PermissionDenied"
	KindUnauthorized           Kind = "Unauthorized"
	KindBadRequest             Kind = "BadRequest"
	KindParseError             Kind = "ParseError"
	KindSearchError            Kind = "SearchError"
	KindNoInstanceOnObject     Kind = "NoInstanceOnObject"
	KindFeatureError           Kind = "FeatureError"
)

// Error is the single typed error every Fluidinfo layer raises. Kind is
// the stable over-the-wire taxonomy name; Path/Denied carry the
// payload specific forms of the taxonomy need (e.g. PermissionDenied's
// (username, [(path, operation)]) pair).
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Denied  []PermissionCheck
	cause   error
}

// PermissionCheck names one (path, operation) pair that a permission
// check rejected. It is the payload of a PermissionDenied error.
type PermissionCheck struct {
	Path      string
	Operation string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// Is allows errors.Is(err, &Error{Kind: KindX}) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an *Error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind wrapping a lower-layer cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// NewPathError builds an error carrying the offending path, so callers can
// report it without re-parsing the message.
func NewPathError(kind Kind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Path: path}
}

// NewPermissionDenied builds the payload-bearing PermissionDenied error
// payload: the acting username plus the rejected (path, op) pairs.
func NewPermissionDenied(username string, denied []PermissionCheck) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Message: fmt.Sprintf("user %q denied on %d operation(s)", username, len(denied)),
		Denied:  denied,
	}
}

// KindOf extracts the Kind of err if it is, or wraps, a *Error.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if asError(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// asError is a tiny local errors.As to avoid importing errors just for this.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
