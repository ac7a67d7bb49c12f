package modelapi

import (
	"strings"

	"fluidinfo/models"
)

// validateMimeType implements the minimal type/subtype[;params] grammar
// opaque values require before storage: a non-empty type and
// subtype separated by '/', with any ';'-separated parameters ignored
// for validation purposes beyond requiring a non-empty key on each.
func validateMimeType(mimeType string) error {
	base := mimeType
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		base = mimeType[:idx]
		for _, param := range strings.Split(mimeType[idx+1:], ";") {
			key, _, _ := strings.Cut(param, "=")
			if strings.TrimSpace(key) == "" {
				return models.NewError(models.KindBadRequest, "malformed mime-type parameter in %q", mimeType)
			}
		}
	}
	typ, subtype, ok := strings.Cut(base, "/")
	if !ok || typ == "" || subtype == "" {
		return models.NewError(models.KindBadRequest, "malformed mime-type %q, expected type/subtype", mimeType)
	}
	if !isMimeToken(typ) || !isMimeToken(subtype) {
		return models.NewError(models.KindBadRequest, "malformed mime-type %q", mimeType)
	}
	return nil
}

// isMimeToken reports whether s is a valid RFC 2045 token: no separators,
// spaces or control characters.
func isMimeToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r <= 0x20 || r == 0x7f:
			return false
		case strings.ContainsRune("()<>@,;:\\\"/[]?=", r):
			return false
		}
	}
	return true
}
