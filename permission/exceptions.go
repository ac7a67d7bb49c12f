package permission

import (
	"context"

	"fluidinfo/models"
)

// ValidateExceptions enforces the exception-list rules applied on every
// permission write: every exception-list member must exist,
// must not be SUPERUSER, and if ANONYMOUS must only appear for an
// operation in the anonymous-allowed set.
func (c *Checker) ValidateExceptions(ctx context.Context, op Operation, exceptionIDs []string, anonymousID string) error {
	if len(exceptionIDs) == 0 {
		return nil
	}
	users, err := c.source.UsersByID(ctx, exceptionIDs)
	if err != nil {
		return err
	}
	for _, id := range exceptionIDs {
		if id == anonymousID {
			if !IsAnonymousAllowed(op) {
				return models.NewError(models.KindUserNotAllowedInExcept,
					"ANONYMOUS may not appear in the exception list for %s", op)
			}
			continue
		}
		u, ok := users[id]
		if !ok {
			return models.NewError(models.KindUnknownUser, "unknown user in exception list: %s", id)
		}
		if u.Role == models.RoleSuperuser {
			return models.NewError(models.KindUserNotAllowedInExcept,
				"SUPERUSER %q may not appear in an exception list", u.Username)
		}
	}
	return nil
}
