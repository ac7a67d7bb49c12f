package query

import "fluidinfo/models"

// illegalQueryMessage prefixes the error for a query whose text parses
// but which cannot run, as distinct from a ParseError. models has no
// separate Kind for this case; it surfaces as BadRequest, the catch-all
// for semantic input errors.
const illegalQueryMessage = "query is well-formed but unexecutable"

// Validate walks node for the "well-formed but unexecutable" queries
// query text can express: `has fluiddb/about` / `has fluiddb/id`
// would each match the entire universe of objects, which is not a
// supported search.
func Validate(node Node) error {
	switch n := node.(type) {
	case Has:
		if n.Path == "fluiddb/about" || n.Path == "fluiddb/id" {
			return models.NewError(models.KindBadRequest, "%s: has %s", illegalQueryMessage, n.Path)
		}
		return nil
	case And:
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	case Or:
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	case Except:
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	default:
		return nil
	}
}
