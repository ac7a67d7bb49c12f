package index

import (
	"fmt"
	"strconv"
	"strings"

	"fluidinfo/models"
	"fluidinfo/query"
)

// FieldsFor implements the index field mapping: each (path, value)
// becomes one or more dynamic fields on the object's document.
func FieldsFor(path string, v models.Value) map[string]any {
	fields := map[string]any{}
	switch v.Kind {
	case models.KindNull:
		fields[path+"_tag_null"] = false
	case models.KindBool:
		fields[path+"_tag_bool"] = v.Bool
	case models.KindInt:
		fields[path+"_tag_number"] = v.Int
	case models.KindFloat:
		fields[path+"_tag_number"] = v.Float
	case models.KindString:
		fields[path+"_tag_raw_str"] = v.Str
		fields[path+"_tag_fts"] = v.Str
	case models.KindSet:
		fields[path+"_tag_set_str"] = v.Set
		fields[path+"_tag_fts"] = strings.Join(v.Set, " ")
	case models.KindOpaque:
		fields[path+"_tag_binary"] = v.Opaque.SHA256
	}
	return fields
}

// DocumentFor builds the complete index Document for one object: its
// dynamic per-path fields plus the `paths` field
// supporting `has <path>`.
func DocumentFor(objectID string, values map[string]models.Value) Document {
	doc := Document{"fluiddb/id": objectID}
	paths := make([]string, 0, len(values))
	for path, v := range values {
		paths = append(paths, path)
		for field, val := range FieldsFor(path, v) {
			doc[field] = val
		}
	}
	doc["paths"] = paths
	return doc
}

// TranslateOperator implements the operator translation table,
// producing the Lucene-style boolean query fragment for one AST node.
// isNumericPath reports, for a given path, whether its stored values are
// uniformly numeric; callers (search.Engine) supply it from a store
// lookup. A comparison operator against a non-numeric path raises
// SearchError rather than silently mismatching.
func TranslateOperator(node query.Node, isNumericPath func(path string) (bool, error)) (string, error) {
	switch n := node.(type) {
	case query.And:
		left, err := TranslateOperator(n.Left, isNumericPath)
		if err != nil {
			return "", err
		}
		right, err := TranslateOperator(n.Right, isNumericPath)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s AND %s)", left, right), nil
	case query.Or:
		left, err := TranslateOperator(n.Left, isNumericPath)
		if err != nil {
			return "", err
		}
		right, err := TranslateOperator(n.Right, isNumericPath)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s OR %s)", left, right), nil
	case query.Except:
		left, err := TranslateOperator(n.Left, isNumericPath)
		if err != nil {
			return "", err
		}
		right, err := TranslateOperator(n.Right, isNumericPath)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s AND NOT %s)", left, right), nil
	case query.Has:
		return fmt.Sprintf("paths:%s", escapeTerm(n.Path)), nil
	case query.Matches:
		if n.Text == "" {
			return "", models.NewError(models.KindSearchError, "matches %q: empty right-hand side has no such field present", n.Path)
		}
		field := n.Path + "_tag_fts"
		if !strings.ContainsAny(n.Text, " \t\n") {
			return fmt.Sprintf("%s:%s*", field, escapeTerm(n.Text)), nil
		}
		return fmt.Sprintf("%s:%s", field, escapeTerm(n.Text)), nil
	case query.Contains:
		return fmt.Sprintf("%s_tag_set_str:%s", n.Path, escapeTerm(n.Text)), nil
	case query.Cmp:
		return translateCmp(n, isNumericPath)
	default:
		return "", models.NewError(models.KindSearchError, "unsupported query node")
	}
}

func translateCmp(n query.Cmp, isNumericPath func(path string) (bool, error)) (string, error) {
	switch n.Op {
	case query.EQ, query.NEQ:
		field, term := eqField(n)
		clause := fmt.Sprintf("%s:%s", field, term)
		if n.Op == query.NEQ {
			clause = "NOT " + clause
		}
		return clause, nil
	case query.LT, query.LTE, query.GT, query.GTE:
		if n.Literal.Kind != query.LiteralNumber {
			return "", models.NewError(models.KindSearchError,
				"%s %s: comparison operators require a numeric literal", n.Path, n.Op)
		}
		numeric, err := isNumericPath(n.Path)
		if err != nil {
			return "", err
		}
		if !numeric {
			return "", models.NewError(models.KindSearchError,
				"%s: comparison operators on a non-numeric tag are not supported", n.Path)
		}
		return rangeClause(n), nil
	default:
		return "", models.NewError(models.KindSearchError, "unsupported operator %s", n.Op)
	}
}

func eqField(n query.Cmp) (field, term string) {
	field = n.Path + "_tag_raw_str"
	switch n.Literal.Kind {
	case query.LiteralNumber:
		field = n.Path + "_tag_number"
		return field, formatNumber(n.Literal.Number)
	case query.LiteralBool:
		field = n.Path + "_tag_bool"
		return field, strconv.FormatBool(n.Literal.Bool)
	case query.LiteralNull:
		// FieldsFor indexes null values as `<path>_tag_null = false`;
		// the query side must emit the same term or `path = null` never
		// matches.
		field = n.Path + "_tag_null"
		return field, "false"
	default:
		return field, escapeTerm(n.Literal.Str)
	}
}

func rangeClause(n query.Cmp) string {
	field := n.Path + "_tag_number"
	v := formatNumber(n.Literal.Number)
	switch n.Op {
	case query.LT:
		return fmt.Sprintf("%s:{* TO %s}", field, v)
	case query.LTE:
		return fmt.Sprintf("%s:[* TO %s]", field, v)
	case query.GT:
		return fmt.Sprintf("%s:{%s TO *}", field, v)
	case query.GTE:
		return fmt.Sprintf("%s:[%s TO *]", field, v)
	}
	return ""
}

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// escapeTerm escapes Lucene's reserved characters in a term, so EQ/NEQ
// compare exact fields against an escaped term.
func escapeTerm(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '+', '-', '&', '|', '!', '(', ')', '{', '}', '[', ']', '^', '"', '~', '*', '?', ':', '\\', '/':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return `"` + b.String() + `"`
}
