// Package querysql compiles filter trees and query configurations into
// parameterized SQLite statements over the records table.
//
// Record properties live in a JSON column and are read with json_extract.
// Comparisons call the loose comparison functions registered by the store
// (see Functions) with both sides as JSON text, so SQL results agree with
// filter.Evaluate.
package querysql

import (
	"fmt"
	"regexp"

	"github.com/huandu/go-sqlbuilder"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/value"
)

// Table layout.
const (
	Table        = "records"
	ColumnSource = "source"
	ColumnID     = "id"
	ColumnProps  = "props"
)

// Names of the SQL functions every connection must provide.
const (
	FuncEqual   = "relate_eq"
	FuncCompare = "relate_cmp"
)

var propertyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Select compiles cfg into a SELECT of (id, props) for records of source.
//
// Every query ends with ORDER BY id COLLATE BINARY so ties are resolved
// deterministically. All values are parameterized.
func Select(source string, cfg *provider.Config) (string, []any, error) {
	if cfg == nil {
		cfg = &provider.Config{}
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(ColumnID, ColumnProps).From(Table)
	sb.Where(sb.Equal(ColumnSource, source))

	if cfg.ID != "" {
		sb.Where(sb.Equal(ColumnID, cfg.ID))
	}
	if cfg.Filter != nil {
		expr, err := compileNode(sb, cfg.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.Where(expr)
	}

	order := make([]string, 0, len(cfg.Sorting)+1)
	for _, f := range cfg.Sorting {
		col, err := PropertyExpr(f.Property)
		if err != nil {
			return "", nil, fmt.Errorf("compile sorting: %w", err)
		}
		dir := f.Direction
		if dir == "" {
			dir = provider.Asc
		}
		order = append(order, fmt.Sprintf("%s %s", sqlbuilder.Escape(col), dir))
	}
	order = append(order, ColumnID+" COLLATE BINARY ASC")
	sb.OrderBy(order...)

	if cfg.Limit > 0 {
		sb.Limit(cfg.Limit)
	}

	query, args := sb.Build()
	return query, args, nil
}

// Where compiles node alone into a boolean SQL expression.
func Where(node filter.Node) (string, []any, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("1")
	expr, err := compileNode(sb, node)
	if err != nil {
		return "", nil, err
	}
	sb.Where(expr)
	query, args := sb.Build()
	return query, args, nil
}

// PropertyExpr returns the SQL expression reading property from the JSON
// column as an SQL value. Property names are restricted to identifiers.
//
// The expression contains "$" and must pass through sqlbuilder.Escape
// before it is embedded in builder text.
func PropertyExpr(property string) (string, error) {
	if !propertyPattern.MatchString(property) {
		return "", fmt.Errorf("invalid property name %q", property)
	}
	return fmt.Sprintf(`json_extract(%s, '$."%s"')`, ColumnProps, property), nil
}

// PropertyJSON returns the SQL expression reading property as JSON text,
// or NULL when it is unset. The loose comparison functions take this form
// so booleans and lists keep their type.
func PropertyJSON(property string) (string, error) {
	if !propertyPattern.MatchString(property) {
		return "", fmt.Errorf("invalid property name %q", property)
	}
	return fmt.Sprintf(`%s -> '$."%s"'`, ColumnProps, property), nil
}

func compileNode(sb *sqlbuilder.SelectBuilder, node filter.Node) (string, error) {
	switch n := node.(type) {
	case *filter.Conjunction:
		return compileConjunction(sb, n)
	case *filter.Comparison:
		return compileComparison(sb, n)
	case nil:
		return "", &filter.Error{Code: filter.ErrCodeInvalidNode, Message: "nil filter node"}
	default:
		return "", fmt.Errorf("unsupported filter node: %T", node)
	}
}

func compileConjunction(sb *sqlbuilder.SelectBuilder, n *filter.Conjunction) (string, error) {
	parts := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		expr, err := compileNode(sb, child)
		if err != nil {
			return "", err
		}
		parts = append(parts, expr)
	}

	switch n.Op {
	case filter.OpAnd:
		if len(parts) == 0 {
			return "1 = 1", nil
		}
		return sb.And(parts...), nil
	case filter.OpOr:
		if len(parts) == 0 {
			return "0 = 1", nil
		}
		return sb.Or(parts...), nil
	default:
		return "", &filter.Error{Code: filter.ErrCodeUnknownOperator, Message: fmt.Sprintf("unknown operation %q", n.Op), Node: n}
	}
}

func compileComparison(sb *sqlbuilder.SelectBuilder, n *filter.Comparison) (string, error) {
	if !n.Op.IsComparison() {
		return "", &filter.Error{Code: filter.ErrCodeUnknownOperator, Message: fmt.Sprintf("unknown operation %q", n.Op), Node: n}
	}

	var left string
	switch l := n.Left.(type) {
	case filter.FieldRef:
		read := PropertyJSON
		if n.Op == filter.OpLike {
			read = PropertyExpr
		}
		col, err := read(l.Name)
		if err != nil {
			return "", err
		}
		left = sqlbuilder.Escape(col)
	case filter.Literal:
		if n.Op != filter.OpLike {
			// Both sides are known now.
			ok, err := filter.Evaluate(nil, n)
			if err != nil {
				return "", err
			}
			if ok {
				return "1 = 1", nil
			}
			return "0 = 1", nil
		}
		param, err := toParam(l.Value)
		if err != nil {
			return "", err
		}
		left = sb.Var(param)
	default:
		return "", &filter.Error{Code: filter.ErrCodeMissingOperand, Message: "comparison has neither property nor remote value", Node: n}
	}

	switch n.Op {
	case filter.OpEquals:
		return equal(sb, left, n.Value)
	case filter.OpGreater, filter.OpLess:
		param, err := jsonParam(n.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s, %s) %s 0", FuncCompare, left, sb.Var(param), n.Op), nil
	case filter.OpIn:
		candidates, ok := n.Value.(value.List)
		if !ok {
			return equal(sb, left, n.Value)
		}
		if len(candidates) == 0 {
			return "0 = 1", nil
		}
		parts := make([]string, len(candidates))
		for i, c := range candidates {
			expr, err := equal(sb, left, c)
			if err != nil {
				return "", err
			}
			parts[i] = expr
		}
		return sb.Or(parts...), nil
	default: // OpLike
		param, err := toParam(n.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s LIKE %s", left, sb.Var(param)), nil
	}
}

func equal(sb *sqlbuilder.SelectBuilder, left string, v value.Value) (string, error) {
	param, err := jsonParam(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s, %s)", FuncEqual, left, sb.Var(param)), nil
}

// jsonParam encodes v as canonical JSON text for the loose comparison
// functions.
func jsonParam(v value.Value) (string, error) {
	if v == nil {
		v = value.Null{}
	}
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("encode parameter: %w", err)
	}
	return string(data), nil
}

// toParam converts a scalar value into a SQL parameter.
func toParam(v value.Value) (any, error) {
	if _, ok := v.(value.List); ok {
		return nil, fmt.Errorf("list value cannot be used as SQL parameter: %s", value.Format(v))
	}
	return value.Native(v), nil
}
