package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/value"
)

// CompileContainer parses a CUE value into a container definition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the container struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`container: pages: { mode: "HIERARCHICAL", ... }`)
//	c, err := CompileContainer(v.LookupPath(cue.ParsePath("container.pages")))
//
// Filters and templates use the array form of filter.FromArray and
// condition.TemplateFromArray.
func CompileContainer(v cue.Value) (*definition.Container, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := ""
	if labels := v.Path().Selectors(); len(labels) > 0 {
		name = labels[len(labels)-1].String()
	}
	c := definition.New(name)

	if err := parseBasic(v, &c.Basic); err != nil {
		return nil, err
	}

	sorting, err := parseSorting(v)
	if err != nil {
		return nil, err
	}
	c.Listing.DefaultSorting = sorting

	if c.Providers, err = parseProviders(v); err != nil {
		return nil, err
	}

	if rootVal := v.LookupPath(cue.ParsePath("root")); rootVal.Exists() {
		root, err := parseRoot(rootVal)
		if err != nil {
			return nil, err
		}
		c.Relationships.SetRootCondition(root)
	}

	if relVal := v.LookupPath(cue.ParsePath("relationships")); relVal.Exists() {
		iter, err := relVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			cond, err := parseRelationship(iter.Value(), i)
			if err != nil {
				return nil, err
			}
			c.Relationships.AddChildCondition(cond)
		}
	}

	return c, nil
}

func parseBasic(v cue.Value, basic *definition.Basic) error {
	mode, err := requiredString(v, "mode")
	if err != nil {
		return err
	}
	basic.Mode, err = definition.ParseMode(mode)
	if err != nil {
		return &CompileError{Field: "mode", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("mode")).Pos()}
	}

	if basic.DataProvider, err = requiredString(v, "data_provider"); err != nil {
		return err
	}
	if basic.ParentDataProvider, err = optionalString(v, "parent_data_provider"); err != nil {
		return err
	}
	if basic.RootDataProvider, err = optionalString(v, "root_data_provider"); err != nil {
		return err
	}

	if afVal := v.LookupPath(cue.ParsePath("additional_filter")); afVal.Exists() {
		node, err := parseFilter(afVal, "additional_filter")
		if err != nil {
			return err
		}
		basic.AdditionalFilter = node
	}
	return nil
}

// parseSorting reads sorting: [{property: "sorting", direction: "ASC"}].
func parseSorting(v cue.Value) ([]provider.SortField, error) {
	sortVal := v.LookupPath(cue.ParsePath("sorting"))
	if !sortVal.Exists() {
		return nil, nil
	}
	iter, err := sortVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []provider.SortField
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		property, err := requiredString(item, "property")
		if err != nil {
			return nil, err
		}
		dir := provider.Asc
		if d, err := optionalString(item, "direction"); err != nil {
			return nil, err
		} else if d != "" {
			if dir, err = provider.ParseDirection(d); err != nil {
				return nil, &CompileError{Field: fmt.Sprintf("sorting[%d].direction", i), Message: err.Error(), Pos: item.Pos()}
			}
		}
		fields = append(fields, provider.SortField{Property: property, Direction: dir})
	}
	return fields, nil
}

// parseProviders reads providers: {tl_page: {backend: "sqlite"}} in
// declaration order.
func parseProviders(v cue.Value) ([]definition.ProviderSpec, error) {
	provVal := v.LookupPath(cue.ParsePath("providers"))
	if !provVal.Exists() {
		return nil, nil
	}
	iter, err := provVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []definition.ProviderSpec
	for iter.Next() {
		backend, err := optionalString(iter.Value(), "backend")
		if err != nil {
			return nil, err
		}
		specs = append(specs, definition.ProviderSpec{Name: iter.Label(), Backend: backend})
	}
	return specs, nil
}

func parseRoot(v cue.Value) (*condition.RootCondition, error) {
	root := &condition.RootCondition{}
	var err error
	if root.Provider, err = optionalString(v, "provider"); err != nil {
		return nil, err
	}

	if fVal := v.LookupPath(cue.ParsePath("filter")); fVal.Exists() {
		if root.Filter, err = parseFilter(fVal, "root.filter"); err != nil {
			return nil, err
		}
	}

	if sVal := v.LookupPath(cue.ParsePath("setters")); sVal.Exists() {
		iter, err := sVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			item := iter.Value()
			property, err := requiredString(item, "property")
			if err != nil {
				return nil, err
			}
			val, err := requiredValue(item, "value")
			if err != nil {
				return nil, err
			}
			root.Setters = append(root.Setters, condition.RootSetter{Property: property, Value: val})
		}
	}
	return root, nil
}

func parseRelationship(v cue.Value, i int) (*condition.ParentChildCondition, error) {
	field := fmt.Sprintf("relationships[%d]", i)
	cond := &condition.ParentChildCondition{}

	var err error
	if cond.Source, err = requiredString(v, "from"); err != nil {
		return nil, err
	}
	if cond.Destination, err = requiredString(v, "to"); err != nil {
		return nil, err
	}

	fVal := v.LookupPath(cue.ParsePath("filter"))
	if !fVal.Exists() {
		return nil, &CompileError{Field: field + ".filter", Message: "filter is required", Pos: v.Pos()}
	}
	if cond.Filter, err = parseTemplate(fVal, field+".filter"); err != nil {
		return nil, err
	}
	if iVal := v.LookupPath(cue.ParsePath("inverse")); iVal.Exists() {
		if cond.Inverse, err = parseTemplate(iVal, field+".inverse"); err != nil {
			return nil, err
		}
	}

	if sVal := v.LookupPath(cue.ParsePath("setters")); sVal.Exists() {
		iter, err := sVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := parseSetter(iter.Value())
			if err != nil {
				return nil, err
			}
			cond.Setters = append(cond.Setters, s)
		}
	}

	if cVal := v.LookupPath(cue.ParsePath("copy_declared_source")); cVal.Exists() {
		if cond.CopyDeclaredSource, err = cVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	return cond, nil
}

// parseSetter reads {to: "pid", from: "id"} or {to: "ptable", value: "x"}.
// Malformed setters are kept and reported by Validate.
func parseSetter(v cue.Value) (condition.Setter, error) {
	var s condition.Setter
	var err error
	if s.ToField, err = optionalString(v, "to"); err != nil {
		return s, err
	}
	if s.FromField, err = optionalString(v, "from"); err != nil {
		return s, err
	}
	if valVal := v.LookupPath(cue.ParsePath("value")); valVal.Exists() {
		if s.Value, err = toValue(valVal); err != nil {
			return s, err
		}
	}
	return s, nil
}

func parseFilter(v cue.Value, field string) (filter.Node, error) {
	rules, err := toRules(v, field)
	if err != nil {
		return nil, err
	}
	nodes, err := filter.FromArray(rules)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return filter.And(nodes...), nil
}

func parseTemplate(v cue.Value, field string) (condition.Template, error) {
	rules, err := toRules(v, field)
	if err != nil {
		return nil, err
	}
	t, err := condition.TemplateFromArray(rules)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return t, nil
}

func toRules(v cue.Value, field string) ([]any, error) {
	native, err := toNative(v)
	if err != nil {
		return nil, err
	}
	rules, ok := native.([]any)
	if !ok {
		return nil, &CompileError{Field: field, Message: "must be a list of rules", Pos: v.Pos()}
	}
	return rules, nil
}

func requiredString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", &CompileError{Field: path, Message: path + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredValue(v cue.Value, path string) (value.Value, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, &CompileError{Field: path, Message: path + " is required", Pos: v.Pos()}
	}
	return toValue(fv)
}

func toValue(v cue.Value) (value.Value, error) {
	native, err := toNative(v)
	if err != nil {
		return nil, err
	}
	conv, err := value.From(native)
	if err != nil {
		return nil, &CompileError{Field: "value", Message: err.Error(), Pos: v.Pos()}
	}
	return conv, nil
}

// toNative converts a concrete CUE value into nil, bool, int64, float64,
// string, []any or map[string]any.
func toNative(v cue.Value) (any, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch v.IncompleteKind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return i, nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for iter.Next() {
			elem, err := toNative(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := map[string]any{}
		for iter.Next() {
			elem, err := toNative(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Label()] = elem
		}
		return out, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
