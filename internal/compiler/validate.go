package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/filter"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// Basic definition errors (E101-E109)
	ErrMissingDataProvider = "E101" // data provider is required
	ErrInvalidMode         = "E102" // unknown browsing mode
	ErrUndeclaredProvider  = "E103" // provider referenced but not declared
	ErrDuplicateName       = "E104" // duplicate provider name
	ErrInvalidBackend      = "E105" // unknown storage backend
	ErrInvalidSorting      = "E106" // sort field without property or with bad direction

	// Relationship errors (E110-E119)
	ErrMissingParentCondition = "E110" // mode needs a condition parent -> current
	ErrMissingTemplate        = "E111" // condition without filter template
	ErrInvalidTemplate        = "E112" // malformed template rule or group
	ErrMalformedSetter        = "E113" // setter needs target and exactly one source
	ErrMissingInverse         = "E114" // hierarchical condition without inverse template
	ErrInvalidRootCondition   = "E115" // root condition malformed or on wrong provider
	ErrInvalidFilter          = "E116" // malformed static filter
)

// Backends accepted in provider declarations. Empty means memory.
var Backends = []string{"", "memory", "sqlite"}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled container against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch c := v.(type) {
	case *definition.Container:
		return validateContainer(c)
	case definition.Container:
		return validateContainer(&c)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateContainer(c *definition.Container) []ValidationError {
	var errs []ValidationError
	basic := &c.Basic

	// E101
	if basic.DataProvider == "" {
		errs = append(errs, ValidationError{
			Field:   "data_provider",
			Message: "data provider is required",
			Code:    ErrMissingDataProvider,
		})
	}

	// E102
	if !slices.Contains(definition.Modes, basic.Mode) {
		errs = append(errs, ValidationError{
			Field:   "mode",
			Message: fmt.Sprintf("invalid mode %q, expected one of FLAT, PARENTEDLIST, HIERARCHICAL", basic.Mode),
			Code:    ErrInvalidMode,
		})
	}

	// E104/E105
	declared := make(map[string]bool)
	for i, p := range c.Providers {
		if declared[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("providers[%d]", i),
				Message: fmt.Sprintf("duplicate provider name: %q", p.Name),
				Code:    ErrDuplicateName,
			})
		}
		declared[p.Name] = true
		if !slices.Contains(Backends, p.Backend) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("providers.%s.backend", p.Name),
				Message: fmt.Sprintf("invalid backend %q, expected memory or sqlite", p.Backend),
				Code:    ErrInvalidBackend,
			})
		}
	}

	// E103: every referenced provider must be declared
	checkDeclared := func(field, name string) {
		if name != "" && !declared[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("provider %q is not declared", name),
				Code:    ErrUndeclaredProvider,
			})
		}
	}
	checkDeclared("data_provider", basic.DataProvider)
	checkDeclared("parent_data_provider", basic.ParentDataProvider)
	checkDeclared("root_data_provider", basic.RootDataProvider)

	// E106
	for i, f := range c.Listing.DefaultSorting {
		if f.Property == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sorting[%d].property", i),
				Message: "sort property is required",
				Code:    ErrInvalidSorting,
			})
		}
		if f.Direction != "" && f.Direction != "ASC" && f.Direction != "DESC" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sorting[%d].direction", i),
				Message: fmt.Sprintf("invalid direction %q", f.Direction),
				Code:    ErrInvalidSorting,
			})
		}
	}

	// E116
	if basic.AdditionalFilter != nil {
		errs = append(errs, validateFilter("additional_filter", basic.AdditionalFilter)...)
	}

	rels := c.Relationships
	if rels == nil {
		rels = condition.NewDefinition()
	}

	// E110: modes with parents need a condition parent -> current
	if basic.Mode == definition.ModeParentedList || basic.Mode == definition.ModeHierarchical {
		if basic.DataProvider != "" && !rels.HasChildCondition(basic.ParentProvider(), basic.DataProvider) {
			errs = append(errs, ValidationError{
				Field:   "relationships",
				Message: fmt.Sprintf("%s mode requires a relationship from %s to %s", basic.Mode, basic.ParentProvider(), basic.DataProvider),
				Code:    ErrMissingParentCondition,
			})
		}
	}
	if basic.Mode == definition.ModeParentedList && basic.ParentDataProvider == "" {
		errs = append(errs, ValidationError{
			Field:   "parent_data_provider",
			Message: "PARENTEDLIST mode requires a parent data provider",
			Code:    ErrMissingParentCondition,
		})
	}

	if root := rels.RootCondition(); root != nil {
		errs = append(errs, validateRoot(root, basic, declared)...)
	}

	for i, cond := range rels.ChildConditions("") {
		field := fmt.Sprintf("relationships[%d]", i)
		checkDeclared(field+".from", cond.Source)
		checkDeclared(field+".to", cond.Destination)
		errs = append(errs, validateCondition(field, cond, basic)...)
	}

	return errs
}

func validateRoot(root *condition.RootCondition, basic *definition.Basic, declared map[string]bool) []ValidationError {
	var errs []ValidationError

	// E115
	if root.Provider != "" && !declared[root.Provider] {
		errs = append(errs, ValidationError{
			Field:   "root.provider",
			Message: fmt.Sprintf("provider %q is not declared", root.Provider),
			Code:    ErrUndeclaredProvider,
		})
	}
	if root.Provider != "" && root.Provider != basic.RootProvider() {
		errs = append(errs, ValidationError{
			Field:   "root.provider",
			Message: fmt.Sprintf("root condition is for %s, root provider is %s", root.Provider, basic.RootProvider()),
			Code:    ErrInvalidRootCondition,
		})
	}
	for i, s := range root.Setters {
		if s.Property == "" || s.Value == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("root.setters[%d]", i),
				Message: "root setter needs a property and a value",
				Code:    ErrMalformedSetter,
			})
		}
	}
	if root.Filter != nil {
		errs = append(errs, validateFilter("root.filter", root.Filter)...)
		if hasLiteralComparison(root.Filter) {
			errs = append(errs, ValidationError{
				Field:   "root.filter",
				Message: "root filter must compare record properties",
				Code:    ErrInvalidRootCondition,
			})
		}
	}
	return errs
}

func validateCondition(field string, cond *condition.ParentChildCondition, basic *definition.Basic) []ValidationError {
	var errs []ValidationError

	// E111
	if cond.Filter == nil {
		errs = append(errs, ValidationError{
			Field:   field + ".filter",
			Message: fmt.Sprintf("relationship %s -> %s has no filter", cond.Source, cond.Destination),
			Code:    ErrMissingTemplate,
		})
	} else {
		errs = append(errs, validateTemplate(field+".filter", cond.Filter, true)...)
	}

	// E114: parent lookup in trees needs the inverse template
	if cond.Inverse == nil {
		if basic.Mode == definition.ModeHierarchical && cond.Source == basic.ParentProvider() && cond.Destination == basic.DataProvider {
			errs = append(errs, ValidationError{
				Field:   field + ".inverse",
				Message: "HIERARCHICAL mode requires an inverse filter for parent lookup",
				Code:    ErrMissingInverse,
			})
		}
	} else {
		errs = append(errs, validateTemplate(field+".inverse", cond.Inverse, false)...)
	}

	// E113
	for i, s := range cond.Setters {
		hasFrom := s.FromField != ""
		hasValue := s.Value != nil
		if s.ToField == "" || hasFrom == hasValue {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.setters[%d]", field, i),
				Message: "setter needs a target field and exactly one of a source field or a value",
				Code:    ErrMalformedSetter,
			})
		}
	}
	return errs
}

// validateTemplate checks operators and operands. Filter templates bind the
// child field; inverse templates bind the parent field.
func validateTemplate(field string, t condition.Template, forward bool) []ValidationError {
	var errs []ValidationError
	switch n := t.(type) {
	case *condition.TemplateGroup:
		if !n.Op.IsConjunction() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("group operation must be AND or OR, got %q", n.Op),
				Code:    ErrInvalidTemplate,
			})
		}
		for i, child := range n.Children {
			errs = append(errs, validateTemplate(fmt.Sprintf("%s[%d]", field, i), child, forward)...)
		}
	case *condition.TemplateRule:
		if !n.Op.IsComparison() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("rule operation must be a comparison, got %q", n.Op),
				Code:    ErrInvalidTemplate,
			})
		}
		if n.Op == filter.OpLike {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "LIKE cannot be evaluated in memory",
				Code:    ErrInvalidTemplate,
			})
		}
		bound := n.ChildField
		if !forward {
			bound = n.ParentField
		}
		if bound == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "rule has no field to compare",
				Code:    ErrInvalidTemplate,
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("unsupported template node %T", t),
			Code:    ErrInvalidTemplate,
		})
	}
	return errs
}

func validateFilter(field string, node filter.Node) []ValidationError {
	var errs []ValidationError
	switch n := node.(type) {
	case *filter.Conjunction:
		if !n.Op.IsConjunction() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown operation %q", n.Op),
				Code:    ErrInvalidFilter,
			})
		}
		for i, child := range n.Children {
			errs = append(errs, validateFilter(fmt.Sprintf("%s[%d]", field, i), child)...)
		}
	case *filter.Comparison:
		if !n.Op.IsComparison() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown operation %q", n.Op),
				Code:    ErrInvalidFilter,
			})
		}
		if n.Left == nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "comparison has neither property nor remote value",
				Code:    ErrInvalidFilter,
			})
		}
	}
	return errs
}

// hasLiteralComparison reports whether node contains a comparison of two
// literals, which can never depend on the record.
func hasLiteralComparison(node filter.Node) bool {
	switch n := node.(type) {
	case *filter.Conjunction:
		return slices.ContainsFunc(n.Children, hasLiteralComparison)
	case *filter.Comparison:
		_, literal := n.Left.(filter.Literal)
		return literal
	}
	return false
}
