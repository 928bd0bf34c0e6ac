package condition

import (
	"fmt"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/value"
)

// Keys of the array form of a template rule. Group rules reuse
// filter.KeyOperation and filter.KeyChildren.
const (
	KeyLocal       = "local"
	KeyRemote      = "remote"
	KeyRemoteValue = "remote_value"
	KeyValue       = "value"
)

// TemplateFromArray converts rules in array form into an AND template.
//
// Rule maps use "local" for the child field, "remote" for the parent field,
// and "remote_value" / "value" for literals.
func TemplateFromArray(rules []any) (Template, error) {
	children, err := templatesFromArray(rules)
	if err != nil {
		return nil, err
	}
	return AllOf(children...), nil
}

func templatesFromArray(rules []any) ([]Template, error) {
	out := make([]Template, 0, len(rules))
	for i, raw := range rules {
		rule, ok := raw.(map[string]any)
		if !ok {
			return nil, &Error{Code: ErrCodeMalformedTemplate, Message: fmt.Sprintf("rule[%d]: expected map, got %T", i, raw)}
		}
		t, err := templateFromMap(rule)
		if err != nil {
			return nil, fmt.Errorf("rule[%d]: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func templateFromMap(rule map[string]any) (Template, error) {
	rawOp, _ := rule[filter.KeyOperation].(string)
	op, err := filter.ParseOperator(rawOp)
	if err != nil {
		return nil, err
	}

	if op.IsConjunction() {
		var rawChildren []any
		if c, present := rule[filter.KeyChildren]; present && c != nil {
			list, ok := c.([]any)
			if !ok {
				return nil, &Error{Code: ErrCodeMalformedTemplate, Message: fmt.Sprintf("%s children must be a list", op)}
			}
			rawChildren = list
		}
		children, err := templatesFromArray(rawChildren)
		if err != nil {
			return nil, err
		}
		return &TemplateGroup{Op: op, Children: children}, nil
	}

	r := &TemplateRule{Op: op}
	if r.ChildField, err = stringKey(rule, KeyLocal); err != nil {
		return nil, err
	}
	if r.ParentField, err = stringKey(rule, KeyRemote); err != nil {
		return nil, err
	}
	if r.ParentValue, err = valueKey(rule, KeyRemoteValue); err != nil {
		return nil, err
	}
	if r.Value, err = valueKey(rule, KeyValue); err != nil {
		return nil, err
	}
	return r, nil
}

func stringKey(rule map[string]any, key string) (string, error) {
	raw, ok := rule[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &Error{Code: ErrCodeMalformedTemplate, Message: fmt.Sprintf("%s must be a string, got %T", key, raw)}
	}
	return s, nil
}

func valueKey(rule map[string]any, key string) (value.Value, error) {
	raw, ok := rule[key]
	if !ok {
		return nil, nil
	}
	v, err := value.From(raw)
	if err != nil {
		return nil, &Error{Code: ErrCodeMalformedTemplate, Message: fmt.Sprintf("%s: %v", key, err)}
	}
	return v, nil
}

// TemplateToArray converts a template into array form. An AND group at the
// top level is flattened into its children.
func TemplateToArray(t Template) []any {
	if g, ok := t.(*TemplateGroup); ok && g.Op == filter.OpAnd {
		return templatesToArray(g.Children)
	}
	if t == nil {
		return []any{}
	}
	return []any{templateToMap(t)}
}

func templatesToArray(ts []Template) []any {
	out := make([]any, 0, len(ts))
	for _, t := range ts {
		out = append(out, templateToMap(t))
	}
	return out
}

func templateToMap(t Template) map[string]any {
	switch n := t.(type) {
	case *TemplateGroup:
		return map[string]any{
			filter.KeyOperation: string(n.Op),
			filter.KeyChildren:  templatesToArray(n.Children),
		}
	case *TemplateRule:
		m := map[string]any{filter.KeyOperation: string(n.Op)}
		if n.ChildField != "" {
			m[KeyLocal] = n.ChildField
		}
		if n.ParentField != "" {
			m[KeyRemote] = n.ParentField
		}
		if n.ParentValue != nil {
			m[KeyRemoteValue] = value.Native(n.ParentValue)
		}
		if n.Value != nil {
			m[KeyValue] = value.Native(n.Value)
		}
		return m
	default:
		return nil
	}
}
