package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/value"
)

func record(provider string, props map[string]any) *model.Record {
	values := make(map[string]value.Value, len(props))
	for k, v := range props {
		values[k] = value.MustFrom(v)
	}
	return model.NewRecord(provider, "", values)
}

func articleContent() *ParentChildCondition {
	return &ParentChildCondition{
		Source:      "tl_article",
		Destination: "tl_content",
		Filter: AllOf(
			FieldEquals("pid", "id"),
			ValueEquals("ptable", value.String("tl_article")),
		),
		Inverse: AllOf(
			FieldEquals("pid", "id"),
		),
		Setters: []Setter{
			FromParent("pid", "id"),
			FixedValue("ptable", value.String("tl_article")),
		},
	}
}

func TestFilterForBindsParent(t *testing.T) {
	c := &ParentChildCondition{
		Source:      "tl_article",
		Destination: "tl_content",
		Filter:      AllOf(FieldEquals("pid", "id")),
	}

	node, err := c.FilterFor(record("tl_article", map[string]any{"id": 42}))
	require.NoError(t, err)
	assert.Equal(t, filter.And(filter.Equals("pid", value.Int(42))), node)
}

func TestFilterForLiteralSources(t *testing.T) {
	c := &ParentChildCondition{
		Source:      "a",
		Destination: "b",
		Filter: AllOf(
			&TemplateRule{Op: filter.OpEquals, ChildField: "kind", ParentValue: value.String("remote"), Value: value.String("ignored")},
			&TemplateRule{Op: filter.OpGreater, ChildField: "sort", Value: value.Int(0)},
			&TemplateRule{Op: filter.OpEquals, ChildField: "deleted"},
			AnyOf(
				&TemplateRule{Op: filter.OpIn, ChildField: "type", Value: value.List{value.String("x"), value.String("y")}},
			),
		),
	}

	node, err := c.FilterFor(record("a", nil))
	require.NoError(t, err)
	assert.Equal(t, filter.And(
		filter.Equals("kind", value.String("remote")),
		filter.Greater("sort", value.Int(0)),
		filter.Equals("deleted", value.Null{}),
		filter.Or(filter.In("type", value.String("x"), value.String("y"))),
	), node)
}

func TestFilterForNullRemoteValueFallsThrough(t *testing.T) {
	tmpl, err := TemplateFromArray([]any{
		map[string]any{"operation": "=", "local": "pid", "remote_value": nil, "value": 5},
		map[string]any{"operation": "=", "local": "deleted", "remote_value": nil},
	})
	require.NoError(t, err)

	c := &ParentChildCondition{Source: "a", Destination: "b", Filter: tmpl}
	node, err := c.FilterFor(record("a", map[string]any{"id": 1}))
	require.NoError(t, err)
	assert.Equal(t, filter.And(
		filter.Equals("pid", value.Int(5)),
		filter.Equals("deleted", value.Null{}),
	), node)

	ok, err := c.Matches(record("a", nil), record("b", map[string]any{"pid": 5}))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilterForErrors(t *testing.T) {
	c := articleContent()

	_, err := c.FilterFor(nil)
	assert.True(t, IsMissingContext(err))

	_, err = (&ParentChildCondition{Source: "a", Destination: "b"}).FilterFor(record("a", nil))
	assert.True(t, HasCode(err, ErrCodeMissingFilter))

	bad := &ParentChildCondition{Source: "a", Destination: "b", Filter: AllOf(&TemplateRule{Op: filter.OpEquals, ParentField: "id"})}
	_, err = bad.FilterFor(record("a", nil))
	assert.True(t, HasCode(err, ErrCodeMalformedTemplate))

	badOp := &ParentChildCondition{Source: "a", Destination: "b", Filter: AllOf(&TemplateRule{Op: "~", ChildField: "pid"})}
	_, err = badOp.FilterFor(record("a", nil))
	assert.True(t, HasCode(err, ErrCodeMalformedTemplate))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "a", ce.Source)
	assert.Equal(t, "b", ce.Destination)
}

func TestInverseFilterFor(t *testing.T) {
	c := articleContent()

	node, err := c.InverseFilterFor(record("tl_content", map[string]any{"pid": 7}))
	require.NoError(t, err)
	assert.Equal(t, filter.And(filter.Equals("id", value.Int(7))), node)

	parent := record("tl_article", map[string]any{"id": 7})
	ok, err := filter.Evaluate(parent, node)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInverseFilterForLiteralValue(t *testing.T) {
	c := &ParentChildCondition{
		Source:      "a",
		Destination: "b",
		Inverse:     AllOf(&TemplateRule{Op: filter.OpEquals, ParentField: "published", Value: value.Bool(true)}),
	}
	node, err := c.InverseFilterFor(record("b", nil))
	require.NoError(t, err)
	assert.Equal(t, filter.And(filter.Equals("published", value.Bool(true))), node)
}

func TestInverseFilterForErrors(t *testing.T) {
	c := articleContent()
	_, err := c.InverseFilterFor(nil)
	assert.True(t, IsMissingContext(err))

	c.Inverse = nil
	_, err = c.InverseFilterFor(record("tl_content", nil))
	assert.True(t, HasCode(err, ErrCodeNoInverseFilter))

	c.Inverse = AllOf(&TemplateRule{Op: filter.OpEquals, ChildField: "pid"})
	_, err = c.InverseFilterFor(record("tl_content", nil))
	assert.True(t, HasCode(err, ErrCodeMalformedTemplate))
}

func TestMatches(t *testing.T) {
	c := &ParentChildCondition{
		Source:      "tl_article",
		Destination: "tl_content",
		Filter:      AllOf(FieldEquals("pid", "id")),
	}
	parent := record("tl_article", map[string]any{"id": 42})

	ok, err := c.Matches(parent, record("tl_content", map[string]any{"pid": 42}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Matches(parent, record("tl_content", map[string]any{"pid": 7}))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Matches(nil, parent)
	assert.True(t, IsMissingContext(err))
}

func TestMatchesAgreesWithFilterFor(t *testing.T) {
	conditions := map[string]*ParentChildCondition{
		"equals": articleContent(),
		"greater": {
			Source: "p", Destination: "c",
			Filter: AllOf(&TemplateRule{Op: filter.OpGreater, ChildField: "sort", ParentField: "sort"}),
		},
		"less or in": {
			Source: "p", Destination: "c",
			Filter: AnyOf(
				&TemplateRule{Op: filter.OpLess, ChildField: "sort", ParentValue: value.Int(10)},
				&TemplateRule{Op: filter.OpIn, ChildField: "type", ParentField: "types"},
			),
		},
	}
	parents := []*model.Record{
		record("p", map[string]any{"id": 1, "sort": 5, "types": []any{"a", "b"}}),
		record("p", map[string]any{"id": "2", "sort": 20, "types": []any{}}),
	}
	children := []*model.Record{
		record("c", map[string]any{"pid": 1, "ptable": "tl_article", "sort": 7, "type": "a"}),
		record("c", map[string]any{"pid": "2", "ptable": "tl_article", "sort": 3, "type": "z"}),
		record("c", map[string]any{"pid": 2, "ptable": "tl_page", "sort": 30, "type": "b"}),
		record("c", nil),
	}

	for name, c := range conditions {
		t.Run(name, func(t *testing.T) {
			for pi, p := range parents {
				f, err := c.FilterFor(p)
				require.NoError(t, err)
				for ci, child := range children {
					viaFilter, err := filter.Evaluate(child, f)
					require.NoError(t, err)
					viaMatch, err := c.Matches(p, child)
					require.NoError(t, err)
					assert.Equal(t, viaFilter, viaMatch, "parent %d child %d", pi, ci)
				}
			}
		})
	}
}

func TestApplyTo(t *testing.T) {
	c := &ParentChildCondition{
		Source:      "tl_article",
		Destination: "tl_content",
		Setters:     []Setter{FromParent("pid", "id")},
	}
	child := record("tl_content", nil)

	require.NoError(t, c.ApplyTo(record("tl_article", map[string]any{"id": 42}), child))
	assert.Equal(t, value.Int(42), child.Property("pid"))
}

func TestApplyToThenMatches(t *testing.T) {
	c := articleContent()
	parent := record("tl_article", map[string]any{"id": 9})
	child := record("tl_content", nil)

	require.NoError(t, c.ApplyTo(parent, child))
	assert.Equal(t, value.String("tl_article"), child.Property("ptable"))

	ok, err := c.Matches(parent, child)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplyToMalformedSetters(t *testing.T) {
	parent := record("a", map[string]any{"id": 1})
	testCases := []struct {
		name    string
		setters []Setter
	}{
		{"no setters", nil},
		{"no target", []Setter{{FromField: "id"}}},
		{"neither source", []Setter{{ToField: "pid"}}},
		{"both sources", []Setter{{ToField: "pid", FromField: "id", Value: value.Int(1)}}},
		{"second malformed", []Setter{FromParent("pid", "id"), {ToField: "x"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &ParentChildCondition{Source: "a", Destination: "b", Setters: tc.setters}
			child := record("b", nil)

			err := c.ApplyTo(parent, child)
			require.Error(t, err)
			assert.True(t, IsMalformedSetter(err))
			assert.Empty(t, child.PropertyNames(), "no partial writes")

			err = c.CopyFrom(record("b", nil), child)
			assert.True(t, IsMalformedSetter(err))
		})
	}
}

func TestApplyToMissingRecords(t *testing.T) {
	c := articleContent()
	assert.True(t, IsMissingContext(c.ApplyTo(nil, record("b", nil))))
	assert.True(t, IsMissingContext(c.CopyFrom(record("b", nil), nil)))
}

func TestCopyFromReadsTargetField(t *testing.T) {
	c := &ParentChildCondition{
		Source:      "tl_article",
		Destination: "tl_content",
		Setters: []Setter{
			FromParent("pid", "id"),
			FixedValue("ptable", value.String("tl_article")),
		},
	}
	sibling := record("tl_content", map[string]any{"id": 100, "pid": 42})
	dest := record("tl_content", nil)

	require.NoError(t, c.CopyFrom(sibling, dest))
	assert.Equal(t, value.Int(42), dest.Property("pid"), "pid comes from the sibling's pid, not its id")
	assert.Equal(t, value.String("tl_article"), dest.Property("ptable"))
}

func TestCopyFromDeclaredSource(t *testing.T) {
	c := &ParentChildCondition{
		Source:             "tl_article",
		Destination:        "tl_content",
		Setters:            []Setter{FromParent("pid", "id")},
		CopyDeclaredSource: true,
	}
	sibling := record("tl_content", map[string]any{"id": 100, "pid": 42})
	dest := record("tl_content", nil)

	require.NoError(t, c.CopyFrom(sibling, dest))
	assert.Equal(t, value.Int(100), dest.Property("pid"))
}

func TestParentChildClone(t *testing.T) {
	c := articleContent()
	clone := c.Clone()
	assert.Equal(t, c, clone)

	clone.Setters[0].ToField = "other"
	clone.Filter.(*TemplateGroup).Children[0].(*TemplateRule).ParentField = "other"
	clone.Destination = "tl_other"

	assert.Equal(t, "pid", c.Setters[0].ToField)
	assert.Equal(t, "id", c.Filter.(*TemplateGroup).Children[0].(*TemplateRule).ParentField)
	assert.Equal(t, "tl_content", c.Destination)
}
