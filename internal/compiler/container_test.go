package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/value"
)

const contentCUE = `
container: content: {
	mode:                 "PARENTEDLIST"
	data_provider:        "tl_content"
	parent_data_provider: "tl_article"
	additional_filter: [{operation: "=", property: "invisible", value: ""}]
	sorting: [{property: "sorting"}, {property: "tstamp", direction: "desc"}]
	providers: {
		tl_article: {}
		tl_content: {backend: "sqlite"}
	}
	relationships: [{
		from: "tl_article"
		to:   "tl_content"
		filter: [
			{operation: "=", local: "pid", remote: "id"},
			{operation: "=", local: "ptable", value: "tl_article"},
		]
		inverse: [{operation: "=", local: "pid", remote: "id"}]
		setters: [
			{to: "pid", from: "id"},
			{to: "ptable", value: "tl_article"},
		]
	}]
}
`

const pagesCUE = `
container: pages: {
	mode:          "HIERARCHICAL"
	data_provider: "tl_page"
	providers: tl_page: {}
	root: {
		provider: "tl_page"
		filter: [{operation: "=", property: "pid", value: 0}]
		setters: [{property: "pid", value: 0}]
	}
	relationships: [{
		from: "tl_page"
		to:   "tl_page"
		filter: [{operation: "=", local: "pid", remote: "id"}]
		inverse: [{operation: "=", local: "pid", remote: "id"}]
		setters: [{to: "pid", from: "id"}]
		copy_declared_source: true
	}]
}
`

func compileCUE(t *testing.T, src, path string) (*definition.Container, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileContainer(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileContainer_ParentedList(t *testing.T) {
	c, err := compileCUE(t, contentCUE, "container.content")
	require.NoError(t, err)

	assert.Equal(t, "content", c.Name)
	assert.Equal(t, definition.ModeParentedList, c.Basic.Mode)
	assert.Equal(t, "tl_content", c.Basic.DataProvider)
	assert.Equal(t, "tl_article", c.Basic.ParentDataProvider)
	assert.Equal(t, filter.And(filter.Equals("invisible", value.String(""))), c.Basic.AdditionalFilter)
	assert.Equal(t, []provider.SortField{
		{Property: "sorting", Direction: provider.Asc},
		{Property: "tstamp", Direction: provider.Desc},
	}, c.Listing.DefaultSorting)
	assert.Equal(t, []definition.ProviderSpec{
		{Name: "tl_article"},
		{Name: "tl_content", Backend: "sqlite"},
	}, c.Providers)

	cond := c.Relationships.ChildCondition("tl_article", "tl_content")
	require.NotNil(t, cond)
	assert.Equal(t, condition.AllOf(
		condition.FieldEquals("pid", "id"),
		condition.ValueEquals("ptable", value.String("tl_article")),
	), cond.Filter)
	assert.Equal(t, condition.AllOf(condition.FieldEquals("pid", "id")), cond.Inverse)
	assert.Equal(t, []condition.Setter{
		condition.FromParent("pid", "id"),
		condition.FixedValue("ptable", value.String("tl_article")),
	}, cond.Setters)
	assert.False(t, cond.CopyDeclaredSource)
	assert.False(t, c.Relationships.HasRootCondition())

	assert.Empty(t, Validate(c))
}

func TestCompileContainer_Hierarchical(t *testing.T) {
	c, err := compileCUE(t, pagesCUE, "container.pages")
	require.NoError(t, err)

	root := c.Relationships.RootCondition()
	require.NotNil(t, root)
	assert.Equal(t, "tl_page", root.Provider)
	assert.Equal(t, filter.And(filter.Equals("pid", value.Int(0))), root.Filter)
	assert.Equal(t, []condition.RootSetter{{Property: "pid", Value: value.Int(0)}}, root.Setters)

	cond := c.Relationships.ChildCondition("tl_page", "tl_page")
	require.NotNil(t, cond)
	assert.True(t, cond.CopyDeclaredSource)

	assert.Empty(t, Validate(c))
}

func TestCompileContainer_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		message string
	}{
		{
			name:    "missing mode",
			src:     `container: x: {data_provider: "p"}`,
			message: "mode is required",
		},
		{
			name:    "invalid mode",
			src:     `container: x: {mode: "TREE", data_provider: "p"}`,
			message: "invalid mode",
		},
		{
			name:    "missing data provider",
			src:     `container: x: {mode: "FLAT"}`,
			message: "data_provider is required",
		},
		{
			name:    "bad direction",
			src:     `container: x: {mode: "FLAT", data_provider: "p", sorting: [{property: "a", direction: "up"}]}`,
			message: "invalid sort direction",
		},
		{
			name:    "bad filter operation",
			src:     `container: x: {mode: "FLAT", data_provider: "p", additional_filter: [{operation: "!=", property: "a", value: 1}]}`,
			message: "additional_filter",
		},
		{
			name:    "filter not a list",
			src:     `container: x: {mode: "FLAT", data_provider: "p", additional_filter: {operation: "=", property: "a", value: 1}}`,
			message: "must be a list of rules",
		},
		{
			name:    "relationship without filter",
			src:     `container: x: {mode: "FLAT", data_provider: "p", relationships: [{from: "a", to: "p"}]}`,
			message: "filter is required",
		},
		{
			name:    "root setter without value",
			src:     `container: x: {mode: "FLAT", data_provider: "p", root: {setters: [{property: "pid"}]}}`,
			message: "value is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compileCUE(t, tc.src, "container.x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "mode", Message: "mode is required"}
	assert.Equal(t, "mode: mode is required", err.Error())
}

func TestToNative(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{a: 1, b: 2.5, c: "x", d: true, e: null, f: [1, "y"], g: {h: 1}}`)
	require.NoError(t, v.Err())

	native, err := toNative(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": int64(1),
		"b": 2.5,
		"c": "x",
		"d": true,
		"e": nil,
		"f": []any{int64(1), "y"},
		"g": map[string]any{"h": int64(1)},
	}, native)

	_, err = toNative(ctx.CompileString(`int`))
	assert.Error(t, err)
}
