package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/testutil"
	"github.com/roach88/relate/internal/value"
)

var fixtures = []map[string]any{
	{"pid": 1, "sorting": 30, "type": "text", "hidden": false, "title": "Intro"},
	{"pid": 1, "sorting": 10, "type": "image", "hidden": true, "title": "Gallery"},
	{"pid": "1", "sorting": 20, "type": "text", "hidden": "", "title": ""},
	{"pid": 2, "sorting": 20, "type": "list", "tags": []any{"a", "b"}, "title": "introduction"},
	{"pid": nil, "sorting": 2.5, "type": "0", "hidden": 0},
}

func seed(t *testing.T, p provider.Provider) {
	t.Helper()
	for i, props := range fixtures {
		id := string(rune('a' + i))
		require.NoError(t, p.Save(context.Background(), testutil.Record(p.Name(), id, props)))
	}
}

func ids(records []*model.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func TestProvider_SaveAndFetch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p := s.Provider("tl_content", testutil.NewSequenceIDGenerator("c"))

	r := p.EmptyModel()
	r.SetProperty("pid", value.Int(42))
	r.SetProperty("title", value.String("Hello"))
	r.SetProperty("ratio", value.Float(0.5))
	r.SetProperty("published", value.Bool(true))
	require.NoError(t, p.Save(ctx, r))
	assert.Equal(t, "c1", r.ID())
	assert.Equal(t, value.String("c1"), r.Property(provider.IDProperty))

	got, err := p.Fetch(ctx, &provider.Config{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "tl_content", got.ProviderName())
	assert.Equal(t, value.Int(42), got.Property("pid"))
	assert.Equal(t, value.String("Hello"), got.Property("title"))
	assert.Equal(t, value.Float(0.5), got.Property("ratio"))
	assert.Equal(t, value.Bool(true), got.Property("published"))
	assert.Equal(t, value.String("c1"), got.Property("id"))

	// Replace keeps one row.
	r.SetProperty("title", value.String("Changed"))
	require.NoError(t, p.Save(ctx, r))
	n, err := s.Count(ctx, "tl_content")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = p.Fetch(ctx, &provider.Config{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, value.String("Changed"), got.Property("title"))
}

func TestProvider_KeepsExplicitIDProperty(t *testing.T) {
	s := createTestStore(t)
	p := s.Provider("tl_article", nil)

	r := testutil.Record("tl_article", "42", map[string]any{"id": 42})
	require.NoError(t, p.Save(context.Background(), r))

	got, err := p.Fetch(context.Background(), &provider.Config{ID: "42"})
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), got.Property("id"))
}

func TestProvider_FetchNotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Provider("tl_content", nil).Fetch(context.Background(), &provider.Config{ID: "missing"})
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestProvider_SourcesAreIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seed(t, s.Provider("tl_content", nil))
	seed(t, s.Provider("tl_news", nil))

	got, err := s.Provider("tl_content", nil).FetchAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, got, len(fixtures))
	for _, r := range got {
		assert.Equal(t, "tl_content", r.ProviderName())
	}
}

func TestProvider_SortingAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p := s.Provider("tl_content", nil)
	seed(t, p)

	got, err := p.FetchAll(ctx, &provider.Config{
		Sorting: []provider.SortField{{Property: "sorting", Direction: provider.Asc}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "b", "c", "d", "a"}, ids(got), "ties broken by id")

	got, err = p.FetchAll(ctx, &provider.Config{
		Sorting: []provider.SortField{{Property: "sorting", Direction: provider.Desc}},
		Limit:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))
}

func TestProvider_Like(t *testing.T) {
	s := createTestStore(t)
	p := s.Provider("tl_content", nil)
	seed(t, p)

	got, err := p.FetchAll(context.Background(), &provider.Config{Filter: filter.Like("title", "intro%")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, ids(got))
}

func TestProvider_Delete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p := s.Provider("tl_content", nil)
	seed(t, p)

	require.NoError(t, p.Delete(ctx, "a"))
	require.NoError(t, p.Delete(ctx, "a"))

	n, err := s.Count(ctx, "tl_content")
	require.NoError(t, err)
	assert.Equal(t, len(fixtures)-1, n)
}

func TestProvider_CanceledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Provider("tl_content", nil).FetchAll(ctx, nil)
	assert.Error(t, err)
}

// SQL filtering must select exactly the records filter.Evaluate accepts.
func TestProvider_MatchesEvaluate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sqlProvider := s.Provider("tl_content", nil)
	memProvider := provider.NewMemory("tl_content", nil)
	seed(t, sqlProvider)
	seed(t, memProvider)

	testCases := []struct {
		name string
		node filter.Node
	}{
		{"int equals", filter.Equals("pid", value.Int(1))},
		{"numeric string equals", filter.Equals("pid", value.String("1"))},
		{"null equals", filter.Equals("pid", value.Null{})},
		{"missing equals empty", filter.Equals("tags", value.String(""))},
		{"bool false", filter.Equals("hidden", value.Bool(false))},
		{"bool true", filter.Equals("hidden", value.Bool(true))},
		{"empty string", filter.Equals("hidden", value.String(""))},
		{"zero", filter.Equals("hidden", value.Int(0))},
		{"string zero", filter.Equals("type", value.Int(0))},
		{"missing vs zero", filter.Equals("archived", value.Int(0))},
		{"missing vs false", filter.Equals("archived", value.Bool(false))},
		{"missing vs string", filter.Equals("archived", value.String("x"))},
		{"missing greater", filter.Greater("archived", value.Int(-1))},
		{"greater", filter.Greater("sorting", value.Int(15))},
		{"less numeric string", filter.Less("sorting", value.String("20"))},
		{"string order", filter.Greater("type", value.String("list"))},
		{"in", filter.In("type", value.String("text"), value.String("image"))},
		{"in empty", filter.In("type")},
		{"list equals", filter.Equals("tags", value.List{value.String("a"), value.String("b")})},
		{"empty and", filter.And()},
		{"empty or", filter.Or()},
		{"literal", filter.LiteralEquals(value.Int(1), value.String("1"))},
		{"nested", filter.And(
			filter.Equals("pid", value.Int(1)),
			filter.Or(filter.Equals("type", value.String("text")), filter.Greater("sorting", value.Int(25))),
		)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &provider.Config{Filter: tc.node}

			want, err := memProvider.FetchAll(ctx, cfg)
			require.NoError(t, err)
			got, err := sqlProvider.FetchAll(ctx, cfg)
			require.NoError(t, err)

			assert.Equal(t, ids(want), ids(got), filter.Format(tc.node))
		})
	}
}
