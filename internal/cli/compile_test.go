package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/value"
)

func TestCompileCommand_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsDir})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled 2 container(s)")
	assert.Contains(t, output, "pages: HIERARCHICAL on tl_page, 1 provider(s), 1 relationship(s)")
	assert.Contains(t, output, "content: PARENTEDLIST on tl_content, 2 provider(s), 1 relationship(s)")
	assert.Contains(t, output, "tl_article → tl_content")
}

func TestCompileCommand_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(specsDir, "content.cue")})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Containers, 1)

	c := resp.Data.Containers[0]
	assert.Equal(t, "content", c.Name)
	assert.Equal(t, "PARENTEDLIST", c.Mode)
	assert.Equal(t, "tl_article", c.ParentDataProvider)
	assert.Equal(t, map[string]string{"tl_article": "memory", "tl_content": "sqlite"}, c.Providers)
	assert.Equal(t, []string{"sorting ASC"}, c.Sorting)
	assert.Equal(t, []any{map[string]any{"operation": "=", "property": "invisible", "value": ""}}, c.AdditionalFilter)
	assert.Nil(t, c.Root)

	require.Len(t, c.Relationships, 1)
	rel := c.Relationships[0]
	assert.Equal(t, "tl_article", rel.From)
	assert.Equal(t, "tl_content", rel.To)
	assert.Len(t, rel.Filter, 2)
	assert.Len(t, rel.Inverse, 1)
	assert.Equal(t, []map[string]any{
		{"to": "pid", "from": "id"},
		{"to": "ptable", "value": "tl_article"},
	}, rel.Setters)
}

func TestCompileCommand_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "containers.json")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(specsDir, "pages.cue"), "--output", out})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Wrote containers to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	containers := decoded["containers"].([]any)
	require.Len(t, containers, 1)
	pages := containers[0].(map[string]any)
	assert.Equal(t, "pages", pages["name"])
	assert.Equal(t, map[string]any{
		"provider": "tl_page",
		"filter":   []any{map[string]any{"operation": "=", "property": "pid", "value": float64(0)}},
		"setters":  map[string]any{"pid": float64(0)},
	}, pages["root"])

	// Canonical output is stable.
	again := filepath.Join(t.TempDir(), "again.json")
	cmd = NewCompileCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(specsDir, "pages.cue"), "-o", again})
	require.NoError(t, cmd.Execute())
	againData, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, data, againData)
}

func TestSummarize_FilterArrays(t *testing.T) {
	c := definition.New("pages")
	c.Basic.AdditionalFilter = filter.And(
		filter.Equals("hidden", value.Bool(false)),
		filter.Or(filter.Equals("type", value.String("a")), filter.Equals("type", value.String("b"))),
	)
	c.Relationships.SetRootCondition(&condition.RootCondition{
		Provider: "tl_page",
		Filter:   filter.Or(filter.Equals("pid", value.Int(0)), filter.Equals("pid", value.Null{})),
	})

	s := Summarize(c)
	assert.Equal(t, []any{
		map[string]any{"operation": "=", "property": "hidden", "value": false},
		map[string]any{"operation": "OR", "children": []any{
			map[string]any{"operation": "=", "property": "type", "value": "a"},
			map[string]any{"operation": "=", "property": "type", "value": "b"},
		}},
	}, s.AdditionalFilter)

	require.NotNil(t, s.Root)
	require.Len(t, s.Root.Filter, 1)
	assert.Equal(t, "OR", s.Root.Filter[0].(map[string]any)["operation"])
}

func TestCompileCommand_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		buf := &bytes.Buffer{}
		cmd := NewCompileCommand(&RootOptions{Format: "text"})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{"/nonexistent/spec.cue"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, buf.String(), "Error [E005]")
	})

	t.Run("compile error", func(t *testing.T) {
		spec := writeSpec(t, `container: broken: {
	mode:    "FLAT"
	providers: tl_page: {}
}
`)
		buf := &bytes.Buffer{}
		cmd := NewCompileCommand(&RootOptions{Format: "text"})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{spec})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, buf.String(), "✗ Compilation failed")
		assert.Contains(t, buf.String(), "data_provider is required")
	})

	t.Run("compile error json", func(t *testing.T) {
		spec := writeSpec(t, `container: broken: {
	mode:    "TREE"
	data_provider: "tl_page"
}
`)
		buf := &bytes.Buffer{}
		cmd := NewCompileCommand(&RootOptions{Format: "json"})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{spec})

		err := cmd.Execute()
		require.Error(t, err)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Contains(t, resp.Error.Message, `invalid mode "TREE"`)
	})
}
