package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relate/internal/store"
)

var fixturesDir = filepath.Join("..", "..", "testdata", "fixtures")

func TestSeedCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relate.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		filepath.Join(specsDir, "pages.cue"),
		"--db", dbPath,
		"--fixtures", filepath.Join(fixturesDir, "pages.yaml"),
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ Seeded 4 record(s) into "+dbPath)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.Count(context.Background(), "tl_page")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSeedCommand_IsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relate.db")
	args := []string{
		specsDir,
		"--container", "content",
		"--db", dbPath,
		"--fixtures", filepath.Join(fixturesDir, "content.yaml"),
	}

	for range 2 {
		buf := &bytes.Buffer{}
		cmd := NewSeedCommand(&RootOptions{Format: "json"})
		cmd.SetOut(buf)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())

		var resp struct {
			Status string     `json:"status"`
			Data   SeedResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, SeedResult{Container: "content", DB: dbPath, Records: 5}, resp.Data)
	}

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	// Memory providers are stored in the database too.
	n, err := st.Count(context.Background(), "tl_article")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = st.Count(context.Background(), "tl_content")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSeedCommand_Errors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relate.db")

	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing flags",
			args:    []string{specsDir},
			wantErr: "required flag",
		},
		{
			name:    "ambiguous container",
			args:    []string{specsDir, "--db", dbPath, "--fixtures", filepath.Join(fixturesDir, "pages.yaml")},
			wantErr: "2 containers loaded",
		},
		{
			name:    "missing fixtures",
			args:    []string{filepath.Join(specsDir, "pages.cue"), "--db", dbPath, "--fixtures", "/nonexistent.yaml"},
			wantErr: "failed to load fixtures",
		},
		{
			name:    "fixtures for undeclared provider",
			args:    []string{filepath.Join(specsDir, "pages.cue"), "--db", dbPath, "--fixtures", filepath.Join(fixturesDir, "content.yaml")},
			wantErr: "seeding stopped after 0 record(s)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := NewSeedCommand(&RootOptions{Format: "text"})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tc.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
