package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/overlay409/internal/overlay"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "overlays", cfg.Dir)
	assert.Equal(t, []string{
		"api-description.yaml",
		"schema-fixes.yaml",
		"speakeasy.yaml",
		"example-resource.yaml",
		"required.yaml",
		"users.yaml",
	}, cfg.Exclude)
	assert.Equal(t, overlay.DefaultConflictRule(), cfg.Rule())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
dir: "specs/overlays"
exclude: ["legacy.yaml"]
conflict: {
	marker: "#new"
	description: "Already exists"
}
`), "overlay409.cue")
	require.NoError(t, err)

	assert.Equal(t, "specs/overlays", cfg.Dir)
	assert.Equal(t, []string{"legacy.yaml"}, cfg.Exclude)
	assert.Equal(t, map[string]bool{"legacy.yaml": true}, cfg.ExcludeSet())

	rule := cfg.Rule()
	assert.Equal(t, "#new", rule.Marker)
	assert.Equal(t, "409", rule.Status)
	assert.Equal(t, "Already exists", rule.Response.Description)
	assert.Equal(t, overlay.DefaultErrorSchemaRef, rule.Response.Content[0].SchemaRef)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown field", src: `colour: "red"`},
		{name: "empty marker", src: `conflict: marker: ""`},
		{name: "bad status", src: `conflict: status: "4090"`},
		{name: "wrong type", src: `dir: 12`},
		{name: "syntax", src: `dir: "unterminated`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			require.Error(t, err)

			var cfgErr *Error
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.cue")
	require.NoError(t, os.WriteFile(path, []byte(`dir: "elsewhere"`+"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", cfg.Dir)
	assert.Len(t, cfg.Exclude, 6)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`dir: "from-cwd"`+"\n"), 0644))
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-cwd", cfg.Dir)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
