package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with no user config and no
// wikigraph environment.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	for _, name := range []string{"WIKIGRAPH_FILE", LegacyFileEnv, "WIKIGRAPH_WORKERS", "WIKIGRAPH_LOG_LEVEL", "WIKIGRAPH_NEO4J_URI"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.GraphFile)
	assert.Equal(t, "https://en.wikipedia.org/wiki/", cfg.BaseURL)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URI)
	assert.Empty(t, cfg.Source)

	_, err = cfg.RequireGraphFile()
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("WIKIGRAPH_FILE", "/tmp/wiki.json")
	t.Setenv("WIKIGRAPH_WORKERS", "8")
	t.Setenv("WIKIGRAPH_LOG_LEVEL", "debug")
	t.Setenv("WIKIGRAPH_NEO4J_URI", "bolt://db:7687")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/wiki.json", cfg.GraphFile)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "bolt://db:7687", cfg.Neo4j.URI)

	path, err := cfg.RequireGraphFile()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/wiki.json", path)
}

func TestLegacyFileEnv(t *testing.T) {
	isolate(t)
	t.Setenv(LegacyFileEnv, "legacy.json")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "legacy.json", cfg.GraphFile)

	t.Setenv("WIKIGRAPH_FILE", "preferred.json")
	cfg, err = Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "preferred.json", cfg.GraphFile)
}

func TestLoadConfigFileInWorkingDir(t *testing.T) {
	isolate(t)
	data := `file = "from-file.json"
workers = 4

[neo4j]
user = "reader"
`
	require.NoError(t, os.WriteFile("wikigraph.toml", []byte(data), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-file.json", cfg.GraphFile)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "reader", cfg.Neo4j.User)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URI)
	assert.Contains(t, cfg.Source, "wikigraph.toml")
}

func TestPrecedence(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("wikigraph.toml", []byte("file = \"file.json\"\nworkers = 2\n"), 0o644))
	t.Setenv("WIKIGRAPH_FILE", "env.json")
	t.Setenv("WIKIGRAPH_WORKERS", "3")

	fs := pflag.NewFlagSet("build", pflag.ContinueOnError)
	fs.String("file", "", "")
	fs.Int("workers", 1, "")
	require.NoError(t, fs.Parse([]string{"--workers", "6"}))

	v := New()
	require.NoError(t, BindFlags(v, fs, "file", "workers"))
	cfg, err := Load(v, "")
	require.NoError(t, err)

	// An unset flag leaves the env value; a set flag wins over everything.
	assert.Equal(t, "env.json", cfg.GraphFile)
	assert.Equal(t, 6, cfg.Workers)
}

func TestBindFlagsUnknown(t *testing.T) {
	fs := pflag.NewFlagSet("x", pflag.ContinueOnError)
	assert.Error(t, BindFlags(New(), fs, "nope"))
}

func TestExplicitConfigFile(t *testing.T) {
	isolate(t)

	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_format = \"json\"\n"), 0o644))
	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, path, cfg.Source)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("WIKIGRAPH_LOG_LEVEL", "chatty")

	_, err := Load(New(), "")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "ok", cfg: Config{Workers: 1, LogLevel: "info", LogFormat: "text"}},
		{name: "json upper case", cfg: Config{Workers: 4, LogLevel: "WARN", LogFormat: "JSON"}},
		{name: "zero workers", cfg: Config{Workers: 0, LogLevel: "info", LogFormat: "text"}, wantErr: true},
		{name: "bad level", cfg: Config{Workers: 1, LogLevel: "chatty", LogFormat: "text"}, wantErr: true},
		{name: "bad format", cfg: Config{Workers: 1, LogLevel: "info", LogFormat: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
