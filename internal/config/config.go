// Package config resolves wikigraph settings from flags, environment
// variables and an optional wikigraph.toml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/latebit/wikigraph/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "WIKIGRAPH"

// LegacyFileEnv is consulted for the graph file when WIKIGRAPH_FILE is unset.
const LegacyFileEnv = "WIKI_FILE"

// Keys understood by Load. Nested keys map to environment variables with
// dots replaced by underscores, e.g. neo4j.uri -> WIKIGRAPH_NEO4J_URI.
const (
	KeyFile          = "file"
	KeyBaseURL       = "base_url"
	KeyCacheDir      = "cache_dir"
	KeyNoCache       = "no_cache"
	KeyHTTP3         = "http3"
	KeyWorkers       = "workers"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyMetricsFile   = "metrics_file"
	KeyNeo4jURI      = "neo4j.uri"
	KeyNeo4jUser     = "neo4j.user"
	KeyNeo4jPassword = "neo4j.password"
	KeyNeo4jDatabase = "neo4j.database"
)

// ErrNoOutput is returned by RequireGraphFile when no graph file is set.
var ErrNoOutput = errors.New("graph file not configured")

// Neo4j holds connection settings for the graph export.
type Neo4j struct {
	URI      string
	User     string
	Password string
	Database string
}

// Config holds resolved settings.
type Config struct {
	GraphFile   string // "" means unset
	BaseURL     string
	CacheDir    string
	NoCache     bool
	HTTP3       bool
	Workers     int
	LogLevel    string
	LogFormat   string
	MetricsFile string
	Neo4j       Neo4j

	// Source is the config file that was read, if any.
	Source string
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyFile, "")
	v.SetDefault(KeyBaseURL, "https://en.wikipedia.org/wiki/")
	v.SetDefault(KeyCacheDir, "")
	v.SetDefault(KeyNoCache, false)
	v.SetDefault(KeyHTTP3, false)
	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyNeo4jURI, "neo4j://localhost:7687")
	v.SetDefault(KeyNeo4jUser, "neo4j")
	v.SetDefault(KeyNeo4jPassword, "")
	v.SetDefault(KeyNeo4jDatabase, "")

	_ = v.BindEnv(KeyFile, EnvPrefix+"_FILE", LegacyFileEnv)
	return v
}

// BindFlags binds each named flag in fs to the config key of the same name,
// with dashes read as underscores.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind flag %q: no such flag", name)
		}
		key := strings.ReplaceAll(name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file and returns the resolved settings.
// An explicit configFile must exist; otherwise wikigraph.toml is searched
// for in the working directory and then the user config directory.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("wikigraph")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "wikigraph"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		GraphFile:   v.GetString(KeyFile),
		BaseURL:     v.GetString(KeyBaseURL),
		CacheDir:    v.GetString(KeyCacheDir),
		NoCache:     v.GetBool(KeyNoCache),
		HTTP3:       v.GetBool(KeyHTTP3),
		Workers:     v.GetInt(KeyWorkers),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		MetricsFile: v.GetString(KeyMetricsFile),
		Neo4j: Neo4j{
			URI:      v.GetString(KeyNeo4jURI),
			User:     v.GetString(KeyNeo4jUser),
			Password: v.GetString(KeyNeo4jPassword),
			Database: v.GetString(KeyNeo4jDatabase),
		},
		Source: v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// RequireGraphFile returns the graph file path or ErrNoOutput.
func (c *Config) RequireGraphFile() (string, error) {
	if c.GraphFile == "" {
		return "", ErrNoOutput
	}
	return c.GraphFile, nil
}
