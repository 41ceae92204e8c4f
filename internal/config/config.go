// Package config loads the runtime settings of the search tool.
//
// Settings come, in increasing precedence, from built-in defaults, an
// optional config file (YAML, TOML or JSON), SPANSEARCH_* environment
// variables and command line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"spansearch/internal/home"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SPANSEARCH"

// Keys of the settings, shared by config files, environment and flags.
const (
	KeyHome             = "home"
	KeyField            = "field"
	KeyLogLevel         = "log_level"
	KeyComponentLevels  = "component_levels"
	KeyParallelism      = "parallelism"
	KeyCacheSize        = "cache_size"
	KeyPostingCacheSize = "posting_cache_size"
	KeyLimit            = "limit"
	KeySegments         = "segments"
	KeyCompress         = "compress"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings of one process.
type Config struct {
	// Home is the home directory, see package home.
	Home string `mapstructure:"home"`

	// Field is the token stream queries run against.
	Field string `mapstructure:"field"`

	LogLevel string `mapstructure:"log_level"`

	// ComponentLevels overrides the log level per component, each entry
	// formatted as "component=level".
	ComponentLevels []string `mapstructure:"component_levels"`

	// Parallelism bounds the number of segments searched concurrently.
	Parallelism int `mapstructure:"parallelism"`

	// CacheSize is the number of compiled queries kept. Zero disables the
	// cache.
	CacheSize int `mapstructure:"cache_size"`

	// PostingCacheSize is the number of decoded posting lists each file
	// segment keeps.
	PostingCacheSize int `mapstructure:"posting_cache_size"`

	// Limit is the default number of matches returned by a search.
	Limit int `mapstructure:"limit"`

	// Segments are glob patterns of segment directories.
	Segments []string `mapstructure:"segments"`

	// Compress selects seekable zstd for newly written posting files.
	Compress bool `mapstructure:"compress"`
}

// Default returns the built-in settings.
func Default() Config {
	var root string
	if hd, err := home.Default(); err == nil {
		root = hd.Root()
	}
	return Config{
		Home:             root,
		Field:            "tokens",
		LogLevel:         "info",
		Parallelism:      runtime.NumCPU(),
		CacheSize:        128,
		PostingCacheSize: 1024,
		Limit:            25,
	}
}

// SetDefaults registers the built-in settings on v. Every key must have a
// default for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyHome, d.Home)
	v.SetDefault(KeyField, d.Field)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyComponentLevels, []string{})
	v.SetDefault(KeyParallelism, d.Parallelism)
	v.SetDefault(KeyCacheSize, d.CacheSize)
	v.SetDefault(KeyPostingCacheSize, d.PostingCacheSize)
	v.SetDefault(KeyLimit, d.Limit)
	v.SetDefault(KeySegments, []string{})
	v.SetDefault(KeyCompress, d.Compress)
}

// Load reads the settings into a Config. If path is empty, a file named
// spansearch.{yaml,toml,json} is looked up in the working directory and in
// the home directory; a missing file is not an error. Flags must be bound
// to v before Load is called.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spansearch")
		v.AddConfigPath(".")
		if root := v.GetString(KeyHome); root != "" {
			v.AddConfigPath(root)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting out of range.
func (c *Config) Validate() error {
	switch {
	case c.Field == "":
		return fmt.Errorf("%w: field must not be empty", ErrInvalidConfig)
	case c.Parallelism < 1:
		return fmt.Errorf("%w: parallelism %d < 1", ErrInvalidConfig, c.Parallelism)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: negative cache_size %d", ErrInvalidConfig, c.CacheSize)
	case c.PostingCacheSize < 1:
		return fmt.Errorf("%w: posting_cache_size %d < 1", ErrInvalidConfig, c.PostingCacheSize)
	case c.Limit < 0:
		return fmt.Errorf("%w: negative limit %d", ErrInvalidConfig, c.Limit)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Levels(); err != nil {
		return err
	}
	return nil
}

// HomeDir returns the home directory.
func (c *Config) HomeDir() home.Dir { return home.New(c.Home) }

// SegmentPatterns returns the configured segment patterns, falling back to
// the segments directory of the home directory.
func (c *Config) SegmentPatterns() []string {
	if len(c.Segments) > 0 {
		return c.Segments
	}
	if c.Home == "" {
		return nil
	}
	return []string{c.HomeDir().SegmentsDir()}
}

// Level returns the parsed default log level.
func (c *Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// Levels parses ComponentLevels.
func (c *Config) Levels() (map[string]slog.Level, error) {
	out := make(map[string]slog.Level, len(c.ComponentLevels))
	for _, entry := range c.ComponentLevels {
		name, level, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: component level %q is not component=level", ErrInvalidConfig, entry)
		}
		l, err := ParseLevel(level)
		if err != nil {
			return nil, err
		}
		out[name] = l
	}
	return out, nil
}

// ParseLevel parses a level name such as "debug" or "warn+2".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
	}
	return l, nil
}
