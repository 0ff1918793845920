package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/mdsync/internal/config/loader"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "MDSYNC_"

// Config holds merged settings. It is safe for concurrent use.
type Config struct {
	mu        sync.RWMutex
	fs        loader.FileSystem
	path      string
	search    []string
	envPrefix string
	environ   []string

	merged    map[string]any
	overrides map[string]any
	loaded    string
}

// Option configures a Config.
type Option func(*Config)

// WithFile loads path instead of searching the default locations. A
// missing file is then an error.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithSearchPaths replaces the locations searched when no file is named.
func WithSearchPaths(paths ...string) Option {
	return func(c *Config) {
		c.search = paths
	}
}

// WithFS reads config files from fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// WithEnviron reads overrides from environ instead of the process
// environment.
func WithEnviron(environ []string) Option {
	return func(c *Config) {
		c.environ = environ
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// New creates a Config holding the defaults. Call Load to read the file and
// environment layers.
func New(opts ...Option) *Config {
	c := &Config{
		fs:        loader.DefaultFS(),
		search:    DefaultSearchPaths(),
		envPrefix: EnvPrefix,
		merged:    defaultConfig(),
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultSearchPaths returns the files tried, in order, when no config file
// is named.
func DefaultSearchPaths() []string {
	paths := []string{"mdsync.toml", "mdsync.yaml", "mdsync.yml", ".mdsync.toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "mdsync", "config.toml"),
			filepath.Join(dir, "mdsync", "config.yaml"),
		)
	}
	return paths
}

// Load rebuilds the settings from defaults, the config file and the
// environment, then validates them. On error the previous settings stay in
// effect.
func (c *Config) Load() error {
	merged := defaultConfig()

	path := c.path
	if path == "" {
		path = loader.FindFirst(c.fs, c.search)
	} else if _, err := c.fs.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if path != "" {
		l, err := loader.ForFile(c.fs, path)
		if err != nil {
			return err
		}
		file, err := l.Load()
		if err != nil {
			return err
		}
		merged = loader.DeepMerge(merged, file)
	}

	env := loader.NewEnvLoader(c.envPrefix)
	if c.environ != nil {
		env = loader.NewEnvLoaderFrom(c.envPrefix, c.environ)
	}
	vars, err := env.Load()
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}
	merged = loader.DeepMerge(merged, vars)

	c.mu.Lock()
	defer c.mu.Unlock()
	merged = loader.DeepMerge(merged, c.overrides)
	if err := validate(merged); err != nil {
		return err
	}
	c.merged = merged
	c.loaded = path
	return nil
}

// File returns the config file used by the last successful Load, or "".
func (c *Config) File() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Get returns the value at the given path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// Set overrides the value at path, above every loaded layer. The new value
// must pass validation.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := loader.Clone(c.merged)
	if err := setPath(merged, path, value); err != nil {
		return err
	}
	if err := validate(merged); err != nil {
		return err
	}
	if err := setPath(c.overrides, path, value); err != nil {
		return err
	}
	c.merged = merged
	return nil
}

// Merged returns a copy of the merged settings.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	return asString(path, v)
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	return asInt(path, v)
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	return asBool(path, v)
}

func asString(path string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

func asInt(path string, v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val == float64(int(val)) {
			return int(val), nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

func asBool(path string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"render": map[string]any{
			"inlineHtml":             "text",
			"blockHtml":              "text",
			"renderImages":           true,
			"allowRemoteImages":      false,
			"codeSyntaxHighlighting": true,
			"math":                   "styled",
			"maxMathFormulaLength":   256,
			"baseUrl":                "",
			"gfm":                    true,
			"typographer":            false,
			"maxSourceBytes":         0,
		},
		"schedule": map[string]any{
			"debounceMs": 150,
		},
		"highlight": map[string]any{
			"highContrast": false,
			"accentColor":  "",
			"contextLines": 2,
		},
		"viewer": map[string]any{
			"mode": "split",
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}
	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = cm[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}
	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a table", ErrInvalidPath, part)
		}
		current = nextMap
	}
	current[parts[len(parts)-1]] = value
	return nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case map[string]any:
		return "table"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// joinErrors is errors.Join that keeps a lone error unwrapped.
func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
