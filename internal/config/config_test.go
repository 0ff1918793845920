package config

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/dshills/mdsync/internal/logging"
	"github.com/dshills/mdsync/internal/render"
	"github.com/dshills/mdsync/internal/viewer"
	"github.com/google/go-cmp/cmp"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func (m memFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m[path]; !ok {
		return nil, fs.ErrNotExist
	}
	return fileInfo(path), nil
}

type fileInfo string

func (f fileInfo) Name() string       { return string(f) }
func (f fileInfo) Size() int64        { return 0 }
func (f fileInfo) Mode() fs.FileMode  { return 0644 }
func (f fileInfo) ModTime() time.Time { return time.Time{} }
func (f fileInfo) IsDir() bool        { return false }
func (f fileInfo) Sys() any           { return nil }

func newTestConfig(files memFS, environ []string, opts ...Option) *Config {
	base := []Option{WithFS(files), WithEnviron(environ), WithSearchPaths("mdsync.toml", "mdsync.yaml")}
	return New(append(base, opts...)...)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := newTestConfig(memFS{}, []string{})
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if diff := cmp.Diff(render.DefaultOptions(), cfg.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Schedule().Debounce(); got != 150*time.Millisecond {
		t.Errorf("Debounce() = %v, want 150ms", got)
	}
	if got := cfg.Logging(); got.Level != logging.LogLevelInfo || got.Format != logging.FormatText {
		t.Errorf("Logging() = %+v", got)
	}
	if got := cfg.Viewer().Mode; got != viewer.ModeSplit {
		t.Errorf("Viewer().Mode = %v, want split", got)
	}
	if got := cfg.Highlight().ContextLines; got != 2 {
		t.Errorf("Highlight().ContextLines = %d, want 2", got)
	}
	if cfg.File() != "" {
		t.Errorf("File() = %q, want empty", cfg.File())
	}
}

func TestConfig_Precedence(t *testing.T) {
	files := memFS{"mdsync.toml": `
[render]
gfm = false
typographer = true

[schedule]
debounceMs = 300

[viewer]
mode = "read"
`}
	env := []string{
		"MDSYNC_SCHEDULE_DEBOUNCE_MS=50",
		"MDSYNC_LOG_LEVEL=DEBUG",
	}

	cfg := newTestConfig(files, env)
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.File() != "mdsync.toml" {
		t.Errorf("File() = %q, want mdsync.toml", cfg.File())
	}
	opts := cfg.Render()
	if opts.GFM || !opts.Typographer {
		t.Errorf("Render() GFM=%v Typographer=%v, want false, true", opts.GFM, opts.Typographer)
	}
	if got := cfg.Schedule().DebounceMs; got != 50 {
		t.Errorf("DebounceMs = %d, want env value 50", got)
	}
	if got := cfg.Logging().Level; got != logging.LogLevelDebug {
		t.Errorf("Logging().Level = %v, want debug", got)
	}
	if got := cfg.Viewer().Mode; got != viewer.ModeRead {
		t.Errorf("Viewer().Mode = %v, want read", got)
	}
}

func TestConfig_YAMLFile(t *testing.T) {
	files := memFS{"mdsync.yaml": "highlight:\n  highContrast: true\n  accentColor: \"#336699\"\nrender:\n  math: disabled\n  inlineHtml: Ignore\n"}

	cfg := newTestConfig(files, []string{})
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	hl := cfg.Highlight()
	if !hl.Options.HighContrast || hl.Options.AccentColor != "#336699" {
		t.Errorf("Highlight() = %+v", hl)
	}
	opts := cfg.Render()
	if opts.Math != render.MathDisabled {
		t.Errorf("Math = %v, want disabled", opts.Math)
	}
	if opts.InlineHTML != render.HTMLIgnore {
		t.Errorf("InlineHTML = %v, want ignore", opts.InlineHTML)
	}
}

func TestConfig_ExplicitFileMissing(t *testing.T) {
	cfg := newTestConfig(memFS{}, []string{}, WithFile("custom.toml"))
	if err := cfg.Load(); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestConfig_UnsupportedFormat(t *testing.T) {
	cfg := newTestConfig(memFS{"cfg.json": "{}"}, []string{}, WithFile("cfg.json"))
	if err := cfg.Load(); err == nil {
		t.Error("Load() succeeded for a .json file")
	}
}

func TestConfig_ParseError(t *testing.T) {
	cfg := newTestConfig(memFS{"mdsync.toml": "[render\n"}, []string{})
	err := cfg.Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if perr.Path != "mdsync.toml" {
		t.Errorf("ParseError.Path = %q", perr.Path)
	}
}

func TestConfig_Validation(t *testing.T) {
	files := memFS{"mdsync.toml": `
[render]
math = "latex"
maxSourceBytes = -1
baseUrl = "docs/"
gfm = "yes"

[highlight]
accentColor = "blue"

[viewer]
mode = "preview"
`}
	cfg := newTestConfig(files, []string{})
	err := cfg.Load()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Load() error = %v, want ErrValidationFailed", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Load() error does not contain a *ValidationError: %v", err)
	}
	var terr *TypeError
	if !errors.As(err, &terr) || terr.Path != "render.gfm" {
		t.Errorf("Load() error = %v, want a TypeError for render.gfm", err)
	}

	for _, path := range []string{"render.math", "render.maxSourceBytes", "render.baseUrl", "highlight.accentColor", "viewer.mode"} {
		if !containsPath(err, path) {
			t.Errorf("Load() error does not mention %s: %v", path, err)
		}
	}

	// Failed loads keep the previous settings.
	if got := cfg.Render(); got.Math != render.MathStyledText {
		t.Errorf("Render().Math after failed Load = %v, want styled", got.Math)
	}
}

func containsPath(err error, path string) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return false
	}
	for _, e := range joined.Unwrap() {
		var verr *ValidationError
		if errors.As(e, &verr) && verr.Path == path {
			return true
		}
	}
	return false
}

func TestConfig_Set(t *testing.T) {
	cfg := newTestConfig(memFS{}, []string{})
	if err := cfg.Load(); err != nil {
		t.Fatal(err)
	}

	if err := cfg.Set("viewer.mode", "edit"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got := cfg.Viewer().Mode; got != viewer.ModeEdit {
		t.Errorf("Viewer().Mode = %v, want edit", got)
	}

	if err := cfg.Set("schedule.debounceMs", -5); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Set(negative debounce) error = %v, want ErrValidationFailed", err)
	}
	if got := cfg.Schedule().DebounceMs; got != 150 {
		t.Errorf("DebounceMs after rejected Set = %d, want 150", got)
	}

	if err := cfg.Set("", 1); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidPath", err)
	}

	// Overrides survive a reload.
	if err := cfg.Load(); err != nil {
		t.Fatal(err)
	}
	if got := cfg.Viewer().Mode; got != viewer.ModeEdit {
		t.Errorf("Viewer().Mode after reload = %v, want edit", got)
	}
}

func TestConfig_Getters(t *testing.T) {
	cfg := newTestConfig(memFS{}, []string{})
	if err := cfg.Load(); err != nil {
		t.Fatal(err)
	}

	if _, err := cfg.GetString("render.gfm"); err == nil {
		t.Error("GetString(bool) succeeded")
	} else {
		var terr *TypeError
		if !errors.As(err, &terr) || terr.Expected != "string" || terr.Actual != "bool" {
			t.Errorf("GetString(bool) error = %v", err)
		}
	}
	if _, err := cfg.GetInt("render.nope"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("GetInt(missing) error = %v, want ErrSettingNotFound", err)
	}
	if v, err := cfg.GetBool("render.gfm"); err != nil || !v {
		t.Errorf("GetBool(render.gfm) = %v, %v", v, err)
	}

	merged := cfg.Merged()
	merged["render"].(map[string]any)["gfm"] = false
	if v, _ := cfg.GetBool("render.gfm"); !v {
		t.Error("Merged() returned a map aliasing the configuration")
	}
}

func TestLoggingConfig_LoggerConfig(t *testing.T) {
	lc := LoggingConfig{Level: logging.LogLevelWarn, Format: logging.FormatJSON}.LoggerConfig()
	if lc.Level != logging.LogLevelWarn || lc.Format != logging.FormatJSON || lc.Prefix != "mdsync" {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
}
