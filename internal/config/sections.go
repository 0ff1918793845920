package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dshills/mdsync/internal/highlight"
	"github.com/dshills/mdsync/internal/logging"
	"github.com/dshills/mdsync/internal/render"
	"github.com/dshills/mdsync/internal/viewer"
)

// Section accessors return snapshot structs. Mutating the returned struct
// does not modify the configuration; use Config.Set.

// LoggingConfig holds the logging section.
type LoggingConfig struct {
	Level  logging.LogLevel
	Format logging.Format
}

// LoggerConfig returns a logger configuration writing to stderr.
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	return cfg
}

// ScheduleConfig holds the schedule section.
type ScheduleConfig struct {
	// DebounceMs is the quiet period after an edit before rendering.
	DebounceMs int
}

// Debounce returns DebounceMs as a duration.
func (s ScheduleConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// HighlightConfig holds the highlight section.
type HighlightConfig struct {
	Options highlight.Options
	// ContextLines is how many lines around an edit are re-highlighted.
	ContextLines int
}

// ViewerConfig holds the viewer section.
type ViewerConfig struct {
	Mode viewer.Mode
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  logging.ParseLogLevel(c.getStringOr("logging.level", "info")),
		Format: logging.Format(c.lowerOr("logging.format", "text")),
	}
}

// Render returns the parsing options for the renderer.
func (c *Config) Render() render.Options {
	def := render.DefaultOptions()
	return render.Options{
		InlineHTML:             render.ParseHTMLPolicy(c.lowerOr("render.inlineHtml", def.InlineHTML.String())),
		BlockHTML:              render.ParseHTMLPolicy(c.lowerOr("render.blockHtml", def.BlockHTML.String())),
		RenderImages:           c.getBoolOr("render.renderImages", def.RenderImages),
		AllowRemoteImages:      c.getBoolOr("render.allowRemoteImages", def.AllowRemoteImages),
		CodeSyntaxHighlighting: c.getBoolOr("render.codeSyntaxHighlighting", def.CodeSyntaxHighlighting),
		Math:                   render.ParseMathPolicy(c.lowerOr("render.math", def.Math.String())),
		MaxMathFormulaLength:   c.getIntOr("render.maxMathFormulaLength", def.MaxMathFormulaLength),
		BaseURL:                c.getStringOr("render.baseUrl", def.BaseURL),
		GFM:                    c.getBoolOr("render.gfm", def.GFM),
		Typographer:            c.getBoolOr("render.typographer", def.Typographer),
		MaxSourceBytes:         c.getIntOr("render.maxSourceBytes", def.MaxSourceBytes),
	}
}

// Schedule returns the render scheduling settings.
func (c *Config) Schedule() ScheduleConfig {
	return ScheduleConfig{DebounceMs: c.getIntOr("schedule.debounceMs", 150)}
}

// Highlight returns the source highlighting settings.
func (c *Config) Highlight() HighlightConfig {
	return HighlightConfig{
		Options: highlight.Options{
			HighContrast: c.getBoolOr("highlight.highContrast", false),
			AccentColor:  c.getStringOr("highlight.accentColor", ""),
		},
		ContextLines: c.getIntOr("highlight.contextLines", 2),
	}
}

// Viewer returns the viewer settings.
func (c *Config) Viewer() ViewerConfig {
	mode, err := viewer.ParseMode(c.getStringOr("viewer.mode", "split"))
	if err != nil {
		mode = viewer.ModeSplit
	}
	return ViewerConfig{Mode: mode}
}

// The getXOr helpers fall back to the default when a value is missing or
// mistyped. Load and Set validate, so fallbacks only cover paths a caller
// names wrongly.

func (c *Config) getStringOr(path, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		return defaultValue
	}
	return v
}

func (c *Config) lowerOr(path, defaultValue string) string {
	return strings.ToLower(c.getStringOr(path, defaultValue))
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		return defaultValue
	}
	return v
}

// validator collects every problem in one pass so users see them together.
type validator struct {
	m    map[string]any
	errs []error
}

func validate(m map[string]any) error {
	v := &validator{m: m}

	v.oneOf("logging.level", "debug", "info", "warn", "warning", "error")
	v.oneOf("logging.format", string(logging.FormatText), string(logging.FormatJSON))

	v.oneOf("render.inlineHtml", render.HTMLRenderAsText.String(), render.HTMLIgnore.String())
	v.oneOf("render.blockHtml", render.HTMLRenderAsText.String(), render.HTMLIgnore.String())
	v.oneOf("render.math", render.MathDisabled.String(), render.MathStyledText.String())
	for _, p := range []string{"render.renderImages", "render.allowRemoteImages", "render.codeSyntaxHighlighting", "render.gfm", "render.typographer", "highlight.highContrast"} {
		v.boolean(p)
	}
	for _, p := range []string{"render.maxMathFormulaLength", "render.maxSourceBytes", "schedule.debounceMs", "highlight.contextLines"} {
		v.nonNegative(p)
	}

	if s, ok := v.str("render.baseUrl"); ok && s != "" {
		if u, err := url.Parse(s); err != nil || !u.IsAbs() {
			v.invalid("render.baseUrl", s, "must be an absolute URL")
		}
	}
	if s, ok := v.str("highlight.accentColor"); ok && s != "" {
		if _, err := highlight.ParseColor(s); err != nil {
			v.invalid("highlight.accentColor", s, "must be a #rrggbb color")
		}
	}
	if s, ok := v.str("viewer.mode"); ok {
		if _, err := viewer.ParseMode(s); err != nil {
			v.invalid("viewer.mode", s, "must be read, edit or split")
		}
	}

	if len(v.errs) == 0 {
		return nil
	}
	return joinErrors(v.errs)
}

func (v *validator) get(path string) (any, bool) {
	val, ok := getPath(v.m, path)
	if !ok {
		v.errs = append(v.errs, fmt.Errorf("%s: %w", path, ErrSettingNotFound))
	}
	return val, ok
}

func (v *validator) str(path string) (string, bool) {
	val, ok := v.get(path)
	if !ok {
		return "", false
	}
	s, err := asString(path, val)
	if err != nil {
		v.errs = append(v.errs, err)
		return "", false
	}
	return s, true
}

func (v *validator) oneOf(path string, allowed ...string) {
	s, ok := v.str(path)
	if !ok {
		return
	}
	for _, a := range allowed {
		if strings.EqualFold(s, a) {
			return
		}
	}
	v.invalid(path, s, "must be one of "+strings.Join(allowed, ", "))
}

func (v *validator) boolean(path string) {
	if val, ok := v.get(path); ok {
		if _, err := asBool(path, val); err != nil {
			v.errs = append(v.errs, err)
		}
	}
}

func (v *validator) nonNegative(path string) {
	val, ok := v.get(path)
	if !ok {
		return
	}
	n, err := asInt(path, val)
	if err != nil {
		v.errs = append(v.errs, err)
		return
	}
	if n < 0 {
		v.invalid(path, n, "must not be negative")
	}
}

func (v *validator) invalid(path string, value any, msg string) {
	v.errs = append(v.errs, &ValidationError{Path: path, Value: value, Message: msg})
}
