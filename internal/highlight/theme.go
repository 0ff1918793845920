package highlight

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Options configures source highlighting.
type Options struct {
	// HighContrast selects the high-contrast palette.
	HighContrast bool
	// AccentColor overrides heading and link colors. Empty keeps the
	// palette colors.
	AccentColor string
}

// Validate checks the accent color.
func (o Options) Validate() error {
	if o.AccentColor == "" {
		return nil
	}
	_, err := ParseColor(o.AccentColor)
	return err
}

// Style is how one token kind is drawn.
type Style struct {
	Color  string
	Bold   bool
	Italic bool
}

// ParseColor parses #rgb or #rrggbb and returns it normalized to
// lowercase #rrggbb.
func ParseColor(s string) (string, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c.Hex(), nil
}

var defaultPalette = map[TokenKind]Style{
	TokenText:          {Color: "#333333"},
	TokenHeading:       {Color: "#1f4e99", Bold: true},
	TokenEmphasis:      {Color: "#555555", Italic: true},
	TokenStrong:        {Color: "#222222", Bold: true},
	TokenStrikethrough: {Color: "#888888"},
	TokenCode:          {Color: "#a0403c"},
	TokenCodeBlock:     {Color: "#a0403c"},
	TokenFence:         {Color: "#8a8a8a"},
	TokenLink:          {Color: "#2a6fb0"},
	TokenImage:         {Color: "#2a6fb0", Italic: true},
	TokenListMarker:    {Color: "#b06a00", Bold: true},
	TokenBlockquote:    {Color: "#6b8e23"},
	TokenThematicBreak: {Color: "#8a8a8a"},
	TokenHTML:          {Color: "#7a3e9d"},
}

var highContrastPalette = map[TokenKind]Style{
	TokenText:          {Color: "#000000"},
	TokenHeading:       {Color: "#002b80", Bold: true},
	TokenEmphasis:      {Color: "#000000", Italic: true},
	TokenStrong:        {Color: "#000000", Bold: true},
	TokenStrikethrough: {Color: "#4d4d4d"},
	TokenCode:          {Color: "#7a0000", Bold: true},
	TokenCodeBlock:     {Color: "#7a0000"},
	TokenFence:         {Color: "#404040", Bold: true},
	TokenLink:          {Color: "#0033a0", Bold: true},
	TokenImage:         {Color: "#0033a0", Italic: true},
	TokenListMarker:    {Color: "#6b3a00", Bold: true},
	TokenBlockquote:    {Color: "#2f4a00", Bold: true},
	TokenThematicBreak: {Color: "#404040", Bold: true},
	TokenHTML:          {Color: "#4b0073", Bold: true},
}

// maxHighContrastLightness caps the Lab lightness of the accent in
// high-contrast mode so it stays readable on a light background.
const maxHighContrastLightness = 0.45

// Theme returns the style for every token kind under opts. An invalid
// accent color is ignored.
func Theme(opts Options) map[TokenKind]Style {
	base := defaultPalette
	if opts.HighContrast {
		base = highContrastPalette
	}
	out := make(map[TokenKind]Style, len(base))
	for k, v := range base {
		out[k] = v
	}

	if opts.AccentColor == "" {
		return out
	}
	accent, err := colorful.Hex(opts.AccentColor)
	if err != nil {
		return out
	}
	if opts.HighContrast {
		accent = darken(accent, maxHighContrastLightness)
	}
	for _, k := range []TokenKind{TokenHeading, TokenLink, TokenImage} {
		s := out[k]
		s.Color = accent.Hex()
		out[k] = s
	}
	return out
}

// darken blends c toward black until its Lab lightness is at most limit.
func darken(c colorful.Color, limit float64) colorful.Color {
	l, _, _ := c.Lab()
	if l <= limit {
		return c
	}
	black := colorful.Color{}
	return c.BlendLab(black, 1-limit/l).Clamped()
}
