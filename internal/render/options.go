package render

// HTMLPolicy controls how raw HTML in the source is rendered.
type HTMLPolicy int

const (
	// HTMLRenderAsText shows raw HTML verbatim.
	HTMLRenderAsText HTMLPolicy = iota
	// HTMLIgnore drops raw HTML from the rendered text.
	HTMLIgnore
)

// String returns the policy name used in configuration files.
func (p HTMLPolicy) String() string {
	if p == HTMLIgnore {
		return "ignore"
	}
	return "text"
}

// ParseHTMLPolicy parses "text" or "ignore". Unknown values yield
// HTMLRenderAsText.
func ParseHTMLPolicy(s string) HTMLPolicy {
	if s == "ignore" {
		return HTMLIgnore
	}
	return HTMLRenderAsText
}

// MathPolicy controls how $...$ formulas are rendered.
type MathPolicy int

const (
	// MathDisabled leaves formulas untouched, delimiters included.
	MathDisabled MathPolicy = iota
	// MathStyledText strips the delimiters of formulas no longer than
	// Options.MaxMathFormulaLength.
	MathStyledText
)

// String returns the policy name used in configuration files.
func (p MathPolicy) String() string {
	if p == MathStyledText {
		return "styled"
	}
	return "disabled"
}

// ParseMathPolicy parses "disabled" or "styled".
func ParseMathPolicy(s string) MathPolicy {
	if s == "styled" {
		return MathStyledText
	}
	return MathDisabled
}

// Options configures one render pass.
type Options struct {
	// InlineHTML applies to raw HTML inside paragraphs.
	InlineHTML HTMLPolicy
	// BlockHTML applies to HTML blocks.
	BlockHTML HTMLPolicy

	// RenderImages renders images as an attachment character instead of
	// their alt text.
	RenderImages bool
	// AllowRemoteImages extends RenderImages to http(s) images.
	AllowRemoteImages bool

	// CodeSyntaxHighlighting reports fenced code languages in Result.CodeBlocks.
	CodeSyntaxHighlighting bool

	Math                 MathPolicy
	MaxMathFormulaLength int

	// BaseURL resolves relative link and image destinations.
	BaseURL string

	// GFM enables tables, strikethrough, task lists and autolinks.
	GFM bool
	// Typographer converts quotes and dashes to typographic characters.
	Typographer bool

	// MaxSourceBytes rejects larger sources when positive.
	MaxSourceBytes int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		InlineHTML:             HTMLRenderAsText,
		BlockHTML:              HTMLRenderAsText,
		RenderImages:           true,
		AllowRemoteImages:      false,
		CodeSyntaxHighlighting: true,
		Math:                   MathStyledText,
		MaxMathFormulaLength:   256,
		GFM:                    true,
		Typographer:            false,
	}
}
